// Package kv is the local persistent key/value surface backing the fallback
// journal blob, the active draft, and cached preferences. Values are JSON
// under well-known keys; a corrupt or unreadable value is treated as absent
// and logged, never propagated.
package kv

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/peterbourgon/diskv/v3"
	"github.com/rs/zerolog"
)

// Well-known keys.
const (
	KeyFallbackJournals = "fallback-journals"
	KeyDraft            = "journal-draft"
	KeyPreferences      = "preferences"
	KeyTimeTracked      = "time-tracked"
)

// Store wraps diskv with JSON marshaling and the corruption-is-empty policy.
type Store struct {
	d   *diskv.Diskv
	log zerolog.Logger
}

// Open creates a Store rooted at dir.
func Open(dir string, log zerolog.Logger) *Store {
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:     dir,
			CacheSizeMax: 1024 * 1024, // 1MB
		}),
		log: log.With().Str("component", "kv").Logger(),
	}
}

// Get unmarshals the value under key into out. It returns false when the key
// is absent or its value cannot be parsed; the caller proceeds with the zero
// value either way.
func (s *Store) Get(key string, out interface{}) bool {
	val, err := s.d.Read(key)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Str("key", key).Msg("read failed, treating as empty")
		}
		return false
	}
	if err := json.Unmarshal(val, out); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("corrupt value, treating as empty")
		return false
	}
	return true
}

// Put stores v as JSON under key.
func (s *Store) Put(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.d.Write(key, data)
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(key string) error {
	err := s.d.Erase(key)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
