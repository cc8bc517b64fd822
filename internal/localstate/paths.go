package localstate

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	envHome    = "INKWELL_STATE_HOME" // override for tests
	dirName    = ".inkwell"           // default under $HOME
	dbFilename = "docstore.db"
)

// DataDir returns the directory where local state is stored (~/.inkwell).
// It creates the directory with 0700 permissions if it does not exist.
func DataDir() (string, error) {
	if custom := os.Getenv(envHome); custom != "" {
		if err := os.MkdirAll(custom, 0o700); err != nil {
			return "", err
		}
		return custom, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user home: %w", err)
	}
	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// DBPath returns the absolute path to the SQLite database file used by the
// document store service when no explicit path is configured.
func DBPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dbFilename), nil
}

// KVDir returns the directory backing the local key/value surface (fallback
// blob, draft, preferences).
func KVDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	sub := filepath.Join(dir, "kv")
	if err := os.MkdirAll(sub, 0o700); err != nil {
		return "", err
	}
	return sub, nil
}
