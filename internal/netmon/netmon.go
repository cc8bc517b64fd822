// Package netmon produces the network-quality signal. It is advisory: the
// journal engine's fallback behavior is driven by per-call deadlines, not by
// this monitor, so a stale reading here can never corrupt a write.
package netmon

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/inkwell-app/inkwell/internal/events"
)

// Quality buckets probe latency into the three states the status surface
// reports.
type Quality int

const (
	QualityOffline Quality = iota
	QualitySlow
	QualityFast
)

func (q Quality) String() string {
	switch q {
	case QualityFast:
		return "fast"
	case QualitySlow:
		return "slow"
	default:
		return "offline"
	}
}

// Prober is the health surface the monitor polls. *remote.Adapter satisfies
// it.
type Prober interface {
	Health(ctx context.Context) (time.Duration, error)
}

// Monitor polls a Prober at a fixed interval, backing off exponentially
// while the endpoint is unreachable, and publishes connectivity transitions
// on the event bus.
type Monitor struct {
	probe    Prober
	bus      *events.Bus
	interval time.Duration
	slow     time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	quality Quality
	latency time.Duration
}

// New builds a monitor. interval is the steady-state probe cadence; slow is
// the latency above which a reachable endpoint is reported as slow.
func New(probe Prober, bus *events.Bus, interval, slow time.Duration, log zerolog.Logger) *Monitor {
	return &Monitor{
		probe:    probe,
		bus:      bus,
		interval: interval,
		slow:     slow,
		log:      log.With().Str("component", "netmon").Logger(),
		quality:  QualityOffline,
	}
}

// Start runs the probe loop until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	go m.loop(ctx)
}

func (m *Monitor) loop(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.interval / 4
	bo.MaxInterval = m.interval
	bo.MaxElapsedTime = 0

	for {
		q, _ := m.Probe(ctx)

		wait := m.interval
		if q == QualityOffline {
			wait = bo.NextBackOff()
		} else {
			bo.Reset()
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// Probe performs a single health check, updates the snapshot, and publishes
// a transition when the state changed.
func (m *Monitor) Probe(ctx context.Context) (Quality, time.Duration) {
	lat, err := m.probe.Health(ctx)
	q := QualityOffline
	if err == nil {
		if lat > m.slow {
			q = QualitySlow
		} else {
			q = QualityFast
		}
	}
	m.record(q, lat)
	return q, lat
}

func (m *Monitor) record(q Quality, lat time.Duration) {
	m.mu.Lock()
	prev := m.quality
	m.quality = q
	m.latency = lat
	m.mu.Unlock()

	if prev == q {
		return
	}
	m.log.Info().Str("from", prev.String()).Str("to", q.String()).Dur("latency", lat).Msg("connectivity changed")
	if m.bus != nil {
		m.bus.Publish(events.Event{Kind: events.KindConnectivityChanged, Online: q != QualityOffline})
	}
}

// Quality reports the most recent probe result.
func (m *Monitor) Quality() (Quality, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quality, m.latency
}
