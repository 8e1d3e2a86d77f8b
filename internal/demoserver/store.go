// Package demoserver is an embedded backend for trying sightline
// without a real monitoring server: live local metrics via gopsutil,
// synthetic history, a scripted assistant stream, and real command
// execution for the approval flow.
package demoserver

import (
	"math/rand"
	"sync"
	"time"

	"github.com/sightlinehq/sightline/internal/timeseries"
)

// retention is how much history the store keeps.
const retention = 7 * 24 * time.Hour

// backfillStep is the synthetic sample spacing.
const backfillStep = time.Minute

// Store keeps per-metric point history, oldest first.
type Store struct {
	mu     sync.RWMutex
	points map[string][]timeseries.Point
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{points: make(map[string][]timeseries.Point)}
}

// Append adds one sample and drops anything past retention.
func (s *Store) Append(metric string, p timeseries.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pts := append(s.points[metric], p)
	cutoff := p.TimestampMs - retention.Milliseconds()
	trim := 0
	for trim < len(pts) && pts[trim].TimestampMs < cutoff {
		trim++
	}
	s.points[metric] = pts[trim:]
}

// Range returns the points inside [fromMs, toMs], inclusive.
func (s *Store) Range(metric string, fromMs, toMs int64) []timeseries.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []timeseries.Point
	for _, p := range s.points[metric] {
		if p.TimestampMs >= fromMs && p.TimestampMs <= toMs {
			out = append(out, p)
		}
	}
	return out
}

// Latest returns the newest point for a metric.
func (s *Store) Latest(metric string) (timeseries.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pts := s.points[metric]
	if len(pts) == 0 {
		return timeseries.Point{}, false
	}
	return pts[len(pts)-1], true
}

// Backfill seeds the store with a deterministic week of plausible
// history, including one short outage per day so gap rendering has
// something to show.
func (s *Store) Backfill(now time.Time) {
	rng := rand.New(rand.NewSource(42))

	walks := map[string]*walk{
		"cpu":    {value: 35, jitter: 4, min: 2, max: 98},
		"memory": {value: 62, jitter: 1.5, min: 20, max: 95},
		"disk":   {value: 71, jitter: 0.05, min: 60, max: 90, drift: 0.0004},
		"net":    {value: 250_000, jitter: 60_000, min: 1000, max: 20_000_000},
	}

	start := now.Add(-retention)
	for ts := start; ts.Before(now); ts = ts.Add(backfillStep) {
		if inDailyOutage(ts) {
			continue
		}
		for metric, w := range walks {
			s.Append(metric, timeseries.Point{
				TimestampMs: ts.UnixMilli(),
				Value:       w.step(rng),
			})
		}
	}
}

// inDailyOutage carves a 30 minute hole out of each day at 03:10.
func inDailyOutage(ts time.Time) bool {
	minuteOfDay := ts.Hour()*60 + ts.Minute()
	return minuteOfDay >= 190 && minuteOfDay < 220
}

// walk is a bounded random walk for synthetic metric values.
type walk struct {
	value  float64
	jitter float64
	min    float64
	max    float64
	drift  float64
}

func (w *walk) step(rng *rand.Rand) float64 {
	w.value += (rng.Float64()*2-1)*w.jitter + w.drift
	if w.value < w.min {
		w.value = w.min
	}
	if w.value > w.max {
		w.value = w.max
	}
	return w.value
}
