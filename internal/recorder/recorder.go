// Package recorder persists measurements at a bounded rate.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ud18_logger/internal/models"
	"ud18_logger/internal/repository"
)

// DefaultInterval is the minimum spacing between persisted records.
const DefaultInterval = 5 * time.Second

// ErrStoreWrite wraps any failure to append an admitted record.
var ErrStoreWrite = errors.New("store write failed")

// Recorder admits at most one record per interval and appends admitted
// records to the store before Admit returns.
type Recorder struct {
	store    repository.RecordStore
	interval time.Duration

	mu             sync.Mutex
	lastAcceptedAt time.Time
	accepted       bool
	saved          uint64
	throttled      uint64
}

// New returns a Recorder writing to store. A non-positive interval selects
// DefaultInterval.
func New(store repository.RecordStore, interval time.Duration) *Recorder {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Recorder{store: store, interval: interval}
}

// Interval returns the configured spacing.
func (r *Recorder) Interval() time.Duration { return r.interval }

// Admit persists m when now is at least one interval after the previous
// admission (or there was none). It reports whether m was written.
// The throttle only advances on a successful append.
func (r *Recorder) Admit(ctx context.Context, m models.Measurement, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.accepted && now.Sub(r.lastAcceptedAt) < r.interval {
		r.throttled++
		return false, nil
	}
	if err := r.store.Append(ctx, m); err != nil {
		return false, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	r.lastAcceptedAt = now
	r.accepted = true
	r.saved++
	return true, nil
}

// Stats is a snapshot of the recorder counters.
type Stats struct {
	Saved          uint64    `json:"saved"`
	Throttled      uint64    `json:"throttled"`
	LastAcceptedAt time.Time `json:"last_accepted_at"`
}

func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{Saved: r.saved, Throttled: r.throttled, LastAcceptedAt: r.lastAcceptedAt}
}
