package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/parcelview/tracking-engine/internal/core/domain"
	"github.com/parcelview/tracking-engine/internal/core/ports"
	"github.com/parcelview/tracking-engine/internal/pkg/metrics"
)

// trackerState models the tracker lifecycle: Stopped -> Starting -> Active,
// with Stopped re-enterable any number of times.
type trackerState int

const (
	trackerStopped trackerState = iota
	trackerStarting
	trackerActive
)

const trackerBuffer = 16

// LocationTracker subscribes to the assignment store for one tracking
// identifier, validates incoming samples, and emits normalized updates.
// Only one subscription is active per tracker instance; starting while
// active implicitly stops the previous subscription first.
type LocationTracker struct {
	watcher ports.AssignmentWatcher
	log     zerolog.Logger

	mu          sync.Mutex
	state       trackerState
	sub         ports.Subscription
	cancel      context.CancelFunc
	generation  uint64
	lastApplied domain.Timestamp

	out chan domain.LocationSample
}

func NewLocationTracker(watcher ports.AssignmentWatcher, log zerolog.Logger) *LocationTracker {
	return &LocationTracker{
		watcher: watcher,
		log:     log,
		out:     make(chan domain.LocationSample, trackerBuffer),
	}
}

// Updates returns the normalized sample stream. The channel stays open
// across Start/Stop cycles so a consumer can keep a single receive loop.
func (t *LocationTracker) Updates() <-chan domain.LocationSample {
	return t.out
}

// Start opens a subscription for the given tracking identifier. Any previous
// subscription is stopped first.
func (t *LocationTracker) Start(ctx context.Context, trackingID string) error {
	t.Stop()

	t.mu.Lock()
	t.state = trackerStarting
	t.generation++
	gen := t.generation
	t.lastApplied = 0
	watchCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.mu.Unlock()

	sub, err := t.watcher.WatchByTrackingID(watchCtx, trackingID)
	if err != nil {
		cancel()
		t.mu.Lock()
		t.state = trackerStopped
		t.mu.Unlock()
		return fmt.Errorf("start tracker: %w", err)
	}

	t.mu.Lock()
	// A concurrent Stop or Start may have advanced the generation while the
	// subscription was being opened; if so, this one is already stale.
	if t.generation != gen {
		t.mu.Unlock()
		sub.Close()
		return nil
	}
	t.sub = sub
	t.state = trackerActive
	t.mu.Unlock()

	t.log.Info().Str("tracking_id", trackingID).Msg("live location tracker started")

	go t.consume(gen, trackingID, sub)
	return nil
}

// Stop cancels the active subscription and returns the tracker to Stopped.
// Safe to call redundantly and from cleanup paths.
func (t *LocationTracker) Stop() {
	t.mu.Lock()
	sub := t.sub
	cancel := t.cancel
	t.sub = nil
	t.cancel = nil
	t.generation++
	t.state = trackerStopped
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sub != nil {
		sub.Close()
	}
}

// Active reports whether a subscription is currently running.
func (t *LocationTracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == trackerActive
}

func (t *LocationTracker) consume(gen uint64, trackingID string, sub ports.Subscription) {
	for sample := range sub.Updates() {
		if err := sample.Validate(); err != nil {
			metrics.TrackerUpdatesTotal.WithLabelValues("invalid").Inc()
			t.log.Warn().Err(err).
				Str("tracking_id", trackingID).
				Msg("dropping invalid location sample")
			continue
		}

		t.mu.Lock()
		if t.generation != gen {
			t.mu.Unlock()
			return
		}
		// Samples may arrive out of order; only strictly newer embedded
		// timestamps are applied.
		if !sample.Timestamp.IsZero() && !sample.Timestamp.After(t.lastApplied) {
			t.mu.Unlock()
			metrics.TrackerUpdatesTotal.WithLabelValues("stale").Inc()
			t.log.Debug().
				Str("tracking_id", trackingID).
				Int64("timestamp", int64(sample.Timestamp)).
				Msg("dropping stale location sample")
			continue
		}
		t.lastApplied = sample.Timestamp
		t.mu.Unlock()

		select {
		case t.out <- sample:
			metrics.TrackerUpdatesTotal.WithLabelValues("applied").Inc()
		default:
			metrics.TrackerUpdatesTotal.WithLabelValues("dropped").Inc()
			t.log.Warn().
				Str("tracking_id", trackingID).
				Msg("subscriber lagging, location update dropped")
		}
	}
}
