package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/parcelview/tracking-engine/internal/core/domain"
	"github.com/parcelview/tracking-engine/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubSubscription struct {
	ch     chan domain.LocationSample
	mu     sync.Mutex
	closed bool
}

func newStubSubscription() *stubSubscription {
	return &stubSubscription{ch: make(chan domain.LocationSample, 8)}
}

func (s *stubSubscription) Updates() <-chan domain.LocationSample { return s.ch }

func (s *stubSubscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func (s *stubSubscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *stubSubscription) push(sample domain.LocationSample) { s.ch <- sample }

// tryPush delivers a sample unless the subscription is already closed or its
// buffer is full. Used by tests that race pushes against teardown.
func (s *stubSubscription) tryPush(sample domain.LocationSample) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- sample:
		return true
	default:
		return false
	}
}

type stubWatcher struct {
	mu       sync.Mutex
	subs     []*stubSubscription
	last     *domain.LocationSample
	watchErr error
	lastErr  error
}

func (w *stubWatcher) LastByTrackingID(_ context.Context, _ string) (*domain.LocationSample, error) {
	if w.lastErr != nil {
		return nil, w.lastErr
	}
	if w.last == nil {
		return nil, domain.ErrNoResult
	}
	return w.last, nil
}

func (w *stubWatcher) WatchByTrackingID(_ context.Context, _ string) (ports.Subscription, error) {
	if w.watchErr != nil {
		return nil, w.watchErr
	}
	sub := newStubSubscription()
	w.mu.Lock()
	w.subs = append(w.subs, sub)
	w.mu.Unlock()
	return sub, nil
}

func (w *stubWatcher) sub(i int) *stubSubscription {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.subs[i]
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func recvSample(t *testing.T, ch <-chan domain.LocationSample) domain.LocationSample {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for location update")
		return domain.LocationSample{}
	}
}

func expectNoSample(t *testing.T, ch <-chan domain.LocationSample) {
	t.Helper()
	select {
	case s := <-ch:
		t.Fatalf("unexpected update forwarded: %+v", s)
	case <-time.After(100 * time.Millisecond):
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestLocationTracker_ForwardsValidSample(t *testing.T) {
	watcher := &stubWatcher{}
	tracker := NewLocationTracker(watcher, zerolog.Nop())
	defer tracker.Stop()

	if err := tracker.Start(context.Background(), "PV-7A8B9C2D"); err != nil {
		t.Fatalf("start: %v", err)
	}

	watcher.sub(0).push(domain.LocationSample{Lat: 19.43, Lng: -99.13, Timestamp: 1000})
	got := recvSample(t, tracker.Updates())

	if got.Lat != 19.43 || got.Lng != -99.13 {
		t.Errorf("unexpected sample: %+v", got)
	}
	expectNoSample(t, tracker.Updates())
}

func TestLocationTracker_DropsInvalidSample(t *testing.T) {
	watcher := &stubWatcher{}
	tracker := NewLocationTracker(watcher, zerolog.Nop())
	defer tracker.Stop()

	if err := tracker.Start(context.Background(), "PV-7A8B9C2D"); err != nil {
		t.Fatalf("start: %v", err)
	}

	watcher.sub(0).push(domain.LocationSample{Lat: 95, Lng: 101.6, Timestamp: 1000})
	expectNoSample(t, tracker.Updates())

	// The tracker must stay active and keep forwarding valid samples.
	watcher.sub(0).push(domain.LocationSample{Lat: 19.43, Lng: -99.13, Timestamp: 2000})
	recvSample(t, tracker.Updates())
}

func TestLocationTracker_DropsStaleTimestamp(t *testing.T) {
	watcher := &stubWatcher{}
	tracker := NewLocationTracker(watcher, zerolog.Nop())
	defer tracker.Stop()

	if err := tracker.Start(context.Background(), "PV-7A8B9C2D"); err != nil {
		t.Fatalf("start: %v", err)
	}

	watcher.sub(0).push(domain.LocationSample{Lat: 19.43, Lng: -99.13, Timestamp: 5000})
	recvSample(t, tracker.Updates())

	// Older and equal embedded timestamps are dropped.
	watcher.sub(0).push(domain.LocationSample{Lat: 19.44, Lng: -99.14, Timestamp: 4000})
	watcher.sub(0).push(domain.LocationSample{Lat: 19.45, Lng: -99.15, Timestamp: 5000})
	expectNoSample(t, tracker.Updates())

	watcher.sub(0).push(domain.LocationSample{Lat: 19.46, Lng: -99.16, Timestamp: 6000})
	got := recvSample(t, tracker.Updates())
	if got.Timestamp != 6000 {
		t.Errorf("expected the newer sample, got %+v", got)
	}
}

func TestLocationTracker_StopIsIdempotent(t *testing.T) {
	watcher := &stubWatcher{}
	tracker := NewLocationTracker(watcher, zerolog.Nop())

	if err := tracker.Start(context.Background(), "PV-7A8B9C2D"); err != nil {
		t.Fatalf("start: %v", err)
	}

	tracker.Stop()
	tracker.Stop()
	tracker.Stop()

	if tracker.Active() {
		t.Error("tracker must be stopped")
	}
	if !watcher.sub(0).isClosed() {
		t.Error("subscription must be closed on stop")
	}
}

func TestLocationTracker_RestartStopsPreviousSubscription(t *testing.T) {
	watcher := &stubWatcher{}
	tracker := NewLocationTracker(watcher, zerolog.Nop())
	defer tracker.Stop()

	if err := tracker.Start(context.Background(), "PV-AAAA0001"); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := tracker.Start(context.Background(), "PV-BBBB0002"); err != nil {
		t.Fatalf("second start: %v", err)
	}

	if !watcher.sub(0).isClosed() {
		t.Error("previous subscription must be closed by restart")
	}
	if watcher.sub(1).isClosed() {
		t.Error("new subscription must stay open")
	}

	watcher.sub(1).push(domain.LocationSample{Lat: 19.43, Lng: -99.13, Timestamp: 1000})
	recvSample(t, tracker.Updates())
}

func TestLocationTracker_StartErrorLeavesStopped(t *testing.T) {
	watcher := &stubWatcher{watchErr: context.DeadlineExceeded}
	tracker := NewLocationTracker(watcher, zerolog.Nop())

	if err := tracker.Start(context.Background(), "PV-7A8B9C2D"); err == nil {
		t.Fatal("expected start error")
	}
	if tracker.Active() {
		t.Error("tracker must remain stopped after a failed start")
	}
}
