package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/parcelview/tracking-engine/internal/core/domain"
	"github.com/parcelview/tracking-engine/internal/core/ports"
	"github.com/parcelview/tracking-engine/pkg/geo"
)

// geocodeAttempts caps how many located timeline events are tried when
// resolving the current position from event text.
const geocodeAttempts = 3

const updatesBuffer = 16

// SessionConfig tunes a tracking session.
type SessionConfig struct {
	// DefaultOrigin is the fixed fallback when no current position can be
	// resolved at all.
	DefaultOrigin domain.Coordinates
	// DestinationOffsetKm displaces the fallback destination from the
	// current position when the receiver address cannot be geocoded.
	DestinationOffsetKm float64
	// ProviderTimeout bounds each store lookup and provider call.
	ProviderTimeout time.Duration
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.DefaultOrigin.IsZero() {
		// Central sorting hub used when nothing else resolves.
		c.DefaultOrigin = domain.Coordinates{Lat: 19.4326, Lng: -99.1332}
	}
	if c.DestinationOffsetKm <= 0 {
		c.DestinationOffsetKm = 2
	}
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = 8 * time.Second
	}
	return c
}

// TrackingSession orchestrates one consumer's tracking lifecycle: lookup,
// timeline, coordinate resolution, ETA, routing and live updates. All
// mutable state (map coordinates, active tracker) is owned exclusively by
// the session; a per-lookup generation token guards against results from a
// superseded lookup being applied.
type TrackingSession struct {
	parcels     ports.ParcelRepository
	events      ports.EventLogRepository
	assignments ports.AssignmentWatcher
	geocoder    ports.Geocoder
	router      ports.RoutePlanner
	timeline    *TimelineBuilder
	cfg         SessionConfig
	log         zerolog.Logger
	now         func() time.Time

	// lookupMu serializes Lookup so only one is in flight per session.
	lookupMu sync.Mutex

	mu          sync.Mutex
	generation  string
	mapState    domain.MapCoordinates
	route       *domain.Route
	tracker     *LocationTracker
	watchCancel context.CancelFunc
	closed      bool

	updates chan ports.LocationUpdate
}

// SessionFactory builds a fresh session per consumer.
type SessionFactory func() ports.TrackingService

func NewTrackingSession(
	parcels ports.ParcelRepository,
	events ports.EventLogRepository,
	assignments ports.AssignmentWatcher,
	geocoder ports.Geocoder,
	router ports.RoutePlanner,
	cfg SessionConfig,
	log zerolog.Logger,
) *TrackingSession {
	return &TrackingSession{
		parcels:     parcels,
		events:      events,
		assignments: assignments,
		geocoder:    geocoder,
		router:      router,
		timeline:    NewTimelineBuilder(log),
		cfg:         cfg.withDefaults(),
		log:         log,
		now:         time.Now,
		updates:     make(chan ports.LocationUpdate, updatesBuffer),
	}
}

// Lookup resolves a tracking identifier into a full tracking snapshot.
// Any previous lookup is fully torn down (tracker stopped, map cleared)
// before new state is established.
func (s *TrackingSession) Lookup(ctx context.Context, trackingID string) (*ports.TrackingSnapshot, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, domain.ErrEmptyTrackingID
	}

	s.lookupMu.Lock()
	defer s.lookupMu.Unlock()

	gen := s.reset()
	if gen == "" {
		return nil, domain.ErrLookupSuperseded
	}

	parcel, err := s.fetchParcel(ctx, trackingID)
	if err != nil {
		return nil, err
	}

	timeline := s.buildTimeline(ctx, parcel)

	current, currentDesc := s.resolveCurrent(ctx, parcel, timeline)
	dest := s.resolveDestination(ctx, parcel, current)

	distanceKm := geo.HaversineKm(current.Lat, current.Lng, dest.Lat, dest.Lng)
	eta := EstimateDelivery(parcel, distanceKm, s.now())

	route, routeErr := s.resolveRoute(ctx, current, dest)

	mapState := domain.MapCoordinates{
		Current:            current,
		Destination:        dest,
		CurrentDescription: currentDesc,
		RouteAvailable:     routeErr == nil,
		LastUpdated:        domain.TimestampFromTime(s.now()),
	}
	if route != nil {
		mapState.RouteDistanceKm = route.DistanceKm
	}

	s.mu.Lock()
	if s.closed || s.generation != gen {
		s.mu.Unlock()
		return nil, domain.ErrLookupSuperseded
	}
	s.mapState = mapState
	s.route = route
	s.mu.Unlock()

	live := false
	if parcel.Status.InFlight() {
		live = s.startLiveTracking(gen, trackingID, dest)
	}

	s.log.Info().
		Str("tracking_id", trackingID).
		Str("status", string(parcel.Status)).
		Float64("distance_km", distanceKm).
		Bool("route_available", routeErr == nil).
		Bool("live", live).
		Msg("tracking lookup resolved")

	return &ports.TrackingSnapshot{
		Parcel:       parcel,
		Timeline:     timeline,
		Map:          mapState,
		Route:        route,
		ETA:          eta,
		Generation:   gen,
		LiveTracking: live,
	}, nil
}

// Updates streams accepted live location updates for the active lookup.
func (s *TrackingSession) Updates() <-chan ports.LocationUpdate {
	return s.updates
}

// MapState returns a copy of the current map view state.
func (s *TrackingSession) MapState() domain.MapCoordinates {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapState
}

// Close tears the session down. Idempotent and safe from cleanup paths.
func (s *TrackingSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	tracker := s.tracker
	cancel := s.watchCancel
	s.tracker = nil
	s.watchCancel = nil
	// Closed under the mutex: applyUpdate publishes while holding it, so an
	// in-flight send can never race this close.
	close(s.updates)
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if tracker != nil {
		tracker.Stop()
	}
}

// reset tears down the previous lookup and mints a new generation token.
// Returns "" when the session is already closed.
func (s *TrackingSession) reset() string {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ""
	}
	tracker := s.tracker
	cancel := s.watchCancel
	s.tracker = nil
	s.watchCancel = nil
	s.generation = uuid.NewString()
	gen := s.generation
	s.mapState = domain.MapCoordinates{}
	s.route = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if tracker != nil {
		tracker.Stop()
	}
	return gen
}

func (s *TrackingSession) fetchParcel(ctx context.Context, trackingID string) (*domain.Parcel, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	parcel, err := s.parcels.GetByTrackingID(fetchCtx, trackingID)
	if err != nil {
		if !errors.Is(err, domain.ErrParcelNotFound) {
			s.log.Error().Err(err).Str("tracking_id", trackingID).Msg("parcel lookup failed")
		}
		return nil, err
	}

	if parcel.Status == "" {
		parcel.Status = domain.StatusRegistered
	} else {
		parcel.Status = domain.ParseStatus(string(parcel.Status))
	}
	return parcel, nil
}

// buildTimeline merges the event log into the parcel record. A log fetch
// failure degrades to an empty log; the timeline is still produced.
func (s *TrackingSession) buildTimeline(ctx context.Context, parcel *domain.Parcel) []domain.TrackingEvent {
	queryCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	entries, err := s.events.QueryByTrackingID(queryCtx, parcel.TrackingID)
	if err != nil {
		s.log.Warn().Err(err).
			Str("tracking_id", parcel.TrackingID).
			Msg("event log unavailable, building timeline from parcel record only")
		entries = nil
	}
	return s.timeline.Build(parcel, entries)
}

// resolveCurrent picks the best current position: the courier's last
// reported coordinates when out for delivery, then geocoded timeline event
// text, then the fixed default origin.
func (s *TrackingSession) resolveCurrent(ctx context.Context, parcel *domain.Parcel, timeline []domain.TrackingEvent) (domain.Coordinates, string) {
	if parcel.Status == domain.StatusOutForDelivery {
		readCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
		sample, err := s.assignments.LastByTrackingID(readCtx, parcel.TrackingID)
		cancel()
		switch {
		case err == nil && sample.Validate() == nil:
			return sample.Coordinates(), sample.Description
		case err != nil && !errors.Is(err, domain.ErrNoResult):
			s.log.Warn().Err(err).Str("tracking_id", parcel.TrackingID).Msg("courier position read failed")
		}
	}

	attempts := 0
	for _, ev := range timeline { // newest first
		if ev.Location == "" {
			continue
		}
		if attempts >= geocodeAttempts {
			break
		}
		attempts++

		res, err := s.forwardGeocode(ctx, ev.Location)
		if err == nil {
			return domain.Coordinates{Lat: res.Lat, Lng: res.Lng}, res.FormattedAddress
		}
		if !errors.Is(err, domain.ErrNoResult) {
			s.log.Warn().Err(err).Str("location", ev.Location).Msg("geocoding current position failed")
			break
		}
	}

	return s.cfg.DefaultOrigin, ""
}

// resolveDestination geocodes the receiver address; on any failure it falls
// back to an offset near the current position so the destination is never
// left unset.
func (s *TrackingSession) resolveDestination(ctx context.Context, parcel *domain.Parcel, current domain.Coordinates) domain.Coordinates {
	if addr := parcel.ReceiverAddress.FullText(); addr != "" {
		res, err := s.forwardGeocode(ctx, addr)
		if err == nil {
			return domain.Coordinates{Lat: res.Lat, Lng: res.Lng}
		}
		s.log.Warn().Err(err).
			Str("tracking_id", parcel.TrackingID).
			Msg("destination geocoding failed, using offset fallback")
	}

	lat, lng := geo.OffsetKm(current.Lat, current.Lng, s.cfg.DestinationOffsetKm, s.cfg.DestinationOffsetKm)
	return domain.Coordinates{Lat: lat, Lng: lng}
}

func (s *TrackingSession) forwardGeocode(ctx context.Context, address string) (*ports.GeocodeResult, error) {
	geocodeCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	return s.geocoder.Forward(geocodeCtx, address)
}

func (s *TrackingSession) resolveRoute(ctx context.Context, origin, dest domain.Coordinates) (*domain.Route, error) {
	routeCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	route, err := s.router.Route(routeCtx, origin, dest)
	if err != nil {
		s.log.Warn().Err(err).Msg("route resolution failed, straight-line fallback applies")
		return nil, err
	}
	return route, nil
}

// startLiveTracking opens the assignment subscription for an in-flight
// parcel. Failure to start is logged but never fails the lookup.
func (s *TrackingSession) startLiveTracking(gen, trackingID string, dest domain.Coordinates) bool {
	tracker := NewLocationTracker(s.assignments, s.log)
	watchCtx, cancel := context.WithCancel(context.Background())

	if err := tracker.Start(watchCtx, trackingID); err != nil {
		cancel()
		s.log.Warn().Err(err).Str("tracking_id", trackingID).Msg("live tracking unavailable")
		return false
	}

	s.mu.Lock()
	if s.closed || s.generation != gen {
		s.mu.Unlock()
		cancel()
		tracker.Stop()
		return false
	}
	s.tracker = tracker
	s.watchCancel = cancel
	s.mu.Unlock()

	go s.consumeTracker(watchCtx, gen, dest, tracker)
	return true
}

func (s *TrackingSession) consumeTracker(ctx context.Context, gen string, dest domain.Coordinates, tracker *LocationTracker) {
	for {
		select {
		case <-ctx.Done():
			return
		case sample := <-tracker.Updates():
			if !s.applyUpdate(ctx, gen, dest, sample) {
				return
			}
		}
	}
}

// applyUpdate reverse-geocodes an accepted sample, re-resolves the route to
// the fixed destination, and replaces the map state wholesale. Returns false
// once the generation token no longer matches.
func (s *TrackingSession) applyUpdate(ctx context.Context, gen string, dest domain.Coordinates, sample domain.LocationSample) bool {
	desc := sample.Description
	if desc == "" {
		revCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
		res, err := s.geocoder.Reverse(revCtx, sample.Lat, sample.Lng)
		cancel()
		if err == nil {
			desc = res.FormattedAddress
		}
	}

	route, routeErr := s.resolveRoute(ctx, sample.Coordinates(), dest)

	s.mu.Lock()
	if s.closed || s.generation != gen {
		s.mu.Unlock()
		return false
	}
	mapState := s.mapState
	mapState.Current = sample.Coordinates()
	mapState.CurrentDescription = desc
	mapState.RouteAvailable = routeErr == nil
	mapState.RouteDistanceKm = 0
	if route != nil {
		mapState.RouteDistanceKm = route.DistanceKm
	}
	if sample.Timestamp.IsZero() {
		mapState.LastUpdated = domain.TimestampFromTime(s.now())
	} else {
		mapState.LastUpdated = sample.Timestamp
	}
	s.mapState = mapState
	s.route = route

	// Published while still holding the mutex so Close cannot close the
	// channel between the closed check above and this send.
	update := ports.LocationUpdate{Sample: sample, Map: mapState, Route: route, Generation: gen}
	delivered := true
	select {
	case s.updates <- update:
	default:
		delivered = false
	}
	s.mu.Unlock()

	if !delivered {
		s.log.Warn().Msg("updates consumer lagging, live update dropped")
	}
	return true
}
