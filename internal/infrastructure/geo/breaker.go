package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/parcelview/tracking-engine/internal/core/domain"
	"github.com/parcelview/tracking-engine/internal/core/ports"
	"github.com/parcelview/tracking-engine/internal/pkg/metrics"
)

// breakerSettings trips after at least 10 requests with a failure ratio of
// 60% or more, then probes again after 30 seconds.
func breakerSettings(name string, log zerolog.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			metrics.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
		// A clean "not found" answer is a healthy provider, not a failure.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrNoResult) ||
				errors.Is(err, domain.ErrRouteUnavailable)
		},
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

func mapBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: circuit open", domain.ErrProviderUnavailable)
	}
	return err
}

// BreakerGeocoder shields a geocoder behind a circuit breaker so a dead
// provider fails fast instead of stacking up timed-out lookups.
type BreakerGeocoder struct {
	inner ports.Geocoder
	cb    *gobreaker.CircuitBreaker[*ports.GeocodeResult]
}

func NewBreakerGeocoder(inner ports.Geocoder, log zerolog.Logger) *BreakerGeocoder {
	return &BreakerGeocoder{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[*ports.GeocodeResult](breakerSettings("geocoder", log)),
	}
}

func (b *BreakerGeocoder) Forward(ctx context.Context, address string) (*ports.GeocodeResult, error) {
	result, err := b.cb.Execute(func() (*ports.GeocodeResult, error) {
		return b.inner.Forward(ctx, address)
	})
	metrics.GeocodeRequestsTotal.WithLabelValues("forward", outcomeLabel(err)).Inc()
	if err != nil {
		return nil, mapBreakerErr(err)
	}
	return result, nil
}

func (b *BreakerGeocoder) Reverse(ctx context.Context, lat, lng float64) (*ports.GeocodeResult, error) {
	result, err := b.cb.Execute(func() (*ports.GeocodeResult, error) {
		return b.inner.Reverse(ctx, lat, lng)
	})
	metrics.GeocodeRequestsTotal.WithLabelValues("reverse", outcomeLabel(err)).Inc()
	if err != nil {
		return nil, mapBreakerErr(err)
	}
	return result, nil
}

// BreakerRouter shields a route planner behind a circuit breaker.
type BreakerRouter struct {
	inner ports.RoutePlanner
	cb    *gobreaker.CircuitBreaker[*domain.Route]
}

func NewBreakerRouter(inner ports.RoutePlanner, log zerolog.Logger) *BreakerRouter {
	return &BreakerRouter{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[*domain.Route](breakerSettings("router", log)),
	}
}

func (b *BreakerRouter) Route(ctx context.Context, origin, dest domain.Coordinates) (*domain.Route, error) {
	route, err := b.cb.Execute(func() (*domain.Route, error) {
		return b.inner.Route(ctx, origin, dest)
	})
	metrics.RouteResolutionsTotal.WithLabelValues(outcomeLabel(err)).Inc()
	if err != nil {
		return nil, mapBreakerErr(err)
	}
	return route, nil
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNoResult), errors.Is(err, domain.ErrRouteUnavailable):
		return "no_result"
	default:
		return "error"
	}
}
