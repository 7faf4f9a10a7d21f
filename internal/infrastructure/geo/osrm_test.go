package geo

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/parcelview/tracking-engine/internal/core/domain"
)

func newTestRouter(t *testing.T, handler http.HandlerFunc) *OSRMRouter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOSRMRouter(RouterConfig{BaseURL: srv.URL}, zerolog.Nop())
}

func TestOSRMRoute(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		// Coordinates must arrive as lng,lat pairs.
		if !strings.HasPrefix(r.URL.Path, "/route/v1/driving/-99.1332,19.4326;-99.1,19.5") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"code": "Ok",
			"routes": [{
				"distance": 12500.0,
				"geometry": {"coordinates": [[-99.1332, 19.4326], [-99.12, 19.46], [-99.1, 19.5]]}
			}]
		}`))
	})

	route, err := router.Route(context.Background(),
		domain.Coordinates{Lat: 19.4326, Lng: -99.1332},
		domain.Coordinates{Lat: 19.5, Lng: -99.1})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if math.Abs(route.DistanceKm-12.5) > 1e-9 {
		t.Errorf("DistanceKm = %v, want 12.5", route.DistanceKm)
	}
	if len(route.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(route.Points))
	}
	if route.Points[0].Lat != 19.4326 || route.Points[0].Lng != -99.1332 {
		t.Errorf("first point not converted to lat/lng order: %+v", route.Points[0])
	}
}

func TestOSRMRouteNoRoute(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code": "NoRoute", "routes": []}`))
	})

	_, err := router.Route(context.Background(), domain.Coordinates{Lat: 1}, domain.Coordinates{Lat: 2})
	if !errors.Is(err, domain.ErrRouteUnavailable) {
		t.Fatalf("expected ErrRouteUnavailable, got %v", err)
	}
}

func TestOSRMRouteProviderFailure(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code": "InternalError"}`))
	})

	_, err := router.Route(context.Background(), domain.Coordinates{Lat: 1}, domain.Coordinates{Lat: 2})
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestOSRMRouteEmptyRoutes(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": "Ok", "routes": []}`))
	})

	_, err := router.Route(context.Background(), domain.Coordinates{Lat: 1}, domain.Coordinates{Lat: 2})
	if !errors.Is(err, domain.ErrRouteUnavailable) {
		t.Fatalf("expected ErrRouteUnavailable, got %v", err)
	}
}
