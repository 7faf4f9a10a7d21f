package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/parcelview/tracking-engine/internal/core/domain"
)

func newTestGeocoder(t *testing.T, handler http.HandlerFunc) *NominatimGeocoder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewNominatimGeocoder(GeocoderConfig{
		BaseURL:    srv.URL,
		RatePerSec: 1000, // keep tests fast
	}, zerolog.Nop())
}

func TestNominatimForward(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "Av Reforma 222, CDMX 06600" {
			t.Errorf("unexpected query %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "1" {
			t.Errorf("unexpected limit %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"19.4326","lon":"-99.1332","display_name":"Av Reforma 222, Ciudad de México"}]`))
	})

	result, err := g.Forward(context.Background(), "Av Reforma 222, CDMX 06600")
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if result.Lat != 19.4326 || result.Lng != -99.1332 {
		t.Errorf("unexpected coordinates (%v, %v)", result.Lat, result.Lng)
	}
	if result.FormattedAddress != "Av Reforma 222, Ciudad de México" {
		t.Errorf("unexpected address %q", result.FormattedAddress)
	}
}

func TestNominatimForwardNoResult(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := g.Forward(context.Background(), "nowhere at all")
	if !errors.Is(err, domain.ErrNoResult) {
		t.Fatalf("expected ErrNoResult, got %v", err)
	}
}

func TestNominatimForwardServerError(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := g.Forward(context.Background(), "Av Reforma 222")
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestNominatimReverse(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("lat"); got != "19.4326" {
			t.Errorf("unexpected lat %q", got)
		}
		w.Write([]byte(`{"lat":"19.4326","lon":"-99.1332","display_name":"Centro, Ciudad de México"}`))
	})

	result, err := g.Reverse(context.Background(), 19.4326, -99.1332)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if result.FormattedAddress != "Centro, Ciudad de México" {
		t.Errorf("unexpected address %q", result.FormattedAddress)
	}
}

func TestNominatimReverseUnableToGeocode(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"Unable to geocode"}`))
	})

	_, err := g.Reverse(context.Background(), 0, 0)
	if !errors.Is(err, domain.ErrNoResult) {
		t.Fatalf("expected ErrNoResult, got %v", err)
	}
}

func TestNominatimForwardMalformedCoordinates(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"abc","lon":"-99.1332","display_name":"x"}]`))
	})

	_, err := g.Forward(context.Background(), "Av Reforma 222")
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}
