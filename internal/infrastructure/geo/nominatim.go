// Package geo contains the adapters for the external geocoding and routing
// providers: plain HTTP clients with bounded timeouts, a request rate limit
// on the geocoder, and circuit breakers that turn provider outages into
// immediate fallbacks instead of pile-ups.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/parcelview/tracking-engine/internal/core/domain"
	"github.com/parcelview/tracking-engine/internal/core/ports"
)

const defaultHTTPTimeout = 8 * time.Second

// userAgent identifies this service to the geocoding provider, which
// requires a meaningful agent string for API access.
const userAgent = "parcelview-tracking-engine/1.0"

// GeocoderConfig configures the Nominatim-compatible geocoding client.
type GeocoderConfig struct {
	BaseURL string
	Timeout time.Duration
	// RatePerSec caps outbound requests; public Nominatim instances allow
	// one request per second.
	RatePerSec float64
}

// NominatimGeocoder resolves addresses against a Nominatim-compatible
// endpoint. Transient failures are reported distinct from "no result" so
// callers can pick the right fallback.
type NominatimGeocoder struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewNominatimGeocoder(cfg GeocoderConfig, log zerolog.Logger) *NominatimGeocoder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}

	return &NominatimGeocoder{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
		log:     log,
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error,omitempty"`
}

// Forward resolves an address to coordinates. Returns domain.ErrNoResult
// when the provider knows nothing about the address.
func (g *NominatimGeocoder) Forward(ctx context.Context, address string) (*ports.GeocodeResult, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	var results []nominatimResult
	if err := g.getJSON(ctx, g.baseURL+"/search?"+q.Encode(), &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("forward geocode %q: %w", address, domain.ErrNoResult)
	}

	return results[0].toResult()
}

// Reverse resolves coordinates to a display address.
func (g *NominatimGeocoder) Reverse(ctx context.Context, lat, lng float64) (*ports.GeocodeResult, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("format", "json")

	var result nominatimResult
	if err := g.getJSON(ctx, g.baseURL+"/reverse?"+q.Encode(), &result); err != nil {
		return nil, err
	}
	// The reverse endpoint reports "Unable to geocode" inside a 200 body.
	if result.Error != "" || result.DisplayName == "" {
		return nil, fmt.Errorf("reverse geocode (%v, %v): %w", lat, lng, domain.ErrNoResult)
	}

	return &ports.GeocodeResult{Lat: lat, Lng: lng, FormattedAddress: result.DisplayName}, nil
}

func (g *NominatimGeocoder) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("geocode request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: geocoder returned status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: undecodable geocoder response: %v", domain.ErrProviderUnavailable, err)
	}
	return nil
}

func (r nominatimResult) toResult() (*ports.GeocodeResult, error) {
	lat, errLat := strconv.ParseFloat(r.Lat, 64)
	lng, errLng := strconv.ParseFloat(r.Lon, 64)
	if errLat != nil || errLng != nil {
		return nil, fmt.Errorf("%w: malformed coordinates in geocoder response", domain.ErrProviderUnavailable)
	}

	return &ports.GeocodeResult{Lat: lat, Lng: lng, FormattedAddress: r.DisplayName}, nil
}
