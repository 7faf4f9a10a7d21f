package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/parcelview/tracking-engine/internal/core/domain"
)

// RouterConfig configures the OSRM-compatible routing client.
type RouterConfig struct {
	BaseURL string
	Timeout time.Duration
}

// OSRMRouter computes driving routes against an OSRM-compatible endpoint.
type OSRMRouter struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

func NewOSRMRouter(cfg RouterConfig, log zerolog.Logger) *OSRMRouter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &OSRMRouter{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Route returns the driving route between origin and destination. A
// routable network gap yields domain.ErrRouteUnavailable; provider
// failures yield domain.ErrProviderUnavailable.
func (r *OSRMRouter) Route(ctx context.Context, origin, dest domain.Coordinates) (*domain.Route, error) {
	// OSRM takes coordinates in lng,lat order.
	rawURL := fmt.Sprintf("%s/route/v1/driving/%v,%v;%v,%v?overview=full&geometries=geojson",
		r.baseURL, origin.Lng, origin.Lat, dest.Lng, dest.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("route request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	var parsed osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: undecodable router response: %v", domain.ErrProviderUnavailable, err)
	}

	switch parsed.Code {
	case "Ok":
	case "NoRoute", "NoSegment":
		return nil, fmt.Errorf("no drivable route between points: %w", domain.ErrRouteUnavailable)
	default:
		return nil, fmt.Errorf("%w: router returned code %q (status %d)", domain.ErrProviderUnavailable, parsed.Code, resp.StatusCode)
	}

	if len(parsed.Routes) == 0 {
		return nil, fmt.Errorf("router returned no routes: %w", domain.ErrRouteUnavailable)
	}

	best := parsed.Routes[0]
	points := make([]domain.Coordinates, 0, len(best.Geometry.Coordinates))
	for _, pair := range best.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		points = append(points, domain.Coordinates{Lat: pair[1], Lng: pair[0]})
	}

	return &domain.Route{
		Points:     points,
		DistanceKm: best.Distance / 1000,
	}, nil
}
