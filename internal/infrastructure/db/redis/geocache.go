package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/parcelview/tracking-engine/internal/core/ports"
)

const geocodeTTL = 24 * time.Hour

// GeocodeCache stores resolved geocoding results so repeated lookups of the
// same address skip the rate-limited provider.
// Key format: geocode:fwd:<normalized address> / geocode:rev:<lat>:<lng>
type GeocodeCache struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewGeocodeCache(client *redis.Client, log zerolog.Logger) *GeocodeCache {
	return &GeocodeCache{client: client, log: log}
}

// CachedGeocoder wraps a geocoder with the Redis cache. Cache failures are
// best-effort: a broken cache degrades to calling the provider, never to a
// failed geocode.
type CachedGeocoder struct {
	inner ports.Geocoder
	cache *GeocodeCache
}

func NewCachedGeocoder(inner ports.Geocoder, cache *GeocodeCache) *CachedGeocoder {
	return &CachedGeocoder{inner: inner, cache: cache}
}

func (g *CachedGeocoder) Forward(ctx context.Context, address string) (*ports.GeocodeResult, error) {
	key := forwardKey(address)
	if res, ok := g.cache.get(ctx, key); ok {
		return res, nil
	}

	res, err := g.inner.Forward(ctx, address)
	if err != nil {
		return nil, err
	}
	g.cache.put(ctx, key, res)
	return res, nil
}

func (g *CachedGeocoder) Reverse(ctx context.Context, lat, lng float64) (*ports.GeocodeResult, error) {
	key := reverseKey(lat, lng)
	if res, ok := g.cache.get(ctx, key); ok {
		return res, nil
	}

	res, err := g.inner.Reverse(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	g.cache.put(ctx, key, res)
	return res, nil
}

func (c *GeocodeCache) get(ctx context.Context, key string) (*ports.GeocodeResult, bool) {
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("key", key).Msg("geocode cache read failed")
		}
		return nil, false
	}

	var res ports.GeocodeResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("corrupt geocode cache entry dropped")
		return nil, false
	}
	return &res, true
}

func (c *GeocodeCache) put(ctx context.Context, key string, res *ports.GeocodeResult) {
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, geocodeTTL).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("geocode cache write failed")
	}
}

func forwardKey(address string) string {
	return "geocode:fwd:" + strings.ToLower(strings.Join(strings.Fields(address), " "))
}

func reverseKey(lat, lng float64) string {
	// Four decimals (~11 m) is plenty for reverse lookups of courier
	// positions and keeps the key space bounded.
	return fmt.Sprintf("geocode:rev:%.4f:%.4f", lat, lng)
}
