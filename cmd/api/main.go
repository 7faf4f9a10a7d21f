package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/parcelview/tracking-engine/internal/api"
	"github.com/parcelview/tracking-engine/internal/core/domain"
	"github.com/parcelview/tracking-engine/internal/core/ports"
	"github.com/parcelview/tracking-engine/internal/core/service"
	"github.com/parcelview/tracking-engine/internal/infrastructure/db/mongo"
	redisdb "github.com/parcelview/tracking-engine/internal/infrastructure/db/redis"
	"github.com/parcelview/tracking-engine/internal/infrastructure/geo"
	"github.com/parcelview/tracking-engine/internal/pkg/config"
	"github.com/parcelview/tracking-engine/pkg/logger"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	parcels := mongo.NewParcelRepository(db)
	events := mongo.NewEventLogRepository(db)
	assignments := mongo.NewAssignmentRepository(db, logger.Component("assignments"))

	indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for _, ensure := range []func(context.Context) error{
		parcels.EnsureIndexes,
		events.EnsureIndexes,
		assignments.EnsureIndexes,
	} {
		if err := ensure(indexCtx); err != nil {
			log.Fatal().Err(err).Msg("index creation failed")
		}
	}

	// --- Geocoding and routing providers ---
	var geocoder ports.Geocoder = geo.NewNominatimGeocoder(geo.GeocoderConfig{
		BaseURL:    cfg.Geo.NominatimURL,
		Timeout:    cfg.Geo.Timeout,
		RatePerSec: cfg.Geo.GeocodeRatePerSec,
	}, logger.Component("geocoder"))

	var rdb *goredis.Client
	if cfg.Redis.Enabled {
		client, err := redisdb.Connect(ctx, redisdb.Config{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err != nil {
			// The cache is an optimization; keep serving without it.
			log.Warn().Err(err).Msg("redis unavailable, geocode cache disabled")
		} else {
			rdb = client
			defer func() {
				if err := client.Close(); err != nil {
					log.Warn().Err(err).Msg("redis close failed")
				}
			}()
			cache := redisdb.NewGeocodeCache(client, logger.Component("geocache"))
			geocoder = redisdb.NewCachedGeocoder(geocoder, cache)
		}
	}
	geocoder = geo.NewBreakerGeocoder(geocoder, logger.Component("geocoder"))

	var router ports.RoutePlanner = geo.NewOSRMRouter(geo.RouterConfig{
		BaseURL: cfg.Geo.OSRMURL,
		Timeout: cfg.Geo.Timeout,
	}, logger.Component("router"))
	router = geo.NewBreakerRouter(router, logger.Component("router"))

	// --- Tracking sessions ---
	sessionCfg := service.SessionConfig{
		DefaultOrigin: domain.Coordinates{
			Lat: cfg.Session.DefaultOriginLat,
			Lng: cfg.Session.DefaultOriginLng,
		},
		DestinationOffsetKm: cfg.Session.DestinationOffsetKm,
		ProviderTimeout:     cfg.Geo.Timeout,
	}
	sessions := service.SessionFactory(func() ports.TrackingService {
		return service.NewTrackingSession(
			parcels, events, assignments,
			geocoder, router,
			sessionCfg,
			logger.Component("session"),
		)
	})

	// --- HTTP server ---
	e := api.NewRouter(db, rdb, sessions, log)

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("tracking engine listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
