package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/parcelview/tracking-engine/internal/api/handler"
	"github.com/parcelview/tracking-engine/internal/core/service"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// rdb may be nil when the geocode cache is disabled.
func NewRouter(db *mongo.Database, rdb *redis.Client, sessions service.SessionFactory, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("tracking"))

	// --- Tracking routes ---
	trackingHandler := handler.NewTrackingHandler(sessions, log)
	e.GET("/v1/tracking/:tracking_id", trackingHandler.Get)
	e.GET("/v1/tracking/:tracking_id/live", trackingHandler.Live)

	// --- Health probes ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Metrics ---
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
