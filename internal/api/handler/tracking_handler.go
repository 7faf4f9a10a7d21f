package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/parcelview/tracking-engine/internal/core/domain"
	"github.com/parcelview/tracking-engine/internal/core/ports"
	"github.com/parcelview/tracking-engine/internal/pkg/metrics"
)

// sseHeartbeat keeps idle live streams alive through proxies that reap
// quiet connections.
const sseHeartbeat = 25 * time.Second

// TrackingHandler handles HTTP requests for parcel tracking.
type TrackingHandler struct {
	newSession func() ports.TrackingService
	log        zerolog.Logger
}

// NewTrackingHandler builds a handler that mints one tracking session per
// request via newSession.
func NewTrackingHandler(newSession func() ports.TrackingService, log zerolog.Logger) *TrackingHandler {
	return &TrackingHandler{
		newSession: newSession,
		log:        log,
	}
}

// Get handles GET /v1/tracking/:tracking_id.
//
// @Summary      Look up a parcel by tracking identifier
// @Tags         tracking
// @Produce      json
// @Param        tracking_id  path      string  true  "Tracking identifier (e.g. PV-7A8B9C2D)"
// @Success      200          {object}  trackingResponse
// @Failure      400          {object}  map[string]string
// @Failure      404          {object}  map[string]string
// @Failure      500          {object}  map[string]string
// @Router       /v1/tracking/{tracking_id} [get]
func (h *TrackingHandler) Get(c echo.Context) error {
	trackingID := c.Param("tracking_id")

	sess := h.newSession()
	defer sess.Close()

	start := time.Now()
	snap, err := sess.Lookup(c.Request().Context(), trackingID)
	metrics.LookupDuration.Observe(time.Since(start).Seconds())
	metrics.LookupsTotal.WithLabelValues(lookupOutcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toTrackingResponse(snap))
}

// Live handles GET /v1/tracking/:tracking_id/live.
//
// Streams server-sent events: one "snapshot" event with the full lookup
// result, then a "location" event per accepted courier position until the
// client disconnects or the session ends.
//
// @Summary      Stream live tracking updates for a parcel
// @Tags         tracking
// @Produce      text/event-stream
// @Param        tracking_id  path      string  true  "Tracking identifier"
// @Success      200          {string}  string  "SSE stream"
// @Failure      400          {object}  map[string]string
// @Failure      404          {object}  map[string]string
// @Router       /v1/tracking/{tracking_id}/live [get]
func (h *TrackingHandler) Live(c echo.Context) error {
	trackingID := c.Param("tracking_id")

	sess := h.newSession()
	defer sess.Close()

	snap, err := sess.Lookup(c.Request().Context(), trackingID)
	metrics.LookupsTotal.WithLabelValues(lookupOutcome(err)).Inc()
	if err != nil {
		return err
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)

	if err := writeSSE(resp, "snapshot", toTrackingResponse(snap)); err != nil {
		return nil
	}

	metrics.LiveSessionsActive.Inc()
	defer metrics.LiveSessionsActive.Dec()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil

		case upd, ok := <-sess.Updates():
			if !ok {
				// Session closed; nothing more will arrive.
				return nil
			}
			if err := writeSSE(resp, "location", toLocationUpdateResponse(upd)); err != nil {
				h.log.Debug().
					Err(err).
					Str("tracking_id", trackingID).
					Msg("live stream write failed, dropping client")
				return nil
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprint(resp, ": keep-alive\n\n"); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}

// writeSSE writes one server-sent event and flushes it to the client.
func writeSSE(resp *echo.Response, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	resp.Flush()
	return nil
}

func lookupOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrParcelNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrEmptyTrackingID):
		return "invalid"
	default:
		return "error"
	}
}
