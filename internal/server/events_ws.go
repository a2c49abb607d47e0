package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/basket/internal/events"
)

const writeTimeout = 10 * time.Second

// ConnectionTracker counts open websocket clients
type ConnectionTracker interface {
	ConnectionOpened()
	ConnectionClosed()
}

// EventsSocketHandler streams bus events over a websocket
type EventsSocketHandler struct {
	eventBus *events.Bus
	tracker  ConnectionTracker
	log      zerolog.Logger
}

// NewEventsSocketHandler creates a new websocket handler. tracker may be nil.
func NewEventsSocketHandler(eventBus *events.Bus, tracker ConnectionTracker, log zerolog.Logger) *EventsSocketHandler {
	return &EventsSocketHandler{
		eventBus: eventBus,
		tracker:  tracker,
		log:      log.With().Str("component", "events_ws").Logger(),
	}
}

// ServeHTTP handles GET /api/events/ws?types=a,b
func (h *EventsSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	if h.tracker != nil {
		h.tracker.ConnectionOpened()
		defer h.tracker.ConnectionClosed()
	}

	sub := subscribe(h.eventBus, r.URL.Query().Get("types"), h.log)
	defer sub.close()

	// Clients only listen; CloseRead handles control frames and cancels on close
	ctx := conn.CloseRead(r.Context())

	h.log.Info().Msg("Client connected to event socket")

	if err := h.write(ctx, conn, map[string]interface{}{
		"type":    "connected",
		"message": "Connected to event socket",
	}); err != nil {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Client disconnected from event socket")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event := <-sub.ch:
			if err := h.write(ctx, conn, eventPayload(event)); err != nil {
				return
			}

		case <-heartbeat.C:
			if err := conn.Ping(ctx); err != nil {
				h.log.Debug().Err(err).Msg("Websocket ping failed")
				return
			}
		}
	}
}

func (h *EventsSocketHandler) write(ctx context.Context, conn *websocket.Conn, payload map[string]interface{}) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := wsjson.Write(writeCtx, conn, payload); err != nil {
		h.log.Debug().Err(err).Msg("Websocket write failed")
		return err
	}
	return nil
}
