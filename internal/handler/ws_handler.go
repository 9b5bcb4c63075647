package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prepdeck/prepdeck-backend/internal/config"
	"github.com/prepdeck/prepdeck-backend/internal/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/prepdeck/prepdeck-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams graded-attempt events to exam monitor clients.
type WSHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:      rdb,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// visibleTo reports whether a graded event may be forwarded to the
// subscriber identified by userID. Roles live outside this service, so
// without a privileged identity to check the monitor only streams the
// subscriber's own attempts.
func visibleTo(event ws.GradedEvent, userID uuid.UUID) bool {
	return event.UserID == userID.String()
}

// ExamMonitorStream godoc
// WS /ws/v1/exams/:exam_id/monitor?token=...
// Subscribes to the exam's monitor channel and forwards the subscriber's
// own graded attempts to the socket until the client disconnects.
func (h *WSHandler) ExamMonitorStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("user_id", claims.UserID.String()).
		Str("exam_id", examID.String()).
		Logger()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub := h.rdb.Subscribe(ctx, config.CacheKey.ExamMonitorChannel(examID.String()))
	defer sub.Close()

	// Reader goroutine: the stream is push-only apart from a ping
	// keepalive, and reading is how we notice the client going away. All
	// writes stay in the main loop, which is the sole writer.
	incoming := make(chan string, 1)
	go func() {
		defer cancel()
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			select {
			case incoming <- string(payload):
			case <-ctx.Done():
				return
			}
		}
	}()

	wsLog.Info().Msg("Monitor connected")

	events := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			wsLog.Debug().Msg("Monitor disconnected")
			return
		case payload := <-incoming:
			var writeErr error
			if payload == "ping" {
				writeErr = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			} else {
				writeErr = ws.WriteError(conn, "unsupported message")
			}
			if writeErr != nil {
				return
			}
		case msg, ok := <-events:
			if !ok {
				return
			}
			var event ws.GradedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				wsLog.Warn().Err(err).Msg("Malformed monitor event")
				continue
			}
			if !visibleTo(event, claims.UserID) {
				continue
			}
			event.Event = ws.EventGraded
			if err := ws.WriteTyped(conn, event); err != nil {
				wsLog.Debug().Err(err).Msg("Monitor write failed")
				return
			}
		}
	}
}
