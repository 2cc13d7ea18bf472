package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/galaxy/internal/api/middleware"
	"github.com/GriffinCanCode/galaxy/internal/events"
	"github.com/GriffinCanCode/galaxy/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
	"github.com/GriffinCanCode/galaxy/internal/shared/utils"
)

// Message types sent by the server besides events
const (
	TypeSubscribed = "subscribed"
	TypePing       = "ping"
	TypePong       = "pong"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
	maxMessage   = 4096
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // The stream is read-only and public
	},
}

// Handler streams layer creation events over WebSocket
type Handler struct {
	broker  *events.Broker
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(broker *events.Broker) *Handler {
	return &Handler{
		broker: broker,
		logger: zap.NewNop(),
	}
}

// WithMetrics enables the connection gauge
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// WithLogger sets the handler's logger
func (h *Handler) WithLogger(logger *zap.Logger) *Handler {
	if logger != nil {
		h.logger = logger.Named("ws")
	}
	return h
}

// HandleConnection upgrades the request and streams events until either
// side goes away. An optional ?user= restricts the stream to one namespace.
func (h *Handler) HandleConnection(c *gin.Context) {
	user := c.Query("user")
	if user != "" {
		if err := utils.ValidateUserID(user); err != nil {
			middleware.Abort(c, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stream := h.broker.Subscribe(ctx, types.UserID(user))
	pongs := make(chan struct{}, 1)
	go h.read(conn, pongs, cancel)

	if err := h.send(conn, types.WSMessage{Type: TypeSubscribed, User: user}); err != nil {
		return
	}
	h.logger.Debug("Subscriber connected", zap.String("user", user))

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case event, ok := <-stream:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if err := h.send(conn, event); err != nil {
				return
			}
		case <-pongs:
			if err := h.send(conn, types.WSMessage{Type: TypePong}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// read consumes client messages; gorilla allows one concurrent reader, so
// replies are handed to the writer loop through pongs.
func (h *Handler) read(conn *websocket.Conn, pongs chan<- struct{}, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg types.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if msg.Type == TypePing {
			select {
			case pongs <- struct{}{}:
			default:
			}
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(v); err != nil {
		h.logger.Debug("WebSocket write failed", zap.Error(err))
		return err
	}
	return nil
}
