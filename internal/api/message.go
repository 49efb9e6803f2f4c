package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/middleware"
	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/notify"
	"github.com/lalith-99/dormlink/internal/workflow"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	// streamBuffer bounds how far a slow socket can fall behind before live
	// copies are dropped. Dropped messages stay readable through List.
	streamBuffer = 32
)

// NotificationHandler serves the pull side (list, mark read) and the live
// websocket stream of a user's notifications.
type NotificationHandler struct {
	engine   *workflow.Engine
	hub      *notify.Hub
	upgrader websocket.Upgrader
	done     <-chan struct{}
	logger   *zap.Logger
}

// NewNotificationHandler accepts websocket upgrades from allowedOrigins.
// An empty list or "*" allows any origin. Open streams close when done is
// closed.
func NewNotificationHandler(engine *workflow.Engine, hub *notify.Hub, allowedOrigins []string, done <-chan struct{}, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		engine: engine,
		hub:    hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowedOrigins) == 0 {
					return true
				}
				return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
		done:   done,
		logger: logger,
	}
}

type streamMessage struct {
	Type         string               `json:"type"`
	Notification *models.Notification `json:"notification,omitempty"`
}

// List handles GET /v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	ns, err := h.engine.ListNotifications(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, ns)
}

// MarkRead handles POST /v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.engine.MarkNotificationRead(c.Request.Context(), middleware.GetIdentity(c), id); err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id, "status": models.NotificationRead})
}

// Stream handles GET /v1/notifications/ws. The socket is subscribed to the
// hub for the caller's user id until either side closes it.
func (h *NotificationHandler) Stream(c *gin.Context) {
	id := middleware.GetIdentity(c)
	if err := id.Authenticated(); err != nil {
		fail(c, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Int64("user_id", id.UserID), zap.Error(err))
		return
	}
	defer conn.Close()

	out := make(chan models.Notification, streamBuffer)
	unsubscribe := h.hub.Subscribe(id.UserID, func(n models.Notification) {
		select {
		case out <- n:
		default:
			h.logger.Warn("notification stream behind, dropping live copy",
				zap.Int64("user_id", id.UserID),
				zap.Int64("notification_id", n.ID),
			)
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go h.readPump(conn, id.UserID, closed)

	h.logger.Debug("notification stream opened", zap.Int64("user_id", id.UserID))
	h.writePump(conn, out, closed)
	h.logger.Debug("notification stream closed", zap.Int64("user_id", id.UserID))
}

// readPump discards client frames and keeps the read deadline fresh on
// pongs. It closes closed when the connection drops.
func (h *NotificationHandler) readPump(conn *websocket.Conn, userID int64, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Info("notification stream read error", zap.Int64("user_id", userID), zap.Error(err))
			}
			return
		}
	}
}

// writePump is the only writer on conn.
func (h *NotificationHandler) writePump(conn *websocket.Conn, out <-chan models.Notification, closed <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(msg streamMessage) error {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		return conn.WriteJSON(msg)
	}

	if err := write(streamMessage{Type: "connected"}); err != nil {
		return
	}

	for {
		select {
		case n := <-out:
			if err := write(streamMessage{Type: "notification", Notification: &n}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			return
		case <-h.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		}
	}
}
