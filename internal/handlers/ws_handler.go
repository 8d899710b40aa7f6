package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aischool/dashboard/backend/internal/middleware"
	"github.com/aischool/dashboard/backend/internal/realtime"
	"github.com/aischool/dashboard/backend/internal/services"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WSHandler upgrades authenticated clients onto the real-time hub and answers
// the small set of client-originated events the dashboard badge uses.
type WSHandler struct {
	hub     *realtime.Hub
	service *services.NotificationService
	logger  *slog.Logger

	upgrader websocket.Upgrader
}

func NewWSHandler(hub *realtime.Hub, service *services.NotificationService, allowedOrigins []string, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		hub:     hub,
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

// checkOrigin admits browser connections from the configured origin allowlist,
// falling back to same-origin when none is configured. Requests without an
// Origin header (non-browser clients) are always admitted.
func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if len(allowed) == 0 {
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			return strings.EqualFold(u.Host, r.Host)
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// clientMessage is what connected dashboards send upstream.
type clientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Serve handles GET /ws?token=<jwt>. The token is carried in the query string
// because browser websocket clients cannot set an Authorization header.
func (h *WSHandler) Serve(c echo.Context) error {
	claims, err := middleware.ParseToken(c.QueryParam("token"))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication token required")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := h.hub.Add(claims.UserID, conn)
	defer h.hub.Remove(client)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error",
					slog.String("user_id", claims.UserID),
					slog.String("error", err.Error()),
				)
			}
			return nil
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		h.handleClientEvent(client, claims.UserID, msg)
	}
}

func (h *WSHandler) handleClientEvent(client *realtime.Client, userID string, msg clientMessage) {
	switch msg.Event {
	case "request_notification_count":
		count, err := h.service.GetUnreadCount(userID)
		if err != nil {
			h.logger.Error("failed to get unread count", slog.String("user_id", userID), slog.String("error", err.Error()))
			return
		}
		_ = client.Send("notification_count", count)

	case "mark_notification_read":
		var notificationID string
		if err := json.Unmarshal(msg.Data, &notificationID); err != nil {
			return
		}
		if _, count, err := h.service.MarkAsRead(notificationID, userID); err == nil {
			_ = client.Send("notification_count", count)
		}

	case "mark_all_read":
		if _, err := h.service.MarkAllAsRead(userID); err != nil {
			h.logger.Error("failed to mark all read", slog.String("user_id", userID), slog.String("error", err.Error()))
			return
		}
		_ = client.Send("notification_count", 0)
		_ = client.Send("all_notifications_read", nil)
	}
}
