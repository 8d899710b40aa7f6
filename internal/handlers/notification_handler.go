package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aischool/dashboard/backend/internal/models"
	"github.com/aischool/dashboard/backend/internal/repositories"
	"github.com/aischool/dashboard/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	service *services.NotificationService
	emitter services.Emitter
	env     string
}

// NewNotificationHandler creates a new NotificationHandler. emitter pushes
// fresh unread counts to the user's channel after mutations; it may be nil
// when real-time delivery is disabled.
func NewNotificationHandler(service *services.NotificationService, emitter services.Emitter, env string) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		emitter: emitter,
		env:     env,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread/count", h.GetUnreadCount)
	g.GET("/notifications/:id", h.GetNotification)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.DELETE("/notifications/read", h.DeleteReadNotifications)
	g.DELETE("/notifications/:id", h.DeleteNotification)
	g.POST("/notifications/test", h.CreateTestNotification)
}

// emitCount pushes the user's fresh unread count over the real-time channel.
// Caller-side composition: a transport failure never affects the response.
func (h *NotificationHandler) emitCount(userID string, count int64) {
	if h.emitter != nil {
		h.emitter.EmitToUser(userID, "notification_count", count)
	}
}

// GetNotifications returns paginated notifications
// GET /api/v1/notifications?page=&limit=&filter=
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	var filter repositories.ReadFilter
	switch c.QueryParam("filter") {
	case "unread":
		filter = repositories.FilterUnread
	case "read":
		filter = repositories.FilterRead
	}

	result, err := h.service.ListForUser(currentUserID, filter, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    result.Items,
		"pagination": echo.Map{
			"total":      result.Total,
			"page":       result.Page,
			"limit":      limit,
			"totalPages": result.TotalPages,
		},
	})
}

// GetUnreadCount returns the unread notification count
// GET /api/v1/notifications/unread/count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.service.GetUnreadCount(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// GetNotification returns a single owned notification
// GET /api/v1/notifications/:id
func (h *NotificationHandler) GetNotification(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	notification, err := h.service.GetNotification(c.Param("id"), currentUserID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": notification})
}

// MarkAsRead marks a notification as read
// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	notification, count, err := h.service.MarkAsRead(c.Param("id"), currentUserID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.emitCount(currentUserID, count)

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"data":        notification,
		"unreadCount": count,
	})
}

// MarkAllAsRead marks all notifications as read
// PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.service.MarkAllAsRead(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.emitCount(currentUserID, 0)
	if h.emitter != nil {
		h.emitter.EmitToUser(currentUserID, "all_notifications_read", nil)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"markedCount": count,
			"unreadCount": 0,
		},
	})
}

// DeleteNotification deletes a single owned notification
// DELETE /api/v1/notifications/:id
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	id := c.Param("id")
	count, err := h.service.DeleteNotification(id, currentUserID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.emitCount(currentUserID, count)
	if h.emitter != nil {
		h.emitter.EmitToUser(currentUserID, "notification_deleted", id)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"message":     "Notification deleted",
		"unreadCount": count,
	})
}

// DeleteReadNotifications deletes all of the user's read notifications
// DELETE /api/v1/notifications/read
func (h *NotificationHandler) DeleteReadNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	deleted, err := h.service.DeleteReadNotifications(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"deletedCount": deleted,
	})
}

// CreateTestNotification creates a test notification for the current user.
// Not available in production.
// POST /api/v1/notifications/test
func (h *NotificationHandler) CreateTestNotification(c echo.Context) error {
	if h.env == "production" {
		return echo.NewHTTPError(http.StatusForbidden, "Test notifications are disabled in production")
	}

	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	notification, err := h.service.CreateNotification(c.Request().Context(), services.CreateNotificationInput{
		UserID:  currentUserID,
		Type:    models.NotificationSystem,
		Title:   "Test Notification",
		Message: "This is a test notification from the system",
	}, services.DeliveryOptions{})
	if err != nil {
		if services.IsValidationError(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Test notification created",
		"data":    notification,
	})
}
