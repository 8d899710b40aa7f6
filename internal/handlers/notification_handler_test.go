package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aischool/dashboard/backend/internal/models"
	"github.com/aischool/dashboard/backend/internal/repositories"
	"github.com/aischool/dashboard/backend/internal/services"
)

// mockRepo implements repositories.NotificationRepository for handler tests.
type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(n *models.Notification) error {
	return m.Called(n).Error(0)
}

func (m *mockRepo) GetByIDAndUser(id, userID string) (*models.Notification, error) {
	args := m.Called(id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *mockRepo) ListByUser(userID string, filter repositories.ReadFilter, page, limit int) ([]models.Notification, int64, error) {
	args := m.Called(userID, filter, page, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *mockRepo) UnreadCount(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) MarkAsRead(id, userID string) (*models.Notification, error) {
	args := m.Called(id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *mockRepo) MarkAllAsRead(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) MarkEmailSent(n *models.Notification) error {
	return m.Called(n).Error(0)
}

func (m *mockRepo) MarkPushSent(n *models.Notification) error {
	return m.Called(n).Error(0)
}

func (m *mockRepo) DeleteByIDAndUser(id, userID string) error {
	return m.Called(id, userID).Error(0)
}

func (m *mockRepo) DeleteRead(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) DeleteOld(olderThanDays int) (int64, error) {
	args := m.Called(olderThanDays)
	return args.Get(0).(int64), args.Error(1)
}

// recordingEmitter captures real-time pushes triggered by handlers.
type recordingEmitter struct {
	events   []string
	payloads []interface{}
}

func (r *recordingEmitter) EmitToUser(userID, event string, payload interface{}) bool {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return true
}

func newTestContext(t *testing.T, method, target string, userID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user", &models.JwtCustomClaims{UserID: userID})
	}
	return c, rec
}

func newHandler(repo repositories.NotificationRepository, emitter services.Emitter, env string) *NotificationHandler {
	svc := services.NewNotificationService(repo, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewNotificationHandler(svc, emitter, env)
}

func TestGetNotifications_Pagination(t *testing.T) {
	repo := &mockRepo{}
	items := make([]models.Notification, 20)
	repo.On("ListByUser", "u1", repositories.FilterAll, 1, 20).Return(items, int64(25), nil)

	h := newHandler(repo, nil, "test")
	c, rec := newTestContext(t, http.MethodGet, "/api/v1/notifications", "u1")

	require.NoError(t, h.GetNotifications(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success    bool                  `json:"success"`
		Data       []models.Notification `json:"data"`
		Pagination struct {
			Total      int64 `json:"total"`
			Page       int   `json:"page"`
			Limit      int   `json:"limit"`
			TotalPages int   `json:"totalPages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Len(t, body.Data, 20)
	assert.Equal(t, int64(25), body.Pagination.Total)
	assert.Equal(t, 2, body.Pagination.TotalPages)
}

func TestGetNotifications_UnreadFilter(t *testing.T) {
	repo := &mockRepo{}
	repo.On("ListByUser", "u1", repositories.FilterUnread, 1, 20).Return([]models.Notification{}, int64(0), nil)

	h := newHandler(repo, nil, "test")
	c, rec := newTestContext(t, http.MethodGet, "/api/v1/notifications?filter=unread", "u1")

	require.NoError(t, h.GetNotifications(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestGetNotifications_Unauthenticated(t *testing.T) {
	h := newHandler(&mockRepo{}, nil, "test")
	c, _ := newTestContext(t, http.MethodGet, "/api/v1/notifications", "")

	err := h.GetNotifications(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestGetUnreadCount(t *testing.T) {
	repo := &mockRepo{}
	repo.On("UnreadCount", "u1").Return(int64(7), nil)

	h := newHandler(repo, nil, "test")
	c, rec := newTestContext(t, http.MethodGet, "/api/v1/notifications/unread/count", "u1")

	require.NoError(t, h.GetUnreadCount(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":7`)
}

func TestMarkAsRead_PushesFreshCount(t *testing.T) {
	repo := &mockRepo{}
	repo.On("MarkAsRead", "n1", "u1").Return(&models.Notification{ID: "n1", UserID: "u1", IsRead: true}, nil)
	repo.On("UnreadCount", "u1").Return(int64(3), nil)

	emitter := &recordingEmitter{}
	h := newHandler(repo, emitter, "test")
	c, rec := newTestContext(t, http.MethodPut, "/api/v1/notifications/n1/read", "u1")
	c.SetParamNames("id")
	c.SetParamValues("n1")

	require.NoError(t, h.MarkAsRead(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unreadCount":3`)
	require.Equal(t, []string{"notification_count"}, emitter.events)
	assert.Equal(t, int64(3), emitter.payloads[0])
}

func TestMarkAsRead_OtherUsersNotificationIs404(t *testing.T) {
	repo := &mockRepo{}
	repo.On("MarkAsRead", "n1", "userB").Return(nil, gorm.ErrRecordNotFound)

	h := newHandler(repo, nil, "test")
	c, _ := newTestContext(t, http.MethodPut, "/api/v1/notifications/n1/read", "userB")
	c.SetParamNames("id")
	c.SetParamValues("n1")

	err := h.MarkAsRead(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestMarkAllAsRead(t *testing.T) {
	repo := &mockRepo{}
	repo.On("MarkAllAsRead", "u1").Return(int64(5), nil)

	emitter := &recordingEmitter{}
	h := newHandler(repo, emitter, "test")
	c, rec := newTestContext(t, http.MethodPut, "/api/v1/notifications/read-all", "u1")

	require.NoError(t, h.MarkAllAsRead(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"markedCount":5`)
	assert.Contains(t, rec.Body.String(), `"unreadCount":0`)
	assert.Equal(t, []string{"notification_count", "all_notifications_read"}, emitter.events)
	assert.Equal(t, int64(0), emitter.payloads[0])
}

func TestDeleteNotification(t *testing.T) {
	repo := &mockRepo{}
	repo.On("DeleteByIDAndUser", "n1", "u1").Return(nil)
	repo.On("UnreadCount", "u1").Return(int64(2), nil)

	emitter := &recordingEmitter{}
	h := newHandler(repo, emitter, "test")
	c, rec := newTestContext(t, http.MethodDelete, "/api/v1/notifications/n1", "u1")
	c.SetParamNames("id")
	c.SetParamValues("n1")

	require.NoError(t, h.DeleteNotification(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"notification_count", "notification_deleted"}, emitter.events)
	assert.Equal(t, "n1", emitter.payloads[1])
}

func TestDeleteReadNotifications(t *testing.T) {
	repo := &mockRepo{}
	repo.On("DeleteRead", "u1").Return(int64(3), nil)

	h := newHandler(repo, nil, "test")
	c, rec := newTestContext(t, http.MethodDelete, "/api/v1/notifications/read", "u1")

	require.NoError(t, h.DeleteReadNotifications(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deletedCount":3`)
}

func TestCreateTestNotification_BlockedInProduction(t *testing.T) {
	h := newHandler(&mockRepo{}, nil, "production")
	c, _ := newTestContext(t, http.MethodPost, "/api/v1/notifications/test", "u1")

	err := h.CreateTestNotification(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestCreateTestNotification(t *testing.T) {
	repo := &mockRepo{}
	repo.On("Create", mock.AnythingOfType("*models.Notification")).Return(nil)

	h := newHandler(repo, nil, "development")
	c, rec := newTestContext(t, http.MethodPost, "/api/v1/notifications/test", "u1")

	require.NoError(t, h.CreateTestNotification(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"system"`)
}
