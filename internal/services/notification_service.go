package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/aischool/dashboard/backend/internal/models"
	"github.com/aischool/dashboard/backend/internal/repositories"
	"github.com/aischool/dashboard/backend/pkg/mailer"
)

// NotificationEvent is the websocket event name for a new notification.
const NotificationEvent = "notification"

// Emitter publishes an event to a per-user channel. It is a best-effort side
// channel by contract: implementations cannot return an error, only whether
// at least one live subscriber received the event.
type Emitter interface {
	EmitToUser(userID, event string, payload interface{}) bool
}

// RecipientProfile carries the addressing details for email delivery.
type RecipientProfile struct {
	Email       string
	DisplayName string
}

// CreateNotificationInput holds the fields of a notification to create.
type CreateNotificationInput struct {
	UserID      string `validate:"required"`
	Type        models.NotificationType
	Title       string `validate:"required"`
	Message     string `validate:"required"`
	RelatedType string
	RelatedID   string
	Priority    models.NotificationPriority
	Metadata    map[string]interface{}
	ExpiresAt   *time.Time
}

// DeliveryOptions selects the optional delivery channels for a notification.
// Recipient is required for email delivery; without a usable address the email
// is skipped and the in-app notification still exists. Real-time emission keys
// on whether the service was constructed with an Emitter, not on SendPush,
// which is accepted for API parity with callers that set it.
type DeliveryOptions struct {
	SendEmail bool
	SendPush  bool
	Recipient *RecipientProfile
}

// ListResult is a page of notifications plus pagination totals.
type ListResult struct {
	Items      []models.Notification `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	TotalPages int                   `json:"total_pages"`
}

// NotificationService creates notification records and fans them out to the
// optional email and real-time channels. Persistence is the durability point:
// delivery failures are logged and swallowed, never propagated.
type NotificationService struct {
	repo     repositories.NotificationRepository
	mailer   mailer.Sender
	emitter  Emitter
	validate *validator.Validate
	logger   *slog.Logger
}

// NewNotificationService wires the dispatcher. emitter may be nil when
// real-time delivery is disabled; mailer may be nil when email is disabled.
func NewNotificationService(repo repositories.NotificationRepository, sender mailer.Sender, emitter Emitter, logger *slog.Logger) *NotificationService {
	if err := validateTypePolicies(); err != nil {
		panic(err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		repo:     repo,
		mailer:   sender,
		emitter:  emitter,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateNotification persists a notification and then attempts the requested
// deliveries. The record always exists after a successful return, independent
// of channel outcomes.
func (s *NotificationService) CreateNotification(ctx context.Context, input CreateNotificationInput, opts DeliveryOptions) (*models.Notification, error) {
	if input.Type == "" {
		input.Type = models.NotificationSystem
	}
	policy, ok := typePolicies[input.Type]
	if !ok {
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown notification type %q", input.Type)}
	}
	if input.Priority == "" {
		input.Priority = policy.DefaultPriority
	}

	if err := s.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &ValidationError{Field: verrs[0].Field(), Reason: "required field is missing or empty"}
		}
		return nil, err
	}

	metadata := models.JSONMap(input.Metadata)
	if metadata == nil {
		metadata = models.JSONMap{}
	}

	notification := &models.Notification{
		UserID:      input.UserID,
		Type:        input.Type,
		Title:       input.Title,
		Message:     input.Message,
		RelatedType: input.RelatedType,
		RelatedID:   input.RelatedID,
		Priority:    input.Priority,
		Metadata:    metadata,
		ExpiresAt:   input.ExpiresAt,
	}

	// Durability point: if this fails, no delivery is attempted.
	if err := s.repo.Create(notification); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	if opts.SendEmail {
		s.sendEmailNotification(ctx, notification, opts.Recipient)
	}

	if s.emitter != nil {
		s.emitRealTimeNotification(notification)
	}

	return notification, nil
}

// CreateBulkNotifications creates one notification per user id, sequentially.
// A failure for one user does not abort the rest; every failure is logged and
// the joined error is returned alongside the records that were created.
func (s *NotificationService) CreateBulkNotifications(ctx context.Context, userIDs []string, input CreateNotificationInput, opts DeliveryOptions) ([]*models.Notification, error) {
	notifications := make([]*models.Notification, 0, len(userIDs))
	var errs []error

	for _, userID := range userIDs {
		perUser := input
		perUser.UserID = userID

		notification, err := s.CreateNotification(ctx, perUser, opts)
		if err != nil {
			s.logger.Error("bulk notification failed for user",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		notifications = append(notifications, notification)
	}

	return notifications, errors.Join(errs...)
}

// sendEmailNotification renders and sends the email for a notification, then
// marks the record. Failures are non-fatal: the in-app notification exists
// either way and email_sent simply stays false.
func (s *NotificationService) sendEmailNotification(ctx context.Context, notification *models.Notification, recipient *RecipientProfile) {
	if s.mailer == nil {
		s.logger.Warn("email requested but no mailer configured",
			slog.String("notification_id", notification.ID))
		return
	}
	if recipient == nil || recipient.Email == "" {
		s.logger.Warn("cannot send email: recipient email not provided",
			slog.String("notification_id", notification.ID),
			slog.String("user_id", notification.UserID),
		)
		return
	}

	policy := typePolicies[notification.Type]
	html, text, err := mailer.RenderNotificationEmail(mailer.NotificationEmailData{
		Title:         notification.Title,
		Message:       notification.Message,
		RecipientName: recipient.DisplayName,
		Priority:      string(notification.Priority),
		CreatedAt:     notification.CreatedAt,
	})
	if err != nil {
		s.logger.Error("failed to render notification email",
			slog.String("notification_id", notification.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	msg := mailer.Message{
		To:      recipient.Email,
		Subject: fmt.Sprintf("[%s] %s", policy.EmailTag, notification.Title),
		HTML:    html,
		Text:    text,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send notification email",
			slog.String("notification_id", notification.ID),
			slog.String("user_id", notification.UserID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.repo.MarkEmailSent(notification); err != nil {
		s.logger.Error("failed to mark notification email sent",
			slog.String("notification_id", notification.ID),
			slog.String("error", err.Error()),
		)
	}
}

// emitRealTimeNotification publishes the notification to the owner's channel.
// Fire-and-forget: the emitter cannot fail, it only reports whether anyone
// was listening, and push_sent is marked only when someone was.
func (s *NotificationService) emitRealTimeNotification(notification *models.Notification) {
	delivered := s.emitter.EmitToUser(notification.UserID, NotificationEvent, map[string]interface{}{
		"id":         notification.ID,
		"type":       notification.Type,
		"title":      notification.Title,
		"message":    notification.Message,
		"priority":   notification.Priority,
		"created_at": notification.CreatedAt,
		"metadata":   notification.Metadata,
	})
	if !delivered {
		return
	}

	if err := s.repo.MarkPushSent(notification); err != nil {
		s.logger.Error("failed to mark notification push sent",
			slog.String("notification_id", notification.ID),
			slog.String("error", err.Error()),
		)
	}
}

// ListForUser returns a page of the user's notifications, newest first.
func (s *NotificationService) ListForUser(userID string, filter repositories.ReadFilter, page, limit int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	items, total, err := s.repo.ListByUser(userID, filter, page, limit)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// GetNotification fetches a single owned notification.
func (s *NotificationService) GetNotification(id, userID string) (*models.Notification, error) {
	notification, err := s.repo.GetByIDAndUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return notification, nil
}

// GetUnreadCount returns the user's current unread count. Always recomputed.
func (s *NotificationService) GetUnreadCount(userID string) (int64, error) {
	return s.repo.UnreadCount(userID)
}

// MarkAsRead marks an owned notification read and returns the updated record
// together with the fresh unread count, so the caller can push it over the
// real-time channel.
func (s *NotificationService) MarkAsRead(id, userID string) (*models.Notification, int64, error) {
	notification, err := s.repo.MarkAsRead(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}

	count, err := s.repo.UnreadCount(userID)
	if err != nil {
		return nil, 0, err
	}
	return notification, count, nil
}

// MarkAllAsRead marks every unread notification of the user read and returns
// how many rows changed. The resulting unread count is by definition zero.
func (s *NotificationService) MarkAllAsRead(userID string) (int64, error) {
	return s.repo.MarkAllAsRead(userID)
}

// DeleteNotification removes an owned notification and returns the fresh
// unread count.
func (s *NotificationService) DeleteNotification(id, userID string) (int64, error) {
	if err := s.repo.DeleteByIDAndUser(id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return s.repo.UnreadCount(userID)
}

// DeleteReadNotifications removes all of the user's read notifications and
// returns how many were deleted.
func (s *NotificationService) DeleteReadNotifications(userID string) (int64, error) {
	return s.repo.DeleteRead(userID)
}
