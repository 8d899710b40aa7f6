package repositories

import (
	"time"

	"github.com/aischool/dashboard/backend/internal/models"
	"gorm.io/gorm"
)

// ReadFilter narrows a notification listing by read state.
type ReadFilter string

const (
	FilterAll    ReadFilter = ""
	FilterUnread ReadFilter = "unread"
	FilterRead   ReadFilter = "read"
)

// NotificationRepository defines the interface for notification persistence.
// Not-found and not-owned are indistinguishable: every lookup is scoped by the
// owning user id.
type NotificationRepository interface {
	Create(notification *models.Notification) error
	GetByIDAndUser(id, userID string) (*models.Notification, error)
	ListByUser(userID string, filter ReadFilter, page, limit int) ([]models.Notification, int64, error)
	UnreadCount(userID string) (int64, error)
	MarkAsRead(id, userID string) (*models.Notification, error)
	MarkAllAsRead(userID string) (int64, error)
	MarkEmailSent(notification *models.Notification) error
	MarkPushSent(notification *models.Notification) error
	DeleteByIDAndUser(id, userID string) error
	DeleteRead(userID string) (int64, error)
	DeleteOld(olderThanDays int) (int64, error)
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

func (r *postgresNotificationRepository) GetByIDAndUser(id, userID string) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&notification).Error
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *postgresNotificationRepository) ListByUser(userID string, filter ReadFilter, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	query := r.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	switch filter {
	case FilterUnread:
		query = query.Where("is_read = ?", false)
	case FilterRead:
		query = query.Where("is_read = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

// UnreadCount recomputes the aggregate on every call; the badge-count UI polls
// it after each mutation, so it must never be cached.
func (r *postgresNotificationRepository) UnreadCount(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkAsRead flips the read flag for a notification owned by userID. The first
// transition sets read_at; repeated calls are no-ops and keep the original
// timestamp. Returns gorm.ErrRecordNotFound when no owned row matches.
func (r *postgresNotificationRepository) MarkAsRead(id, userID string) (*models.Notification, error) {
	notification, err := r.GetByIDAndUser(id, userID)
	if err != nil {
		return nil, err
	}

	if notification.IsRead {
		return notification, nil
	}

	now := time.Now()
	err = r.db.Model(notification).Updates(map[string]interface{}{
		"is_read": true,
		"read_at": now,
	}).Error
	if err != nil {
		return nil, err
	}

	notification.IsRead = true
	notification.ReadAt = &now
	return notification, nil
}

func (r *postgresNotificationRepository) MarkAllAsRead(userID string) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *postgresNotificationRepository) MarkEmailSent(notification *models.Notification) error {
	now := time.Now()
	err := r.db.Model(notification).Updates(map[string]interface{}{
		"email_sent":    true,
		"email_sent_at": now,
	}).Error
	if err != nil {
		return err
	}
	notification.EmailSent = true
	notification.EmailSentAt = &now
	return nil
}

func (r *postgresNotificationRepository) MarkPushSent(notification *models.Notification) error {
	now := time.Now()
	err := r.db.Model(notification).Updates(map[string]interface{}{
		"push_sent":    true,
		"push_sent_at": now,
	}).Error
	if err != nil {
		return err
	}
	notification.PushSent = true
	notification.PushSentAt = &now
	return nil
}

func (r *postgresNotificationRepository) DeleteByIDAndUser(id, userID string) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *postgresNotificationRepository) DeleteRead(userID string) (int64, error) {
	result := r.db.Where("user_id = ? AND is_read = ?", userID, true).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

// DeleteOld removes read notifications older than the given number of days.
// Invoked by the external cleanup job, never by the request path.
func (r *postgresNotificationRepository) DeleteOld(olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	result := r.db.Where("created_at < ? AND is_read = ?", cutoff, true).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}
