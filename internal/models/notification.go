package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType is the closed set of notification kinds the dashboard emits.
type NotificationType string

const (
	NotificationGradePosted      NotificationType = "grade_posted"
	NotificationAttendanceMarked NotificationType = "attendance_marked"
	NotificationAssignmentDue    NotificationType = "assignment_due"
	NotificationAnnouncement     NotificationType = "announcement"
	NotificationMessage          NotificationType = "message"
	NotificationAlert            NotificationType = "alert"
	NotificationSystem           NotificationType = "system"
)

// AllNotificationTypes lists every member of the type enum.
var AllNotificationTypes = []NotificationType{
	NotificationGradePosted,
	NotificationAttendanceMarked,
	NotificationAssignmentDue,
	NotificationAnnouncement,
	NotificationMessage,
	NotificationAlert,
	NotificationSystem,
}

// NotificationPriority is the priority level of a notification.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// JSONMap is an open key/value bag stored as JSONB. The pipeline treats it as
// opaque data and surfaces it verbatim in real-time events.
type JSONMap map[string]interface{}

// Value implements driver.Valuer for JSONB columns.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB columns.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type for JSONMap: %T", value)
	}
}

// Notification represents a single user-facing alert (PostgreSQL)
type Notification struct {
	ID     string `json:"id" gorm:"type:uuid;primaryKey"`
	UserID string `json:"user_id" gorm:"type:uuid;not null;index;index:idx_notifications_user_read,priority:1"`
	User   *User  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	Type    NotificationType `json:"type" gorm:"size:30;not null;default:system;index"`
	Title   string           `json:"title" gorm:"size:255;not null"`
	Message string           `json:"message" gorm:"type:text;not null"`

	// Weak reference to another domain entity (grade, attendance record, assignment)
	RelatedType string `json:"related_type,omitempty" gorm:"size:50"`
	RelatedID   string `json:"related_id,omitempty" gorm:"size:64"`

	Priority NotificationPriority `json:"priority" gorm:"size:10;default:medium"`

	IsRead bool       `json:"is_read" gorm:"default:false;index;index:idx_notifications_user_read,priority:2"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	// Per-channel delivery state, set exactly once on successful delivery
	EmailSent   bool       `json:"email_sent" gorm:"default:false"`
	EmailSentAt *time.Time `json:"email_sent_at,omitempty"`
	PushSent    bool       `json:"push_sent" gorm:"default:false"`
	PushSentAt  *time.Time `json:"push_sent_at,omitempty"`

	Metadata  JSONMap    `json:"metadata" gorm:"type:jsonb;default:'{}'"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key when none is set.
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// IsExpired reports whether the notification has passed its expiry time.
// Expiry is advisory: nothing purges expired rows in the request path.
func (n *Notification) IsExpired() bool {
	if n.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*n.ExpiresAt)
}
