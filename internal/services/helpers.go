package services

import (
	"context"
	"fmt"

	"github.com/aischool/dashboard/backend/internal/models"
)

// Typed helper constructors. Each fixes the notification type, builds a
// deterministic title and message from its payload, and applies the business
// priority policy before forwarding to CreateNotification.

// GradeData is the payload for a grade-posted notification.
type GradeData struct {
	GradeID string
	Subject string
	Score   float64
}

// NotifyGradePosted tells a student a new grade was recorded.
func (s *NotificationService) NotifyGradePosted(ctx context.Context, studentID string, grade GradeData, opts DeliveryOptions) (*models.Notification, error) {
	return s.CreateNotification(ctx, CreateNotificationInput{
		UserID:      studentID,
		Type:        models.NotificationGradePosted,
		Title:       "New Grade Posted",
		Message:     fmt.Sprintf("You received a score of %g in %s", grade.Score, grade.Subject),
		RelatedType: "grade",
		RelatedID:   grade.GradeID,
		Priority:    models.PriorityMedium,
		Metadata: map[string]interface{}{
			"grade":   grade.Score,
			"subject": grade.Subject,
		},
	}, opts)
}

// AttendanceData is the payload for an attendance-marked notification.
type AttendanceData struct {
	AttendanceID string
	Subject      string
	Date         string
	Status       string // present, absent, late, excused
}

// NotifyAttendanceMarked tells a student their attendance was recorded.
// Absences are high priority; everything else is low.
func (s *NotificationService) NotifyAttendanceMarked(ctx context.Context, studentID string, attendance AttendanceData, opts DeliveryOptions) (*models.Notification, error) {
	isAbsent := attendance.Status == "absent"

	title := "Attendance Recorded"
	message := fmt.Sprintf("Your attendance for %s on %s was recorded", attendance.Subject, attendance.Date)
	priority := models.PriorityLow
	if isAbsent {
		title = "Absence Notice"
		message = fmt.Sprintf("You were marked absent from %s on %s", attendance.Subject, attendance.Date)
		priority = models.PriorityHigh
	}

	return s.CreateNotification(ctx, CreateNotificationInput{
		UserID:      studentID,
		Type:        models.NotificationAttendanceMarked,
		Title:       title,
		Message:     message,
		RelatedType: "attendance",
		RelatedID:   attendance.AttendanceID,
		Priority:    priority,
		Metadata: map[string]interface{}{
			"attendance_id": attendance.AttendanceID,
			"subject":       attendance.Subject,
			"date":          attendance.Date,
			"status":        attendance.Status,
		},
	}, opts)
}

// AssignmentData is the payload for an assignment-due notification.
type AssignmentData struct {
	AssignmentID string
	Name         string
	DueDate      string
}

// NotifyAssignmentDue reminds a student an assignment deadline is near.
func (s *NotificationService) NotifyAssignmentDue(ctx context.Context, studentID string, assignment AssignmentData, opts DeliveryOptions) (*models.Notification, error) {
	return s.CreateNotification(ctx, CreateNotificationInput{
		UserID:      studentID,
		Type:        models.NotificationAssignmentDue,
		Title:       "Assignment Due Soon",
		Message:     fmt.Sprintf("Assignment %s is due on %s", assignment.Name, assignment.DueDate),
		RelatedType: "assignment",
		RelatedID:   assignment.AssignmentID,
		Priority:    models.PriorityHigh,
		Metadata: map[string]interface{}{
			"assignment_id": assignment.AssignmentID,
			"name":          assignment.Name,
			"due_date":      assignment.DueDate,
		},
	}, opts)
}

// AnnouncementData is the payload for a school-wide announcement.
type AnnouncementData struct {
	Title    string
	Message  string
	Priority models.NotificationPriority
}

// NotifyAnnouncement fans an announcement out to a set of users.
func (s *NotificationService) NotifyAnnouncement(ctx context.Context, userIDs []string, announcement AnnouncementData, opts DeliveryOptions) ([]*models.Notification, error) {
	priority := announcement.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	return s.CreateBulkNotifications(ctx, userIDs, CreateNotificationInput{
		Type:     models.NotificationAnnouncement,
		Title:    announcement.Title,
		Message:  announcement.Message,
		Priority: priority,
		Metadata: map[string]interface{}{
			"title":   announcement.Title,
			"message": announcement.Message,
		},
	}, opts)
}

// AlertData is the payload for an urgent alert.
type AlertData struct {
	Title    string
	Message  string
	Metadata map[string]interface{}
}

// NotifyAlert sends an urgent alert. Alerts always request email delivery,
// regardless of caller-supplied options.
func (s *NotificationService) NotifyAlert(ctx context.Context, userID string, alert AlertData, opts DeliveryOptions) (*models.Notification, error) {
	opts.SendEmail = true

	metadata := alert.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{
			"title":   alert.Title,
			"message": alert.Message,
		}
	}

	return s.CreateNotification(ctx, CreateNotificationInput{
		UserID:   userID,
		Type:     models.NotificationAlert,
		Title:    alert.Title,
		Message:  alert.Message,
		Priority: models.PriorityUrgent,
		Metadata: metadata,
	}, opts)
}
