package services

import (
	"fmt"

	"github.com/aischool/dashboard/backend/internal/models"
)

// typePolicy fixes the per-type defaults the dispatcher applies: the priority
// used when the caller supplies none, and the tag rendered into email subjects.
type typePolicy struct {
	DefaultPriority models.NotificationPriority
	EmailTag        string
}

var typePolicies = map[models.NotificationType]typePolicy{
	models.NotificationGradePosted:      {DefaultPriority: models.PriorityMedium, EmailTag: "Grades"},
	models.NotificationAttendanceMarked: {DefaultPriority: models.PriorityLow, EmailTag: "Attendance"},
	models.NotificationAssignmentDue:    {DefaultPriority: models.PriorityHigh, EmailTag: "Assignments"},
	models.NotificationAnnouncement:     {DefaultPriority: models.PriorityMedium, EmailTag: "Announcement"},
	models.NotificationMessage:          {DefaultPriority: models.PriorityMedium, EmailTag: "Message"},
	models.NotificationAlert:            {DefaultPriority: models.PriorityUrgent, EmailTag: "Alert"},
	models.NotificationSystem:           {DefaultPriority: models.PriorityMedium, EmailTag: "System"},
}

// validateTypePolicies ensures the registry covers the whole type enum. Called
// from NewNotificationService so a missing entry fails at startup, not on the
// first notification of that type.
func validateTypePolicies() error {
	for _, t := range models.AllNotificationTypes {
		if _, ok := typePolicies[t]; !ok {
			return fmt.Errorf("no type policy registered for notification type %q", t)
		}
	}
	return nil
}
