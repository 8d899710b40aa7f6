package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aischool/dashboard/backend/internal/models"
)

func TestNotifyGradePosted(t *testing.T) {
	repo := &MockRepository{}
	repo.On("Create", mock.Anything).Return(nil)

	svc := newTestService(repo, nil, nil)

	n, err := svc.NotifyGradePosted(context.Background(), "student-1", GradeData{
		GradeID: "g1",
		Subject: "Mathematics",
		Score:   8.5,
	}, DeliveryOptions{})

	require.NoError(t, err)
	assert.Equal(t, models.NotificationGradePosted, n.Type)
	assert.Equal(t, models.PriorityMedium, n.Priority)
	assert.Equal(t, "grade", n.RelatedType)
	assert.Equal(t, "g1", n.RelatedID)
	assert.Contains(t, n.Message, "Mathematics")
	assert.Equal(t, 8.5, n.Metadata["grade"])
	assert.Equal(t, "Mathematics", n.Metadata["subject"])
}

func TestNotifyAttendanceMarked_PriorityPolicy(t *testing.T) {
	tests := []struct {
		status       string
		wantPriority models.NotificationPriority
		wantTitle    string
	}{
		{status: "absent", wantPriority: models.PriorityHigh, wantTitle: "Absence Notice"},
		{status: "present", wantPriority: models.PriorityLow, wantTitle: "Attendance Recorded"},
		{status: "late", wantPriority: models.PriorityLow, wantTitle: "Attendance Recorded"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			repo := &MockRepository{}
			repo.On("Create", mock.Anything).Return(nil)

			svc := newTestService(repo, nil, nil)

			n, err := svc.NotifyAttendanceMarked(context.Background(), "student-1", AttendanceData{
				AttendanceID: "a1",
				Subject:      "Physics",
				Date:         "2025-03-10",
				Status:       tt.status,
			}, DeliveryOptions{})

			require.NoError(t, err)
			assert.Equal(t, models.NotificationAttendanceMarked, n.Type)
			assert.Equal(t, tt.wantPriority, n.Priority)
			assert.Equal(t, tt.wantTitle, n.Title)
			assert.Equal(t, "attendance", n.RelatedType)
		})
	}
}

func TestNotifyAssignmentDue(t *testing.T) {
	repo := &MockRepository{}
	repo.On("Create", mock.Anything).Return(nil)

	svc := newTestService(repo, nil, nil)

	n, err := svc.NotifyAssignmentDue(context.Background(), "student-1", AssignmentData{
		AssignmentID: "as1",
		Name:         "Essay 2",
		DueDate:      "2025-03-15",
	}, DeliveryOptions{})

	require.NoError(t, err)
	assert.Equal(t, models.NotificationAssignmentDue, n.Type)
	assert.Equal(t, models.PriorityHigh, n.Priority)
	assert.Equal(t, "assignment", n.RelatedType)
	assert.Contains(t, n.Message, "Essay 2")
}

func TestNotifyAnnouncement_FansOutToAllUsers(t *testing.T) {
	repo := &MockRepository{}
	repo.On("Create", mock.Anything).Return(nil)

	svc := newTestService(repo, nil, nil)

	notifications, err := svc.NotifyAnnouncement(context.Background(), []string{"u1", "u2"}, AnnouncementData{
		Title:   "School closed",
		Message: "Holiday on Friday",
	}, DeliveryOptions{})

	require.NoError(t, err)
	require.Len(t, notifications, 2)
	for _, n := range notifications {
		assert.Equal(t, models.NotificationAnnouncement, n.Type)
		assert.Equal(t, models.PriorityMedium, n.Priority)
	}
	assert.Equal(t, "u1", notifications[0].UserID)
	assert.Equal(t, "u2", notifications[1].UserID)
}

// Alerts must always attempt email delivery, even when the caller asked for
// none, and are always urgent.
func TestNotifyAlert_ForcesEmailAndUrgentPriority(t *testing.T) {
	repo := &MockRepository{}
	repo.On("Create", mock.Anything).Return(nil)
	repo.On("MarkEmailSent", mock.Anything).Return(nil)

	fm := &fakeMailer{}
	svc := newTestService(repo, fm, nil)

	n, err := svc.NotifyAlert(context.Background(), "u1", AlertData{
		Title:   "X",
		Message: "Y",
	}, DeliveryOptions{SendEmail: false, Recipient: &RecipientProfile{Email: "parent@home.com"}})

	require.NoError(t, err)
	assert.Equal(t, models.PriorityUrgent, n.Priority)
	require.Len(t, fm.sent, 1, "alert must attempt email even when SendEmail is false")
	assert.Equal(t, "parent@home.com", fm.sent[0].To)
}

func TestNotifyAlert_NoRecipientStillCreatesRecord(t *testing.T) {
	repo := &MockRepository{}
	repo.On("Create", mock.Anything).Return(nil)

	fm := &fakeMailer{}
	svc := newTestService(repo, fm, nil)

	n, err := svc.NotifyAlert(context.Background(), "u1", AlertData{Title: "X", Message: "Y"}, DeliveryOptions{})

	require.NoError(t, err)
	assert.Equal(t, models.PriorityUrgent, n.Priority)
	assert.False(t, n.EmailSent)
	assert.Empty(t, fm.sent)
}

func TestTypePoliciesCoverAllTypes(t *testing.T) {
	require.NoError(t, validateTypePolicies())
	for _, typ := range models.AllNotificationTypes {
		_, ok := typePolicies[typ]
		assert.True(t, ok, "missing policy for %s", typ)
	}
}
