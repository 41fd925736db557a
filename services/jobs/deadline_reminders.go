package jobs

import (
	"context"
	"fmt"
	"police_case_app_go/models"
	"police_case_app_go/services"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ReminderWindow is how far ahead of an investigation deadline assignees are reminded
const ReminderWindow = 24 * time.Hour

// SendDeadlineReminders notifies every active assignee whose deadline falls
// within the reminder window and stamps the assignment so it is reminded once.
// Returns the number of reminders delivered.
func SendDeadlineReminders(ctx context.Context, database *gorm.DB, notifier services.Notifier, logger zerolog.Logger, now time.Time) (int, error) {
	var assignments []models.CaseAssignment

	// Find assignments:
	// 1. Active, on a case that is still open
	// 2. Deadline between now and now + window
	// 3. ReminderSentAt is NULL
	err := database.WithContext(ctx).
		Preload("Case").
		Joins("JOIN cases ON cases.id = case_assignments.case_id").
		Where("case_assignments.status = ?", models.AssignmentStatusActive).
		Where("cases.status NOT IN ?", models.TerminalStatuses()).
		Where("case_assignments.deadline >= ? AND case_assignments.deadline <= ?", now, now.Add(ReminderWindow)).
		Where("case_assignments.reminder_sent_at IS NULL").
		Find(&assignments).Error
	if err != nil {
		return 0, fmt.Errorf("failed to fetch assignments for reminders: %w", err)
	}

	logger.Info().Int("count", len(assignments)).Msg("deadline reminders due")

	sent := 0
	for _, a := range assignments {
		if a.Case == nil {
			continue
		}
		notice := services.Notice{
			UserID:  a.InvestigatorID,
			Type:    models.NotificationTypeDeadlineReminder,
			Title:   fmt.Sprintf("Deadline approaching for case %s", a.Case.CaseNumber),
			Message: fmt.Sprintf("The investigation of case %s (%s) is due on %s.", a.Case.CaseNumber, a.Case.Title, a.Deadline.Format("2006-01-02 15:04")),
			CaseID:  a.CaseID,
		}
		if err := notifier.Notify(ctx, notice); err != nil {
			logger.Warn().Err(err).Str("assignment_id", a.ID).Msg("failed to send deadline reminder")
			continue
		}

		if err := database.WithContext(ctx).Model(&models.CaseAssignment{}).
			Where("id = ?", a.ID).
			Update("reminder_sent_at", now).Error; err != nil {
			logger.Error().Err(err).Str("assignment_id", a.ID).Msg("failed to stamp deadline reminder")
			continue
		}
		sent++
	}

	return sent, nil
}
