package jobs

import (
	"context"
	"fmt"
	"police_case_app_go/config"
	"police_case_app_go/services"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// StartScheduler starts the background jobs. The returned cron must be
// stopped on shutdown.
func StartScheduler(database *gorm.DB, notifier services.Notifier, cfg *config.Config, logger zerolog.Logger) (*cron.Cron, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", cfg.Timezone).Msg("unknown timezone, using UTC")
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	jobLogger := logger.With().Str("job", "deadline_reminders").Logger()
	_, err = c.AddFunc(cfg.ReminderSchedule, func() {
		sent, err := SendDeadlineReminders(context.Background(), database, notifier, jobLogger, time.Now())
		if err != nil {
			jobLogger.Error().Err(err).Msg("deadline reminder run failed")
			return
		}
		jobLogger.Info().Int("sent", sent).Msg("deadline reminder run completed")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule deadline reminders: %w", err)
	}

	c.Start()
	logger.Info().Str("schedule", cfg.ReminderSchedule).Msg("scheduler started")
	return c, nil
}
