package services

import (
	"context"
	"errors"
	"fmt"
	"police_case_app_go/config"
	"police_case_app_go/models"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// NotificationService stores in-app notifications and mirrors them by email.
// It is the default Notifier of the workflow services.
type NotificationService struct {
	DB     *gorm.DB
	Mailer *Mailer // nil disables the email channel
	AppURL string
	Logger zerolog.Logger
}

// NewNotificationService builds the service; a nil cfg keeps notifications in-app only
func NewNotificationService(db *gorm.DB, cfg *config.Config, logger zerolog.Logger) *NotificationService {
	s := &NotificationService{DB: db, Logger: logger}
	if cfg != nil {
		s.Mailer = NewMailer(cfg, logger)
		s.AppURL = cfg.AppURL
	}
	return s
}

// Notify implements Notifier
func (s *NotificationService) Notify(ctx context.Context, notice Notice) error {
	if notice.UserID == "" {
		return fmt.Errorf("%w: notice without recipient", ErrInvalidInput)
	}

	notification := &models.Notification{
		UserID:  notice.UserID,
		Type:    notice.Type,
		Title:   notice.Title,
		Message: notice.Message,
		CaseID:  notice.CaseID,
	}
	if err := s.DB.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	if s.Mailer == nil {
		return nil
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Select("id", "name", "email", "is_active").First(&user, "id = ?", notice.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up recipient: %w", err)
	}
	if !user.IsActive || user.Email == "" {
		return nil
	}

	return s.Mailer.Send(caseNoticeEmail(user.Email, user.Name, notice, s.AppURL))
}

// inboxSize caps how many unread notifications one Inbox call returns
const inboxSize = 20

// Inbox is a user's unread notifications, newest first, with the full unread count
type Inbox struct {
	Unread        int64                 `json:"unread"`
	Notifications []models.Notification `json:"notifications"`
}

func (s *NotificationService) unread(ctx context.Context, userID string) *gorm.DB {
	return s.DB.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ? AND read_at IS NULL", userID)
}

// Inbox loads the unread notifications of userID
func (s *NotificationService) Inbox(ctx context.Context, userID string) (*Inbox, error) {
	inbox := &Inbox{Notifications: []models.Notification{}}
	if err := s.unread(ctx, userID).Count(&inbox.Unread).Error; err != nil {
		return nil, fmt.Errorf("count unread notifications: %w", err)
	}
	if inbox.Unread == 0 {
		return inbox, nil
	}
	err := s.unread(ctx, userID).Order("created_at DESC").Limit(inboxSize).Find(&inbox.Notifications).Error
	if err != nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}
	return inbox, nil
}

// MarkRead marks one notification of userID as read. Notifications of other
// users are reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	result := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read_at", time.Now())
	if result.Error != nil {
		return fmt.Errorf("mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: notification %s", ErrNotFound, notificationID)
	}
	return nil
}

// MarkAllRead clears the inbox of userID and reports how many notifications it touched
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result := s.unread(ctx, userID).Update("read_at", time.Now())
	if result.Error != nil {
		return 0, fmt.Errorf("mark notifications read: %w", result.Error)
	}
	return result.RowsAffected, nil
}
