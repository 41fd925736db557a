package services

import (
	"context"
	"errors"
	"fmt"
	"police_case_app_go/models"
	"strings"
	"time"

	"gorm.io/gorm"
)

// CreateCaseInput is an intake request for a new draft case
type CreateCaseInput struct {
	CenterID              string // only honoured for super admins
	Title                 string
	Description           string
	CategoryID            string
	Priority              string
	IsSensitive           bool
	InvestigationDeadline *time.Time
}

// nextSequence finds the highest sequence already issued under prefix in a center
func nextSequence(db *gorm.DB, centerID, column, prefix string) (int, error) {
	var numbers []string
	err := db.Model(&models.Case{}).
		Where("center_id = ? AND "+column+" LIKE ?", centerID, prefix+"%").
		Order(column + " DESC").
		Limit(1).
		Pluck(column, &numbers).Error
	if err != nil {
		return 0, fmt.Errorf("failed to query max %s: %w", column, err)
	}

	sequence := 1
	if len(numbers) > 0 {
		var parsedSeq int
		if _, scanErr := fmt.Sscanf(strings.TrimPrefix(numbers[0], prefix), "%d", &parsedSeq); scanErr == nil {
			sequence = parsedSeq + 1
		}
	}
	return sequence, nil
}

// GenerateCaseNumber generates the next case number for a center
// Format: {CENTER_CODE}-{YEAR}-{SEQUENCE}
// Example: NRB-2026-00042
func GenerateCaseNumber(db *gorm.DB, center *models.Center, year int) (string, error) {
	prefix := fmt.Sprintf("%s-%d-", center.Code, year)
	sequence, err := nextSequence(db, center.ID, "case_number", prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, sequence), nil
}

// GenerateOBNumber generates the next Occurrence Book number for a center
// Format: OB/{CENTER_CODE}/{YEAR}/{SEQUENCE}
// Example: OB/NRB/2026/00042
func GenerateOBNumber(db *gorm.DB, center *models.Center, year int) (string, error) {
	prefix := fmt.Sprintf("OB/%s/%d/", center.Code, year)
	sequence, err := nextSequence(db, center.ID, "ob_number", prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, sequence), nil
}

// EnsureUniqueNumbers generates a case number and OB number pair with retry logic
// Retries up to maxRetries times if a collision occurs
func EnsureUniqueNumbers(db *gorm.DB, center *models.Center, year int) (string, string, error) {
	const maxRetries = 10

	for i := 0; i < maxRetries; i++ {
		caseNumber, err := GenerateCaseNumber(db, center, year)
		if err != nil {
			return "", "", err
		}
		obNumber, err := GenerateOBNumber(db, center, year)
		if err != nil {
			return "", "", err
		}

		var count int64
		if err := db.Model(&models.Case{}).
			Where("center_id = ? AND (case_number = ? OR ob_number = ?)", center.ID, caseNumber, obNumber).
			Count(&count).Error; err != nil {
			return "", "", fmt.Errorf("failed to check case number uniqueness: %w", err)
		}

		if count == 0 {
			return caseNumber, obNumber, nil
		}
	}

	return "", "", fmt.Errorf("failed to generate unique case number after %d retries", maxRetries)
}

// CreateCase records a new draft case and issues its case and OB numbers
func (l *CaseLifecycle) CreateCase(ctx context.Context, input CreateCaseInput, actor ActorContext) (*models.Case, error) {
	centerID := actor.CenterID
	if actor.IsSuperAdmin() && input.CenterID != "" {
		centerID = input.CenterID
	}

	switch {
	case actor.UserID == "":
		return nil, fmt.Errorf("%w: missing actor", ErrForbidden)
	case actor.IsSuperAdmin():
	case actor.Role == models.RoleAdmin, actor.Role == models.RoleOBOfficer:
		if actor.CenterID == "" {
			return nil, fmt.Errorf("%w: %s is not bound to a center", ErrForbidden, actor.UserID)
		}
	default:
		return nil, fmt.Errorf("%w: %s cannot open cases", ErrForbidden, actor.Role)
	}
	if centerID == "" {
		return nil, fmt.Errorf("%w: center is required", ErrInvalidInput)
	}

	title := sanitizeText(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	priority := strings.ToUpper(strings.TrimSpace(input.Priority))
	if priority == "" {
		priority = models.CasePriorityNormal
	}
	if !models.IsValidCasePriority(priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, input.Priority)
	}

	var created models.Case
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var center models.Center
		if err := tx.First(&center, "id = ?", centerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: center %s", ErrNotFound, centerID)
			}
			return fmt.Errorf("failed to fetch center: %w", err)
		}
		if !center.IsActive {
			return fmt.Errorf("%w: center %s is inactive", ErrInvalidInput, center.Code)
		}

		caseNumber, obNumber, err := EnsureUniqueNumbers(tx, &center, time.Now().Year())
		if err != nil {
			return err
		}

		created = models.Case{
			CenterID:              center.ID,
			CaseNumber:            caseNumber,
			OBNumber:              obNumber,
			Title:                 title,
			Description:           sanitizeText(input.Description),
			CategoryID:            optionalID(input.CategoryID),
			Priority:              priority,
			IsSensitive:           input.IsSensitive,
			CreatedBy:             actor.UserID,
			Status:                models.CaseStatusDraft,
			CourtStatus:           models.CourtStatusNotSent,
			InvestigationDeadline: input.InvestigationDeadline,
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("failed to create case: %w", err)
		}

		audit := caseAuditEntry(&created, models.AuditActionCreate, "Case opened")
		audit.After = map[string]interface{}{"ob_number": created.OBNumber, "title": created.Title, "priority": created.Priority}
		return WriteAuditLog(tx, auditContextFor(actor, center.ID), audit)
	})
	if err != nil {
		return nil, err
	}

	l.Logger.Info().
		Str("case_id", created.ID).
		Str("case_number", created.CaseNumber).
		Str("ob_number", created.OBNumber).
		Str("actor_id", actor.UserID).
		Msg("case opened")
	return &created, nil
}
