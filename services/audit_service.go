package services

import (
	"encoding/json"
	"fmt"
	"police_case_app_go/models"
	"time"

	"gorm.io/gorm"
)

// AuditContext identifies who performed an audited operation and from where
type AuditContext struct {
	UserID    string
	UserName  string
	UserRole  string
	CenterID  string
	IPAddress string
	UserAgent string
}

func auditContextFor(actor ActorContext, centerID string) AuditContext {
	return AuditContext{UserID: actor.UserID, UserRole: actor.Role, CenterID: centerID}
}

// AuditEntry is the operation half of an audit log row
type AuditEntry struct {
	Action       models.AuditAction
	ResourceType string
	ResourceID   string
	ResourceName string
	Description  string
	Before       map[string]interface{}
	After        map[string]interface{}
}

func caseAuditEntry(c *models.Case, action models.AuditAction, description string) AuditEntry {
	return AuditEntry{
		Action:       action,
		ResourceType: models.AuditResourceCase,
		ResourceID:   c.ID,
		ResourceName: c.CaseNumber,
		Description:  description,
	}
}

// UserAuditEntry describes an operation on a staff account, such as a login
func UserAuditEntry(user *models.User, action models.AuditAction, description string) AuditEntry {
	return AuditEntry{
		Action:       action,
		ResourceType: models.AuditResourceUser,
		ResourceID:   user.ID,
		ResourceName: user.Name,
		Description:  description,
	}
}

// WriteAuditLog appends entry on tx, so it commits or rolls back with the
// change it describes. A missing UserName is looked up from UserID.
func WriteAuditLog(tx *gorm.DB, who AuditContext, entry AuditEntry) error {
	if who.UserName == "" && who.UserID != "" {
		var user models.User
		if err := tx.Select("name").First(&user, "id = ?", who.UserID).Error; err == nil {
			who.UserName = user.Name
		}
	}

	row := models.AuditLog{
		UserID:       optionalID(who.UserID),
		UserName:     who.UserName,
		UserRole:     who.UserRole,
		CenterID:     optionalID(who.CenterID),
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		ResourceName: entry.ResourceName,
		Action:       entry.Action,
		Description:  entry.Description,
		OldValues:    encodeAuditValues(entry.Before),
		NewValues:    encodeAuditValues(entry.After),
		IPAddress:    who.IPAddress,
		UserAgent:    who.UserAgent,
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func encodeAuditValues(values map[string]interface{}) string {
	if len(values) == 0 {
		return ""
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(encoded)
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// CaseAuditLogs returns the audit rows of one case, newest first
func CaseAuditLogs(db *gorm.DB, caseID string) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := db.Where("resource_type = ? AND resource_id = ?", models.AuditResourceCase, caseID).
		Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("case audit logs: %w", err)
	}
	return logs, nil
}

// AuditLogQuery narrows a center's audit log. Zero fields match everything.
type AuditLogQuery struct {
	UserID       string
	ResourceType string
	Action       string
	Search       string // matched against resource name, description and user name
	From         time.Time
	To           time.Time

	Page     int
	PageSize int
}

const defaultAuditPageSize = 20

func (q AuditLogQuery) apply(db *gorm.DB) *gorm.DB {
	if q.UserID != "" {
		db = db.Where("user_id = ?", q.UserID)
	}
	if q.ResourceType != "" {
		db = db.Where("resource_type = ?", q.ResourceType)
	}
	if q.Action != "" {
		db = db.Where("action = ?", q.Action)
	}
	if !q.From.IsZero() {
		db = db.Where("created_at >= ?", q.From)
	}
	if !q.To.IsZero() {
		db = db.Where("created_at <= ?", q.To)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		db = db.Where("(resource_name LIKE ? OR description LIKE ? OR user_name LIKE ?)", like, like, like)
	}
	return db
}

// AuditLogPage is one page of a center's audit log
type AuditLogPage struct {
	Logs     []models.AuditLog `json:"logs"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// CenterAuditLogs returns the page of centerID's audit log selected by q, newest first
func CenterAuditLogs(db *gorm.DB, centerID string, q AuditLogQuery) (*AuditLogPage, error) {
	page := &AuditLogPage{Page: q.Page, PageSize: q.PageSize, Logs: []models.AuditLog{}}
	if page.Page < 1 {
		page.Page = 1
	}
	if page.PageSize < 1 {
		page.PageSize = defaultAuditPageSize
	}

	scoped := q.apply(db.Model(&models.AuditLog{}).Where("center_id = ?", centerID))
	if err := scoped.Count(&page.Total).Error; err != nil {
		return nil, fmt.Errorf("count audit logs: %w", err)
	}
	err := scoped.Order("created_at DESC").
		Offset((page.Page - 1) * page.PageSize).
		Limit(page.PageSize).
		Find(&page.Logs).Error
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return page, nil
}
