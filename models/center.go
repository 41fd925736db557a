package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Center is a police station; cases, officers and investigators belong to one
type Center struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string `gorm:"not null" json:"name"`
	Code     string `gorm:"uniqueIndex;not null;size:12" json:"code"` // Prefix of case and OB numbers
	Region   string `json:"region"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`

	// Relationships
	Users []User `gorm:"foreignKey:CenterID" json:"-"`
}

// BeforeCreate hook to generate UUID and code
func (c *Center) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Code == "" {
		c.Code = generateCenterCode(tx, c.Name)
	}
	return nil
}

var nonAlnum = regexp.MustCompile(`[^A-Z0-9]+`)

// generateCenterCode derives a short uppercase code from the center name
func generateCenterCode(tx *gorm.DB, name string) string {
	code := nonAlnum.ReplaceAllString(strings.ToUpper(name), "")
	if len(code) > 6 {
		code = code[:6]
	}
	if code == "" {
		code = "CTR"
	}

	// Ensure uniqueness
	original := code
	counter := 1
	for {
		var count int64
		tx.Model(&Center{}).Where("code = ?", code).Count(&count)
		if count == 0 {
			break
		}
		code = original + strconv.Itoa(counter)
		counter++
	}

	return code
}

// TableName specifies the table name for Center model
func (Center) TableName() string {
	return "centers"
}
