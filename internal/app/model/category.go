package model

import (
	"strings"
	"time"
)

// Category is append-only reference data; NameKey carries the uniqueness.
type Category struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	NameKey   string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"-"`
	Slug      string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`

	BusinessCount int64 `gorm:"-" json:"business_count,omitempty"`
}

func (Category) TableName() string {
	return "categories"
}

// NormalizeCategoryName trims and collapses inner whitespace.
func NormalizeCategoryName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// CategoryKey is the case-insensitive matching key for a category name.
func CategoryKey(name string) string {
	return strings.ToLower(NormalizeCategoryName(name))
}

// BusinessCategory links a business to a category. The composite key keeps pairs unique.
type BusinessCategory struct {
	BusinessID uint      `gorm:"primaryKey;autoIncrement:false" json:"business_id"`
	CategoryID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (BusinessCategory) TableName() string {
	return "business_categories"
}
