package model

import (
	"time"
)

type BusinessStatus string

const (
	StatusPending   BusinessStatus = "pending"
	StatusActive    BusinessStatus = "active"
	StatusSuspended BusinessStatus = "suspended"
	StatusDeleted   BusinessStatus = "deleted"
)

// ValidBusinessStatus reports whether s is a known status. Transitions
// between known statuses are unrestricted.
func ValidBusinessStatus(s BusinessStatus) bool {
	switch s {
	case StatusPending, StatusActive, StatusSuspended, StatusDeleted:
		return true
	}
	return false
}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

func ValidMediaKind(k MediaKind) bool {
	return k == MediaImage || k == MediaVideo
}

type Business struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	OwnerID      *uint          `gorm:"index" json:"owner_id"` // nil until claimed
	Owner        *User          `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"owner,omitempty"`
	Name         string         `gorm:"type:varchar(200);not null" json:"name"`
	Slug         string         `gorm:"type:varchar(220);uniqueIndex;not null" json:"slug"`
	ShopNo       string         `gorm:"type:varchar(50)" json:"shop_no"`
	BlockNum     string         `gorm:"type:varchar(50)" json:"block_num"`
	PhoneNumber  string         `gorm:"type:varchar(30)" json:"phone_number"`
	Email        string         `gorm:"type:varchar(255)" json:"email"`
	Description  string         `gorm:"type:text" json:"description"`
	Category     string         `gorm:"type:varchar(100)" json:"category"` // last category name applied
	MediaURL     string         `json:"media_url"`
	MediaType    MediaKind      `gorm:"type:varchar(10)" json:"media_type"`
	MediaURL2    string         `gorm:"column:media_url_2" json:"media_url_2"`
	MediaType2   MediaKind      `gorm:"column:media_type_2;type:varchar(10)" json:"media_type_2"`
	Status       BusinessStatus `gorm:"type:varchar(20);default:'pending';not null;index" json:"status"`
	IsSubscribed bool           `gorm:"default:false;not null;index" json:"is_subscribed"`
	IsVerified   bool           `gorm:"default:false;not null" json:"is_verified"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	Categories []Category `gorm:"many2many:business_categories;" json:"categories,omitempty"`
}

func (Business) TableName() string {
	return "businesses"
}

// MediaPair validates the two media slots: kinds must be known when a URL
// is present, and both slots may not hold a video.
func MediaPair(primary, secondary MediaKind) bool {
	if primary != "" && !ValidMediaKind(primary) {
		return false
	}
	if secondary != "" && !ValidMediaKind(secondary) {
		return false
	}
	return !(primary == MediaVideo && secondary == MediaVideo)
}
