package model

import (
	"time"

	"github.com/lib/pq"
)

// BusinessRegistrationRequest is a pending new-listing submission.
type BusinessRegistrationRequest struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	UserID        *uint          `gorm:"index" json:"user_id,omitempty"`
	BusinessName  string         `gorm:"type:varchar(200);not null" json:"business_name"`
	ShopNo        string         `gorm:"type:varchar(50)" json:"shop_no"`
	BlockNum      string         `gorm:"type:varchar(50)" json:"block_num"`
	PhoneNumber   string         `gorm:"type:varchar(30)" json:"phone_number"`
	Email         string         `gorm:"type:varchar(255)" json:"email"`
	Description   string         `gorm:"type:text" json:"description"`
	Category      string         `gorm:"type:varchar(100);not null" json:"category"`
	WebsiteURL    string         `json:"website_url"`
	SocialHandles pq.StringArray `gorm:"type:text" json:"social_handles"`
	Processed     bool           `gorm:"default:false;not null;index" json:"processed"`
	ProcessedAt   *time.Time     `json:"processed_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (BusinessRegistrationRequest) TableName() string {
	return "business_registration_requests"
}

// UserRegistrationRequest is an account request awaiting admin approval.
type UserRegistrationRequest struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	Username     string     `gorm:"type:varchar(50);not null" json:"username"`
	Email        string     `gorm:"type:varchar(255);not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Name         string     `gorm:"type:varchar(120)" json:"name"`
	Phone        string     `gorm:"type:varchar(30)" json:"phone"`
	Processed    bool       `gorm:"default:false;not null;index" json:"processed"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (UserRegistrationRequest) TableName() string {
	return "user_registration_requests"
}

// RequestKind selects an intake queue.
type RequestKind string

const (
	RequestBusiness RequestKind = "business"
	RequestUser     RequestKind = "user"
	RequestClaim    RequestKind = "claim"
)

func ValidRequestKind(k RequestKind) bool {
	switch k {
	case RequestBusiness, RequestUser, RequestClaim:
		return true
	}
	return false
}
