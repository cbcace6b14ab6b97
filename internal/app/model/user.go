package model

import (
	"time"
)

type UserRole string

const (
	RoleUser  UserRole = "user"  // visitor account
	RoleOwner UserRole = "owner" // owns at least one listing
	RoleAdmin UserRole = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r UserRole) bool {
	switch r {
	case RoleUser, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Name         string    `gorm:"type:varchar(120)" json:"name"`
	Phone        string    `gorm:"type:varchar(30)" json:"phone"`
	ProfileImage string    `json:"profile_image"`
	Role         UserRole  `gorm:"type:varchar(20);default:'user';not null;index" json:"role"`
	IsVerified   bool      `gorm:"default:false;not null" json:"is_verified"`
	Suspended    bool      `gorm:"default:false;not null" json:"suspended"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Businesses []Business `gorm:"foreignKey:OwnerID" json:"businesses,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// TokenPurpose distinguishes single-use emailed tokens.
type TokenPurpose string

const (
	TokenEmailVerification TokenPurpose = "email_verification"
	TokenPasswordReset     TokenPurpose = "password_reset"
)

// UserToken is a single-use token sent by email.
type UserToken struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"not null;index" json:"user_id"`
	Purpose   TokenPurpose `gorm:"type:varchar(30);not null;index" json:"purpose"`
	Token     string       `gorm:"size:255;not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time    `gorm:"not null;index" json:"expires_at"`
	Used      bool         `gorm:"default:false;not null" json:"used"`
	CreatedAt time.Time    `json:"created_at"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (UserToken) TableName() string {
	return "user_tokens"
}
