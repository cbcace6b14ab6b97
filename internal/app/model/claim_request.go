package model

import "time"

// ClaimRequest asks for ownership of an existing listing. Reviewed flips
// exactly once, inside the approval transaction. A rejected claim stays
// unreviewed and can no longer be approved.
type ClaimRequest struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	BusinessID  uint       `gorm:"not null;index" json:"business_id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	PhoneNumber string     `gorm:"type:varchar(30)" json:"phone_number"`
	Email       string     `gorm:"type:varchar(255)" json:"email"`
	Category    string     `gorm:"type:varchar(100)" json:"category"`
	Description string     `gorm:"type:text" json:"description"`
	Reviewed    bool       `gorm:"default:false;not null;index" json:"reviewed"`
	ReviewedBy  *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	Rejected    bool       `gorm:"default:false;not null;index" json:"rejected"`
	RejectedBy  *uint      `json:"rejected_by,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	Business *Business `gorm:"foreignKey:BusinessID;constraint:OnDelete:RESTRICT" json:"business,omitempty"`
	User     *User     `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"user,omitempty"`
}

func (ClaimRequest) TableName() string {
	return "claim_requests"
}
