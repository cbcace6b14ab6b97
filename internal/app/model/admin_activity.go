package model

import "time"

type AdminActivity struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	AdminID   uint      `gorm:"not null;index" json:"admin_id"`
	Action    string    `gorm:"type:varchar(60);not null;index" json:"action"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (AdminActivity) TableName() string {
	return "admin_activities"
}

// Activity actions.
const (
	ActionApproveClaim        = "approve_claim"
	ActionRejectRequest       = "reject_request"
	ActionMarkProcessed       = "mark_processed"
	ActionProcessRegistration = "process_business_registration"
	ActionProcessUser         = "process_user_registration"
	ActionUpdateBusiness      = "update_business"
	ActionUpdateMedia         = "update_media"
	ActionSetStatus           = "set_status"
	ActionDeleteBusiness      = "delete_business"
	ActionAssignOwner         = "assign_owner"
	ActionVerifyBusiness      = "verify_business"
	ActionSetSubscription     = "set_subscription"
	ActionCancelSubscription  = "cancel_subscription"
	ActionUpdateUser          = "update_user"
	ActionDeleteUser          = "delete_user"
)
