package model

import "time"

type SubscriptionPlan struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	Name           string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_plan_name_duration" json:"name"`
	Price          int64     `gorm:"not null" json:"price"`
	DurationMonths int       `gorm:"not null;uniqueIndex:idx_plan_name_duration" json:"duration_months"`
	CreatedAt      time.Time `json:"created_at"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionConfirmed SubscriptionStatus = "confirmed"
)

// Subscription holds the single current plan of a business; updates overwrite it.
type Subscription struct {
	ID           uint               `gorm:"primarykey" json:"id"`
	BusinessID   uint               `gorm:"not null;uniqueIndex" json:"business_id"`
	PlanID       uint               `gorm:"not null;index" json:"plan_id"`
	Status       SubscriptionStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	SubscribedAt time.Time          `json:"subscribed_at"`
	UpdatedAt    time.Time          `json:"updated_at"`

	Plan *SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
