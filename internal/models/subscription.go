package models

import (
	"time"
)

// Subscription status values mirror the payment provider's webhook payloads.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusPastDue  = "past_due"
)

// Subscription represents a user's Pro subscription
type Subscription struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	UserID                 uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	User                   *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ProviderSubscriptionID string     `gorm:"uniqueIndex;size:100;not null" json:"provider_subscription_id"`
	ProviderPriceID        string     `gorm:"size:100" json:"provider_price_id"`
	Status                 string     `gorm:"size:20;not null" json:"status"`
	CurrentPeriodEnd       time.Time  `json:"current_period_end"`
	DiscountPercentage     *int       `json:"discount_percentage,omitempty"`
	DiscountExpiresAt      *time.Time `json:"discount_expires_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
