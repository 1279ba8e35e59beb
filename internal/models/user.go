package models

import (
	"time"
)

// User represents a user in the system
type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Email           string    `gorm:"uniqueIndex;not null" json:"email"`
	Name            string    `gorm:"size:100" json:"name"`
	PasswordHash    string    `gorm:"not null" json:"-"`
	Location        *string   `gorm:"size:100" json:"location,omitempty"`
	Role            string    `gorm:"size:20;default:user" json:"role"`
	ReferralCredits int       `gorm:"default:0" json:"referral_credits"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
