package models

import (
	"time"
)

// UserSession tracks time a user spends in the app. Duration accrues via
// periodic ping calls, capped per ping to blunt clock manipulation.
type UserSession struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	User          *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	SessionStart  time.Time `json:"session_start"`
	LastPing      time.Time `json:"last_ping"`
	TotalDuration int64     `gorm:"default:0" json:"total_duration"` // seconds
	IsActive      bool      `gorm:"default:true;index" json:"is_active"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}
