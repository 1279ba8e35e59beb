package models

import (
	"time"
)

// Referral status values. A referral starts as pending and moves to a
// terminal valid or invalid state, never back.
const (
	ReferralStatusPending = "pending"
	ReferralStatusValid   = "valid"
	ReferralStatusInvalid = "invalid"
)

// Reward types granted by the referral program.
const (
	RewardTypeDiscount = "discount"
	RewardTypeFreePro  = "free_pro"
)

// ReferralCode represents a unique referral code for a user
type ReferralCode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Code      string    `gorm:"uniqueIndex;size:20;not null" json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

func (ReferralCode) TableName() string {
	return "referral_codes"
}

// Referral represents a referral relationship between users.
// The unique index on ReferredUserID enforces one referral per referred
// user at the database level.
type Referral struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	ReferrerID        uint       `gorm:"not null;index" json:"referrer_id"`
	Referrer          *User      `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	ReferredUserID    uint       `gorm:"not null;uniqueIndex" json:"referred_user_id"`
	ReferredUser      *User      `gorm:"foreignKey:ReferredUserID" json:"referred_user,omitempty"`
	ReferralCode      string     `gorm:"size:20;not null;index" json:"referral_code"`
	Status            string     `gorm:"size:20;default:pending;index" json:"status"`
	CVScanCompleted   bool       `gorm:"default:false" json:"cv_scan_completed"`
	TotalSessionTime  int64      `gorm:"default:0" json:"total_session_time"` // seconds
	IPAddress         string     `gorm:"size:45;index" json:"ip_address"`
	DeviceFingerprint *string    `gorm:"size:128" json:"device_fingerprint,omitempty"`
	ValidatedAt       *time.Time `json:"validated_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func (Referral) TableName() string {
	return "referrals"
}

// ReferralReward represents a reward granted through the referral program
type ReferralReward struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"not null;index" json:"user_id"`
	User               *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	RewardType         string    `gorm:"size:20;not null" json:"reward_type"`
	DiscountPercentage *int      `json:"discount_percentage,omitempty"`
	DurationMonths     int       `json:"duration_months"`
	AppliedAt          time.Time `json:"applied_at"`
	ExpiresAt          time.Time `gorm:"index" json:"expires_at"`
	IsActive           bool      `gorm:"default:true;index" json:"is_active"`
}

func (ReferralReward) TableName() string {
	return "referral_rewards"
}
