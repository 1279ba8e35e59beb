package models

import (
	"time"
)

// RateLimit tracks the last CV scan per client IP
type RateLimit struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	IPAddress    string    `gorm:"uniqueIndex;size:45;not null" json:"ip_address"`
	LastScanTime time.Time `json:"last_scan_time"`
	ScanCount    int       `gorm:"default:0" json:"scan_count"`
}

func (RateLimit) TableName() string {
	return "rate_limits"
}
