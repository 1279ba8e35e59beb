package services

import (
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"careersync/internal/models"
)

// ScanGate is the outcome of a rate-limit check.
type ScanGate struct {
	Allowed          bool  `json:"allowed"`
	SecondsRemaining int64 `json:"seconds_remaining,omitempty"`
}

// RateLimitService gates CV scans to one per cooldown window per client IP.
type RateLimitService struct {
	db       *gorm.DB
	cooldown time.Duration
}

func NewRateLimitService(db *gorm.DB, cooldown time.Duration) *RateLimitService {
	return &RateLimitService{db: db, cooldown: cooldown}
}

// CheckScanAllowed looks up the IP's record. Inside the cooldown window the
// scan is rejected with the seconds left; otherwise the record is updated
// (or created) and the scan allowed. Rejections never extend the window; an
// unknown IP is always allowed.
func (s *RateLimitService) CheckScanAllowed(ipAddress string) (*ScanGate, error) {
	now := time.Now()

	var record models.RateLimit
	err := s.db.Where("ip_address = ?", ipAddress).First(&record).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err == nil {
		elapsed := now.Sub(record.LastScanTime)
		if elapsed < s.cooldown {
			remaining := s.cooldown - elapsed
			return &ScanGate{
				Allowed:          false,
				SecondsRemaining: int64(math.Ceil(remaining.Seconds())),
			}, nil
		}

		if err := s.db.Model(&record).Updates(map[string]interface{}{
			"last_scan_time": now,
			"scan_count":     gorm.Expr("scan_count + 1"),
		}).Error; err != nil {
			return nil, err
		}
		return &ScanGate{Allowed: true}, nil
	}

	record = models.RateLimit{
		IPAddress:    ipAddress,
		LastScanTime: now,
		ScanCount:    1,
	}
	if err := s.db.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Concurrent first scan from the same IP; treat as inside the
			// window.
			return &ScanGate{Allowed: false, SecondsRemaining: int64(math.Ceil(s.cooldown.Seconds()))}, nil
		}
		return nil, err
	}

	return &ScanGate{Allowed: true}, nil
}

// PruneStale deletes rate-limit rows whose last scan is older than maxAge.
func (s *RateLimitService) PruneStale(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	result := s.db.Where("last_scan_time < ?", cutoff).Delete(&models.RateLimit{})
	return result.RowsAffected, result.Error
}
