package services

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"careersync/internal/models"
)

// Each ping may add at most this much to a session, so a client lying about
// elapsed time cannot inflate its total.
const maxAccrualPerPing = 60 * time.Second

// SessionService tracks per-user session time and feeds it into the
// referral ledger's validation gate.
type SessionService struct {
	db       *gorm.DB
	referral *ReferralService
}

func NewSessionService(db *gorm.DB, referral *ReferralService) *SessionService {
	return &SessionService{db: db, referral: referral}
}

// TrackSession handles a ping from the client. An active session accrues
// min(elapsed, 60s); a user without one gets a fresh session at zero.
func (s *SessionService) TrackSession(userID uint) (*models.UserSession, error) {
	now := time.Now()

	var session models.UserSession
	err := s.db.Where("user_id = ? AND is_active = ?", userID, true).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		session = models.UserSession{
			UserID:       userID,
			SessionStart: now,
			LastPing:     now,
			TotalDuration: 0,
			IsActive:     true,
		}
		if err := s.db.Create(&session).Error; err != nil {
			return nil, err
		}
		return &session, nil
	}
	if err != nil {
		return nil, err
	}

	elapsed := now.Sub(session.LastPing)
	if elapsed > maxAccrualPerPing {
		elapsed = maxAccrualPerPing
	}
	if elapsed < 0 {
		elapsed = 0
	}

	session.TotalDuration += int64(elapsed.Seconds())
	session.LastPing = now

	if err := s.db.Model(&session).Updates(map[string]interface{}{
		"last_ping":      session.LastPing,
		"total_duration": session.TotalDuration,
	}).Error; err != nil {
		return nil, err
	}

	total, err := s.TotalSessionTime(userID)
	if err != nil {
		return nil, err
	}

	if err := s.referral.UpdateSessionTime(userID, total); err != nil {
		log.Printf("Warning: failed to update referral session time for user %d: %v", userID, err)
	}

	return &session, nil
}

// TotalSessionTime sums the duration of all of the user's sessions.
func (s *SessionService) TotalSessionTime(userID uint) (int64, error) {
	var total int64
	row := s.db.Model(&models.UserSession{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(total_duration), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// CloseIdleSessions deactivates sessions that have not pinged within the
// idle cutoff.
func (s *SessionService) CloseIdleSessions(idleAfter time.Duration) (int64, error) {
	cutoff := time.Now().Add(-idleAfter)
	result := s.db.Model(&models.UserSession{}).
		Where("is_active = ? AND last_ping < ?", true, cutoff).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}
