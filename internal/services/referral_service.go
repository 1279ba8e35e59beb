package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"gorm.io/gorm"

	"careersync/internal/models"
)

const (
	referralCodePrefix  = "CAREER-"
	referralCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referralCodeLength  = 4
	codeGenAttempts     = 10

	// A referral validates once the referred user has completed a CV scan
	// AND accumulated at least this much session time.
	minSessionTimeSeconds = 600

	creditsForFreePro = 3

	discountPercentage     = 20
	discountDurationMonths = 12
	freeProDurationMonths  = 3

	// Calendar-naive fixed-day approximations.
	discountValidity = 365 * 24 * time.Hour
	freeProValidity  = 90 * 24 * time.Hour

	// A code may be used by at most this many signups per 24 hours.
	dailyReferralsPerCode = 3

	// Signups from an IP that already produced this many referrals are
	// recorded as invalid and rejected.
	maxReferralsPerIP = 2
)

// ErrReferralAbuse is returned when a signup trips the same-IP heuristic.
// The offending referral is still persisted (as invalid) for audit.
var ErrReferralAbuse = errors.New("referral validation failed")

// ReferralService implements the referral program: code generation,
// referral creation with abuse checks, dual-condition validation and
// reward issuance.
type ReferralService struct {
	db *gorm.DB
}

func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{db: db}
}

// EnsureReferralCode returns the user's referral code, creating one lazily
// on first use. Uniqueness is enforced by the codes' unique index; on a
// collision we regenerate, giving up after 10 attempts.
func (s *ReferralService) EnsureReferralCode(userID uint) (*models.ReferralCode, error) {
	var existing models.ReferralCode
	err := s.db.Where("user_id = ?", userID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		code, err := generateReferralCode()
		if err != nil {
			return nil, err
		}

		referralCode := models.ReferralCode{
			UserID: userID,
			Code:   code,
		}

		err = s.db.Create(&referralCode).Error
		if err == nil {
			log.Printf("Generated referral code %s for user %d", code, userID)
			return &referralCode, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Either the code collided or a concurrent request already
			// created one for this user. Re-check before retrying.
			if lookupErr := s.db.Where("user_id = ?", userID).First(&existing).Error; lookupErr == nil {
				return &existing, nil
			}
			continue
		}
		return nil, fmt.Errorf("failed to create referral code: %w", err)
	}

	return nil, fmt.Errorf("could not generate a unique referral code after %d attempts", codeGenAttempts)
}

func generateReferralCode() (string, error) {
	var b strings.Builder
	b.WriteString(referralCodePrefix)
	for i := 0; i < referralCodeLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referralCodeCharset))))
		if err != nil {
			return "", err
		}
		b.WriteByte(referralCodeCharset[n.Int64()])
	}
	return b.String(), nil
}

// CodeValidation is the outcome of checking a referral code before signup.
type CodeValidation struct {
	Valid      bool   `json:"valid"`
	Message    string `json:"message,omitempty"`
	ReferrerID uint   `json:"referrer_id,omitempty"`
}

// ValidateCode checks that a referral code exists and has not exceeded its
// daily usage limit.
func (s *ReferralService) ValidateCode(code string) (*CodeValidation, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	var referralCode models.ReferralCode
	if err := s.db.Where("code = ?", code).First(&referralCode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &CodeValidation{Valid: false, Message: "Invalid referral code"}, nil
		}
		return nil, err
	}

	var recentUses int64
	oneDayAgo := time.Now().Add(-24 * time.Hour)
	if err := s.db.Model(&models.Referral{}).
		Where("referral_code = ? AND created_at > ?", code, oneDayAgo).
		Count(&recentUses).Error; err != nil {
		return nil, err
	}

	if recentUses >= dailyReferralsPerCode {
		return &CodeValidation{Valid: false, Message: "This code has reached its daily limit"}, nil
	}

	return &CodeValidation{Valid: true, ReferrerID: referralCode.UserID}, nil
}

// CreateReferral records that referredUserID signed up with the given code.
// The unique index on referred_user_id guarantees at most one referral per
// user even under concurrent signups.
func (s *ReferralService) CreateReferral(referredUserID uint, code, ipAddress string, deviceFingerprint *string) (*models.Referral, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	var referralCode models.ReferralCode
	if err := s.db.Where("code = ?", code).First(&referralCode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid referral code")
		}
		return nil, err
	}

	if referralCode.UserID == referredUserID {
		return nil, fmt.Errorf("you cannot use your own referral code")
	}

	referral := models.Referral{
		ReferrerID:        referralCode.UserID,
		ReferredUserID:    referredUserID,
		ReferralCode:      code,
		Status:            models.ReferralStatusPending,
		IPAddress:         ipAddress,
		DeviceFingerprint: deviceFingerprint,
	}

	// Same-IP abuse heuristic: the referral is persisted as invalid so the
	// attempt stays on record, but the signup itself is rejected.
	var sameIPCount int64
	if err := s.db.Model(&models.Referral{}).
		Where("ip_address = ?", ipAddress).
		Count(&sameIPCount).Error; err != nil {
		return nil, err
	}

	if sameIPCount >= maxReferralsPerIP {
		referral.Status = models.ReferralStatusInvalid
		if err := s.db.Create(&referral).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, fmt.Errorf("you have already used a referral code")
			}
			return nil, fmt.Errorf("failed to create referral: %w", err)
		}
		log.Printf("Rejected referral from IP %s for user %d (same-IP limit)", ipAddress, referredUserID)
		return nil, ErrReferralAbuse
	}

	if err := s.db.Create(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("you have already used a referral code")
		}
		return nil, fmt.Errorf("failed to create referral: %w", err)
	}

	log.Printf("Created pending referral: user %d referred by user %d (code %s)", referredUserID, referralCode.UserID, code)
	return &referral, nil
}

// MarkCVScanCompleted flags the referred user's pending referral and
// validates it if the session-time condition is already met.
func (s *ReferralService) MarkCVScanCompleted(userID uint) error {
	var referral models.Referral
	err := s.db.Where("referred_user_id = ?", userID).First(&referral).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if referral.Status != models.ReferralStatusPending {
		return nil
	}

	if err := s.db.Model(&referral).Update("cv_scan_completed", true).Error; err != nil {
		return err
	}
	referral.CVScanCompleted = true

	return s.maybeValidate(&referral)
}

// UpdateSessionTime records the referred user's accumulated session time
// and validates the referral if both conditions are now met.
func (s *ReferralService) UpdateSessionTime(userID uint, sessionTime int64) error {
	var referral models.Referral
	err := s.db.Where("referred_user_id = ?", userID).First(&referral).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if referral.Status != models.ReferralStatusPending {
		return nil
	}

	if err := s.db.Model(&referral).Update("total_session_time", sessionTime).Error; err != nil {
		return err
	}
	referral.TotalSessionTime = sessionTime

	return s.maybeValidate(&referral)
}

// maybeValidate moves a pending referral to valid and issues rewards once
// both gating conditions hold. Reward issuance and credit bookkeeping run
// in a single transaction.
func (s *ReferralService) maybeValidate(referral *models.Referral) error {
	if referral.Status != models.ReferralStatusPending {
		return nil
	}
	if !referral.CVScanCompleted || referral.TotalSessionTime < minSessionTimeSeconds {
		return nil
	}

	now := time.Now()

	return s.db.Transaction(func(tx *gorm.DB) error {
		// Re-check under the transaction so two concurrent triggers cannot
		// both issue rewards.
		var current models.Referral
		if err := tx.Where("id = ? AND status = ?", referral.ID, models.ReferralStatusPending).
			First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Model(&current).Updates(map[string]interface{}{
			"status":       models.ReferralStatusValid,
			"validated_at": now,
		}).Error; err != nil {
			return err
		}

		// 20% discount for the referred user, 12 months.
		pct := discountPercentage
		discount := models.ReferralReward{
			UserID:             current.ReferredUserID,
			RewardType:         models.RewardTypeDiscount,
			DiscountPercentage: &pct,
			DurationMonths:     discountDurationMonths,
			AppliedAt:          now,
			ExpiresAt:          now.Add(discountValidity),
			IsActive:           true,
		}
		if err := tx.Create(&discount).Error; err != nil {
			return err
		}

		var referrer models.User
		if err := tx.First(&referrer, current.ReferrerID).Error; err != nil {
			return fmt.Errorf("referrer not found: %w", err)
		}

		newCredits := referrer.ReferralCredits + 1
		if newCredits >= creditsForFreePro {
			// Rolling ratchet: every 3rd valid referral grants free Pro and
			// resets the counter.
			freePro := models.ReferralReward{
				UserID:         current.ReferrerID,
				RewardType:     models.RewardTypeFreePro,
				DurationMonths: freeProDurationMonths,
				AppliedAt:      now,
				ExpiresAt:      now.Add(freeProValidity),
				IsActive:       true,
			}
			if err := tx.Create(&freePro).Error; err != nil {
				return err
			}
			newCredits = 0
		}

		if err := tx.Model(&models.User{}).Where("id = ?", current.ReferrerID).
			Update("referral_credits", newCredits).Error; err != nil {
			return err
		}

		log.Printf("Referral %d validated: user %d referred by user %d", current.ID, current.ReferredUserID, current.ReferrerID)
		return nil
	})
}

// ReferralStats summarises a user's standing in the referral program.
type ReferralStats struct {
	ReferralCode        string                  `json:"referral_code"`
	Credits             int                     `json:"credits"`
	TotalValidReferrals int64                   `json:"total_valid_referrals"`
	ActiveRewards       []models.ReferralReward `json:"active_rewards"`
}

// GetReferralStats returns the user's code, credit counter, valid referral
// count and currently active rewards.
func (s *ReferralService) GetReferralStats(userID uint) (*ReferralStats, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	code, err := s.EnsureReferralCode(userID)
	if err != nil {
		return nil, err
	}

	var validCount int64
	if err := s.db.Model(&models.Referral{}).
		Where("referrer_id = ? AND status = ?", userID, models.ReferralStatusValid).
		Count(&validCount).Error; err != nil {
		return nil, err
	}

	var rewards []models.ReferralReward
	if err := s.db.Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, time.Now()).
		Find(&rewards).Error; err != nil {
		return nil, err
	}

	return &ReferralStats{
		ReferralCode:        code.Code,
		Credits:             user.ReferralCredits,
		TotalValidReferrals: validCount,
		ActiveRewards:       rewards,
	}, nil
}

// GetActiveDiscount returns the user's active discount reward, if any.
func (s *ReferralService) GetActiveDiscount(userID uint) (*models.ReferralReward, error) {
	var reward models.ReferralReward
	err := s.db.Where("user_id = ? AND reward_type = ? AND is_active = ? AND expires_at > ?",
		userID, models.RewardTypeDiscount, true, time.Now()).
		Order("applied_at DESC").
		First(&reward).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reward, nil
}

// GetUserReferrals returns all referrals made by a user
func (s *ReferralService) GetUserReferrals(userID uint) ([]models.Referral, error) {
	var referrals []models.Referral
	if err := s.db.Where("referrer_id = ?", userID).
		Order("created_at DESC").
		Find(&referrals).Error; err != nil {
		return nil, err
	}
	return referrals, nil
}
