package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"careersync/internal/models"
)

// BillingService owns subscriptions and the freemium/Pro gate. Money math
// uses decimals end to end.
type BillingService struct {
	db           *gorm.DB
	referral     *ReferralService
	monthlyPrice decimal.Decimal
}

func NewBillingService(db *gorm.DB, referral *ReferralService, monthlyPriceUSD string) (*BillingService, error) {
	price, err := decimal.NewFromString(monthlyPriceUSD)
	if err != nil {
		return nil, fmt.Errorf("invalid monthly price %q: %w", monthlyPriceUSD, err)
	}
	return &BillingService{db: db, referral: referral, monthlyPrice: price}, nil
}

// CheckProStatus reports whether the user currently has Pro access, either
// through an active subscription or an unexpired free-Pro referral reward.
func (s *BillingService) CheckProStatus(userID uint) (bool, error) {
	now := time.Now()

	var sub models.Subscription
	err := s.db.Where("user_id = ?", userID).First(&sub).Error
	if err == nil {
		if sub.Status == models.SubscriptionStatusActive && sub.CurrentPeriodEnd.After(now) {
			return true, nil
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	var freeProCount int64
	if err := s.db.Model(&models.ReferralReward{}).
		Where("user_id = ? AND reward_type = ? AND is_active = ? AND expires_at > ?",
			userID, models.RewardTypeFreePro, true, now).
		Count(&freeProCount).Error; err != nil {
		return false, err
	}

	return freeProCount > 0, nil
}

// Quote is the price a user would pay for Pro this month.
type Quote struct {
	BasePrice          decimal.Decimal `json:"base_price"`
	DiscountPercentage int             `json:"discount_percentage"`
	FinalPrice         decimal.Decimal `json:"final_price"`
}

// QuoteMonthlyPrice applies the user's active referral discount, if any, to
// the base monthly price.
func (s *BillingService) QuoteMonthlyPrice(userID uint) (*Quote, error) {
	quote := &Quote{
		BasePrice:  s.monthlyPrice,
		FinalPrice: s.monthlyPrice,
	}

	discount, err := s.referral.GetActiveDiscount(userID)
	if err != nil {
		return nil, err
	}
	if discount == nil || discount.DiscountPercentage == nil {
		return quote, nil
	}

	pct := decimal.NewFromInt(int64(*discount.DiscountPercentage))
	factor := decimal.NewFromInt(100).Sub(pct).Div(decimal.NewFromInt(100))
	quote.DiscountPercentage = *discount.DiscountPercentage
	quote.FinalPrice = s.monthlyPrice.Mul(factor).Round(2)
	return quote, nil
}

// UpsertSubscription records a subscription event from the payment
// provider's webhook.
func (s *BillingService) UpsertSubscription(userID uint, providerSubID, providerPriceID, status string, currentPeriodEnd time.Time) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.Where("user_id = ?", userID).First(&sub).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		sub = models.Subscription{
			UserID:                 userID,
			ProviderSubscriptionID: providerSubID,
			ProviderPriceID:        providerPriceID,
			Status:                 status,
			CurrentPeriodEnd:       currentPeriodEnd,
		}

		if discount, derr := s.referral.GetActiveDiscount(userID); derr == nil && discount != nil {
			sub.DiscountPercentage = discount.DiscountPercentage
			expires := discount.ExpiresAt
			sub.DiscountExpiresAt = &expires
		}

		if err := s.db.Create(&sub).Error; err != nil {
			return nil, fmt.Errorf("failed to create subscription: %w", err)
		}
		return &sub, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(&sub).Updates(map[string]interface{}{
		"provider_subscription_id": providerSubID,
		"provider_price_id":        providerPriceID,
		"status":                   status,
		"current_period_end":       currentPeriodEnd,
	}).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateSubscriptionStatus updates a subscription located by its provider
// ID, as delivered by webhooks.
func (s *BillingService) UpdateSubscriptionStatus(providerSubID, status string, currentPeriodEnd time.Time) error {
	result := s.db.Model(&models.Subscription{}).
		Where("provider_subscription_id = ?", providerSubID).
		Updates(map[string]interface{}{
			"status":             status,
			"current_period_end": currentPeriodEnd,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("subscription not found")
	}
	return nil
}

// DeactivateExpiredRewards flips is_active off for rewards past expiry.
func (s *BillingService) DeactivateExpiredRewards() (int64, error) {
	result := s.db.Model(&models.ReferralReward{}).
		Where("is_active = ? AND expires_at <= ?", true, time.Now()).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}
