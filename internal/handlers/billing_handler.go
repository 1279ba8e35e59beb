package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"careersync/internal/auth"
	"careersync/internal/services"
)

type BillingHandler struct {
	billingService *services.BillingService
}

func NewBillingHandler(billingService *services.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// GetProStatus reports whether the user currently has Pro access.
// GET /billing/pro-status
func (h *BillingHandler) GetProStatus(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	isPro, err := h.billingService.CheckProStatus(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check pro status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"is_pro": isPro,
	})
}

// GetQuote returns the monthly Pro price with the user's active referral
// discount applied.
// GET /billing/quote
func (h *BillingHandler) GetQuote(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	quote, err := h.billingService.QuoteMonthlyPrice(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get quote"})
		return
	}

	c.JSON(http.StatusOK, quote)
}

// Webhook receives subscription lifecycle events from the payment provider.
// POST /billing/webhook
func (h *BillingHandler) Webhook(c *gin.Context) {
	var event struct {
		Type                   string    `json:"type" binding:"required"`
		UserID                 uint      `json:"user_id"`
		ProviderSubscriptionID string    `json:"provider_subscription_id" binding:"required"`
		ProviderPriceID        string    `json:"provider_price_id"`
		Status                 string    `json:"status" binding:"required"`
		CurrentPeriodEnd       time.Time `json:"current_period_end" binding:"required"`
	}

	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch event.Type {
	case "subscription.created":
		if event.UserID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}
		sub, err := h.billingService.UpsertSubscription(event.UserID, event.ProviderSubscriptionID, event.ProviderPriceID, event.Status, event.CurrentPeriodEnd)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record subscription"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"subscription": sub})

	case "subscription.updated", "subscription.canceled":
		if err := h.billingService.UpdateSubscriptionStatus(event.ProviderSubscriptionID, event.Status, event.CurrentPeriodEnd); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true})

	default:
		// Unknown events are acknowledged so the provider stops retrying.
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
