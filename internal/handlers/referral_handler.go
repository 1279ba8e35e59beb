package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"careersync/internal/auth"
	"careersync/internal/services"
)

type ReferralHandler struct {
	referralService *services.ReferralService
}

func NewReferralHandler(referralService *services.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

// GetReferralCode returns the user's referral code, creating it on first use.
// GET /referrals/code
func (h *ReferralHandler) GetReferralCode(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	code, err := h.referralService.EnsureReferralCode(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referral code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": code.Code,
	})
}

// ValidateCode checks a referral code before signup. Public endpoint so the
// signup form can validate as the user types.
// GET /referrals/validate?code=CAREER-XXXX
func (h *ReferralHandler) ValidateCode(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	validation, err := h.referralService.ValidateCode(code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate code"})
		return
	}

	c.JSON(http.StatusOK, validation)
}

// ApplyCode applies a referral code to the current user after signup.
// POST /referrals/apply
func (h *ReferralHandler) ApplyCode(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Code              string  `json:"code" binding:"required"`
		DeviceFingerprint *string `json:"device_fingerprint"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	referral, err := h.referralService.CreateReferral(userID, req.Code, c.ClientIP(), req.DeviceFingerprint)
	if err != nil {
		if errors.Is(err, services.ErrReferralAbuse) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "referral validation failed"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"referral": referral,
	})
}

// GetReferralStats returns the user's referral standing.
// GET /referrals/stats
func (h *ReferralHandler) GetReferralStats(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	stats, err := h.referralService.GetReferralStats(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetReferrals returns all referrals the user has made.
// GET /referrals
func (h *ReferralHandler) GetReferrals(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	referrals, err := h.referralService.GetUserReferrals(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referrals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referrals": referrals,
		"count":     len(referrals),
	})
}

// GetActiveDiscount returns the user's active discount reward, if any.
// GET /referrals/discount
func (h *ReferralHandler) GetActiveDiscount(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	discount, err := h.referralService.GetActiveDiscount(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get discount"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"discount": discount,
	})
}
