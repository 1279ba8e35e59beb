package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"careersync/internal/auth"
	"careersync/internal/services"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService     *services.AuthService
	referralService *services.ReferralService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService, referralService *services.ReferralService) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		referralService: referralService,
	}
}

// Register creates an account. A referral code may be supplied at signup;
// if the code cannot be applied the whole signup fails so the client can
// surface the reason.
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email             string  `json:"email" binding:"required"`
		Name              string  `json:"name" binding:"required"`
		Password          string  `json:"password" binding:"required"`
		Location          *string `json:"location"`
		ReferralCode      string  `json:"referral_code"`
		DeviceFingerprint *string `json:"device_fingerprint"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(req.Email, req.Name, req.Password, req.Location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ReferralCode != "" {
		_, err := h.referralService.CreateReferral(user.ID, req.ReferralCode, c.ClientIP(), req.DeviceFingerprint)
		if err != nil {
			if errors.Is(err, services.ErrReferralAbuse) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "referral validation failed"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	token, err := auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  user,
	})
}

// Login authenticates with email and password.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// GetMe returns the currently authenticated user's profile
// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// UpdateProfile patches the user's name and location.
// PATCH /auth/me
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Location *string `json:"location"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.UpdateProfile(userID, req.Name, req.Location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}
