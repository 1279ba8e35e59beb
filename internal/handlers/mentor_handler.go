package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careersync/internal/auth"
	"careersync/internal/services"
)

type MentorHandler struct {
	mentorService  *services.MentorService
	billingService *services.BillingService
}

func NewMentorHandler(mentorService *services.MentorService, billingService *services.BillingService) *MentorHandler {
	return &MentorHandler{
		mentorService:  mentorService,
		billingService: billingService,
	}
}

// Chat relays a message to the AI career mentor. Pro feature.
// POST /mentor/chat
func (h *MentorHandler) Chat(c *gin.Context) {
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
	if !isPro {
		c.JSON(http.StatusForbidden, gin.H{"error": "AI mentor requires a Pro subscription"})
		return
	}

	var req struct {
		Message string `json:"message" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.mentorService.Chat(c.Request.Context(), req.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get mentor response"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reply": reply,
	})
}
