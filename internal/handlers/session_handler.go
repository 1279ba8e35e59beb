package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careersync/internal/auth"
	"careersync/internal/services"
)

type SessionHandler struct {
	sessionService *services.SessionService
}

func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Ping records session activity. The client calls this periodically; each
// ping accrues at most 60 seconds regardless of claimed elapsed time.
// POST /sessions/ping
func (h *SessionHandler) Ping(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	session, err := h.sessionService.TrackSession(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to track session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": session,
	})
}

// GetTotalTime returns the user's accumulated session time in seconds.
// GET /sessions/total
func (h *SessionHandler) GetTotalTime(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	total, err := h.sessionService.TotalSessionTime(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get session time"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_seconds": total,
	})
}
