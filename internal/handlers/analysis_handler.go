package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"careersync/internal/auth"
	"careersync/internal/services"
	"careersync/internal/storage"
)

type AnalysisHandler struct {
	analysisService  *services.AnalysisService
	referralService  *services.ReferralService
	rateLimitService *services.RateLimitService
	storage          *storage.Client
}

func NewAnalysisHandler(analysisService *services.AnalysisService, referralService *services.ReferralService, rateLimitService *services.RateLimitService, store *storage.Client) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService:  analysisService,
		referralService:  referralService,
		rateLimitService: rateLimitService,
		storage:          store,
	}
}

// CreateAnalysis queues a CV for analysis. The per-IP cooldown is checked
// first; inside the window the request gets a 429 with the seconds left.
// The content hash is computed server-side from the extracted text.
// POST /analyses
func (h *AnalysisHandler) CreateAnalysis(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		FileName      string  `json:"file_name" binding:"required"`
		FileKey       string  `json:"file_key" binding:"required"`
		ExtractedText string  `json:"extracted_text" binding:"required"`
		UserLocation  *string `json:"user_location"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gate, err := h.rateLimitService.CheckScanAllowed(c.ClientIP())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check rate limit"})
		return
	}
	if !gate.Allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":             "please wait before scanning again",
			"seconds_remaining": gate.SecondsRemaining,
		})
		return
	}

	result, err := h.analysisService.CreateAnalysis(userID, req.FileName, req.FileKey, req.ExtractedText, req.UserLocation)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create analysis"})
		return
	}

	// A cache hit completes immediately, so the referral gate fires here
	// instead of in the worker.
	if result.Cached {
		if err := h.referralService.MarkCVScanCompleted(userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update referral progress"})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"analysis": result.Analysis,
		"cached":   result.Cached,
	})
}

// ListAnalyses returns the user's analyses, newest first.
// GET /analyses
func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	analyses, err := h.analysisService.GetUserAnalyses(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get analyses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analyses": analyses,
		"count":    len(analyses),
	})
}

// GetAnalysis returns a single analysis. Clients poll this while the worker
// walks the record through the progress states.
// GET /analyses/:id
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid analysis id"})
		return
	}

	analysis, err := h.analysisService.GetAnalysis(uint(id), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analysis": analysis,
	})
}

// GetDownloadURL issues a presigned download link for an analysis's stored
// CV file, enforcing ownership through the analysis lookup.
// GET /analyses/:id/download
func (h *AnalysisHandler) GetDownloadURL(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid analysis id"})
		return
	}

	analysis, err := h.analysisService.GetAnalysis(uint(id), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
		return
	}

	url, err := h.storage.GetDownloadURL(c.Request.Context(), analysis.FileKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate download link"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"download_url": url,
	})
}
