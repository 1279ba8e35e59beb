package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careersync/internal/auth"
	"careersync/internal/storage"
)

type UploadHandler struct {
	storage *storage.Client
}

func NewUploadHandler(store *storage.Client) *UploadHandler {
	return &UploadHandler{storage: store}
}

// GenerateUploadURL issues a presigned PUT URL for a CV file. The client
// uploads directly to object storage and passes the returned file key when
// requesting an analysis.
// POST /uploads
func (h *UploadHandler) GenerateUploadURL(c *gin.Context) {
	_, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		FileName string `json:"file_name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.storage.GenerateUploadURL(c.Request.Context(), req.FileName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate upload link"})
		return
	}

	c.JSON(http.StatusOK, ticket)
}
