package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/reduce-go/internal/domain"
	"go.uber.org/zap"
)

// DownloadHandler serves the recorded downloads
type DownloadHandler struct {
	repo   domain.DownloadRepository
	logger *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(repo domain.DownloadRepository, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		repo:   repo,
		logger: logger,
	}
}

// ListDownloads handles GET /get_all_downloads
func (h *DownloadHandler) ListDownloads(c *gin.Context) {
	records, err := h.repo.FindAll()
	if err != nil {
		h.logger.Error("Failed to list downloads", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, records)
}

// Stats returns a handler for GET /<status>_download_stats
func (h *DownloadHandler) Stats(status domain.DownloadStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := h.repo.GetStats(status)
		if err != nil {
			h.logger.Error("Failed to get stats", zap.String("status", string(status)), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			string(status) + "_count":                stats.Count,
			string(status) + "_total_content_length": stats.TotalContentLength,
		})
	}
}
