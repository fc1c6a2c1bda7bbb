package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/reduce-go/internal/app"
	"github.com/yourusername/reduce-go/internal/domain"
	"github.com/yourusername/reduce-go/pkg/logger"
	"go.uber.org/zap"
)

// DecisionHandler handles duplicate classification requests
type DecisionHandler struct {
	classifier *app.Classifier
	stream     *DecisionStream
	journal    *logger.MultiLogger
	logger     *zap.Logger
}

// NewDecisionHandler creates a new decision handler. journal may be nil.
func NewDecisionHandler(classifier *app.Classifier, stream *DecisionStream, journal *logger.MultiLogger, logger *zap.Logger) *DecisionHandler {
	return &DecisionHandler{
		classifier: classifier,
		stream:     stream,
		journal:    journal,
		logger:     logger,
	}
}

// ProcessDownload handles POST /process_download
func (h *DecisionHandler) ProcessDownload(c *gin.Context) {
	var req domain.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: " + err.Error()})
		return
	}

	record, err := app.BuildRecord(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decision, err := h.classifier.Classify(c.Request.Context(), record)
	if err != nil {
		h.logger.Error("Failed to classify download", zap.String("url", record.URL), zap.Error(err))
		if h.journal != nil {
			h.journal.LogAppError("classification failed",
				zap.String("url", record.URL),
				zap.Error(err))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record download"})
		return
	}

	if h.journal != nil {
		h.journal.LogDecision("download classified",
			zap.Any("request_id", req.ID),
			zap.String("url", record.URL),
			zap.String("filename", record.Filename),
			zap.String("partial_hash", domain.Deref(record.PartialHash)),
			zap.Bool("duplicate", decision.Duplicate),
			zap.String("tier", string(decision.Tier)),
			zap.String("device_name", record.DeviceName))
	}

	h.stream.Publish(domain.DecisionEvent{
		Time:        time.Now(),
		RequestID:   req.ID,
		URL:         record.URL,
		Filename:    record.Filename,
		PartialHash: domain.Deref(record.PartialHash),
		Duplicate:   decision.Duplicate,
		Tier:        decision.Tier,
		Action:      decision.Action(),
		DeviceName:  record.DeviceName,
	})

	c.JSON(http.StatusOK, domain.DecisionResponse{Action: actionPtr(decision.Action())})
}

// DeleteRecord handles POST /delete_record
func (h *DecisionHandler) DeleteRecord(c *gin.Context) {
	var req domain.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PartialHash == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "partial_hash_verify is required"})
		return
	}

	deleted, err := h.classifier.Forget(c.Request.Context(), req.PartialHash)
	if err != nil {
		if h.journal != nil {
			h.journal.LogAppError("delete failed", zap.String("partial_hash", req.PartialHash), zap.Error(err))
		}
		h.logger.Error("Failed to delete record", zap.String("partial_hash", req.PartialHash), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete record"})
		return
	}

	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"status": "not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func actionPtr(a domain.Action) *domain.Action {
	return &a
}
