package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/yourusername/reduce-go/internal/domain"
	"go.uber.org/zap"
)

// NotificationService sends desktop notifications about download decisions
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	var cmd *exec.Cmd
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, appleScriptEscape(message), appleScriptEscape(title))
		cmd = exec.Command("osascript", "-e", script)
	case "notify-send":
		cmd = exec.Command("notify-send", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err := cmd.Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))

	return nil
}

// NotifyDuplicatePaused reports a download held back as a duplicate
func (n *NotificationService) NotifyDuplicatePaused(url string) {
	n.Send("Duplicate Download", fmt.Sprintf("Already downloaded: %s", truncateString(url, 40)))
}

// NotifyDownloadCancelled reports a download stopped because no decision was available
func (n *NotificationService) NotifyDownloadCancelled(url string) {
	n.Send("Download Cancelled", fmt.Sprintf("No decision for: %s", truncateString(url, 40)))
}

// NotifyDownloadCompleted reports a finished and tagged download
func (n *NotificationService) NotifyDownloadCompleted(path string) {
	n.Send("Download Completed", fmt.Sprintf("Saved: %s", truncateString(path, 40)))
}

// NotifyDownloadFailed reports a tool failure
func (n *NotificationService) NotifyDownloadFailed(url string, err error) {
	n.Send("Download Failed", fmt.Sprintf("Failed: %s (%v)", truncateString(url, 30), err))
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func appleScriptEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
