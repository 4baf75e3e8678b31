package notifications

import "github.com/azure/yt-comment-analyzer/internal/models"

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	SendReport(report *models.AnalysisReport) error
	SendAlert(alert *models.Alert) error
}
