// internal/workers/review/send-notification/models.go
package sendnotification

const (
	NotificationSubmitted = "submitted"
	NotificationDecision  = "decision"
)

const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)

type Input struct {
	ApplicationID    string `json:"applicationId"`
	UserEmail        string `json:"userEmail"`
	BusinessName     string `json:"businessName"`
	Status           string `json:"status"`
	NotificationType string `json:"notificationType"`
	Notes            string `json:"notes,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	EmailMessageID string `json:"emailMessageId,omitempty"`
	StaffMessageID string `json:"staffMessageId,omitempty"`
	Status         string `json:"status"`
	SentAt         string `json:"sentAt"`
}

type message struct {
	Subject string
	Body    string
}
