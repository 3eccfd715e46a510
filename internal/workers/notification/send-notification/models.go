// internal/workers/notification/send-notification/models.go
package sendnotification

import "mealmatch-workers/internal/models"

type Input struct {
	RecipientID      string                  `json:"recipientId"`
	NotificationType models.NotificationType `json:"notificationType"`
	// Payload is forwarded untouched as the realtime event body.
	Payload interface{} `json:"payload,omitempty"`
	// Metadata fills the email and SMS templates.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string            `json:"notificationId"`
	Status         string            `json:"status"`   // "sent", "failed", "disabled"
	Channels       map[string]string `json:"channels"` // channel -> status
	SentAt         string            `json:"sentAt"`   // ISO 8601
}

type template struct {
	Subject string
	Body    string
	// SMS goes out only for types that opt in.
	SMS bool
}

var templates = map[models.NotificationType]template{
	models.NotificationNewMatch: {
		Subject: "You have a new match on MealMatch",
		Body:    "Hi {{recipientName}}, you matched with {{name}}. Say hello and plan something to cook together.",
		SMS:     true,
	},
	models.NotificationNewMessage: {
		Subject: "New message from {{senderName}}",
		Body:    "Hi {{recipientName}}, {{senderName}} wrote: {{content}}",
	},
}
