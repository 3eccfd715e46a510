package models

type NotificationType string

const (
	NotificationNewMatch   NotificationType = "new_match"
	NotificationNewMessage NotificationType = "new_message"
)

const (
	ChannelRealtime = "realtime"
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
)

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
	StatusSkipped  = "skipped"
)

type Notification struct {
	ID          string                 `json:"id"`
	RecipientID string                 `json:"recipientId"`
	Type        NotificationType       `json:"type"`
	Channel     string                 `json:"channel"`
	Status      string                 `json:"status"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	SentAt      string                 `json:"sentAt,omitempty"`
}
