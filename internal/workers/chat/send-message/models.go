// internal/workers/chat/send-message/models.go
package sendmessage

import "mealmatch-workers/internal/models"

type Input struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

type Output struct {
	Message   *models.Message `json:"message"`
	Delivered bool            `json:"delivered"`
}

// newMessagePayload is the realtime event body the receiver's session gets.
type newMessagePayload struct {
	Message *models.Message `json:"message"`
}

const InputSchema = `{
  "type": "object",
  "required": ["senderId", "receiverId", "content"],
  "properties": {
    "senderId":   {"type": "string", "minLength": 1},
    "receiverId": {"type": "string", "minLength": 1},
    "content":    {"type": "string", "minLength": 1}
  }
}`
