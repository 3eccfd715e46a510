package models

import "time"

type SwipeDirection string

const (
	SwipeRight SwipeDirection = "right"
	SwipeLeft  SwipeDirection = "left"
)

type Match struct {
	UserID        string    `json:"userId"`
	MatchedUserID string    `json:"matchedUserId"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}
