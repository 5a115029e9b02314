package chat

import "time"

// Session binds an opaque client token to an upstream conversation thread.
// Sessions live in process memory only and do not survive restarts.
type Session struct {
	ID             string    `json:"sessionId"`
	ConversationID string    `json:"conversationId"`
	CreatedAt      time.Time `json:"createdAt"`
}
