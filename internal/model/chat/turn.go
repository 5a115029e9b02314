package chat

// TurnStatus tracks one user-input/assistant-output cycle.
type TurnStatus string

const (
	TurnPending   TurnStatus = "pending"
	TurnRunning   TurnStatus = "running"
	TurnCompleted TurnStatus = "completed"
	TurnFailed    TurnStatus = "failed"
)

// Turn is the result of a single completed request/response cycle.
// Citations lists source file ids attached to the answer, in answer order.
type Turn struct {
	ConversationID string     `json:"conversationId"`
	Input          string     `json:"input"`
	Status         TurnStatus `json:"status"`
	Output         string     `json:"output"`
	Citations      []string   `json:"citations,omitempty"`
}

// HistoryEntry is one message of an upstream conversation transcript.
type HistoryEntry struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}
