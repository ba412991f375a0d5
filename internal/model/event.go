package model

// EventType represents the kind of change notification.
type EventType string

const (
	EventConversationNew     EventType = "conversation:new"
	EventConversationUpdated EventType = "conversation:updated"
	EventMessageNew          EventType = "message:new"
)

// Event is one change notification fanned out to subscribers. Priority is
// set on conversation events, MessageID on message events.
type Event struct {
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Priority       *int      `json:"priority,omitempty"`
	MessageID      string    `json:"message_id,omitempty"`
}
