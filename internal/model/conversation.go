package model

import (
	"time"
)

// DefaultConversationPriority is assigned before the first calculation runs.
const DefaultConversationPriority = 50

// Conversation represents one external thread/channel/chat, identified by
// (user, channel, external id). Exactly one contact per conversation.
type Conversation struct {
	ID            string    `json:"id"`
	ExternalID    string    `json:"external_id"`
	UserID        string    `json:"user_id"`
	ContactID     string    `json:"contact_id"`
	Channel       Channel   `json:"channel"`
	Title         string    `json:"title"`
	Priority      int       `json:"priority"`
	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Derived fields, populated on detail reads.
	MessageCount int      `json:"message_count,omitempty"`
	LastMessage  *Message `json:"last_message,omitempty"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
	Page          int            `json:"page"`
	Limit         int            `json:"limit"`
}
