package model

import (
	"time"
)

// Message is one ingested message. Immutable once created; its external id
// is the global dedup key. The owning contact is reached via the
// conversation, never stored on the message itself.
type Message struct {
	ID             string         `json:"id"`
	ExternalID     string         `json:"external_id"`
	ConversationID string         `json:"conversation_id"`
	Channel        Channel        `json:"channel"`
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Sender carries the channel-specific identity fields of an incoming
// message's author. Which fields are required depends on the channel.
type Sender struct {
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
}

// IngestRequest is the inbound payload for POST /messages/{channel}.
// "body" and "content" are accepted interchangeably; per-channel framing
// differs only cosmetically.
type IngestRequest struct {
	UserID                 string         `json:"userId"`
	ExternalMessageID      string         `json:"externalMessageId"`
	ExternalConversationID string         `json:"externalConversationId"`
	From                   Sender         `json:"from"`
	Content                string         `json:"content,omitempty"`
	Body                   string         `json:"body,omitempty"`
	ReceivedAt             *time.Time     `json:"receivedAt,omitempty"`
	Metadata               map[string]any `json:"metadata,omitempty"`
}

// Text returns the message text regardless of which field carried it.
func (r *IngestRequest) Text() string {
	if r.Content != "" {
		return r.Content
	}
	return r.Body
}

// IngestResult is returned after a message is accepted.
type IngestResult struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
	ContactID      string `json:"contactId"`
	Priority       int    `json:"priority"`
}

// ListMessagesResponse is the response for listing a conversation's messages.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}
