package model

import (
	"time"
)

// User is an end user of the platform. Each user owns their own contacts
// and conversations.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contact is a person a user communicates with, scoped to that user. The
// same email under two users yields two contacts. Its priority is a static
// base signal assigned at creation.
type Contact struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Channel   Channel   `json:"channel"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserRequest is the request to create a new user.
type CreateUserRequest struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// DefaultContactPriority is assigned to a contact on first sight.
const DefaultContactPriority = 50
