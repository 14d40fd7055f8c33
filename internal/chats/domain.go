// Package chats manages organization chats and their threaded messages.
package chats

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates the chat does not exist.
	ErrNotFound = errors.New("chats: not found")
	// ErrMessageNotFound indicates the message does not exist.
	ErrMessageNotFound = errors.New("chats: message not found")
)

// Chat is a conversation channel inside an organization.
type Chat struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	CreatorID      *uuid.UUID `json:"creator_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Message is a single chat message, optionally replying to a parent
// message in the same chat.
type Message struct {
	ID              uuid.UUID  `json:"id"`
	ChatID          uuid.UUID  `json:"chat_id"`
	ParentMessageID *uuid.UUID `json:"parent_message_id,omitempty"`
	CreatorID       uuid.UUID  `json:"creator_id"`
	Body            string     `json:"body"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ChatMembership enrolls an organization member into one chat. Reads and
// writes on a chat require enrollment unless the caller administers the
// owning organization.
type ChatMembership struct {
	ChatID    uuid.UUID `json:"chat_id"`
	MemberID  uuid.UUID `json:"member_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatKey is the sort key of the chats connection.
type ChatKey struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        uuid.UUID `json:"id"`
}

// MessageKey is the sort key of the messages connection.
type MessageKey struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        uuid.UUID `json:"id"`
}

// CreateChatInput carries the fields for creating a chat.
type CreateChatInput struct {
	OrganizationID uuid.UUID `validate:"required"`
	Name           string    `validate:"required,max=256"`
	Description    string    `validate:"max=2048"`
}

// CreateMessageInput carries the fields for sending a message.
type CreateMessageInput struct {
	ChatID          uuid.UUID `validate:"required"`
	ParentMessageID *uuid.UUID
	Body            string `validate:"required,max=4096"`
}
