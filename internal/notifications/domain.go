// Package notifications manages per-user notification feeds. A single
// notification fans out to recipient rows in one transaction and is then
// handed to the background dispatcher.
package notifications

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates the notification does not exist for the user.
var ErrNotFound = errors.New("notifications: not found")

// Kind is the closed set of notification kinds.
type Kind string

const (
	KindEventCreated      Kind = "event_created"
	KindPostCreated       Kind = "post_created"
	KindActionItemUpdated Kind = "action_item_updated"
	KindMembershipAdded   Kind = "membership_added"
	KindChatMessage       Kind = "chat_message"
)

// Notification is one broadcast record. Recipient state (read marks)
// lives on the per-user rows, not here.
type Notification struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	Kind           Kind            `json:"kind"`
	Payload        json.RawMessage `json:"payload"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Delivery is a notification as seen by one recipient.
type Delivery struct {
	Notification
	RecipientID uuid.UUID  `json:"recipient_id"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}

// DeliveryKey is the sort key of the notifications connection. Forward
// iteration walks newest-first.
type DeliveryKey struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        uuid.UUID `json:"id"`
}

// Broadcast carries the fields for fanning a notification out to an
// organization's members.
type Broadcast struct {
	OrganizationID uuid.UUID
	Kind           Kind
	Payload        any
	// ExcludeUserID drops the actor from the audience so users do not get
	// notified about their own writes.
	ExcludeUserID uuid.UUID
}
