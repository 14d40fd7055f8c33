// Package actionitems manages action item categories, action items, and the
// per-instance exception records that adjust recurring-event occurrences.
package actionitems

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates the action item does not exist.
	ErrNotFound = errors.New("actionitems: not found")
	// ErrCategoryNotFound indicates the category does not exist.
	ErrCategoryNotFound = errors.New("actionitems: category not found")
)

// Category groups action items within an organization.
type Category struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	IsDisabled     bool      `json:"is_disabled"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CategoryKey is the sort key of the categories connection.
type CategoryKey struct {
	Name string `json:"name"`
}

// ActionItem is a unit of work attached to an event series. For recurring
// events the row acts as a template; exceptions adjust single occurrences.
type ActionItem struct {
	ID                  uuid.UUID  `json:"id"`
	OrganizationID      uuid.UUID  `json:"organization_id"`
	EventID             uuid.UUID  `json:"event_id"`
	CategoryID          *uuid.UUID `json:"category_id,omitempty"`
	AssigneeID          *uuid.UUID `json:"assignee_id,omitempty"`
	IsCompleted         bool       `json:"is_completed"`
	PreCompletionNotes  string     `json:"pre_completion_notes"`
	PostCompletionNotes *string    `json:"post_completion_notes,omitempty"`
	AssignedAt          time.Time  `json:"assigned_at"`
	CreatorID           *uuid.UUID `json:"creator_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ItemKey is the sort key of the action items connection.
type ItemKey struct {
	AssignedAt time.Time `json:"assignedAt"`
	ID         uuid.UUID `json:"id"`
}

// InstanceException overrides or suppresses one action item on one
// occurrence of a recurring event. Nil fields leave the template value
// untouched.
type InstanceException struct {
	ActionItemID        uuid.UUID  `json:"action_item_id"`
	InstanceID          uuid.UUID  `json:"instance_id"`
	IsDeleted           bool       `json:"is_deleted"`
	IsCompleted         *bool      `json:"is_completed,omitempty"`
	PreCompletionNotes  *string    `json:"pre_completion_notes,omitempty"`
	PostCompletionNotes *string    `json:"post_completion_notes,omitempty"`
	AssigneeID          *uuid.UUID `json:"assignee_id,omitempty"`
	CategoryID          *uuid.UUID `json:"category_id,omitempty"`
	AssignedAt          *time.Time `json:"assigned_at,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (e InstanceException) TargetID() string { return e.ActionItemID.String() }

func (e InstanceException) Suppressed() bool { return e.IsDeleted }

// Apply lays the exception's populated fields over the template.
func (e InstanceException) Apply(item ActionItem) ActionItem {
	if e.IsCompleted != nil {
		item.IsCompleted = *e.IsCompleted
	}
	if e.PreCompletionNotes != nil {
		item.PreCompletionNotes = *e.PreCompletionNotes
	}
	if e.PostCompletionNotes != nil {
		item.PostCompletionNotes = e.PostCompletionNotes
	}
	if e.AssigneeID != nil {
		item.AssigneeID = e.AssigneeID
	}
	if e.CategoryID != nil {
		item.CategoryID = e.CategoryID
	}
	if e.AssignedAt != nil {
		item.AssignedAt = *e.AssignedAt
	}
	return item
}

// CreateCategoryInput carries the fields for creating a category.
type CreateCategoryInput struct {
	OrganizationID uuid.UUID `validate:"required"`
	Name           string    `validate:"required,max=256"`
}

// CreateItemInput carries the fields for creating an action item.
type CreateItemInput struct {
	EventID            uuid.UUID `validate:"required"`
	CategoryID         *uuid.UUID
	AssigneeID         *uuid.UUID
	PreCompletionNotes string `validate:"max=2048"`
	AssignedAt         time.Time
}

// UpdateItemInput carries a partial update. When InstanceID is set the
// update lands in an exception record instead of the template.
type UpdateItemInput struct {
	ID                  uuid.UUID `validate:"required"`
	InstanceID          *uuid.UUID
	IsCompleted         *bool
	PreCompletionNotes  *string `validate:"omitempty,max=2048"`
	PostCompletionNotes *string `validate:"omitempty,max=2048"`
	AssigneeID          *uuid.UUID
	CategoryID          *uuid.UUID
	IsDeleted           *bool
}
