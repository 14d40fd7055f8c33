// Package agenda manages event agenda folders and agenda items.
//
// Agenda records carry no organization id of their own; authorization
// resolves through the owning event. A record whose chain back to an
// event is broken is treated as corrupted state, not client error.
package agenda

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrFolderNotFound indicates the folder does not exist.
	ErrFolderNotFound = errors.New("agenda: folder not found")
	// ErrItemNotFound indicates the item does not exist.
	ErrItemNotFound = errors.New("agenda: item not found")
)

// Folder groups agenda items within an event.
type Folder struct {
	ID             uuid.UUID  `json:"id"`
	EventID        uuid.UUID  `json:"event_id"`
	ParentFolderID *uuid.UUID `json:"parent_folder_id,omitempty"`
	Name           string     `json:"name"`
	IsItemFolder   bool       `json:"is_item_folder"`
	CreatorID      *uuid.UUID `json:"creator_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Item is a single agenda entry inside an item folder.
type Item struct {
	ID              uuid.UUID  `json:"id"`
	FolderID        uuid.UUID  `json:"folder_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DurationMinutes int32      `json:"duration_minutes"`
	Position        int32      `json:"position"`
	CreatorID       *uuid.UUID `json:"creator_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateFolderInput carries the fields for creating a folder.
type CreateFolderInput struct {
	EventID        uuid.UUID `validate:"required"`
	ParentFolderID *uuid.UUID
	Name           string `validate:"required,max=256"`
	IsItemFolder   bool
}

// CreateItemInput carries the fields for creating an agenda item.
type CreateItemInput struct {
	FolderID        uuid.UUID `validate:"required"`
	Title           string    `validate:"required,max=256"`
	Description     string    `validate:"max=2048"`
	DurationMinutes int32     `validate:"gte=0,lte=1440"`
}
