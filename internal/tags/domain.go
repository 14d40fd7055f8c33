// Package tags manages organization tags and their assignment to members.
package tags

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	// ErrNotFound indicates the tag does not exist.
	ErrNotFound = errors.New("tags: not found")
	// ErrAlreadyAssigned indicates the member already carries the tag.
	ErrAlreadyAssigned = errors.New("tags: already assigned")
	// ErrAssignmentNotFound indicates the member does not carry the tag.
	ErrAssignmentNotFound = errors.New("tags: assignment not found")
)

// Tag labels members within an organization.
type Tag struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Name           string     `json:"name"`
	ParentTagID    *uuid.UUID `json:"parent_tag_id,omitempty"`
	CreatorID      *uuid.UUID `json:"creator_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TagKey is the sort key of the tags connection.
type TagKey struct {
	Name string    `json:"name"`
	ID   uuid.UUID `json:"id"`
}

// CreateTagInput carries the fields for creating a tag.
type CreateTagInput struct {
	OrganizationID uuid.UUID `validate:"required"`
	Name           string    `validate:"required,max=256"`
	ParentTagID    *uuid.UUID
}

// AssignTagInput carries the fields for tagging a member.
type AssignTagInput struct {
	TagID    uuid.UUID `validate:"required"`
	MemberID uuid.UUID `validate:"required"`
}

// SortNames orders tag names with Unicode collation so that accented and
// case-variant names land where a reader expects them rather than in raw
// byte order.
func SortNames(names []string) {
	c := collate.New(language.Und, collate.Loose)
	c.SortStrings(names)
}

// SortTags orders tags by collated name, breaking ties on id.
func SortTags(list []Tag) {
	c := collate.New(language.Und, collate.Loose)
	for i := 1; i < len(list); i++ {
		for j := i; j > 0; j-- {
			cmp := c.CompareString(list[j].Name, list[j-1].Name)
			if cmp > 0 || (cmp == 0 && list[j].ID.String() >= list[j-1].ID.String()) {
				break
			}
			list[j], list[j-1] = list[j-1], list[j]
		}
	}
}
