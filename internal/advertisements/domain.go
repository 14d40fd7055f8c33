// Package advertisements manages organization advertisements with active
// date windows.
package advertisements

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates the advertisement does not exist.
var ErrNotFound = errors.New("advertisements: not found")

// AdType is the closed set of advertisement placements.
type AdType string

const (
	TypeBanner AdType = "banner"
	TypeMenu   AdType = "menu"
	TypePopup  AdType = "popup"
)

// ParseAdType converts a storage type string to an AdType.
func ParseAdType(s string) (AdType, error) {
	switch AdType(strings.ToLower(s)) {
	case TypeBanner:
		return TypeBanner, nil
	case TypeMenu:
		return TypeMenu, nil
	case TypePopup:
		return TypePopup, nil
	default:
		return "", errors.New("advertisements: unknown type " + s)
	}
}

// Advertisement is a promotional placement inside an organization,
// visible to regular members only while its date window is open.
type Advertisement struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Type           AdType     `json:"type"`
	StartAt        time.Time  `json:"start_at"`
	EndAt          time.Time  `json:"end_at"`
	CreatorID      *uuid.UUID `json:"creator_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ActiveAt reports whether the ad's window covers t.
func (a *Advertisement) ActiveAt(t time.Time) bool {
	return !t.Before(a.StartAt) && !t.After(a.EndAt)
}

// AdKey is the sort key of the advertisements connection.
type AdKey struct {
	StartAt time.Time `json:"startAt"`
	ID      uuid.UUID `json:"id"`
}

// CreateAdvertisementInput carries the fields for creating an ad.
type CreateAdvertisementInput struct {
	OrganizationID uuid.UUID `validate:"required"`
	Name           string    `validate:"required,max=256"`
	Description    string    `validate:"max=2048"`
	Type           AdType    `validate:"required,oneof=banner menu popup"`
	StartAt        time.Time `validate:"required"`
	EndAt          time.Time `validate:"required,gtfield=StartAt"`
}
