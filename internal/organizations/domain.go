// Package organizations manages organizations and their memberships.
package organizations

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/assembly-hq/assembly/internal/gate"
)

var (
	// ErrNotFound indicates the organization does not exist.
	ErrNotFound = errors.New("organizations: not found")
	// ErrMembershipNotFound indicates no membership links the user to the
	// organization.
	ErrMembershipNotFound = errors.New("organizations: membership not found")
	// ErrMemberNotFound indicates the referenced user does not exist.
	ErrMemberNotFound = errors.New("organizations: member not found")
	// ErrAlreadyMember indicates the user already has a membership.
	ErrAlreadyMember = errors.New("organizations: already a member")
)

// Organization represents a community organization.
type Organization struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CountryCode string     `json:"country_code"`
	CreatorID   *uuid.UUID `json:"creator_id,omitempty"`
	UpdaterID   *uuid.UUID `json:"updater_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Membership links a user to an organization with a role.
type Membership struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	MemberID       uuid.UUID `json:"member_id"`
	Role           gate.Role `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// NameKey is the sort key of the organizations connection.
type NameKey struct {
	Name string `json:"name"`
}

// MemberKey is the sort key of the members connection.
type MemberKey struct {
	CreatedAt time.Time `json:"createdAt"`
	MemberID  uuid.UUID `json:"memberId"`
}

// CreateOrganizationInput carries the fields for creating an organization.
type CreateOrganizationInput struct {
	Name        string `validate:"required,max=256"`
	Description string `validate:"max=2048"`
	CountryCode string `validate:"omitempty,iso3166_1_alpha2"`
}

// MembershipInput identifies a membership for creation or deletion.
type MembershipInput struct {
	OrganizationID uuid.UUID `validate:"required"`
	MemberID       uuid.UUID `validate:"required"`
	Role           gate.Role
}
