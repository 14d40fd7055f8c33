// Package users manages user accounts and their global roles.
package users

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/assembly-hq/assembly/internal/gate"
)

var (
	// ErrNotFound indicates the user does not exist.
	ErrNotFound = errors.New("users: not found")
	// ErrDuplicateEmail indicates the email address is already registered.
	ErrDuplicateEmail = errors.New("users: email already registered")
)

// User represents a user account.
type User struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	EmailAddress    string    `json:"email_address"`
	PasswordHash    string    `json:"-"`
	Role            gate.Role `json:"role"`
	IsEmailVerified bool      `json:"is_email_verified"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateUserInput carries the fields for creating a user account.
type CreateUserInput struct {
	Name         string `validate:"required,max=200"`
	EmailAddress string `validate:"required,email"`
	Password     string `validate:"required,min=8,max=128"`
	Role         gate.Role
}

// UpdateUserInput carries the mutable fields of a user account. Nil means
// leave unchanged.
type UpdateUserInput struct {
	ID           uuid.UUID `validate:"required"`
	Name         *string   `validate:"omitempty,max=200"`
	EmailAddress *string   `validate:"omitempty,email"`
	Password     *string   `validate:"omitempty,min=8,max=128"`
	Role         *gate.Role
}
