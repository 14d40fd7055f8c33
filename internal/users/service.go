package users

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/assembly-hq/assembly/internal/auth"
	"github.com/assembly-hq/assembly/internal/gate"
	"github.com/assembly-hq/assembly/internal/gqlerr"
)

// Store is the persistence surface the service needs; *Repository satisfies
// it.
type Store interface {
	UserByID(ctx context.Context, id uuid.UUID) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user *User) (*User, error)
	UpdateUser(ctx context.Context, user *User) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// Service wraps user account business rules.
type Service struct {
	store    Store
	validate *validator.Validate
}

// NewService constructs a new Service.
func NewService(store Store) *Service {
	return &Service{store: store, validate: validator.New()}
}

// Get returns a user account. A user can read their own account; anything
// else requires the global administrator role.
func (s *Service) Get(ctx context.Context, p *gate.Principal, id uuid.UUID) (*User, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if p.UserID != id && !p.IsGlobalAdministrator() {
		return nil, gqlerr.Unauthorized()
	}
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, gqlerr.ResourcesNotFound([]string{"id"})
		}
		return nil, err
	}
	return user, nil
}

// Resolve loads a user referenced from another entity's audit fields.
// Access is the owning resolver's responsibility; a missing row resolves
// to nil since the reference may outlive the account.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.store.UserByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Current returns the principal's own account. A missing row despite a
// verified token is treated as unauthenticated, matching the middleware.
func (s *Service) Current(ctx context.Context, p *gate.Principal) (*User, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	user, err := s.store.UserByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, gqlerr.Unauthenticated()
		}
		return nil, err
	}
	return user, nil
}

// Create registers a new user account. Global administrators only.
func (s *Service) Create(ctx context.Context, p *gate.Principal, input CreateUserInput) (*User, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if !p.IsGlobalAdministrator() {
		return nil, gqlerr.Unauthorized()
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, gqlerr.InvalidArgument(err.Error(), "input")
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.store.CreateUser(ctx, &User{
		ID:           uuid.New(),
		Name:         input.Name,
		EmailAddress: input.EmailAddress,
		PasswordHash: hash,
		Role:         input.Role,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, gqlerr.ForbiddenOnArguments(
				"This email address is already registered.",
				[]string{"input", "emailAddress"})
		}
		return nil, err
	}
	return user, nil
}

// Update modifies a user account. Users may update themselves; changing
// another account or any role requires the global administrator role.
func (s *Service) Update(ctx context.Context, p *gate.Principal, input UpdateUserInput) (*User, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if p.UserID != input.ID && !p.IsGlobalAdministrator() {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "id"})
	}
	if input.Role != nil && !p.IsGlobalAdministrator() {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "role"})
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, gqlerr.InvalidArgument(err.Error(), "input")
	}

	user, err := s.store.UserByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, gqlerr.ResourcesNotFound([]string{"input", "id"})
		}
		return nil, err
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.EmailAddress != nil {
		user.EmailAddress = *input.EmailAddress
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if input.Role != nil {
		user.Role = *input.Role
	}

	updated, err := s.store.UpdateUser(ctx, user)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, gqlerr.ForbiddenOnArguments(
				"This email address is already registered.",
				[]string{"input", "emailAddress"})
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a user account. Global administrators only, and an
// administrator cannot delete their own account.
func (s *Service) Delete(ctx context.Context, p *gate.Principal, id uuid.UUID) (*User, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if !p.IsGlobalAdministrator() {
		return nil, gqlerr.Unauthorized()
	}
	if p.UserID == id {
		return nil, gqlerr.ForbiddenOnArguments(
			"You cannot delete your own account.",
			[]string{"input", "id"})
	}
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, gqlerr.ResourcesNotFound([]string{"input", "id"})
		}
		return nil, err
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, gqlerr.ResourcesNotFound([]string{"input", "id"})
		}
		return nil, err
	}
	return user, nil
}
