package organizations

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/assembly-hq/assembly/internal/gate"
	"github.com/assembly-hq/assembly/internal/gqlerr"
	"github.com/assembly-hq/assembly/internal/notifications"
	"github.com/assembly-hq/assembly/internal/relay"
)

// Store is the persistence surface the service needs; *Repository satisfies
// it.
type Store interface {
	OrganizationByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	Organizations(ctx context.Context, limit int32, cursor *NameKey, inverted bool) ([]Organization, error)
	CreateOrganization(ctx context.Context, org *Organization) (*Organization, error)
	Members(ctx context.Context, orgID uuid.UUID, limit int32, cursor *MemberKey, inverted bool) ([]Membership, error)
	CreateMembership(ctx context.Context, m *Membership) (*Membership, error)
	DeleteMembership(ctx context.Context, orgID, memberID uuid.UUID) error
}

// Invalidator drops cached membership state after a mutation. The redis
// MembershipCache satisfies it.
type Invalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, uuid.UUID) {}

// Notifier fans a broadcast out to the organization's members. Delivery is
// best effort; mutations never fail on it.
type Notifier interface {
	Broadcast(ctx context.Context, b notifications.Broadcast)
}

// Service wraps organization business rules.
type Service struct {
	store       Store
	invalidator Invalidator
	notifier    Notifier
	validate    *validator.Validate
}

// NewService constructs a new Service. invalidator may be nil.
func NewService(store Store, invalidator Invalidator) *Service {
	if invalidator == nil {
		invalidator = noopInvalidator{}
	}
	return &Service{store: store, invalidator: invalidator, validate: validator.New()}
}

// SetNotifier enables member notifications for membership mutations.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Get returns one organization. Any authenticated user may look up an
// organization by id.
func (s *Service) Get(ctx context.Context, p *gate.Principal, id uuid.UUID) (*Organization, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	org, err := s.store.OrganizationByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, gqlerr.ResourcesNotFound([]string{"id"})
		}
		return nil, err
	}
	return org, nil
}

// List pages through organizations ordered by name.
func (s *Service) List(ctx context.Context, p *gate.Principal, args relay.PageArgs) (*relay.Connection[Organization], error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	conn, err := relay.Paginate(ctx, args, s.store.Organizations, func(org Organization) NameKey {
		return NameKey{Name: org.Name}
	})
	if err != nil {
		return nil, gqlerr.FromPagination(err)
	}
	return conn, nil
}

// Create registers a new organization and makes the creator its first
// administrator member. Global administrators only.
func (s *Service) Create(ctx context.Context, p *gate.Principal, input CreateOrganizationInput) (*Organization, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if !p.IsGlobalAdministrator() {
		return nil, gqlerr.Unauthorized()
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, gqlerr.InvalidArgument(err.Error(), "input")
	}
	creator := p.UserID
	org, err := s.store.CreateOrganization(ctx, &Organization{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		CountryCode: input.CountryCode,
		CreatorID:   &creator,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.store.CreateMembership(ctx, &Membership{
		OrganizationID: org.ID,
		MemberID:       creator,
		Role:           gate.RoleAdministrator,
	}); err != nil && !errors.Is(err, ErrAlreadyMember) {
		return nil, err
	}
	s.invalidator.Invalidate(ctx, creator)
	return org, nil
}

// Members pages through an organization's memberships. The gate runs before
// the base query is built: only members (or global administrators) can
// enumerate an organization's members.
func (s *Service) Members(ctx context.Context, p *gate.Principal, orgID uuid.UUID, args relay.PageArgs) (*relay.Connection[Membership], error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if !gate.CanAccess(p, orgID, gate.LevelMember) {
		return nil, gqlerr.Unauthorized()
	}
	conn, err := relay.Paginate(ctx, args,
		func(ctx context.Context, limit int32, cursor *MemberKey, inverted bool) ([]Membership, error) {
			return s.store.Members(ctx, orgID, limit, cursor, inverted)
		},
		func(m Membership) MemberKey {
			return MemberKey{CreatedAt: m.CreatedAt, MemberID: m.MemberID}
		})
	if err != nil {
		return nil, gqlerr.FromPagination(err)
	}
	return conn, nil
}

// CreateMembership adds a user to an organization. Requires organization
// administrator (or global administrator) privileges; the denial is tied to
// the organization the input references.
func (s *Service) CreateMembership(ctx context.Context, p *gate.Principal, input MembershipInput) (*Membership, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, gqlerr.InvalidArgument(err.Error(), "input")
	}
	if _, err := s.store.OrganizationByID(ctx, input.OrganizationID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, gqlerr.ResourcesNotFound([]string{"input", "organizationId"})
		}
		return nil, err
	}
	if !gate.CanAccess(p, input.OrganizationID, gate.LevelAdmin) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "organizationId"})
	}
	m, err := s.store.CreateMembership(ctx, &Membership{
		OrganizationID: input.OrganizationID,
		MemberID:       input.MemberID,
		Role:           input.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrMemberNotFound):
			return nil, gqlerr.ResourcesNotFound([]string{"input", "memberId"})
		case errors.Is(err, ErrAlreadyMember):
			return nil, gqlerr.ForbiddenOnArguments(
				"This user is already a member of the organization.",
				[]string{"input", "memberId"})
		}
		return nil, err
	}
	s.invalidator.Invalidate(ctx, input.MemberID)
	if s.notifier != nil {
		s.notifier.Broadcast(ctx, notifications.Broadcast{
			OrganizationID: input.OrganizationID,
			Kind:           notifications.KindMembershipAdded,
			Payload:        map[string]string{"member_id": input.MemberID.String()},
			ExcludeUserID:  p.UserID,
		})
	}
	return m, nil
}

// DeleteMembership removes a user from an organization. Organization
// administrators can remove anyone; a member can remove themselves.
func (s *Service) DeleteMembership(ctx context.Context, p *gate.Principal, input MembershipInput) error {
	if p == nil {
		return gqlerr.Unauthenticated()
	}
	selfLeave := p.UserID == input.MemberID
	if !selfLeave && !gate.CanAccess(p, input.OrganizationID, gate.LevelAdmin) {
		return gqlerr.UnauthorizedOnArguments([]string{"input", "organizationId"})
	}
	if err := s.store.DeleteMembership(ctx, input.OrganizationID, input.MemberID); err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return gqlerr.ResourcesNotFound([]string{"input", "memberId"})
		}
		return err
	}
	s.invalidator.Invalidate(ctx, input.MemberID)
	return nil
}
