package advertisements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/assembly-hq/assembly/internal/gate"
	"github.com/assembly-hq/assembly/internal/gqlerr"
	"github.com/assembly-hq/assembly/internal/relay"
)

// Store is the persistence surface the service needs.
type Store interface {
	AdvertisementByID(ctx context.Context, id uuid.UUID) (*Advertisement, error)
	AdvertisementsByOrganization(ctx context.Context, orgID uuid.UUID, activeAt *time.Time, limit int32, cursor *AdKey, inverted bool) ([]Advertisement, error)
	CreateAdvertisement(ctx context.Context, in CreateAdvertisementInput, creatorID uuid.UUID) (*Advertisement, error)
	DeleteAdvertisement(ctx context.Context, id uuid.UUID) error
}

// Service applies access rules on top of the advertisement store.
// Organization administrators see every ad; regular members see only ads
// whose date window is currently open.
type Service struct {
	store    Store
	now      func() time.Time
	validate *validator.Validate
}

func NewService(store Store) *Service {
	return &Service{
		store:    store,
		now:      time.Now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Get returns an advertisement. Regular members cannot see ads outside
// their window; for them an inactive ad does not exist.
func (s *Service) Get(ctx context.Context, p *gate.Principal, id uuid.UUID) (*Advertisement, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	ad, err := s.store.AdvertisementByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"id"})
	}
	if err != nil {
		return nil, fmt.Errorf("load advertisement: %w", err)
	}
	if !gate.CanAccess(p, ad.OrganizationID, gate.LevelMember) {
		return nil, gqlerr.Unauthorized()
	}
	if !gate.CanAccess(p, ad.OrganizationID, gate.LevelAdmin) && !ad.ActiveAt(s.now()) {
		return nil, gqlerr.ResourcesNotFound([]string{"id"})
	}
	return ad, nil
}

// ListByOrganization pages the organization's advertisements by start
// time. Administrators get the full set including drafts and expired ads.
func (s *Service) ListByOrganization(ctx context.Context, p *gate.Principal, orgID uuid.UUID, args relay.PageArgs) (*relay.Connection[Advertisement], error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if !gate.CanAccess(p, orgID, gate.LevelMember) {
		return nil, gqlerr.Unauthorized()
	}
	var activeAt *time.Time
	if !gate.CanAccess(p, orgID, gate.LevelAdmin) {
		now := s.now()
		activeAt = &now
	}
	conn, err := relay.Paginate(ctx, args,
		func(ctx context.Context, limit int32, cursor *AdKey, inverted bool) ([]Advertisement, error) {
			return s.store.AdvertisementsByOrganization(ctx, orgID, activeAt, limit, cursor, inverted)
		},
		func(a Advertisement) AdKey { return AdKey{StartAt: a.StartAt, ID: a.ID} })
	if err != nil {
		return nil, gqlerr.FromPagination(err)
	}
	return conn, nil
}

// Create registers a new advertisement. Requires organization
// administrator.
func (s *Service) Create(ctx context.Context, p *gate.Principal, in CreateAdvertisementInput) (*Advertisement, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, gqlerr.InvalidArgument("Invalid advertisement input.", "input")
	}
	if !gate.CanAccess(p, in.OrganizationID, gate.LevelAdmin) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "organizationId"})
	}
	ad, err := s.store.CreateAdvertisement(ctx, in, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("create advertisement: %w", err)
	}
	return ad, nil
}

// Delete removes an advertisement. Requires organization administrator.
func (s *Service) Delete(ctx context.Context, p *gate.Principal, id uuid.UUID) (*Advertisement, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	ad, err := s.store.AdvertisementByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "id"})
	}
	if err != nil {
		return nil, fmt.Errorf("load advertisement: %w", err)
	}
	if !gate.CanAccess(p, ad.OrganizationID, gate.LevelAdmin) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "id"})
	}
	if err := s.store.DeleteAdvertisement(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("delete advertisement: %w", err)
	}
	return ad, nil
}
