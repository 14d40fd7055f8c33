package tags

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/assembly-hq/assembly/internal/gate"
	"github.com/assembly-hq/assembly/internal/gqlerr"
	"github.com/assembly-hq/assembly/internal/relay"
)

// Store is the persistence surface the service needs.
type Store interface {
	TagByID(ctx context.Context, id uuid.UUID) (*Tag, error)
	TagsByOrganization(ctx context.Context, orgID uuid.UUID, limit int32, cursor *TagKey, inverted bool) ([]Tag, error)
	CreateTag(ctx context.Context, in CreateTagInput, creatorID uuid.UUID) (*Tag, error)
	AssignTag(ctx context.Context, tagID, memberID uuid.UUID) error
	UnassignTag(ctx context.Context, tagID, memberID uuid.UUID) error
	TagsOfMember(ctx context.Context, orgID, memberID uuid.UUID) ([]Tag, error)
}

// Service applies access rules on top of the tag store.
type Service struct {
	store    Store
	validate *validator.Validate
}

func NewService(store Store) *Service {
	return &Service{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Get returns a tag visible to the caller.
func (s *Service) Get(ctx context.Context, p *gate.Principal, id uuid.UUID) (*Tag, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	t, err := s.store.TagByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"id"})
	}
	if err != nil {
		return nil, fmt.Errorf("load tag: %w", err)
	}
	if !gate.CanAccess(p, t.OrganizationID, gate.LevelMember) {
		return nil, gqlerr.Unauthorized()
	}
	return t, nil
}

// ListByOrganization pages the organization's tags by name.
func (s *Service) ListByOrganization(ctx context.Context, p *gate.Principal, orgID uuid.UUID, args relay.PageArgs) (*relay.Connection[Tag], error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if !gate.CanAccess(p, orgID, gate.LevelMember) {
		return nil, gqlerr.Unauthorized()
	}
	conn, err := relay.Paginate(ctx, args,
		func(ctx context.Context, limit int32, cursor *TagKey, inverted bool) ([]Tag, error) {
			return s.store.TagsByOrganization(ctx, orgID, limit, cursor, inverted)
		},
		func(t Tag) TagKey { return TagKey{Name: t.Name, ID: t.ID} })
	if err != nil {
		return nil, gqlerr.FromPagination(err)
	}
	return conn, nil
}

// Create registers a new tag. Requires organization administrator. A
// parent tag must live in the same organization.
func (s *Service) Create(ctx context.Context, p *gate.Principal, in CreateTagInput) (*Tag, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, gqlerr.InvalidArgument("Invalid tag input.", "input")
	}
	if !gate.CanAccess(p, in.OrganizationID, gate.LevelAdmin) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "organizationId"})
	}
	if in.ParentTagID != nil {
		parent, err := s.store.TagByID(ctx, *in.ParentTagID)
		if errors.Is(err, ErrNotFound) {
			return nil, gqlerr.ResourcesNotFound([]string{"input", "parentTagId"})
		}
		if err != nil {
			return nil, fmt.Errorf("load parent tag: %w", err)
		}
		if parent.OrganizationID != in.OrganizationID {
			return nil, gqlerr.InvalidArgument("Parent tag belongs to a different organization.", "input", "parentTagId")
		}
	}
	t, err := s.store.CreateTag(ctx, in, p.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "parentTagId"})
	}
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return t, nil
}

// Assign puts a tag on a member. Requires organization administrator.
func (s *Service) Assign(ctx context.Context, p *gate.Principal, in AssignTagInput) (*Tag, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, gqlerr.InvalidArgument("Invalid assignment input.", "input")
	}
	t, err := s.store.TagByID(ctx, in.TagID)
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "tagId"})
	}
	if err != nil {
		return nil, fmt.Errorf("load tag: %w", err)
	}
	if !gate.CanAccess(p, t.OrganizationID, gate.LevelAdmin) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "tagId"})
	}
	err = s.store.AssignTag(ctx, in.TagID, in.MemberID)
	switch {
	case errors.Is(err, ErrAlreadyAssigned):
		return nil, gqlerr.ForbiddenOnArguments("Member already carries this tag.", []string{"input", "memberId"})
	case errors.Is(err, ErrNotFound):
		return nil, gqlerr.ResourcesNotFound([]string{"input", "memberId"})
	case err != nil:
		return nil, fmt.Errorf("assign tag: %w", err)
	}
	return t, nil
}

// Unassign removes a tag from a member. Requires organization
// administrator.
func (s *Service) Unassign(ctx context.Context, p *gate.Principal, in AssignTagInput) (*Tag, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, gqlerr.InvalidArgument("Invalid assignment input.", "input")
	}
	t, err := s.store.TagByID(ctx, in.TagID)
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "tagId"})
	}
	if err != nil {
		return nil, fmt.Errorf("load tag: %w", err)
	}
	if !gate.CanAccess(p, t.OrganizationID, gate.LevelAdmin) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "tagId"})
	}
	err = s.store.UnassignTag(ctx, in.TagID, in.MemberID)
	if errors.Is(err, ErrAssignmentNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "memberId"})
	}
	if err != nil {
		return nil, fmt.Errorf("unassign tag: %w", err)
	}
	return t, nil
}

// TagsOfMember lists a member's tags in collated name order.
func (s *Service) TagsOfMember(ctx context.Context, p *gate.Principal, orgID, memberID uuid.UUID) ([]Tag, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if !gate.CanAccess(p, orgID, gate.LevelMember) {
		return nil, gqlerr.Unauthorized()
	}
	list, err := s.store.TagsOfMember(ctx, orgID, memberID)
	if err != nil {
		return nil, fmt.Errorf("load tags of member: %w", err)
	}
	SortTags(list)
	return list, nil
}
