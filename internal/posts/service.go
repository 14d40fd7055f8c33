package posts

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/assembly-hq/assembly/internal/gate"
	"github.com/assembly-hq/assembly/internal/gqlerr"
	"github.com/assembly-hq/assembly/internal/notifications"
	"github.com/assembly-hq/assembly/internal/relay"
)

// Store is the persistence surface the service needs.
type Store interface {
	PostByID(ctx context.Context, id ulid.ULID) (*Post, error)
	PostsByOrganization(ctx context.Context, orgID uuid.UUID, limit int32, cursor *PostKey, inverted bool) ([]Post, error)
	CreatePost(ctx context.Context, in CreatePostInput, creatorID uuid.UUID) (*Post, error)
	DeletePost(ctx context.Context, id ulid.ULID) error
	CreateVote(ctx context.Context, postID ulid.ULID, voterID uuid.UUID, kind VoteType) error
	DeleteVote(ctx context.Context, postID ulid.ULID, voterID uuid.UUID) error
}

// OrganizationChecker reports whether an organization exists.
type OrganizationChecker interface {
	OrganizationExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Notifier fans a broadcast out to the organization's members. Delivery is
// best effort; mutations never fail on it.
type Notifier interface {
	Broadcast(ctx context.Context, b notifications.Broadcast)
}

// Service applies access rules on top of the post store.
type Service struct {
	store    Store
	orgs     OrganizationChecker
	notifier Notifier
	validate *validator.Validate
}

func NewService(store Store, orgs OrganizationChecker) *Service {
	return &Service{
		store:    store,
		orgs:     orgs,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// SetNotifier enables member notifications for post mutations.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Get returns a post visible to the caller.
func (s *Service) Get(ctx context.Context, p *gate.Principal, id ulid.ULID) (*Post, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	post, err := s.store.PostByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"id"})
	}
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	if !gate.CanAccess(p, post.OrganizationID, gate.LevelMember) {
		return nil, gqlerr.Unauthorized()
	}
	return post, nil
}

// ListByOrganization pages the organization's posts newest-first.
func (s *Service) ListByOrganization(ctx context.Context, p *gate.Principal, orgID uuid.UUID, args relay.PageArgs) (*relay.Connection[Post], error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if !gate.CanAccess(p, orgID, gate.LevelMember) {
		return nil, gqlerr.Unauthorized()
	}
	conn, err := relay.Paginate(ctx, args,
		func(ctx context.Context, limit int32, cursor *PostKey, inverted bool) ([]Post, error) {
			return s.store.PostsByOrganization(ctx, orgID, limit, cursor, inverted)
		},
		func(post Post) PostKey { return PostKey{ID: post.ID.String()} })
	if err != nil {
		return nil, gqlerr.FromPagination(err)
	}
	return conn, nil
}

// Create publishes a new post. Any member of the organization may post.
func (s *Service) Create(ctx context.Context, p *gate.Principal, in CreatePostInput) (*Post, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, gqlerr.InvalidArgument("Invalid post input.", "input")
	}
	exists, err := s.orgs.OrganizationExists(ctx, in.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("check organization: %w", err)
	}
	if !exists {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "organizationId"})
	}
	if !gate.CanAccess(p, in.OrganizationID, gate.LevelMember) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "organizationId"})
	}
	post, err := s.store.CreatePost(ctx, in, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	if s.notifier != nil {
		s.notifier.Broadcast(ctx, notifications.Broadcast{
			OrganizationID: post.OrganizationID,
			Kind:           notifications.KindPostCreated,
			Payload:        map[string]string{"post_id": post.ID.String(), "caption": post.Caption},
			ExcludeUserID:  p.UserID,
		})
	}
	return post, nil
}

// Delete removes a post. Allowed for the creator or an organization
// administrator.
func (s *Service) Delete(ctx context.Context, p *gate.Principal, id ulid.ULID) (*Post, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	post, err := s.store.PostByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "id"})
	}
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	if post.CreatorID != p.UserID && !gate.CanAccess(p, post.OrganizationID, gate.LevelAdmin) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "id"})
	}
	if err := s.store.DeletePost(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("delete post: %w", err)
	}
	return post, nil
}

// Vote records the caller's vote on a post. Voting twice is rejected.
func (s *Service) Vote(ctx context.Context, p *gate.Principal, id ulid.ULID, kind VoteType) (*Post, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if !kind.Valid() {
		return nil, gqlerr.InvalidArgument("Unknown vote type.", "input", "type")
	}
	post, err := s.store.PostByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "postId"})
	}
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	if !gate.CanAccess(p, post.OrganizationID, gate.LevelMember) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "postId"})
	}
	err = s.store.CreateVote(ctx, id, p.UserID, kind)
	if errors.Is(err, ErrAlreadyVoted) {
		return nil, gqlerr.ForbiddenOnArguments("You have already voted on this post.", []string{"input", "postId"})
	}
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "postId"})
	}
	if err != nil {
		return nil, fmt.Errorf("record vote: %w", err)
	}
	return s.store.PostByID(ctx, id)
}

// Unvote withdraws the caller's vote.
func (s *Service) Unvote(ctx context.Context, p *gate.Principal, id ulid.ULID) (*Post, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	post, err := s.store.PostByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "postId"})
	}
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	if !gate.CanAccess(p, post.OrganizationID, gate.LevelMember) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "postId"})
	}
	err = s.store.DeleteVote(ctx, id, p.UserID)
	if errors.Is(err, ErrVoteNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "postId"})
	}
	if err != nil {
		return nil, fmt.Errorf("withdraw vote: %w", err)
	}
	return s.store.PostByID(ctx, id)
}
