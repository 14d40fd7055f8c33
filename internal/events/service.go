package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/assembly-hq/assembly/internal/gate"
	"github.com/assembly-hq/assembly/internal/gqlerr"
	"github.com/assembly-hq/assembly/internal/notifications"
	"github.com/assembly-hq/assembly/internal/relay"
)

// Store is the persistence surface the service needs.
type Store interface {
	EventByID(ctx context.Context, id uuid.UUID) (*Event, error)
	EventsByOrganization(ctx context.Context, orgID uuid.UUID, limit int32, cursor *StartKey, inverted bool) ([]Event, error)
	CreateEvent(ctx context.Context, in CreateEventInput, creatorID uuid.UUID) (*Event, error)
	InstanceByID(ctx context.Context, id uuid.UUID) (*Instance, error)
	InstancesOf(ctx context.Context, eventID uuid.UUID, from, to time.Time) ([]Instance, error)
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

// Service applies access rules on top of the event store.
type Service struct {
	store    Store
	orgs     OrganizationChecker
	notifier Notifier
	logger   *slog.Logger
	validate *validator.Validate
}

func NewService(store Store, orgs OrganizationChecker, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		orgs:     orgs,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// SetNotifier enables member notifications for event mutations.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Get returns an event visible to the caller. Visibility requires
// membership in the owning organization.
func (s *Service) Get(ctx context.Context, p *gate.Principal, id uuid.UUID) (*Event, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	ev, err := s.store.EventByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"id"})
	}
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if !gate.CanAccess(p, ev.OrganizationID, gate.LevelMember) {
		return nil, gqlerr.Unauthorized()
	}
	return ev, nil
}

// ListByOrganization pages the organization's events ordered by start time.
// The membership gate runs before any cursor is decoded.
func (s *Service) ListByOrganization(ctx context.Context, p *gate.Principal, orgID uuid.UUID, args relay.PageArgs) (*relay.Connection[Event], error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if !gate.CanAccess(p, orgID, gate.LevelMember) {
		return nil, gqlerr.Unauthorized()
	}
	conn, err := relay.Paginate(ctx, args,
		func(ctx context.Context, limit int32, cursor *StartKey, inverted bool) ([]Event, error) {
			return s.store.EventsByOrganization(ctx, orgID, limit, cursor, inverted)
		},
		func(ev Event) StartKey { return StartKey{StartAt: ev.StartAt, ID: ev.ID} })
	if err != nil {
		return nil, gqlerr.FromPagination(err)
	}
	return conn, nil
}

// Create registers a new event. Requires organization administrator.
func (s *Service) Create(ctx context.Context, p *gate.Principal, in CreateEventInput) (*Event, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, gqlerr.InvalidArgument("Invalid event input.", "input")
	}
	exists, err := s.orgs.OrganizationExists(ctx, in.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("check organization: %w", err)
	}
	if !exists {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "organizationId"})
	}
	if !gate.CanAccess(p, in.OrganizationID, gate.LevelAdmin) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "organizationId"})
	}
	ev, err := s.store.CreateEvent(ctx, in, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	if s.notifier != nil {
		s.notifier.Broadcast(ctx, notifications.Broadcast{
			OrganizationID: ev.OrganizationID,
			Kind:           notifications.KindEventCreated,
			Payload:        map[string]string{"event_id": ev.ID.String(), "name": ev.Name},
			ExcludeUserID:  p.UserID,
		})
	}
	return ev, nil
}

// Instances lists the materialized occurrences of a recurring event inside
// the given window.
func (s *Service) Instances(ctx context.Context, p *gate.Principal, eventID uuid.UUID, from, to time.Time) ([]Instance, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	ev, err := s.store.EventByID(ctx, eventID)
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"eventId"})
	}
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if !gate.CanAccess(p, ev.OrganizationID, gate.LevelMember) {
		return nil, gqlerr.Unauthorized()
	}
	if !to.After(from) {
		return nil, gqlerr.InvalidArgument("Window end must follow window start.", "to")
	}
	insts, err := s.store.InstancesOf(ctx, eventID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load instances: %w", err)
	}
	return insts, nil
}

// Instance returns one occurrence, gated by the owning event's organization.
func (s *Service) Instance(ctx context.Context, p *gate.Principal, id uuid.UUID) (*Instance, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	inst, err := s.store.InstanceByID(ctx, id)
	if errors.Is(err, ErrInstanceNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"id"})
	}
	if err != nil {
		return nil, fmt.Errorf("load instance: %w", err)
	}
	ev, err := s.store.EventByID(ctx, inst.EventID)
	if errors.Is(err, ErrNotFound) {
		// Instances are only written under an existing event, so a
		// dangling reference is corrupted state, not a normal miss.
		s.logger.Error("instance references a missing event",
			"instance_id", inst.ID, "event_id", inst.EventID)
		return nil, gqlerr.Unexpected()
	}
	if err != nil {
		return nil, fmt.Errorf("load event of instance: %w", err)
	}
	if !gate.CanAccess(p, ev.OrganizationID, gate.LevelMember) {
		return nil, gqlerr.Unauthorized()
	}
	return inst, nil
}
