package actionitems

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/assembly-hq/assembly/internal/events"
	"github.com/assembly-hq/assembly/internal/gate"
	"github.com/assembly-hq/assembly/internal/gqlerr"
	"github.com/assembly-hq/assembly/internal/notifications"
	"github.com/assembly-hq/assembly/internal/overlay"
	"github.com/assembly-hq/assembly/internal/relay"
)

// Store is the persistence surface the service needs.
type Store interface {
	ItemByID(ctx context.Context, id uuid.UUID) (*ActionItem, error)
	ItemsByEvent(ctx context.Context, eventID uuid.UUID) ([]ActionItem, error)
	ExceptionsByInstance(ctx context.Context, instanceID uuid.UUID) ([]InstanceException, error)
	CreateItem(ctx context.Context, orgID uuid.UUID, in CreateItemInput, creatorID uuid.UUID) (*ActionItem, error)
	UpdateItem(ctx context.Context, in UpdateItemInput) (*ActionItem, error)
	UpsertException(ctx context.Context, ex InstanceException) error
	CategoryByID(ctx context.Context, id uuid.UUID) (*Category, error)
	CategoriesByOrganization(ctx context.Context, orgID uuid.UUID, limit int32, cursor *CategoryKey, inverted bool) ([]Category, error)
	CreateCategory(ctx context.Context, in CreateCategoryInput) (*Category, error)
}

// EventSource resolves events and instances for authorization and
// exception targeting. The event repository satisfies it.
type EventSource interface {
	EventByID(ctx context.Context, id uuid.UUID) (*events.Event, error)
	InstanceByID(ctx context.Context, id uuid.UUID) (*events.Instance, error)
}

// EffectiveItem is an action item as seen on a particular occurrence:
// either the template itself or the template with an exception applied.
type EffectiveItem struct {
	ActionItem
	IsInstanceException bool
}

// Notifier fans a broadcast out to the organization's members. Delivery is
// best effort; mutations never fail on it.
type Notifier interface {
	Broadcast(ctx context.Context, b notifications.Broadcast)
}

// Service applies access rules, exception overlays, and pagination on top
// of the action item store.
type Service struct {
	store    Store
	events   EventSource
	notifier Notifier
	validate *validator.Validate
}

func NewService(store Store, events EventSource) *Service {
	return &Service{
		store:    store,
		events:   events,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// SetNotifier enables member notifications for action item updates.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

func itemLess(a, b EffectiveItem) bool {
	if !a.AssignedAt.Equal(b.AssignedAt) {
		return a.AssignedAt.Before(b.AssignedAt)
	}
	return a.ID.String() < b.ID.String()
}

// ItemsForEvent pages the effective action items of an event. With an
// instance argument, exception records for that occurrence are merged in
// first: suppressed items vanish from the page entirely and overridden
// items carry their adjusted fields. Pagination runs over the merged set
// so page sizes stay exact.
func (s *Service) ItemsForEvent(ctx context.Context, p *gate.Principal, eventID uuid.UUID, instanceID *uuid.UUID, args relay.PageArgs) (*relay.Connection[EffectiveItem], error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	ev, err := s.events.EventByID(ctx, eventID)
	if errors.Is(err, events.ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"eventId"})
	}
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if !gate.CanAccess(p, ev.OrganizationID, gate.LevelMember) {
		return nil, gqlerr.Unauthorized()
	}

	var patches []InstanceException
	if instanceID != nil {
		inst, err := s.events.InstanceByID(ctx, *instanceID)
		if errors.Is(err, events.ErrInstanceNotFound) {
			return nil, gqlerr.ResourcesNotFound([]string{"instanceId"})
		}
		if err != nil {
			return nil, fmt.Errorf("load instance: %w", err)
		}
		if inst.EventID != eventID {
			return nil, gqlerr.InvalidArgument("Instance does not belong to the event.", "instanceId")
		}
		if patches, err = s.store.ExceptionsByInstance(ctx, *instanceID); err != nil {
			return nil, fmt.Errorf("load exceptions: %w", err)
		}
	}

	base, err := s.store.ItemsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load action items: %w", err)
	}
	merged := overlay.Merge(base, func(it ActionItem) string { return it.ID.String() }, patches)
	effective := make([]EffectiveItem, 0, len(merged))
	for _, res := range merged {
		effective = append(effective, EffectiveItem{ActionItem: res.Entity, IsInstanceException: res.FromException})
	}
	// Overrides may move assigned_at, so the merged set is re-sorted
	// before the cursor filter runs.
	sort.Slice(effective, func(i, j int) bool { return itemLess(effective[i], effective[j]) })

	conn, err := relay.Paginate(ctx, args,
		func(_ context.Context, limit int32, cursor *ItemKey, inverted bool) ([]EffectiveItem, error) {
			return pageItems(effective, limit, cursor, inverted), nil
		},
		func(it EffectiveItem) ItemKey { return ItemKey{AssignedAt: it.AssignedAt, ID: it.ID} })
	if err != nil {
		return nil, gqlerr.FromPagination(err)
	}
	return conn, nil
}

// pageItems keyset-filters a sorted in-memory slice the way the SQL
// connections filter their tables.
func pageItems(sorted []EffectiveItem, limit int32, cursor *ItemKey, inverted bool) []EffectiveItem {
	var out []EffectiveItem
	emit := func(it EffectiveItem) bool {
		if cursor != nil {
			pivot := EffectiveItem{ActionItem: ActionItem{AssignedAt: cursor.AssignedAt, ID: cursor.ID}}
			past := itemLess(pivot, it)
			if inverted {
				past = itemLess(it, pivot)
			}
			if !past {
				return true
			}
		}
		out = append(out, it)
		return int32(len(out)) < limit
	}
	if inverted {
		for i := len(sorted) - 1; i >= 0; i-- {
			if !emit(sorted[i]) {
				break
			}
		}
	} else {
		for _, it := range sorted {
			if !emit(it) {
				break
			}
		}
	}
	return out
}

// CreateItem registers a new action item template on an event. Requires
// organization administrator in the event's organization.
func (s *Service) CreateItem(ctx context.Context, p *gate.Principal, in CreateItemInput) (*EffectiveItem, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, gqlerr.InvalidArgument("Invalid action item input.", "input")
	}
	ev, err := s.events.EventByID(ctx, in.EventID)
	if errors.Is(err, events.ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "eventId"})
	}
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if !gate.CanAccess(p, ev.OrganizationID, gate.LevelAdmin) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "eventId"})
	}
	if in.CategoryID != nil {
		cat, err := s.store.CategoryByID(ctx, *in.CategoryID)
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, gqlerr.ResourcesNotFound([]string{"input", "categoryId"})
		}
		if err != nil {
			return nil, fmt.Errorf("load category: %w", err)
		}
		if cat.OrganizationID != ev.OrganizationID {
			return nil, gqlerr.ForbiddenOnArguments(
				"Category belongs to a different organization.",
				[]string{"input", "categoryId"})
		}
	}
	if in.AssignedAt.IsZero() {
		in.AssignedAt = time.Now().UTC()
	}
	it, err := s.store.CreateItem(ctx, ev.OrganizationID, in, p.UserID)
	if errors.Is(err, ErrCategoryNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "categoryId"})
	}
	if err != nil {
		return nil, fmt.Errorf("create action item: %w", err)
	}
	return &EffectiveItem{ActionItem: *it}, nil
}

// UpdateItem applies a partial update. With InstanceID set, the change is
// recorded as an exception on that occurrence, leaving the template and
// every other occurrence untouched.
func (s *Service) UpdateItem(ctx context.Context, p *gate.Principal, in UpdateItemInput) (*EffectiveItem, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, gqlerr.InvalidArgument("Invalid action item input.", "input")
	}
	it, err := s.store.ItemByID(ctx, in.ID)
	if errors.Is(err, ErrNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "id"})
	}
	if err != nil {
		return nil, fmt.Errorf("load action item: %w", err)
	}

	isAssignee := it.AssigneeID != nil && *it.AssigneeID == p.UserID
	completionOnly := in.IsCompleted != nil && in.PreCompletionNotes == nil &&
		in.AssigneeID == nil && in.CategoryID == nil && in.IsDeleted == nil
	if !gate.CanAccess(p, it.OrganizationID, gate.LevelAdmin) && !(isAssignee && completionOnly) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "id"})
	}

	if in.InstanceID == nil {
		if in.IsDeleted != nil {
			return nil, gqlerr.InvalidArgument("Deletion applies to a single occurrence.", "input", "isDeleted")
		}
		updated, err := s.store.UpdateItem(ctx, in)
		if errors.Is(err, ErrNotFound) {
			return nil, gqlerr.ResourcesNotFound([]string{"input", "id"})
		}
		if err != nil {
			return nil, fmt.Errorf("update action item: %w", err)
		}
		eff := EffectiveItem{ActionItem: *updated}
		s.notifyUpdated(ctx, p, &eff)
		return &eff, nil
	}

	inst, err := s.events.InstanceByID(ctx, *in.InstanceID)
	if errors.Is(err, events.ErrInstanceNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "instanceId"})
	}
	if err != nil {
		return nil, fmt.Errorf("load instance: %w", err)
	}
	if inst.EventID != it.EventID {
		return nil, gqlerr.InvalidArgument("Instance does not belong to the item's event.", "input", "instanceId")
	}

	ex := InstanceException{
		ActionItemID:        it.ID,
		InstanceID:          *in.InstanceID,
		IsCompleted:         in.IsCompleted,
		PreCompletionNotes:  in.PreCompletionNotes,
		PostCompletionNotes: in.PostCompletionNotes,
		AssigneeID:          in.AssigneeID,
		CategoryID:          in.CategoryID,
	}
	if in.IsDeleted != nil {
		ex.IsDeleted = *in.IsDeleted
	}
	if err := s.store.UpsertException(ctx, ex); err != nil {
		return nil, fmt.Errorf("record exception: %w", err)
	}
	eff := EffectiveItem{ActionItem: ex.Apply(*it), IsInstanceException: true}
	s.notifyUpdated(ctx, p, &eff)
	return &eff, nil
}

func (s *Service) notifyUpdated(ctx context.Context, p *gate.Principal, it *EffectiveItem) {
	if s.notifier == nil {
		return
	}
	s.notifier.Broadcast(ctx, notifications.Broadcast{
		OrganizationID: it.OrganizationID,
		Kind:           notifications.KindActionItemUpdated,
		Payload:        map[string]string{"action_item_id": it.ID.String(), "event_id": it.EventID.String()},
		ExcludeUserID:  p.UserID,
	})
}

// Categories pages the organization's action item categories by name.
func (s *Service) Categories(ctx context.Context, p *gate.Principal, orgID uuid.UUID, args relay.PageArgs) (*relay.Connection[Category], error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if !gate.CanAccess(p, orgID, gate.LevelMember) {
		return nil, gqlerr.Unauthorized()
	}
	conn, err := relay.Paginate(ctx, args,
		func(ctx context.Context, limit int32, cursor *CategoryKey, inverted bool) ([]Category, error) {
			return s.store.CategoriesByOrganization(ctx, orgID, limit, cursor, inverted)
		},
		func(c Category) CategoryKey { return CategoryKey{Name: c.Name} })
	if err != nil {
		return nil, gqlerr.FromPagination(err)
	}
	return conn, nil
}

// CreateCategory registers a new category. Requires organization
// administrator.
func (s *Service) CreateCategory(ctx context.Context, p *gate.Principal, in CreateCategoryInput) (*Category, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, gqlerr.InvalidArgument("Invalid category input.", "input")
	}
	if !gate.CanAccess(p, in.OrganizationID, gate.LevelAdmin) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "organizationId"})
	}
	cat, err := s.store.CreateCategory(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return cat, nil
}
