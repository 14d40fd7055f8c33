package agenda

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/assembly-hq/assembly/internal/events"
	"github.com/assembly-hq/assembly/internal/gate"
	"github.com/assembly-hq/assembly/internal/gqlerr"
)

// Store is the persistence surface the service needs.
type Store interface {
	FolderByID(ctx context.Context, id uuid.UUID) (*Folder, error)
	FoldersByEvent(ctx context.Context, eventID uuid.UUID) ([]Folder, error)
	CreateFolder(ctx context.Context, in CreateFolderInput, creatorID uuid.UUID) (*Folder, error)
	DeleteFolder(ctx context.Context, id uuid.UUID) error
	ItemByID(ctx context.Context, id uuid.UUID) (*Item, error)
	ItemsByFolder(ctx context.Context, folderID uuid.UUID) ([]Item, error)
	CreateItem(ctx context.Context, in CreateItemInput, creatorID uuid.UUID) (*Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

// EventSource resolves the owning event for authorization.
type EventSource interface {
	EventByID(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

// Service applies access rules on top of the agenda store.
type Service struct {
	store    Store
	events   EventSource
	logger   *slog.Logger
	validate *validator.Validate
}

func NewService(store Store, events EventSource, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		events:   events,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// organizationOfEvent resolves an event's organization. A missing event
// here means a dangling reference, which is corrupted state: the caller
// gets an unexpected error, never a not-found.
func (s *Service) organizationOfEvent(ctx context.Context, eventID uuid.UUID, via string, recordID uuid.UUID) (uuid.UUID, error) {
	ev, err := s.events.EventByID(ctx, eventID)
	if errors.Is(err, events.ErrNotFound) {
		s.logger.Error("agenda record references a missing event",
			"record", via, "record_id", recordID, "event_id", eventID)
		return uuid.Nil, gqlerr.Unexpected()
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("load event of %s: %w", via, err)
	}
	return ev.OrganizationID, nil
}

// Folders lists an event's agenda folders.
func (s *Service) Folders(ctx context.Context, p *gate.Principal, eventID uuid.UUID) ([]Folder, error) {
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
	folders, err := s.store.FoldersByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load folders: %w", err)
	}
	return folders, nil
}

// Folder returns one folder, gated through its event's organization.
func (s *Service) Folder(ctx context.Context, p *gate.Principal, id uuid.UUID) (*Folder, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	f, err := s.store.FolderByID(ctx, id)
	if errors.Is(err, ErrFolderNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"id"})
	}
	if err != nil {
		return nil, fmt.Errorf("load folder: %w", err)
	}
	orgID, err := s.organizationOfEvent(ctx, f.EventID, "folder", f.ID)
	if err != nil {
		return nil, err
	}
	if !gate.CanAccess(p, orgID, gate.LevelMember) {
		return nil, gqlerr.Unauthorized()
	}
	return f, nil
}

// CreateFolder adds a folder to an event. Requires organization
// administrator. A parent folder must belong to the same event.
func (s *Service) CreateFolder(ctx context.Context, p *gate.Principal, in CreateFolderInput) (*Folder, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, gqlerr.InvalidArgument("Invalid folder input.", "input")
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
	if in.ParentFolderID != nil {
		parent, err := s.store.FolderByID(ctx, *in.ParentFolderID)
		if errors.Is(err, ErrFolderNotFound) {
			return nil, gqlerr.ResourcesNotFound([]string{"input", "parentFolderId"})
		}
		if err != nil {
			return nil, fmt.Errorf("load parent folder: %w", err)
		}
		if parent.EventID != in.EventID {
			return nil, gqlerr.InvalidArgument("Parent folder belongs to a different event.", "input", "parentFolderId")
		}
		if parent.IsItemFolder {
			return nil, gqlerr.InvalidArgument("Item folders cannot contain folders.", "input", "parentFolderId")
		}
	}
	f, err := s.store.CreateFolder(ctx, in, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	return f, nil
}

// DeleteFolder removes a folder and, via the schema's cascade, its
// subfolders and items. Requires organization administrator.
func (s *Service) DeleteFolder(ctx context.Context, p *gate.Principal, id uuid.UUID) (*Folder, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	f, err := s.store.FolderByID(ctx, id)
	if errors.Is(err, ErrFolderNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "id"})
	}
	if err != nil {
		return nil, fmt.Errorf("load folder: %w", err)
	}
	orgID, err := s.organizationOfEvent(ctx, f.EventID, "folder", f.ID)
	if err != nil {
		return nil, err
	}
	if !gate.CanAccess(p, orgID, gate.LevelAdmin) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "id"})
	}
	if err := s.store.DeleteFolder(ctx, id); err != nil && !errors.Is(err, ErrFolderNotFound) {
		return nil, fmt.Errorf("delete folder: %w", err)
	}
	return f, nil
}

// Items lists a folder's agenda items in position order.
func (s *Service) Items(ctx context.Context, p *gate.Principal, folderID uuid.UUID) ([]Item, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	f, err := s.store.FolderByID(ctx, folderID)
	if errors.Is(err, ErrFolderNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"folderId"})
	}
	if err != nil {
		return nil, fmt.Errorf("load folder: %w", err)
	}
	orgID, err := s.organizationOfEvent(ctx, f.EventID, "folder", f.ID)
	if err != nil {
		return nil, err
	}
	if !gate.CanAccess(p, orgID, gate.LevelMember) {
		return nil, gqlerr.Unauthorized()
	}
	items, err := s.store.ItemsByFolder(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	return items, nil
}

// CreateItem adds an agenda item to an item folder. Requires organization
// administrator, resolved transitively through folder and event.
func (s *Service) CreateItem(ctx context.Context, p *gate.Principal, in CreateItemInput) (*Item, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, gqlerr.InvalidArgument("Invalid agenda item input.", "input")
	}
	f, err := s.store.FolderByID(ctx, in.FolderID)
	if errors.Is(err, ErrFolderNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "folderId"})
	}
	if err != nil {
		return nil, fmt.Errorf("load folder: %w", err)
	}
	if !f.IsItemFolder {
		return nil, gqlerr.InvalidArgument("Folder does not accept agenda items.", "input", "folderId")
	}
	orgID, err := s.organizationOfEvent(ctx, f.EventID, "folder", f.ID)
	if err != nil {
		return nil, err
	}
	if !gate.CanAccess(p, orgID, gate.LevelAdmin) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "folderId"})
	}
	it, err := s.store.CreateItem(ctx, in, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("create agenda item: %w", err)
	}
	return it, nil
}

// DeleteItem removes an agenda item. Requires organization administrator,
// resolved transitively through folder and event.
func (s *Service) DeleteItem(ctx context.Context, p *gate.Principal, id uuid.UUID) (*Item, error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	it, err := s.store.ItemByID(ctx, id)
	if errors.Is(err, ErrItemNotFound) {
		return nil, gqlerr.ResourcesNotFound([]string{"input", "id"})
	}
	if err != nil {
		return nil, fmt.Errorf("load agenda item: %w", err)
	}
	f, err := s.store.FolderByID(ctx, it.FolderID)
	if errors.Is(err, ErrFolderNotFound) {
		s.logger.Error("agenda item references a missing folder",
			"item_id", it.ID, "folder_id", it.FolderID)
		return nil, gqlerr.Unexpected()
	}
	if err != nil {
		return nil, fmt.Errorf("load folder: %w", err)
	}
	orgID, err := s.organizationOfEvent(ctx, f.EventID, "folder", f.ID)
	if err != nil {
		return nil, err
	}
	if !gate.CanAccess(p, orgID, gate.LevelAdmin) {
		return nil, gqlerr.UnauthorizedOnArguments([]string{"input", "id"})
	}
	if err := s.store.DeleteItem(ctx, id); err != nil && !errors.Is(err, ErrItemNotFound) {
		return nil, fmt.Errorf("delete agenda item: %w", err)
	}
	return it, nil
}
