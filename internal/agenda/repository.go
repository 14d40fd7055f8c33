package agenda

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists agenda folders and items in Postgres.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger}
}

const folderColumns = `id, event_id, parent_folder_id, name, is_item_folder, creator_id, created_at, updated_at`

func scanFolder(row pgx.Row) (*Folder, error) {
	var f Folder
	err := row.Scan(&f.ID, &f.EventID, &f.ParentFolderID, &f.Name, &f.IsItemFolder,
		&f.CreatorID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FolderByID fetches a single folder.
func (r *Repository) FolderByID(ctx context.Context, id uuid.UUID) (*Folder, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+folderColumns+` FROM agenda_folders WHERE id = $1`, id)
	f, err := scanFolder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFolderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query folder %s: %w", id, err)
	}
	return f, nil
}

// FoldersByEvent lists an event's folders in name order.
func (r *Repository) FoldersByEvent(ctx context.Context, eventID uuid.UUID) ([]Folder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+folderColumns+` FROM agenda_folders WHERE event_id = $1 ORDER BY name ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query folders of event %s: %w", eventID, err)
	}
	defer rows.Close()

	var out []Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// CreateFolder inserts a new folder.
func (r *Repository) CreateFolder(ctx context.Context, in CreateFolderInput, creatorID uuid.UUID) (*Folder, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO agenda_folders (id, event_id, parent_folder_id, name, is_item_folder, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+folderColumns,
		uuid.New(), in.EventID, in.ParentFolderID, in.Name, in.IsItemFolder, creatorID)
	f, err := scanFolder(row)
	if err != nil {
		return nil, fmt.Errorf("insert folder: %w", err)
	}
	return f, nil
}

// DeleteFolder removes a folder; subfolders and items go with it via
// ON DELETE CASCADE.
func (r *Repository) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM agenda_folders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete folder %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFolderNotFound
	}
	return nil
}

const itemColumns = `id, folder_id, title, description, duration_minutes, position, creator_id, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.FolderID, &it.Title, &it.Description, &it.DurationMinutes,
		&it.Position, &it.CreatorID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// ItemByID fetches a single agenda item.
func (r *Repository) ItemByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM agenda_items WHERE id = $1`, id)
	it, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query agenda item %s: %w", id, err)
	}
	return it, nil
}

// ItemsByFolder lists a folder's items in position order.
func (r *Repository) ItemsByFolder(ctx context.Context, folderID uuid.UUID) ([]Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM agenda_items WHERE folder_id = $1 ORDER BY position ASC, id ASC`, folderID)
	if err != nil {
		return nil, fmt.Errorf("query items of folder %s: %w", folderID, err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agenda item: %w", err)
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

// CreateItem inserts a new agenda item at the end of the folder.
func (r *Repository) CreateItem(ctx context.Context, in CreateItemInput, creatorID uuid.UUID) (*Item, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO agenda_items (id, folder_id, title, description, duration_minutes, position, creator_id)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM agenda_items WHERE folder_id = $2), $6)
		RETURNING `+itemColumns,
		uuid.New(), in.FolderID, in.Title, in.Description, in.DurationMinutes, creatorID)
	it, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("insert agenda item: %w", err)
	}
	return it, nil
}

// DeleteItem removes an agenda item.
func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM agenda_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete agenda item %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}
