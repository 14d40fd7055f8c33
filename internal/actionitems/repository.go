package actionitems

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists categories, action items, and instance exceptions.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger}
}

const itemColumns = `id, organization_id, event_id, category_id, assignee_id, is_completed,
	pre_completion_notes, post_completion_notes, assigned_at, creator_id, created_at, updated_at`

func scanItem(row pgx.Row) (*ActionItem, error) {
	var it ActionItem
	err := row.Scan(&it.ID, &it.OrganizationID, &it.EventID, &it.CategoryID, &it.AssigneeID,
		&it.IsCompleted, &it.PreCompletionNotes, &it.PostCompletionNotes, &it.AssignedAt,
		&it.CreatorID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// ItemByID fetches a single action item template.
func (r *Repository) ItemByID(ctx context.Context, id uuid.UUID) (*ActionItem, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM action_items WHERE id = $1`, id)
	it, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query action item %s: %w", id, err)
	}
	return it, nil
}

// ItemsByEvent returns every template of the event ordered by
// (assigned_at, id). The overlay merge needs the full set, so there is no
// limit here; pagination happens after the merge.
func (r *Repository) ItemsByEvent(ctx context.Context, eventID uuid.UUID) ([]ActionItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+`
		FROM action_items
		WHERE event_id = $1
		ORDER BY assigned_at ASC, id ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query action items of event %s: %w", eventID, err)
	}
	defer rows.Close()

	var out []ActionItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan action item: %w", err)
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

// ExceptionsByInstance returns the exception records targeting one
// occurrence of a recurring event.
func (r *Repository) ExceptionsByInstance(ctx context.Context, instanceID uuid.UUID) ([]InstanceException, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT action_item_id, instance_id, is_deleted, is_completed, pre_completion_notes,
		       post_completion_notes, assignee_id, category_id, assigned_at, updated_at
		FROM action_item_exceptions
		WHERE instance_id = $1`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("query exceptions of instance %s: %w", instanceID, err)
	}
	defer rows.Close()

	var out []InstanceException
	for rows.Next() {
		var ex InstanceException
		err := rows.Scan(&ex.ActionItemID, &ex.InstanceID, &ex.IsDeleted, &ex.IsCompleted,
			&ex.PreCompletionNotes, &ex.PostCompletionNotes, &ex.AssigneeID, &ex.CategoryID,
			&ex.AssignedAt, &ex.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan exception: %w", err)
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// CreateItem inserts a new action item template.
func (r *Repository) CreateItem(ctx context.Context, orgID uuid.UUID, in CreateItemInput, creatorID uuid.UUID) (*ActionItem, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO action_items
			(id, organization_id, event_id, category_id, assignee_id, pre_completion_notes, assigned_at, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+itemColumns,
		uuid.New(), orgID, in.EventID, in.CategoryID, in.AssigneeID,
		in.PreCompletionNotes, in.AssignedAt, creatorID)
	it, err := scanItem(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("insert action item: %w", err)
	}
	return it, nil
}

// UpdateItem applies a partial update to the template row.
func (r *Repository) UpdateItem(ctx context.Context, in UpdateItemInput) (*ActionItem, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE action_items SET
			is_completed          = COALESCE($2, is_completed),
			pre_completion_notes  = COALESCE($3, pre_completion_notes),
			post_completion_notes = COALESCE($4, post_completion_notes),
			assignee_id           = COALESCE($5, assignee_id),
			category_id           = COALESCE($6, category_id),
			updated_at            = now()
		WHERE id = $1
		RETURNING `+itemColumns,
		in.ID, in.IsCompleted, in.PreCompletionNotes, in.PostCompletionNotes,
		in.AssigneeID, in.CategoryID)
	it, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update action item %s: %w", in.ID, err)
	}
	return it, nil
}

// UpsertException writes the exception record for (action item, instance),
// merging the populated fields over any existing record.
func (r *Repository) UpsertException(ctx context.Context, ex InstanceException) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO action_item_exceptions
			(action_item_id, instance_id, is_deleted, is_completed, pre_completion_notes,
			 post_completion_notes, assignee_id, category_id, assigned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (action_item_id, instance_id) DO UPDATE SET
			is_deleted            = EXCLUDED.is_deleted,
			is_completed          = COALESCE(EXCLUDED.is_completed, action_item_exceptions.is_completed),
			pre_completion_notes  = COALESCE(EXCLUDED.pre_completion_notes, action_item_exceptions.pre_completion_notes),
			post_completion_notes = COALESCE(EXCLUDED.post_completion_notes, action_item_exceptions.post_completion_notes),
			assignee_id           = COALESCE(EXCLUDED.assignee_id, action_item_exceptions.assignee_id),
			category_id           = COALESCE(EXCLUDED.category_id, action_item_exceptions.category_id),
			assigned_at           = COALESCE(EXCLUDED.assigned_at, action_item_exceptions.assigned_at),
			updated_at            = now()`,
		ex.ActionItemID, ex.InstanceID, ex.IsDeleted, ex.IsCompleted, ex.PreCompletionNotes,
		ex.PostCompletionNotes, ex.AssigneeID, ex.CategoryID, ex.AssignedAt)
	if err != nil {
		return fmt.Errorf("upsert exception for item %s instance %s: %w", ex.ActionItemID, ex.InstanceID, err)
	}
	return nil
}

// CategoryByID fetches a single category.
func (r *Repository) CategoryByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `
		SELECT id, organization_id, name, is_disabled, created_at, updated_at
		FROM action_item_categories WHERE id = $1`, id).
		Scan(&c.ID, &c.OrganizationID, &c.Name, &c.IsDisabled, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query category %s: %w", id, err)
	}
	return &c, nil
}

// CategoriesByOrganization returns a keyset page ordered by name.
func (r *Repository) CategoriesByOrganization(ctx context.Context, orgID uuid.UUID, limit int32, cursor *CategoryKey, inverted bool) ([]Category, error) {
	cmp, dir := ">", "ASC"
	if inverted {
		cmp, dir = "<", "DESC"
	}
	query := `SELECT id, organization_id, name, is_disabled, created_at, updated_at
		FROM action_item_categories WHERE organization_id = $1`
	args := []any{orgID}
	if cursor != nil {
		query += fmt.Sprintf(` AND name %s $2`, cmp)
		args = append(args, cursor.Name)
	}
	query += fmt.Sprintf(` ORDER BY name %s LIMIT %d`, dir, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories for organization %s: %w", orgID, err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.IsDisabled, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCategory inserts a new category.
func (r *Repository) CreateCategory(ctx context.Context, in CreateCategoryInput) (*Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `
		INSERT INTO action_item_categories (id, organization_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, organization_id, name, is_disabled, created_at, updated_at`,
		uuid.New(), in.OrganizationID, in.Name).
		Scan(&c.ID, &c.OrganizationID, &c.Name, &c.IsDisabled, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &c, nil
}
