package tags

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

// Repository persists tags and assignments in Postgres.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger}
}

const tagColumns = `id, organization_id, name, parent_tag_id, creator_id, created_at, updated_at`

func scanTag(row pgx.Row) (*Tag, error) {
	var t Tag
	err := row.Scan(&t.ID, &t.OrganizationID, &t.Name, &t.ParentTagID, &t.CreatorID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TagByID fetches a single tag.
func (r *Repository) TagByID(ctx context.Context, id uuid.UUID) (*Tag, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = $1`, id)
	t, err := scanTag(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query tag %s: %w", id, err)
	}
	return t, nil
}

// TagsByOrganization returns a keyset page ordered by (name, id).
func (r *Repository) TagsByOrganization(ctx context.Context, orgID uuid.UUID, limit int32, cursor *TagKey, inverted bool) ([]Tag, error) {
	cmp, dir := ">", "ASC"
	if inverted {
		cmp, dir = "<", "DESC"
	}
	query := `SELECT ` + tagColumns + ` FROM tags WHERE organization_id = $1`
	args := []any{orgID}
	if cursor != nil {
		query += fmt.Sprintf(` AND (name, id) %s ($2, $3)`, cmp)
		args = append(args, cursor.Name, cursor.ID)
	}
	query += fmt.Sprintf(` ORDER BY name %s, id %s LIMIT %d`, dir, dir, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tags for organization %s: %w", orgID, err)
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// CreateTag inserts a new tag.
func (r *Repository) CreateTag(ctx context.Context, in CreateTagInput, creatorID uuid.UUID) (*Tag, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tags (id, organization_id, name, parent_tag_id, creator_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+tagColumns,
		uuid.New(), in.OrganizationID, in.Name, in.ParentTagID, creatorID)
	t, err := scanTag(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	return t, nil
}

// AssignTag records the tag on a member.
func (r *Repository) AssignTag(ctx context.Context, tagID, memberID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tag_assignments (tag_id, member_id) VALUES ($1, $2)`, tagID, memberID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrAlreadyAssigned
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("assign tag %s to member %s: %w", tagID, memberID, err)
	}
	return nil
}

// UnassignTag removes the tag from a member.
func (r *Repository) UnassignTag(ctx context.Context, tagID, memberID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM tag_assignments WHERE tag_id = $1 AND member_id = $2`, tagID, memberID)
	if err != nil {
		return fmt.Errorf("unassign tag %s from member %s: %w", tagID, memberID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// TagsOfMember lists every tag a member carries in the organization. The
// service collates the result, so no ORDER BY here.
func (r *Repository) TagsOfMember(ctx context.Context, orgID, memberID uuid.UUID) ([]Tag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.organization_id, t.name, t.parent_tag_id, t.creator_id, t.created_at, t.updated_at
		FROM tags t
		JOIN tag_assignments a ON a.tag_id = t.id
		WHERE t.organization_id = $1 AND a.member_id = $2`, orgID, memberID)
	if err != nil {
		return nil, fmt.Errorf("query tags of member %s: %w", memberID, err)
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
