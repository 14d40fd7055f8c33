package advertisements

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists advertisements in Postgres.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger}
}

const adColumns = `id, organization_id, name, description, type, start_at, end_at, creator_id, created_at, updated_at`

func (r *Repository) scanAd(row pgx.Row) (*Advertisement, error) {
	var (
		a   Advertisement
		typ string
	)
	err := row.Scan(&a.ID, &a.OrganizationID, &a.Name, &a.Description, &typ,
		&a.StartAt, &a.EndAt, &a.CreatorID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Type, err = ParseAdType(typ)
	if err != nil {
		r.logger.Error("corrupt advertisement type in storage", "id", a.ID, "type", typ)
		return nil, fmt.Errorf("advertisement %s: %w", a.ID, err)
	}
	return &a, nil
}

// AdvertisementByID fetches a single advertisement.
func (r *Repository) AdvertisementByID(ctx context.Context, id uuid.UUID) (*Advertisement, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+adColumns+` FROM advertisements WHERE id = $1`, id)
	a, err := r.scanAd(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query advertisement %s: %w", id, err)
	}
	return a, nil
}

// AdvertisementsByOrganization returns a keyset page ordered by
// (start_at, id). With activeAt set, only ads whose window covers that
// moment are returned.
func (r *Repository) AdvertisementsByOrganization(ctx context.Context, orgID uuid.UUID, activeAt *time.Time, limit int32, cursor *AdKey, inverted bool) ([]Advertisement, error) {
	cmp, dir := ">", "ASC"
	if inverted {
		cmp, dir = "<", "DESC"
	}
	query := `SELECT ` + adColumns + ` FROM advertisements WHERE organization_id = $1`
	args := []any{orgID}
	if activeAt != nil {
		query += fmt.Sprintf(` AND start_at <= $%d AND end_at >= $%d`, len(args)+1, len(args)+1)
		args = append(args, *activeAt)
	}
	if cursor != nil {
		query += fmt.Sprintf(` AND (start_at, id) %s ($%d, $%d)`, cmp, len(args)+1, len(args)+2)
		args = append(args, cursor.StartAt, cursor.ID)
	}
	query += fmt.Sprintf(` ORDER BY start_at %s, id %s LIMIT %d`, dir, dir, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query advertisements for organization %s: %w", orgID, err)
	}
	defer rows.Close()

	var out []Advertisement
	for rows.Next() {
		a, err := r.scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("scan advertisement: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// CreateAdvertisement inserts a new advertisement.
func (r *Repository) CreateAdvertisement(ctx context.Context, in CreateAdvertisementInput, creatorID uuid.UUID) (*Advertisement, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO advertisements (id, organization_id, name, description, type, start_at, end_at, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+adColumns,
		uuid.New(), in.OrganizationID, in.Name, in.Description, string(in.Type), in.StartAt, in.EndAt, creatorID)
	a, err := r.scanAd(row)
	if err != nil {
		return nil, fmt.Errorf("insert advertisement: %w", err)
	}
	return a, nil
}

// DeleteAdvertisement removes an advertisement.
func (r *Repository) DeleteAdvertisement(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM advertisements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete advertisement %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
