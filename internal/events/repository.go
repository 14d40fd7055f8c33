package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists events and instances in Postgres.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger}
}

const eventColumns = `id, organization_id, name, description, start_at, end_at, recurrence, creator_id, created_at, updated_at`

func (r *Repository) scanEvent(row pgx.Row) (*Event, error) {
	var (
		ev  Event
		rec []byte
	)
	err := row.Scan(&ev.ID, &ev.OrganizationID, &ev.Name, &ev.Description,
		&ev.StartAt, &ev.EndAt, &rec, &ev.CreatorID, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(rec) > 0 {
		var rule Recurrence
		if err := json.Unmarshal(rec, &rule); err != nil {
			r.logger.Error("corrupt recurrence rule in storage", "event_id", ev.ID, "error", err)
			return nil, fmt.Errorf("decode recurrence for event %s: %w", ev.ID, err)
		}
		ev.Recurrence = &rule
	}
	return &ev, nil
}

// EventByID fetches a single event.
func (r *Repository) EventByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	ev, err := r.scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query event %s: %w", id, err)
	}
	return ev, nil
}

// EventsByOrganization returns a keyset page ordered by (start_at, id).
func (r *Repository) EventsByOrganization(ctx context.Context, orgID uuid.UUID, limit int32, cursor *StartKey, inverted bool) ([]Event, error) {
	cmp, dir := ">", "ASC"
	if inverted {
		cmp, dir = "<", "DESC"
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE organization_id = $1`
	args := []any{orgID}
	if cursor != nil {
		query += fmt.Sprintf(` AND (start_at, id) %s ($2, $3)`, cmp)
		args = append(args, cursor.StartAt, cursor.ID)
	}
	query += fmt.Sprintf(` ORDER BY start_at %s, id %s LIMIT %d`, dir, dir, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events for organization %s: %w", orgID, err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		ev, err := r.scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}

// CreateEvent inserts a new event and returns the stored row.
func (r *Repository) CreateEvent(ctx context.Context, in CreateEventInput, creatorID uuid.UUID) (*Event, error) {
	var rec []byte
	if in.Recurrence != nil {
		var err error
		if rec, err = json.Marshal(in.Recurrence); err != nil {
			return nil, fmt.Errorf("encode recurrence: %w", err)
		}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO events (id, organization_id, name, description, start_at, end_at, recurrence, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+eventColumns,
		uuid.New(), in.OrganizationID, in.Name, in.Description, in.StartAt, in.EndAt, rec, creatorID)
	ev, err := r.scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return ev, nil
}

// InstanceByID fetches a single materialized instance.
func (r *Repository) InstanceByID(ctx context.Context, id uuid.UUID) (*Instance, error) {
	var inst Instance
	err := r.pool.QueryRow(ctx,
		`SELECT id, event_id, occurs_at, is_cancelled FROM event_instances WHERE id = $1`, id).
		Scan(&inst.ID, &inst.EventID, &inst.OccursAt, &inst.IsCancelled)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInstanceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query instance %s: %w", id, err)
	}
	return &inst, nil
}

// InstancesOf lists materialized instances of an event inside a window,
// ordered by occurrence time.
func (r *Repository) InstancesOf(ctx context.Context, eventID uuid.UUID, from, to time.Time) ([]Instance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_id, occurs_at, is_cancelled
		FROM event_instances
		WHERE event_id = $1 AND occurs_at >= $2 AND occurs_at <= $3
		ORDER BY occurs_at ASC`, eventID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query instances of event %s: %w", eventID, err)
	}
	defer rows.Close()

	var out []Instance
	for rows.Next() {
		var inst Instance
		if err := rows.Scan(&inst.ID, &inst.EventID, &inst.OccursAt, &inst.IsCancelled); err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// RecurringEvents lists every event carrying a recurrence rule; the
// materialization job walks this set.
func (r *Repository) RecurringEvents(ctx context.Context) ([]Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE recurrence IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("query recurring events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		ev, err := r.scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}

// MaterializeInstances inserts any missing instance rows for the event up
// to the horizon. Existing rows keep their id and cancellation flag.
func (r *Repository) MaterializeInstances(ctx context.Context, ev *Event, horizon time.Time) (int, error) {
	if ev.Recurrence == nil {
		return 0, nil
	}
	created := 0
	for _, at := range ev.Recurrence.Occurrences(ev.StartAt, horizon) {
		tag, err := r.pool.Exec(ctx, `
			INSERT INTO event_instances (id, event_id, occurs_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (event_id, occurs_at) DO NOTHING`,
			uuid.New(), ev.ID, at)
		if err != nil {
			return created, fmt.Errorf("materialize instance of event %s at %s: %w", ev.ID, at, err)
		}
		created += int(tag.RowsAffected())
	}
	return created, nil
}
