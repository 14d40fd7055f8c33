package notifications

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

	"github.com/assembly-hq/assembly/internal/platform/db"
)

// Repository persists notifications and their recipient rows in Postgres.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger}
}

// InsertWithRecipients writes the notification and all recipient rows in
// one transaction. Either the whole audience sees it or nobody does.
func (r *Repository) InsertWithRecipients(ctx context.Context, n *Notification, recipients []uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO notifications (id, organization_id, kind, payload, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			n.ID, n.OrganizationID, string(n.Kind), []byte(n.Payload), n.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
		rows := make([][]any, 0, len(recipients))
		for _, userID := range recipients {
			rows = append(rows, []any{n.ID, userID})
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"notification_recipients"},
			[]string{"notification_id", "user_id"},
			pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("insert recipients: %w", err)
		}
		return nil
	})
}

// NotificationByID loads one notification row. The dispatch worker uses it
// to rebuild the payload when a queued delivery is picked up.
func (r *Repository) NotificationByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	var (
		n    Notification
		kind string
		raw  []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, organization_id, kind, payload, created_at
		FROM notifications WHERE id = $1`, id).
		Scan(&n.ID, &n.OrganizationID, &kind, &raw, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load notification %s: %w", id, err)
	}
	n.Kind = Kind(kind)
	n.Payload = json.RawMessage(raw)
	return &n, nil
}

// RecipientIDs lists the users a notification was fanned out to.
func (r *Repository) RecipientIDs(ctx context.Context, notificationID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id FROM notification_recipients
		WHERE notification_id = $1`, notificationID)
	if err != nil {
		return nil, fmt.Errorf("query recipients of %s: %w", notificationID, err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DeliveriesOf returns a keyset page of a user's feed, newest-first.
func (r *Repository) DeliveriesOf(ctx context.Context, userID uuid.UUID, limit int32, cursor *DeliveryKey, inverted bool) ([]Delivery, error) {
	cmp, dir := "<", "DESC"
	if inverted {
		cmp, dir = ">", "ASC"
	}
	query := `
		SELECT n.id, n.organization_id, n.kind, n.payload, n.created_at, nr.user_id, nr.read_at
		FROM notifications n
		JOIN notification_recipients nr ON nr.notification_id = n.id
		WHERE nr.user_id = $1`
	args := []any{userID}
	if cursor != nil {
		query += fmt.Sprintf(` AND (n.created_at, n.id) %s ($2, $3)`, cmp)
		args = append(args, cursor.CreatedAt, cursor.ID)
	}
	query += fmt.Sprintf(` ORDER BY n.created_at %s, n.id %s LIMIT %d`, dir, dir, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var (
			d    Delivery
			kind string
			raw  []byte
		)
		err := rows.Scan(&d.ID, &d.OrganizationID, &kind, &raw, &d.CreatedAt, &d.RecipientID, &d.ReadAt)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		d.Kind = Kind(kind)
		d.Payload = json.RawMessage(raw)
		out = append(out, d)
	}
	return out, rows.Err()
}

// MarkRead sets the read timestamp on one delivery.
func (r *Repository) MarkRead(ctx context.Context, notificationID, userID uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notification_recipients SET read_at = $3
		WHERE notification_id = $1 AND user_id = $2 AND read_at IS NULL`,
		notificationID, userID, at)
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", notificationID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UnreadCount reports how many deliveries a user has not read yet.
func (r *Repository) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM notification_recipients
		WHERE user_id = $1 AND read_at IS NULL`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread for user %s: %w", userID, err)
	}
	return n, nil
}
