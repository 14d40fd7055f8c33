package chats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assembly-hq/assembly/internal/platform/db"
)

// Repository persists chats and messages in Postgres.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger}
}

const chatColumns = `id, organization_id, name, description, creator_id, created_at, updated_at`

func scanChat(row pgx.Row) (*Chat, error) {
	var c Chat
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Description, &c.CreatorID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ChatByID fetches a single chat.
func (r *Repository) ChatByID(ctx context.Context, id uuid.UUID) (*Chat, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+chatColumns+` FROM chats WHERE id = $1`, id)
	c, err := scanChat(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query chat %s: %w", id, err)
	}
	return c, nil
}

// ChatsByOrganization returns a keyset page ordered by (created_at, id).
func (r *Repository) ChatsByOrganization(ctx context.Context, orgID uuid.UUID, limit int32, cursor *ChatKey, inverted bool) ([]Chat, error) {
	cmp, dir := ">", "ASC"
	if inverted {
		cmp, dir = "<", "DESC"
	}
	query := `SELECT ` + chatColumns + ` FROM chats WHERE organization_id = $1`
	args := []any{orgID}
	if cursor != nil {
		query += fmt.Sprintf(` AND (created_at, id) %s ($2, $3)`, cmp)
		args = append(args, cursor.CreatedAt, cursor.ID)
	}
	query += fmt.Sprintf(` ORDER BY created_at %s, id %s LIMIT %d`, dir, dir, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chats for organization %s: %w", orgID, err)
	}
	defer rows.Close()

	var out []Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// CreateChat inserts a new chat and enrolls the creator in the same
// transaction.
func (r *Repository) CreateChat(ctx context.Context, in CreateChatInput, creatorID uuid.UUID) (*Chat, error) {
	var c *Chat
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO chats (id, organization_id, name, description, creator_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+chatColumns,
			uuid.New(), in.OrganizationID, in.Name, in.Description, creatorID)
		chat, err := scanChat(row)
		if err != nil {
			return fmt.Errorf("insert chat: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO chat_memberships (chat_id, member_id)
			VALUES ($1, $2)`, chat.ID, creatorID); err != nil {
			return fmt.Errorf("enroll creator: %w", err)
		}
		c = chat
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// IsChatMember reports whether the user is enrolled in the chat.
func (r *Repository) IsChatMember(ctx context.Context, chatID, memberID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM chat_memberships WHERE chat_id = $1 AND member_id = $2)`,
		chatID, memberID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("query chat membership %s/%s: %w", chatID, memberID, err)
	}
	return ok, nil
}

// AddChatMember enrolls a user, keeping the original enrollment row when
// one already exists.
func (r *Repository) AddChatMember(ctx context.Context, chatID, memberID uuid.UUID) (*ChatMembership, error) {
	var m ChatMembership
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat_memberships (chat_id, member_id)
		VALUES ($1, $2)
		ON CONFLICT (chat_id, member_id) DO UPDATE SET chat_id = excluded.chat_id
		RETURNING chat_id, member_id, created_at`,
		chatID, memberID).Scan(&m.ChatID, &m.MemberID, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert chat membership %s/%s: %w", chatID, memberID, err)
	}
	return &m, nil
}

const messageColumns = `id, chat_id, parent_message_id, creator_id, body, created_at`

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.ChatID, &m.ParentMessageID, &m.CreatorID, &m.Body, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MessageByID fetches a single message.
func (r *Repository) MessageByID(ctx context.Context, id uuid.UUID) (*Message, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM chat_messages WHERE id = $1`, id)
	m, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query message %s: %w", id, err)
	}
	return m, nil
}

// MessagesByChat returns a keyset page ordered by (created_at, id).
func (r *Repository) MessagesByChat(ctx context.Context, chatID uuid.UUID, limit int32, cursor *MessageKey, inverted bool) ([]Message, error) {
	cmp, dir := ">", "ASC"
	if inverted {
		cmp, dir = "<", "DESC"
	}
	query := `SELECT ` + messageColumns + ` FROM chat_messages WHERE chat_id = $1`
	args := []any{chatID}
	if cursor != nil {
		query += fmt.Sprintf(` AND (created_at, id) %s ($2, $3)`, cmp)
		args = append(args, cursor.CreatedAt, cursor.ID)
	}
	query += fmt.Sprintf(` ORDER BY created_at %s, id %s LIMIT %d`, dir, dir, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages for chat %s: %w", chatID, err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// CreateMessage inserts a new message.
func (r *Repository) CreateMessage(ctx context.Context, in CreateMessageInput, creatorID uuid.UUID) (*Message, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO chat_messages (id, chat_id, parent_message_id, creator_id, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+messageColumns,
		uuid.New(), in.ChatID, in.ParentMessageID, creatorID, in.Body)
	m, err := scanMessage(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}
