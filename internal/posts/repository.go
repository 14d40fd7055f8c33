package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// Repository persists posts and votes in Postgres. Post ids are stored as
// their 26-character ULID text form.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger}
}

const postColumns = `p.id, p.organization_id, p.caption, p.is_pinned, p.creator_id, p.created_at, p.updated_at,
	(SELECT count(*) FROM post_votes v WHERE v.post_id = p.id AND v.kind = 'up') AS up_votes,
	(SELECT count(*) FROM post_votes v WHERE v.post_id = p.id AND v.kind = 'down') AS down_votes`

func (r *Repository) scanPost(row pgx.Row) (*Post, error) {
	var (
		p   Post
		raw string
	)
	err := row.Scan(&raw, &p.OrganizationID, &p.Caption, &p.IsPinned, &p.CreatorID,
		&p.CreatedAt, &p.UpdatedAt, &p.UpVotes, &p.DownVotes)
	if err != nil {
		return nil, err
	}
	id, err := ulid.Parse(raw)
	if err != nil {
		r.logger.Error("corrupt post id in storage", "raw", raw, "error", err)
		return nil, fmt.Errorf("parse post id %q: %w", raw, err)
	}
	p.ID = id
	return &p, nil
}

// PostByID fetches a single post with its vote tallies.
func (r *Repository) PostByID(ctx context.Context, id ulid.ULID) (*Post, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, id.String())
	p, err := r.scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query post %s: %w", id, err)
	}
	return p, nil
}

// PostsByOrganization returns a keyset page. Forward order is newest-first,
// so the comparison runs opposite to the other connections.
func (r *Repository) PostsByOrganization(ctx context.Context, orgID uuid.UUID, limit int32, cursor *PostKey, inverted bool) ([]Post, error) {
	cmp, dir := "<", "DESC"
	if inverted {
		cmp, dir = ">", "ASC"
	}
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.organization_id = $1`
	args := []any{orgID}
	if cursor != nil {
		query += fmt.Sprintf(` AND p.id %s $2`, cmp)
		args = append(args, cursor.ID)
	}
	query += fmt.Sprintf(` ORDER BY p.id %s LIMIT %d`, dir, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts for organization %s: %w", orgID, err)
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		p, err := r.scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// CreatePost inserts a new post. A fresh post has no votes, so the row is
// re-read through PostByID only for uniform scan handling.
func (r *Repository) CreatePost(ctx context.Context, in CreatePostInput, creatorID uuid.UUID) (*Post, error) {
	id := NewID()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO posts (id, organization_id, caption, creator_id)
		VALUES ($1, $2, $3, $4)`,
		id.String(), in.OrganizationID, in.Caption, creatorID)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return r.PostByID(ctx, id)
}

// DeletePost removes a post and, via cascade, its votes.
func (r *Repository) DeletePost(ctx context.Context, id ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateVote records the caller's vote. One vote per user per post.
func (r *Repository) CreateVote(ctx context.Context, postID ulid.ULID, voterID uuid.UUID, kind VoteType) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO post_votes (post_id, voter_id, kind)
		VALUES ($1, $2, $3)`, postID.String(), voterID, string(kind))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrAlreadyVoted
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert vote on post %s: %w", postID, err)
	}
	return nil
}

// DeleteVote removes the caller's vote.
func (r *Repository) DeleteVote(ctx context.Context, postID ulid.ULID, voterID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM post_votes WHERE post_id = $1 AND voter_id = $2`, postID.String(), voterID)
	if err != nil {
		return fmt.Errorf("delete vote on post %s: %w", postID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVoteNotFound
	}
	return nil
}
