package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assembly-hq/assembly/internal/auth"
	"github.com/assembly-hq/assembly/internal/gate"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *Repository {
	return &Repository{pool: pool, logger: logger}
}

const userColumns = `id, name, email_address, password_hash, role, is_email_verified, created_at, updated_at`

func (r *Repository) scanUser(row pgx.Row) (*User, error) {
	var user User
	var role string
	if err := row.Scan(&user.ID, &user.Name, &user.EmailAddress, &user.PasswordHash, &role, &user.IsEmailVerified, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	parsed, err := gate.ParseRole(role)
	if err != nil {
		// A role outside the closed set is a consistency violation, not a
		// regular member.
		r.logger.Error("corrupt role value", slog.String("user_id", user.ID.String()), slog.String("role", role))
		return nil, fmt.Errorf("users: user %s: %w", user.ID, err)
	}
	user.Role = parsed
	return &user, nil
}

// UserByID returns the user with the given id.
func (r *Repository) UserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return r.scanUser(row)
}

// UserByEmail returns the user registered under the email address.
func (r *Repository) UserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email_address = $1`, email)
	return r.scanUser(row)
}

// CreateUser inserts a user and returns the stored row.
func (r *Repository) CreateUser(ctx context.Context, user *User) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email_address, password_hash, role, is_email_verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		user.ID, user.Name, user.EmailAddress, user.PasswordHash, user.Role.String(), user.IsEmailVerified)
	created, err := r.scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return created, nil
}

// UpdateUser persists the mutable fields of a user.
func (r *Repository) UpdateUser(ctx context.Context, user *User) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET name = $2, email_address = $3, password_hash = $4, role = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		user.ID, user.Name, user.EmailAddress, user.PasswordHash, user.Role.String())
	updated, err := r.scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return updated, nil
}

// DeleteUser removes a user account.
func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UserRole implements auth.RoleLookup.
func (r *Repository) UserRole(ctx context.Context, userID uuid.UUID) (gate.Role, error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return gate.RoleRegular, auth.ErrUserNotFound
		}
		return gate.RoleRegular, err
	}
	parsed, err := gate.ParseRole(role)
	if err != nil {
		r.logger.Error("corrupt role value", slog.String("user_id", userID.String()), slog.String("role", role))
		return gate.RoleRegular, fmt.Errorf("users: user %s: %w", userID, err)
	}
	return parsed, nil
}

// AccountByEmail implements auth.AccountLookup.
func (r *Repository) AccountByEmail(ctx context.Context, email string) (auth.Account, error) {
	var account auth.Account
	err := r.pool.QueryRow(ctx, `SELECT id, password_hash FROM users WHERE email_address = $1`, email).
		Scan(&account.ID, &account.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.Account{}, auth.ErrUserNotFound
		}
		return auth.Account{}, err
	}
	return account, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
