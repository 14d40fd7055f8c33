package organizations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

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

const orgColumns = `id, name, description, country_code, creator_id, updater_id, created_at, updated_at`

func scanOrganization(row pgx.Row) (*Organization, error) {
	var org Organization
	err := row.Scan(&org.ID, &org.Name, &org.Description, &org.CountryCode, &org.CreatorID, &org.UpdaterID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

// OrganizationByID returns one organization.
func (r *Repository) OrganizationByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id)
	return scanOrganization(row)
}

// Organizations pages through organizations by name. It implements the
// keyset contract of relay.FetchFunc.
func (r *Repository) Organizations(ctx context.Context, limit int32, cursor *NameKey, inverted bool) ([]Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations`
	var args []any
	if cursor != nil {
		if inverted {
			query += ` WHERE name < $1`
		} else {
			query += ` WHERE name > $1`
		}
		args = append(args, cursor.Name)
	}
	if inverted {
		query += ` ORDER BY name DESC`
	} else {
		query += ` ORDER BY name ASC`
	}
	query += fmt.Sprintf(` LIMIT %d`, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, *org)
	}
	return orgs, rows.Err()
}

// CreateOrganization inserts an organization and returns the stored row.
func (r *Repository) CreateOrganization(ctx context.Context, org *Organization) (*Organization, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO organizations (id, name, description, country_code, creator_id, updater_id)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING `+orgColumns,
		org.ID, org.Name, org.Description, org.CountryCode, org.CreatorID)
	return scanOrganization(row)
}

// Members pages through an organization's memberships by join time.
func (r *Repository) Members(ctx context.Context, orgID uuid.UUID, limit int32, cursor *MemberKey, inverted bool) ([]Membership, error) {
	query := `SELECT organization_id, member_id, role, created_at FROM organization_memberships WHERE organization_id = $1`
	args := []any{orgID}
	if cursor != nil {
		if inverted {
			query += ` AND (created_at, member_id) < ($2, $3)`
		} else {
			query += ` AND (created_at, member_id) > ($2, $3)`
		}
		args = append(args, cursor.CreatedAt, cursor.MemberID)
	}
	if inverted {
		query += ` ORDER BY created_at DESC, member_id DESC`
	} else {
		query += ` ORDER BY created_at ASC, member_id ASC`
	}
	query += fmt.Sprintf(` LIMIT %d`, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []Membership
	for rows.Next() {
		m, err := r.scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, *m)
	}
	return memberships, rows.Err()
}

func (r *Repository) scanMembership(row pgx.Row) (*Membership, error) {
	var m Membership
	var role string
	if err := row.Scan(&m.OrganizationID, &m.MemberID, &role, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}
	parsed, err := gate.ParseRole(role)
	if err != nil {
		r.logger.Error("corrupt membership role",
			slog.String("organization_id", m.OrganizationID.String()),
			slog.String("member_id", m.MemberID.String()),
			slog.String("role", role))
		return nil, fmt.Errorf("organizations: membership %s/%s: %w", m.OrganizationID, m.MemberID, err)
	}
	m.Role = parsed
	return &m, nil
}

// CreateMembership inserts a membership row.
func (r *Repository) CreateMembership(ctx context.Context, m *Membership) (*Membership, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO organization_memberships (organization_id, member_id, role)
		VALUES ($1, $2, $3)
		RETURNING organization_id, member_id, role, created_at`,
		m.OrganizationID, m.MemberID, m.Role.String())
	created, err := r.scanMembership(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, ErrAlreadyMember
			case "23503":
				return nil, ErrMemberNotFound
			}
		}
		return nil, err
	}
	return created, nil
}

// DeleteMembership removes a membership row.
func (r *Repository) DeleteMembership(ctx context.Context, orgID, memberID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM organization_memberships WHERE organization_id = $1 AND member_id = $2`, orgID, memberID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

// OrganizationExists reports whether the organization is present. Other
// domains use this to validate foreign organization ids before writing.
func (r *Repository) OrganizationExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("organizations: check %s: %w", id, err)
	}
	return exists, nil
}

// MemberIDs lists every member of the organization. Notification fan-out
// resolves its audience through here.
func (r *Repository) MemberIDs(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT member_id FROM organization_memberships WHERE organization_id = $1`, orgID)
	if err != nil {
		return nil, fmt.Errorf("organizations: members of %s: %w", orgID, err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// MembershipsOf loads every membership of a user, keyed by organization.
func (r *Repository) MembershipsOf(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]gate.Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT organization_id, role FROM organization_memberships WHERE member_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := make(map[uuid.UUID]gate.Role)
	for rows.Next() {
		var orgID uuid.UUID
		var role string
		if err := rows.Scan(&orgID, &role); err != nil {
			return nil, err
		}
		parsed, err := gate.ParseRole(role)
		if err != nil {
			r.logger.Error("corrupt membership role",
				slog.String("organization_id", orgID.String()),
				slog.String("member_id", userID.String()),
				slog.String("role", role))
			return nil, fmt.Errorf("organizations: membership %s/%s: %w", orgID, userID, err)
		}
		memberships[orgID] = parsed
	}
	return memberships, rows.Err()
}
