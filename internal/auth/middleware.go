package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/assembly-hq/assembly/internal/gate"
)

// ErrUserNotFound is returned by RoleLookup when the token's user row no
// longer exists.
var ErrUserNotFound = errors.New("auth: user not found")

// RoleLookup resolves a user's global role. Implementations return
// ErrUserNotFound when the user row is gone.
type RoleLookup interface {
	UserRole(ctx context.Context, userID uuid.UUID) (gate.Role, error)
}

// MembershipLookup resolves the organization memberships of a user.
type MembershipLookup interface {
	MembershipsOf(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]gate.Role, error)
}

// Middleware builds request principals from bearer tokens.
type Middleware struct {
	tokens      *TokenIssuer
	roles       RoleLookup
	memberships MembershipLookup
	logger      *slog.Logger
}

// NewMiddleware constructs the principal-resolution middleware.
func NewMiddleware(tokens *TokenIssuer, roles RoleLookup, memberships MembershipLookup, logger *slog.Logger) *Middleware {
	return &Middleware{tokens: tokens, roles: roles, memberships: memberships, logger: logger}
}

// Handler resolves the Authorization header into a principal in context.
// Requests without a token, with an invalid token, or whose token refers to
// a deleted user proceed unauthenticated; the resolvers then answer with the
// unauthenticated error code. Only infrastructure failures abort the request
// here.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := m.tokens.Verify(raw)
		if err != nil {
			m.logger.Debug("rejected bearer token", slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}

		role, err := m.roles.UserRole(r.Context(), userID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				// Live token for a deleted user: the request proceeds
				// unauthenticated, not unauthorized.
				next.ServeHTTP(w, r)
				return
			}
			m.logger.Error("load user role", slog.String("user_id", userID.String()), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		memberships, err := m.memberships.MembershipsOf(r.Context(), userID)
		if err != nil {
			m.logger.Error("load memberships", slog.String("user_id", userID.String()), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		principal := &gate.Principal{UserID: userID, Role: role, Memberships: memberships}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
