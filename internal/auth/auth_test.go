package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/assembly-hq/assembly/internal/gate"
)

func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer("test-secret", "assembly-test", time.Hour)
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := newTestIssuer()
	userID := uuid.New()

	token, err := issuer.Issue(userID)
	require.NoError(t, err)

	got, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	other := NewTokenIssuer("other-secret", "assembly-test", time.Hour)
	token, err := other.Issue(uuid.New())
	require.NoError(t, err)

	_, err = newTestIssuer().Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := newTestIssuer()
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	verifier := newTestIssuer()
	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := newTestIssuer().Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// ============================================================================
// MIDDLEWARE
// ============================================================================

type stubRoleLookup struct {
	role gate.Role
	err  error
}

func (s stubRoleLookup) UserRole(context.Context, uuid.UUID) (gate.Role, error) {
	return s.role, s.err
}

type stubMembershipLookup struct {
	memberships map[uuid.UUID]gate.Role
	err         error
}

func (s stubMembershipLookup) MembershipsOf(context.Context, uuid.UUID) (map[uuid.UUID]gate.Role, error) {
	return s.memberships, s.err
}

func capturePrincipal(captured **gate.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMiddlewareResolvesPrincipal(t *testing.T) {
	issuer := newTestIssuer()
	userID := uuid.New()
	orgID := uuid.New()
	token, err := issuer.Issue(userID)
	require.NoError(t, err)

	mw := NewMiddleware(issuer,
		stubRoleLookup{role: gate.RoleRegular},
		stubMembershipLookup{memberships: map[uuid.UUID]gate.Role{orgID: gate.RoleAdministrator}},
		testLogger())

	var principal *gate.Principal
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Handler(capturePrincipal(&principal)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, principal)
	assert.Equal(t, userID, principal.UserID)
	assert.True(t, gate.CanAccess(principal, orgID, gate.LevelAdmin))
}

func TestMiddlewareWithoutTokenIsUnauthenticated(t *testing.T) {
	mw := NewMiddleware(newTestIssuer(), stubRoleLookup{}, stubMembershipLookup{}, testLogger())

	var principal *gate.Principal
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	rec := httptest.NewRecorder()
	mw.Handler(capturePrincipal(&principal)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, principal)
}

func TestMiddlewareDeletedUserIsUnauthenticated(t *testing.T) {
	issuer := newTestIssuer()
	token, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	mw := NewMiddleware(issuer, stubRoleLookup{err: ErrUserNotFound}, stubMembershipLookup{}, testLogger())

	var principal *gate.Principal
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Handler(capturePrincipal(&principal)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, "the request proceeds and resolvers answer unauthenticated")
	assert.Nil(t, principal)
}

func TestMiddlewareInfraFailureAborts(t *testing.T) {
	issuer := newTestIssuer()
	token, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	mw := NewMiddleware(issuer, stubRoleLookup{err: errors.New("connection refused")}, stubMembershipLookup{}, testLogger())

	var principal *gate.Principal
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Handler(capturePrincipal(&principal)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Nil(t, principal)
}

// ============================================================================
// SIGN IN
// ============================================================================

type stubAccounts struct {
	account Account
	err     error
}

func (s stubAccounts) AccountByEmail(context.Context, string) (Account, error) {
	return s.account, s.err
}

func TestSignIn(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2!"), bcrypt.MinCost)
	require.NoError(t, err)
	userID := uuid.New()

	svc := NewService(stubAccounts{account: Account{ID: userID, PasswordHash: string(hash)}}, newTestIssuer())

	token, gotID, err := svc.SignIn(context.Background(), "alice@example.com", "hunter2!")
	require.NoError(t, err)
	assert.Equal(t, userID, gotID)

	verified, err := newTestIssuer().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, verified)
}

func TestSignInWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2!"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := NewService(stubAccounts{account: Account{ID: uuid.New(), PasswordHash: string(hash)}}, newTestIssuer())

	_, _, err = svc.SignIn(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignInUnknownEmail(t *testing.T) {
	svc := NewService(stubAccounts{err: ErrUserNotFound}, newTestIssuer())

	_, _, err := svc.SignIn(context.Background(), "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown email is indistinguishable from a wrong password")
}
