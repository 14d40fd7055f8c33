package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assembly-hq/assembly/internal/gate"
	"github.com/assembly-hq/assembly/internal/gqlerr"
)

// ============================================================================
// MOCK STORE
// ============================================================================

type mockStore struct {
	users   map[uuid.UUID]*User
	byEmail map[string]*User

	createErr error
	updateErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		users:   make(map[uuid.UUID]*User),
		byEmail: make(map[string]*User),
	}
}

func (m *mockStore) add(user *User) *User {
	copied := *user
	m.users[user.ID] = &copied
	m.byEmail[user.EmailAddress] = &copied
	return &copied
}

func (m *mockStore) UserByID(_ context.Context, id uuid.UUID) (*User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *mockStore) UserByEmail(_ context.Context, email string) (*User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *mockStore) CreateUser(_ context.Context, user *User) (*User, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, exists := m.byEmail[user.EmailAddress]; exists {
		return nil, ErrDuplicateEmail
	}
	return m.add(user), nil
}

func (m *mockStore) UpdateUser(_ context.Context, user *User) (*User, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	if _, ok := m.users[user.ID]; !ok {
		return nil, ErrNotFound
	}
	return m.add(user), nil
}

func (m *mockStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	user, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.byEmail, user.EmailAddress)
	delete(m.users, id)
	return nil
}

func adminPrincipal() *gate.Principal {
	return &gate.Principal{UserID: uuid.New(), Role: gate.RoleAdministrator}
}

func regularPrincipal(id uuid.UUID) *gate.Principal {
	return &gate.Principal{UserID: id, Role: gate.RoleRegular}
}

func requireCode(t *testing.T, err error, code gqlerr.Code) *gqlerr.Error {
	t.Helper()
	typed, ok := gqlerr.As(err)
	require.True(t, ok, "expected a typed resolver error, got %v", err)
	require.Equal(t, code, typed.Code)
	return typed
}

// ============================================================================
// TESTS
// ============================================================================

func TestGetRequiresAuthentication(t *testing.T) {
	svc := NewService(newMockStore())
	_, err := svc.Get(context.Background(), nil, uuid.New())
	requireCode(t, err, gqlerr.CodeUnauthenticated)
}

func TestGetSelfAllowed(t *testing.T) {
	store := newMockStore()
	user := store.add(&User{ID: uuid.New(), Name: "Alice", EmailAddress: "alice@example.com"})

	svc := NewService(store)
	got, err := svc.Get(context.Background(), regularPrincipal(user.ID), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
}

func TestGetOtherUserDenied(t *testing.T) {
	store := newMockStore()
	target := store.add(&User{ID: uuid.New(), EmailAddress: "bob@example.com"})

	svc := NewService(store)
	_, err := svc.Get(context.Background(), regularPrincipal(uuid.New()), target.ID)
	requireCode(t, err, gqlerr.CodeUnauthorized)
}

func TestGetByAdminNotFound(t *testing.T) {
	svc := NewService(newMockStore())
	_, err := svc.Get(context.Background(), adminPrincipal(), uuid.New())
	typed := requireCode(t, err, gqlerr.CodeResourcesNotFound)
	assert.Equal(t, []string{"id"}, typed.Issues[0].ArgumentPath)
}

func TestCurrentDeletedUserIsUnauthenticated(t *testing.T) {
	svc := NewService(newMockStore())
	_, err := svc.Current(context.Background(), regularPrincipal(uuid.New()))
	requireCode(t, err, gqlerr.CodeUnauthenticated)
}

func TestCreateRequiresGlobalAdmin(t *testing.T) {
	svc := NewService(newMockStore())
	_, err := svc.Create(context.Background(), regularPrincipal(uuid.New()), CreateUserInput{
		Name:         "Carol",
		EmailAddress: "carol@example.com",
		Password:     "correct-horse",
	})
	requireCode(t, err, gqlerr.CodeUnauthorized)
}

func TestCreateValidatesInput(t *testing.T) {
	svc := NewService(newMockStore())
	_, err := svc.Create(context.Background(), adminPrincipal(), CreateUserInput{
		Name:         "Carol",
		EmailAddress: "not-an-email",
		Password:     "correct-horse",
	})
	requireCode(t, err, gqlerr.CodeInvalidArguments)
}

func TestCreateDuplicateEmail(t *testing.T) {
	store := newMockStore()
	store.add(&User{ID: uuid.New(), EmailAddress: "carol@example.com"})

	svc := NewService(store)
	_, err := svc.Create(context.Background(), adminPrincipal(), CreateUserInput{
		Name:         "Carol",
		EmailAddress: "carol@example.com",
		Password:     "correct-horse",
	})
	typed := requireCode(t, err, gqlerr.CodeForbiddenOnArguments)
	assert.Equal(t, []string{"input", "emailAddress"}, typed.Issues[0].ArgumentPath)
}

func TestCreateStoresHashedPassword(t *testing.T) {
	store := newMockStore()
	svc := NewService(store)

	created, err := svc.Create(context.Background(), adminPrincipal(), CreateUserInput{
		Name:         "Carol",
		EmailAddress: "carol@example.com",
		Password:     "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.PasswordHash)
	assert.NotEqual(t, "correct-horse", created.PasswordHash)
}

func TestUpdateSelf(t *testing.T) {
	store := newMockStore()
	user := store.add(&User{ID: uuid.New(), Name: "Alice", EmailAddress: "alice@example.com"})

	svc := NewService(store)
	name := "Alice B."
	updated, err := svc.Update(context.Background(), regularPrincipal(user.ID), UpdateUserInput{
		ID:   user.ID,
		Name: &name,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", updated.Name)
	assert.Equal(t, "alice@example.com", updated.EmailAddress)
}

func TestUpdateOtherUserDenied(t *testing.T) {
	store := newMockStore()
	target := store.add(&User{ID: uuid.New(), EmailAddress: "bob@example.com"})

	svc := NewService(store)
	name := "Hacked"
	_, err := svc.Update(context.Background(), regularPrincipal(uuid.New()), UpdateUserInput{
		ID:   target.ID,
		Name: &name,
	})
	typed := requireCode(t, err, gqlerr.CodeUnauthorizedOnArguments)
	assert.Equal(t, []string{"input", "id"}, typed.Issues[0].ArgumentPath)
}

func TestUpdateOwnRoleDenied(t *testing.T) {
	store := newMockStore()
	user := store.add(&User{ID: uuid.New(), EmailAddress: "alice@example.com"})

	svc := NewService(store)
	role := gate.RoleAdministrator
	_, err := svc.Update(context.Background(), regularPrincipal(user.ID), UpdateUserInput{
		ID:   user.ID,
		Role: &role,
	})
	typed := requireCode(t, err, gqlerr.CodeUnauthorizedOnArguments)
	assert.Equal(t, []string{"input", "role"}, typed.Issues[0].ArgumentPath)
}

func TestDeleteSelfForbidden(t *testing.T) {
	store := newMockStore()
	admin := adminPrincipal()
	store.add(&User{ID: admin.UserID, EmailAddress: "admin@example.com"})

	svc := NewService(store)
	_, err := svc.Delete(context.Background(), admin, admin.UserID)
	typed := requireCode(t, err, gqlerr.CodeForbiddenOnArguments)
	assert.Equal(t, []string{"input", "id"}, typed.Issues[0].ArgumentPath)
}

func TestDelete(t *testing.T) {
	store := newMockStore()
	target := store.add(&User{ID: uuid.New(), Name: "Bob", EmailAddress: "bob@example.com"})

	svc := NewService(store)
	deleted, err := svc.Delete(context.Background(), adminPrincipal(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", deleted.Name)

	_, err = store.UserByID(context.Background(), target.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
