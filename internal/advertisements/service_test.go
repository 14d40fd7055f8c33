package advertisements

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assembly-hq/assembly/internal/gate"
	"github.com/assembly-hq/assembly/internal/gqlerr"
	"github.com/assembly-hq/assembly/internal/relay"
)

// ==== FIXTURES ====

type mockStore struct {
	ads map[uuid.UUID]*Advertisement
	err error
}

func newMockStore() *mockStore {
	return &mockStore{ads: make(map[uuid.UUID]*Advertisement)}
}

func (m *mockStore) AdvertisementByID(_ context.Context, id uuid.UUID) (*Advertisement, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.ads[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func adLess(a, b Advertisement) bool {
	if !a.StartAt.Equal(b.StartAt) {
		return a.StartAt.Before(b.StartAt)
	}
	return a.ID.String() < b.ID.String()
}

func (m *mockStore) AdvertisementsByOrganization(_ context.Context, orgID uuid.UUID, activeAt *time.Time, limit int32, cursor *AdKey, inverted bool) ([]Advertisement, error) {
	if m.err != nil {
		return nil, m.err
	}
	var all []Advertisement
	for _, a := range m.ads {
		if a.OrganizationID != orgID {
			continue
		}
		if activeAt != nil && !a.ActiveAt(*activeAt) {
			continue
		}
		all = append(all, *a)
	}
	sort.Slice(all, func(i, j int) bool {
		if inverted {
			return adLess(all[j], all[i])
		}
		return adLess(all[i], all[j])
	})
	var out []Advertisement
	for _, a := range all {
		if cursor != nil {
			pivot := Advertisement{StartAt: cursor.StartAt, ID: cursor.ID}
			past := adLess(pivot, a)
			if inverted {
				past = adLess(a, pivot)
			}
			if !past {
				continue
			}
		}
		out = append(out, a)
		if int32(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockStore) CreateAdvertisement(_ context.Context, in CreateAdvertisementInput, creatorID uuid.UUID) (*Advertisement, error) {
	if m.err != nil {
		return nil, m.err
	}
	a := &Advertisement{
		ID:             uuid.New(),
		OrganizationID: in.OrganizationID,
		Name:           in.Name,
		Description:    in.Description,
		Type:           in.Type,
		StartAt:        in.StartAt,
		EndAt:          in.EndAt,
		CreatorID:      &creatorID,
	}
	m.ads[a.ID] = a
	cp := *a
	return &cp, nil
}

func (m *mockStore) DeleteAdvertisement(_ context.Context, id uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.ads[id]; !ok {
		return ErrNotFound
	}
	delete(m.ads, id)
	return nil
}

func member(orgID uuid.UUID, role gate.Role) *gate.Principal {
	return &gate.Principal{
		UserID:      uuid.New(),
		Role:        gate.RoleRegular,
		Memberships: map[uuid.UUID]gate.Role{orgID: role},
	}
}

func requireCode(t *testing.T, err error, code gqlerr.Code) *gqlerr.Error {
	t.Helper()
	ge, ok := gqlerr.As(err)
	require.True(t, ok, "expected gqlerr, got %v", err)
	require.Equal(t, code, ge.Code)
	return ge
}

var testNow = time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)

func seedAd(store *mockStore, orgID uuid.UUID, name string, start, end time.Time) *Advertisement {
	a := &Advertisement{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           name,
		Type:           TypeBanner,
		StartAt:        start,
		EndAt:          end,
	}
	store.ads[a.ID] = a
	return a
}

func newService(store *mockStore) *Service {
	svc := NewService(store)
	svc.now = func() time.Time { return testNow }
	return svc
}

// ==== VISIBILITY ====

func TestListMemberSeesOnlyActive(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	seedAd(store, orgID, "live", testNow.AddDate(0, 0, -1), testNow.AddDate(0, 0, 1))
	seedAd(store, orgID, "expired", testNow.AddDate(0, -1, 0), testNow.AddDate(0, 0, -7))
	seedAd(store, orgID, "upcoming", testNow.AddDate(0, 0, 7), testNow.AddDate(0, 1, 0))
	svc := newService(store)

	first := int32(10)
	p := member(orgID, gate.RoleRegular)
	conn, err := svc.ListByOrganization(context.Background(), p, orgID, relay.PageArgs{First: &first})
	require.NoError(t, err)
	require.Len(t, conn.Edges, 1)
	assert.Equal(t, "live", conn.Edges[0].Node.Name)

	admin := member(orgID, gate.RoleAdministrator)
	conn, err = svc.ListByOrganization(context.Background(), admin, orgID, relay.PageArgs{First: &first})
	require.NoError(t, err)
	assert.Len(t, conn.Edges, 3, "administrators see the full set")
}

func TestGetInactiveHiddenFromMembers(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	ad := seedAd(store, orgID, "upcoming", testNow.AddDate(0, 0, 7), testNow.AddDate(0, 1, 0))
	svc := newService(store)

	p := member(orgID, gate.RoleRegular)
	_, err := svc.Get(context.Background(), p, ad.ID)
	requireCode(t, err, gqlerr.CodeResourcesNotFound)

	admin := member(orgID, gate.RoleAdministrator)
	got, err := svc.Get(context.Background(), admin, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, ad.ID, got.ID)
}

func TestListRequiresMembership(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	svc := newService(store)

	first := int32(5)
	outsider := member(uuid.New(), gate.RoleRegular)
	_, err := svc.ListByOrganization(context.Background(), outsider, orgID, relay.PageArgs{First: &first})
	requireCode(t, err, gqlerr.CodeUnauthorized)
}

// ==== CREATE / DELETE ====

func TestCreateRequiresOrgAdmin(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	svc := newService(store)
	in := CreateAdvertisementInput{
		OrganizationID: orgID,
		Name:           "Bake Sale",
		Type:           TypeBanner,
		StartAt:        testNow,
		EndAt:          testNow.AddDate(0, 0, 7),
	}

	regular := member(orgID, gate.RoleRegular)
	_, err := svc.Create(context.Background(), regular, in)
	requireCode(t, err, gqlerr.CodeUnauthorizedOnArguments)

	admin := member(orgID, gate.RoleAdministrator)
	ad, err := svc.Create(context.Background(), admin, in)
	require.NoError(t, err)
	assert.Equal(t, TypeBanner, ad.Type)
}

func TestCreateRejectsInvertedWindow(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	svc := newService(store)
	admin := member(orgID, gate.RoleAdministrator)

	_, err := svc.Create(context.Background(), admin, CreateAdvertisementInput{
		OrganizationID: orgID,
		Name:           "Backwards",
		Type:           TypeMenu,
		StartAt:        testNow,
		EndAt:          testNow.AddDate(0, 0, -1),
	})
	requireCode(t, err, gqlerr.CodeInvalidArguments)
}

func TestDeleteRequiresOrgAdmin(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	ad := seedAd(store, orgID, "old", testNow.AddDate(0, -1, 0), testNow.AddDate(0, 1, 0))
	svc := newService(store)

	regular := member(orgID, gate.RoleRegular)
	_, err := svc.Delete(context.Background(), regular, ad.ID)
	requireCode(t, err, gqlerr.CodeUnauthorizedOnArguments)

	admin := member(orgID, gate.RoleAdministrator)
	got, err := svc.Delete(context.Background(), admin, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, ad.ID, got.ID)
	assert.Empty(t, store.ads)
}
