package tags

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assembly-hq/assembly/internal/gate"
	"github.com/assembly-hq/assembly/internal/gqlerr"
	"github.com/assembly-hq/assembly/internal/relay"
)

// ==== FIXTURES ====

type assignKey struct {
	tag    uuid.UUID
	member uuid.UUID
}

type mockStore struct {
	tags        map[uuid.UUID]*Tag
	assignments map[assignKey]bool
	err         error
}

func newMockStore() *mockStore {
	return &mockStore{
		tags:        make(map[uuid.UUID]*Tag),
		assignments: make(map[assignKey]bool),
	}
}

func (m *mockStore) TagByID(_ context.Context, id uuid.UUID) (*Tag, error) {
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.tags[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func tagLess(a, b Tag) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID.String() < b.ID.String()
}

func (m *mockStore) TagsByOrganization(_ context.Context, orgID uuid.UUID, limit int32, cursor *TagKey, inverted bool) ([]Tag, error) {
	if m.err != nil {
		return nil, m.err
	}
	var all []Tag
	for _, t := range m.tags {
		if t.OrganizationID == orgID {
			all = append(all, *t)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if inverted {
			return tagLess(all[j], all[i])
		}
		return tagLess(all[i], all[j])
	})
	var out []Tag
	for _, t := range all {
		if cursor != nil {
			pivot := Tag{Name: cursor.Name, ID: cursor.ID}
			past := tagLess(pivot, t)
			if inverted {
				past = tagLess(t, pivot)
			}
			if !past {
				continue
			}
		}
		out = append(out, t)
		if int32(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockStore) CreateTag(_ context.Context, in CreateTagInput, creatorID uuid.UUID) (*Tag, error) {
	if m.err != nil {
		return nil, m.err
	}
	t := &Tag{
		ID:             uuid.New(),
		OrganizationID: in.OrganizationID,
		Name:           in.Name,
		ParentTagID:    in.ParentTagID,
		CreatorID:      &creatorID,
	}
	m.tags[t.ID] = t
	cp := *t
	return &cp, nil
}

func (m *mockStore) AssignTag(_ context.Context, tagID, memberID uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	k := assignKey{tag: tagID, member: memberID}
	if m.assignments[k] {
		return ErrAlreadyAssigned
	}
	m.assignments[k] = true
	return nil
}

func (m *mockStore) UnassignTag(_ context.Context, tagID, memberID uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	k := assignKey{tag: tagID, member: memberID}
	if !m.assignments[k] {
		return ErrAssignmentNotFound
	}
	delete(m.assignments, k)
	return nil
}

func (m *mockStore) TagsOfMember(_ context.Context, orgID, memberID uuid.UUID) ([]Tag, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []Tag
	for k, ok := range m.assignments {
		if !ok || k.member != memberID {
			continue
		}
		if t, exists := m.tags[k.tag]; exists && t.OrganizationID == orgID {
			out = append(out, *t)
		}
	}
	return out, nil
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

func seedTag(store *mockStore, orgID uuid.UUID, name string) *Tag {
	tg := &Tag{ID: uuid.New(), OrganizationID: orgID, Name: name}
	store.tags[tg.ID] = tg
	return tg
}

// ==== COLLATION ====

func TestSortNamesCollation(t *testing.T) {
	names := []string{"zebra", "Émile", "apple", "Apple"}
	SortNames(names)
	assert.Equal(t, "Émile", names[2], "accented name sorts by letter, not byte value")
	assert.Equal(t, "zebra", names[3])
}

func TestSortTagsStableOnTies(t *testing.T) {
	orgID := uuid.New()
	list := []Tag{
		{ID: uuid.MustParse("ffffffff-0000-0000-0000-000000000000"), OrganizationID: orgID, Name: "dup"},
		{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), OrganizationID: orgID, Name: "dup"},
	}
	SortTags(list)
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", list[0].ID.String())
}

// ==== LIST / CREATE ====

func TestListByOrganizationPagination(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	for _, name := range []string{"delta", "alpha", "charlie", "bravo"} {
		seedTag(store, orgID, name)
	}
	svc := NewService(store)
	p := member(orgID, gate.RoleRegular)

	first := int32(3)
	conn, err := svc.ListByOrganization(context.Background(), p, orgID, relay.PageArgs{First: &first})
	require.NoError(t, err)
	require.Len(t, conn.Edges, 3)
	assert.Equal(t, "alpha", conn.Edges[0].Node.Name)
	assert.True(t, conn.PageInfo.HasNextPage)
}

func TestCreateRequiresOrgAdmin(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	svc := NewService(store)
	in := CreateTagInput{OrganizationID: orgID, Name: "volunteers"}

	regular := member(orgID, gate.RoleRegular)
	_, err := svc.Create(context.Background(), regular, in)
	requireCode(t, err, gqlerr.CodeUnauthorizedOnArguments)

	admin := member(orgID, gate.RoleAdministrator)
	tg, err := svc.Create(context.Background(), admin, in)
	require.NoError(t, err)
	assert.Equal(t, "volunteers", tg.Name)
}

func TestCreateForeignParentRejected(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	foreign := seedTag(store, uuid.New(), "elsewhere")
	svc := NewService(store)
	admin := member(orgID, gate.RoleAdministrator)

	_, err := svc.Create(context.Background(), admin, CreateTagInput{
		OrganizationID: orgID,
		Name:           "child",
		ParentTagID:    &foreign.ID,
	})
	requireCode(t, err, gqlerr.CodeInvalidArguments)
}

// ==== ASSIGNMENTS ====

func TestAssignOncePerMember(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	tg := seedTag(store, orgID, "greeter")
	svc := NewService(store)
	admin := member(orgID, gate.RoleAdministrator)
	memberID := uuid.New()

	_, err := svc.Assign(context.Background(), admin, AssignTagInput{TagID: tg.ID, MemberID: memberID})
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), admin, AssignTagInput{TagID: tg.ID, MemberID: memberID})
	requireCode(t, err, gqlerr.CodeForbiddenOnArguments)
}

func TestAssignRequiresOrgAdmin(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	tg := seedTag(store, orgID, "greeter")
	svc := NewService(store)

	regular := member(orgID, gate.RoleRegular)
	_, err := svc.Assign(context.Background(), regular, AssignTagInput{TagID: tg.ID, MemberID: uuid.New()})
	requireCode(t, err, gqlerr.CodeUnauthorizedOnArguments)
}

func TestUnassignMissingAssignment(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	tg := seedTag(store, orgID, "greeter")
	svc := NewService(store)
	admin := member(orgID, gate.RoleAdministrator)

	_, err := svc.Unassign(context.Background(), admin, AssignTagInput{TagID: tg.ID, MemberID: uuid.New()})
	ge := requireCode(t, err, gqlerr.CodeResourcesNotFound)
	assert.Equal(t, []string{"input", "memberId"}, ge.Issues[0].ArgumentPath)
}

func TestTagsOfMemberCollated(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	memberID := uuid.New()
	for _, name := range []string{"Órganizer", "usher", "Greeter"} {
		tg := seedTag(store, orgID, name)
		store.assignments[assignKey{tag: tg.ID, member: memberID}] = true
	}
	svc := NewService(store)
	p := member(orgID, gate.RoleRegular)

	list, err := svc.TagsOfMember(context.Background(), p, orgID, memberID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Greeter", list[0].Name)
	assert.Equal(t, "Órganizer", list[1].Name)
	assert.Equal(t, "usher", list[2].Name)
}
