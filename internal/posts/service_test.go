package posts

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assembly-hq/assembly/internal/gate"
	"github.com/assembly-hq/assembly/internal/gqlerr"
	"github.com/assembly-hq/assembly/internal/relay"
)

// ==== FIXTURES ====

type voteKey struct {
	post  string
	voter uuid.UUID
}

type mockStore struct {
	posts map[string]*Post
	votes map[voteKey]VoteType
	err   error
}

func newMockStore() *mockStore {
	return &mockStore{
		posts: make(map[string]*Post),
		votes: make(map[voteKey]VoteType),
	}
}

func (m *mockStore) tally(p Post) Post {
	p.UpVotes, p.DownVotes = 0, 0
	for k, kind := range m.votes {
		if k.post != p.ID.String() {
			continue
		}
		if kind == VoteUp {
			p.UpVotes++
		} else {
			p.DownVotes++
		}
	}
	return p
}

func (m *mockStore) PostByID(_ context.Context, id ulid.ULID) (*Post, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.posts[id.String()]
	if !ok {
		return nil, ErrNotFound
	}
	cp := m.tally(*p)
	return &cp, nil
}

func (m *mockStore) PostsByOrganization(_ context.Context, orgID uuid.UUID, limit int32, cursor *PostKey, inverted bool) ([]Post, error) {
	if m.err != nil {
		return nil, m.err
	}
	var all []Post
	for _, p := range m.posts {
		if p.OrganizationID == orgID {
			all = append(all, m.tally(*p))
		}
	}
	// Forward order is newest-first.
	sort.Slice(all, func(i, j int) bool {
		if inverted {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].ID.String() > all[j].ID.String()
	})
	var out []Post
	for _, p := range all {
		if cursor != nil {
			past := p.ID.String() < cursor.ID
			if inverted {
				past = p.ID.String() > cursor.ID
			}
			if !past {
				continue
			}
		}
		out = append(out, p)
		if int32(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockStore) CreatePost(_ context.Context, in CreatePostInput, creatorID uuid.UUID) (*Post, error) {
	if m.err != nil {
		return nil, m.err
	}
	p := &Post{
		ID:             NewID(),
		OrganizationID: in.OrganizationID,
		Caption:        in.Caption,
		CreatorID:      creatorID,
		CreatedAt:      time.Now(),
	}
	m.posts[p.ID.String()] = p
	cp := *p
	return &cp, nil
}

func (m *mockStore) DeletePost(_ context.Context, id ulid.ULID) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.posts[id.String()]; !ok {
		return ErrNotFound
	}
	delete(m.posts, id.String())
	return nil
}

func (m *mockStore) CreateVote(_ context.Context, postID ulid.ULID, voterID uuid.UUID, kind VoteType) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.posts[postID.String()]; !ok {
		return ErrNotFound
	}
	k := voteKey{post: postID.String(), voter: voterID}
	if _, ok := m.votes[k]; ok {
		return ErrAlreadyVoted
	}
	m.votes[k] = kind
	return nil
}

func (m *mockStore) DeleteVote(_ context.Context, postID ulid.ULID, voterID uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	k := voteKey{post: postID.String(), voter: voterID}
	if _, ok := m.votes[k]; !ok {
		return ErrVoteNotFound
	}
	delete(m.votes, k)
	return nil
}

type stubOrgs struct{ known map[uuid.UUID]bool }

func (s stubOrgs) OrganizationExists(_ context.Context, id uuid.UUID) (bool, error) {
	return s.known[id], nil
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

func seedPost(store *mockStore, orgID uuid.UUID, caption string) *Post {
	p := &Post{ID: NewID(), OrganizationID: orgID, Caption: caption, CreatorID: uuid.New()}
	store.posts[p.ID.String()] = p
	return p
}

// ==== LIST ====

func TestListNewestFirstWithResume(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	var seeded []*Post
	for i := 0; i < 5; i++ {
		seeded = append(seeded, seedPost(store, orgID, "post"))
		time.Sleep(2 * time.Millisecond) // distinct ULID timestamps
	}
	svc := NewService(store, stubOrgs{})
	p := member(orgID, gate.RoleRegular)

	first := int32(3)
	conn, err := svc.ListByOrganization(context.Background(), p, orgID, relay.PageArgs{First: &first})
	require.NoError(t, err)
	require.Len(t, conn.Edges, 3)
	assert.Equal(t, seeded[4].ID, conn.Edges[0].Node.ID, "newest post leads the page")
	assert.True(t, conn.PageInfo.HasNextPage)

	rest, err := svc.ListByOrganization(context.Background(), p, orgID,
		relay.PageArgs{First: &first, After: conn.PageInfo.EndCursor})
	require.NoError(t, err)
	require.Len(t, rest.Edges, 2)
	assert.Equal(t, seeded[0].ID, rest.Edges[1].Node.ID, "oldest post closes the walk")
}

func TestListRequiresMembership(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	svc := NewService(store, stubOrgs{})

	first := int32(3)
	_, err := svc.ListByOrganization(context.Background(), nil, orgID, relay.PageArgs{First: &first})
	requireCode(t, err, gqlerr.CodeUnauthenticated)

	outsider := member(uuid.New(), gate.RoleRegular)
	_, err = svc.ListByOrganization(context.Background(), outsider, orgID, relay.PageArgs{First: &first})
	requireCode(t, err, gqlerr.CodeUnauthorized)
}

// ==== CREATE / DELETE ====

func TestCreateByMember(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	svc := NewService(store, stubOrgs{known: map[uuid.UUID]bool{orgID: true}})
	p := member(orgID, gate.RoleRegular)

	post, err := svc.Create(context.Background(), p, CreatePostInput{OrganizationID: orgID, Caption: "hello"})
	require.NoError(t, err)
	assert.Equal(t, p.UserID, post.CreatorID)

	outsider := member(uuid.New(), gate.RoleRegular)
	_, err = svc.Create(context.Background(), outsider, CreatePostInput{OrganizationID: orgID, Caption: "hello"})
	requireCode(t, err, gqlerr.CodeUnauthorizedOnArguments)
}

func TestCreateUnknownOrganization(t *testing.T) {
	svc := NewService(newMockStore(), stubOrgs{})
	p := member(uuid.New(), gate.RoleRegular)

	_, err := svc.Create(context.Background(), p, CreatePostInput{OrganizationID: uuid.New(), Caption: "x"})
	ge := requireCode(t, err, gqlerr.CodeResourcesNotFound)
	assert.Equal(t, []string{"input", "organizationId"}, ge.Issues[0].ArgumentPath)
}

func TestDeleteCreatorOrAdmin(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	post := seedPost(store, orgID, "mine")
	svc := NewService(store, stubOrgs{})

	stranger := member(orgID, gate.RoleRegular)
	_, err := svc.Delete(context.Background(), stranger, post.ID)
	requireCode(t, err, gqlerr.CodeUnauthorizedOnArguments)

	creator := &gate.Principal{
		UserID:      post.CreatorID,
		Role:        gate.RoleRegular,
		Memberships: map[uuid.UUID]gate.Role{orgID: gate.RoleRegular},
	}
	got, err := svc.Delete(context.Background(), creator, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
	assert.Empty(t, store.posts)
}

// ==== VOTES ====

func TestVoteOncePerUser(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	post := seedPost(store, orgID, "vote on me")
	svc := NewService(store, stubOrgs{})
	p := member(orgID, gate.RoleRegular)

	got, err := svc.Vote(context.Background(), p, post.ID, VoteUp)
	require.NoError(t, err)
	assert.Equal(t, int32(1), got.UpVotes)

	_, err = svc.Vote(context.Background(), p, post.ID, VoteDown)
	requireCode(t, err, gqlerr.CodeForbiddenOnArguments)
}

func TestVoteRejectsUnknownKind(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	post := seedPost(store, orgID, "x")
	svc := NewService(store, stubOrgs{})
	p := member(orgID, gate.RoleRegular)

	_, err := svc.Vote(context.Background(), p, post.ID, VoteType("sideways"))
	requireCode(t, err, gqlerr.CodeInvalidArguments)
}

func TestUnvoteWithoutVote(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	post := seedPost(store, orgID, "x")
	svc := NewService(store, stubOrgs{})
	p := member(orgID, gate.RoleRegular)

	_, err := svc.Unvote(context.Background(), p, post.ID)
	requireCode(t, err, gqlerr.CodeResourcesNotFound)

	_, err = svc.Vote(context.Background(), p, post.ID, VoteDown)
	require.NoError(t, err)
	got, err := svc.Unvote(context.Background(), p, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(0), got.DownVotes)
}
