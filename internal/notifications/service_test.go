package notifications

import (
	"context"
	"io"
	"log/slog"
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

type storedDelivery struct {
	notification Notification
	readAt       *time.Time
}

type mockStore struct {
	deliveries map[uuid.UUID][]storedDelivery // keyed by recipient
	err        error
}

func newMockStore() *mockStore {
	return &mockStore{deliveries: make(map[uuid.UUID][]storedDelivery)}
}

func (m *mockStore) InsertWithRecipients(_ context.Context, n *Notification, recipients []uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	for _, userID := range recipients {
		m.deliveries[userID] = append(m.deliveries[userID], storedDelivery{notification: *n})
	}
	return nil
}

func deliveryLess(a, b Delivery) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func (m *mockStore) DeliveriesOf(_ context.Context, userID uuid.UUID, limit int32, cursor *DeliveryKey, inverted bool) ([]Delivery, error) {
	if m.err != nil {
		return nil, m.err
	}
	var all []Delivery
	for _, sd := range m.deliveries[userID] {
		all = append(all, Delivery{Notification: sd.notification, RecipientID: userID, ReadAt: sd.readAt})
	}
	// Forward order is newest-first.
	sort.Slice(all, func(i, j int) bool {
		if inverted {
			return deliveryLess(all[i], all[j])
		}
		return deliveryLess(all[j], all[i])
	})
	var out []Delivery
	for _, d := range all {
		if cursor != nil {
			pivot := Delivery{Notification: Notification{CreatedAt: cursor.CreatedAt, ID: cursor.ID}}
			past := deliveryLess(d, pivot)
			if inverted {
				past = deliveryLess(pivot, d)
			}
			if !past {
				continue
			}
		}
		out = append(out, d)
		if int32(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockStore) MarkRead(_ context.Context, notificationID, userID uuid.UUID, at time.Time) error {
	if m.err != nil {
		return m.err
	}
	for i, sd := range m.deliveries[userID] {
		if sd.notification.ID == notificationID && sd.readAt == nil {
			m.deliveries[userID][i].readAt = &at
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) UnreadCount(_ context.Context, userID uuid.UUID) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for _, sd := range m.deliveries[userID] {
		if sd.readAt == nil {
			n++
		}
	}
	return n, nil
}

type stubAudience struct{ members map[uuid.UUID][]uuid.UUID }

func (s stubAudience) MemberIDs(_ context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	return s.members[orgID], nil
}

type recordingDispatcher struct {
	enqueued []uuid.UUID
	err      error
}

func (d *recordingDispatcher) EnqueueNotification(_ context.Context, id uuid.UUID) error {
	if d.err != nil {
		return d.err
	}
	d.enqueued = append(d.enqueued, id)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func principal(userID uuid.UUID) *gate.Principal {
	return &gate.Principal{UserID: userID, Role: gate.RoleRegular}
}

func requireCode(t *testing.T, err error, code gqlerr.Code) {
	t.Helper()
	ge, ok := gqlerr.As(err)
	require.True(t, ok, "expected gqlerr, got %v", err)
	require.Equal(t, code, ge.Code)
}

// ==== PUBLISH ====

func TestPublishFansOutExcludingActor(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	actor := uuid.New()
	other1, other2 := uuid.New(), uuid.New()
	audience := stubAudience{members: map[uuid.UUID][]uuid.UUID{orgID: {actor, other1, other2}}}
	dispatcher := &recordingDispatcher{}
	svc := NewService(store, audience, dispatcher, testLogger())

	n, err := svc.Publish(context.Background(), Broadcast{
		OrganizationID: orgID,
		Kind:           KindPostCreated,
		Payload:        map[string]string{"postId": "abc"},
		ExcludeUserID:  actor,
	})
	require.NoError(t, err)

	assert.Empty(t, store.deliveries[actor], "actor is not notified about their own write")
	assert.Len(t, store.deliveries[other1], 1)
	assert.Len(t, store.deliveries[other2], 1)
	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, n.ID, dispatcher.enqueued[0])
}

func TestPublishEmptyAudienceSkipsStore(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	actor := uuid.New()
	audience := stubAudience{members: map[uuid.UUID][]uuid.UUID{orgID: {actor}}}
	dispatcher := &recordingDispatcher{}
	svc := NewService(store, audience, dispatcher, testLogger())

	_, err := svc.Publish(context.Background(), Broadcast{
		OrganizationID: orgID,
		Kind:           KindEventCreated,
		Payload:        map[string]string{},
		ExcludeUserID:  actor,
	})
	require.NoError(t, err)
	assert.Empty(t, store.deliveries)
	assert.Empty(t, dispatcher.enqueued)
}

func TestPublishSurvivesDispatchFailure(t *testing.T) {
	store := newMockStore()
	orgID := uuid.New()
	recipient := uuid.New()
	audience := stubAudience{members: map[uuid.UUID][]uuid.UUID{orgID: {recipient}}}
	dispatcher := &recordingDispatcher{err: assert.AnError}
	svc := NewService(store, audience, dispatcher, testLogger())

	_, err := svc.Publish(context.Background(), Broadcast{
		OrganizationID: orgID,
		Kind:           KindChatMessage,
		Payload:        map[string]string{"chatId": "x"},
	})
	require.NoError(t, err, "feed write is durable even when the queue is down")
	assert.Len(t, store.deliveries[recipient], 1)
}

// ==== FEED ====

func TestFeedNewestFirstWithResume(t *testing.T) {
	store := newMockStore()
	userID := uuid.New()
	base := time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		n := Notification{ID: uuid.New(), Kind: KindPostCreated, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		store.deliveries[userID] = append(store.deliveries[userID], storedDelivery{notification: n})
	}
	svc := NewService(store, stubAudience{}, nil, testLogger())
	p := principal(userID)

	first := int32(3)
	conn, err := svc.Feed(context.Background(), p, relay.PageArgs{First: &first})
	require.NoError(t, err)
	require.Len(t, conn.Edges, 3)
	assert.True(t, conn.PageInfo.HasNextPage)
	assert.True(t, conn.Edges[0].Node.CreatedAt.After(conn.Edges[1].Node.CreatedAt), "newest first")

	rest, err := svc.Feed(context.Background(), p, relay.PageArgs{First: &first, After: conn.PageInfo.EndCursor})
	require.NoError(t, err)
	require.Len(t, rest.Edges, 2)
	assert.Equal(t, base, rest.Edges[1].Node.CreatedAt)
}

func TestFeedRequiresAuthentication(t *testing.T) {
	svc := NewService(newMockStore(), stubAudience{}, nil, testLogger())
	first := int32(3)
	_, err := svc.Feed(context.Background(), nil, relay.PageArgs{First: &first})
	requireCode(t, err, gqlerr.CodeUnauthenticated)
}

// ==== READ MARKS ====

func TestMarkReadAndUnreadCount(t *testing.T) {
	store := newMockStore()
	userID := uuid.New()
	n := Notification{ID: uuid.New(), Kind: KindMembershipAdded, CreatedAt: time.Now()}
	store.deliveries[userID] = []storedDelivery{{notification: n}}
	svc := NewService(store, stubAudience{}, nil, testLogger())
	p := principal(userID)

	count, err := svc.UnreadCount(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, svc.MarkRead(context.Background(), p, n.ID))

	count, err = svc.UnreadCount(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	err = svc.MarkRead(context.Background(), p, n.ID)
	requireCode(t, err, gqlerr.CodeResourcesNotFound)
}

func TestMarkReadForeignDelivery(t *testing.T) {
	store := newMockStore()
	owner := uuid.New()
	n := Notification{ID: uuid.New(), Kind: KindChatMessage, CreatedAt: time.Now()}
	store.deliveries[owner] = []storedDelivery{{notification: n}}
	svc := NewService(store, stubAudience{}, nil, testLogger())

	stranger := principal(uuid.New())
	err := svc.MarkRead(context.Background(), stranger, n.ID)
	requireCode(t, err, gqlerr.CodeResourcesNotFound)
}
