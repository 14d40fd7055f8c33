package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/assembly-hq/assembly/internal/events"
	"github.com/assembly-hq/assembly/internal/notifications"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRecurrenceStore struct {
	events   []events.Event
	horizons []time.Time
	failFor  map[uuid.UUID]error
}

func (f *fakeRecurrenceStore) RecurringEvents(context.Context) ([]events.Event, error) {
	return f.events, nil
}

func (f *fakeRecurrenceStore) MaterializeInstances(_ context.Context, ev *events.Event, horizon time.Time) (int, error) {
	f.horizons = append(f.horizons, horizon)
	if err := f.failFor[ev.ID]; err != nil {
		return 0, err
	}
	return 2, nil
}

func materializeTask(t *testing.T, payload InstanceMaterializePayload) *asynq.Task {
	t.Helper()
	task, err := NewInstanceMaterializeTask(payload)
	require.NoError(t, err)
	return task
}

func TestMaterializeUsesDefaultHorizon(t *testing.T) {
	store := &fakeRecurrenceStore{events: []events.Event{{ID: uuid.New()}}}
	m := NewInstanceMaterializer(store, testLogger())
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	err := m.Handle(context.Background(), materializeTask(t, InstanceMaterializePayload{}))
	require.NoError(t, err)
	require.Len(t, store.horizons, 1)
	require.Equal(t, now.Add(DefaultHorizonDays*24*time.Hour), store.horizons[0])
}

func TestMaterializeContinuesPastFailures(t *testing.T) {
	bad := uuid.New()
	store := &fakeRecurrenceStore{
		events:  []events.Event{{ID: bad}, {ID: uuid.New()}},
		failFor: map[uuid.UUID]error{bad: errors.New("boom")},
	}
	m := NewInstanceMaterializer(store, testLogger())

	err := m.Handle(context.Background(), materializeTask(t, InstanceMaterializePayload{HorizonDays: 7}))
	require.Error(t, err)
	// Both events were attempted despite the first one failing.
	require.Len(t, store.horizons, 2)
}

func TestMaterializeRejectsBadPayload(t *testing.T) {
	m := NewInstanceMaterializer(&fakeRecurrenceStore{}, testLogger())
	err := m.Handle(context.Background(), asynq.NewTask(TaskInstanceMaterialize, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type fakeNotificationSource struct {
	notifications map[uuid.UUID]notifications.Notification
	recipients    map[uuid.UUID][]uuid.UUID
}

func (f *fakeNotificationSource) NotificationByID(_ context.Context, id uuid.UUID) (*notifications.Notification, error) {
	n, ok := f.notifications[id]
	if !ok {
		return nil, notifications.ErrNotFound
	}
	return &n, nil
}

func (f *fakeNotificationSource) RecipientIDs(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	return f.recipients[id], nil
}

func TestDispatchDeliversStoredNotification(t *testing.T) {
	id := uuid.New()
	source := &fakeNotificationSource{
		notifications: map[uuid.UUID]notifications.Notification{
			id: {ID: id, Kind: notifications.KindPostCreated, Payload: json.RawMessage(`{}`)},
		},
		recipients: map[uuid.UUID][]uuid.UUID{id: {uuid.New(), uuid.New()}},
	}
	d := NewNotificationDispatcher(source, testLogger())

	task, err := NewNotificationDispatchTask(NotificationDispatchPayload{NotificationID: id})
	require.NoError(t, err)
	require.NoError(t, d.Handle(context.Background(), task))
}

func TestDispatchSkipsDeletedNotification(t *testing.T) {
	d := NewNotificationDispatcher(&fakeNotificationSource{
		notifications: map[uuid.UUID]notifications.Notification{},
	}, testLogger())

	task, err := NewNotificationDispatchTask(NotificationDispatchPayload{NotificationID: uuid.New()})
	require.NoError(t, err)
	require.ErrorIs(t, d.Handle(context.Background(), task), asynq.SkipRetry)
}
