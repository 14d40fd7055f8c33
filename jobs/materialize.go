package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/assembly-hq/assembly/internal/events"
)

// DefaultHorizonDays is how far ahead occurrences are generated when the
// task payload leaves the horizon unset.
const DefaultHorizonDays = 90

// RecurrenceStore is the slice of the event repository the materializer
// needs.
type RecurrenceStore interface {
	RecurringEvents(ctx context.Context) ([]events.Event, error)
	MaterializeInstances(ctx context.Context, ev *events.Event, horizon time.Time) (int, error)
}

// InstanceMaterializer handles TaskInstanceMaterialize: for every recurring
// event it inserts the occurrence rows between now and the horizon that do
// not exist yet. The insert is idempotent, so overlapping runs are harmless.
type InstanceMaterializer struct {
	store  RecurrenceStore
	logger *slog.Logger
	now    func() time.Time
}

func NewInstanceMaterializer(store RecurrenceStore, logger *slog.Logger) *InstanceMaterializer {
	return &InstanceMaterializer{store: store, logger: logger, now: time.Now}
}

// Handle processes one materialization task.
func (m *InstanceMaterializer) Handle(ctx context.Context, t *asynq.Task) error {
	var payload InstanceMaterializePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	days := payload.HorizonDays
	if days <= 0 {
		days = DefaultHorizonDays
	}
	horizon := m.now().UTC().Add(time.Duration(days) * 24 * time.Hour)

	evs, err := m.store.RecurringEvents(ctx)
	if err != nil {
		return fmt.Errorf("list recurring events: %w", err)
	}

	var created, failed int
	for i := range evs {
		ev := &evs[i]
		n, err := m.store.MaterializeInstances(ctx, ev, horizon)
		if err != nil {
			// Keep going; the next run retries whatever failed here.
			failed++
			m.logger.Error("materialize instances",
				slog.String("event_id", ev.ID.String()),
				slog.Any("error", err))
			continue
		}
		created += n
	}
	m.logger.Info("instance materialization complete",
		slog.Int("events", len(evs)),
		slog.Int("created", created),
		slog.Int("failed", failed),
		slog.Time("horizon", horizon))
	if failed > 0 {
		return fmt.Errorf("materialization failed for %d of %d events", failed, len(evs))
	}
	return nil
}
