package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/assembly-hq/assembly/internal/notifications"
)

// NotificationSource loads stored notifications for delivery. The
// notifications repository satisfies it.
type NotificationSource interface {
	NotificationByID(ctx context.Context, id uuid.UUID) (*notifications.Notification, error)
	RecipientIDs(ctx context.Context, notificationID uuid.UUID) ([]uuid.UUID, error)
}

// NotificationDispatcher handles TaskNotificationDispatch: it re-reads the
// notification and pushes it to external channels. The in-app feed row is
// written before the task is enqueued, so a lost or failed task never loses
// the notification itself.
type NotificationDispatcher struct {
	source NotificationSource
	logger *slog.Logger
}

func NewNotificationDispatcher(source NotificationSource, logger *slog.Logger) *NotificationDispatcher {
	return &NotificationDispatcher{source: source, logger: logger}
}

// Handle processes one dispatch task.
func (d *NotificationDispatcher) Handle(ctx context.Context, t *asynq.Task) error {
	var payload NotificationDispatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	n, err := d.source.NotificationByID(ctx, payload.NotificationID)
	if errors.Is(err, notifications.ErrNotFound) {
		// Row deleted after enqueue; nothing left to deliver.
		return asynq.SkipRetry
	}
	if err != nil {
		return fmt.Errorf("load notification %s: %w", payload.NotificationID, err)
	}
	recipients, err := d.source.RecipientIDs(ctx, n.ID)
	if err != nil {
		return fmt.Errorf("load recipients of %s: %w", n.ID, err)
	}
	// Push and email delivery integrate here; until then the dispatch is
	// only recorded.
	d.logger.Info("notification dispatched",
		slog.String("notification_id", n.ID.String()),
		slog.String("kind", string(n.Kind)),
		slog.Int("recipients", len(recipients)))
	return nil
}
