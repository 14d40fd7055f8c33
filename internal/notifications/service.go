package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/assembly-hq/assembly/internal/gate"
	"github.com/assembly-hq/assembly/internal/gqlerr"
	"github.com/assembly-hq/assembly/internal/relay"
)

// Store is the persistence surface the service needs.
type Store interface {
	InsertWithRecipients(ctx context.Context, n *Notification, recipients []uuid.UUID) error
	DeliveriesOf(ctx context.Context, userID uuid.UUID, limit int32, cursor *DeliveryKey, inverted bool) ([]Delivery, error)
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID, at time.Time) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

// AudienceSource lists the members of an organization for fan-out.
type AudienceSource interface {
	MemberIDs(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error)
}

// Dispatcher pushes a stored notification to out-of-band channels. The
// asynq-backed jobs client satisfies it; a nil dispatcher disables
// delivery without affecting the feed.
type Dispatcher interface {
	EnqueueNotification(ctx context.Context, notificationID uuid.UUID) error
}

// Service owns the notification feed.
type Service struct {
	store      Store
	audience   AudienceSource
	dispatcher Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(store Store, audience AudienceSource, dispatcher Dispatcher, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		audience:   audience,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Publish fans a notification out to the organization's members. This is
// an internal entry point called by other services after their own writes
// commit; it is not exposed as an API operation. Dispatch failures are
// logged and swallowed: the feed row is already durable and the worker
// retries from the queue.
func (s *Service) Publish(ctx context.Context, b Broadcast) (*Notification, error) {
	payload, err := json.Marshal(b.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode notification payload: %w", err)
	}
	members, err := s.audience.MemberIDs(ctx, b.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("resolve audience: %w", err)
	}
	recipients := members[:0:0]
	for _, id := range members {
		if id != b.ExcludeUserID {
			recipients = append(recipients, id)
		}
	}
	n := &Notification{
		ID:             uuid.New(),
		OrganizationID: b.OrganizationID,
		Kind:           b.Kind,
		Payload:        payload,
		CreatedAt:      s.now().UTC(),
	}
	if len(recipients) == 0 {
		return n, nil
	}
	if err := s.store.InsertWithRecipients(ctx, n, recipients); err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueNotification(ctx, n.ID); err != nil {
			s.logger.Error("notification dispatch enqueue failed", "notification_id", n.ID, "error", err)
		}
	}
	return n, nil
}

// Broadcast is the fire-and-forget form of Publish for mutation paths that
// must not fail on notification trouble. Errors are logged and dropped.
func (s *Service) Broadcast(ctx context.Context, b Broadcast) {
	if _, err := s.Publish(ctx, b); err != nil {
		s.logger.Error("notification publish failed",
			"organization_id", b.OrganizationID,
			"kind", string(b.Kind),
			"error", err)
	}
}

// Feed pages the caller's notifications, newest-first.
func (s *Service) Feed(ctx context.Context, p *gate.Principal, args relay.PageArgs) (*relay.Connection[Delivery], error) {
	if p == nil {
		return nil, gqlerr.Unauthenticated()
	}
	conn, err := relay.Paginate(ctx, args,
		func(ctx context.Context, limit int32, cursor *DeliveryKey, inverted bool) ([]Delivery, error) {
			return s.store.DeliveriesOf(ctx, p.UserID, limit, cursor, inverted)
		},
		func(d Delivery) DeliveryKey { return DeliveryKey{CreatedAt: d.CreatedAt, ID: d.ID} })
	if err != nil {
		return nil, gqlerr.FromPagination(err)
	}
	return conn, nil
}

// MarkRead stamps one of the caller's deliveries as read.
func (s *Service) MarkRead(ctx context.Context, p *gate.Principal, notificationID uuid.UUID) error {
	if p == nil {
		return gqlerr.Unauthenticated()
	}
	err := s.store.MarkRead(ctx, notificationID, p.UserID, s.now().UTC())
	if errors.Is(err, ErrNotFound) {
		return gqlerr.ResourcesNotFound([]string{"input", "id"})
	}
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// UnreadCount reports the caller's unread delivery count.
func (s *Service) UnreadCount(ctx context.Context, p *gate.Principal) (int64, error) {
	if p == nil {
		return 0, gqlerr.Unauthenticated()
	}
	n, err := s.store.UnreadCount(ctx, p.UserID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}
