package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskNotificationDispatch delivers a stored notification to external
	// channels after the feed rows are committed.
	TaskNotificationDispatch = "notification:dispatch"
	// TaskInstanceMaterialize extends the materialized occurrence window of
	// recurring events. Scheduled via cron.
	TaskInstanceMaterialize = "events:materialize_instances"
)

// NotificationDispatchPayload identifies the notification to deliver. The
// row itself is the source of truth; the payload stays a bare reference so
// a retried task always sees current data.
type NotificationDispatchPayload struct {
	NotificationID uuid.UUID `json:"notification_id"`
}

// NewNotificationDispatchTask constructs an Asynq task.
func NewNotificationDispatchTask(payload NotificationDispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, data), nil
}

// InstanceMaterializePayload bounds how far ahead occurrences are generated.
type InstanceMaterializePayload struct {
	HorizonDays int `json:"horizon_days"`
}

// NewInstanceMaterializeTask constructs an Asynq task.
func NewInstanceMaterializeTask(payload InstanceMaterializePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInstanceMaterialize, data), nil
}
