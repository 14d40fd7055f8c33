// Package events manages organization events, including recurring events
// and their materialized instances.
package events

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates the event does not exist.
	ErrNotFound = errors.New("events: not found")
	// ErrInstanceNotFound indicates the recurring instance does not exist.
	ErrInstanceNotFound = errors.New("events: instance not found")
)

// Frequency is the closed set of recurrence frequencies.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ParseFrequency converts a storage frequency string to a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(s)) {
	case FrequencyDaily:
		return FrequencyDaily, nil
	case FrequencyWeekly:
		return FrequencyWeekly, nil
	case FrequencyMonthly:
		return FrequencyMonthly, nil
	default:
		return "", fmt.Errorf("events: unknown frequency %q", s)
	}
}

// Recurrence describes how a recurring event repeats.
type Recurrence struct {
	Frequency Frequency  `json:"frequency"`
	Interval  int        `json:"interval"`
	Until     *time.Time `json:"until,omitempty"`
}

// Next returns the occurrence following t.
func (r Recurrence) Next(t time.Time) time.Time {
	interval := r.Interval
	if interval <= 0 {
		interval = 1
	}
	switch r.Frequency {
	case FrequencyDaily:
		return t.AddDate(0, 0, interval)
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7*interval)
	default:
		return t.AddDate(0, interval, 0)
	}
}

// Occurrences lists the occurrence times from the series start up to the
// horizon, honoring Until when set.
func (r Recurrence) Occurrences(start, horizon time.Time) []time.Time {
	var out []time.Time
	for t := start; !t.After(horizon); t = r.Next(t) {
		if r.Until != nil && t.After(*r.Until) {
			break
		}
		out = append(out, t)
	}
	return out
}

// Event represents a scheduled event within an organization.
type Event struct {
	ID             uuid.UUID   `json:"id"`
	OrganizationID uuid.UUID   `json:"organization_id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	StartAt        time.Time   `json:"start_at"`
	EndAt          time.Time   `json:"end_at"`
	Recurrence     *Recurrence `json:"recurrence,omitempty"`
	CreatorID      *uuid.UUID  `json:"creator_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// IsRecurring reports whether the event repeats.
func (e *Event) IsRecurring() bool { return e.Recurrence != nil }

// Instance is one materialized occurrence of a recurring event.
type Instance struct {
	ID          uuid.UUID `json:"id"`
	EventID     uuid.UUID `json:"event_id"`
	OccursAt    time.Time `json:"occurs_at"`
	IsCancelled bool      `json:"is_cancelled"`
}

// StartKey is the sort key of the events connection.
type StartKey struct {
	StartAt time.Time `json:"startAt"`
	ID      uuid.UUID `json:"id"`
}

// CreateEventInput carries the fields for creating an event.
type CreateEventInput struct {
	OrganizationID uuid.UUID `validate:"required"`
	Name           string    `validate:"required,max=256"`
	Description    string    `validate:"max=2048"`
	StartAt        time.Time `validate:"required"`
	EndAt          time.Time `validate:"required,gtfield=StartAt"`
	Recurrence     *Recurrence
}
