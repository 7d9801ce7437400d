package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a calendar series definition: either a single dated entry or,
// when IsRecurring is set, the anchor from which concrete occurrences are
// derived. Invariant: IsRecurring is true exactly when RRule is non-empty.
type Event struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`

	Start  time.Time  `json:"start"`
	End    *time.Time `json:"end,omitempty"` // nil means zero duration
	AllDay bool       `json:"all_day"`

	TopicID *uuid.UUID `json:"topic_id,omitempty"`
	Topic   *Topic     `json:"topic,omitempty"`

	IsRecurring   bool       `json:"is_recurring"`
	RRule         string     `json:"rrule"`
	RecurrenceEnd *time.Time `json:"recurrence_end,omitempty"`

	// Visibility restriction sets. Both empty means public.
	VisibleToGroups []uuid.UUID `json:"visible_to_groups"`
	VisibleToTeams  []uuid.UUID `json:"visible_to_teams"`

	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Duration returns the base occurrence's duration, or false when the event
// has no end time.
func (e *Event) Duration() (time.Duration, bool) {
	if e.End == nil {
		return 0, false
	}
	return e.End.Sub(e.Start), true
}

// EventCancellation suppresses exactly one occurrence of a recurring event.
// The row is keyed by the nominal occurrence start computed by the recurrence
// rule, never by an overridden time, so the same logical occurrence can be
// found again after its displayed time changes.
type EventCancellation struct {
	ID              uuid.UUID `json:"id"`
	EventID         uuid.UUID `json:"event_id"`
	OccurrenceStart time.Time `json:"occurrence_start"`
	CreatedAt       time.Time `json:"created_at"`
}

// EventOverride replaces a subset of fields for one occurrence of a
// recurring event. Nil fields fall back to the base event's values. Keyed
// like EventCancellation by the nominal occurrence start.
type EventOverride struct {
	ID              uuid.UUID `json:"id"`
	EventID         uuid.UUID `json:"event_id"`
	OccurrenceStart time.Time `json:"occurrence_start"`

	NewTitle       *string    `json:"new_title,omitempty"`
	NewStart       *time.Time `json:"new_start,omitempty"`
	NewEnd         *time.Time `json:"new_end,omitempty"`
	NewLocation    *string    `json:"new_location,omitempty"`
	NewDescription *string    `json:"new_description,omitempty"`
	NewTopicID     *uuid.UUID `json:"new_topic_id,omitempty"`
	NewTopic       *Topic     `json:"new_topic,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
