// Package events implements the club calendar: event CRUD, per-occurrence
// cancellations and overrides, visibility filtering, and the feed that
// expands recurring events into concrete occurrences for a query window.
package events

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hockey-club/backend/internal/models"
	"github.com/hockey-club/backend/internal/recurrence"
)

// descriptionLimit bounds the description text shipped per occurrence.
const descriptionLimit = 500

// ExtendedProps carries the occurrence detail fields of the wire record.
// OccurrenceStart is always the nominal start computed by the recurrence
// rule — never an overridden time — so the client can hand it straight back
// to the cancel/edit occurrence endpoints.
type ExtendedProps struct {
	EventID         string `json:"eventId"`
	OccurrenceStart string `json:"occurrenceStart"`
	Location        string `json:"location,omitempty"`
	Description     string `json:"description,omitempty"`
	Topic           string `json:"topic,omitempty"`
	Recurring       bool   `json:"recurring"`
}

// FeedItem is one occurrence record in the calendar feed, shaped for
// FullCalendar's event source contract.
type FeedItem struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Start         string        `json:"start"`
	End           string        `json:"end,omitempty"`
	AllDay        bool          `json:"allDay"`
	Color         string        `json:"color,omitempty"`
	ExtendedProps ExtendedProps `json:"extendedProps"`

	// Parsed forms of Start/End, kept for the ICS exporter.
	startTime time.Time
	endTime   *time.Time
}

// Assembler turns stored events plus a query window into the feed. It is
// stateless and safe for concurrent use.
type Assembler struct {
	logger *zap.Logger
}

// NewAssembler creates a feed assembler.
func NewAssembler(logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{logger: logger}
}

// Feed computes all occurrences the viewer may see in [windowStart,
// windowEnd]. Cancellations and overrides are passed pre-grouped by event
// id. Per-event expansion failures are logged and skipped so one broken
// rule never empties the rest of the feed.
func (a *Assembler) Feed(
	all []models.Event,
	cancellations map[uuid.UUID][]time.Time,
	overrides map[uuid.UUID][]models.EventOverride,
	viewer Viewer,
	windowStart, windowEnd time.Time,
) []FeedItem {
	items := make([]FeedItem, 0)

	for _, ev := range Visible(all, viewer) {
		// Each event's window comparison happens in that event's own
		// location.
		winA := recurrence.AlignTo(ev.Start, windowStart)
		winB := recurrence.AlignTo(ev.Start, windowEnd)

		if !ev.IsRecurring {
			evEnd := ev.Start
			if ev.End != nil {
				evEnd = *ev.End
			}
			if !evEnd.Before(winA) && !ev.Start.After(winB) {
				items = append(items, baseItem(ev, recurrence.Occurrence{Start: ev.Start, End: ev.End}))
			}
			continue
		}

		if strings.TrimSpace(ev.RRule) == "" {
			continue
		}

		occs, err := recurrence.Expand(ev, winA, winB)
		if err != nil {
			a.logger.Warn("skipping event with unexpandable rule",
				zap.String("event_id", ev.ID.String()),
				zap.Error(err),
			)
			continue
		}

		cancelled := instantSet(cancellations[ev.ID])
		overridden := overrideIndex(overrides[ev.ID])
		for _, occ := range occs {
			if item, ok := resolveOccurrence(ev, occ, cancelled, overridden); ok {
				items = append(items, item)
			}
		}
	}
	return items
}

// resolveOccurrence applies cancellations and overrides to one candidate
// occurrence. It produces exactly one item per non-cancelled candidate;
// override fields substitute only when set, otherwise the base value holds.
func resolveOccurrence(
	ev models.Event,
	occ recurrence.Occurrence,
	cancelled map[time.Time]struct{},
	overridden map[time.Time]models.EventOverride,
) (FeedItem, bool) {
	key := instantKey(occ.Start)
	if _, gone := cancelled[key]; gone {
		return FeedItem{}, false
	}
	if o, ok := overridden[key]; ok {
		return overriddenItem(ev, occ, o), true
	}
	return baseItem(ev, occ), true
}

func baseItem(ev models.Event, occ recurrence.Occurrence) FeedItem {
	item := FeedItem{
		ID:     ev.ID.String(),
		Title:  ev.Title,
		Start:  occ.Start.Format(time.RFC3339),
		AllDay: ev.AllDay,
		ExtendedProps: ExtendedProps{
			EventID:         ev.ID.String(),
			OccurrenceStart: occ.Start.Format(time.RFC3339),
			Location:        ev.Location,
			Description:     truncate(ev.Description, descriptionLimit),
			Recurring:       ev.IsRecurring,
		},
		startTime: occ.Start,
		endTime:   occ.End,
	}
	if occ.End != nil {
		item.End = occ.End.Format(time.RFC3339)
	}
	if ev.Topic != nil {
		item.ExtendedProps.Topic = ev.Topic.Name
		item.Color = ev.Topic.Color
	}
	return item
}

func overriddenItem(ev models.Event, occ recurrence.Occurrence, o models.EventOverride) FeedItem {
	start := occ.Start
	if o.NewStart != nil {
		start = *o.NewStart
	}
	end := occ.End
	if o.NewEnd != nil {
		end = o.NewEnd
	}

	item := baseItem(ev, recurrence.Occurrence{Start: start, End: end})
	// The lookup key stays the nominal start even when the time moved.
	item.ExtendedProps.OccurrenceStart = occ.Start.Format(time.RFC3339)

	if o.NewTitle != nil && *o.NewTitle != "" {
		item.Title = *o.NewTitle
	}
	if o.NewLocation != nil && *o.NewLocation != "" {
		item.ExtendedProps.Location = *o.NewLocation
	}
	if o.NewDescription != nil && *o.NewDescription != "" {
		item.ExtendedProps.Description = truncate(*o.NewDescription, descriptionLimit)
	}
	topic := ev.Topic
	if o.NewTopic != nil {
		topic = o.NewTopic
	}
	if topic != nil {
		item.ExtendedProps.Topic = topic.Name
		if topic.Color != "" {
			item.Color = topic.Color
		}
	}
	return item
}

// instantKey normalizes a time for cancellation/override lookup: the key is
// the instant, regardless of which zone either side was expressed in.
func instantKey(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func instantSet(times []time.Time) map[time.Time]struct{} {
	set := make(map[time.Time]struct{}, len(times))
	for _, t := range times {
		set[instantKey(t)] = struct{}{}
	}
	return set
}

func overrideIndex(overrides []models.EventOverride) map[time.Time]models.EventOverride {
	idx := make(map[time.Time]models.EventOverride, len(overrides))
	for _, o := range overrides {
		idx[instantKey(o.OccurrenceStart)] = o
	}
	return idx
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
