package events

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hockey-club/backend/internal/models"
)

var london = mustLoadLocation("Europe/London")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

var anyone = Viewer{UserID: uuid.New(), Superuser: true}

func weeklyEvent() models.Event {
	start := time.Date(2025, 1, 6, 18, 0, 0, 0, london) // Mondays
	end := start.Add(time.Hour)
	return models.Event{
		ID:          uuid.New(),
		Title:       "Training",
		Description: "Weekly session",
		Location:    "Main pitch",
		Start:       start,
		End:         &end,
		IsRecurring: true,
		RRule:       "FREQ=WEEKLY;BYDAY=MO",
	}
}

func janWindow() (time.Time, time.Time) {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, london),
		time.Date(2025, 1, 31, 23, 59, 59, 0, london)
}

func TestFeed_ExpandsRecurringEvent(t *testing.T) {
	a := NewAssembler(nil)
	ev := weeklyEvent()
	winA, winB := janWindow()

	items := a.Feed([]models.Event{ev}, nil, nil, anyone, winA, winB)
	require.Len(t, items, 4)
	for _, item := range items {
		assert.Equal(t, ev.ID.String(), item.ID)
		assert.Equal(t, "Training", item.Title)
		assert.True(t, item.ExtendedProps.Recurring)
		assert.Equal(t, item.Start, item.ExtendedProps.OccurrenceStart)
	}
}

func TestFeed_CancellationSuppressesExactlyOneOccurrence(t *testing.T) {
	a := NewAssembler(nil)
	ev := weeklyEvent()
	winA, winB := janWindow()

	secondMonday := time.Date(2025, 1, 13, 18, 0, 0, 0, london)
	cancellations := map[uuid.UUID][]time.Time{
		ev.ID: {secondMonday},
	}

	items := a.Feed([]models.Event{ev}, cancellations, nil, anyone, winA, winB)
	require.Len(t, items, 3)
	for _, item := range items {
		assert.NotEqual(t, secondMonday.Format(time.RFC3339), item.Start)
	}
}

func TestFeed_CancellationKeyIsInstantNotZone(t *testing.T) {
	a := NewAssembler(nil)
	ev := weeklyEvent()
	winA, winB := janWindow()

	// The same instant expressed in UTC must still match.
	secondMonday := time.Date(2025, 1, 13, 18, 0, 0, 0, london).UTC()
	cancellations := map[uuid.UUID][]time.Time{ev.ID: {secondMonday}}

	items := a.Feed([]models.Event{ev}, cancellations, nil, anyone, winA, winB)
	assert.Len(t, items, 3)
}

func TestFeed_OverrideSubstitutesSetFieldsOnly(t *testing.T) {
	a := NewAssembler(nil)
	ev := weeklyEvent()
	winA, winB := janWindow()

	secondMonday := time.Date(2025, 1, 13, 18, 0, 0, 0, london)
	newTitle := "Training (indoor)"
	newLocation := "Sports hall"
	overrides := map[uuid.UUID][]models.EventOverride{
		ev.ID: {{
			EventID:         ev.ID,
			OccurrenceStart: secondMonday,
			NewTitle:        &newTitle,
			NewLocation:     &newLocation,
		}},
	}

	items := a.Feed([]models.Event{ev}, nil, overrides, anyone, winA, winB)
	require.Len(t, items, 4)

	var hit *FeedItem
	for i := range items {
		if items[i].ExtendedProps.OccurrenceStart == secondMonday.Format(time.RFC3339) {
			hit = &items[i]
		} else {
			assert.Equal(t, "Training", items[i].Title)
		}
	}
	require.NotNil(t, hit)
	assert.Equal(t, newTitle, hit.Title)
	assert.Equal(t, newLocation, hit.ExtendedProps.Location)
	// Unset fields keep base values.
	assert.Equal(t, "Weekly session", hit.ExtendedProps.Description)
}

func TestFeed_EmptyOverrideFieldFallsBackToBase(t *testing.T) {
	a := NewAssembler(nil)
	ev := weeklyEvent()
	winA, winB := janWindow()

	secondMonday := time.Date(2025, 1, 13, 18, 0, 0, 0, london)
	empty := ""
	overrides := map[uuid.UUID][]models.EventOverride{
		ev.ID: {{EventID: ev.ID, OccurrenceStart: secondMonday, NewTitle: &empty}},
	}

	items := a.Feed([]models.Event{ev}, nil, overrides, anyone, winA, winB)
	require.Len(t, items, 4)
	for _, item := range items {
		assert.Equal(t, "Training", item.Title)
	}
}

func TestFeed_OverrideMovesTimeButKeepsNominalKey(t *testing.T) {
	a := NewAssembler(nil)
	ev := weeklyEvent()
	winA, winB := janWindow()

	secondMonday := time.Date(2025, 1, 13, 18, 0, 0, 0, london)
	moved := time.Date(2025, 1, 14, 19, 0, 0, 0, london)
	overrides := map[uuid.UUID][]models.EventOverride{
		ev.ID: {{EventID: ev.ID, OccurrenceStart: secondMonday, NewStart: &moved}},
	}

	items := a.Feed([]models.Event{ev}, nil, overrides, anyone, winA, winB)
	require.Len(t, items, 4)

	var hit *FeedItem
	for i := range items {
		if items[i].Start == moved.Format(time.RFC3339) {
			hit = &items[i]
		}
	}
	require.NotNil(t, hit)
	// The occurrence key stays the nominal rule-computed start so the client
	// can still address this occurrence for further edits.
	assert.Equal(t, secondMonday.Format(time.RFC3339), hit.ExtendedProps.OccurrenceStart)
}

func TestFeed_NonRecurringInclusionIsInclusive(t *testing.T) {
	a := NewAssembler(nil)
	winA, winB := janWindow()

	onBoundary := models.Event{
		ID:    uuid.New(),
		Title: "New Year lunch",
		Start: winA, // exactly the window start
	}
	before := models.Event{
		ID:    uuid.New(),
		Title: "Old year",
		Start: winA.Add(-time.Hour),
	}
	spanning := models.Event{
		ID:    uuid.New(),
		Title: "NYE party",
		Start: winA.Add(-2 * time.Hour),
	}
	spanEnd := winA.Add(time.Hour)
	spanning.End = &spanEnd

	items := a.Feed([]models.Event{onBoundary, before, spanning}, nil, nil, anyone, winA, winB)
	require.Len(t, items, 2)
	titles := []string{items[0].Title, items[1].Title}
	assert.Contains(t, titles, "New Year lunch")
	assert.Contains(t, titles, "NYE party")
}

func TestFeed_NonRecurringWindowMembership(t *testing.T) {
	a := NewAssembler(nil)

	end := time.Date(2025, 1, 10, 11, 0, 0, 0, london)
	ev := models.Event{
		ID:    uuid.New(),
		Title: "Committee meeting",
		Start: time.Date(2025, 1, 10, 10, 0, 0, 0, london),
		End:   &end,
	}

	in := a.Feed([]models.Event{ev}, nil, nil, anyone,
		time.Date(2025, 1, 9, 0, 0, 0, 0, london),
		time.Date(2025, 1, 11, 0, 0, 0, 0, london))
	assert.Len(t, in, 1)

	out := a.Feed([]models.Event{ev}, nil, nil, anyone,
		time.Date(2025, 1, 11, 0, 0, 0, 0, london),
		time.Date(2025, 1, 12, 0, 0, 0, 0, london))
	assert.Empty(t, out)
}

func TestFeed_BrokenRuleSkipsOnlyThatEvent(t *testing.T) {
	a := NewAssembler(nil)
	winA, winB := janWindow()

	broken := weeklyEvent()
	broken.RRule = "FREQ=HOURLY"
	healthy := weeklyEvent()

	items := a.Feed([]models.Event{broken, healthy}, nil, nil, anyone, winA, winB)
	require.Len(t, items, 4)
	for _, item := range items {
		assert.Equal(t, healthy.ID.String(), item.ID)
	}
}

func TestFeed_RecurringWithEmptyRuleSkipped(t *testing.T) {
	a := NewAssembler(nil)
	winA, winB := janWindow()

	ev := weeklyEvent()
	ev.RRule = "  "

	items := a.Feed([]models.Event{ev}, nil, nil, anyone, winA, winB)
	assert.Empty(t, items)
}

func TestFeed_DescriptionTruncated(t *testing.T) {
	a := NewAssembler(nil)
	winA, winB := janWindow()

	ev := models.Event{
		ID:          uuid.New(),
		Title:       "AGM",
		Description: strings.Repeat("x", descriptionLimit+100),
		Start:       time.Date(2025, 1, 10, 19, 0, 0, 0, london),
	}

	items := a.Feed([]models.Event{ev}, nil, nil, anyone, winA, winB)
	require.Len(t, items, 1)
	assert.Len(t, items[0].ExtendedProps.Description, descriptionLimit)
}

func TestFeed_TopicSuppliesColor(t *testing.T) {
	a := NewAssembler(nil)
	winA, winB := janWindow()

	ev := weeklyEvent()
	ev.Topic = &models.Topic{Name: "Training", Color: "#007bff"}

	items := a.Feed([]models.Event{ev}, nil, nil, anyone, winA, winB)
	require.NotEmpty(t, items)
	assert.Equal(t, "#007bff", items[0].Color)
	assert.Equal(t, "Training", items[0].ExtendedProps.Topic)
}

func TestFeed_OverrideTopicReplacesColor(t *testing.T) {
	a := NewAssembler(nil)
	winA, winB := janWindow()

	ev := weeklyEvent()
	ev.Topic = &models.Topic{Name: "Training", Color: "#007bff"}

	secondMonday := time.Date(2025, 1, 13, 18, 0, 0, 0, london)
	overrides := map[uuid.UUID][]models.EventOverride{
		ev.ID: {{
			EventID:         ev.ID,
			OccurrenceStart: secondMonday,
			NewTopic:        &models.Topic{Name: "Match", Color: "#dc3545"},
		}},
	}

	items := a.Feed([]models.Event{ev}, nil, overrides, anyone, winA, winB)
	require.Len(t, items, 4)
	for _, item := range items {
		if item.ExtendedProps.OccurrenceStart == secondMonday.Format(time.RFC3339) {
			assert.Equal(t, "#dc3545", item.Color)
			assert.Equal(t, "Match", item.ExtendedProps.Topic)
		} else {
			assert.Equal(t, "#007bff", item.Color)
		}
	}
}

func TestFeed_InvisibleEventsAbsent(t *testing.T) {
	a := NewAssembler(nil)
	winA, winB := janWindow()

	groupA := uuid.New()
	ev := weeklyEvent()
	ev.VisibleToGroups = []uuid.UUID{groupA}

	outsider := Viewer{UserID: uuid.New()}
	assert.Empty(t, a.Feed([]models.Event{ev}, nil, nil, outsider, winA, winB))

	member := Viewer{UserID: uuid.New(), GroupIDs: []uuid.UUID{groupA}}
	assert.Len(t, a.Feed([]models.Event{ev}, nil, nil, member, winA, winB), 4)
}
