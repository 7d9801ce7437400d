package recurrence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hockey-club/backend/internal/models"
)

func recurringEvent(start time.Time, end *time.Time, rrule string, recEnd *time.Time) models.Event {
	return models.Event{
		ID:            uuid.New(),
		Title:         "Training",
		Start:         start,
		End:           end,
		IsRecurring:   true,
		RRule:         rrule,
		RecurrenceEnd: recEnd,
	}
}

func TestExpand_WeeklyMondays(t *testing.T) {
	start := time.Date(2025, 1, 6, 18, 0, 0, 0, london) // first Monday of Jan 2025
	end := start.Add(90 * time.Minute)
	ev := recurringEvent(start, &end, "FREQ=WEEKLY;BYDAY=MO", nil)

	winA := time.Date(2025, 1, 1, 0, 0, 0, 0, london)
	winB := time.Date(2025, 1, 31, 23, 59, 59, 0, london)

	occs, err := Expand(ev, winA, winB)
	require.NoError(t, err)
	require.Len(t, occs, 4)
	for i, occ := range occs {
		assert.Equal(t, time.Monday, occ.Start.Weekday())
		assert.Equal(t, 18, occ.Start.Hour())
		require.NotNil(t, occ.End)
		assert.Equal(t, 90*time.Minute, occ.End.Sub(occ.Start))
		if i > 0 {
			assert.Equal(t, 7*24*time.Hour, occ.Start.Sub(occs[i-1].Start))
		}
	}
}

func TestExpand_BiweeklySkipsAlternateWeeks(t *testing.T) {
	start := time.Date(2025, 1, 6, 18, 0, 0, 0, london)
	ev := recurringEvent(start, nil, "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO", nil)

	winA := time.Date(2025, 1, 1, 0, 0, 0, 0, london)
	winB := time.Date(2025, 2, 3, 0, 0, 0, 0, london)

	occs, err := Expand(ev, winA, winB)
	require.NoError(t, err)
	require.Len(t, occs, 3) // Jan 6, Jan 20, Feb 3
	assert.Equal(t, 6, occs[0].Start.Day())
	assert.Equal(t, 20, occs[1].Start.Day())
	assert.Equal(t, 3, occs[2].Start.Day())
}

func TestExpand_UntilInRuleBoundsSeries(t *testing.T) {
	start := time.Date(2025, 1, 6, 18, 0, 0, 0, london)
	ev := recurringEvent(start, nil, "FREQ=WEEKLY;BYDAY=MO;UNTIL=20250114T000000", nil)

	winA := time.Date(2025, 1, 1, 0, 0, 0, 0, london)
	winB := time.Date(2025, 3, 1, 0, 0, 0, 0, london)

	occs, err := Expand(ev, winA, winB)
	require.NoError(t, err)
	require.Len(t, occs, 2) // Jan 6 and Jan 13 only
}

func TestExpand_ModelRecurrenceEndAppliesWhenRuleHasNoUntil(t *testing.T) {
	start := time.Date(2025, 1, 6, 18, 0, 0, 0, london)
	recEnd := time.Date(2025, 1, 21, 0, 0, 0, 0, london)
	ev := recurringEvent(start, nil, "FREQ=WEEKLY;BYDAY=MO", &recEnd)

	winA := time.Date(2025, 1, 1, 0, 0, 0, 0, london)
	winB := time.Date(2025, 3, 1, 0, 0, 0, 0, london)

	occs, err := Expand(ev, winA, winB)
	require.NoError(t, err)
	require.Len(t, occs, 3) // Jan 6, 13, 20
}

func TestExpand_RuleUntilWinsOverModelEnd(t *testing.T) {
	start := time.Date(2025, 1, 6, 18, 0, 0, 0, london)
	laterEnd := time.Date(2025, 12, 31, 0, 0, 0, 0, london)
	ev := recurringEvent(start, nil, "FREQ=WEEKLY;BYDAY=MO;UNTIL=20250114T000000", &laterEnd)

	winA := time.Date(2025, 1, 1, 0, 0, 0, 0, london)
	winB := time.Date(2025, 3, 1, 0, 0, 0, 0, london)

	occs, err := Expand(ev, winA, winB)
	require.NoError(t, err)
	require.Len(t, occs, 2)
}

func TestExpand_OccurrenceSpanningWindowStartIncluded(t *testing.T) {
	// Daily 23:00-01:00: the occurrence starting the night before the window
	// still overlaps it and must be kept.
	start := time.Date(2025, 1, 1, 23, 0, 0, 0, london)
	end := start.Add(2 * time.Hour)
	ev := recurringEvent(start, &end, "FREQ=DAILY", nil)

	winA := time.Date(2025, 1, 10, 0, 0, 0, 0, london)
	winB := time.Date(2025, 1, 10, 12, 0, 0, 0, london)

	occs, err := Expand(ev, winA, winB)
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.Equal(t, 9, occs[0].Start.Day())
}

func TestExpand_WindowBeforeSeriesStartIsEmpty(t *testing.T) {
	start := time.Date(2025, 6, 2, 18, 0, 0, 0, london)
	ev := recurringEvent(start, nil, "FREQ=WEEKLY;BYDAY=MO", nil)

	winA := time.Date(2025, 1, 1, 0, 0, 0, 0, london)
	winB := time.Date(2025, 1, 31, 0, 0, 0, 0, london)

	occs, err := Expand(ev, winA, winB)
	require.NoError(t, err)
	assert.Empty(t, occs)
}

func TestExpand_UndecodableRuleReturnsExpansionError(t *testing.T) {
	start := time.Date(2025, 1, 6, 18, 0, 0, 0, london)
	ev := recurringEvent(start, nil, "FREQ=HOURLY", nil)

	_, err := Expand(ev, start, start.AddDate(0, 1, 0))
	require.Error(t, err)
	var expErr *ExpansionError
	require.ErrorAs(t, err, &expErr)
	assert.Equal(t, ev.ID, expErr.EventID)
}

func TestExpand_WindowInDifferentZoneSameInstants(t *testing.T) {
	// Expansion depends on instants, not on the zone the window arrived in.
	start := time.Date(2025, 1, 6, 18, 0, 0, 0, london)
	ev := recurringEvent(start, nil, "FREQ=WEEKLY;BYDAY=MO", nil)

	winA := time.Date(2025, 1, 1, 0, 0, 0, 0, london)
	winB := time.Date(2025, 1, 31, 23, 59, 59, 0, london)
	local, err := Expand(ev, winA, winB)
	require.NoError(t, err)

	utc, err := Expand(ev, winA.UTC(), winB.UTC())
	require.NoError(t, err)

	require.Equal(t, len(local), len(utc))
	for i := range local {
		assert.True(t, local[i].Start.Equal(utc[i].Start))
	}
}
