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

func TestExportICS(t *testing.T) {
	a := NewAssembler(nil)
	winA, winB := janWindow()

	ev := weeklyEvent()
	items := a.Feed([]models.Event{ev}, nil, nil, anyone, winA, winB)
	require.Len(t, items, 4)

	out := ExportICS(items, "Club Calendar")
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "X-WR-CALNAME:Club Calendar")
	assert.Equal(t, 4, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "SUMMARY:Training")
	assert.Contains(t, out, "LOCATION:Main pitch")
}

func TestExportICS_Empty(t *testing.T) {
	out := ExportICS(nil, "Club Calendar")
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.NotContains(t, out, "BEGIN:VEVENT")
}

func TestExportICS_AllDay(t *testing.T) {
	a := NewAssembler(nil)
	winA, winB := janWindow()

	end := time.Date(2025, 1, 11, 0, 0, 0, 0, london)
	ev := models.Event{
		ID:     uuid.New(),
		Title:  "Club open day",
		Start:  time.Date(2025, 1, 10, 0, 0, 0, 0, london),
		End:    &end,
		AllDay: true,
	}
	items := a.Feed([]models.Event{ev}, nil, nil, anyone, winA, winB)
	require.Len(t, items, 1)

	out := ExportICS(items, "Club Calendar")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20250110")
}
