package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindowBound(t *testing.T) {
	t.Run("offset input keeps its instant", func(t *testing.T) {
		got, ok := ParseWindowBound("2025-01-06T18:00:00Z", london)
		require.True(t, ok)
		assert.True(t, got.Equal(time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC)))
	})

	t.Run("zone-less input interpreted in club timezone", func(t *testing.T) {
		got, ok := ParseWindowBound("2025-07-01T10:00:00", london)
		require.True(t, ok)
		assert.Equal(t, london.String(), got.Location().String())
		assert.Equal(t, 10, got.Hour())
	})

	t.Run("date-only input", func(t *testing.T) {
		got, ok := ParseWindowBound("2025-01-06", london)
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, london), got)
	})

	t.Run("empty and garbage rejected", func(t *testing.T) {
		_, ok := ParseWindowBound("", london)
		assert.False(t, ok)
		_, ok = ParseWindowBound("  ", london)
		assert.False(t, ok)
		_, ok = ParseWindowBound("next tuesday", london)
		assert.False(t, ok)
	})
}

func TestAlignTo(t *testing.T) {
	berlin := mustLoadLocation("Europe/Berlin")
	anchor := time.Date(2025, 1, 6, 18, 0, 0, 0, berlin)
	bound := time.Date(2025, 1, 6, 17, 0, 0, 0, time.UTC)

	aligned := AlignTo(anchor, bound)
	assert.Equal(t, berlin.String(), aligned.Location().String())
	// Alignment preserves the instant.
	assert.True(t, aligned.Equal(bound))
	assert.Equal(t, 18, aligned.Hour())
}

func TestAlignToPtr(t *testing.T) {
	anchor := time.Date(2025, 1, 6, 18, 0, 0, 0, london)
	assert.Nil(t, AlignToPtr(anchor, nil))

	bound := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	got := AlignToPtr(anchor, &bound)
	require.NotNil(t, got)
	assert.True(t, got.Equal(bound))
}
