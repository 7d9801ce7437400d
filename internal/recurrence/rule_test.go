package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var london = mustLoadLocation("Europe/London")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func TestEncodeRule(t *testing.T) {
	start := time.Date(2025, 1, 6, 18, 0, 0, 0, london) // a Monday

	t.Run("daily", func(t *testing.T) {
		assert.Equal(t, "FREQ=DAILY", EncodeRule(PatternDaily, nil, start, nil))
	})

	t.Run("weekly sorts and dedupes days", func(t *testing.T) {
		got := EncodeRule(PatternWeekly, []string{"WE", "MO", "WE"}, start, nil)
		assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO,WE", got)
	})

	t.Run("weekly without days defaults to series weekday", func(t *testing.T) {
		got := EncodeRule(PatternWeekly, nil, start, nil)
		assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO", got)
	})

	t.Run("biweekly is weekly with interval 2", func(t *testing.T) {
		got := EncodeRule(PatternBiweekly, []string{"FR"}, start, nil)
		assert.Equal(t, "FREQ=WEEKLY;INTERVAL=2;BYDAY=FR", got)
	})

	t.Run("until appended in compact form", func(t *testing.T) {
		until := time.Date(2025, 1, 31, 0, 0, 0, 0, london)
		got := EncodeRule(PatternDaily, nil, start, &until)
		assert.Equal(t, "FREQ=DAILY;UNTIL=20250131T000000", got)
	})

	t.Run("none yields empty string", func(t *testing.T) {
		assert.Equal(t, "", EncodeRule(PatternNone, []string{"MO"}, start, nil))
	})
}

func TestDecodeRule_RoundTrip(t *testing.T) {
	start := time.Date(2025, 1, 6, 18, 0, 0, 0, london)
	until := time.Date(2025, 3, 1, 18, 0, 0, 0, london)

	cases := []struct {
		name    string
		pattern Pattern
		days    []string
		until   *time.Time
	}{
		{"daily", PatternDaily, nil, nil},
		{"weekly", PatternWeekly, []string{"MO", "WE"}, nil},
		{"biweekly", PatternBiweekly, []string{"TU"}, &until},
		{"monthly", PatternMonthly, nil, &until},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			encoded := EncodeRule(tc.pattern, tc.days, start, tc.until)
			decoded := DecodeRule(encoded, london)

			assert.Equal(t, tc.pattern, decoded.Pattern)
			switch tc.pattern {
			case PatternWeekly, PatternBiweekly:
				assert.Equal(t, tc.days, decoded.Days)
			default:
				assert.Empty(t, decoded.Days)
			}
			if tc.until == nil {
				assert.Nil(t, decoded.Until)
			} else {
				require.NotNil(t, decoded.Until)
				assert.True(t, decoded.Until.Equal(*tc.until))
			}
		})
	}
}

func TestDecodeRule_Lenient(t *testing.T) {
	t.Run("case insensitive keys and values", func(t *testing.T) {
		r := DecodeRule("freq=weekly;byday=mo,we", london)
		assert.Equal(t, PatternWeekly, r.Pattern)
		assert.Equal(t, []string{"MO", "WE"}, r.Days)
	})

	t.Run("clauses without equals are skipped", func(t *testing.T) {
		r := DecodeRule("FREQ=DAILY;GARBAGE;;UNTILNOPE", london)
		assert.Equal(t, PatternDaily, r.Pattern)
	})

	t.Run("unknown keys ignored", func(t *testing.T) {
		r := DecodeRule("FREQ=MONTHLY;WKST=MO;COUNT=5", london)
		assert.Equal(t, PatternMonthly, r.Pattern)
	})

	t.Run("invalid day codes dropped", func(t *testing.T) {
		r := DecodeRule("FREQ=WEEKLY;BYDAY=MO,XX,FR", london)
		assert.Equal(t, []string{"FR", "MO"}, r.Days)
	})

	t.Run("unparseable until decodes to nil", func(t *testing.T) {
		r := DecodeRule("FREQ=DAILY;UNTIL=not-a-date", london)
		assert.Equal(t, PatternDaily, r.Pattern)
		assert.Nil(t, r.Until)
	})

	t.Run("interval 2 weekly reads back as biweekly", func(t *testing.T) {
		r := DecodeRule("FREQ=WEEKLY;INTERVAL=2;BYDAY=SA", london)
		assert.Equal(t, PatternBiweekly, r.Pattern)
	})

	t.Run("garbage decodes to zero rule", func(t *testing.T) {
		assert.Equal(t, Rule{}, DecodeRule("complete nonsense", london))
		assert.Equal(t, Rule{}, DecodeRule("", london))
	})

	t.Run("iso until accepted", func(t *testing.T) {
		r := DecodeRule("FREQ=DAILY;UNTIL=2025-06-30", london)
		require.NotNil(t, r.Until)
		assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, london), *r.Until)
	})

	t.Run("compact until with trailing Z", func(t *testing.T) {
		r := DecodeRule("FREQ=DAILY;UNTIL=20250131T000000Z", london)
		require.NotNil(t, r.Until)
		assert.Equal(t, 2025, r.Until.Year())
	})
}
