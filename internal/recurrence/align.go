package recurrence

import (
	"strings"
	"time"
)

// Window bound parsing and alignment.
//
// The recurrence engine compares query-window boundaries against event
// times. Boundaries arrive as ISO-8601 strings that may or may not carry a
// UTC offset, while event times always carry a location; comparing across
// that mismatch is where off-by-a-zone bugs live. The contract here: a
// zone-less boundary is interpreted in the configured club timezone, and
// every boundary is re-expressed in the event's own location before any
// comparison or expansion against that event. Alignment preserves the
// instant, so inclusion results do not depend on the caller's zone.

var windowLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseWindowBound parses a window boundary string. Inputs with an offset
// are taken as-is; zone-less inputs are interpreted in loc (time.Local when
// nil). Returns false for empty or unparseable input.
func ParseWindowBound(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	for _, layout := range windowLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AlignTo re-expresses t in the location of the authoritative event time
// anchor. Apply it to every window boundary before comparing against that
// event or expanding its rule.
func AlignTo(anchor, t time.Time) time.Time {
	return t.In(anchor.Location())
}

// AlignToPtr is AlignTo for optional boundaries; a nil boundary stays nil.
func AlignToPtr(anchor time.Time, t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	aligned := AlignTo(anchor, *t)
	return &aligned
}
