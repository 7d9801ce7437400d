// Package recurrence implements the calendar's recurrence engine: the
// canonical rule codec, window/event time alignment, and occurrence
// expansion within a query window.
package recurrence

import (
	"sort"
	"strings"
	"time"
)

// Pattern is the user-facing recurrence choice. Biweekly is stored as
// weekly with INTERVAL=2.
type Pattern string

const (
	PatternNone     Pattern = ""
	PatternDaily    Pattern = "DAILY"
	PatternWeekly   Pattern = "WEEKLY"
	PatternBiweekly Pattern = "BIWEEKLY"
	PatternMonthly  Pattern = "MONTHLY"
)

// untilLayout is the compact UNTIL timestamp used in persisted rules.
const untilLayout = "20060102T150405"

// weekdayCodes maps time.Weekday to the two-letter BYDAY code.
var weekdayCodes = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SU",
}

var validDayCodes = map[string]struct{}{
	"MO": {}, "TU": {}, "WE": {}, "TH": {}, "FR": {}, "SA": {}, "SU": {},
}

// Rule holds the decoded components of a canonical rule string: everything
// an edit form needs to re-populate its recurrence fields.
type Rule struct {
	Pattern Pattern    `json:"pattern"`
	Days    []string   `json:"days,omitempty"` // BYDAY codes, de-duplicated and sorted
	Until   *time.Time `json:"until,omitempty"`
}

// EncodeRule builds the canonical rule string for a recurrence choice.
// Weekly patterns with no explicit days default to the weekday of
// seriesStart. PatternNone yields the empty string, which turns recurrence
// off entirely.
func EncodeRule(pattern Pattern, days []string, seriesStart time.Time, until *time.Time) string {
	var rule string
	switch pattern {
	case PatternDaily:
		rule = "FREQ=DAILY"
	case PatternWeekly:
		rule = "FREQ=WEEKLY;BYDAY=" + strings.Join(normalizeDays(days, seriesStart), ",")
	case PatternBiweekly:
		rule = "FREQ=WEEKLY;INTERVAL=2;BYDAY=" + strings.Join(normalizeDays(days, seriesStart), ",")
	case PatternMonthly:
		rule = "FREQ=MONTHLY"
	default:
		return ""
	}
	if until != nil {
		rule += ";UNTIL=" + until.Format(untilLayout)
	}
	return rule
}

// DecodeRule parses a canonical rule string back into its components. It is
// deliberately lenient where EncodeRule is strict: clauses without '=' are
// skipped, unknown keys are ignored, keys and values are case-insensitive,
// and an unparseable UNTIL decodes to no end. Total garbage decodes to the
// no-recurrence zero Rule — whatever was persisted must always redisplay.
// Zone-less UNTIL values are interpreted in loc.
func DecodeRule(s string, loc *time.Location) Rule {
	if loc == nil {
		loc = time.Local
	}
	freq, interval := "", "1"
	var days []string
	var until *time.Time

	for _, clause := range strings.Split(s, ";") {
		clause = strings.TrimSpace(clause)
		if clause == "" || !strings.Contains(clause, "=") {
			continue
		}
		parts := strings.SplitN(clause, "=", 2)
		key := strings.ToUpper(strings.TrimSpace(parts[0]))
		val := strings.TrimSpace(parts[1])
		switch key {
		case "FREQ":
			freq = strings.ToUpper(val)
		case "INTERVAL":
			interval = val
		case "BYDAY":
			for _, d := range strings.Split(val, ",") {
				d = strings.ToUpper(strings.TrimSpace(d))
				if _, ok := validDayCodes[d]; ok {
					days = append(days, d)
				}
			}
		case "UNTIL":
			until = parseUntil(val, loc)
		}
	}

	rule := Rule{Until: until}
	switch freq {
	case "DAILY":
		rule.Pattern = PatternDaily
	case "WEEKLY":
		if interval == "2" {
			rule.Pattern = PatternBiweekly
		} else {
			rule.Pattern = PatternWeekly
		}
		rule.Days = sortedSet(days)
	case "MONTHLY":
		rule.Pattern = PatternMonthly
	default:
		return Rule{} // unrecognized frequency: no recurrence
	}
	return rule
}

// parseUntil accepts the compact form (YYYYMMDDTHHMMSS, with or without a
// trailing Z) or a generic date-time text form. Returns nil when the value
// cannot be parsed.
func parseUntil(v string, loc *time.Location) *time.Time {
	if len(v) >= 15 && strings.Contains(v, "T") && isDigits(v[:8]) {
		if t, err := time.ParseInLocation(untilLayout, v[:15], loc); err == nil {
			return &t
		}
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return &t
		}
	}
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// normalizeDays uppercases, validates, de-duplicates and sorts the given
// BYDAY codes, defaulting to the weekday of seriesStart when none survive.
func normalizeDays(days []string, seriesStart time.Time) []string {
	var valid []string
	for _, d := range days {
		d = strings.ToUpper(strings.TrimSpace(d))
		if _, ok := validDayCodes[d]; ok {
			valid = append(valid, d)
		}
	}
	if len(valid) == 0 {
		return []string{weekdayCodes[seriesStart.Weekday()]}
	}
	return sortedSet(valid)
}

func sortedSet(days []string) []string {
	seen := make(map[string]struct{}, len(days))
	var out []string
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
