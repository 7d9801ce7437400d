package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/hockey-club/backend/internal/models"
)

// windowPad widens the expansion window by one calendar day on each side so
// all-day and timezone rounding cannot lose boundary occurrences. The final
// per-occurrence filter is stricter than the pad.
const windowPad = 24 * time.Hour

// ExpansionError reports that one event's rule could not be expanded. The
// feed assembler logs it and skips the event; it never aborts the rest of
// the feed.
type ExpansionError struct {
	EventID uuid.UUID
	Rule    string
	Err     error
}

func (e *ExpansionError) Error() string {
	return fmt.Sprintf("expand event %s (rrule %q): %v", e.EventID, e.Rule, e.Err)
}

func (e *ExpansionError) Unwrap() error { return e.Err }

// Occurrence is one concrete start/end pair produced by expansion. End is
// nil when the base event has no end time.
type Occurrence struct {
	Start time.Time
	End   *time.Time
}

// Expand computes the occurrences of a recurring event whose derived span
// touches [windowStart, windowEnd]. Bounds must already be aligned to the
// event's location (AlignTo). The stored rule is decoded leniently; if the
// model carries a recurrence end and the rule itself has no UNTIL, the
// model's bound applies. A rule that does not decode to a recurring pattern
// yields an ExpansionError, not a panic: the event simply has no
// occurrences for this window.
func Expand(ev models.Event, windowStart, windowEnd time.Time) ([]Occurrence, error) {
	rule := DecodeRule(ev.RRule, ev.Start.Location())
	if rule.Pattern == PatternNone {
		return nil, &ExpansionError{EventID: ev.ID, Rule: ev.RRule, Err: errors.New("rule has no recognizable frequency")}
	}

	until := rule.Until
	if until == nil && ev.RecurrenceEnd != nil {
		until = ev.RecurrenceEnd
	}

	opt, err := ruleOption(rule, ev.Start, until)
	if err != nil {
		return nil, &ExpansionError{EventID: ev.ID, Rule: ev.RRule, Err: err}
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, &ExpansionError{EventID: ev.ID, Rule: ev.RRule, Err: err}
	}

	// Even an UNTIL-less rule is only ever evaluated inside the padded
	// window; expansion is always bounded.
	starts := r.Between(windowStart.Add(-windowPad), windowEnd.Add(windowPad), true)

	dur, hasDur := ev.Duration()
	out := make([]Occurrence, 0, len(starts))
	for _, start := range starts {
		occ := Occurrence{Start: start}
		if hasDur {
			end := start.Add(dur)
			occ.End = &end
		}
		if occ.End != nil && occ.End.Before(windowStart) {
			continue
		}
		if start.After(windowEnd) {
			continue
		}
		out = append(out, occ)
	}
	return out, nil
}

var rruleWeekdays = map[string]rrule.Weekday{
	"MO": rrule.MO,
	"TU": rrule.TU,
	"WE": rrule.WE,
	"TH": rrule.TH,
	"FR": rrule.FR,
	"SA": rrule.SA,
	"SU": rrule.SU,
}

// ruleOption translates a decoded Rule into an rrule-go option anchored at
// the series start.
func ruleOption(rule Rule, seriesStart time.Time, until *time.Time) (rrule.ROption, error) {
	opt := rrule.ROption{
		Dtstart:  seriesStart,
		Interval: 1,
	}
	switch rule.Pattern {
	case PatternDaily:
		opt.Freq = rrule.DAILY
	case PatternWeekly:
		opt.Freq = rrule.WEEKLY
	case PatternBiweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2
	case PatternMonthly:
		opt.Freq = rrule.MONTHLY
	default:
		return opt, fmt.Errorf("unsupported pattern %q", rule.Pattern)
	}
	for _, d := range rule.Days {
		wd, ok := rruleWeekdays[d]
		if !ok {
			return opt, fmt.Errorf("unknown weekday code %q", d)
		}
		opt.Byweekday = append(opt.Byweekday, wd)
	}
	if until != nil {
		opt.Until = AlignTo(seriesStart, *until)
	}
	return opt, nil
}
