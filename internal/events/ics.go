package events

import (
	"fmt"

	ical "github.com/arran4/golang-ical"
)

// ExportICS serializes a computed feed as an iCalendar document so members
// can subscribe from external calendar apps. Each feed item becomes one
// VEVENT; the UID combines event id and nominal occurrence start so a
// recurring series exports as distinct instances.
func ExportICS(items []FeedItem, calendarName string) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	if calendarName != "" {
		cal.SetName(calendarName)
		cal.SetXWRCalName(calendarName)
	}

	for _, item := range items {
		uid := fmt.Sprintf("%s-%d@club-calendar", item.ExtendedProps.EventID, item.startTime.Unix())
		ev := cal.AddEvent(uid)
		ev.SetDtStampTime(item.startTime)
		ev.SetSummary(item.Title)
		if item.ExtendedProps.Location != "" {
			ev.SetLocation(item.ExtendedProps.Location)
		}
		if item.ExtendedProps.Description != "" {
			ev.SetDescription(item.ExtendedProps.Description)
		}
		if item.AllDay {
			ev.SetAllDayStartAt(item.startTime)
			if item.endTime != nil {
				ev.SetAllDayEndAt(*item.endTime)
			}
		} else {
			ev.SetStartAt(item.startTime)
			if item.endTime != nil {
				ev.SetEndAt(*item.endTime)
			}
		}
	}
	return cal.Serialize()
}
