package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/eor-ics/internal/event"
)

const (
	ProdID          = "-//Eye of Riyadh//eor-ics//EN"
	DefaultSummary  = "Untitled Event"
	DefaultLocation = "Riyadh, Saudi Arabia"
	DefaultName     = "Eye of Riyadh Events"

	localLayout = "20060102T150405"
	utcLayout   = "20060102T150405Z"
)

// Options controls calendar rendering.
type Options struct {
	// Location is the zone DTSTART/DTEND are expressed in. Defaults to UTC.
	Location *time.Location
	// BaseURL stands in for events without a link.
	BaseURL      string
	CalendarName string
	// Now supplies DTSTAMP and the date defaults. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// GenerateICS renders events as a complete iCalendar document.
// Every line, including the last, ends in CRLF. An empty slice yields a valid
// calendar with no VEVENT blocks.
func GenerateICS(events []*event.Event, opts Options) string {
	loc := opts.location()
	now := opts.now()
	name := opts.CalendarName
	if name == "" {
		name = DefaultName
	}

	var ics strings.Builder
	line := func(format string, args ...interface{}) {
		ics.WriteString(fmt.Sprintf(format, args...))
		ics.WriteString("\r\n")
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:%s", ProdID)
	line("CALSCALE:GREGORIAN")
	line("METHOD:PUBLISH")
	line("X-WR-CALNAME:%s", singleLine(name))
	line("X-WR-TIMEZONE:%s", loc.String())
	writeTimezone(line, loc, now)

	// DTSTAMP is generation time and is the same for every event in a run.
	stamp := now.UTC().Format(utcLayout)

	for _, evt := range events {
		start, end := evt.Times(loc, now)

		summary := evt.Title
		if summary == "" {
			summary = DefaultSummary
		}
		location := evt.Location
		if location == "" {
			location = DefaultLocation
		}
		link := evt.Link
		if link == "" {
			link = opts.BaseURL
		}

		line("BEGIN:VEVENT")
		line("UID:%s", evt.UID(start))
		line("DTSTAMP:%s", stamp)
		line("SUMMARY:%s", singleLine(summary))
		line("DTSTART;TZID=%s:%s", loc.String(), start.In(loc).Format(localLayout))
		line("DTEND;TZID=%s:%s", loc.String(), end.In(loc).Format(localLayout))
		line("LOCATION:%s", singleLine(location))
		line("DESCRIPTION:%s", Description(evt.Description, link))
		line("URL:%s", singleLine(link))
		line("END:VEVENT")
	}

	line("END:VCALENDAR")
	return ics.String()
}

// Description joins the enriched description with a "More info" pointer.
// Line breaks are collapsed so the value stays on one content line.
func Description(description, link string) string {
	parts := make([]string, 0, 2)
	if d := singleLine(description); d != "" {
		parts = append(parts, d)
	}
	if link != "" {
		parts = append(parts, "More info: "+link)
	}
	return singleLine(strings.Join(parts, " "))
}

// writeTimezone emits a VTIMEZONE with one fixed-offset STANDARD rule taken
// from the zone's offset at now.
func writeTimezone(line func(string, ...interface{}), loc *time.Location, now time.Time) {
	abbr, offset := now.In(loc).Zone()

	line("BEGIN:VTIMEZONE")
	line("TZID:%s", loc.String())
	line("BEGIN:STANDARD")
	line("DTSTART:19700101T000000")
	line("TZOFFSETFROM:%s", formatOffset(offset))
	line("TZOFFSETTO:%s", formatOffset(offset))
	line("TZNAME:%s", abbr)
	line("END:STANDARD")
	line("END:VTIMEZONE")
}

// formatOffset renders seconds east of UTC as +HHMM.
func formatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("%c%02d%02d", sign, seconds/3600, (seconds%3600)/60)
}

// singleLine collapses every run of whitespace, line breaks included.
func singleLine(s string) string {
	return event.Normalize(s)
}
