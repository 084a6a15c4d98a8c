package calendar

import (
	"bytes"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/pfrederiksen/eor-ics/internal/event"
)

// Placeholder returns the synthetic event published when a run finds
// nothing. It is dated tomorrow in loc and links to the listing page.
func Placeholder(now time.Time, loc *time.Location, baseURL string) *event.Event {
	if loc == nil {
		loc = time.UTC
	}
	tomorrow := now.In(loc).AddDate(0, 0, 1)
	return &event.Event{
		Title:       "Eye of Riyadh: no events found",
		Link:        baseURL,
		DateText:    tomorrow.Format("2 Jan 2006"),
		Description: "No events could be collected on the last run. Check the listing page for updates.",
	}
}

// Verify parses data with an independent iCalendar reader and returns the
// number of VEVENT blocks. Every event must carry a readable DTSTART and DTEND.
func Verify(data []byte) (int, error) {
	// The reader accepts a calendar cut off before END:VCALENDAR.
	if !bytes.HasSuffix(bytes.TrimRight(data, "\r\n"), []byte("END:VCALENDAR")) {
		return 0, fmt.Errorf("calendar is truncated")
	}

	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("parsing calendar: %w", err)
	}

	events := cal.Events()
	for i, evt := range events {
		if _, err := evt.GetStartAt(); err != nil {
			return 0, fmt.Errorf("event %d: reading DTSTART: %w", i, err)
		}
		if _, err := evt.GetEndAt(); err != nil {
			return 0, fmt.Errorf("event %d: reading DTEND: %w", i, err)
		}
	}
	return len(events), nil
}
