package calendar

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/pfrederiksen/eor-ics/internal/config"
	"github.com/pfrederiksen/eor-ics/internal/event"
)

const baseURL = "https://www.eyeofriyadh.com/events/"

func testOptions(t *testing.T) Options {
	t.Helper()
	loc, err := time.LoadLocation(config.DefaultTimezone)
	if err != nil {
		t.Fatalf("loading timezone: %v", err)
	}
	now := time.Date(2025, time.December, 1, 7, 30, 0, 0, time.UTC)
	return Options{
		Location:     loc,
		BaseURL:      baseURL,
		CalendarName: "Eye of Riyadh Events",
		Now:          func() time.Time { return now },
	}
}

func TestGenerateICS(t *testing.T) {
	opts := testOptions(t)
	evt := &event.Event{
		Title:    "Riyadh Season Launch",
		Link:     "https://www.eyeofriyadh.com/e/1",
		DateText: "5 Dec 2025",
	}

	out := GenerateICS([]*event.Event{evt}, opts)

	start := time.Date(2025, time.December, 5, 9, 0, 0, 0, opts.Location)
	requiredLines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + ProdID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"X-WR-CALNAME:Eye of Riyadh Events",
		"X-WR-TIMEZONE:Asia/Riyadh",
		"BEGIN:VTIMEZONE",
		"TZID:Asia/Riyadh",
		"TZOFFSETFROM:+0300",
		"TZOFFSETTO:+0300",
		"END:VTIMEZONE",
		"BEGIN:VEVENT",
		"UID:" + event.GenerateUID(evt.Title, evt.Link, start),
		"DTSTAMP:20251201T073000Z",
		"SUMMARY:Riyadh Season Launch",
		"DTSTART;TZID=Asia/Riyadh:20251205T090000",
		"DTEND;TZID=Asia/Riyadh:20251205T170000",
		"LOCATION:" + DefaultLocation,
		"DESCRIPTION:More info: https://www.eyeofriyadh.com/e/1",
		"URL:https://www.eyeofriyadh.com/e/1",
		"END:VEVENT",
		"END:VCALENDAR",
	}

	for _, line := range requiredLines {
		if !strings.Contains(out, line+"\r\n") {
			t.Errorf("ICS missing line: %s", line)
		}
	}
}

func TestGenerateICS_LineEndings(t *testing.T) {
	out := GenerateICS([]*event.Event{{Title: "A", Link: "https://example.com/a"}}, testOptions(t))

	if !strings.HasSuffix(out, "END:VCALENDAR\r\n") {
		t.Error("last line should end with CRLF")
	}
	if strings.Count(out, "\n") != strings.Count(out, "\r\n") {
		t.Error("every line break should be CRLF")
	}
}

func TestGenerateICS_Empty(t *testing.T) {
	for _, events := range [][]*event.Event{nil, {}} {
		out := GenerateICS(events, testOptions(t))

		if !strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n") || !strings.HasSuffix(out, "END:VCALENDAR\r\n") {
			t.Errorf("empty calendar envelope malformed:\n%s", out)
		}
		if strings.Contains(out, "BEGIN:VEVENT") {
			t.Error("empty calendar should have no VEVENT")
		}

		n, err := Verify([]byte(out))
		if err != nil {
			t.Fatalf("Verify() error: %v", err)
		}
		if n != 0 {
			t.Errorf("Verify() = %d events, want 0", n)
		}
	}
}

func TestGenerateICS_Defaults(t *testing.T) {
	out := GenerateICS([]*event.Event{{}}, testOptions(t))

	for _, line := range []string{
		"SUMMARY:" + DefaultSummary,
		"LOCATION:" + DefaultLocation,
		"URL:" + baseURL,
		"DESCRIPTION:More info: " + baseURL,
		"DTSTART;TZID=Asia/Riyadh:20251201T090000",
		"DTEND;TZID=Asia/Riyadh:20251201T170000",
	} {
		if !strings.Contains(out, line+"\r\n") {
			t.Errorf("ICS missing line: %s", line)
		}
	}
}

func TestGenerateICS_TextFields(t *testing.T) {
	evt := &event.Event{
		Title:       "Food, Music; Fun",
		Link:        "https://example.com/e/1",
		Location:    "Boulevard City",
		Description: "Line one\nLine two\r\n   three",
	}

	out := GenerateICS([]*event.Event{evt}, testOptions(t))

	if !strings.Contains(out, "DESCRIPTION:Line one Line two three More info: https://example.com/e/1\r\n") {
		t.Errorf("description not collapsed:\n%s", out)
	}
	// Commas and semicolons are written as-is.
	if !strings.Contains(out, "SUMMARY:Food, Music; Fun\r\n") {
		t.Errorf("summary altered:\n%s", out)
	}
	if !strings.Contains(out, "LOCATION:Boulevard City\r\n") {
		t.Error("location missing")
	}
}

func TestGenerateICS_Deterministic(t *testing.T) {
	evt := &event.Event{Title: "Camel Cup", Link: "https://example.com/e/7", DateText: "12-15 Jan 2026"}

	first := testOptions(t)
	second := testOptions(t)
	later := time.Date(2025, time.December, 2, 18, 0, 0, 0, time.UTC)
	second.Now = func() time.Time { return later }

	uid := func(out string) string {
		for _, line := range strings.Split(out, "\r\n") {
			if strings.HasPrefix(line, "UID:") {
				return line
			}
		}
		return ""
	}

	a := GenerateICS([]*event.Event{evt}, first)
	b := GenerateICS([]*event.Event{evt}, second)

	if uid(a) == "" || uid(a) != uid(b) {
		t.Errorf("UID changed between runs: %q vs %q", uid(a), uid(b))
	}
	if a == b {
		t.Error("DTSTAMP should reflect generation time")
	}
	if !strings.Contains(a, "DTEND;TZID=Asia/Riyadh:20260115T180000\r\n") {
		t.Error("range end missing")
	}
}

func TestGenerateICS_PreservesOrder(t *testing.T) {
	events := []*event.Event{
		{Title: "Third", Link: "https://example.com/3", DateText: "20 Jan 2026"},
		{Title: "First", Link: "https://example.com/1", DateText: "2 Jan 2026"},
		{Title: "Second", Link: "https://example.com/2", DateText: "10 Jan 2026"},
	}

	out := GenerateICS(events, testOptions(t))

	third := strings.Index(out, "SUMMARY:Third")
	first := strings.Index(out, "SUMMARY:First")
	second := strings.Index(out, "SUMMARY:Second")
	if !(third < first && first < second) {
		t.Error("events should be serialized in input order")
	}
}

func TestGenerateICS_RoundTrip(t *testing.T) {
	opts := testOptions(t)
	events := []*event.Event{
		{Title: "Riyadh Season Launch", Link: "https://example.com/e/1", DateText: "5 Dec 2025", Location: "Boulevard City"},
		{Title: "Camel Cup", Link: "https://example.com/e/2", DateText: "12-15 Jan 2026 7pm", Location: "Janadriyah"},
		{Title: "Book Fair", Link: "https://example.com/e/3", DateText: "TBA"},
	}

	out := GenerateICS(events, opts)

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ParseCalendar() error: %v", err)
	}

	parsed := cal.Events()
	if len(parsed) != len(events) {
		t.Fatalf("parsed %d events, want %d", len(parsed), len(events))
	}

	for i, evt := range events {
		p := parsed[i]
		wantStart, wantEnd := evt.Times(opts.Location, opts.Now())

		if got := p.GetProperty(ics.ComponentPropertySummary).Value; got != evt.Title {
			t.Errorf("event %d SUMMARY = %q, want %q", i, got, evt.Title)
		}
		wantLocation := evt.Location
		if wantLocation == "" {
			wantLocation = DefaultLocation
		}
		if got := p.GetProperty(ics.ComponentPropertyLocation).Value; got != wantLocation {
			t.Errorf("event %d LOCATION = %q, want %q", i, got, wantLocation)
		}
		if got := p.GetProperty(ics.ComponentPropertyUrl).Value; got != evt.Link {
			t.Errorf("event %d URL = %q, want %q", i, got, evt.Link)
		}
		if got := p.GetProperty(ics.ComponentPropertyUniqueId).Value; got != evt.UID(wantStart) {
			t.Errorf("event %d UID = %q", i, got)
		}

		start, err := p.GetStartAt()
		if err != nil {
			t.Fatalf("event %d GetStartAt() error: %v", i, err)
		}
		end, err := p.GetEndAt()
		if err != nil {
			t.Fatalf("event %d GetEndAt() error: %v", i, err)
		}
		if !start.Equal(wantStart) {
			t.Errorf("event %d start = %v, want %v", i, start, wantStart)
		}
		if !end.Equal(wantEnd) {
			t.Errorf("event %d end = %v, want %v", i, end, wantEnd)
		}
	}
}

func TestDescription(t *testing.T) {
	tests := []struct {
		description string
		link        string
		want        string
	}{
		{"", "https://example.com/1", "More info: https://example.com/1"},
		{"Great show", "https://example.com/1", "Great show More info: https://example.com/1"},
		{" multi\nline\r\n text ", "https://example.com/1", "multi line text More info: https://example.com/1"},
		{"Only text", "", "Only text"},
		{"", "", ""},
	}

	for _, tt := range tests {
		if got := Description(tt.description, tt.link); got != tt.want {
			t.Errorf("Description(%q, %q) = %q, want %q", tt.description, tt.link, got, tt.want)
		}
	}
}

func TestFormatOffset(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{3 * 3600, "+0300"},
		{0, "+0000"},
		{-(4*3600 + 30*60), "-0430"},
		{5*3600 + 45*60, "+0545"},
	}

	for _, tt := range tests {
		if got := formatOffset(tt.seconds); got != tt.want {
			t.Errorf("formatOffset(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	opts := testOptions(t)
	// 01:30 on 2 Dec in Riyadh.
	now := time.Date(2025, time.December, 1, 22, 30, 0, 0, time.UTC)

	p := Placeholder(now, opts.Location, baseURL)
	if p.DateText != "3 Dec 2025" {
		t.Errorf("DateText = %q, want tomorrow in Riyadh", p.DateText)
	}
	if p.Link != baseURL || p.Title == "" {
		t.Errorf("placeholder incomplete: %+v", p)
	}

	opts.Now = func() time.Time { return now }
	out := GenerateICS([]*event.Event{p}, opts)
	if !strings.Contains(out, "DTSTART;TZID=Asia/Riyadh:20251203T090000\r\n") {
		t.Errorf("placeholder start wrong:\n%s", out)
	}
}

func TestVerify(t *testing.T) {
	opts := testOptions(t)
	good := GenerateICS([]*event.Event{
		{Title: "A", Link: "https://example.com/a", DateText: "5 Dec 2025"},
		{Title: "B", Link: "https://example.com/b"},
	}, opts)

	n, err := Verify([]byte(good))
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if n != 2 {
		t.Errorf("Verify() = %d, want 2", n)
	}

	bad := map[string]string{
		"empty":       "",
		"truncated":   strings.TrimSuffix(good, "END:VCALENDAR\r\n"),
		"not ics":     "hello world\r\n",
		"bad dtstart": "BEGIN:VCALENDAR\r\nBEGIN:VEVENT\r\nUID:x\r\nDTSTART:tomorrow\r\nDTEND:20251205T170000Z\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n",
	}
	for name, data := range bad {
		t.Run(name, func(t *testing.T) {
			if _, err := Verify([]byte(data)); err == nil {
				t.Error("Verify() expected error")
			}
		})
	}
}
