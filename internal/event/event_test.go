package event

import (
	"strings"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"Riyadh Season Launch", "Riyadh Season Launch"},
		{"  Riyadh \n\t Season   Launch  ", "Riyadh Season Launch"},
		{"Boulevard City", "Boulevard City"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent("  Riyadh\nSeason  Launch ", " https://example.com/e/1 ", " 5 Dec\n2025 ", "  Boulevard   City ", "https://example.com/events/")

	if evt.Title != "Riyadh Season Launch" {
		t.Errorf("Title = %q", evt.Title)
	}
	if evt.Link != "https://example.com/e/1" {
		t.Errorf("Link = %q", evt.Link)
	}
	if evt.DateText != "5 Dec 2025" {
		t.Errorf("DateText = %q", evt.DateText)
	}
	if evt.Location != "Boulevard City" {
		t.Errorf("Location = %q", evt.Location)
	}
	if evt.Description != "" {
		t.Errorf("Description = %q, want empty", evt.Description)
	}
	if evt.SourceURL != "https://example.com/events/" {
		t.Errorf("SourceURL = %q", evt.SourceURL)
	}
	if evt.Key() != evt.Link {
		t.Errorf("Key() = %q, want link", evt.Key())
	}
}

func TestEvent_Complete(t *testing.T) {
	tests := []struct {
		name string
		evt  Event
		want bool
	}{
		{"title and link", Event{Title: "A", Link: "https://example.com/a"}, true},
		{"missing title", Event{Link: "https://example.com/a"}, false},
		{"missing link", Event{Title: "A"}, false},
		{"empty", Event{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.evt.Complete(); got != tt.want {
				t.Errorf("Complete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateUID(t *testing.T) {
	loc := riyadh(t)
	start := time.Date(2025, time.December, 5, 9, 0, 0, 0, loc)

	uid1 := GenerateUID("Riyadh Season Launch", "https://example.com/e/1", start)
	uid2 := GenerateUID("Riyadh Season Launch", "https://example.com/e/1", start)

	if uid1 != uid2 {
		t.Errorf("GenerateUID not deterministic: %q != %q", uid1, uid2)
	}
	if !strings.HasSuffix(uid1, "@"+UIDDomain) {
		t.Errorf("UID %q should end with @%s", uid1, UIDDomain)
	}
	// sha1 hex + "@" + domain
	if len(uid1) != 40+1+len(UIDDomain) {
		t.Errorf("UID length = %d", len(uid1))
	}

	variants := []string{
		GenerateUID("Riyadh Season Closing", "https://example.com/e/1", start),
		GenerateUID("Riyadh Season Launch", "https://example.com/e/2", start),
		GenerateUID("Riyadh Season Launch", "https://example.com/e/1", start.Add(time.Hour)),
	}
	for _, v := range variants {
		if v == uid1 {
			t.Errorf("different inputs produced the same UID %q", v)
		}
	}
}

func TestEvent_Times(t *testing.T) {
	loc := riyadh(t)
	now := time.Date(2025, time.November, 20, 14, 45, 0, 0, loc)

	tests := []struct {
		name      string
		dateText  string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "single date gets default duration",
			dateText:  "12 Jan 2026",
			wantStart: time.Date(2026, time.January, 12, 9, 0, 0, 0, loc),
			wantEnd:   time.Date(2026, time.January, 12, 17, 0, 0, 0, loc),
		},
		{
			name:      "range keeps parsed end",
			dateText:  "12-15 Jan 2026",
			wantStart: time.Date(2026, time.January, 12, 9, 0, 0, 0, loc),
			wantEnd:   time.Date(2026, time.January, 15, 18, 0, 0, 0, loc),
		},
		{
			name:      "missing date falls back to today",
			dateText:  "",
			wantStart: time.Date(2025, time.November, 20, 9, 0, 0, 0, loc),
			wantEnd:   time.Date(2025, time.November, 20, 17, 0, 0, 0, loc),
		},
		{
			name:      "unparseable date falls back to today",
			dateText:  "See website",
			wantStart: time.Date(2025, time.November, 20, 9, 0, 0, 0, loc),
			wantEnd:   time.Date(2025, time.November, 20, 17, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := &Event{Title: "Event", Link: "https://example.com/e/1", DateText: tt.dateText}
			start, end := evt.Times(loc, now)
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", end, tt.wantEnd)
			}
		})
	}
}

func TestEvent_UIDStable(t *testing.T) {
	loc := riyadh(t)
	now := time.Date(2025, time.November, 20, 14, 45, 0, 0, loc)
	evt := &Event{Title: "Riyadh Season Launch", Link: "https://example.com/e/1", DateText: "5 Dec 2025"}

	start1, _ := evt.Times(loc, now)
	start2, _ := evt.Times(loc, now.Add(3*time.Hour))

	if evt.UID(start1) != evt.UID(start2) {
		t.Error("UID should not depend on the time of generation when the date parses")
	}
}
