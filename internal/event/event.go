package event

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

const (
	// UIDDomain suffixes every calendar UID.
	UIDDomain = "eyeofriyadh.com"

	// DefaultDuration is applied when no end can be derived from the date text.
	DefaultDuration = 8 * time.Hour

	icsLocalLayout = "20060102T150405"
)

// Event is a single listing scraped from the events site.
type Event struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	DateText    string `json:"date_text,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	SourceURL   string `json:"source_url,omitempty"` // listing page the card was found on
}

// Normalize collapses runs of whitespace to a single space and trims the result.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NewEvent creates an Event with every text field normalized.
func NewEvent(title, link, dateText, location, sourceURL string) *Event {
	return &Event{
		Title:     Normalize(title),
		Link:      strings.TrimSpace(link),
		DateText:  Normalize(dateText),
		Location:  Normalize(location),
		SourceURL: sourceURL,
	}
}

// Key is the deduplication identity of the event.
func (e *Event) Key() string {
	return e.Link
}

// Complete reports whether the event has both a title and a link.
func (e *Event) Complete() bool {
	return e.Title != "" && e.Link != ""
}

// Range parses DateText into start and end times in loc.
// Either value is zero when it could not be determined.
func (e *Event) Range(loc *time.Location, now time.Time) (time.Time, time.Time) {
	return ParseRange(e.DateText, loc, now)
}

// Times returns the start and end used for publishing. Unlike Range, neither
// value is ever zero: a missing start becomes today at the default start hour
// and a missing end becomes start plus DefaultDuration.
func (e *Event) Times(loc *time.Location, now time.Time) (time.Time, time.Time) {
	start, end := e.Range(loc, now)
	if start.IsZero() {
		local := now.In(loc)
		start = time.Date(local.Year(), local.Month(), local.Day(), DefaultStartHour, 0, 0, 0, loc)
	}
	if end.IsZero() {
		end = start.Add(DefaultDuration)
	}
	return start, end
}

// GenerateUID creates a deterministic calendar UID from title, link and start.
// The same logical event always yields the same UID across runs.
func GenerateUID(title, link string, start time.Time) string {
	h := sha1.New()
	h.Write([]byte(title + "|" + link + "|" + start.Format(icsLocalLayout)))
	return fmt.Sprintf("%x@%s", h.Sum(nil), UIDDomain)
}

// UID returns the calendar UID for the event given its resolved start.
func (e *Event) UID(start time.Time) string {
	return GenerateUID(e.Title, e.Link, start)
}
