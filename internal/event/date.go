package event

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultStartHour is used when the start has no time of day.
	DefaultStartHour = 9
	// DefaultEndHour is used when the end has no time of day.
	DefaultEndHour = 18
)

var (
	rangeSeparator = regexp.MustCompile(`(?i)\s*(?:–|-|\bto\b)\s*`)
	isoDate        = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	// "10:00 -05:00": a negative offset after a clock time, not a range.
	negativeOffset = regexp.MustCompile(`(?i)(\d:\d{2}(?::\d{2})?(?:\s*[ap]\.?m\.?)?)\s+-(\d{2}:?\d{2})\b`)
	meridiemDots   = regexp.MustCompile(`\b([ap])\.m\.?`)

	// Alternatives, in priority order: numeric date (12/01/2026, 2026/01/12, 12.01.26),
	// clock time (18:00, 7:30 pm), bare hour with meridiem (7pm), zone offset (+03:00),
	// number with optional ordinal suffix (12, 1st), and a word.
	dateToken = regexp.MustCompile(`(\d{1,4}[/.]\d{1,2}(?:[/.]\d{2,4})?)|(\d{1,2}(?::\d{2}){1,2})\s*([ap]m\b)?|(\d{1,2})\s*([ap]m)\b|([+\-\x{2212}]\d{2}:?\d{2})\b|(\d+)(?:st|nd|rd|th)?|(\pL+)`)

	errNoDate = errors.New("no date or time found")
)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// ignored words carry no date information but commonly surround it.
var ignored = map[string]bool{
	"mon": true, "monday": true, "tue": true, "tues": true, "tuesday": true,
	"wed": true, "wednesday": true, "thu": true, "thur": true, "thurs": true, "thursday": true,
	"fri": true, "friday": true, "sat": true, "saturday": true, "sun": true, "sunday": true,
	"date": true, "dates": true, "time": true, "on": true, "at": true, "from": true,
	"the": true, "of": true, "and": true, "starts": true, "start": true, "ends": true, "end": true,
}

// dateFields holds the components found in one segment of date text.
// Zero means "not present" for year, month and day.
type dateFields struct {
	year, month, day     int
	hour, minute, second int
	hasTime              bool
	zone                 *time.Location
}

// ParseRange parses free-form event date text such as "12 Jan 2026",
// "12-15 Jan 2026" or "5 Dec 2025 7:30 pm to 10 pm" into start and end
// times in loc. Ambiguous numeric dates are read day first.
//
// Missing components are taken from a default: for the start, today in loc at
// DefaultStartHour; for the end, the resolved start date at DefaultEndHour.
// A start or end landing exactly on midnight is treated as date-only and moved
// to DefaultStartHour or DefaultEndHour respectively.
//
// A zero start means the text could not be parsed; the end is then always
// zero too. A zero end with a non-zero start means there was no usable range.
func ParseRange(text string, loc *time.Location, now time.Time) (start, end time.Time) {
	text = Normalize(text)
	if text == "" {
		return time.Time{}, time.Time{}
	}

	text = isoDate.ReplaceAllString(text, "$1/$2/$3")
	text = negativeOffset.ReplaceAllString(text, "$1 \u2212$2")
	parts := rangeSeparator.Split(text, -1)

	first, err := scanDate(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}
	}

	var second *dateFields
	if len(parts) > 1 {
		if f, err := scanDate(parts[1]); err == nil {
			second = &f
		}
	}

	// "12-15 Jan 2026": the first segment borrows month and year from the second.
	yearFromEnd := false
	if second != nil {
		if first.month == 0 && second.month != 0 {
			first.month = second.month
		}
		if first.year == 0 && second.year != 0 {
			first.year = second.year
			yearFromEnd = true
		}
	}

	local := now.In(loc)
	start, err = first.resolve(time.Date(local.Year(), local.Month(), local.Day(), DefaultStartHour, 0, 0, 0, loc), loc)
	if err != nil {
		return time.Time{}, time.Time{}
	}

	if second != nil {
		end, err = second.resolve(time.Date(start.Year(), start.Month(), start.Day(), DefaultEndHour, 0, 0, 0, loc), loc)
		if err != nil {
			end = time.Time{}
		} else if yearFromEnd && end.Before(start) {
			// "28 Dec - 3 Jan 2026"
			start = start.AddDate(-1, 0, 0)
		}
	}

	start, end = atHourIfMidnight(start, DefaultStartHour), atHourIfMidnight(end, DefaultEndHour)
	if end.Before(start) {
		end = time.Time{}
	}
	return start, end
}

func atHourIfMidnight(t time.Time, hour int) time.Time {
	if t.IsZero() || t.Hour() != 0 || t.Minute() != 0 {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, t.Second(), t.Nanosecond(), t.Location())
}

func scanDate(s string) (dateFields, error) {
	var f dateFields

	s = strings.ToLower(s)
	s = meridiemDots.ReplaceAllString(s, "${1}m")

	for _, m := range dateToken.FindAllStringSubmatch(s, -1) {
		var err error
		switch {
		case m[1] != "":
			err = f.setNumericDate(m[1])
		case m[2] != "":
			err = f.setClock(m[2], m[3])
		case m[4] != "":
			err = f.setClock(m[4], m[5])
		case m[6] != "":
			err = f.setOffset(m[6])
		case m[7] != "":
			err = f.setNumber(m[7])
		case m[8] != "":
			err = f.setWord(m[8])
		}
		if err != nil {
			return f, err
		}
	}

	if f.year == 0 && f.month == 0 && f.day == 0 && !f.hasTime {
		return f, errNoDate
	}
	return f, nil
}

func (f *dateFields) setDay(day int) error {
	if f.day != 0 {
		return fmt.Errorf("day given twice")
	}
	if day < 1 || day > 31 {
		return fmt.Errorf("day %d out of range", day)
	}
	f.day = day
	return nil
}

func (f *dateFields) setMonth(month int) error {
	if f.month != 0 {
		return fmt.Errorf("month given twice")
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("month %d out of range", month)
	}
	f.month = month
	return nil
}

func (f *dateFields) setYear(year int) error {
	if f.year != 0 {
		return fmt.Errorf("year given twice")
	}
	f.year = year
	return nil
}

// setNumericDate handles d/m/y, d.m.y and y/m/d forms.
func (f *dateFields) setNumericDate(tok string) error {
	parts := strings.FieldsFunc(tok, func(r rune) bool { return r == '/' || r == '.' })
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return err
		}
		nums[i] = n
	}

	if len(parts[0]) == 4 {
		if err := f.setYear(nums[0]); err != nil {
			return err
		}
		if err := f.setMonth(nums[1]); err != nil {
			return err
		}
		if len(nums) == 3 {
			return f.setDay(nums[2])
		}
		return nil
	}

	day, month := nums[0], nums[1]
	if month > 12 && day <= 12 {
		day, month = month, day
	}
	if err := f.setDay(day); err != nil {
		return err
	}
	if err := f.setMonth(month); err != nil {
		return err
	}
	if len(nums) == 3 {
		return f.setYear(expandYear(parts[2], nums[2]))
	}
	return nil
}

func (f *dateFields) setClock(clock, meridiem string) error {
	if f.hasTime {
		return fmt.Errorf("time given twice")
	}

	parts := strings.Split(clock, ":")
	vals := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return err
		}
		vals[i] = n
	}
	hour, minute, second := vals[0], vals[1], vals[2]

	switch meridiem {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return fmt.Errorf("hour %d out of range for %s", hour, meridiem)
		}
		if meridiem == "pm" && hour < 12 {
			hour += 12
		}
		if meridiem == "am" && hour == 12 {
			hour = 0
		}
	}

	if hour > 23 || minute > 59 || second > 59 {
		return fmt.Errorf("invalid time %q", clock)
	}

	f.hour, f.minute, f.second = hour, minute, second
	f.hasTime = true
	return nil
}

func (f *dateFields) setOffset(tok string) error {
	if f.zone != nil {
		return fmt.Errorf("zone given twice")
	}
	sign := 1
	switch {
	case strings.HasPrefix(tok, "+"):
		tok = tok[1:]
	case strings.HasPrefix(tok, "-"):
		sign, tok = -1, tok[1:]
	default:
		sign, tok = -1, strings.TrimPrefix(tok, "\u2212")
	}
	digits := strings.ReplaceAll(tok, ":", "")
	hh, err := strconv.Atoi(digits[:2])
	if err != nil {
		return err
	}
	mm, err := strconv.Atoi(digits[2:])
	if err != nil {
		return err
	}
	if hh > 14 || mm > 59 {
		return fmt.Errorf("invalid offset %q", tok)
	}
	f.zone = time.FixedZone("", sign*(hh*3600+mm*60))
	return nil
}

func (f *dateFields) setNumber(tok string) error {
	n, err := strconv.Atoi(tok)
	if err != nil {
		return err
	}
	switch {
	case len(tok) == 4:
		return f.setYear(n)
	case len(tok) > 2:
		return fmt.Errorf("unexpected number %q", tok)
	case f.day == 0 && n >= 1 && n <= 31:
		return f.setDay(n)
	case f.month == 0 && n >= 1 && n <= 12:
		return f.setMonth(n)
	case f.year == 0:
		return f.setYear(expandYear(tok, n))
	}
	return fmt.Errorf("unexpected number %q", tok)
}

func (f *dateFields) setWord(w string) error {
	if m, ok := months[w]; ok {
		return f.setMonth(int(m))
	}
	if ignored[w] {
		return nil
	}
	switch w {
	case "utc", "gmt", "z":
		if f.zone != nil {
			return fmt.Errorf("zone given twice")
		}
		f.zone = time.UTC
		return nil
	case "noon":
		return f.setClock("12", "pm")
	}
	return fmt.Errorf("unknown word %q", w)
}

// resolve fills missing components from def and builds the time in loc.
// An explicit zone in the text wins and the result is converted to loc.
func (f dateFields) resolve(def time.Time, loc *time.Location) (time.Time, error) {
	year, month, day := def.Year(), def.Month(), def.Day()
	if f.year != 0 {
		year = f.year
	}
	if f.month != 0 {
		month = time.Month(f.month)
	}
	if f.day != 0 {
		day = f.day
	} else if last := daysIn(year, month); day > last {
		day = last
	}
	if day > daysIn(year, month) {
		return time.Time{}, fmt.Errorf("day %d out of range for %s %d", day, month, year)
	}

	hour, minute, second := def.Hour(), def.Minute(), def.Second()
	if f.hasTime {
		hour, minute, second = f.hour, f.minute, f.second
	}

	zone := loc
	if f.zone != nil {
		zone = f.zone
	}
	return time.Date(year, month, day, hour, minute, second, 0, zone).In(loc), nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func expandYear(tok string, n int) int {
	if len(tok) <= 2 {
		return 2000 + n
	}
	return n
}

// IsRecent reports whether an event starting at start is still worth
// publishing: its start date is on or after today minus days, in loc.
// A zero start is always recent.
func IsRecent(start, now time.Time, loc *time.Location, days int) bool {
	if start.IsZero() {
		return true
	}
	s := start.In(loc)
	n := now.In(loc)
	startDay := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc)
	cutoff := time.Date(n.Year(), n.Month(), n.Day()-days, 0, 0, 0, 0, loc)
	return !startDay.Before(cutoff)
}

// IsRecent checks the event's parsed start against the recency window.
// Events whose date text cannot be parsed are kept.
func (e *Event) IsRecent(loc *time.Location, now time.Time, days int) bool {
	start, _ := e.Range(loc, now)
	return IsRecent(start, now, loc, days)
}
