// Command preview-calendar renders a saved listing page as a calendar.
//
// Usage:
//
//	go run ./scripts/preview-calendar.go page.html [page-url]
//
// It is handy for tuning selectors against a page captured with curl: the
// extracted events are printed to stderr and the calendar to stdout. No
// network requests are made, so events are not enriched.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/eor-ics/internal/calendar"
	"github.com/pfrederiksen/eor-ics/internal/config"
	"github.com/pfrederiksen/eor-ics/internal/scraper"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: preview-calendar page.html [page-url]")
		os.Exit(1)
	}

	cfg := config.Default()
	pageURL := cfg.BaseURL
	if len(os.Args) > 2 {
		pageURL = os.Args[2]
	}

	body, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading page: %v\n", err)
		os.Exit(1)
	}

	doc, err := scraper.ParseDocument(string(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing page: %v\n", err)
		os.Exit(1)
	}

	events := scraper.Dedupe(scraper.ExtractListing(doc, pageURL, cfg.Selectors))
	for _, evt := range events {
		fmt.Fprintf(os.Stderr, "%-40q %-30q %s\n", evt.Title, evt.DateText, evt.Link)
	}

	ics := calendar.GenerateICS(events, calendar.Options{
		Location:     cfg.Location,
		BaseURL:      cfg.BaseURL,
		CalendarName: cfg.CalendarName,
		Now:          time.Now,
	})

	if _, err := calendar.Verify([]byte(ics)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: calendar failed verification: %v\n", err)
	}

	fmt.Print(ics)
}
