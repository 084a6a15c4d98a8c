package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pfrederiksen/eor-ics/internal/logger"
)

func TestFetchEvents_HTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/events/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events/" || r.URL.RawQuery != "" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`
			<html><body>
				<div class="event-card">
					<h3>Riyadh Season Launch</h3>
					<a href="/e/1">Details</a>
					<div class="date">5 Dec 2025</div>
				</div>
				<div class="event-card">
					<a href="/e/2">Details</a>
				</div>
			</body></html>
		`))
	})
	mux.HandleFunc("/e/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`
			<div class="event-location">Boulevard City</div>
			<div class="event-description">Opening night of the season.</div>
		`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := fastConfig(1)
	cfg.BaseURL = server.URL + "/events/"
	cfg.MaxPages = 2
	cfg.PageDelay = 0

	now := time.Date(2025, time.December, 1, 12, 0, 0, 0, cfg.Location)
	s := New(cfg,
		WithClock(func() time.Time { return now }),
		WithMetrics(logger.NewMetrics()),
	)

	events := s.FetchEvents(context.Background())
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	evt := events[0]
	if evt.Title != "Riyadh Season Launch" {
		t.Errorf("Title = %q", evt.Title)
	}
	if evt.Link != server.URL+"/e/1" {
		t.Errorf("Link = %q", evt.Link)
	}
	if evt.Location != "Boulevard City" {
		t.Errorf("Location = %q", evt.Location)
	}
	if evt.Description != "Opening night of the season." {
		t.Errorf("Description = %q", evt.Description)
	}
}
