package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/eor-ics/internal/config"
	"github.com/pfrederiksen/eor-ics/internal/event"
	"github.com/pfrederiksen/eor-ics/internal/logger"
)

// Scraper collects events from the configured listing pages.
type Scraper struct {
	cfg     *config.Config
	fetcher Fetcher
	metrics *logger.Metrics
	now     func() time.Time
	sleep   func(context.Context, time.Duration)
}

// Option customizes a Scraper.
type Option func(*Scraper)

// WithFetcher replaces the HTTP fetcher.
func WithFetcher(f Fetcher) Option {
	return func(s *Scraper) {
		s.fetcher = f
	}
}

// WithClock sets the source of "now" used for date defaults and the recency window.
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) {
		s.now = now
	}
}

// WithSleep replaces the politeness pause between fetches.
func WithSleep(sleep func(context.Context, time.Duration)) Option {
	return func(s *Scraper) {
		s.sleep = sleep
	}
}

// WithMetrics records counters on m instead of the default tracker.
func WithMetrics(m *logger.Metrics) Option {
	return func(s *Scraper) {
		s.metrics = m
	}
}

// New creates a new Scraper instance
func New(cfg *config.Config, opts ...Option) *Scraper {
	s := &Scraper{
		cfg:     cfg,
		metrics: logger.DefaultMetrics(),
		now:     time.Now,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fetcher == nil {
		s.fetcher = NewHTTPFetcher(cfg)
	}
	return s
}

// FetchEvents runs the whole collection: every listing page is fetched and
// extracted, incomplete records are dropped, duplicates removed by link,
// records optionally enriched from their detail pages and finally filtered
// to the recency window.
//
// FetchEvents never fails. Per-page and per-detail errors skip that unit of
// work; anything unexpected yields an empty result.
func (s *Scraper) FetchEvents(ctx context.Context) (events []*event.Event) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("scrape aborted, publishing no events", nil, fmt.Errorf("panic: %v", r))
			events = []*event.Event{}
		}
		s.metrics.RecordTiming("scrape.duration", time.Since(started))
	}()

	raw := s.collect(ctx)

	kept := make([]*event.Event, 0, len(raw))
	for _, evt := range raw {
		if !evt.Complete() {
			s.metrics.IncrCounter("events.incomplete")
			continue
		}
		kept = append(kept, evt)
	}

	unique := Dedupe(kept)
	s.metrics.AddCounter("events.duplicate", int64(len(kept)-len(unique)))

	if s.cfg.Enrich {
		s.enrich(ctx, unique)
	}

	events = s.filterRecent(unique)

	logger.Info("scrape complete", logger.Fields{
		"extracted": len(raw),
		"unique":    len(unique),
		"published": len(events),
	})
	return events
}

// collect fetches and extracts every listing page in order.
func (s *Scraper) collect(ctx context.Context) []*event.Event {
	var all []*event.Event

	for _, pageURL := range PageURLs(s.cfg.BaseURL, s.cfg.MaxPages) {
		if ctx.Err() != nil {
			break
		}

		body, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			s.metrics.IncrCounter("pages.failed")
			logger.Debug("skipping listing page", logger.Fields{
				"url":   pageURL,
				"error": err.Error(),
			})
			continue
		}
		s.metrics.IncrCounter("pages.fetched")

		doc, err := ParseDocument(body)
		if err != nil {
			logger.Debug("skipping unparseable listing page", logger.Fields{
				"url":   pageURL,
				"error": err.Error(),
			})
		} else {
			found := ExtractListing(doc, pageURL, s.cfg.Selectors)
			s.metrics.AddCounter("events.extracted", int64(len(found)))
			logger.Debug("extracted listing page", logger.Fields{
				"url":    pageURL,
				"events": len(found),
			})
			all = append(all, found...)
		}

		s.sleep(ctx, s.cfg.PageDelay)
	}

	return all
}

// enrich fills missing fields of each event from its detail page. Events
// whose detail page cannot be fetched are left unchanged.
func (s *Scraper) enrich(ctx context.Context, events []*event.Event) {
	for _, evt := range events {
		if ctx.Err() != nil {
			return
		}
		if evt.Link == "" {
			continue
		}

		body, err := s.fetcher.Fetch(ctx, evt.Link)
		if err != nil {
			s.metrics.IncrCounter("details.failed")
			logger.Debug("detail page unavailable", logger.Fields{
				"url":   evt.Link,
				"error": err.Error(),
			})
			continue
		}

		if doc, err := ParseDocument(body); err == nil {
			Apply(evt, ExtractDetail(doc, s.cfg.Selectors))
			s.metrics.IncrCounter("details.enriched")
		}

		s.sleep(ctx, s.cfg.PageDelay)
	}
}

// Apply merges a detail page into evt. Date and location are only filled
// when missing; the description is always replaced.
func Apply(evt *event.Event, d Detail) {
	if evt.DateText == "" {
		evt.DateText = event.Normalize(d.DateText)
	}
	if evt.Location == "" {
		evt.Location = event.Normalize(d.Location)
	}
	evt.Description = event.Normalize(d.Description)
}

func (s *Scraper) filterRecent(events []*event.Event) []*event.Event {
	now := s.now()
	recent := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		if evt.IsRecent(s.cfg.Location, now, s.cfg.RecencyDays) {
			recent = append(recent, evt)
			continue
		}
		s.metrics.IncrCounter("events.stale")
		logger.Debug("dropping stale event", logger.Fields{
			"title": evt.Title,
			"date":  evt.DateText,
		})
	}
	return recent
}

// Dedupe keeps the first event for each key, preserving encounter order.
func Dedupe(events []*event.Event) []*event.Event {
	seen := make(map[string]bool, len(events))
	unique := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		if seen[evt.Key()] {
			continue
		}
		seen[evt.Key()] = true
		unique = append(unique, evt)
	}
	return unique
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
