// Package scraper fetches event listing pages and turns them into events.
//
// The pipeline enumerates candidate listing URLs, fetches each one through a
// retrying HTTP client, extracts event cards with ordered selector fallbacks,
// deduplicates by link, optionally enriches each event from its detail page
// and finally drops events that ended well in the past. Every fetch or parse
// failure only skips the affected page or detail; a scrape never fails as a
// whole.
package scraper
