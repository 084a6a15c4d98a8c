package scraper

import (
	"fmt"
	"net/url"
	"strings"
)

// paginationPatterns are resolved against the base URL for pages 2..N.
// The site has used both query-parameter and path-segment pagination.
var paginationPatterns = []string{
	"?p=%d",
	"page/%d/",
	"?page=%d",
	"&p=%d",
	"&page=%d",
}

// PageURLs returns the candidate listing URLs to fetch: the base URL followed
// by every pagination pattern for pages 2 through maxPages, with duplicates
// removed in first-seen order.
func PageURLs(baseURL string, maxPages int) []string {
	urls := []string{baseURL}

	base, err := url.Parse(baseURL)
	if err == nil {
		for i := 2; i <= maxPages; i++ {
			for _, pattern := range paginationPatterns {
				urls = append(urls, resolve(base, fmt.Sprintf(pattern, i)))
			}
		}
	}

	seen := make(map[string]bool, len(urls))
	unique := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		unique = append(unique, u)
	}
	return unique
}

// resolve returns ref resolved against base, or "" if ref is not a valid URL reference.
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(r).String()
}
