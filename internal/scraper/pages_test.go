package scraper

import (
	"reflect"
	"testing"
)

func TestPageURLs(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		maxPages int
		want     []string
	}{
		{
			name:     "single page",
			baseURL:  "https://www.eyeofriyadh.com/events/",
			maxPages: 1,
			want:     []string{"https://www.eyeofriyadh.com/events/"},
		},
		{
			name:     "two pages",
			baseURL:  "https://www.eyeofriyadh.com/events/",
			maxPages: 2,
			want: []string{
				"https://www.eyeofriyadh.com/events/",
				"https://www.eyeofriyadh.com/events/?p=2",
				"https://www.eyeofriyadh.com/events/page/2/",
				"https://www.eyeofriyadh.com/events/?page=2",
				"https://www.eyeofriyadh.com/events/&p=2",
				"https://www.eyeofriyadh.com/events/&page=2",
			},
		},
		{
			name:     "base already paginated",
			baseURL:  "https://example.com/events/?p=2",
			maxPages: 2,
			want: []string{
				"https://example.com/events/?p=2",
				"https://example.com/events/page/2/",
				"https://example.com/events/?page=2",
				"https://example.com/events/&p=2",
				"https://example.com/events/&page=2",
			},
		},
		{
			name:     "zero pages still yields base",
			baseURL:  "https://example.com/events/",
			maxPages: 0,
			want:     []string{"https://example.com/events/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PageURLs(tt.baseURL, tt.maxPages)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PageURLs(%q, %d) =\n%v\nwant\n%v", tt.baseURL, tt.maxPages, got, tt.want)
			}
		})
	}
}

func TestPageURLs_OrderAndUniqueness(t *testing.T) {
	urls := PageURLs("https://www.eyeofriyadh.com/events/", 8)

	if len(urls) != 1+7*len(paginationPatterns) {
		t.Errorf("len = %d, want %d", len(urls), 1+7*len(paginationPatterns))
	}
	if urls[0] != "https://www.eyeofriyadh.com/events/" {
		t.Errorf("first URL = %q, want base", urls[0])
	}
	if urls[len(urls)-1] != "https://www.eyeofriyadh.com/events/&page=8" {
		t.Errorf("last URL = %q", urls[len(urls)-1])
	}

	seen := make(map[string]bool)
	for _, u := range urls {
		if seen[u] {
			t.Errorf("duplicate URL %q", u)
		}
		seen[u] = true
	}
}
