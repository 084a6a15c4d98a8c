package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/pfrederiksen/eor-ics/internal/config"
	"github.com/pfrederiksen/eor-ics/internal/event"
	"github.com/pfrederiksen/eor-ics/internal/logger"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Detail holds the fields recovered from an event's own page.
type Detail struct {
	DateText    string
	Location    string
	Description string
}

// labelPrefix matches "Date:" style labels picked up by :contains selectors.
var labelPrefix = regexp.MustCompile(`(?i)^(?:date|dates|when|location|venue|where)\s*:\s*`)

// compiled caches selector compilation results, including failures.
var compiled sync.Map

type compiledSelector struct {
	sel cascadia.Selector
	err error
}

// ParseDocument parses page text into a queryable document.
func ParseDocument(body string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

// ExtractListing returns one raw event per card on a listing page.
//
// The first card selector matching at least one element decides the card set;
// selectors are never combined. Within each card every field takes the first
// selector that matches. Links are resolved against pageURL. Cards are not
// filtered here, so events may lack a title or link.
func ExtractListing(doc *goquery.Document, pageURL string, sel config.Selectors) []*event.Event {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	cards := firstMatch(doc.Selection, sel.Card)
	if cards == nil {
		return nil
	}

	events := make([]*event.Event, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		link := ""
		if a := pick(card, sel.Link); a != nil {
			if href, ok := a.Attr("href"); ok {
				link = resolveLink(base, href)
			}
		}

		events = append(events, event.NewEvent(
			textOf(pick(card, sel.Title)),
			link,
			textOf(pick(card, sel.Date)),
			textOf(pick(card, sel.Location)),
			pageURL,
		))
	})
	return events
}

// ExtractDetail reads the date, location and description from an event page.
func ExtractDetail(doc *goquery.Document, sel config.Selectors) Detail {
	return Detail{
		DateText:    stripLabel(textOf(pick(doc.Selection, sel.DetailDate))),
		Location:    stripLabel(textOf(pick(doc.Selection, sel.DetailLocation))),
		Description: textOf(pick(doc.Selection, sel.DetailDescription)),
	}
}

// firstMatch returns every element matched by the first selector that
// matches anything under root, or nil when none does.
func firstMatch(root *goquery.Selection, selectors []string) *goquery.Selection {
	for _, s := range selectors {
		if found := selectAll(root, s); found != nil && found.Length() > 0 {
			return found
		}
	}
	return nil
}

// pick returns the first element matched by the first matching selector.
func pick(root *goquery.Selection, selectors []string) *goquery.Selection {
	if found := firstMatch(root, selectors); found != nil {
		return found.First()
	}
	return nil
}

// selectAll evaluates one selector under root in document order.
// A selector that does not compile matches nothing.
func selectAll(root *goquery.Selection, selector string) *goquery.Selection {
	m, err := compileSelector(selector)
	if err != nil {
		logger.Debug("skipping invalid selector", logger.Fields{
			"selector": selector,
			"error":    err.Error(),
		})
		return nil
	}
	return root.FindMatcher(m)
}

func compileSelector(selector string) (cascadia.Selector, error) {
	if c, ok := compiled.Load(selector); ok {
		cs := c.(compiledSelector)
		return cs.sel, cs.err
	}
	sel, err := cascadia.Compile(selector)
	compiled.Store(selector, compiledSelector{sel: sel, err: err})
	return sel, err
}

// textOf returns the visible text of sel's elements, text nodes joined by
// single spaces. Script and style contents are skipped.
func textOf(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}

	return event.Normalize(strings.Join(parts, " "))
}

// resolveLink makes href absolute against base. Only http(s) links survive.
func resolveLink(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil || strings.TrimSpace(href) == "" {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	ref.Fragment = ""
	return ref.String()
}

func stripLabel(s string) string {
	return strings.TrimSpace(labelPrefix.ReplaceAllString(s, ""))
}
