/*
	scraper package holds the per-site page parsing rules for the collected
	news sites. Each site gets its own PageParser implementation selected
	through an explicit lookup table, and each parser extracts article blocks
	with a primary CSS selector plus a documented fallback so small structure
	drifts degrade to the fallback instead of an empty page.

	Pagination policy is also site-specific and carried per request: El Deber
	advances a page number embedded in the URL, Los Tiempos follows the
	"next" link published by the page itself, Ahora El Pueblo advances an
	offset cursor.
*/

package scraper

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Site enumerates the news sites the collector knows how to parse.
type Site int

const (
	SiteElDeber Site = iota
	SiteLosTiempos
	SiteAhoraElPueblo
)

// String returns the coarse source label for the site.
func (s Site) String() string {
	switch s {
	case SiteElDeber:
		return "eldeber"
	case SiteLosTiempos:
		return "lostiempos"
	case SiteAhoraElPueblo:
		return "ahoraelpueblo"
	default:
		return fmt.Sprintf("site(%d)", int(s))
	}
}

// RawArticle is one article block extracted from a listing page, verbatim
// except for whitespace trimming. URL is the article identity across every
// downstream stage.
type RawArticle struct {
	SourceID       string // random unique identifier assigned at extraction.
	Site           Site
	Section        string
	Title          string
	Summary        string
	PublishedAtRaw string // site-specific date text, parsed downstream.
	URL            string // absolute article URL.
	CollectedAt    time.Time
}

// PageRequest describes one page fetch of a crawl branch together with the
// branch-private pagination state. Two branches never share a PageRequest,
// so page counters cannot corrupt each other.
type PageRequest struct {
	Site       Site
	Section    string
	URL        string
	Page       int    // 1-based page counter for this branch.
	MaxPages   int    // configured fetch budget for this branch.
	Offset     int    // offset cursor (offset-paginated sites only).
	OffsetStep int    // offset increment per page (offset-paginated sites only).
	Pattern    string // URL pattern used to derive the next page, if any.
}

// PageParser should be implemented by types that extract article blocks and
// a next-page descriptor from one fetched listing page.
type PageParser interface {
	// Parse extracts zero or more raw articles from the page body. The
	// returned next request is nil when the branch should terminate, either
	// because the fetch budget is spent or the page advertises no next page.
	// Blocks missing a title or URL are skipped and logged, never fatal.
	Parse(req PageRequest, body io.Reader, now time.Time) ([]RawArticle, *PageRequest, error)
}

// NewParserSet returns the site→parser lookup table. Unknown sites simply
// have no entry; there is no name-matching fallthrough.
func NewParserSet(logger *logrus.Entry) map[Site]PageParser {
	if logger == nil {
		logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return map[Site]PageParser{
		SiteElDeber:       &elDeberParser{logger: logger.WithField("parser", SiteElDeber.String())},
		SiteLosTiempos:    &losTiemposParser{logger: logger.WithField("parser", SiteLosTiempos.String())},
		SiteAhoraElPueblo: &ahoraElPuebloParser{logger: logger.WithField("parser", SiteAhoraElPueblo.String())},
	}
}

// collapseText trims the selection text and collapses internal whitespace
// runs, matching how listing markup spreads one sentence over nested nodes.
func collapseText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// resolveURL makes href absolute against the page URL. Unresolvable hrefs
// yield an empty string so the block gets skipped like a missing URL.
func resolveURL(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return base.ResolveReference(ref).String()
}
