package collector

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"

	"github.com/bolnews/newslake/dates"
	"github.com/bolnews/newslake/lake"
	"github.com/bolnews/newslake/pipeline"
)

// Static and compile-time check to ensure refineProcessor implements the
// pipeline.Processor interface.
var _ pipeline.Processor = (*refineProcessor)(nil)

var (
	// Link substrings must be stripped before the symbol pass, which would
	// otherwise mangle them beyond recognition by the pattern.
	linkRegex   = regexp.MustCompile(`(?:https?://|www\.)\S+`)
	symbolRegex = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	spaceRegex  = regexp.MustCompile(`\s+`)
)

// refineProcessor cleans and normalizes raw articles into refined rows and
// writes them to the refined zone. The URL is the row identity: the first
// refined write for a URL wins and later records for the same URL leave the
// zone untouched. Already seen records still continue downstream, so the
// consumption zone applies its own dedup and can backfill rows the refined
// zone has but it lacks.
type refineProcessor struct {
	store     lake.RefinedStore
	sanitizer *bluemonday.Policy
	logger    *logrus.Entry
}

func newRefineProcessor(store lake.RefinedStore, sanitizer *bluemonday.Policy, logger *logrus.Entry) *refineProcessor {
	return &refineProcessor{
		store:     store,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// Process implements pipeline.Processor.
func (p *refineProcessor) Process(_ context.Context, payload pipeline.Payload) (pipeline.Payload, error) {
	ap := payload.(*articlePayload)
	raw := &ap.Raw

	title := normalizeField(raw.Title)
	if title == "" {
		return nil, fmt.Errorf("refine: empty title for article %q", raw.URL)
	}

	articleURL := normalizeField(raw.URL)
	if articleURL == "" {
		return nil, fmt.Errorf("refine: empty url for article %q", raw.Title)
	}

	ap.Refined = lake.RefinedArticle{
		GeneratedID: raw.SourceID,
		Title:       title,
		Summary:     cleanSummary(normalizeField(html.UnescapeString(p.sanitizer.Sanitize(raw.Summary)))),
		Date:        refineDate(raw.PublishedAtRaw),
		Section:     normalizeField(raw.Section),
		URL:         articleURL,
		CollectedAt: raw.CollectedAt.UTC().Format(time.RFC3339),
	}

	exists, err := p.store.ExistsRefined(articleURL)
	if err != nil {
		return nil, fmt.Errorf("refine: %w", err)
	}
	if exists {
		p.logger.WithField("url", articleURL).Debug("article already refined, forwarding for consumption")

		return ap, nil
	}

	if err := p.store.InsertRefined(&ap.Refined); err != nil {
		// A concurrent writer may have claimed the URL between the existence
		// check and the insert; the record is forwarded like any other
		// already refined article.
		if errors.Is(err, lake.ErrExists) {
			return ap, nil
		}

		return nil, fmt.Errorf("refine: %w", err)
	}

	return ap, nil
}

// normalizeField case-folds and trims a raw field value. Blank values and
// the literal string "null" both normalize to absent.
func normalizeField(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "null" {
		return ""
	}

	return value
}

// cleanSummary strips link substrings, then every character outside letters,
// digits and whitespace, then collapses whitespace runs. The operation is
// idempotent: cleaning an already clean summary is a no-op.
func cleanSummary(summary string) string {
	summary = linkRegex.ReplaceAllString(summary, " ")
	summary = symbolRegex.ReplaceAllString(summary, " ")

	return strings.TrimSpace(spaceRegex.ReplaceAllString(summary, " "))
}

// refineDate renders the raw publication date as ISO-8601 when parseable and
// preserves the normalized raw text otherwise. Raw text is never discarded.
func refineDate(raw string) string {
	if iso, err := dates.ParseISO(raw); err == nil {
		return iso
	}

	return strings.ToLower(strings.TrimSpace(raw))
}
