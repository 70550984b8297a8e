package collector

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/bolnews/newslake/dates"
	"github.com/bolnews/newslake/lake"
	"github.com/bolnews/newslake/pipeline"
)

// Static and compile-time check to ensure consumeSink implements the
// pipeline.Sink interface.
var _ pipeline.Sink = (*consumeSink)(nil)

// sourceLabels maps known site domains to their coarse source labels.
var sourceLabels = map[string]string{
	"eldeber.com.bo":   "eldeber",
	"lostiempos.com":   "lostiempos",
	"ahoraelpueblo.bo": "ahoraelpueblo",
}

// consumeSink turns refined rows into analytics-ready rows and writes them
// to the consumption zone. The existence check is the first dedup layer; the
// store's conflict-ignoring insert is the second, so re-processing identical
// input never grows the zone.
type consumeSink struct {
	store  lake.AnalyticsStore
	clk    clock.Clock
	logger *logrus.Entry
	stored int64
}

func newConsumeSink(store lake.AnalyticsStore, clk clock.Clock, logger *logrus.Entry) *consumeSink {
	return &consumeSink{
		store:  store,
		clk:    clk,
		logger: logger,
	}
}

// Consume implements pipeline.Sink.
func (s *consumeSink) Consume(_ context.Context, payload pipeline.Payload) error {
	refined := &payload.(*articlePayload).Refined

	record := &lake.AnalyticsRecord{
		Title:       refined.Title,
		Section:     refined.Section,
		Source:      sourceFromURL(refined.URL),
		URL:         refined.URL,
		ProcessedAt: s.clk.Now().UTC(),
	}

	// An unparseable publication date yields null date and time columns; the
	// record itself is still stored.
	if t, err := dates.Parse(refined.Date); err == nil {
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		timeOfDay := t.Format("15:04:05")
		record.Date = &day
		record.TimeOfDay = &timeOfDay
	}

	exists, err := s.store.ExistsAnalytics(record.URL)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	if exists {
		s.logger.WithField("url", record.URL).Debug("skipping already consumed article")

		return nil
	}

	inserted, err := s.store.InsertAnalytics(record)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	if inserted {
		atomic.AddInt64(&s.stored, 1)
	}

	return nil
}

// Stored returns the number of analytics rows written during the run.
func (s *consumeSink) Stored() int {
	return int(atomic.LoadInt64(&s.stored))
}

// sourceFromURL derives the coarse source label from the article URL's
// domain. Unknown domains fall back to the second-to-last dot-separated
// label, or the first label when the second-to-last is a bare "com".
func sourceFromURL(articleURL string) string {
	u, err := url.Parse(articleURL)
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	if label, exists := sourceLabels[host]; exists {
		return label
	}

	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}

	if candidate := parts[len(parts)-2]; candidate != "com" {
		return candidate
	}

	return parts[0]
}
