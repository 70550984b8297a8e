package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bolnews/newslake/pipeline"
)

// Static and compile-time check to ensure landingWriter implements the
// pipeline.Processor interface.
var _ pipeline.Processor = (*landingWriter)(nil)

// landingRecord is the JSONL rendering of one raw article in the landing
// zone. Field values are written verbatim as extracted.
type landingRecord struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Section     string `json:"section"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Date        string `json:"date"`
	URL         string `json:"url"`
	CollectedAt string `json:"collected_at"`
}

// landingWriter appends every raw article to the run's landing file, one
// JSON document per line. The landing zone is an append-only audit log, so
// write failures are logged and the record passes through to the next stage
// regardless.
type landingWriter struct {
	path   string
	logger *logrus.Entry

	openOnce sync.Once
	file     *os.File
	enc      *json.Encoder
}

// newLandingWriter returns a landing writer for one collect run. Each run
// gets its own file named after the collector and the run start time; the
// file is created lazily on the first record.
func newLandingWriter(dir, name string, start time.Time, logger *logrus.Entry) *landingWriter {
	fileName := fmt.Sprintf("landing_%s_%s.jsonl", name, start.UTC().Format("20060102T150405Z"))

	return &landingWriter{
		path:   filepath.Join(dir, fileName),
		logger: logger.WithField("landing_file", fileName),
	}
}

// Process implements pipeline.Processor.
func (w *landingWriter) Process(_ context.Context, p pipeline.Payload) (pipeline.Payload, error) {
	payload := p.(*articlePayload)

	w.openOnce.Do(func() {
		if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
			w.logger.WithError(err).Error("landing file unavailable, records pass through unlogged")

			return
		}

		file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			w.logger.WithError(err).Error("landing file unavailable, records pass through unlogged")

			return
		}

		w.file = file
		w.enc = json.NewEncoder(file)
	})

	if w.enc != nil {
		record := landingRecord{
			ID:          payload.Raw.SourceID,
			Source:      payload.Raw.Site.String(),
			Section:     payload.Raw.Section,
			Title:       payload.Raw.Title,
			Summary:     payload.Raw.Summary,
			Date:        payload.Raw.PublishedAtRaw,
			URL:         payload.Raw.URL,
			CollectedAt: payload.Raw.CollectedAt.UTC().Format(time.RFC3339),
		}

		if err := w.enc.Encode(record); err != nil {
			w.logger.WithError(err).WithField("url", payload.Raw.URL).Warn("landing write failed")
		}
	}

	return p, nil
}

// Close releases the landing file, if one was created during the run.
func (w *landingWriter) Close() error {
	if w.file == nil {
		return nil
	}

	return w.file.Close()
}
