package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	check "gopkg.in/check.v1"

	"github.com/bolnews/newslake/scraper"
)

var _ = check.Suite(new(landingTestSuite))

type landingTestSuite struct {
	dir   string
	start time.Time
}

func (s *landingTestSuite) SetUpTest(c *check.C) {
	s.dir = c.MkDir()
	s.start = time.Date(2025, 4, 12, 15, 4, 5, 0, time.UTC)
}

func (s *landingTestSuite) TestLandingAppendsOneLinePerRecord(c *check.C) {
	w := newLandingWriter(s.dir, "bolnews", s.start, discardLogger())
	defer func() { c.Assert(w.Close(), check.IsNil) }()

	for _, title := range []string{"Primera Noticia", "Segunda Noticia"} {
		payload := rawPayload(scraper.RawArticle{
			SourceID:       "id-" + title,
			Site:           scraper.SiteElDeber,
			Section:        "pais",
			Title:          title,
			PublishedAtRaw: "12 de abril de 2025",
			URL:            "https://eldeber.com.bo/pais/" + title,
			CollectedAt:    s.start,
		})

		processed, err := w.Process(context.TODO(), payload)
		c.Assert(err, check.IsNil)
		// The landing stage is pass-through: the same payload continues.
		c.Assert(processed, check.Equals, payload)
	}

	contents, err := os.ReadFile(filepath.Join(s.dir, "landing_bolnews_20250412T150405Z.jsonl"))
	c.Assert(err, check.IsNil)

	var records []landingRecord
	dec := json.NewDecoder(bytes.NewReader(contents))
	for dec.More() {
		var record landingRecord
		c.Assert(dec.Decode(&record), check.IsNil)
		records = append(records, record)
	}

	c.Assert(records, check.HasLen, 2)
	// Raw values land verbatim, before any normalization.
	c.Assert(records[0].Title, check.Equals, "Primera Noticia")
	c.Assert(records[0].Source, check.Equals, "eldeber")
	c.Assert(records[0].Date, check.Equals, "12 de abril de 2025")
	c.Assert(records[0].CollectedAt, check.Equals, "2025-04-12T15:04:05Z")
	c.Assert(records[1].Title, check.Equals, "Segunda Noticia")
}

func (s *landingTestSuite) TestLandingCreatesMissingDirectory(c *check.C) {
	// A fresh working directory has no landing directory yet; the first
	// record of the run creates it along with the file.
	dir := filepath.Join(s.dir, "landing")
	w := newLandingWriter(dir, "bolnews", s.start, discardLogger())
	defer func() { c.Assert(w.Close(), check.IsNil) }()

	payload := rawPayload(scraper.RawArticle{
		SourceID: "id-1",
		Title:    "Noticia",
		URL:      "https://eldeber.com.bo/pais/noticia",
	})

	processed, err := w.Process(context.TODO(), payload)
	c.Assert(err, check.IsNil)
	c.Assert(processed, check.Equals, payload)

	entries, err := os.ReadDir(dir)
	c.Assert(err, check.IsNil)
	c.Assert(entries, check.HasLen, 1)
	c.Assert(entries[0].Name(), check.Equals, "landing_bolnews_20250412T150405Z.jsonl")
}

func (s *landingTestSuite) TestLandingFailurePassesRecordsThrough(c *check.C) {
	// A regular file squatting on the landing directory path makes the
	// directory creation fail; records must keep flowing regardless.
	blocked := filepath.Join(s.dir, "blocked")
	c.Assert(os.WriteFile(blocked, []byte("not a directory"), 0o644), check.IsNil)

	w := newLandingWriter(blocked, "bolnews", s.start, discardLogger())
	defer func() { c.Assert(w.Close(), check.IsNil) }()

	payload := rawPayload(scraper.RawArticle{
		SourceID: "id-1",
		Title:    "Noticia",
		URL:      "https://eldeber.com.bo/pais/noticia",
	})

	processed, err := w.Process(context.TODO(), payload)
	c.Assert(err, check.IsNil)
	c.Assert(processed, check.Equals, payload)
}
