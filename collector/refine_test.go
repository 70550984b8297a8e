package collector

import (
	"context"
	"testing"
	"time"

	"github.com/microcosm-cc/bluemonday"
	check "gopkg.in/check.v1"

	memstore "github.com/bolnews/newslake/lake/store/memory"
	"github.com/bolnews/newslake/scraper"
)

// Register the package test suites to run with go's test runner.
func Test(t *testing.T) {
	check.TestingT(t)
}

var _ = check.Suite(new(refineTestSuite))

type refineTestSuite struct {
	store *memstore.InMemoryStore
	proc  *refineProcessor
}

func (s *refineTestSuite) SetUpTest(c *check.C) {
	s.store = memstore.NewInMemoryStore()
	s.proc = newRefineProcessor(s.store, bluemonday.StrictPolicy(), discardLogger())
}

func (s *refineTestSuite) TestRefineNormalizesFields(c *check.C) {
	payload := rawPayload(scraper.RawArticle{
		SourceID:       "id-1",
		Site:           scraper.SiteElDeber,
		Section:        "  Pais ",
		Title:          "  Una Noticia IMPORTANTE ",
		Summary:        "<p>Lea más en https://eldeber.com.bo/x ¡Atención! 🔥</p>",
		PublishedAtRaw: "12 de abril de 2025",
		URL:            "https://eldeber.com.bo/pais/Una-Noticia",
		CollectedAt:    time.Date(2025, 4, 12, 10, 0, 0, 0, time.UTC),
	})

	processed, err := s.proc.Process(context.TODO(), payload)
	c.Assert(err, check.IsNil)
	c.Assert(processed, check.NotNil)

	refined := processed.(*articlePayload).Refined
	c.Assert(refined.GeneratedID, check.Equals, "id-1")
	c.Assert(refined.Title, check.Equals, "una noticia importante")
	c.Assert(refined.Summary, check.Equals, "lea m s en atenci n")
	c.Assert(refined.Date, check.Equals, "2025-04-12T00:00:00Z")
	c.Assert(refined.Section, check.Equals, "pais")
	c.Assert(refined.URL, check.Equals, "https://eldeber.com.bo/pais/una-noticia")
	c.Assert(refined.CollectedAt, check.Equals, "2025-04-12T10:00:00Z")

	exists, err := s.store.ExistsRefined(refined.URL)
	c.Assert(err, check.IsNil)
	c.Assert(exists, check.Equals, true)
}

func (s *refineTestSuite) TestRefinePreservesUnparseableDate(c *check.C) {
	payload := rawPayload(scraper.RawArticle{
		SourceID:       "id-2",
		Title:          "titulo",
		PublishedAtRaw: "  Hace un Momento ",
		URL:            "https://eldeber.com.bo/pais/n2",
	})

	processed, err := s.proc.Process(context.TODO(), payload)
	c.Assert(err, check.IsNil)
	c.Assert(processed.(*articlePayload).Refined.Date, check.Equals, "hace un momento")
}

func (s *refineTestSuite) TestRefineTreatsNullLiteralAsAbsent(c *check.C) {
	payload := rawPayload(scraper.RawArticle{
		SourceID: "id-3",
		Title:    "titulo",
		Summary:  " NULL ",
		Section:  "null",
		URL:      "https://eldeber.com.bo/pais/n3",
	})

	processed, err := s.proc.Process(context.TODO(), payload)
	c.Assert(err, check.IsNil)

	refined := processed.(*articlePayload).Refined
	c.Assert(refined.Summary, check.Equals, "")
	c.Assert(refined.Section, check.Equals, "")
}

func (s *refineTestSuite) TestRefineRejectsEmptyTitle(c *check.C) {
	payload := rawPayload(scraper.RawArticle{
		SourceID: "id-4",
		Title:    "  null ",
		URL:      "https://eldeber.com.bo/pais/n4",
	})

	processed, err := s.proc.Process(context.TODO(), payload)
	c.Assert(err, check.NotNil)
	c.Assert(processed, check.IsNil)

	exists, err := s.store.ExistsRefined("https://eldeber.com.bo/pais/n4")
	c.Assert(err, check.IsNil)
	c.Assert(exists, check.Equals, false)
}

func (s *refineTestSuite) TestRefineKeepsFirstWriteAndForwardsDuplicates(c *check.C) {
	first := rawPayload(scraper.RawArticle{
		SourceID: "id-5",
		Title:    "primera version",
		URL:      "https://eldeber.com.bo/pais/n5",
	})
	processed, err := s.proc.Process(context.TODO(), first)
	c.Assert(err, check.IsNil)
	c.Assert(processed, check.NotNil)

	// A later record for the same URL leaves the refined zone untouched but
	// still flows downstream, so the consumption zone can run its own dedup.
	second := rawPayload(scraper.RawArticle{
		SourceID: "id-6",
		Title:    "segunda version",
		URL:      "https://eldeber.com.bo/pais/n5",
	})
	processed, err = s.proc.Process(context.TODO(), second)
	c.Assert(err, check.IsNil)
	c.Assert(processed, check.NotNil)
	c.Assert(processed.(*articlePayload).Refined.Title, check.Equals, "segunda version")
}

func (s *refineTestSuite) TestSummaryCleaningIsIdempotent(c *check.C) {
	dirty := "Vea www.ejemplo.com/nota y https://otro.bo ¡ya! 😀  doble   espacio"

	once := cleanSummary(dirty)
	twice := cleanSummary(once)
	c.Assert(twice, check.Equals, once)
	c.Assert(once, check.Equals, "Vea y ya doble espacio")
}

func rawPayload(raw scraper.RawArticle) *articlePayload {
	p := payloadPool.Get().(*articlePayload)
	p.Raw = raw

	return p
}
