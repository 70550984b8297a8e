package collector

import (
	"context"
	"time"

	"github.com/juju/clock/testclock"
	check "gopkg.in/check.v1"

	"github.com/bolnews/newslake/lake"
	memstore "github.com/bolnews/newslake/lake/store/memory"
)

var _ = check.Suite(new(consumeTestSuite))

type consumeTestSuite struct {
	store *memstore.InMemoryStore
	clk   *testclock.Clock
	sink  *consumeSink
}

func (s *consumeTestSuite) SetUpTest(c *check.C) {
	s.store = memstore.NewInMemoryStore()
	s.clk = testclock.NewClock(time.Date(2025, 4, 12, 15, 0, 0, 0, time.UTC))
	s.sink = newConsumeSink(s.store, s.clk, discardLogger())
}

func (s *consumeTestSuite) TestConsumeSplitsDateAndTime(c *check.C) {
	payload := refinedPayload(lake.RefinedArticle{
		Title: "una noticia",
		Date:  "2025-04-12T08:30:45Z",
		URL:   "https://eldeber.com.bo/pais/n1",
	})

	err := s.sink.Consume(context.TODO(), payload)
	c.Assert(err, check.IsNil)
	c.Assert(s.sink.Stored(), check.Equals, 1)

	record := s.fetchRecord(c, "https://eldeber.com.bo/pais/n1")
	c.Assert(record.Source, check.Equals, "eldeber")
	c.Assert(record.Date, check.NotNil)
	c.Assert(record.Date.Format("2006-01-02"), check.Equals, "2025-04-12")
	c.Assert(record.TimeOfDay, check.NotNil)
	c.Assert(*record.TimeOfDay, check.Equals, "08:30:45")
	c.Assert(record.ProcessedAt, check.Equals, s.clk.Now().UTC())
}

func (s *consumeTestSuite) TestConsumeStoresUnparseableDateAsNull(c *check.C) {
	payload := refinedPayload(lake.RefinedArticle{
		Title: "sin fecha",
		Date:  "hace un momento",
		URL:   "https://www.lostiempos.com/actualidad/n2",
	})

	err := s.sink.Consume(context.TODO(), payload)
	c.Assert(err, check.IsNil)

	record := s.fetchRecord(c, "https://www.lostiempos.com/actualidad/n2")
	c.Assert(record.Source, check.Equals, "lostiempos")
	c.Assert(record.Date, check.IsNil)
	c.Assert(record.TimeOfDay, check.IsNil)
}

func (s *consumeTestSuite) TestConsumeSkipsExistingURL(c *check.C) {
	payload := refinedPayload(lake.RefinedArticle{
		Title: "original",
		URL:   "https://ahoraelpueblo.bo/index.php/nacional/n3",
	})
	c.Assert(s.sink.Consume(context.TODO(), payload), check.IsNil)

	duplicate := refinedPayload(lake.RefinedArticle{
		Title: "duplicado",
		URL:   "https://ahoraelpueblo.bo/index.php/nacional/n3",
	})
	c.Assert(s.sink.Consume(context.TODO(), duplicate), check.IsNil)
	c.Assert(s.sink.Stored(), check.Equals, 1)

	record := s.fetchRecord(c, "https://ahoraelpueblo.bo/index.php/nacional/n3")
	c.Assert(record.Title, check.Equals, "original")
	c.Assert(record.Source, check.Equals, "ahoraelpueblo")
}

func (s *consumeTestSuite) TestSourceLabelDerivation(c *check.C) {
	cases := []struct {
		url, want string
	}{
		{"https://eldeber.com.bo/pais/nota", "eldeber"},
		{"https://www.eldeber.com.bo/pais/nota", "eldeber"},
		{"https://www.lostiempos.com/actualidad/nota", "lostiempos"},
		{"https://ahoraelpueblo.bo/index.php/nota", "ahoraelpueblo"},
		{"https://noticias.ejemplo.bo/nota", "ejemplo"},
		{"https://portal.example.com.bo/nota", "portal"},
		{"https://example.com/nota", "example"},
	}

	for _, tc := range cases {
		c.Assert(sourceFromURL(tc.url), check.Equals, tc.want,
			check.Commentf("url: %s", tc.url))
	}
}

func (s *consumeTestSuite) fetchRecord(c *check.C, url string) *lake.AnalyticsRecord {
	it, err := s.store.Articles(lake.Filter{})
	c.Assert(err, check.IsNil)
	defer func() { c.Assert(it.Close(), check.IsNil) }()

	for it.Next() {
		if record := it.Article(); record.URL == url {
			return record
		}
	}
	c.Assert(it.Error(), check.IsNil)
	c.Fatalf("no analytics record for %s", url)

	return nil
}

func refinedPayload(refined lake.RefinedArticle) *articlePayload {
	p := payloadPool.Get().(*articlePayload)
	p.Refined = refined

	return p
}
