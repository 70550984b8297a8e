package collector

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/juju/clock/testclock"
	"github.com/sirupsen/logrus"
	check "gopkg.in/check.v1"

	"github.com/bolnews/newslake/collector/mocks"
	"github.com/bolnews/newslake/lake"
	memstore "github.com/bolnews/newslake/lake/store/memory"
	"github.com/bolnews/newslake/scraper"
)

var _ = check.Suite(new(collectorTestSuite))

type collectorTestSuite struct {
	fetcher *mocks.MockFetcher
	store   *memstore.InMemoryStore
	clk     *testclock.Clock
	dir     string
}

func (s *collectorTestSuite) SetUpTest(c *check.C) {
	s.fetcher = mocks.NewMockFetcher(gomock.NewController(c))
	s.store = memstore.NewInMemoryStore()
	s.clk = testclock.NewClock(time.Date(2025, 4, 12, 12, 0, 0, 0, time.UTC))
	s.dir = c.MkDir()
}

func (s *collectorTestSuite) TestConfigValidation(c *check.C) {
	_, err := New(Config{})
	c.Assert(err, check.NotNil)

	collector, err := New(Config{Store: s.store})
	c.Assert(err, check.IsNil)
	c.Assert(collector, check.NotNil)
}

func (s *collectorTestSuite) TestRerunOverIdenticalPagesNeverGrowsTheLake(c *check.C) {
	for page := 1; page <= 2; page++ {
		fixture := elDeberFixture(fmt.Sprintf("noticia-%d", page))
		s.fetcher.EXPECT().
			Fetch(gomock.Any(), fmt.Sprintf("https://eldeber.com.bo/pais/%d/", page)).
			DoAndReturn(func(context.Context, string) (io.ReadCloser, error) {
				// A fresh body per call: both collect passes read the page.
				return pageBody(fixture), nil
			}).
			Times(2)
	}

	collector, err := New(Config{
		Fetcher: s.fetcher,
		Store:   s.store,
		Crawl: scraper.Config{
			Seeds: []scraper.PageRequest{{
				Site:     scraper.SiteElDeber,
				Section:  "pais",
				URL:      "https://eldeber.com.bo/pais/1/",
				Page:     1,
				MaxPages: 2,
				Pattern:  "https://eldeber.com.bo/pais/%d/",
			}},
		},
		LandingDir: s.dir,
		Name:       "test",
		Clock:      s.clk,
		Logger:     discardLogger(),
	})
	c.Assert(err, check.IsNil)

	collected, err := collector.Run(context.TODO())
	c.Assert(err, check.IsNil)
	c.Assert(collected, check.Equals, 2)
	c.Assert(s.analyticsCount(c), check.Equals, 2)

	// Identical crawl output on a re-run is fully deduplicated.
	collected, err = collector.Run(context.TODO())
	c.Assert(err, check.IsNil)
	c.Assert(collected, check.Equals, 2)
	c.Assert(s.analyticsCount(c), check.Equals, 2)

	// Every run still lands its raw records: the landing zone is an
	// append-only audit log with one file per run.
	entries, err := os.ReadDir(s.dir)
	c.Assert(err, check.IsNil)
	c.Assert(len(entries) >= 1, check.Equals, true)
	c.Assert(filepath.Ext(entries[0].Name()), check.Equals, ".jsonl")
}

func (s *collectorTestSuite) TestAlreadyRefinedURLBackfillsAnalytics(c *check.C) {
	// A refined row can exist without its analytics counterpart, e.g. when a
	// prior run's consumption insert was rolled back. A new crawl of the same
	// URL must still reach the consumption zone and fill the gap.
	c.Assert(s.store.InsertRefined(&lake.RefinedArticle{
		GeneratedID: "id-prior",
		Title:       "noticia-1",
		URL:         "https://eldeber.com.bo/pais/noticia-1",
	}), check.IsNil)

	s.fetcher.EXPECT().
		Fetch(gomock.Any(), "https://eldeber.com.bo/pais/1/").
		Return(pageBody(elDeberFixture("noticia-1")), nil)

	collector, err := New(Config{
		Fetcher: s.fetcher,
		Store:   s.store,
		Crawl: scraper.Config{
			Seeds: []scraper.PageRequest{{
				Site:     scraper.SiteElDeber,
				Section:  "pais",
				URL:      "https://eldeber.com.bo/pais/1/",
				Page:     1,
				MaxPages: 1,
				Pattern:  "https://eldeber.com.bo/pais/%d/",
			}},
		},
		LandingDir: s.dir,
		Name:       "test",
		Clock:      s.clk,
		Logger:     discardLogger(),
	})
	c.Assert(err, check.IsNil)

	collected, err := collector.Run(context.TODO())
	c.Assert(err, check.IsNil)
	c.Assert(collected, check.Equals, 1)

	exists, err := s.store.ExistsAnalytics("https://eldeber.com.bo/pais/noticia-1")
	c.Assert(err, check.IsNil)
	c.Assert(exists, check.Equals, true)
}

func (s *collectorTestSuite) analyticsCount(c *check.C) int {
	it, err := s.store.Articles(lake.Filter{})
	c.Assert(err, check.IsNil)
	defer func() { c.Assert(it.Close(), check.IsNil) }()

	var count int
	for it.Next() {
		count++
	}
	c.Assert(it.Error(), check.IsNil)

	return count
}

func discardLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return logrus.NewEntry(logger)
}
