package collector

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/juju/clock/testclock"
	check "gopkg.in/check.v1"

	"github.com/bolnews/newslake/collector/mocks"
	"github.com/bolnews/newslake/scraper"
)

var _ = check.Suite(new(crawlSourceTestSuite))

type crawlSourceTestSuite struct {
	fetcher *mocks.MockFetcher
	clk     *testclock.Clock
}

func (s *crawlSourceTestSuite) SetUpTest(c *check.C) {
	s.fetcher = mocks.NewMockFetcher(gomock.NewController(c))
	s.clk = testclock.NewClock(time.Date(2025, 4, 12, 12, 0, 0, 0, time.UTC))
}

func (s *crawlSourceTestSuite) TestBranchWithBudgetIssuesExactlyThatManyFetches(c *check.C) {
	// An always-paginating branch with a budget of 3 pages must fetch
	// exactly 3 pages, in order.
	for page := 1; page <= 3; page++ {
		s.fetcher.EXPECT().
			Fetch(gomock.Any(), fmt.Sprintf("https://eldeber.com.bo/pais/%d/", page)).
			Return(pageBody(elDeberFixture(fmt.Sprintf("noticia-%d", page))), nil)
	}

	seed := scraper.PageRequest{
		Site:     scraper.SiteElDeber,
		Section:  "pais",
		URL:      "https://eldeber.com.bo/pais/1/",
		Page:     1,
		MaxPages: 3,
		Pattern:  "https://eldeber.com.bo/pais/%d/",
	}

	articles := s.drain(c, seed)
	c.Assert(articles, check.HasLen, 3)
}

func (s *crawlSourceTestSuite) TestFetchFailureAbortsOnlyTheBranch(c *check.C) {
	s.fetcher.EXPECT().
		Fetch(gomock.Any(), "https://eldeber.com.bo/pais/1/").
		Return(nil, fmt.Errorf("unexpected status 403"))
	s.fetcher.EXPECT().
		Fetch(gomock.Any(), "https://eldeber.com.bo/economia/1/").
		Return(pageBody(elDeberFixture("nota-economia")), nil)
	s.fetcher.EXPECT().
		Fetch(gomock.Any(), "https://eldeber.com.bo/economia/2/").
		Return(pageBody(elDeberFixture("otra-nota-economia")), nil)

	failing := scraper.PageRequest{
		Site:     scraper.SiteElDeber,
		Section:  "pais",
		URL:      "https://eldeber.com.bo/pais/1/",
		Page:     1,
		MaxPages: 3,
		Pattern:  "https://eldeber.com.bo/pais/%d/",
	}
	healthy := scraper.PageRequest{
		Site:     scraper.SiteElDeber,
		Section:  "economia",
		URL:      "https://eldeber.com.bo/economia/1/",
		Page:     1,
		MaxPages: 2,
		Pattern:  "https://eldeber.com.bo/economia/%d/",
	}

	articles := s.drain(c, failing, healthy)
	c.Assert(articles, check.HasLen, 2)
	for _, article := range articles {
		c.Assert(article.Section, check.Equals, "economia")
	}
}

func (s *crawlSourceTestSuite) TestMissingNextLinkTerminatesBranchEarly(c *check.C) {
	// A Los Tiempos page without a pager-next link ends the branch even
	// though the budget allows more pages.
	page := `<html><body><div class="views-row">
	  <div class="views-field-title"><a href="/nota-unica">Nota unica</a></div>
	</div></body></html>`

	s.fetcher.EXPECT().
		Fetch(gomock.Any(), "https://www.lostiempos.com/ultimas-noticias").
		Return(pageBody(page), nil)

	seed := scraper.PageRequest{
		Site:     scraper.SiteLosTiempos,
		Section:  "ultimas-noticias",
		URL:      "https://www.lostiempos.com/ultimas-noticias",
		Page:     1,
		MaxPages: 10,
	}

	articles := s.drain(c, seed)
	c.Assert(articles, check.HasLen, 1)
	c.Assert(articles[0].Title, check.Equals, "Nota unica")
}

// drain runs a crawl source over the seeds until exhaustion and returns the
// emitted raw articles.
func (s *crawlSourceTestSuite) drain(c *check.C, seeds ...scraper.PageRequest) []scraper.RawArticle {
	cfg := scraper.Config{Seeds: seeds}
	src := newCrawlSource(cfg, s.fetcher, scraper.NewParserSet(nil), s.clk, discardLogger())

	var articles []scraper.RawArticle
	for src.Next(context.TODO()) {
		payload := src.Payload().(*articlePayload)
		articles = append(articles, payload.Raw)
		payload.MarkAsProcessed()
	}

	c.Assert(src.Error(), check.IsNil)
	c.Assert(src.Collected(), check.Equals, len(articles))

	return articles
}

func elDeberFixture(slug string) string {
	return fmt.Sprintf(`<html><body><article>
	  <div class="titulo-teaser-2col"><a href="/pais/%s"><h2>%s</h2></a></div>
	  <div class="entradilla-teaser-2col">Resumen.</div>
	</article></body></html>`, slug, slug)
}

func pageBody(html string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(html))
}
