package search

import (
	"testing"

	check "gopkg.in/check.v1"

	"github.com/bolnews/newslake/lake"
)

// Register the test suite to run with go's test runner.
func Test(t *testing.T) {
	check.TestingT(t)
}

var _ = check.Suite(new(indexTestSuite))

type indexTestSuite struct {
	idx *Index
}

func (s *indexTestSuite) SetUpTest(c *check.C) {
	idx, err := NewIndex()
	c.Assert(err, check.IsNil)
	s.idx = idx
}

func (s *indexTestSuite) TearDownTest(c *check.C) {
	c.Assert(s.idx.Close(), check.IsNil)
}

func (s *indexTestSuite) TestSearchMatchesIndexedTitles(c *check.C) {
	c.Assert(s.idx.PutAll([]*lake.AnalyticsRecord{
		{Title: "elecciones generales en bolivia", Section: "politica", Source: "eldeber", URL: "https://eldeber.com.bo/n1"},
		{Title: "resultados del futbol boliviano", Section: "deportes", Source: "lostiempos", URL: "https://www.lostiempos.com/n2"},
		{Title: "debate previo a las elecciones", Section: "politica", Source: "ahoraelpueblo", URL: "https://ahoraelpueblo.bo/n3"},
	}), check.IsNil)

	results, err := s.idx.Search("elecciones", 10)
	c.Assert(err, check.IsNil)
	c.Assert(results, check.HasLen, 2)
	for _, record := range results {
		c.Assert(record.Section, check.Equals, "politica")
	}
}

func (s *indexTestSuite) TestSearchHonorsLimit(c *check.C) {
	c.Assert(s.idx.PutAll([]*lake.AnalyticsRecord{
		{Title: "noticia uno", URL: "https://eldeber.com.bo/n1"},
		{Title: "noticia dos", URL: "https://eldeber.com.bo/n2"},
		{Title: "noticia tres", URL: "https://eldeber.com.bo/n3"},
	}), check.IsNil)

	results, err := s.idx.Search("noticia", 2)
	c.Assert(err, check.IsNil)
	c.Assert(results, check.HasLen, 2)
}

func (s *indexTestSuite) TestPutRefreshesExistingURL(c *check.C) {
	record := &lake.AnalyticsRecord{Title: "version vieja", URL: "https://eldeber.com.bo/n1"}
	c.Assert(s.idx.Put(record), check.IsNil)

	record.Title = "version nueva"
	c.Assert(s.idx.Put(record), check.IsNil)

	results, err := s.idx.Search("nueva", 10)
	c.Assert(err, check.IsNil)
	c.Assert(results, check.HasLen, 1)
	c.Assert(results[0].Title, check.Equals, "version nueva")

	results, err = s.idx.Search("vieja", 10)
	c.Assert(err, check.IsNil)
	c.Assert(results, check.HasLen, 0)
}

func (s *indexTestSuite) TestPutRejectsMissingURL(c *check.C) {
	c.Assert(s.idx.Put(&lake.AnalyticsRecord{Title: "sin url"}), check.NotNil)
}
