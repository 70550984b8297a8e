/*
	laketest package defines a set of re-usable store tests that can be
	executed against any concrete lake.Store implementation. Both the
	in-memory and the Postgres stores embed and run this suite so the two
	backends cannot drift apart semantically.
*/

package laketest

import (
	"fmt"
	"time"

	check "gopkg.in/check.v1"

	"github.com/bolnews/newslake/lake"
)

// BaseSuite defines re-usable store tests for lake.Store implementations.
type BaseSuite struct {
	s lake.Store
}

// SetStore configures the suite to run all tests against a store instance.
func (s *BaseSuite) SetStore(store lake.Store) {
	s.s = store
}

// TestRefinedInsertAndExists verifies the refined-zone skip-if-exists
// contract.
func (s *BaseSuite) TestRefinedInsertAndExists(c *check.C) {
	article := refinedFixture("https://eldeber.com.bo/economia/nota-1")

	exists, err := s.s.ExistsRefined(article.URL)
	c.Assert(err, check.IsNil)
	c.Assert(exists, check.Equals, false)

	c.Assert(s.s.InsertRefined(article), check.IsNil)

	exists, err = s.s.ExistsRefined(article.URL)
	c.Assert(err, check.IsNil)
	c.Assert(exists, check.Equals, true)
}

// TestRefinedDuplicateInsertFails verifies that a second insert for the same
// URL fails without poisoning the store for subsequent records.
func (s *BaseSuite) TestRefinedDuplicateInsertFails(c *check.C) {
	first := refinedFixture("https://eldeber.com.bo/pais/nota-2")
	c.Assert(s.s.InsertRefined(first), check.IsNil)

	duplicate := refinedFixture(first.URL)
	duplicate.Title = "otro titular"
	c.Assert(s.s.InsertRefined(duplicate), check.NotNil)

	// The store must remain usable after the failed insert.
	next := refinedFixture("https://eldeber.com.bo/pais/nota-3")
	c.Assert(s.s.InsertRefined(next), check.IsNil)
}

// TestAnalyticsInsertIsConflictIgnoring verifies the two-layer dedup
// guarantee of the consumption zone.
func (s *BaseSuite) TestAnalyticsInsertIsConflictIgnoring(c *check.C) {
	record := analyticsFixture("https://www.lostiempos.com/nota-1", "lostiempos", date(2025, 4, 12))

	inserted, err := s.s.InsertAnalytics(record)
	c.Assert(err, check.IsNil)
	c.Assert(inserted, check.Equals, true)

	// Re-inserting the same URL must be ignored, not fail.
	again := analyticsFixture(record.URL, "lostiempos", date(2025, 4, 13))
	again.Title = "titular distinto"
	inserted, err = s.s.InsertAnalytics(again)
	c.Assert(err, check.IsNil)
	c.Assert(inserted, check.Equals, false)

	// First write wins.
	it, err := s.s.Articles(lake.Filter{})
	c.Assert(err, check.IsNil)
	defer func() { c.Assert(it.Close(), check.IsNil) }()

	c.Assert(it.Next(), check.Equals, true)
	c.Assert(it.Article().Title, check.Equals, record.Title)
	c.Assert(it.Next(), check.Equals, false)
	c.Assert(it.Error(), check.IsNil)
}

// TestAnalyticsExists verifies the explicit lookup layer of the dedup.
func (s *BaseSuite) TestAnalyticsExists(c *check.C) {
	record := analyticsFixture("https://ahoraelpueblo.bo/nota-9", "ahoraelpueblo", date(2025, 4, 10))

	exists, err := s.s.ExistsAnalytics(record.URL)
	c.Assert(err, check.IsNil)
	c.Assert(exists, check.Equals, false)

	_, err = s.s.InsertAnalytics(record)
	c.Assert(err, check.IsNil)

	exists, err = s.s.ExistsAnalytics(record.URL)
	c.Assert(err, check.IsNil)
	c.Assert(exists, check.Equals, true)
}

// TestNullDateRecords verifies that records with unparseable dates are
// stored with null date/time and excluded from the daily aggregation.
func (s *BaseSuite) TestNullDateRecords(c *check.C) {
	dated := analyticsFixture("https://eldeber.com.bo/mundo/nota-4", "eldeber", date(2025, 4, 12))
	undated := analyticsFixture("https://eldeber.com.bo/mundo/nota-5", "eldeber", nil)

	_, err := s.s.InsertAnalytics(dated)
	c.Assert(err, check.IsNil)
	_, err = s.s.InsertAnalytics(undated)
	c.Assert(err, check.IsNil)

	counts, err := s.s.DailyCounts(lake.Filter{})
	c.Assert(err, check.IsNil)
	c.Assert(counts, check.HasLen, 1)
	c.Assert(counts[0].Articles, check.Equals, 1)

	// The undated record still counts towards its source.
	sources, err := s.s.SourceCounts(lake.Filter{})
	c.Assert(err, check.IsNil)
	c.Assert(sources, check.HasLen, 1)
	c.Assert(sources[0].Articles, check.Equals, 2)
}

// TestFilteredQueries verifies source and date-range filtering across the
// query surface.
func (s *BaseSuite) TestFilteredQueries(c *check.C) {
	seed := []struct {
		url    string
		source string
		day    *time.Time
	}{
		{"https://eldeber.com.bo/economia/a", "eldeber", date(2025, 4, 10)},
		{"https://eldeber.com.bo/economia/b", "eldeber", date(2025, 4, 11)},
		{"https://www.lostiempos.com/c", "lostiempos", date(2025, 4, 11)},
		{"https://ahoraelpueblo.bo/d", "ahoraelpueblo", date(2025, 4, 20)},
	}
	for i, entry := range seed {
		record := analyticsFixture(entry.url, entry.source, entry.day)
		record.Section = fmt.Sprintf("seccion-%d", i%2)

		_, err := s.s.InsertAnalytics(record)
		c.Assert(err, check.IsNil)
	}

	filter := lake.Filter{
		Sources: []string{"eldeber", "lostiempos"},
		From:    date(2025, 4, 11),
		To:      date(2025, 4, 15),
	}

	var got []string
	it, err := s.s.Articles(filter)
	c.Assert(err, check.IsNil)
	for it.Next() {
		got = append(got, it.Article().URL)
	}
	c.Assert(it.Error(), check.IsNil)
	c.Assert(it.Close(), check.IsNil)
	c.Assert(got, check.HasLen, 2)

	counts, err := s.s.DailyCounts(filter)
	c.Assert(err, check.IsNil)
	c.Assert(counts, check.HasLen, 1)
	c.Assert(counts[0].Articles, check.Equals, 2)

	sources, err := s.s.SourceCounts(filter)
	c.Assert(err, check.IsNil)
	c.Assert(sources, check.HasLen, 2)

	sections, err := s.s.TopSections(lake.Filter{}, 1)
	c.Assert(err, check.IsNil)
	c.Assert(sections, check.HasLen, 1)

	all, err := s.s.Sources()
	c.Assert(err, check.IsNil)
	c.Assert(all, check.HasLen, 3)
}

// Helpers.

func refinedFixture(url string) *lake.RefinedArticle {
	return &lake.RefinedArticle{
		GeneratedID: "generated-id",
		Title:       "titular de prueba",
		Summary:     "resumen de prueba",
		Date:        "2025-04-12T10:30:00Z",
		Section:     "economia",
		URL:         url,
		CollectedAt: "2025-04-12T11:00:00Z",
	}
}

func analyticsFixture(url, source string, day *time.Time) *lake.AnalyticsRecord {
	record := &lake.AnalyticsRecord{
		Title:   "titular de prueba",
		Section: "economia",
		Source:  source,
		URL:     url,
		Date:    day,
	}

	if day != nil {
		timeOfDay := "10:30:00"
		record.TimeOfDay = &timeOfDay
	}

	return record
}

func date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	return &d
}
