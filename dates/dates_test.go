package dates_test

import (
	"testing"
	"time"

	check "gopkg.in/check.v1"

	"github.com/bolnews/newslake/dates"
)

var _ = check.Suite(new(datesTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

type datesTestSuite struct{}

func (s *datesTestSuite) TestParseISOTimestamp(c *check.C) {
	t, err := dates.Parse("2025-04-12T10:30:00Z")
	c.Assert(err, check.IsNil)
	c.Assert(t.UTC(), check.Equals, time.Date(2025, 4, 12, 10, 30, 0, 0, time.UTC))
}

func (s *datesTestSuite) TestParseSpanishTextualDate(c *check.C) {
	for _, raw := range []string{
		"12 de abril de 2025",
		"12 Abril, 2025",
		"sábado, 12 de abril de 2025",
	} {
		t, err := dates.Parse(raw)
		c.Assert(err, check.IsNil, check.Commentf("input %q", raw))
		c.Assert(t.Year(), check.Equals, 2025)
		c.Assert(t.Month(), check.Equals, time.April)
		c.Assert(t.Day(), check.Equals, 12)
	}
}

func (s *datesTestSuite) TestParseNumericDate(c *check.C) {
	t, err := dates.Parse("2025/04/12")
	c.Assert(err, check.IsNil)
	c.Assert(t.Year(), check.Equals, 2025)
	c.Assert(t.Month(), check.Equals, time.April)
}

func (s *datesTestSuite) TestParseFailsWithoutPanicking(c *check.C) {
	for _, raw := range []string{"", "   ", "hace unos momentos", "n/a"} {
		_, err := dates.Parse(raw)
		c.Assert(err, check.NotNil, check.Commentf("input %q", raw))
	}
}

func (s *datesTestSuite) TestParseISORendering(c *check.C) {
	iso, err := dates.ParseISO("12 de abril de 2025")
	c.Assert(err, check.IsNil)
	c.Assert(iso[:10], check.Equals, "2025-04-12")
}

func (s *datesTestSuite) TestParsePreservesNothing(c *check.C) {
	// Unparseable input is reported as an error so callers can keep the raw
	// text; Parse itself never substitutes a default.
	_, err := dates.Parse("titulares del día")
	c.Assert(err, check.NotNil)
}
