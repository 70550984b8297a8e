package memory

import "github.com/bolnews/newslake/lake"

// Static and compile-time check to ensure articleIterator implements the
// lake.ArticleIterator interface.
var _ lake.ArticleIterator = (*articleIterator)(nil)

// articleIterator iterates a snapshot of analytics rows copied out of the
// store under lock, so it stays valid while the store keeps mutating.
type articleIterator struct {
	rows    []*lake.AnalyticsRecord
	current *lake.AnalyticsRecord
}

// Next loads the next row, returns false when no more rows are available.
func (i *articleIterator) Next() bool {
	if len(i.rows) == 0 {
		return false
	}

	i.current = i.rows[0]
	i.rows = i.rows[1:]

	return true
}

// Error returns the last error encountered by the iterator.
func (i *articleIterator) Error() error {
	return nil
}

// Close releases any resources allocated to the iterator.
func (i *articleIterator) Close() error {
	return nil
}

// Article returns the currently fetched analytics row.
func (i *articleIterator) Article() *lake.AnalyticsRecord {
	return i.current
}
