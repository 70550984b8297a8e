package pg

import (
	"database/sql"
	"fmt"

	"github.com/bolnews/newslake/lake"
)

// Static and compile-time check to ensure articleIterator implements the
// lake.ArticleIterator interface.
var _ lake.ArticleIterator = (*articleIterator)(nil)

// articleIterator wraps the [database/sql] Rows type that serves as an
// iterator for the analytics rows returned by a filtered query.
type articleIterator struct {
	rows    *sql.Rows
	lastErr error
	article *lake.AnalyticsRecord
}

// Next loads the next row, returns false when no more rows are available or
// when an error occurs.
func (i *articleIterator) Next() bool {
	if i.lastErr != nil || !i.rows.Next() {
		return false
	}

	record := new(lake.AnalyticsRecord)

	var (
		section   sql.NullString
		source    sql.NullString
		day       sql.NullTime
		timeOfDay sql.NullString
	)

	i.lastErr = i.rows.Scan(
		&record.Title,
		&section,
		&source,
		&record.URL,
		&day,
		&timeOfDay,
		&record.ProcessedAt,
	)
	if i.lastErr != nil {
		return false
	}

	record.Section = section.String
	record.Source = source.String
	if day.Valid {
		utc := day.Time.UTC()
		record.Date = &utc
	}
	if timeOfDay.Valid {
		record.TimeOfDay = &timeOfDay.String
	}

	record.ProcessedAt = record.ProcessedAt.UTC()
	i.article = record

	return true
}

// Error returns the last error encountered by the iterator.
func (i *articleIterator) Error() error {
	return i.lastErr
}

// Close releases any resources allocated to the iterator.
func (i *articleIterator) Close() error {
	if err := i.rows.Close(); err != nil {
		return fmt.Errorf("article iterator: %w", err)
	}

	return nil
}

// Article returns the currently fetched analytics row.
func (i *articleIterator) Article() *lake.AnalyticsRecord {
	return i.article
}
