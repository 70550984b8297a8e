/*
	lake package defines the record types and store contracts for the two
	durable zones of the news data lake: the refined zone (cleaned,
	deduplicated articles) and the consumption zone (analytics-ready rows
	read by the dashboard).

	Both zones are keyed by article URL and are strictly first-write-wins:
	rows are created once per distinct URL and never updated or deleted.
*/

package lake

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup does not match any stored row.
	ErrNotFound = errors.New("not found")

	// ErrExists is returned when an insert collides with an existing row for
	// the same URL.
	ErrExists = errors.New("record already exists")
)

// RefinedArticle is a cleaned and normalized article row in the refined
// zone. Date holds an ISO-8601 timestamp when the raw publication date was
// parseable and the original raw text otherwise; raw text is never
// discarded.
type RefinedArticle struct {
	GeneratedID string
	Title       string
	Summary     string
	Date        string
	Section     string
	URL         string
	CollectedAt string
}

// AnalyticsRecord is one analytics-ready row in the consumption zone. Date
// and TimeOfDay are nil when the publication date was unparseable; the
// record itself is still stored.
type AnalyticsRecord struct {
	Title       string
	Section     string
	Source      string
	URL         string
	Date        *time.Time
	TimeOfDay   *string
	ProcessedAt time.Time
}

// Filter restricts analytics queries to a set of sources and a calendar
// date range. Zero-valued fields leave the corresponding dimension
// unrestricted.
type Filter struct {
	Sources []string
	From    *time.Time
	To      *time.Time
}

// DailyCount is the number of distinct article URLs published on one
// calendar day.
type DailyCount struct {
	Day      time.Time
	Articles int
}

// SourceCount is the number of analytics rows attributed to one source.
type SourceCount struct {
	Source   string
	Articles int
}

// SectionCount is the number of analytics rows filed under one section.
type SectionCount struct {
	Section  string
	Articles int
}

// RefinedStore should be implemented by refined-zone data stores.
type RefinedStore interface {
	// ExistsRefined reports whether a refined row for the URL exists.
	ExistsRefined(url string) (bool, error)

	// InsertRefined creates a new refined row. The row is written within its
	// own transaction; on any failure the transaction is rolled back and the
	// error returned, leaving the store usable for subsequent records.
	InsertRefined(article *RefinedArticle) error
}

// AnalyticsStore should be implemented by consumption-zone data stores.
type AnalyticsStore interface {
	// ExistsAnalytics reports whether an analytics row for the URL exists.
	ExistsAnalytics(url string) (bool, error)

	// InsertAnalytics creates a new analytics row, ignoring the write when a
	// row with the same URL already exists. It reports whether a row was
	// actually inserted.
	InsertAnalytics(record *AnalyticsRecord) (bool, error)

	// Articles returns an iterator over analytics rows matching the filter,
	// most recently published first.
	Articles(filter Filter) (ArticleIterator, error)

	// DailyCounts aggregates distinct article URLs per calendar day,
	// excluding rows with a null date.
	DailyCounts(filter Filter) ([]DailyCount, error)

	// SourceCounts aggregates row counts per source.
	SourceCounts(filter Filter) ([]SourceCount, error)

	// TopSections returns the most populated sections in descending row
	// count order, capped at limit entries.
	TopSections(filter Filter, limit int) ([]SectionCount, error)

	// Sources lists the distinct source labels present in the store.
	Sources() ([]string, error)
}

// Store combines both zone contracts; the concrete implementations back the
// two zones with the same underlying database.
type Store interface {
	RefinedStore
	AnalyticsStore
}

// ArticleIterator is implemented by types that iterate analytics rows.
type ArticleIterator interface {
	Iterator

	// Article returns the currently fetched analytics row.
	Article() *AnalyticsRecord
}

// Iterator should be embedded by types that require iteration
// functionality.
type Iterator interface {
	// Next loads the next item, returns false when no more rows are
	// available or when an error occurs.
	Next() bool

	// Error returns the last error encountered by the iterator.
	Error() error

	// Close releases any resources allocated to the iterator.
	Close() error
}
