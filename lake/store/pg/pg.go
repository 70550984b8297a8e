/*
	pg package implements the lake.Store contracts on top of a PostgreSQL
	instance. The refined and consumption tables (and their indexes) are
	created on first use so a pipeline run only needs a reachable database.

	Writes follow the lake first-write-wins policy: refined inserts run in
	their own transaction and are rolled back on any failure, analytics
	inserts carry an ON CONFLICT (url) DO NOTHING clause as a second line of
	defense against concurrent runs racing the existence check.
*/

package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/bolnews/newslake/lake"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS refined_articles (
		id SERIAL PRIMARY KEY,
		generated_id TEXT,
		title TEXT,
		summary TEXT,
		date TEXT,
		section TEXT,
		url TEXT UNIQUE,
		collected_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS consumption_analytics (
		id SERIAL PRIMARY KEY,
		title TEXT,
		date DATE,
		time TIME,
		section TEXT,
		source TEXT,
		url TEXT UNIQUE,
		processed_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_consumption_url ON consumption_analytics(url)`,
	`CREATE INDEX IF NOT EXISTS idx_consumption_date ON consumption_analytics(date)`,
	`CREATE INDEX IF NOT EXISTS idx_consumption_source ON consumption_analytics(source)`,
}

var (
	existsRefinedQuery = `SELECT EXISTS (SELECT 1 FROM refined_articles WHERE url=$1)`

	insertRefinedQuery = `
					INSERT INTO refined_articles
						(generated_id, title, summary, date, section, url, collected_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7)
					`

	existsAnalyticsQuery = `SELECT EXISTS (SELECT 1 FROM consumption_analytics WHERE url=$1)`

	insertAnalyticsQuery = `
					INSERT INTO consumption_analytics
						(title, date, time, section, source, url)
					VALUES ($1, $2, $3, $4, $5, $6)
					ON CONFLICT (url) DO NOTHING
					`

	articlesQuery = `
					SELECT title, section, source, url, date, time, processed_at
					FROM consumption_analytics
					`

	dailyCountsQuery = `
					SELECT date, COUNT(DISTINCT url)
					FROM consumption_analytics
					`

	sourceCountsQuery = `
					SELECT source, COUNT(*)
					FROM consumption_analytics
					`

	topSectionsQuery = `
					SELECT section, COUNT(*)
					FROM consumption_analytics
					`

	sourcesQuery = `SELECT DISTINCT source FROM consumption_analytics ORDER BY source`
)

// Static and compile-time check to ensure PostgresStore implements the
// lake.Store interface.
var _ lake.Store = (*PostgresStore)(nil)

// PostgresStore implements a persistent news lake backed by a PostgreSQL
// instance.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to the database identified by dsn, verifies the
// connection and ensures both zone tables exist.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("postgres store: %w", err)
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("postgres store: ensure schema: %w", err)
		}
	}

	return &PostgresStore{db}, nil
}

// Close terminates the connection to the database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// ExistsRefined reports whether a refined row for the URL exists.
func (s *PostgresStore) ExistsRefined(url string) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(existsRefinedQuery, url).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists refined: %w", err)
	}

	return exists, nil
}

// InsertRefined creates a new refined row within its own transaction. On any
// failure (unique constraint violation included) the transaction is rolled
// back before returning, so the connection stays usable for the next record.
func (s *PostgresStore) InsertRefined(article *lake.RefinedArticle) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("insert refined: %w", err)
	}

	_, err = tx.Exec(
		insertRefinedQuery,
		article.GeneratedID,
		article.Title,
		nullable(article.Summary),
		nullable(article.Date),
		nullable(article.Section),
		article.URL,
		nullable(article.CollectedAt),
	)
	if err != nil {
		_ = tx.Rollback()

		if isUniqueViolationError(err) {
			return fmt.Errorf("insert refined: %w", lake.ErrExists)
		}

		return fmt.Errorf("insert refined: %w", err)
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()

		return fmt.Errorf("insert refined: %w", err)
	}

	return nil
}

// ExistsAnalytics reports whether an analytics row for the URL exists.
func (s *PostgresStore) ExistsAnalytics(url string) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(existsAnalyticsQuery, url).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists analytics: %w", err)
	}

	return exists, nil
}

// InsertAnalytics creates a new analytics row, relying on the conflict
// clause to ignore writes for URLs that already have a row. It reports
// whether a row was actually inserted.
func (s *PostgresStore) InsertAnalytics(record *lake.AnalyticsRecord) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("insert analytics: %w", err)
	}

	var day sql.NullTime
	if record.Date != nil {
		day = sql.NullTime{Time: *record.Date, Valid: true}
	}

	var timeOfDay sql.NullString
	if record.TimeOfDay != nil {
		timeOfDay = sql.NullString{String: *record.TimeOfDay, Valid: true}
	}

	res, err := tx.Exec(
		insertAnalyticsQuery,
		record.Title,
		day,
		timeOfDay,
		nullable(record.Section),
		nullable(record.Source),
		record.URL,
	)
	if err != nil {
		_ = tx.Rollback()

		return false, fmt.Errorf("insert analytics: %w", err)
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()

		return false, fmt.Errorf("insert analytics: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert analytics: %w", err)
	}

	return inserted > 0, nil
}

// Articles returns an iterator over analytics rows matching the filter,
// most recently published first.
func (s *PostgresStore) Articles(filter lake.Filter) (lake.ArticleIterator, error) {
	query, args := applyFilter(articlesQuery, filter, "")
	query += " ORDER BY date DESC NULLS LAST, id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("articles: %w", err)
	}

	return &articleIterator{rows: rows}, nil
}

// DailyCounts aggregates distinct article URLs per calendar day, excluding
// rows with a null date.
func (s *PostgresStore) DailyCounts(filter lake.Filter) ([]lake.DailyCount, error) {
	query, args := applyFilter(dailyCountsQuery, filter, "date IS NOT NULL")
	query += " GROUP BY date ORDER BY date"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("daily counts: %w", err)
	}
	defer rows.Close()

	var counts []lake.DailyCount
	for rows.Next() {
		var count lake.DailyCount
		if err := rows.Scan(&count.Day, &count.Articles); err != nil {
			return nil, fmt.Errorf("daily counts: %w", err)
		}

		count.Day = count.Day.UTC()
		counts = append(counts, count)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("daily counts: %w", err)
	}

	return counts, nil
}

// SourceCounts aggregates row counts per source.
func (s *PostgresStore) SourceCounts(filter lake.Filter) ([]lake.SourceCount, error) {
	query, args := applyFilter(sourceCountsQuery, filter, "")
	query += " GROUP BY source ORDER BY COUNT(*) DESC, source"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("source counts: %w", err)
	}
	defer rows.Close()

	var counts []lake.SourceCount
	for rows.Next() {
		var count lake.SourceCount
		if err := rows.Scan(&count.Source, &count.Articles); err != nil {
			return nil, fmt.Errorf("source counts: %w", err)
		}

		counts = append(counts, count)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("source counts: %w", err)
	}

	return counts, nil
}

// TopSections returns the most populated sections in descending row count
// order, capped at limit entries.
func (s *PostgresStore) TopSections(filter lake.Filter, limit int) ([]lake.SectionCount, error) {
	query, args := applyFilter(topSectionsQuery, filter, "")
	query += fmt.Sprintf(
		" GROUP BY section ORDER BY COUNT(*) DESC, section LIMIT $%d", len(args)+1,
	)
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("top sections: %w", err)
	}
	defer rows.Close()

	var counts []lake.SectionCount
	for rows.Next() {
		var count lake.SectionCount
		if err := rows.Scan(&count.Section, &count.Articles); err != nil {
			return nil, fmt.Errorf("top sections: %w", err)
		}

		counts = append(counts, count)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top sections: %w", err)
	}

	return counts, nil
}

// Sources lists the distinct source labels present in the store.
func (s *PostgresStore) Sources() ([]string, error) {
	rows, err := s.db.Query(sourcesQuery)
	if err != nil {
		return nil, fmt.Errorf("sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("sources: %w", err)
		}

		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sources: %w", err)
	}

	return sources, nil
}

// applyFilter appends a WHERE clause for the filter dimensions (plus an
// optional extra predicate) to a base query and returns the query together
// with its positional arguments.
func applyFilter(query string, filter lake.Filter, extra string) (string, []interface{}) {
	var (
		predicates []string
		args       []interface{}
	)

	if extra != "" {
		predicates = append(predicates, extra)
	}

	if len(filter.Sources) > 0 {
		args = append(args, pq.Array(filter.Sources))
		predicates = append(predicates, fmt.Sprintf("source = ANY($%d)", len(args)))
	}

	if filter.From != nil {
		args = append(args, filter.From.UTC())
		predicates = append(predicates, fmt.Sprintf("date >= $%d", len(args)))
	}

	if filter.To != nil {
		args = append(args, filter.To.UTC())
		predicates = append(predicates, fmt.Sprintf("date <= $%d", len(args)))
	}

	for i, predicate := range predicates {
		if i == 0 {
			query += " WHERE " + predicate
		} else {
			query += " AND " + predicate
		}
	}

	return query, args
}

// nullable maps an empty string to a SQL NULL so absent optional fields are
// stored as nulls rather than empty text.
func nullable(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

// isUniqueViolationError returns true if err is a unique constraint
// violation error.
func isUniqueViolationError(err error) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}

	return pqErr.Code.Name() == "unique_violation"
}
