/*
	memory package provides an in-memory lake.Store implementation used by
	tests and by local development runs that have no database available. It
	mirrors the semantics of the Postgres store: unique URLs per zone,
	first-write-wins inserts and conflict-ignoring analytics writes.
*/

package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bolnews/newslake/lake"
)

// Static and compile-time check to ensure InMemoryStore implements the
// lake.Store interface.
var _ lake.Store = (*InMemoryStore)(nil)

// InMemoryStore implements an in-memory news lake that can be concurrently
// accessed by multiple clients.
type InMemoryStore struct {
	mu        sync.RWMutex
	refined   map[string]*lake.RefinedArticle
	analytics map[string]*lake.AnalyticsRecord
	// Insertion order of analytics URLs, used as a deterministic secondary
	// sort for rows sharing a publication date.
	analyticsOrder []string
}

// NewInMemoryStore creates a new in-memory news lake store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		refined:   make(map[string]*lake.RefinedArticle),
		analytics: make(map[string]*lake.AnalyticsRecord),
	}
}

// ExistsRefined reports whether a refined row for the URL exists.
func (s *InMemoryStore) ExistsRefined(url string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.refined[url]

	return exists, nil
}

// InsertRefined creates a new refined row; inserting a URL that is already
// present fails with lake.ErrExists, matching the unique constraint of the
// relational store.
func (s *InMemoryStore) InsertRefined(article *lake.RefinedArticle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.refined[article.URL]; exists {
		return fmt.Errorf("insert refined: %w", lake.ErrExists)
	}

	// Store a copy to protect the row from caller-side mutation.
	aCopy := new(lake.RefinedArticle)
	*aCopy = *article
	s.refined[aCopy.URL] = aCopy

	return nil
}

// ExistsAnalytics reports whether an analytics row for the URL exists.
func (s *InMemoryStore) ExistsAnalytics(url string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.analytics[url]

	return exists, nil
}

// InsertAnalytics creates a new analytics row, silently ignoring the write
// when the URL is already present.
func (s *InMemoryStore) InsertAnalytics(record *lake.AnalyticsRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.analytics[record.URL]; exists {
		return false, nil
	}

	rCopy := new(lake.AnalyticsRecord)
	*rCopy = *record
	if rCopy.ProcessedAt.IsZero() {
		rCopy.ProcessedAt = time.Now().UTC()
	}

	s.analytics[rCopy.URL] = rCopy
	s.analyticsOrder = append(s.analyticsOrder, rCopy.URL)

	return true, nil
}

// Articles returns an iterator over analytics rows matching the filter,
// most recently published first.
func (s *InMemoryStore) Articles(filter lake.Filter) (lake.ArticleIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []*lake.AnalyticsRecord
	for _, url := range s.analyticsOrder {
		record := s.analytics[url]
		if !matches(record, filter) {
			continue
		}

		rCopy := new(lake.AnalyticsRecord)
		*rCopy = *record
		rows = append(rows, rCopy)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		switch {
		case rows[i].Date == nil:
			return false
		case rows[j].Date == nil:
			return true
		default:
			return rows[i].Date.After(*rows[j].Date)
		}
	})

	return &articleIterator{rows: rows}, nil
}

// DailyCounts aggregates distinct article URLs per calendar day, excluding
// rows with a null date.
func (s *InMemoryStore) DailyCounts(filter lake.Filter) ([]lake.DailyCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	urlsByDay := make(map[time.Time]map[string]struct{})
	for _, record := range s.analytics {
		if record.Date == nil || !matches(record, filter) {
			continue
		}

		day := record.Date.Truncate(24 * time.Hour)
		if urlsByDay[day] == nil {
			urlsByDay[day] = make(map[string]struct{})
		}
		urlsByDay[day][record.URL] = struct{}{}
	}

	counts := make([]lake.DailyCount, 0, len(urlsByDay))
	for day, urls := range urlsByDay {
		counts = append(counts, lake.DailyCount{Day: day, Articles: len(urls)})
	}

	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Day.Before(counts[j].Day)
	})

	return counts, nil
}

// SourceCounts aggregates row counts per source.
func (s *InMemoryStore) SourceCounts(filter lake.Filter) ([]lake.SourceCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySource := make(map[string]int)
	for _, record := range s.analytics {
		if matches(record, filter) {
			bySource[record.Source]++
		}
	}

	counts := make([]lake.SourceCount, 0, len(bySource))
	for source, n := range bySource {
		counts = append(counts, lake.SourceCount{Source: source, Articles: n})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Articles != counts[j].Articles {
			return counts[i].Articles > counts[j].Articles
		}

		return counts[i].Source < counts[j].Source
	})

	return counts, nil
}

// TopSections returns the most populated sections in descending row count
// order, capped at limit entries.
func (s *InMemoryStore) TopSections(filter lake.Filter, limit int) ([]lake.SectionCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySection := make(map[string]int)
	for _, record := range s.analytics {
		if matches(record, filter) {
			bySection[record.Section]++
		}
	}

	counts := make([]lake.SectionCount, 0, len(bySection))
	for section, n := range bySection {
		counts = append(counts, lake.SectionCount{Section: section, Articles: n})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Articles != counts[j].Articles {
			return counts[i].Articles > counts[j].Articles
		}

		return counts[i].Section < counts[j].Section
	})

	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}

	return counts, nil
}

// Sources lists the distinct source labels present in the store.
func (s *InMemoryStore) Sources() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, record := range s.analytics {
		seen[record.Source] = struct{}{}
	}

	sources := make([]string, 0, len(seen))
	for source := range seen {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	return sources, nil
}

// matches applies the filter dimensions to one record. Records without a
// date never match a date-bounded filter.
func matches(record *lake.AnalyticsRecord, filter lake.Filter) bool {
	if len(filter.Sources) > 0 {
		found := false
		for _, source := range filter.Sources {
			if record.Source == source {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filter.From != nil || filter.To != nil {
		if record.Date == nil {
			return false
		}
		if filter.From != nil && record.Date.Before(*filter.From) {
			return false
		}
		if filter.To != nil && record.Date.After(*filter.To) {
			return false
		}
	}

	return true
}
