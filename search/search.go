/*
	search package provides the full-text lookup behind the dashboard search
	endpoint: an in-memory bleve index over the analytics rows, keyed by
	article URL and rebuilt periodically from the consumption zone.
*/

package search

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/bolnews/newslake/lake"
)

// Default number of hits returned when the caller does not cap the result.
const defaultLimit = 10

// bleveDoc is the indexed projection of an analytics row.
type bleveDoc struct {
	Title   string
	Section string
	Source  string
}

// Index is an in-memory full-text index over analytics rows. It is safe for
// concurrent use.
type Index struct {
	mu   sync.RWMutex
	docs map[string]*lake.AnalyticsRecord
	idx  bleve.Index
}

// NewIndex instantiates and returns an empty in-memory index.
func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	return &Index{
		idx:  idx,
		docs: make(map[string]*lake.AnalyticsRecord),
	}, nil
}

// Close releases the resources held by the underlying bleve instance.
func (i *Index) Close() error {
	return i.idx.Close()
}

// Put adds a new row to the index or refreshes the entry for an already
// indexed URL.
func (i *Index) Put(record *lake.AnalyticsRecord) error {
	if record.URL == "" {
		return fmt.Errorf("search index: record without a url")
	}

	rCopy := new(lake.AnalyticsRecord)
	*rCopy = *record

	i.mu.Lock()
	defer i.mu.Unlock()

	doc := bleveDoc{
		Title:   rCopy.Title,
		Section: rCopy.Section,
		Source:  rCopy.Source,
	}
	if err := i.idx.Index(rCopy.URL, doc); err != nil {
		return fmt.Errorf("search index: %w", err)
	}

	i.docs[rCopy.URL] = rCopy

	return nil
}

// PutAll indexes every row in records, stopping at the first failure.
func (i *Index) PutAll(records []*lake.AnalyticsRecord) error {
	for _, record := range records {
		if err := i.Put(record); err != nil {
			return err
		}
	}

	return nil
}

// Search matches expression against the indexed titles, sections and
// sources, returning up to limit rows in descending relevance order.
func (i *Index) Search(expression string, limit int) ([]*lake.AnalyticsRecord, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	searchReq := bleve.NewSearchRequest(bleve.NewMatchQuery(expression))
	searchReq.SortBy([]string{"-_score"})
	searchReq.Size = limit

	i.mu.RLock()
	defer i.mu.RUnlock()

	sr, err := i.idx.Search(searchReq)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := make([]*lake.AnalyticsRecord, 0, len(sr.Hits))
	for _, hit := range sr.Hits {
		if record, exists := i.docs[hit.ID]; exists {
			rCopy := new(lake.AnalyticsRecord)
			*rCopy = *record
			results = append(results, rCopy)
		}
	}

	return results, nil
}
