package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Fetcher is implemented by types that retrieve listing pages over HTTP on
// behalf of the crawl source.
type Fetcher interface {
	// Fetch performs a GET request for the page URL and returns the response
	// body. Non-success status codes are reported as errors.
	Fetch(ctx context.Context, pageURL string) (io.ReadCloser, error)
}

// Static and compile-time check to ensure httpFetcher implements the Fetcher
// interface.
var _ Fetcher = (*httpFetcher)(nil)

type httpFetcher struct {
	client  *http.Client
	headers map[string]string
}

// NewHTTPFetcher returns a Fetcher that issues GET requests through client
// with the provided header set attached to every request. The collected
// sites bot-block requests without browser-like headers.
func NewHTTPFetcher(client *http.Client, headers map[string]string) Fetcher {
	if client == nil {
		client = http.DefaultClient
	}

	return &httpFetcher{client: client, headers: headers}
}

// Fetch implements Fetcher.
func (f *httpFetcher) Fetch(ctx context.Context, pageURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", pageURL, err)
	}

	for key, value := range f.headers {
		req.Header.Set(key, value)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", pageURL, err)
	}

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()

		return nil, fmt.Errorf("fetch %q: unexpected status %d", pageURL, res.StatusCode)
	}

	return res.Body, nil
}
