package collector

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/bolnews/newslake/pipeline"
	"github.com/bolnews/newslake/scraper"
)

// Static and compile-time check to ensure crawlSource implements the
// pipeline.Source interface.
var _ pipeline.Source = (*crawlSource)(nil)

// crawlSource drives the crawl: one goroutine per configured branch, each
// walking its own pagination sequence strictly in order. All branches feed a
// single payload channel the pipeline drains through Next/Payload.
//
// A fetch or parse failure terminates only the failing branch; the other
// branches keep producing. Branch failures are logged, never surfaced as
// run errors.
type crawlSource struct {
	cfg     scraper.Config
	fetcher Fetcher
	parsers map[scraper.Site]scraper.PageParser
	clk     clock.Clock
	logger  *logrus.Entry

	startOnce sync.Once
	out       chan pipeline.Payload
	current   pipeline.Payload
	collected int64
}

func newCrawlSource(
	cfg scraper.Config, fetcher Fetcher, parsers map[scraper.Site]scraper.PageParser,
	clk clock.Clock, logger *logrus.Entry,
) *crawlSource {
	return &crawlSource{
		cfg:     cfg,
		fetcher: fetcher,
		parsers: parsers,
		clk:     clk,
		logger:  logger,
		out:     make(chan pipeline.Payload),
	}
}

// Next implements pipeline.Source. The branch workers are launched on the
// first call so they inherit the pipeline's execution context.
func (s *crawlSource) Next(ctx context.Context) bool {
	s.startOnce.Do(func() {
		var wg sync.WaitGroup

		for _, seed := range s.cfg.Seeds {
			wg.Add(1)

			go func(seed scraper.PageRequest) {
				defer wg.Done()

				s.runBranch(ctx, seed)
			}(seed)
		}

		go func() {
			wg.Wait()
			close(s.out)
		}()
	})

	select {
	case <-ctx.Done():
		return false
	case payload, ok := <-s.out:
		if !ok {
			return false
		}
		s.current = payload

		return true
	}
}

// Payload implements pipeline.Source.
func (s *crawlSource) Payload() pipeline.Payload {
	return s.current
}

// Error implements pipeline.Source. Branch failures are branch-local and
// already logged, so the source itself never reports an error.
func (s *crawlSource) Error() error {
	return nil
}

// Collected returns the number of articles emitted into the pipeline so far.
func (s *crawlSource) Collected() int {
	return int(atomic.LoadInt64(&s.collected))
}

// runBranch walks one pagination branch sequentially: fetch, parse, emit,
// advance to the next page descriptor, until the parser reports no next page
// or the branch fails.
func (s *crawlSource) runBranch(ctx context.Context, seed scraper.PageRequest) {
	logger := s.logger.WithFields(logrus.Fields{
		"site":    seed.Site.String(),
		"section": seed.Section,
	})

	parser, exists := s.parsers[seed.Site]
	if !exists {
		logger.Error("no parser registered for site")

		return
	}

	for req := &seed; req != nil; {
		body, err := s.fetcher.Fetch(ctx, req.URL)
		if err != nil {
			logger.WithError(err).WithField("page_url", req.URL).Warn("branch aborted")

			return
		}

		articles, next, err := parser.Parse(*req, body, s.clk.Now().UTC())
		_ = body.Close()
		if err != nil {
			logger.WithError(err).WithField("page_url", req.URL).Warn("branch aborted")

			return
		}

		for i := range articles {
			payload := payloadPool.Get().(*articlePayload)
			payload.Raw = articles[i]

			select {
			case <-ctx.Done():
				payload.MarkAsProcessed()

				return
			case s.out <- payload:
				atomic.AddInt64(&s.collected, 1)
			}
		}

		req = next
	}
}
