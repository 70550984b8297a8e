/*
	collector package assembles the collect pipeline: a crawl source feeding
	per-site listing pages through the landing, refine and consume stages into
	the data-lake stores.

	One call to Run is one collect pass. Failures inside a pass are either
	branch-local (a fetch error stops that crawl branch) or record-local (a
	bad record is dropped and reported in the accumulated run error); neither
	kind stops the pass.
*/

package collector

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"

	"github.com/bolnews/newslake/lake"
	"github.com/bolnews/newslake/pipeline"
	"github.com/bolnews/newslake/scraper"
)

//go:generate mockgen -package mocks -destination mocks/mocks.go github.com/bolnews/newslake/collector Fetcher

var errMissingStore = errors.New("store has not been provided")

// Config encapsulates the settings for a Collector instance.
type Config struct {
	// Fetcher retrieves listing pages. Defaults to an HTTP fetcher using the
	// crawl configuration's header set.
	Fetcher Fetcher

	// Store backs the refined and consumption zones.
	Store lake.Store

	// Crawl holds the branch seeds and shared headers. Defaults to the
	// built-in configuration for the three collected sites.
	Crawl scraper.Config

	// LandingDir is the directory landing files are written into.
	LandingDir string

	// Name tags the landing files produced by this collector.
	Name string

	// Clock provides the collect and processing timestamps.
	Clock clock.Clock

	// Logger for the collector and its stages.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error

	if cfg.Store == nil {
		err = multierror.Append(err, errMissingStore)
	}
	if len(cfg.Crawl.Seeds) == 0 {
		cfg.Crawl = scraper.DefaultConfig()
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = NewHTTPFetcher(http.DefaultClient, cfg.Crawl.Headers)
	}
	if cfg.LandingDir == "" {
		cfg.LandingDir = "landing"
	}
	if cfg.Name == "" {
		cfg.Name = "bolnews"
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

// Collector runs collect passes over the configured crawl branches.
type Collector struct {
	cfg       Config
	parsers   map[scraper.Site]scraper.PageParser
	sanitizer *bluemonday.Policy
}

// New returns a Collector instance after validating the provided config.
func New(cfg Config) (*Collector, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Collector{
		cfg:       cfg,
		parsers:   scraper.NewParserSet(cfg.Logger),
		sanitizer: bluemonday.StrictPolicy(),
	}, nil
}

// Run executes one collect pass: crawl every configured branch, land every
// raw article, refine and store the new ones. It returns the number of
// articles emitted by the crawl plus the accumulated record-local errors.
//
// Calls to Run block until the pass completes or ctx is cancelled.
func (c *Collector) Run(ctx context.Context) (int, error) {
	landing := newLandingWriter(c.cfg.LandingDir, c.cfg.Name, c.cfg.Clock.Now(), c.cfg.Logger)
	defer func() { _ = landing.Close() }()

	source := newCrawlSource(c.cfg.Crawl, c.cfg.Fetcher, c.parsers, c.cfg.Clock, c.cfg.Logger)
	sink := newConsumeSink(c.cfg.Store, c.cfg.Clock, c.cfg.Logger)

	p := pipeline.New(
		pipeline.NewFIFO(landing),
		pipeline.NewFIFO(newRefineProcessor(c.cfg.Store, c.sanitizer, c.cfg.Logger)),
	)

	err := p.Execute(ctx, source, sink)

	c.cfg.Logger.WithFields(logrus.Fields{
		"collected": source.Collected(),
		"stored":    sink.Stored(),
	}).Info("collect pass complete")

	return source.Collected(), err
}
