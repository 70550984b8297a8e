package dashboard

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/bolnews/newslake/lake"
	"github.com/bolnews/newslake/weather"
)

// Interval between search index rebuilds when the config does not specify
// one.
const defaultIndexRebuildInterval = 5 * time.Minute

// SearchAPI defines the minimum search index surface the dashboard drives.
type SearchAPI interface {
	// PutAll indexes every provided analytics row.
	PutAll(records []*lake.AnalyticsRecord) error

	// Search returns up to limit rows matching the expression, most relevant
	// first.
	Search(expression string, limit int) ([]*lake.AnalyticsRecord, error)
}

// WeatherAPI defines the weather client surface used by the weather
// endpoint.
type WeatherAPI interface {
	// Current fetches the current conditions for the configured city.
	Current(ctx context.Context) (*weather.Conditions, error)
}

// Config defines configurations for the dashboard service.
type Config struct {
	// Store backing the analytics queries.
	Store lake.AnalyticsStore

	// SearchIndex serving the search endpoint, rebuilt from the store on
	// every rebuild interval.
	SearchIndex SearchAPI

	// Weather client for the weather endpoint. When absent the endpoint
	// reports the feature as unavailable instead of failing the service.
	Weather WeatherAPI

	// The address the API server listens on.
	ListenAddr string

	// The duration between search index rebuilds. Defaults to 5 minutes.
	IndexRebuildInterval time.Duration

	// A clock instance for generating time-related events. If not specified,
	// the default wall-clock will be used instead.
	Clock clock.Clock

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Store == nil {
		err = multierror.Append(err, fmt.Errorf("analytics store not provided"))
	}

	if config.SearchIndex == nil {
		err = multierror.Append(err, fmt.Errorf("search index not provided"))
	}

	if config.ListenAddr == "" {
		err = multierror.Append(err, fmt.Errorf("listen address not provided"))
	}

	if config.IndexRebuildInterval == 0 {
		config.IndexRebuildInterval = defaultIndexRebuildInterval
	}

	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
