package collector

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
)

// CollectorAPI defines the minimum collector surface the service drives.
type CollectorAPI interface {
	// Run executes one collect pass and returns the number of collected
	// articles together with the accumulated record-local errors.
	Run(ctx context.Context) (int, error)
}

// Config defines configurations for the collector service.
type Config struct {
	// API executing the collect passes.
	Collector CollectorAPI

	// The duration between subsequent collect passes.
	UpdateInterval time.Duration

	// A clock instance for generating time-related events. If not specified,
	// the default wall-clock will be used instead.
	Clock clock.Clock

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Collector == nil {
		err = multierror.Append(err, fmt.Errorf("collector API not provided"))
	}

	if config.UpdateInterval == 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for update interval"))
	}

	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
