/*
	collector service runs a collect pass on every update interval tick. A
	failed or partially failed pass is logged and the service keeps running;
	only context cancellation stops it.
*/

package collector

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Service periodically executes collect passes. It satisfies the
// service.Service interface.
type Service struct {
	config Config
}

// New creates and returns a fully configured collector service instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("collector service: config validation failed: %w", err)
	}

	return &Service{config: config}, nil
}

// Name returns the name of the service.
func (svc *Service) Name() string { return "collector" }

// Run executes the service and blocks until the context gets cancelled.
func (svc *Service) Run(ctx context.Context) error {
	svc.config.Logger.WithField(
		"update_interval", svc.config.UpdateInterval.String(),
	).Info("starting service")
	defer svc.config.Logger.Info("stopped service")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-svc.config.Clock.After(svc.config.UpdateInterval):
			svc.runPass(ctx)
		}
	}
}

// runPass executes one collect pass. Pass failures are logged, never fatal
// to the service: the next interval gets a fresh attempt.
func (svc *Service) runPass(ctx context.Context) {
	svc.config.Logger.Info("started collect pass")
	startedAt := svc.config.Clock.Now()

	collected, err := svc.config.Collector.Run(ctx)
	if err != nil {
		svc.config.Logger.WithError(err).Warn("collect pass completed with record errors")
	}

	svc.config.Logger.WithFields(logrus.Fields{
		"collected_article_count": collected,
		"elapsed_time":            svc.config.Clock.Now().Sub(startedAt).String(),
	}).Info("completed collect pass")
}
