/*
	service package defines the Service contract shared by the long-running
	parts of the application and a Group helper that runs them in parallel
	until the first failure or context cancellation.
*/

package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Service describes a long-running part of the application.
type Service interface {
	// Name returns the name of the service.
	Name() string

	// Run executes the service and blocks until the context gets cancelled
	// or an error occurs.
	Run(context.Context) error
}

// Group is a list of Service instances that execute in parallel.
type Group []Service

// Execute runs every Service in the group using the provided context and
// blocks until all of them have returned. The first service failure cancels
// the shared execution context so the remaining services shut down; every
// reported error is accumulated into the returned error.
func (g Group) Execute(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	executionCtx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()

	var wg sync.WaitGroup
	wg.Add(len(g))
	errChan := make(chan error, len(g))

	for _, svc := range g {
		go func(svc Service) {
			defer wg.Done()

			if err := svc.Run(executionCtx); err != nil {
				errChan <- fmt.Errorf("%s: %w", svc.Name(), err)

				cancelFn()
			}
		}(svc)
	}

	// Keep running until the execution context gets cancelled, then wait for
	// all spawned service go-routines to exit.
	<-executionCtx.Done()

	wg.Wait()

	var err error
	close(errChan)

	for svcErr := range errChan {
		err = multierror.Append(err, svcErr)
	}

	return err
}
