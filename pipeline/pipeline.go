/*
	pipeline package implements the staged record-flow abstraction used by the
	collector: an input source, zero or more processing stages and an output
	sink, wired together with channels.

	Unlike a transactional pipeline, failures here are record-local by
	contract: a processor or sink error drops the offending record, is
	accumulated into the error value eventually returned by Execute, and the
	run keeps going. Only context cancellation stops a run early.
*/

package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Pipeline provides modular, multi-stage record processing. Each pipeline is
// built out of an input source, an output sink and zero or more stages.
type Pipeline struct {
	stages []StageRunner
}

// New returns a pointer to a pipeline instance.
func New(stages ...StageRunner) *Pipeline {
	return &Pipeline{stages}
}

// Execute reads the contents of the specified source, sends them through the
// stages of the pipeline and directs the results to the specified sink.
//
// Calls to Execute block until all data from the source has been processed
// or discarded, or the supplied context is cancelled. The returned error
// accumulates every record-local failure reported by the source, the stages
// and the sink during the run.
//
// It is safe to call Execute concurrently with different sources and sinks.
func (p *Pipeline) Execute(ctx context.Context, src Source, sink Sink) error {
	var wg sync.WaitGroup
	executionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The output of the i_th stage is the input of the i+1_th stage. One
	// extra channel connects the source directly to the sink when no stages
	// are configured.
	stageChans := make([]chan Payload, len(p.stages)+1)
	for i := 0; i < len(stageChans); i++ {
		stageChans[i] = make(chan Payload)
	}

	errChan := make(chan error, len(p.stages)+2)

	// Drain the error channel for the duration of the run. Errors are
	// accumulated, never fatal, so the drainer must keep reading until every
	// worker has exited and the channel is closed.
	var (
		errWg  sync.WaitGroup
		runErr error
	)
	errWg.Add(1)
	go func() {
		defer errWg.Done()

		for err := range errChan {
			runErr = multierror.Append(runErr, err)
		}
	}()

	// Launch a worker for each pipeline stage.
	for i := 0; i < len(p.stages); i++ {
		wg.Add(1)

		go func(index int) {
			defer wg.Done()

			p.stages[index].Run(executionCtx, &stageParams{
				stage:   index,
				inChan:  stageChans[index],
				outChan: stageChans[index+1],
				errChan: errChan,
			})

			// Run only returns once its input channel is closed or the
			// context is cancelled. Closing the output channel propagates
			// the shutdown to the next stage.
			close(stageChans[index+1])
		}(i)
	}

	wg.Add(2)

	go func() {
		defer wg.Done()

		sourceWorker(executionCtx, src, stageChans[0], errChan)

		// Once the source runs out of data, closing the first channel starts
		// the chain of stage shutdowns.
		close(stageChans[0])
	}()

	go func() {
		defer wg.Done()

		sinkWorker(executionCtx, sink, stageChans[len(stageChans)-1], errChan)
	}()

	wg.Wait()
	close(errChan)
	errWg.Wait()

	return runErr
}

// sourceWorker pulls payload instances from the source and feeds them to the
// first stage of the pipeline.
func sourceWorker(
	ctx context.Context, src Source,
	outChan chan<- Payload, errChan chan<- error,
) {
	for src.Next(ctx) {
		p := src.Payload()

		select {
		case <-ctx.Done():
			return
		case outChan <- p:
		}
	}

	if err := src.Error(); err != nil {
		emitError(fmt.Errorf("pipeline source: %w", err), errChan)
	}
}

// sinkWorker forwards payloads emitted by the last stage to the sink. Sink
// errors are record-local: the payload is dropped and the worker keeps
// consuming.
func sinkWorker(
	ctx context.Context, sink Sink,
	inChan <-chan Payload, errChan chan<- error,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-inChan:
			if !ok {
				return
			}

			if err := sink.Consume(ctx, payload); err != nil {
				emitError(fmt.Errorf("pipeline sink: %w", err), errChan)
			}

			payload.MarkAsProcessed()
		}
	}
}

// emitError hands a record-local error to the run's accumulator. The
// accumulator drains the channel until every worker has exited, so the send
// always completes and no error is lost.
func emitError(err error, errChan chan<- error) {
	errChan <- err
}
