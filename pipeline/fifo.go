package pipeline

import (
	"context"
	"fmt"
)

// fifo processes payloads one at a time in arrival order, which keeps the
// within-branch ordering produced by the source intact.
type fifo struct {
	proc Processor
}

// NewFIFO returns a StageRunner that processes incoming payloads in a
// first-in first-out fashion.
func NewFIFO(proc Processor) StageRunner {
	return fifo{proc}
}

// Run processes payloads from the input channel until it is closed or the
// context is cancelled. A processor error drops the current payload, writes
// the wrapped error to the stage error channel and continues with the next
// payload; it never terminates the stage.
func (r fifo) Run(ctx context.Context, params StageParams) {
	for {
		select {
		case <-ctx.Done():
			return
		case payloadIn, ok := <-params.Input():
			if !ok {
				return
			}

			payloadOut, err := r.proc.Process(ctx, payloadIn)
			if err != nil {
				emitError(
					fmt.Errorf("pipeline stage %d: %w", params.StageIndex(), err),
					params.Error(),
				)
				payloadIn.MarkAsProcessed()

				continue
			}

			// A nil payload means the processor discarded the record.
			if payloadOut == nil {
				payloadIn.MarkAsProcessed()

				continue
			}

			select {
			case <-ctx.Done():
				return
			case params.Output() <- payloadOut:
			}
		}
	}
}
