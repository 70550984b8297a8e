package pipeline

import "context"

// Source should be implemented by types that generate Payload instances that
// serve as inputs for a Pipeline instance.
type Source interface {
	// Next loads the next available payload from the source and returns true.
	// When no more payloads are available or an error occurs, calls to Next
	// return false.
	Next(context.Context) bool

	// Payload returns the current payload to be processed.
	Payload() Payload

	// Error returns the last error encountered by the source.
	Error() error
}

// Payload should be implemented by types that can travel through a pipeline.
type Payload interface {
	// Clone returns a deep-copy of the original payload.
	Clone() Payload

	// MarkAsProcessed is invoked when the payload either reaches the
	// pipeline sink or gets discarded by one of the pipeline stages.
	MarkAsProcessed()
}

// Processor should be implemented by types that process payloads for a
// pipeline stage.
type Processor interface {
	// Process may transform the payload and return the transformed payload
	// for forwarding to the next stage. Returning a nil payload discards the
	// record without treating it as a failure. Returning an error reports a
	// record-local failure: the record is dropped, the error is collected
	// and the stage continues with the next record.
	Process(context.Context, Payload) (Payload, error)
}

// ProcessorFunc serves as an adapter that allows the use of plain functions
// as Processor instances.
type ProcessorFunc func(context.Context, Payload) (Payload, error)

// Process calls f(ctx, p).
func (f ProcessorFunc) Process(ctx context.Context, p Payload) (Payload, error) {
	return f(ctx, p)
}

// StageRunner should be implemented by types that can be strung together to
// form a multi-stage pipeline.
type StageRunner interface {
	// Run blocks until the stage input channel is closed or the provided
	// context expires. Record-local processing failures are written to the
	// stage error channel and never terminate the stage.
	Run(context.Context, StageParams)
}

// StageParams carries the channel plumbing a stage needs to communicate with
// its neighbours.
type StageParams interface {
	// StageIndex returns the position of this stage in the pipeline.
	StageIndex() int

	// Input returns a read-only channel for the stage's input payloads.
	Input() <-chan Payload

	// Output returns a write-only channel for the stage's output payloads.
	Output() chan<- Payload

	// Error returns a write-only channel for record-local errors encountered
	// while processing payloads.
	Error() chan<- error
}

// Sink should be implemented by types that serve as the last part of a
// pipeline.
type Sink interface {
	// Consume processes a payload instance that has been emitted out of
	// a pipeline.
	Consume(context.Context, Payload) error
}
