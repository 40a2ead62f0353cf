// Package history records completed recognition runs. Appends are
// best-effort from the orchestrator's point of view: a failing sink is
// logged and never fails the recognition call that produced the run.
package history

import (
	"context"

	"github.com/facekit/facekit/model"
)

// Sink receives completed recognition runs.
//
// Append must be safe for concurrent use. Implementations must not
// mutate the run.
type Sink interface {
	Append(ctx context.Context, run *model.RecognitionRun) error
}

// MultiSink fans an append out to several sinks, e.g. a memory ring for
// the stats surface plus a durable archive. The first error wins but
// every sink still sees the run.
type MultiSink []Sink

// Append delivers run to every sink.
func (m MultiSink) Append(ctx context.Context, run *model.RecognitionRun) error {
	var firstErr error

	for _, s := range m {
		if err := s.Append(ctx, run); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
