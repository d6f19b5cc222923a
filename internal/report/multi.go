package report

import (
	"context"
	"errors"

	"clubcheck/internal/reconciliation"
)

// Flusher is a sink that buffers reports until Flush
type Flusher interface {
	Flush(ctx context.Context) error
}

// MultiSink writes every report to each of its sinks. A failing sink does not
// stop the others; the errors are joined.
type MultiSink []reconciliation.Sink

// Write forwards the report to every sink
func (m MultiSink) Write(ctx context.Context, r *reconciliation.MemberReport) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Write(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush flushes the sinks that buffer
func (m MultiSink) Flush(ctx context.Context) error {
	var errs []error
	for _, sink := range m {
		if f, ok := sink.(Flusher); ok {
			if err := f.Flush(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
