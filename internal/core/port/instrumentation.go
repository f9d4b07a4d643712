package port

import "context"

// Instrumentation records application-level metrics for an advisor run.
type Instrumentation interface {
	RecordPhaseDuration(ctx context.Context, phase string, ms float64)
	AddCandidates(ctx context.Context, n int64)
	IncrementIndexesCreated(ctx context.Context)
	IncrementCreationFailures(ctx context.Context)
}

// NoopInstrumentation discards all metrics.
type NoopInstrumentation struct{}

func (NoopInstrumentation) RecordPhaseDuration(context.Context, string, float64) {}
func (NoopInstrumentation) AddCandidates(context.Context, int64)                 {}
func (NoopInstrumentation) IncrementIndexesCreated(context.Context)              {}
func (NoopInstrumentation) IncrementCreationFailures(context.Context)            {}
