package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/ringo380/pgadvisor"

// Instruments holds pre-created OTel metric instruments for advisor runs.
type Instruments struct {
	PhaseDuration    metric.Float64Histogram
	Candidates       metric.Int64Counter
	IndexesCreated   metric.Int64Counter
	CreationFailures metric.Int64Counter
}

// NewInstruments creates metric instruments from the global MeterProvider.
func NewInstruments() *Instruments {
	meter := otel.Meter(meterName)
	return newInstrumentsFromMeter(meter)
}

// NoopInstruments returns instruments that record nothing.
func NoopInstruments() *Instruments {
	meter := noop.NewMeterProvider().Meter(meterName)
	return newInstrumentsFromMeter(meter)
}

func newInstrumentsFromMeter(meter metric.Meter) *Instruments {
	// OTel SDK returns noop instruments on error; safe to discard.
	phaseDuration, _ := meter.Float64Histogram("pgadvisor.phase.duration",
		metric.WithDescription("Advisor pipeline phase duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	candidates, _ := meter.Int64Counter("pgadvisor.candidates.generated",
		metric.WithDescription("Total index candidates generated"),
	)
	created, _ := meter.Int64Counter("pgadvisor.indexes.created",
		metric.WithDescription("Total indexes created"),
	)
	failures, _ := meter.Int64Counter("pgadvisor.creation.failures",
		metric.WithDescription("Total failed index builds"),
	)

	return &Instruments{
		PhaseDuration:    phaseDuration,
		Candidates:       candidates,
		IndexesCreated:   created,
		CreationFailures: failures,
	}
}

func (i *Instruments) RecordPhaseDuration(ctx context.Context, phase string, ms float64) {
	i.PhaseDuration.Record(ctx, ms, metric.WithAttributes(attribute.String("phase", phase)))
}

func (i *Instruments) AddCandidates(ctx context.Context, n int64) {
	i.Candidates.Add(ctx, n)
}

func (i *Instruments) IncrementIndexesCreated(ctx context.Context) {
	i.IndexesCreated.Add(ctx, 1)
}

func (i *Instruments) IncrementCreationFailures(ctx context.Context) {
	i.CreationFailures.Add(ctx, 1)
}
