package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ringo380/pgadvisor/internal/core/domain"
	"github.com/ringo380/pgadvisor/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Advisor orchestrates the analysis pipeline: metadata read, workload
// sample, usage extraction, candidate generation, optional serial creation,
// and effectiveness monitoring. The run is single-threaded on purpose:
// concurrent non-locking builds against the same table risk lock contention
// and invalid leftovers, and all reads are one-shot snapshots anyway.
type Advisor struct {
	sampler   port.WorkloadSampler
	metadata  port.MetadataReader
	creator   port.IndexCreator
	usage     port.IndexUsageReader
	extractor domain.Extractor
	generator *domain.Generator
	auditor   port.DDLAuditor
	logger    *slog.Logger
	tracer    trace.Tracer
	inst      port.Instrumentation
}

func NewAdvisor(
	sampler port.WorkloadSampler,
	metadata port.MetadataReader,
	creator port.IndexCreator,
	usage port.IndexUsageReader,
	extractor domain.Extractor,
	generator *domain.Generator,
	auditor port.DDLAuditor,
	logger *slog.Logger,
	tracer trace.Tracer,
	inst port.Instrumentation,
) *Advisor {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	return &Advisor{
		sampler:   sampler,
		metadata:  metadata,
		creator:   creator,
		usage:     usage,
		extractor: extractor,
		generator: generator,
		auditor:   auditor,
		logger:    logger,
		tracer:    tracer,
		inst:      inst,
	}
}

// RunOptions selects which phases of the pipeline to execute.
type RunOptions struct {
	Create    bool
	MaxCreate int
	Monitor   bool
}

// Summary is the structured roll-up consumed by report renderers.
type Summary struct {
	QueriesSampled           int            `json:"queries_sampled"`
	ColumnsTracked           int            `json:"columns_tracked"`
	CacheHitRatio            float64        `json:"cache_hit_ratio"`
	SuggestionsGenerated     int            `json:"suggestions_generated"`
	IndexesCreated           int            `json:"indexes_created"`
	AlreadyExisting          int            `json:"already_existing"`
	CreationFailures         int            `json:"creation_failures"`
	UsageByStatus            map[string]int `json:"usage_by_status,omitempty"`
	EffectivenessUnavailable string         `json:"effectiveness_unavailable,omitempty"`
}

// RunReport is the full output of one advisor run.
type RunReport struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Candidates  []domain.IndexCandidate `json:"candidates"`
	Created     []port.CreationResult   `json:"created,omitempty"`
	IndexUsage  []port.IndexUsageRecord `json:"index_usage,omitempty"`
	Summary     Summary                 `json:"summary"`
}

// CreationFailed reports whether the creation phase recorded any failure;
// callers map this to a non-zero exit status.
func (r *RunReport) CreationFailed() bool {
	return r.Summary.CreationFailures > 0
}

// Run executes the configured phases. Connectivity failures during the
// analysis reads abort the run; per-candidate creation failures and a
// failed effectiveness read are captured in the report instead.
func (a *Advisor) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	ctx, span := a.tracer.Start(ctx, "Advisor.Run",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.Bool("advisor.create", opts.Create),
		),
	)
	defer span.End()

	report := &RunReport{GeneratedAt: time.Now().UTC()}

	candidates, sampled, tracked, cacheHit, err := a.analyze(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	report.Candidates = candidates
	report.Summary.QueriesSampled = sampled
	report.Summary.ColumnsTracked = tracked
	report.Summary.CacheHitRatio = cacheHit
	report.Summary.SuggestionsGenerated = len(candidates)
	a.inst.AddCandidates(ctx, int64(len(candidates)))

	if opts.Create {
		report.Created = a.createIndexes(ctx, candidates, opts.MaxCreate)
		for _, res := range report.Created {
			switch res.Outcome {
			case port.OutcomeCreated:
				report.Summary.IndexesCreated++
			case port.OutcomeAlreadyExists:
				report.Summary.AlreadyExisting++
			case port.OutcomeFailed:
				report.Summary.CreationFailures++
			}
		}
	}

	if opts.Monitor {
		records, err := a.monitorEffectiveness(ctx)
		if err != nil {
			// Degrades the report only: successful creations stand.
			report.Summary.EffectivenessUnavailable = err.Error()
			a.logger.WarnContext(ctx, "effectiveness collection failed",
				slog.String("error.message", err.Error()))
		} else {
			report.IndexUsage = records
			report.Summary.UsageByStatus = make(map[string]int)
			for _, rec := range records {
				report.Summary.UsageByStatus[string(rec.Status)]++
			}
		}
	}

	span.SetAttributes(
		attribute.Int("advisor.candidates", len(report.Candidates)),
		attribute.Int("advisor.created", report.Summary.IndexesCreated),
		attribute.Int("advisor.failed", report.Summary.CreationFailures),
	)
	return report, nil
}

// Analyze runs only the read-and-rank half of the pipeline.
func (a *Advisor) Analyze(ctx context.Context) ([]domain.IndexCandidate, error) {
	candidates, _, _, _, err := a.analyze(ctx)
	return candidates, err
}

func (a *Advisor) analyze(ctx context.Context) (candidates []domain.IndexCandidate, sampled, tracked int, cacheHit float64, err error) {
	ctx, span := a.tracer.Start(ctx, "Advisor.Analyze")
	defer span.End()

	start := time.Now()
	defer func() {
		a.inst.RecordPhaseDuration(ctx, "analyze", float64(time.Since(start).Milliseconds()))
	}()

	catalog, err := a.metadata.Catalog(ctx)
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("reading catalog metadata: %w", err)
	}

	existing, err := a.metadata.ExistingIndexes(ctx)
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("reading existing indexes: %w", err)
	}

	stats, err := a.sampler.Sample(ctx)
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("sampling workload statistics: %w", err)
	}

	// Calls-weighted shared-buffer hit percentage across the sample, so a
	// poorly cached hot query dominates the figure.
	var totalCalls int64
	var hitWeighted float64
	for _, stat := range stats {
		totalCalls += stat.Calls
		hitWeighted += stat.CacheHitRatio * float64(stat.Calls)
	}
	if totalCalls > 0 {
		cacheHit = hitWeighted / float64(totalCalls)
	}

	a.logger.InfoContext(ctx, "workload sampled",
		slog.Int("queries", len(stats)),
		slog.Int("tables", len(catalog.Tables())),
		slog.Float64("cache_hit_ratio", cacheHit),
	)

	usage := domain.NewUsageAccumulator()
	for _, stat := range stats {
		refs := a.extractor.Extract(stat.Query)
		if len(refs) == 0 {
			a.logger.DebugContext(ctx, "no attributable references",
				slog.String("db.statement", stat.Query))
			continue
		}
		w := stat.Weight()
		for table, columns := range refs {
			for _, column := range columns {
				usage.Add(table, column, w)
			}
		}
	}

	candidates = a.generator.Generate(usage.Ranked(), catalog, existing)

	a.logger.InfoContext(ctx, "candidates generated",
		slog.Int("column_pairs", usage.Len()),
		slog.Int("candidates", len(candidates)),
	)
	span.SetAttributes(attribute.Int("advisor.candidates", len(candidates)))
	return candidates, len(stats), usage.Len(), cacheHit, nil
}

// createIndexes builds candidates strictly sequentially up to max. One
// candidate's failure never blocks the rest of the batch.
func (a *Advisor) createIndexes(ctx context.Context, candidates []domain.IndexCandidate, max int) []port.CreationResult {
	ctx, span := a.tracer.Start(ctx, "Advisor.CreateIndexes",
		trace.WithAttributes(attribute.Int("advisor.max_create", max)),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		a.inst.RecordPhaseDuration(ctx, "create", float64(time.Since(start).Milliseconds()))
	}()

	if max > 0 && len(candidates) > max {
		candidates = candidates[:max]
	}

	results := make([]port.CreationResult, 0, len(candidates))
	for _, candidate := range candidates {
		res := a.creator.Create(ctx, candidate)
		results = append(results, res)

		level := slog.LevelInfo
		if res.Outcome == port.OutcomeFailed {
			level = slog.LevelError
			a.inst.IncrementCreationFailures(ctx)
		} else if res.Outcome == port.OutcomeCreated {
			a.inst.IncrementIndexesCreated(ctx)
		}
		a.logger.LogAttrs(ctx, level, "index creation",
			slog.String("index", candidate.Name),
			slog.String("table", candidate.Table),
			slog.String("outcome", string(res.Outcome)),
			slog.Int64("duration_ms", res.DurationMS),
		)

		if a.auditor != nil {
			a.auditor.Record(ctx, port.AuditEntry{
				Index:      candidate.Name,
				Table:      candidate.Table,
				SQL:        res.SQL,
				Outcome:    res.Outcome,
				DurationMS: res.DurationMS,
				Err:        errFromString(res.Error),
			})
		}
	}
	return results
}

func (a *Advisor) monitorEffectiveness(ctx context.Context) ([]port.IndexUsageRecord, error) {
	ctx, span := a.tracer.Start(ctx, "Advisor.MonitorEffectiveness")
	defer span.End()

	records, err := a.usage.IndexUsage(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	for i := range records {
		records[i].Status = domain.ClassifyIndexUsage(records[i].Scans, records[i].TuplesRead, records[i].TuplesFetched)
		records[i].Note = domain.UsageRecommendation(records[i].Status)
	}
	return records, nil
}

// MonitorEffectiveness exposes the classification phase on its own, for the
// MCP index_usage tool.
func (a *Advisor) MonitorEffectiveness(ctx context.Context) ([]port.IndexUsageRecord, error) {
	return a.monitorEffectiveness(ctx)
}

func errFromString(s string) error {
	if s == "" {
		return nil
	}
	return fmt.Errorf("%s", s)
}
