package port

import "context"

// QueryStat is one aggregated workload row: a normalized query text with its
// execution counters. It is an immutable snapshot taken at run start.
type QueryStat struct {
	Query         string  `json:"query"`
	Calls         int64   `json:"calls"`
	TotalTimeMS   float64 `json:"total_time_ms"`
	MeanTimeMS    float64 `json:"mean_time_ms"`
	Rows          int64   `json:"rows"`
	CacheHitRatio float64 `json:"cache_hit_ratio"`
}

// Weight is the cost attributed to every column reference the query
// contributes: call volume times mean latency.
func (q QueryStat) Weight() float64 {
	return float64(q.Calls) * q.MeanTimeMS
}

// WorkloadSampler reads aggregated query-execution statistics for queries
// above the configured significance thresholds, ordered by total cost.
type WorkloadSampler interface {
	Sample(ctx context.Context) ([]QueryStat, error)
}
