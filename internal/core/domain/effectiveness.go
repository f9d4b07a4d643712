package domain

// UsageStatus classifies an index by its observed scan statistics.
type UsageStatus string

const (
	UsageUnused         UsageStatus = "UNUSED"
	UsageLowUsage       UsageStatus = "LOW_USAGE"
	UsageLowSelectivity UsageStatus = "LOW_SELECTIVITY"
	UsageGood           UsageStatus = "GOOD"
)

const (
	lowUsageScanThreshold    = 100
	lowSelectivityFetchRatio = 0.10
)

// ClassifyIndexUsage buckets an index by how it has been used since the
// statistics were last reset. The zero-scan check runs first, so an index
// that was never scanned is UNUSED rather than LOW_SELECTIVITY (which would
// otherwise divide by zero).
func ClassifyIndexUsage(scans, tuplesRead, tuplesFetched int64) UsageStatus {
	switch {
	case scans == 0:
		return UsageUnused
	case scans < lowUsageScanThreshold:
		return UsageLowUsage
	case tuplesRead > 0 && float64(tuplesFetched)/float64(tuplesRead) < lowSelectivityFetchRatio:
		return UsageLowSelectivity
	default:
		return UsageGood
	}
}

// UsageRecommendation is the advisory note attached to each classification.
// The advisor never acts on it; index removal stays a human decision.
func UsageRecommendation(status UsageStatus) string {
	switch status {
	case UsageUnused:
		return "Consider dropping this unused index"
	case UsageLowUsage:
		return "Low usage - monitor for potential removal"
	case UsageLowSelectivity:
		return "Low selectivity - review necessity"
	default:
		return "Index performing well"
	}
}
