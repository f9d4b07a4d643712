package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIndexUsage(t *testing.T) {
	tests := []struct {
		name          string
		scans         int64
		tuplesRead    int64
		tuplesFetched int64
		want          UsageStatus
	}{
		{name: "never scanned", scans: 0, tuplesRead: 0, tuplesFetched: 0, want: UsageUnused},
		{name: "never scanned with stale tuples", scans: 0, tuplesRead: 500, tuplesFetched: 10, want: UsageUnused},
		{name: "scanned a handful of times", scans: 50, tuplesRead: 10_000, tuplesFetched: 100, want: UsageLowUsage},
		{name: "just under the usage threshold", scans: 99, tuplesRead: 0, tuplesFetched: 0, want: UsageLowUsage},
		{name: "poor fetch ratio", scans: 150, tuplesRead: 10_000, tuplesFetched: 500, want: UsageLowSelectivity},
		{name: "fetch ratio at the boundary", scans: 150, tuplesRead: 1_000, tuplesFetched: 100, want: UsageGood},
		{name: "healthy index", scans: 5_000, tuplesRead: 10_000, tuplesFetched: 9_000, want: UsageGood},
		{name: "scans without tuple reads", scans: 150, tuplesRead: 0, tuplesFetched: 0, want: UsageGood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIndexUsage(tt.scans, tt.tuplesRead, tt.tuplesFetched))
		})
	}
}

func TestUsageRecommendation(t *testing.T) {
	assert.Equal(t, "Consider dropping this unused index", UsageRecommendation(UsageUnused))
	assert.Equal(t, "Low usage - monitor for potential removal", UsageRecommendation(UsageLowUsage))
	assert.Equal(t, "Low selectivity - review necessity", UsageRecommendation(UsageLowSelectivity))
	assert.Equal(t, "Index performing well", UsageRecommendation(UsageGood))
}
