package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleResult() *CollectionResult {
	return &CollectionResult{
		ID:          "abc",
		Repository:  "acme/widgets",
		CollectedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Metrics: MetricsBundle{
			DeveloperExperience: DeveloperExperience{
				CodeReviewDuration: NewMetric(MetricCodeReviewDuration, 9.5, "hours", ProvenanceAPI),
			},
		},
		OverallScore: 72,
		Confidence:   90,
		DataSource:   SourceExternal,
	}
}

func TestFlatten(t *testing.T) {
	fields := sampleResult().Flatten()

	byKey := make(map[string]string, len(fields))
	for _, f := range fields {
		byKey[f.Key] = f.Value
	}

	assert.Equal(t, "acme/widgets", byKey["repository"])
	assert.Equal(t, "72", byKey["overall_score"])
	assert.Equal(t, "external", byKey["data_source"])
	assert.Equal(t, "9.50", byKey["dx_"+MetricCodeReviewDuration])

	// Absent metrics flatten to empty cells, never "0".
	assert.Contains(t, byKey, "tp_"+MetricTestCoverage)
	assert.Equal(t, "", byKey["tp_"+MetricTestCoverage])

	// Summary columns come first, in a stable order.
	assert.Equal(t, "repository", fields[0].Key)
	assert.Equal(t, "collected_at", fields[1].Key)
	assert.Equal(t, "errors", fields[len(fields)-2].Key)
}

func TestFlattenStableWidth(t *testing.T) {
	// Two results with different availability still produce the same columns.
	full := sampleResult()
	empty := &CollectionResult{Repository: "acme/empty"}

	assert.Len(t, empty.Flatten(), len(full.Flatten()))
}

func TestFailed(t *testing.T) {
	r := sampleResult()
	assert.False(t, r.Failed())

	r.Errors = []string{"developer experience collection failed"}
	assert.True(t, r.Failed())
}

func TestSnapshot(t *testing.T) {
	r := sampleResult()
	snap := r.Snapshot()

	assert.Equal(t, r.Repository, snap.Repository)
	assert.Equal(t, r.CollectedAt, snap.CollectedAt)
	v, ok := snap.Metrics.DeveloperExperience.CodeReviewDuration.Float()
	assert.True(t, ok)
	assert.Equal(t, 9.5, v)
}
