package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMetric(t *testing.T) {
	m := NewMetric(MetricTestCoverage, 85.5, "percent", ProvenanceAPI)

	assert.Equal(t, MetricTestCoverage, m.Name)
	assert.Equal(t, MetricStatusAvailable, m.Status)
	assert.Equal(t, ProvenanceAPI, m.Source)
	assert.True(t, m.HasValue())

	v, ok := m.Float()
	assert.True(t, ok)
	assert.Equal(t, 85.5, v)
}

func TestNewMetricRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name  string
		value float64
	}{
		{"NaN", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMetric(MetricBuildTime, tt.value, "seconds", ProvenanceAPI)
			assert.Equal(t, MetricStatusError, m.Status)
			assert.False(t, m.HasValue())

			_, ok := m.Float()
			assert.False(t, ok)
		})
	}
}

func TestUnavailableMetric(t *testing.T) {
	m := UnavailableMetric(MetricTimeToMarket, "days")

	assert.Equal(t, MetricStatusUnavailable, m.Status)
	assert.False(t, m.HasValue())

	// An absent value reads as "no data", not as zero.
	v, ok := m.Float()
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestBundleMerge(t *testing.T) {
	base := DeveloperExperience{
		CodeReviewDuration: NewMetric(MetricCodeReviewDuration, 10, "hours", ProvenanceMock),
		DebuggingTime:      NewMetric(MetricDebuggingTime, 5, "hours", ProvenanceMock),
	}
	overlay := DeveloperExperience{
		CodeReviewDuration: NewMetric(MetricCodeReviewDuration, 7, "hours", ProvenanceAPI),
	}

	merged := base.Merge(overlay)

	v, _ := merged.CodeReviewDuration.Float()
	assert.Equal(t, 7.0, v)
	assert.Equal(t, ProvenanceAPI, merged.CodeReviewDuration.Source)

	// Absent overlay records keep the base record.
	v, _ = merged.DebuggingTime.Float()
	assert.Equal(t, 5.0, v)
}

func TestMetricsBundleCounts(t *testing.T) {
	bundle := MetricsBundle{
		DeveloperExperience: DeveloperExperience{
			CodeReviewDuration: NewMetric(MetricCodeReviewDuration, 10, "hours", ProvenanceAPI),
		},
	}

	assert.Equal(t, 18, bundle.TotalMetrics())
	assert.Equal(t, []string{MetricCodeReviewDuration}, bundle.AvailableMetrics())

	survey := &SurveyMetrics{}
	bundle.Survey = survey
	assert.Equal(t, 23, bundle.TotalMetrics())
}
