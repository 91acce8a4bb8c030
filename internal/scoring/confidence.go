package scoring

import "github.com/kslabenko/repo-quality-metrics/internal/domain"

// MinimumRequiredMetrics are the metrics a score needs before coverage-based
// confidence earns its completeness bonus.
var MinimumRequiredMetrics = []string{
	domain.MetricCodeReviewDuration,
	domain.MetricDebuggingTime,
	domain.MetricBuildTime,
	domain.MetricTimeToMarket,
	domain.MetricTestCoverage,
}

// SourceConfidence derives a 0-100 confidence level from which data source
// produced the result and how many non-fatal errors collection recorded.
// Used for live collection results.
func SourceConfidence(source domain.DataSourceTag, errorCount int) int {
	confidence := 50
	switch source {
	case domain.SourceExternal:
		confidence = 90
	case domain.SourceMixed:
		confidence = 75
	case domain.SourceMock:
		confidence = 60
	}

	confidence -= errorCount * 5

	return clampScore(confidence)
}

// CoverageConfidence derives confidence from the share of declared metrics
// that actually carry values, with a bonus when every minimum-required metric
// is present. Used for static configuration validation.
func CoverageConfidence(available []string, totalPossible int) int {
	if totalPossible <= 0 {
		return 0
	}

	coverage := float64(len(available)) / float64(totalPossible)
	confidence := coverage * 80

	if HasMinimumMetrics(available) {
		confidence += 20
	}

	return clampScore(int(confidence))
}

// HasMinimumMetrics reports whether every minimum-required metric is present
// in the available set.
func HasMinimumMetrics(available []string) bool {
	set := make(map[string]struct{}, len(available))
	for _, name := range available {
		set[name] = struct{}{}
	}
	for _, required := range MinimumRequiredMetrics {
		if _, ok := set[required]; !ok {
			return false
		}
	}
	return true
}
