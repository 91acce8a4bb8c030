package domain

import (
	"fmt"
	"time"
)

// DataSourceTag describes which source(s) produced a collection result
type DataSourceTag string

const (
	SourceExternal DataSourceTag = "external" // everything came from live APIs
	SourceMock     DataSourceTag = "mock"     // fallback defaults only
	SourceMixed    DataSourceTag = "mixed"    // live collection partially failed
)

// CategoryScore is one category's slice of the overall score breakdown.
type CategoryScore struct {
	Score            int      `json:"score"`
	Weight           float64  `json:"weight"`
	AvailableMetrics int      `json:"available_metrics"`
	MetricsUsed      []string `json:"metrics_used,omitempty"`
}

// Breakdown holds per-category scores. Survey and Enterprise are only set
// when those bundles were collected.
type Breakdown struct {
	DeveloperExperience  CategoryScore  `json:"developerExperience"`
	TechnicalPerformance CategoryScore  `json:"technicalPerformance"`
	BusinessImpact       CategoryScore  `json:"businessImpact"`
	Survey               *CategoryScore `json:"survey,omitempty"`
	Enterprise           *CategoryScore `json:"enterprise,omitempty"`
}

// CollectionResult aggregates everything measured for one repository at one
// point in time. It is immutable once built.
type CollectionResult struct {
	ID             string        `json:"id"`
	Repository     string        `json:"repository"`
	CollectedAt    time.Time     `json:"collected_at"`
	Metrics        MetricsBundle `json:"metrics"`
	Breakdown      Breakdown     `json:"breakdown"`
	OverallScore   int           `json:"overall_score"`
	Confidence     int           `json:"confidence"`
	DataSource     DataSourceTag `json:"data_source"`
	Errors         []string      `json:"errors,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// Failed reports whether collection recorded any non-fatal errors.
func (r *CollectionResult) Failed() bool {
	return len(r.Errors) > 0
}

// Snapshot reduces the result to the bundle plus its timestamp for
// time-series storage.
func (r *CollectionResult) Snapshot() HistoricalSnapshot {
	return HistoricalSnapshot{
		Repository:  r.Repository,
		CollectedAt: r.CollectedAt,
		Metrics:     r.Metrics,
	}
}

// Flatten converts the result into ordered key/value rows suitable for
// tabular (CSV) or document (JSON/Markdown) serialization. Absent metrics
// flatten to an empty value, never "0".
func (r *CollectionResult) Flatten() []FlatField {
	fields := []FlatField{
		{Key: "repository", Value: r.Repository},
		{Key: "collected_at", Value: r.CollectedAt.Format(time.RFC3339)},
		{Key: "overall_score", Value: fmt.Sprintf("%d", r.OverallScore)},
		{Key: "confidence", Value: fmt.Sprintf("%d", r.Confidence)},
		{Key: "data_source", Value: string(r.DataSource)},
		{Key: "dx_score", Value: fmt.Sprintf("%d", r.Breakdown.DeveloperExperience.Score)},
		{Key: "tp_score", Value: fmt.Sprintf("%d", r.Breakdown.TechnicalPerformance.Score)},
		{Key: "bi_score", Value: fmt.Sprintf("%d", r.Breakdown.BusinessImpact.Score)},
	}
	fields = appendFlatMetrics(fields, "dx", MetricOrderDeveloperExperience, r.Metrics.DeveloperExperience.Records())
	fields = appendFlatMetrics(fields, "tp", MetricOrderTechnicalPerformance, r.Metrics.TechnicalPerformance.Records())
	fields = appendFlatMetrics(fields, "bi", MetricOrderBusinessImpact, r.Metrics.BusinessImpact.Records())
	fields = append(fields,
		FlatField{Key: "errors", Value: fmt.Sprintf("%d", len(r.Errors))},
		FlatField{Key: "processing_time_s", Value: fmt.Sprintf("%.2f", r.ProcessingTime.Seconds())},
	)
	return fields
}

// FlatField is one key/value cell of a flattened result.
type FlatField struct {
	Key   string
	Value string
}

// Stable column orders for flattening; map iteration order is not usable for
// CSV output.
var (
	MetricOrderDeveloperExperience = []string{
		MetricCodeReviewDuration, MetricDebuggingTime, MetricDeploymentsRatio,
		MetricTimeToFirstCommit, MetricLinesChangedPerHour,
		MetricAverageCommentsPerPR, MetricPRIterationRate,
	}
	MetricOrderTechnicalPerformance = []string{
		MetricBuildTime, MetricBundleSize, MetricBundleLoadTime,
		MetricPerformanceScore, MetricTypeScriptErrorRate, MetricTestCoverage,
	}
	MetricOrderBusinessImpact = []string{
		MetricTimeToMarket, MetricFeatureSuccessRate, MetricActiveContributors,
		MetricIssueResolutionRate, MetricCommunityGrowth,
	}
)

func appendFlatMetrics(fields []FlatField, prefix string, order []string, recs map[string]MetricRecord) []FlatField {
	for _, name := range order {
		rec := recs[name]
		value := ""
		if v, ok := rec.Float(); ok {
			value = fmt.Sprintf("%.2f", v)
		}
		fields = append(fields, FlatField{Key: prefix + "_" + name, Value: value})
	}
	return fields
}

// HistoricalSnapshot is a CollectionResult reduced to its metrics bundle and
// timestamp. A repository's history is a chronological sequence of snapshots,
// ordered by as-of date.
type HistoricalSnapshot struct {
	Repository  string        `json:"repository"`
	CollectedAt time.Time     `json:"collected_at"`
	Metrics     MetricsBundle `json:"metrics"`
}
