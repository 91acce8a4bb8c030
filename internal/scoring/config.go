package scoring

import "github.com/kslabenko/repo-quality-metrics/internal/domain"

// Bounds are per-metric normalization limits.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Config is the score configuration for one collection run: category weights,
// minimum metric requirements and normalization bounds. It is built once per
// run from project type and open-source-ness, optionally refined against the
// metrics actually available.
type Config struct {
	Weights             Weights            `json:"weights"`
	MinimumRequirements map[string]float64 `json:"minimum_requirements"`
	Bounds              map[string]Bounds  `json:"bounds,omitempty"`
}

// DefaultConfig builds the base configuration for a project type.
func DefaultConfig(projectType domain.ProjectType, isOpenSource bool) Config {
	weights := DefaultWeights()

	switch projectType {
	case domain.ProjectTypeLibrary:
		weights.DeveloperExperience = 0.5
		weights.TechnicalPerformance = 0.3
		weights.BusinessImpact = 0.2
	case domain.ProjectTypeMicroservice:
		weights.TechnicalPerformance = 0.45
		weights.DeveloperExperience = 0.35
		weights.BusinessImpact = 0.2
	}

	// Enterprise-only data sources are unreachable for open source, so that
	// weight drops and surveys take its place.
	if isOpenSource {
		weights.Enterprise = 0.05
		weights.Survey = 0.25
	}

	return Config{
		Weights: weights,
		MinimumRequirements: map[string]float64{
			domain.MetricCodeReviewDuration: 0,
			domain.MetricDebuggingTime:      0,
			domain.MetricBuildTime:          0,
			domain.MetricTestCoverage:       0,
			domain.MetricTimeToMarket:       0,
		},
	}
}

// OptimizedConfig refines the default configuration using the coverage of
// metrics actually available for this project and the team size.
func OptimizedConfig(metrics domain.MetricsBundle, projectType domain.ProjectType, isOpenSource bool, teamSize int) Config {
	cfg := DefaultConfig(projectType, isOpenSource)
	report := NewCoverageReport(metrics)

	// With few survey responses the survey score is noise; shift its weight
	// onto measurable technical metrics.
	if report.Categories[domain.CategorySurvey].Available < 3 {
		cfg.Weights.TechnicalPerformance += 0.1
		cfg.Weights.Survey -= 0.1
	}

	if teamSize > 10 {
		cfg.Weights.DeveloperExperience += 0.05
		cfg.Weights.BusinessImpact -= 0.05
	}
	if teamSize > 0 && teamSize < 5 {
		cfg.Weights.TechnicalPerformance += 0.05
		cfg.Weights.DeveloperExperience -= 0.05
	}

	if teamSize > 0 && teamSize < 5 {
		cfg.MinimumRequirements[domain.MetricCodeReviewDuration] = 24
		cfg.MinimumRequirements[domain.MetricTestCoverage] = 60
	}
	if teamSize > 20 {
		cfg.MinimumRequirements[domain.MetricCodeReviewDuration] = 8
		cfg.MinimumRequirements[domain.MetricTestCoverage] = 85
	}

	return cfg
}

// CoverageQuality grades how complete a metrics bundle is
type CoverageQuality string

const (
	CoverageExcellent CoverageQuality = "excellent"
	CoverageGood      CoverageQuality = "good"
	CoverageFair      CoverageQuality = "fair"
	CoveragePoor      CoverageQuality = "poor"
)

// CategoryCoverage counts available vs. declared metrics in one category.
type CategoryCoverage struct {
	Available int `json:"available"`
	Total     int `json:"total"`
}

// CoverageReport summarizes how many declared metrics carry values.
type CoverageReport struct {
	TotalMetrics     int                                  `json:"total_metrics"`
	AvailableMetrics int                                  `json:"available_metrics"`
	Percentage       float64                              `json:"coverage_percentage"`
	Categories       map[domain.Category]CategoryCoverage `json:"category_breakdown"`
	Quality          CoverageQuality                      `json:"quality_assessment"`
}

// NewCoverageReport computes metric coverage for a bundle.
func NewCoverageReport(m domain.MetricsBundle) CoverageReport {
	categories := map[domain.Category]CategoryCoverage{
		domain.CategoryDeveloperExperience: {
			Available: domain.AvailableCount(m.DeveloperExperience.Records()),
			Total:     len(m.DeveloperExperience.Records()),
		},
		domain.CategoryTechnicalPerformance: {
			Available: domain.AvailableCount(m.TechnicalPerformance.Records()),
			Total:     len(m.TechnicalPerformance.Records()),
		},
		domain.CategoryBusinessImpact: {
			Available: domain.AvailableCount(m.BusinessImpact.Records()),
			Total:     len(m.BusinessImpact.Records()),
		},
		domain.CategorySurvey:     {Total: 5},
		domain.CategoryEnterprise: {Total: 5},
	}
	if m.Survey != nil {
		categories[domain.CategorySurvey] = CategoryCoverage{
			Available: domain.AvailableCount(m.Survey.Records()),
			Total:     len(m.Survey.Records()),
		}
	}
	if m.Enterprise != nil {
		categories[domain.CategoryEnterprise] = CategoryCoverage{
			Available: domain.AvailableCount(m.Enterprise.Records()),
			Total:     len(m.Enterprise.Records()),
		}
	}

	total := m.TotalMetrics()
	available := len(m.AvailableMetrics())
	percentage := 0.0
	if total > 0 {
		percentage = float64(available) / float64(total) * 100
	}

	hasMinimum := HasMinimumMetrics(m.AvailableMetrics())
	var quality CoverageQuality
	switch {
	case percentage >= 80 && hasMinimum:
		quality = CoverageExcellent
	case percentage >= 60 && hasMinimum:
		quality = CoverageGood
	case percentage >= 40 || hasMinimum:
		quality = CoverageFair
	default:
		quality = CoveragePoor
	}

	return CoverageReport{
		TotalMetrics:     total,
		AvailableMetrics: available,
		Percentage:       percentage,
		Categories:       categories,
		Quality:          quality,
	}
}
