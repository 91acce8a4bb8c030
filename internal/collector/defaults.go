package collector

import (
	"github.com/kslabenko/repo-quality-metrics/internal/domain"
)

// Fallback values used when a live collection fails or when running in mock
// mode. They describe a plausible mid-sized, reasonably healthy project.
var (
	defaultDeveloperExperience = map[string]float64{
		domain.MetricCodeReviewDuration:   12.5,
		domain.MetricDebuggingTime:        8.2,
		domain.MetricDeploymentsRatio:     0.94,
		domain.MetricTimeToFirstCommit:    2.5,
		domain.MetricLinesChangedPerHour:  25.8,
		domain.MetricAverageCommentsPerPR: 4.2,
		domain.MetricPRIterationRate:      0.35,
	}
	defaultTechnicalPerformance = map[string]float64{
		domain.MetricBuildTime:           180,
		domain.MetricBundleSize:          512000,
		domain.MetricBundleLoadTime:      850,
		domain.MetricPerformanceScore:    85,
		domain.MetricTypeScriptErrorRate: 0.5,
		domain.MetricTestCoverage:        78.5,
	}
	defaultBusinessImpact = map[string]float64{
		domain.MetricTimeToMarket:        3.2,
		domain.MetricFeatureSuccessRate:  0.87,
		domain.MetricActiveContributors:  15,
		domain.MetricIssueResolutionRate: 0.72,
		domain.MetricCommunityGrowth:     0.15,
	}
)

func metricUnit(name string) string {
	switch name {
	case domain.MetricCodeReviewDuration, domain.MetricDebuggingTime,
		domain.MetricTimeToFirstCommit, domain.MetricCodeComprehensionTime:
		return "hours"
	case domain.MetricTimeToMarket:
		return "days"
	case domain.MetricBuildTime:
		return "seconds"
	case domain.MetricBundleSize:
		return "bytes"
	case domain.MetricBundleLoadTime:
		return "ms"
	case domain.MetricLinesChangedPerHour:
		return "lines/hour"
	case domain.MetricAverageCommentsPerPR:
		return "comments"
	case domain.MetricActiveContributors:
		return "contributors"
	case domain.MetricTestCoverage, domain.MetricUptime,
		domain.MetricVoluntaryTurnover, domain.MetricProductionErrorRate:
		return "percent"
	case domain.MetricDeploymentsRatio, domain.MetricPRIterationRate,
		domain.MetricTypeScriptErrorRate, domain.MetricFeatureSuccessRate,
		domain.MetricIssueResolutionRate:
		return "ratio"
	default:
		return "score"
	}
}

func mockMetric(name string) domain.MetricRecord {
	for _, defaults := range []map[string]float64{
		defaultDeveloperExperience, defaultTechnicalPerformance, defaultBusinessImpact,
	} {
		if v, ok := defaults[name]; ok {
			return domain.NewMetric(name, v, metricUnit(name), domain.ProvenanceMock)
		}
	}
	return domain.UnavailableMetric(name, metricUnit(name))
}

// DefaultDeveloperExperience builds the mock developer experience bundle.
func DefaultDeveloperExperience() domain.DeveloperExperience {
	return domain.DeveloperExperience{
		CodeReviewDuration:   mockMetric(domain.MetricCodeReviewDuration),
		DebuggingTime:        mockMetric(domain.MetricDebuggingTime),
		DeploymentsRatio:     mockMetric(domain.MetricDeploymentsRatio),
		TimeToFirstCommit:    mockMetric(domain.MetricTimeToFirstCommit),
		LinesChangedPerHour:  mockMetric(domain.MetricLinesChangedPerHour),
		AverageCommentsPerPR: mockMetric(domain.MetricAverageCommentsPerPR),
		PRIterationRate:      mockMetric(domain.MetricPRIterationRate),
	}
}

// DefaultTechnicalPerformance builds the mock technical performance bundle.
func DefaultTechnicalPerformance() domain.TechnicalPerformance {
	return domain.TechnicalPerformance{
		BuildTime:           mockMetric(domain.MetricBuildTime),
		BundleSize:          mockMetric(domain.MetricBundleSize),
		BundleLoadTime:      mockMetric(domain.MetricBundleLoadTime),
		PerformanceScore:    mockMetric(domain.MetricPerformanceScore),
		TypeScriptErrorRate: mockMetric(domain.MetricTypeScriptErrorRate),
		TestCoverage:        mockMetric(domain.MetricTestCoverage),
	}
}

// DefaultBusinessImpact builds the mock business impact bundle.
func DefaultBusinessImpact() domain.BusinessImpact {
	return domain.BusinessImpact{
		TimeToMarket:        mockMetric(domain.MetricTimeToMarket),
		FeatureSuccessRate:  mockMetric(domain.MetricFeatureSuccessRate),
		ActiveContributors:  mockMetric(domain.MetricActiveContributors),
		IssueResolutionRate: mockMetric(domain.MetricIssueResolutionRate),
		CommunityGrowth:     mockMetric(domain.MetricCommunityGrowth),
	}
}

// DefaultBundle builds a fully mocked bundle for all three core categories.
func DefaultBundle() domain.MetricsBundle {
	return domain.MetricsBundle{
		DeveloperExperience:  DefaultDeveloperExperience(),
		TechnicalPerformance: DefaultTechnicalPerformance(),
		BusinessImpact:       DefaultBusinessImpact(),
	}
}
