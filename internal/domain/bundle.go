package domain

// Category identifies one scoring category
type Category string

const (
	CategoryDeveloperExperience  Category = "developer_experience"
	CategoryTechnicalPerformance Category = "technical_performance"
	CategoryBusinessImpact       Category = "business_impact"
	CategorySurvey               Category = "survey"
	CategoryEnterprise           Category = "enterprise"
)

// Metric names, one constant per declared metric in each category bundle.
const (
	MetricCodeReviewDuration     = "codeReviewDuration"
	MetricDebuggingTime          = "debuggingTime"
	MetricDeploymentsRatio       = "successfulDeploymentsRatio"
	MetricTimeToFirstCommit      = "timeToFirstCommit"
	MetricLinesChangedPerHour    = "linesChangedPerHour"
	MetricAverageCommentsPerPR   = "averageCommentsPerPR"
	MetricPRIterationRate        = "prIterationRate"
	MetricBuildTime              = "buildTime"
	MetricBundleSize             = "bundleSize"
	MetricBundleLoadTime         = "bundleLoadTime"
	MetricPerformanceScore       = "performanceScore"
	MetricTypeScriptErrorRate    = "typeScriptErrorRate"
	MetricTestCoverage           = "testCoverage"
	MetricTimeToMarket           = "timeToMarket"
	MetricFeatureSuccessRate     = "featureSuccessRate"
	MetricActiveContributors     = "activeContributors"
	MetricIssueResolutionRate    = "issueResolutionRate"
	MetricCommunityGrowth        = "communityGrowth"
	MetricDevSatisfaction        = "developerSatisfactionScore"
	MetricCodebaseConfidence     = "codebaseConfidence"
	MetricOnboardingDifficulty   = "onboardingDifficulty"
	MetricCodeComprehensionTime  = "codeComprehensionTime"
	MetricDocumentationQuality   = "documentationQuality"
	MetricVoluntaryTurnover      = "voluntaryTurnover"
	MetricProductionErrorRate    = "productionErrorRate"
	MetricUptime                 = "uptime"
	MetricUserSatisfactionScore  = "userSatisfactionScore"
	MetricMaintenanceCost        = "maintenanceCost"
)

// DeveloperExperience holds the seven developer-experience metrics.
type DeveloperExperience struct {
	CodeReviewDuration   MetricRecord `json:"codeReviewDuration"`
	DebuggingTime        MetricRecord `json:"debuggingTime"`
	DeploymentsRatio     MetricRecord `json:"successfulDeploymentsRatio"`
	TimeToFirstCommit    MetricRecord `json:"timeToFirstCommit"`
	LinesChangedPerHour  MetricRecord `json:"linesChangedPerHour"`
	AverageCommentsPerPR MetricRecord `json:"averageCommentsPerPR"`
	PRIterationRate      MetricRecord `json:"prIterationRate"`
}

// Records returns the bundle as a name-keyed map. Every declared metric name
// is present; the record value may still be absent.
func (d DeveloperExperience) Records() map[string]MetricRecord {
	return map[string]MetricRecord{
		MetricCodeReviewDuration:   d.CodeReviewDuration,
		MetricDebuggingTime:        d.DebuggingTime,
		MetricDeploymentsRatio:     d.DeploymentsRatio,
		MetricTimeToFirstCommit:    d.TimeToFirstCommit,
		MetricLinesChangedPerHour:  d.LinesChangedPerHour,
		MetricAverageCommentsPerPR: d.AverageCommentsPerPR,
		MetricPRIterationRate:      d.PRIterationRate,
	}
}

// Merge overlays another bundle on top of this one; overlay values win,
// absent overlay records keep the base record.
func (d DeveloperExperience) Merge(overlay DeveloperExperience) DeveloperExperience {
	return DeveloperExperience{
		CodeReviewDuration:   pick(d.CodeReviewDuration, overlay.CodeReviewDuration),
		DebuggingTime:        pick(d.DebuggingTime, overlay.DebuggingTime),
		DeploymentsRatio:     pick(d.DeploymentsRatio, overlay.DeploymentsRatio),
		TimeToFirstCommit:    pick(d.TimeToFirstCommit, overlay.TimeToFirstCommit),
		LinesChangedPerHour:  pick(d.LinesChangedPerHour, overlay.LinesChangedPerHour),
		AverageCommentsPerPR: pick(d.AverageCommentsPerPR, overlay.AverageCommentsPerPR),
		PRIterationRate:      pick(d.PRIterationRate, overlay.PRIterationRate),
	}
}

// TechnicalPerformance holds the six technical-performance metrics.
type TechnicalPerformance struct {
	BuildTime           MetricRecord `json:"buildTime"`
	BundleSize          MetricRecord `json:"bundleSize"`
	BundleLoadTime      MetricRecord `json:"bundleLoadTime"`
	PerformanceScore    MetricRecord `json:"performanceScore"`
	TypeScriptErrorRate MetricRecord `json:"typeScriptErrorRate"`
	TestCoverage        MetricRecord `json:"testCoverage"`
}

func (t TechnicalPerformance) Records() map[string]MetricRecord {
	return map[string]MetricRecord{
		MetricBuildTime:           t.BuildTime,
		MetricBundleSize:          t.BundleSize,
		MetricBundleLoadTime:      t.BundleLoadTime,
		MetricPerformanceScore:    t.PerformanceScore,
		MetricTypeScriptErrorRate: t.TypeScriptErrorRate,
		MetricTestCoverage:        t.TestCoverage,
	}
}

func (t TechnicalPerformance) Merge(overlay TechnicalPerformance) TechnicalPerformance {
	return TechnicalPerformance{
		BuildTime:           pick(t.BuildTime, overlay.BuildTime),
		BundleSize:          pick(t.BundleSize, overlay.BundleSize),
		BundleLoadTime:      pick(t.BundleLoadTime, overlay.BundleLoadTime),
		PerformanceScore:    pick(t.PerformanceScore, overlay.PerformanceScore),
		TypeScriptErrorRate: pick(t.TypeScriptErrorRate, overlay.TypeScriptErrorRate),
		TestCoverage:        pick(t.TestCoverage, overlay.TestCoverage),
	}
}

// BusinessImpact holds the five business-impact metrics.
type BusinessImpact struct {
	TimeToMarket        MetricRecord `json:"timeToMarket"`
	FeatureSuccessRate  MetricRecord `json:"featureSuccessRate"`
	ActiveContributors  MetricRecord `json:"activeContributors"`
	IssueResolutionRate MetricRecord `json:"issueResolutionRate"`
	CommunityGrowth     MetricRecord `json:"communityGrowth"`
}

func (b BusinessImpact) Records() map[string]MetricRecord {
	return map[string]MetricRecord{
		MetricTimeToMarket:        b.TimeToMarket,
		MetricFeatureSuccessRate:  b.FeatureSuccessRate,
		MetricActiveContributors:  b.ActiveContributors,
		MetricIssueResolutionRate: b.IssueResolutionRate,
		MetricCommunityGrowth:     b.CommunityGrowth,
	}
}

func (b BusinessImpact) Merge(overlay BusinessImpact) BusinessImpact {
	return BusinessImpact{
		TimeToMarket:        pick(b.TimeToMarket, overlay.TimeToMarket),
		FeatureSuccessRate:  pick(b.FeatureSuccessRate, overlay.FeatureSuccessRate),
		ActiveContributors:  pick(b.ActiveContributors, overlay.ActiveContributors),
		IssueResolutionRate: pick(b.IssueResolutionRate, overlay.IssueResolutionRate),
		CommunityGrowth:     pick(b.CommunityGrowth, overlay.CommunityGrowth),
	}
}

// SurveyMetrics holds the optional survey-based metrics. The bundle is only
// attached to a result when a survey was actually run.
type SurveyMetrics struct {
	DeveloperSatisfactionScore MetricRecord `json:"developerSatisfactionScore"`
	CodebaseConfidence         MetricRecord `json:"codebaseConfidence"`
	OnboardingDifficulty       MetricRecord `json:"onboardingDifficulty"`
	CodeComprehensionTime      MetricRecord `json:"codeComprehensionTime"`
	DocumentationQuality       MetricRecord `json:"documentationQuality"`
}

func (s SurveyMetrics) Records() map[string]MetricRecord {
	return map[string]MetricRecord{
		MetricDevSatisfaction:       s.DeveloperSatisfactionScore,
		MetricCodebaseConfidence:    s.CodebaseConfidence,
		MetricOnboardingDifficulty:  s.OnboardingDifficulty,
		MetricCodeComprehensionTime: s.CodeComprehensionTime,
		MetricDocumentationQuality:  s.DocumentationQuality,
	}
}

// EnterpriseMetrics holds the optional enterprise-only metrics.
type EnterpriseMetrics struct {
	VoluntaryTurnover     MetricRecord `json:"voluntaryTurnover"`
	ProductionErrorRate   MetricRecord `json:"productionErrorRate"`
	Uptime                MetricRecord `json:"uptime"`
	UserSatisfactionScore MetricRecord `json:"userSatisfactionScore"`
	MaintenanceCost       MetricRecord `json:"maintenanceCost"`
}

func (e EnterpriseMetrics) Records() map[string]MetricRecord {
	return map[string]MetricRecord{
		MetricVoluntaryTurnover:     e.VoluntaryTurnover,
		MetricProductionErrorRate:   e.ProductionErrorRate,
		MetricUptime:                e.Uptime,
		MetricUserSatisfactionScore: e.UserSatisfactionScore,
		MetricMaintenanceCost:       e.MaintenanceCost,
	}
}

// MetricsBundle groups the three always-present categories plus the two
// optional ones for one repository at one point in time.
type MetricsBundle struct {
	DeveloperExperience  DeveloperExperience  `json:"developerExperience"`
	TechnicalPerformance TechnicalPerformance `json:"technicalPerformance"`
	BusinessImpact       BusinessImpact       `json:"businessImpact"`
	Survey               *SurveyMetrics       `json:"survey,omitempty"`
	Enterprise           *EnterpriseMetrics   `json:"enterprise,omitempty"`
}

// AvailableMetrics lists the names of all metrics that carry a value.
func (m MetricsBundle) AvailableMetrics() []string {
	var names []string
	for _, recs := range []map[string]MetricRecord{
		m.DeveloperExperience.Records(),
		m.TechnicalPerformance.Records(),
		m.BusinessImpact.Records(),
	} {
		for name, rec := range recs {
			if rec.HasValue() {
				names = append(names, name)
			}
		}
	}
	if m.Survey != nil {
		for name, rec := range m.Survey.Records() {
			if rec.HasValue() {
				names = append(names, name)
			}
		}
	}
	if m.Enterprise != nil {
		for name, rec := range m.Enterprise.Records() {
			if rec.HasValue() {
				names = append(names, name)
			}
		}
	}
	return names
}

// TotalMetrics returns the number of declared metrics in the bundle.
func (m MetricsBundle) TotalMetrics() int {
	total := len(m.DeveloperExperience.Records()) +
		len(m.TechnicalPerformance.Records()) +
		len(m.BusinessImpact.Records())
	if m.Survey != nil {
		total += len(m.Survey.Records())
	}
	if m.Enterprise != nil {
		total += len(m.Enterprise.Records())
	}
	return total
}

func pick(base, overlay MetricRecord) MetricRecord {
	if overlay.HasValue() {
		return overlay
	}
	return base
}

func countAvailable(recs map[string]MetricRecord) int {
	n := 0
	for _, rec := range recs {
		if rec.HasValue() {
			n++
		}
	}
	return n
}

// AvailableCount reports how many metrics in the given record map carry values.
func AvailableCount(recs map[string]MetricRecord) int {
	return countAvailable(recs)
}
