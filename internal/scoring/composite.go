package scoring

import (
	"math"

	"github.com/kslabenko/repo-quality-metrics/internal/domain"
)

// Weights holds the relative category weights. They are applied as literal
// multipliers and are not renormalized, so project-type overrides may leave
// them summing to something other than 1.
type Weights struct {
	DeveloperExperience  float64 `json:"developerExperience"`
	TechnicalPerformance float64 `json:"technicalPerformance"`
	BusinessImpact       float64 `json:"businessImpact"`
	Survey               float64 `json:"surveyMetrics"`
	Enterprise           float64 `json:"enterpriseMetrics"`
}

// DefaultWeights returns the baseline category weights.
func DefaultWeights() Weights {
	return Weights{
		DeveloperExperience:  0.40,
		TechnicalPerformance: 0.35,
		BusinessImpact:       0.25,
		Survey:               0.20,
		Enterprise:           0.15,
	}
}

// CategoryScores carries the per-category inputs to the composite score.
// Survey and Enterprise are nil when those bundles were not collected;
// absent categories are excluded from the weighted sum, not scored as 0.
type CategoryScores struct {
	DeveloperExperience  int
	TechnicalPerformance int
	BusinessImpact       int
	Survey               *int
	Enterprise           *int
}

// Overall combines category scores into one weighted score, rounded to the
// nearest integer.
func Overall(scores CategoryScores, w Weights) int {
	total := float64(scores.DeveloperExperience)*w.DeveloperExperience +
		float64(scores.TechnicalPerformance)*w.TechnicalPerformance +
		float64(scores.BusinessImpact)*w.BusinessImpact

	if scores.Survey != nil {
		total += float64(*scores.Survey) * w.Survey
	}
	if scores.Enterprise != nil {
		total += float64(*scores.Enterprise) * w.Enterprise
	}

	return int(math.Round(total))
}

// ScoreBundle scores every category present in the bundle and combines them
// under the given weights, returning the breakdown and the overall score.
func ScoreBundle(m domain.MetricsBundle, w Weights) (domain.Breakdown, int) {
	scores := CategoryScores{
		DeveloperExperience:  ScoreDeveloperExperience(m.DeveloperExperience),
		TechnicalPerformance: ScoreTechnicalPerformance(m.TechnicalPerformance),
		BusinessImpact:       ScoreBusinessImpact(m.BusinessImpact),
	}

	breakdown := domain.Breakdown{
		DeveloperExperience: domain.CategoryScore{
			Score:            scores.DeveloperExperience,
			Weight:           w.DeveloperExperience,
			AvailableMetrics: domain.AvailableCount(m.DeveloperExperience.Records()),
			MetricsUsed:      availableNames(m.DeveloperExperience.Records(), domain.MetricOrderDeveloperExperience),
		},
		TechnicalPerformance: domain.CategoryScore{
			Score:            scores.TechnicalPerformance,
			Weight:           w.TechnicalPerformance,
			AvailableMetrics: domain.AvailableCount(m.TechnicalPerformance.Records()),
			MetricsUsed:      availableNames(m.TechnicalPerformance.Records(), domain.MetricOrderTechnicalPerformance),
		},
		BusinessImpact: domain.CategoryScore{
			Score:            scores.BusinessImpact,
			Weight:           w.BusinessImpact,
			AvailableMetrics: domain.AvailableCount(m.BusinessImpact.Records()),
			MetricsUsed:      availableNames(m.BusinessImpact.Records(), domain.MetricOrderBusinessImpact),
		},
	}

	if m.Survey != nil {
		s := ScoreSurvey(*m.Survey)
		scores.Survey = &s
		breakdown.Survey = &domain.CategoryScore{
			Score:            s,
			Weight:           w.Survey,
			AvailableMetrics: domain.AvailableCount(m.Survey.Records()),
		}
	}
	if m.Enterprise != nil {
		e := ScoreEnterprise(*m.Enterprise)
		scores.Enterprise = &e
		breakdown.Enterprise = &domain.CategoryScore{
			Score:            e,
			Weight:           w.Enterprise,
			AvailableMetrics: domain.AvailableCount(m.Enterprise.Records()),
		}
	}

	return breakdown, Overall(scores, w)
}

func availableNames(recs map[string]domain.MetricRecord, order []string) []string {
	var names []string
	for _, name := range order {
		if recs[name].HasValue() {
			names = append(names, name)
		}
	}
	return names
}
