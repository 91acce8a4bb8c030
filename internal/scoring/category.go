// Package scoring converts partially-missing metric bundles into normalized
// category scores, an overall weighted score and a confidence level.
package scoring

import (
	"github.com/kslabenko/repo-quality-metrics/internal/domain"
)

// Each category score starts from this baseline and moves by fixed band
// adjustments per signal metric. Missing signal metrics contribute nothing.
const baselineScore = 50

// ScoreDeveloperExperience scores the developer-experience bundle.
// An entirely-absent bundle scores exactly 0.
func ScoreDeveloperExperience(dx domain.DeveloperExperience) int {
	if domain.AvailableCount(dx.Records()) == 0 {
		return 0
	}

	score := baselineScore

	// Code review duration in hours, lower is better
	if v, ok := dx.CodeReviewDuration.Float(); ok {
		switch {
		case v <= 8:
			score += 20
		case v <= 24:
			score += 10
		default:
			score -= 10
		}
	}

	// Debugging time in hours, lower is better
	if v, ok := dx.DebuggingTime.Float(); ok {
		switch {
		case v <= 4:
			score += 15
		case v <= 12:
			score += 5
		default:
			score -= 5
		}
	}

	// Successful deployment ratio, higher is better
	if v, ok := dx.DeploymentsRatio.Float(); ok {
		switch {
		case v >= 0.9:
			score += 15
		case v >= 0.8:
			score += 10
		default:
			score -= 5
		}
	}

	// Comments per PR has a sweet spot: too few means no review, too many
	// means churn
	if v, ok := dx.AverageCommentsPerPR.Float(); ok {
		switch {
		case v >= 2 && v <= 8:
			score += 10
		case v > 8:
			score -= 5
		}
	}

	return clampScore(score)
}

// ScoreTechnicalPerformance scores the technical-performance bundle.
func ScoreTechnicalPerformance(tp domain.TechnicalPerformance) int {
	if domain.AvailableCount(tp.Records()) == 0 {
		return 0
	}

	score := baselineScore

	// Test coverage percentage, higher is better
	if v, ok := tp.TestCoverage.Float(); ok {
		switch {
		case v >= 80:
			score += 20
		case v >= 60:
			score += 10
		default:
			score -= 10
		}
	}

	// Build time in seconds, lower is better
	if v, ok := tp.BuildTime.Float(); ok {
		switch {
		case v <= 120:
			score += 15
		case v <= 300:
			score += 5
		default:
			score -= 5
		}
	}

	// Lighthouse-style performance score, higher is better
	if v, ok := tp.PerformanceScore.Float(); ok {
		switch {
		case v >= 80:
			score += 15
		case v >= 60:
			score += 5
		default:
			score -= 5
		}
	}

	// Type errors per 1000 lines, lower is better
	if v, ok := tp.TypeScriptErrorRate.Float(); ok {
		switch {
		case v <= 0.5:
			score += 10
		case v <= 2:
			score += 5
		default:
			score -= 5
		}
	}

	return clampScore(score)
}

// ScoreBusinessImpact scores the business-impact bundle.
func ScoreBusinessImpact(bi domain.BusinessImpact) int {
	if domain.AvailableCount(bi.Records()) == 0 {
		return 0
	}

	score := baselineScore

	// Time to market in days, lower is better
	if v, ok := bi.TimeToMarket.Float(); ok {
		switch {
		case v <= 2:
			score += 20
		case v <= 5:
			score += 10
		default:
			score -= 5
		}
	}

	// Feature success rate, higher is better
	if v, ok := bi.FeatureSuccessRate.Float(); ok {
		switch {
		case v >= 0.8:
			score += 15
		case v >= 0.6:
			score += 5
		default:
			score -= 5
		}
	}

	// Issue resolution rate, higher is better
	if v, ok := bi.IssueResolutionRate.Float(); ok {
		switch {
		case v >= 0.7:
			score += 15
		case v >= 0.5:
			score += 5
		default:
			score -= 5
		}
	}

	// Active contributors, more is better
	if v, ok := bi.ActiveContributors.Float(); ok {
		switch {
		case v >= 10:
			score += 10
		case v >= 5:
			score += 5
		}
	}

	return clampScore(score)
}

// ScoreSurvey scores the optional survey bundle. Satisfaction, confidence
// and documentation quality are 1-10 scales; onboarding difficulty is
// inverted (10 = hardest); comprehension time is hours per week.
func ScoreSurvey(s domain.SurveyMetrics) int {
	if domain.AvailableCount(s.Records()) == 0 {
		return 0
	}

	score := baselineScore

	if v, ok := s.DeveloperSatisfactionScore.Float(); ok {
		switch {
		case v >= 8:
			score += 20
		case v >= 6:
			score += 10
		default:
			score -= 10
		}
	}

	if v, ok := s.CodebaseConfidence.Float(); ok {
		switch {
		case v >= 8:
			score += 15
		case v >= 6:
			score += 5
		default:
			score -= 5
		}
	}

	if v, ok := s.OnboardingDifficulty.Float(); ok {
		switch {
		case v <= 3:
			score += 15
		case v <= 6:
			score += 5
		default:
			score -= 5
		}
	}

	if v, ok := s.DocumentationQuality.Float(); ok {
		switch {
		case v >= 7:
			score += 10
		case v >= 5:
			score += 5
		default:
			score -= 5
		}
	}

	return clampScore(score)
}

// ScoreEnterprise scores the optional enterprise bundle. Uptime is a
// percentage; turnover a yearly percentage; production error rate is errors
// per 1000 users; user satisfaction is NPS (-100..100).
func ScoreEnterprise(e domain.EnterpriseMetrics) int {
	if domain.AvailableCount(e.Records()) == 0 {
		return 0
	}

	score := baselineScore

	if v, ok := e.Uptime.Float(); ok {
		switch {
		case v >= 99.9:
			score += 20
		case v >= 99:
			score += 10
		default:
			score -= 10
		}
	}

	if v, ok := e.ProductionErrorRate.Float(); ok {
		switch {
		case v <= 1:
			score += 15
		case v <= 5:
			score += 5
		default:
			score -= 5
		}
	}

	if v, ok := e.VoluntaryTurnover.Float(); ok {
		switch {
		case v <= 5:
			score += 10
		case v <= 15:
			score += 5
		default:
			score -= 5
		}
	}

	if v, ok := e.UserSatisfactionScore.Float(); ok {
		switch {
		case v >= 50:
			score += 15
		case v >= 0:
			score += 5
		default:
			score -= 5
		}
	}

	return clampScore(score)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
