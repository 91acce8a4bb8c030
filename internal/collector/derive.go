package collector

import (
	"strings"

	"github.com/kslabenko/repo-quality-metrics/internal/domain"
	"github.com/kslabenko/repo-quality-metrics/internal/scoring"
)

// Labels that mark an issue as a defect report.
var bugLabels = []string{"bug", "error", "defect", "issue"}

// Issue title/body keywords that point at type-system errors.
var typeErrorKeywords = []string{"type error", "typescript", "compile error", "tsc", "type check"}

func mergedPullRequests(prs []domain.PullRequest) []domain.PullRequest {
	out := make([]domain.PullRequest, 0, len(prs))
	for _, pr := range prs {
		if pr.MergedAt != nil {
			out = append(out, pr)
		}
	}
	return out
}

// reviewDurationHours returns the total and average hours between PR creation
// and merge across the merged set. Both are zero for an empty set.
func reviewDurationHours(merged []domain.PullRequest) (total, average float64) {
	hours := make([]float64, 0, len(merged))
	for _, pr := range merged {
		if pr.MergedAt == nil {
			continue
		}
		h := pr.MergedAt.Sub(pr.CreatedAt).Hours()
		hours = append(hours, h)
		total += h
	}
	return total, scoring.Average(hours)
}

func isBugIssue(issue domain.Issue) bool {
	for _, label := range bugLabels {
		if issue.HasLabel(label) {
			return true
		}
	}
	return false
}

// averageDebuggingHours averages open-to-close time over closed bug issues.
func averageDebuggingHours(issues []domain.Issue) float64 {
	var hours []float64
	for _, issue := range issues {
		if !isBugIssue(issue) || issue.ClosedAt == nil {
			continue
		}
		hours = append(hours, issue.ClosedAt.Sub(issue.CreatedAt).Hours())
	}
	return scoring.Average(hours)
}

// averageTimeToMarketDays averages creation-to-merge time in days.
func averageTimeToMarketDays(merged []domain.PullRequest) float64 {
	var days []float64
	for _, pr := range merged {
		if pr.MergedAt == nil {
			continue
		}
		days = append(days, pr.MergedAt.Sub(pr.CreatedAt).Hours()/24)
	}
	return scoring.Average(days)
}

func featureSuccessRate(merged, all int) float64 {
	if all == 0 {
		return 0
	}
	return float64(merged) / float64(all)
}

func activeContributors(merged []domain.PullRequest) int {
	authors := make(map[string]struct{}, len(merged))
	for _, pr := range merged {
		if pr.Author != "" {
			authors[pr.Author] = struct{}{}
		}
	}
	return len(authors)
}

func issueResolutionRate(issues []domain.Issue) float64 {
	if len(issues) == 0 {
		return 0
	}
	closed := 0
	for _, issue := range issues {
		if issue.ClosedAt != nil {
			closed++
		}
	}
	return float64(closed) / float64(len(issues))
}

// estimateBuildTimeSeconds guesses build time from repository size, capped at
// ten minutes.
func estimateBuildTimeSeconds(sizeKB int) float64 {
	estimate := float64(sizeKB) / 10
	if estimate > 600 {
		return 600
	}
	return estimate
}

// estimatePerformanceScore guesses a performance score from repository size,
// floored at 60.
func estimatePerformanceScore(sizeKB int) float64 {
	estimate := 100 - float64(sizeKB)/1000
	if estimate < 60 {
		return 60
	}
	return estimate
}

// estimateTypeErrorRate starts from a language baseline and adjusts by the
// share of issues mentioning type errors. The result stays in [0.05, 1.0].
func estimateTypeErrorRate(language string, issues []domain.Issue) float64 {
	base := 0.3
	if language == "TypeScript" {
		base = 0.15
	}

	typeIssues := 0
	for _, issue := range issues {
		title := strings.ToLower(issue.Title)
		body := strings.ToLower(issue.Body)
		for _, keyword := range typeErrorKeywords {
			if strings.Contains(title, keyword) || strings.Contains(body, keyword) {
				typeIssues++
				break
			}
		}
	}

	rate := base
	if len(issues) > 0 {
		rate += float64(typeIssues) / float64(len(issues)) * 0.3
	}
	if rate > 1.0 {
		return 1.0
	}
	if rate < 0.05 {
		return 0.05
	}
	return rate
}

// estimateCoveragePercent guesses coverage from popularity and language when
// neither codecov nor a README badge answered. The result stays in [30, 95].
func estimateCoveragePercent(stars int, language string) float64 {
	coverage := 60.0
	if stars > 10000 {
		coverage = 75
	}
	if stars > 50000 {
		coverage = 85
	}
	if language == "TypeScript" {
		coverage += 10
	}
	if coverage > 95 {
		return 95
	}
	if coverage < 30 {
		return 30
	}
	return coverage
}

// communityGrowthScore normalizes stars and adds a monthly-download bonus.
func communityGrowthScore(stars, monthlyDownloads int) float64 {
	return float64(stars)/1000 + float64(monthlyDownloads)/100000
}
