package collector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kslabenko/repo-quality-metrics/internal/domain"
)

func ts(day, hour int) time.Time {
	return time.Date(2024, 6, day, hour, 0, 0, 0, time.UTC)
}

func tsPtr(day, hour int) *time.Time {
	t := ts(day, hour)
	return &t
}

func TestMergedPullRequests(t *testing.T) {
	prs := []domain.PullRequest{
		{Number: 1, MergedAt: tsPtr(1, 12)},
		{Number: 2},
		{Number: 3, MergedAt: tsPtr(2, 12)},
	}

	merged := mergedPullRequests(prs)
	assert.Len(t, merged, 2)
	assert.Equal(t, 1, merged[0].Number)
	assert.Equal(t, 3, merged[1].Number)
}

func TestReviewDurationHours(t *testing.T) {
	merged := []domain.PullRequest{
		{CreatedAt: ts(1, 12), MergedAt: tsPtr(1, 18)},
		{CreatedAt: ts(2, 0), MergedAt: tsPtr(2, 12)},
	}

	total, average := reviewDurationHours(merged)
	assert.Equal(t, 18.0, total)
	assert.Equal(t, 9.0, average)

	total, average = reviewDurationHours(nil)
	assert.Zero(t, total)
	assert.Zero(t, average)
}

func TestIsBugIssue(t *testing.T) {
	tests := []struct {
		name     string
		labels   []string
		expected bool
	}{
		{"bug label", []string{"bug"}, true},
		{"label containing defect", []string{"kind/defect"}, true},
		{"case insensitive", []string{"Known Error"}, true},
		{"feature label", []string{"enhancement"}, false},
		{"no labels", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := domain.Issue{Labels: tt.labels}
			assert.Equal(t, tt.expected, isBugIssue(issue))
		})
	}
}

func TestAverageDebuggingHours(t *testing.T) {
	// Open bugs and closed non-bugs are both excluded from the average.
	issues := []domain.Issue{
		{Labels: []string{"bug"}, CreatedAt: ts(1, 0), ClosedAt: tsPtr(1, 4)},
		{Labels: []string{"bug"}, CreatedAt: ts(2, 0), ClosedAt: tsPtr(2, 8)},
		{Labels: []string{"bug"}, CreatedAt: ts(3, 0)},
		{Labels: []string{"enhancement"}, CreatedAt: ts(1, 0), ClosedAt: tsPtr(4, 0)},
	}

	assert.Equal(t, 6.0, averageDebuggingHours(issues))
	assert.Zero(t, averageDebuggingHours(nil))
}

func TestAverageTimeToMarketDays(t *testing.T) {
	merged := []domain.PullRequest{
		{CreatedAt: ts(1, 0), MergedAt: tsPtr(2, 0)},
		{CreatedAt: ts(1, 0), MergedAt: tsPtr(4, 0)},
	}

	assert.Equal(t, 2.0, averageTimeToMarketDays(merged))
	assert.Zero(t, averageTimeToMarketDays(nil))
}

func TestFeatureSuccessRate(t *testing.T) {
	assert.Equal(t, 0.75, featureSuccessRate(3, 4))
	assert.Zero(t, featureSuccessRate(0, 0))
}

func TestActiveContributors(t *testing.T) {
	merged := []domain.PullRequest{
		{Author: "alice"},
		{Author: "bob"},
		{Author: "alice"},
		{Author: ""},
	}

	assert.Equal(t, 2, activeContributors(merged))
}

func TestIssueResolutionRate(t *testing.T) {
	issues := []domain.Issue{
		{ClosedAt: tsPtr(1, 0)},
		{ClosedAt: tsPtr(2, 0)},
		{},
		{},
	}

	assert.Equal(t, 0.5, issueResolutionRate(issues))
	assert.Zero(t, issueResolutionRate(nil))
}

func TestEstimateBuildTimeSeconds(t *testing.T) {
	assert.Equal(t, 200.0, estimateBuildTimeSeconds(2000))
	assert.Equal(t, 600.0, estimateBuildTimeSeconds(100000), "capped at ten minutes")
	assert.Zero(t, estimateBuildTimeSeconds(0))
}

func TestEstimatePerformanceScore(t *testing.T) {
	assert.Equal(t, 98.0, estimatePerformanceScore(2000))
	assert.Equal(t, 60.0, estimatePerformanceScore(500000), "floored at 60")
}

func TestEstimateTypeErrorRate(t *testing.T) {
	tests := []struct {
		name     string
		language string
		issues   []domain.Issue
		expected float64
	}{
		{"baseline with no issues", "Go", nil, 0.3},
		{"typescript baseline is lower", "TypeScript", nil, 0.15},
		{
			name:     "type issues raise the rate",
			language: "Go",
			issues: []domain.Issue{
				{Title: "Type error in parser"},
				{Body: "running tsc fails"},
				{Title: "unrelated crash"},
				{Title: "another report"},
			},
			expected: 0.45,
		},
		{
			name:     "every issue matching",
			language: "Go",
			issues: []domain.Issue{
				{Title: "type error"},
			},
			expected: 0.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, estimateTypeErrorRate(tt.language, tt.issues), 1e-9)
		})
	}
}

func TestEstimateCoveragePercent(t *testing.T) {
	tests := []struct {
		name     string
		stars    int
		language string
		expected float64
	}{
		{"small project", 500, "Go", 60},
		{"popular project", 20000, "Go", 75},
		{"very popular project", 80000, "Go", 85},
		{"typescript bonus", 500, "TypeScript", 70},
		{"bonus clamped at 95", 80000, "TypeScript", 95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, estimateCoveragePercent(tt.stars, tt.language))
		})
	}
}

func TestCommunityGrowthScore(t *testing.T) {
	assert.InDelta(t, 0.5, communityGrowthScore(500, 0), 1e-9)
	assert.InDelta(t, 3.5, communityGrowthScore(1000, 250000), 1e-9)
}
