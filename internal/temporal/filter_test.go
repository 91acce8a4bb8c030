package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kslabenko/repo-quality-metrics/internal/domain"
)

func date(day int) time.Time {
	return time.Date(2024, 6, day, 12, 0, 0, 0, time.UTC)
}

func datePtr(day int) *time.Time {
	t := date(day)
	return &t
}

func TestFilterPullRequests(t *testing.T) {
	prs := []domain.PullRequest{
		{Number: 1, State: domain.PullRequestMerged, CreatedAt: date(1), MergedAt: datePtr(5)},
		{Number: 2, State: domain.PullRequestClosed, CreatedAt: date(2), ClosedAt: datePtr(10)},
		{Number: 3, State: domain.PullRequestOpen, CreatedAt: date(8)},
		{Number: 4, State: domain.PullRequestMerged, CreatedAt: date(12), MergedAt: datePtr(20)},
	}

	tests := []struct {
		name     string
		asOf     time.Time
		expected []int
	}{
		{"before anything existed", date(1).Add(-time.Hour), nil},
		{"merge time decides for merged PRs", date(6), []int{1}},
		{"open PRs count from creation", date(9), []int{1, 3}},
		{"close time decides for closed PRs", date(11), []int{1, 2, 3}},
		{"everything eventually included", date(25), []int{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterPullRequests(prs, tt.asOf)
			var numbers []int
			for _, pr := range got {
				numbers = append(numbers, pr.Number)
			}
			assert.Equal(t, tt.expected, numbers)
		})
	}
}

func TestFilterPullRequestsBoundaryInclusive(t *testing.T) {
	prs := []domain.PullRequest{
		{Number: 1, State: domain.PullRequestMerged, CreatedAt: date(1), MergedAt: datePtr(5)},
	}

	assert.Len(t, FilterPullRequests(prs, date(5)), 1)
	assert.Empty(t, FilterPullRequests(prs, date(5).Add(-time.Nanosecond)))
}

func TestFilterPullRequestsIdempotent(t *testing.T) {
	prs := []domain.PullRequest{
		{Number: 1, State: domain.PullRequestMerged, CreatedAt: date(1), MergedAt: datePtr(3)},
		{Number: 2, State: domain.PullRequestOpen, CreatedAt: date(2)},
		{Number: 3, State: domain.PullRequestClosed, CreatedAt: date(1), ClosedAt: datePtr(9)},
	}

	once := FilterPullRequests(prs, date(4))
	twice := FilterPullRequests(once, date(4))
	assert.Equal(t, once, twice)
}

func TestFilterIssues(t *testing.T) {
	issues := []domain.Issue{
		{Number: 1, State: domain.IssueClosed, CreatedAt: date(1), ClosedAt: datePtr(4)},
		{Number: 2, State: domain.IssueOpen, CreatedAt: date(6)},
		{Number: 3, State: domain.IssueClosed, CreatedAt: date(2), ClosedAt: datePtr(15)},
	}

	tests := []struct {
		name     string
		asOf     time.Time
		expected []int
	}{
		{"closed issues count from close time", date(5), []int{1}},
		{"open issues count from creation", date(7), []int{1, 2}},
		{"late close excluded until reached", date(14), []int{1, 2}},
		{"all included at the end", date(16), []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterIssues(issues, tt.asOf)
			var numbers []int
			for _, issue := range got {
				numbers = append(numbers, issue.Number)
			}
			assert.Equal(t, tt.expected, numbers)
		})
	}
}

func TestFilterIssuesBoundaryInclusive(t *testing.T) {
	issues := []domain.Issue{
		{Number: 1, State: domain.IssueClosed, CreatedAt: date(1), ClosedAt: datePtr(8)},
	}

	assert.Len(t, FilterIssues(issues, date(8)), 1)
	assert.Empty(t, FilterIssues(issues, date(8).Add(-time.Nanosecond)))
}
