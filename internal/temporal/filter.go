// Package temporal reconstructs point-in-time repository state by filtering
// time-stamped events against an as-of date.
//
// The reconstruction works purely from current creation/close/merge
// timestamps, so it cannot recover since-reverted label changes or deleted
// items. That is an accepted approximation of historical state, not a defect.
package temporal

import (
	"time"

	"github.com/kslabenko/repo-quality-metrics/internal/domain"
)

// FilterPullRequests returns the pull requests that existed as of the given
// date. First matching rule wins: merged PRs by merge time, closed PRs by
// close time, open PRs by creation time. Order is preserved, so filtering is
// idempotent for a fixed as-of date.
func FilterPullRequests(prs []domain.PullRequest, asOf time.Time) []domain.PullRequest {
	out := make([]domain.PullRequest, 0, len(prs))
	for _, pr := range prs {
		switch {
		case pr.MergedAt != nil:
			if !pr.MergedAt.After(asOf) {
				out = append(out, pr)
			}
		case pr.ClosedAt != nil:
			if !pr.ClosedAt.After(asOf) {
				out = append(out, pr)
			}
		case pr.State == domain.PullRequestOpen:
			if !pr.CreatedAt.After(asOf) {
				out = append(out, pr)
			}
		}
	}
	return out
}

// FilterIssues returns the issues that existed as of the given date: closed
// issues by close time, open issues by creation time.
func FilterIssues(issues []domain.Issue, asOf time.Time) []domain.Issue {
	out := make([]domain.Issue, 0, len(issues))
	for _, issue := range issues {
		switch {
		case issue.ClosedAt != nil:
			if !issue.ClosedAt.After(asOf) {
				out = append(out, issue)
			}
		case issue.State == domain.IssueOpen:
			if !issue.CreatedAt.After(asOf) {
				out = append(out, issue)
			}
		}
	}
	return out
}
