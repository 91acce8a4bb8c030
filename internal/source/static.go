package source

import (
	"context"

	"github.com/kslabenko/repo-quality-metrics/internal/domain"
)

// StaticSource is a DataSource backed by in-memory fixtures. It serves mock
// collection runs and tests. Zero-value fields return empty results; Fail
// makes every operation return an error.
type StaticSource struct {
	Repo          *domain.Repository
	PRs           []domain.PullRequest
	IssueList     []domain.Issue
	CommentCounts map[int]int
	Fail          error
}

var _ DataSource = (*StaticSource)(nil)

func (s *StaticSource) Repository(ctx context.Context) (*domain.Repository, error) {
	if s.Fail != nil {
		return nil, sourceErr("repository", "static source failure", s.Fail)
	}
	if s.Repo == nil {
		return nil, sourceErr("repository", "no repository fixture", nil)
	}
	repo := *s.Repo
	return &repo, nil
}

func (s *StaticSource) PullRequests(ctx context.Context, state string, perPage int) ([]domain.PullRequest, error) {
	if s.Fail != nil {
		return nil, sourceErr("pull_requests", "static source failure", s.Fail)
	}
	out := make([]domain.PullRequest, 0, len(s.PRs))
	for _, pr := range s.PRs {
		if state != "all" && state != "" && string(pr.State) != state {
			if !(state == "closed" && pr.State == domain.PullRequestMerged) {
				continue
			}
		}
		out = append(out, pr)
		if perPage > 0 && len(out) == perPage {
			break
		}
	}
	return out, nil
}

func (s *StaticSource) Issues(ctx context.Context, state string, perPage int) ([]domain.Issue, error) {
	if s.Fail != nil {
		return nil, sourceErr("issues", "static source failure", s.Fail)
	}
	out := make([]domain.Issue, 0, len(s.IssueList))
	for _, issue := range s.IssueList {
		if state != "all" && state != "" && string(issue.State) != state {
			continue
		}
		out = append(out, issue)
		if perPage > 0 && len(out) == perPage {
			break
		}
	}
	return out, nil
}

func (s *StaticSource) PullRequestDetail(ctx context.Context, number int) (*domain.PullRequest, error) {
	if s.Fail != nil {
		return nil, sourceErr("pull_request_detail", "static source failure", s.Fail)
	}
	for _, pr := range s.PRs {
		if pr.Number == number {
			found := pr
			return &found, nil
		}
	}
	return nil, sourceErr("pull_request_detail", "pull request not found", nil)
}

func (s *StaticSource) PullRequestCommentCount(ctx context.Context, number int) (int, error) {
	if s.Fail != nil {
		return 0, sourceErr("pull_request_comments", "static source failure", s.Fail)
	}
	if count, ok := s.CommentCounts[number]; ok {
		return count, nil
	}
	for _, pr := range s.PRs {
		if pr.Number == number {
			return pr.Comments, nil
		}
	}
	return 0, nil
}
