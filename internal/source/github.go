package source

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"

	"github.com/kslabenko/repo-quality-metrics/internal/domain"
)

// githubSource implements DataSource using the GitHub API
type githubSource struct {
	client      *github.Client
	owner       string
	repo        string
	rateLimiter RateLimiter
	probes      *Probes
}

// NewGitHubSource creates a data source for one repository. An empty token
// falls back to unauthenticated access with its much smaller quota.
func NewGitHubSource(token, owner, repo string) DataSource {
	var client *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		client = github.NewClient(nil)
	}

	return &githubSource{
		client:      client,
		owner:       owner,
		repo:        repo,
		rateLimiter: NewRateLimiter(),
		probes:      NewProbes(),
	}
}

// Repository retrieves the repository metadata record.
func (s *githubSource) Repository(ctx context.Context) (*domain.Repository, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, sourceErr("repository", "rate limiter interrupted", err)
	}

	repo, resp, err := s.client.Repositories.Get(ctx, s.owner, s.repo)
	if err != nil {
		return nil, sourceErr("repository", "failed to get repository "+s.owner+"/"+s.repo, err)
	}
	s.updateRateLimitFromResponse(resp)

	return &domain.Repository{
		Owner:         s.owner,
		Name:          repo.GetName(),
		FullName:      repo.GetFullName(),
		Description:   repo.GetDescription(),
		Language:      repo.GetLanguage(),
		Stars:         repo.GetStargazersCount(),
		Forks:         repo.GetForksCount(),
		Watchers:      repo.GetWatchersCount(),
		SizeKB:        repo.GetSize(),
		OpenIssues:    repo.GetOpenIssuesCount(),
		DefaultBranch: repo.GetDefaultBranch(),
		CreatedAt:     repo.GetCreatedAt().Time,
		UpdatedAt:     repo.GetUpdatedAt().Time,
		PushedAt:      repo.GetPushedAt().Time,
		Topics:        repo.Topics,
	}, nil
}

// PullRequests retrieves pull requests, most recently updated first.
func (s *githubSource) PullRequests(ctx context.Context, state string, perPage int) ([]domain.PullRequest, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, sourceErr("pull_requests", "rate limiter interrupted", err)
	}

	opts := &github.PullRequestListOptions{
		State:       state,
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	prs, resp, err := s.client.PullRequests.List(ctx, s.owner, s.repo, opts)
	if err != nil {
		return nil, sourceErr("pull_requests", "failed to list pull requests for "+s.owner+"/"+s.repo, err)
	}
	s.updateRateLimitFromResponse(resp)

	out := make([]domain.PullRequest, 0, len(prs))
	for _, pr := range prs {
		out = append(out, convertPullRequest(pr))
	}
	return out, nil
}

// Issues retrieves issues, excluding those that are actually pull requests.
func (s *githubSource) Issues(ctx context.Context, state string, perPage int) ([]domain.Issue, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, sourceErr("issues", "rate limiter interrupted", err)
	}

	opts := &github.IssueListByRepoOptions{
		State:       state,
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	issues, resp, err := s.client.Issues.ListByRepo(ctx, s.owner, s.repo, opts)
	if err != nil {
		return nil, sourceErr("issues", "failed to list issues for "+s.owner+"/"+s.repo, err)
	}
	s.updateRateLimitFromResponse(resp)

	out := make([]domain.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		out = append(out, convertIssue(issue))
	}
	return out, nil
}

// PullRequestDetail retrieves one pull request with commit and line counts.
func (s *githubSource) PullRequestDetail(ctx context.Context, number int) (*domain.PullRequest, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, sourceErr("pull_request_detail", "rate limiter interrupted", err)
	}

	pr, resp, err := s.client.PullRequests.Get(ctx, s.owner, s.repo, number)
	if err != nil {
		return nil, sourceErr("pull_request_detail", "failed to get pull request detail", err)
	}
	s.updateRateLimitFromResponse(resp)

	converted := convertPullRequest(pr)
	return &converted, nil
}

// PullRequestCommentCount retrieves the combined issue and review comment
// count for one pull request.
func (s *githubSource) PullRequestCommentCount(ctx context.Context, number int) (int, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return 0, sourceErr("pull_request_comments", "rate limiter interrupted", err)
	}

	comments, resp, err := s.client.Issues.ListComments(ctx, s.owner, s.repo, number, &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		return 0, sourceErr("pull_request_comments", "failed to list issue comments", err)
	}
	s.updateRateLimitFromResponse(resp)

	if err := s.rateLimiter.Wait(ctx); err != nil {
		return 0, sourceErr("pull_request_comments", "rate limiter interrupted", err)
	}

	reviewComments, resp, err := s.client.PullRequests.ListComments(ctx, s.owner, s.repo, number, &github.PullRequestListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		return 0, sourceErr("pull_request_comments", "failed to list review comments", err)
	}
	s.updateRateLimitFromResponse(resp)

	return len(comments) + len(reviewComments), nil
}

// PackageName reads package.json on the default branch and returns the "name"
// field. Repositories without a manifest produce an error.
func (s *githubSource) PackageName(ctx context.Context) (string, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return "", sourceErr("package_name", "rate limiter interrupted", err)
	}

	file, _, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, "package.json", nil)
	if err != nil {
		return "", sourceErr("package_name", "failed to get package.json for "+s.owner+"/"+s.repo, err)
	}
	s.updateRateLimitFromResponse(resp)

	if file == nil {
		return "", sourceErr("package_name", "package.json is not a file", nil)
	}
	content, err := file.GetContent()
	if err != nil {
		return "", sourceErr("package_name", "failed to decode package.json", err)
	}

	var manifest struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(content), &manifest); err != nil {
		return "", sourceErr("package_name", "failed to parse package.json", err)
	}
	if manifest.Name == "" {
		return "", sourceErr("package_name", "package.json has no name", nil)
	}
	return manifest.Name, nil
}

// Readme retrieves the decoded README content.
func (s *githubSource) Readme(ctx context.Context) (string, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return "", sourceErr("readme", "rate limiter interrupted", err)
	}

	readme, resp, err := s.client.Repositories.GetReadme(ctx, s.owner, s.repo, nil)
	if err != nil {
		return "", sourceErr("readme", "failed to get README for "+s.owner+"/"+s.repo, err)
	}
	s.updateRateLimitFromResponse(resp)

	content, err := readme.GetContent()
	if err != nil {
		return "", sourceErr("readme", "failed to decode README", err)
	}
	return content, nil
}

// AuxiliaryProbes exposes the non-GitHub metric probes bound to this
// repository's coordinates.
func (s *githubSource) AuxiliaryProbes() *Probes {
	return s.probes
}

func (s *githubSource) updateRateLimitFromResponse(resp *github.Response) {
	if resp != nil && resp.Rate.Remaining >= 0 {
		s.rateLimiter.UpdateLimit(resp.Rate.Remaining, resp.Rate.Reset.Time)
	}
}

func convertPullRequest(pr *github.PullRequest) domain.PullRequest {
	state := domain.PullRequestState(pr.GetState())
	if pr.GetMerged() || pr.MergedAt != nil {
		state = domain.PullRequestMerged
	}

	var closedAt, mergedAt *time.Time
	if pr.ClosedAt != nil {
		t := pr.ClosedAt.Time
		closedAt = &t
	}
	if pr.MergedAt != nil {
		t := pr.MergedAt.Time
		mergedAt = &t
	}

	return domain.PullRequest{
		Number:       pr.GetNumber(),
		Title:        pr.GetTitle(),
		State:        state,
		Author:       pr.GetUser().GetLogin(),
		CreatedAt:    pr.GetCreatedAt().Time,
		ClosedAt:     closedAt,
		MergedAt:     mergedAt,
		Comments:     pr.GetComments(),
		Commits:      pr.GetCommits(),
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		ChangedFiles: pr.GetChangedFiles(),
	}
}

func convertIssue(issue *github.Issue) domain.Issue {
	var closedAt *time.Time
	if issue.ClosedAt != nil {
		t := issue.ClosedAt.Time
		closedAt = &t
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labels = append(labels, label.GetName())
	}

	return domain.Issue{
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		Body:      issue.GetBody(),
		State:     domain.IssueState(issue.GetState()),
		Author:    issue.GetUser().GetLogin(),
		CreatedAt: issue.GetCreatedAt().Time,
		ClosedAt:  closedAt,
		Comments:  issue.GetComments(),
		Labels:    labels,
	}
}
