package domain

import (
	"strings"
	"time"
)

// PullRequestState represents the lifecycle state of a pull request
type PullRequestState string

const (
	PullRequestOpen   PullRequestState = "open"
	PullRequestClosed PullRequestState = "closed"
	PullRequestMerged PullRequestState = "merged"
)

// PullRequest is a raw pull-request record as returned by a data source.
type PullRequest struct {
	Number       int              `json:"number"`
	Title        string           `json:"title"`
	State        PullRequestState `json:"state"`
	Author       string           `json:"author"`
	CreatedAt    time.Time        `json:"created_at"`
	ClosedAt     *time.Time       `json:"closed_at,omitempty"`
	MergedAt     *time.Time       `json:"merged_at,omitempty"`
	Comments     int              `json:"comments"`
	Commits      int              `json:"commits"`
	Additions    int              `json:"additions"`
	Deletions    int              `json:"deletions"`
	ChangedFiles int              `json:"changed_files"`
}

// Merged reports whether the pull request was merged.
func (p PullRequest) Merged() bool {
	return p.MergedAt != nil
}

// IssueState represents the lifecycle state of an issue
type IssueState string

const (
	IssueOpen   IssueState = "open"
	IssueClosed IssueState = "closed"
)

// Issue is a raw issue record as returned by a data source. Issues that are
// actually pull requests are excluded by the data source.
type Issue struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	State     IssueState `json:"state"`
	Author    string     `json:"author"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	Comments  int        `json:"comments"`
	Labels    []string   `json:"labels,omitempty"`
}

// Closed reports whether the issue has been closed.
func (i Issue) Closed() bool {
	return i.ClosedAt != nil
}

// HasLabel reports whether any label contains the given substring,
// case-insensitive.
func (i Issue) HasLabel(substr string) bool {
	substr = strings.ToLower(substr)
	for _, l := range i.Labels {
		if strings.Contains(strings.ToLower(l), substr) {
			return true
		}
	}
	return false
}
