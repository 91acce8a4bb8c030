package domain

import "time"

// Repository is the metadata record for one GitHub repository.
type Repository struct {
	Owner         string    `json:"owner"`
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Description   string    `json:"description,omitempty"`
	Language      string    `json:"language"`
	Stars         int       `json:"stars"`
	Forks         int       `json:"forks"`
	Watchers      int       `json:"watchers"`
	SizeKB        int       `json:"size_kb"`
	OpenIssues    int       `json:"open_issues"`
	DefaultBranch string    `json:"default_branch"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	PushedAt      time.Time `json:"pushed_at"`
	Topics        []string  `json:"topics,omitempty"`
}

// ProjectType classifies the project for score weighting purposes
type ProjectType string

const (
	ProjectTypeLibrary      ProjectType = "library"
	ProjectTypeApplication  ProjectType = "application"
	ProjectTypeFramework    ProjectType = "framework"
	ProjectTypeMicroservice ProjectType = "microservice"
	ProjectTypeMonolith     ProjectType = "monolith"
	ProjectTypePlatform     ProjectType = "platform"
)

// RepoSpec identifies one repository to collect, with its project context.
type RepoSpec struct {
	Owner        string      `json:"owner"`
	Name         string      `json:"name"`
	ProjectType  ProjectType `json:"project_type"`
	IsOpenSource bool        `json:"is_open_source"`
}

// FullName returns owner/name.
func (r RepoSpec) FullName() string {
	return r.Owner + "/" + r.Name
}
