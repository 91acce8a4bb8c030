// Package source provides the external data-source collaborators that feed
// raw repository records into the collector.
package source

import (
	"context"
	"fmt"

	"github.com/kslabenko/repo-quality-metrics/internal/domain"
)

// DataSource is the abstract interface the collector consumes. Every failure
// is a *DataSourceError; callers treat it as "no data for this category or
// sample item" and continue.
type DataSource interface {
	// Repository retrieves the repository metadata record.
	Repository(ctx context.Context) (*domain.Repository, error)

	// PullRequests retrieves pull requests in the given state,
	// most recently updated first.
	PullRequests(ctx context.Context, state string, perPage int) ([]domain.PullRequest, error)

	// Issues retrieves issues in the given state. Issues that are actually
	// pull requests are excluded.
	Issues(ctx context.Context, state string, perPage int) ([]domain.Issue, error)

	// PullRequestDetail retrieves one pull request with commit/line counts.
	PullRequestDetail(ctx context.Context, number int) (*domain.PullRequest, error)

	// PullRequestCommentCount retrieves the combined issue and review
	// comment count for one pull request.
	PullRequestCommentCount(ctx context.Context, number int) (int, error)
}

// AuxiliarySource is implemented by sources that can reach the services
// beyond the repository host itself. The collector type-asserts for it and
// falls back to estimates when a source cannot provide these.
type AuxiliarySource interface {
	// PackageName resolves the published package name from the repository
	// manifest, or an error when the repository publishes no package.
	PackageName(ctx context.Context) (string, error)

	// Readme retrieves the decoded README content.
	Readme(ctx context.Context) (string, error)

	// AuxiliaryProbes returns the probes for bundle size, downloads and
	// coverage lookups.
	AuxiliaryProbes() *Probes
}

// DataSourceError is the failure type for all data-source operations.
type DataSourceError struct {
	Op      string
	Message string
	Err     error
}

func (e *DataSourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

func sourceErr(op, message string, err error) *DataSourceError {
	return &DataSourceError{Op: op, Message: message, Err: err}
}
