package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kslabenko/repo-quality-metrics/internal/domain"
	"github.com/kslabenko/repo-quality-metrics/internal/source"
)

func testSpec() domain.RepoSpec {
	return domain.RepoSpec{
		Owner:        "acme",
		Name:         "widgets",
		ProjectType:  domain.ProjectTypeApplication,
		IsOpenSource: true,
	}
}

func testRepo() *domain.Repository {
	return &domain.Repository{
		Owner:    "acme",
		Name:     "widgets",
		FullName: "acme/widgets",
		Language: "Go",
		Stars:    500,
		SizeKB:   2000,
	}
}

func fixtureSource() *source.StaticSource {
	return &source.StaticSource{
		Repo: testRepo(),
		PRs: []domain.PullRequest{
			{
				Number:    1,
				State:     domain.PullRequestMerged,
				Author:    "alice",
				CreatedAt: ts(1, 12),
				MergedAt:  tsPtr(1, 18),
				Comments:  3,
				Commits:   2,
				Additions: 100,
				Deletions: 20,
			},
			{
				Number:    2,
				State:     domain.PullRequestMerged,
				Author:    "bob",
				CreatedAt: ts(2, 0),
				MergedAt:  tsPtr(2, 12),
				Comments:  5,
				Commits:   1,
				Additions: 50,
				Deletions: 10,
			},
		},
		IssueList: []domain.Issue{
			{
				Number:    10,
				State:     domain.IssueClosed,
				Title:     "crash when saving",
				Labels:    []string{"bug"},
				CreatedAt: ts(1, 0),
				ClosedAt:  tsPtr(1, 4),
			},
		},
	}
}

func fastOptions() Options {
	return Options{
		Pacer: source.NopPacer{},
		Quiet: true,
	}
}

// failingRepoSource fails only the repository lookup, leaving pull-request
// and issue operations working.
type failingRepoSource struct {
	*source.StaticSource
}

func (f *failingRepoSource) Repository(ctx context.Context) (*domain.Repository, error) {
	return nil, errors.New("repository lookup failed")
}

func TestCollect(t *testing.T) {
	src := fixtureSource()
	c := New(func(domain.RepoSpec) source.DataSource { return src }, fastOptions())

	result, err := c.Collect(context.Background(), testSpec())
	assert.NoError(t, err)
	assert.NotNil(t, result)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "acme/widgets", result.Repository)
	assert.Equal(t, domain.SourceExternal, result.DataSource)
	assert.Equal(t, 90, result.Confidence)
	assert.Empty(t, result.Errors)

	// Developer experience derives from the merged pull requests. Both PRs
	// get a detail fetch since the sample covers them.
	dx := result.Metrics.DeveloperExperience
	assertValue(t, 9, dx.CodeReviewDuration)
	assertValue(t, 4, dx.DebuggingTime)
	assertValue(t, 4, dx.AverageCommentsPerPR)
	assertValue(t, 0.5, dx.PRIterationRate)
	assertValue(t, 10, dx.LinesChangedPerHour)
	assert.Equal(t, domain.ProvenanceAPI, dx.CodeReviewDuration.Source)
	assert.Equal(t, domain.ProvenanceEstimated, dx.DeploymentsRatio.Source)

	// Technical performance falls back to size heuristics when the source
	// exposes no package or coverage service.
	tp := result.Metrics.TechnicalPerformance
	assertValue(t, 200, tp.BuildTime)
	assertValue(t, 98, tp.PerformanceScore)
	assertValue(t, 2000*1024, tp.BundleSize)
	assertValue(t, 60, tp.TestCoverage)
	assertValue(t, 0.3, tp.TypeScriptErrorRate)
	assert.Equal(t, domain.ProvenanceEstimated, tp.TestCoverage.Source)

	bi := result.Metrics.BusinessImpact
	assertValue(t, 0.375, bi.TimeToMarket)
	assertValue(t, 1, bi.FeatureSuccessRate)
	assertValue(t, 2, bi.ActiveContributors)
	assertValue(t, 1, bi.IssueResolutionRate)
	assertValue(t, 0.5, bi.CommunityGrowth)

	assert.Greater(t, result.OverallScore, 0)
	assert.GreaterOrEqual(t, result.ProcessingTime, time.Duration(0))
}

func TestCollectAllSourcesFailing(t *testing.T) {
	src := &source.StaticSource{Fail: errors.New("network down")}
	c := New(func(domain.RepoSpec) source.DataSource { return src }, fastOptions())

	result, err := c.Collect(context.Background(), testSpec())
	assert.NoError(t, err)

	assert.Equal(t, domain.SourceMock, result.DataSource)
	assert.Len(t, result.Errors, 3)
	assert.Equal(t, 45, result.Confidence)

	// Every category falls back to the fixed defaults.
	assertValue(t, 12.5, result.Metrics.DeveloperExperience.CodeReviewDuration)
	assertValue(t, 78.5, result.Metrics.TechnicalPerformance.TestCoverage)
	assertValue(t, 3.2, result.Metrics.BusinessImpact.TimeToMarket)
	assert.Equal(t, domain.ProvenanceMock, result.Metrics.DeveloperExperience.CodeReviewDuration.Source)
	assert.Equal(t, 93, result.OverallScore)
}

func TestCollectMixedSources(t *testing.T) {
	src := &failingRepoSource{StaticSource: fixtureSource()}
	c := New(func(domain.RepoSpec) source.DataSource { return src }, fastOptions())

	result, err := c.Collect(context.Background(), testSpec())
	assert.NoError(t, err)

	// Developer experience never touches the repository lookup, so it
	// succeeds while the other two categories fall back.
	assert.Equal(t, domain.SourceMixed, result.DataSource)
	assert.Len(t, result.Errors, 2)
	assert.Equal(t, 65, result.Confidence)

	assertValue(t, 9, result.Metrics.DeveloperExperience.CodeReviewDuration)
	assert.Equal(t, domain.ProvenanceAPI, result.Metrics.DeveloperExperience.CodeReviewDuration.Source)
	assert.Equal(t, domain.ProvenanceMock, result.Metrics.TechnicalPerformance.BuildTime.Source)
	assert.Equal(t, domain.ProvenanceMock, result.Metrics.BusinessImpact.TimeToMarket.Source)
}

func TestCollectAt(t *testing.T) {
	src := fixtureSource()
	c := New(func(domain.RepoSpec) source.DataSource { return src }, fastOptions())

	// As of the evening of day one, only the first pull request has merged.
	asOf := ts(1, 23)
	result, err := c.CollectAt(context.Background(), testSpec(), asOf)
	assert.NoError(t, err)

	assert.Equal(t, asOf, result.CollectedAt)
	assertValue(t, 6, result.Metrics.DeveloperExperience.CodeReviewDuration)
	assertValue(t, 1, result.Metrics.BusinessImpact.ActiveContributors)
}

func TestCollectTimeSeries(t *testing.T) {
	src := fixtureSource()
	c := New(func(domain.RepoSpec) source.DataSource { return src }, fastOptions())

	dates := []time.Time{ts(1, 23), ts(3, 0)}
	results, err := c.CollectTimeSeries(context.Background(), testSpec(), dates)
	assert.NoError(t, err)
	assert.Len(t, results, 2)

	assert.Equal(t, dates[0], results[0].CollectedAt)
	assert.Equal(t, dates[1], results[1].CollectedAt)
	assertValue(t, 6, results[0].Metrics.DeveloperExperience.CodeReviewDuration)
	assertValue(t, 9, results[1].Metrics.DeveloperExperience.CodeReviewDuration)
}

func TestCollectBatch(t *testing.T) {
	healthy := fixtureSource()
	broken := &source.StaticSource{Fail: errors.New("not found")}
	c := New(func(spec domain.RepoSpec) source.DataSource {
		if spec.Name == "broken" {
			return broken
		}
		return healthy
	}, fastOptions())

	specs := []domain.RepoSpec{
		testSpec(),
		{Owner: "acme", Name: "broken", ProjectType: domain.ProjectTypeApplication},
	}

	results, err := c.CollectBatch(context.Background(), specs)
	assert.NoError(t, err)
	assert.Len(t, results, 2)

	assert.Equal(t, domain.SourceExternal, results[0].DataSource)
	assert.Equal(t, domain.SourceMock, results[1].DataSource)
	assert.Equal(t, "acme/broken", results[1].Repository)
}

func TestCollectCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := fixtureSource()
	c := New(func(domain.RepoSpec) source.DataSource { return src }, fastOptions())

	_, err := c.Collect(ctx, testSpec())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockResult(t *testing.T) {
	collectedAt := ts(15, 0)
	result := MockResult(testSpec(), collectedAt)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "acme/widgets", result.Repository)
	assert.Equal(t, collectedAt, result.CollectedAt)
	assert.Equal(t, domain.SourceMock, result.DataSource)
	assert.Equal(t, 60, result.Confidence)
	assert.Equal(t, 93, result.OverallScore)
	assert.Equal(t, 90, result.Breakdown.DeveloperExperience.Score)
	assert.Equal(t, 90, result.Breakdown.TechnicalPerformance.Score)
	assert.Equal(t, 100, result.Breakdown.BusinessImpact.Score)
}

func assertValue(t *testing.T, expected float64, rec domain.MetricRecord) {
	t.Helper()
	v, ok := rec.Float()
	assert.True(t, ok, "metric %s has no value", rec.Name)
	assert.InDelta(t, expected, v, 1e-9)
}
