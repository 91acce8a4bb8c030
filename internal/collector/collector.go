// Package collector orchestrates metric collection: it pulls raw records
// from a data source, derives the category bundles, substitutes fallback
// defaults for failed categories and scores the result.
package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kslabenko/repo-quality-metrics/internal/domain"
	"github.com/kslabenko/repo-quality-metrics/internal/scoring"
	"github.com/kslabenko/repo-quality-metrics/internal/source"
	"github.com/kslabenko/repo-quality-metrics/internal/temporal"
)

// SourceFactory builds a data source for one repository.
type SourceFactory func(spec domain.RepoSpec) source.DataSource

// Options tune the orchestration behavior. Zero values get sensible defaults
// from New.
type Options struct {
	// SampleSize is how many merged pull requests get a detail fetch.
	SampleSize int

	// DetailDelay paces consecutive detail fetches inside one category.
	DetailDelay time.Duration

	// ItemDelay paces consecutive repositories in a batch and consecutive
	// dates in a time series.
	ItemDelay time.Duration

	// Pacer overrides the delay-based pacing for both detail fetches and
	// batch items when set. Tests use source.NopPacer.
	Pacer source.Pacer

	// Quiet suppresses progress output.
	Quiet bool
}

// Collector runs collections against repositories produced by its source
// factory. It is safe for concurrent use.
type Collector struct {
	newSource  SourceFactory
	opts       Options
	detailPace source.Pacer
	itemPace   source.Pacer
}

// New creates a collector. Unset options default to a sample of 10 pull
// requests, 100ms between detail fetches and 1s between batch items.
func New(factory SourceFactory, opts Options) *Collector {
	if opts.SampleSize <= 0 {
		opts.SampleSize = 10
	}
	if opts.DetailDelay <= 0 {
		opts.DetailDelay = 100 * time.Millisecond
	}
	if opts.ItemDelay <= 0 {
		opts.ItemDelay = time.Second
	}

	c := &Collector{newSource: factory, opts: opts}
	if opts.Pacer != nil {
		c.detailPace = opts.Pacer
		c.itemPace = opts.Pacer
	} else {
		c.detailPace = source.FixedDelayPacer{Delay: opts.DetailDelay}
		c.itemPace = source.FixedDelayPacer{Delay: opts.ItemDelay}
	}
	return c
}

// Collect runs a full live collection for one repository.
func (c *Collector) Collect(ctx context.Context, spec domain.RepoSpec) (*domain.CollectionResult, error) {
	return c.collect(ctx, spec, nil)
}

// CollectAt runs a collection restricted to activity visible at asOf. The
// result's timestamp is asOf, not the wall clock.
func (c *Collector) CollectAt(ctx context.Context, spec domain.RepoSpec, asOf time.Time) (*domain.CollectionResult, error) {
	return c.collect(ctx, spec, &asOf)
}

// CollectTimeSeries collects one result per date, in order. A failed date
// still yields a result, built from fallback defaults and carrying the error,
// so the output always has one entry per input date.
func (c *Collector) CollectTimeSeries(ctx context.Context, spec domain.RepoSpec, dates []time.Time) ([]*domain.CollectionResult, error) {
	results := make([]*domain.CollectionResult, 0, len(dates))
	for i, date := range dates {
		c.logf("collecting %s as of %s (%d/%d)\n", spec.FullName(), date.Format("2006-01-02"), i+1, len(dates))

		result, err := c.CollectAt(ctx, spec, date)
		if err != nil {
			return results, err
		}
		results = append(results, result)

		if i < len(dates)-1 {
			if err := c.itemPace.Pause(ctx); err != nil {
				return results, err
			}
		}
	}
	return results, nil
}

// CollectBatch collects every repository in order. A failed repository still
// yields a fallback result, so the output always has one entry per input.
func (c *Collector) CollectBatch(ctx context.Context, specs []domain.RepoSpec) ([]*domain.CollectionResult, error) {
	results := make([]*domain.CollectionResult, 0, len(specs))
	for i, spec := range specs {
		c.logf("collecting %s (%d/%d)\n", spec.FullName(), i+1, len(specs))

		result, err := c.Collect(ctx, spec)
		if err != nil {
			return results, err
		}
		results = append(results, result)

		if i < len(specs)-1 {
			if err := c.itemPace.Pause(ctx); err != nil {
				return results, err
			}
		}
	}
	return results, nil
}

// MockResult builds a result entirely from fallback defaults without touching
// any data source.
func MockResult(spec domain.RepoSpec, collectedAt time.Time) *domain.CollectionResult {
	metrics := DefaultBundle()
	cfg := scoring.DefaultConfig(spec.ProjectType, spec.IsOpenSource)
	breakdown, overall := scoring.ScoreBundle(metrics, cfg.Weights)

	return &domain.CollectionResult{
		ID:           uuid.New().String(),
		Repository:   spec.FullName(),
		CollectedAt:  collectedAt,
		Metrics:      metrics,
		Breakdown:    breakdown,
		OverallScore: overall,
		Confidence:   scoring.SourceConfidence(domain.SourceMock, 0),
		DataSource:   domain.SourceMock,
	}
}

func (c *Collector) collect(ctx context.Context, spec domain.RepoSpec, asOf *time.Time) (*domain.CollectionResult, error) {
	start := time.Now()
	src := c.newSource(spec)

	var (
		wg    sync.WaitGroup
		dx    domain.DeveloperExperience
		tp    domain.TechnicalPerformance
		bi    domain.BusinessImpact
		dxErr error
		tpErr error
		biErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		dx, dxErr = c.collectDeveloperExperience(ctx, src, asOf)
	}()
	go func() {
		defer wg.Done()
		tp, tpErr = c.collectTechnicalPerformance(ctx, src, asOf)
	}()
	go func() {
		defer wg.Done()
		bi, biErr = c.collectBusinessImpact(ctx, src, asOf)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var errs []string
	failed := 0
	if dxErr != nil {
		dx = DefaultDeveloperExperience()
		errs = append(errs, fmt.Sprintf("developer experience collection failed: %v", dxErr))
		failed++
	}
	if tpErr != nil {
		tp = DefaultTechnicalPerformance()
		errs = append(errs, fmt.Sprintf("technical performance collection failed: %v", tpErr))
		failed++
	}
	if biErr != nil {
		bi = DefaultBusinessImpact()
		errs = append(errs, fmt.Sprintf("business impact collection failed: %v", biErr))
		failed++
	}

	tag := domain.SourceExternal
	switch failed {
	case 0:
	case 3:
		tag = domain.SourceMock
	default:
		tag = domain.SourceMixed
	}

	metrics := domain.MetricsBundle{
		DeveloperExperience:  dx,
		TechnicalPerformance: tp,
		BusinessImpact:       bi,
	}

	cfg := scoring.DefaultConfig(spec.ProjectType, spec.IsOpenSource)
	breakdown, overall := scoring.ScoreBundle(metrics, cfg.Weights)

	collectedAt := start
	if asOf != nil {
		collectedAt = *asOf
	}

	return &domain.CollectionResult{
		ID:             uuid.New().String(),
		Repository:     spec.FullName(),
		CollectedAt:    collectedAt,
		Metrics:        metrics,
		Breakdown:      breakdown,
		OverallScore:   overall,
		Confidence:     scoring.SourceConfidence(tag, len(errs)),
		DataSource:     tag,
		Errors:         errs,
		ProcessingTime: time.Since(start),
	}, nil
}

func (c *Collector) collectDeveloperExperience(ctx context.Context, src source.DataSource, asOf *time.Time) (domain.DeveloperExperience, error) {
	var dx domain.DeveloperExperience

	prs, err := src.PullRequests(ctx, "closed", 50)
	if err != nil {
		return dx, err
	}
	issues, err := src.Issues(ctx, "closed", 100)
	if err != nil {
		return dx, err
	}
	if asOf != nil {
		prs = temporal.FilterPullRequests(prs, *asOf)
		issues = temporal.FilterIssues(issues, *asOf)
	}

	merged := mergedPullRequests(prs)
	totalReviewHours, avgReviewHours := reviewDurationHours(merged)

	// Detail fetches are expensive, so only a recent sample gets them. A
	// failed sample item is skipped, not fatal.
	sample := len(merged)
	if sample > c.opts.SampleSize {
		sample = c.opts.SampleSize
	}
	c.logf("  analyzing %d pull requests in detail\n", sample)

	var (
		totalComments   int
		totalChanges    int
		multiCommitPRs  int
		detailsAnalyzed int
	)
	for i := 0; i < sample; i++ {
		pr := merged[i]

		detail, err := src.PullRequestDetail(ctx, pr.Number)
		if err != nil {
			c.logf("  skipping pull request #%d: %v\n", pr.Number, err)
			continue
		}
		comments, err := src.PullRequestCommentCount(ctx, pr.Number)
		if err != nil {
			comments = 0
		}

		totalChanges += detail.Additions + detail.Deletions
		totalComments += comments
		if detail.Commits > 1 {
			multiCommitPRs++
		}
		detailsAnalyzed++

		if i < sample-1 {
			if err := c.detailPace.Pause(ctx); err != nil {
				return dx, err
			}
		}
	}

	var avgComments float64
	if len(merged) > 0 && sample > 0 {
		avgComments = float64(totalComments) / float64(sample)
	}
	var iterationRate float64
	if detailsAnalyzed > 0 {
		iterationRate = float64(multiCommitPRs) / float64(detailsAnalyzed)
	}
	var linesPerHour float64
	if totalChanges > 0 && totalReviewHours > 0 {
		linesPerHour = float64(totalChanges) / totalReviewHours
	}

	dx = domain.DeveloperExperience{
		CodeReviewDuration:   domain.NewMetric(domain.MetricCodeReviewDuration, avgReviewHours, metricUnit(domain.MetricCodeReviewDuration), domain.ProvenanceAPI),
		DebuggingTime:        domain.NewMetric(domain.MetricDebuggingTime, averageDebuggingHours(issues), metricUnit(domain.MetricDebuggingTime), domain.ProvenanceAPI),
		DeploymentsRatio:     domain.NewMetric(domain.MetricDeploymentsRatio, 0.95, metricUnit(domain.MetricDeploymentsRatio), domain.ProvenanceEstimated),
		TimeToFirstCommit:    domain.NewMetric(domain.MetricTimeToFirstCommit, 2.5, metricUnit(domain.MetricTimeToFirstCommit), domain.ProvenanceEstimated),
		LinesChangedPerHour:  domain.NewMetric(domain.MetricLinesChangedPerHour, linesPerHour, metricUnit(domain.MetricLinesChangedPerHour), domain.ProvenanceAPI),
		AverageCommentsPerPR: domain.NewMetric(domain.MetricAverageCommentsPerPR, avgComments, metricUnit(domain.MetricAverageCommentsPerPR), domain.ProvenanceAPI),
		PRIterationRate:      domain.NewMetric(domain.MetricPRIterationRate, iterationRate, metricUnit(domain.MetricPRIterationRate), domain.ProvenanceAPI),
	}
	return dx, nil
}

func (c *Collector) collectTechnicalPerformance(ctx context.Context, src source.DataSource, asOf *time.Time) (domain.TechnicalPerformance, error) {
	var tp domain.TechnicalPerformance

	repo, err := src.Repository(ctx)
	if err != nil {
		return tp, err
	}

	aux, hasAux := src.(source.AuxiliarySource)

	// Bundle size: published package stats when the repository publishes a
	// package, repository-size heuristic otherwise.
	bundleSize := float64(repo.SizeKB) * 1024
	bundleLoadTime := bundleSize / 100
	bundleSource := domain.ProvenanceEstimated

	if hasAux {
		if pkg, err := aux.PackageName(ctx); err == nil {
			c.logf("  fetching bundle size for %q\n", pkg)
			if stats, err := aux.AuxiliaryProbes().BundleSize(ctx, pkg); err == nil && stats.Gzip > 0 {
				bundleSize = float64(stats.Gzip)
				bundleLoadTime = float64(stats.Gzip) / 50000
				bundleSource = domain.ProvenanceAPI
			}
		}
	}

	issues, err := src.Issues(ctx, "all", 100)
	if err != nil {
		return tp, err
	}
	if asOf != nil {
		issues = temporal.FilterIssues(issues, *asOf)
	}

	coverage, coverageSource := c.resolveCoverage(ctx, src, repo)

	tp = domain.TechnicalPerformance{
		BuildTime:           domain.NewMetric(domain.MetricBuildTime, estimateBuildTimeSeconds(repo.SizeKB), metricUnit(domain.MetricBuildTime), domain.ProvenanceEstimated),
		BundleSize:          domain.NewMetric(domain.MetricBundleSize, bundleSize, metricUnit(domain.MetricBundleSize), bundleSource),
		BundleLoadTime:      domain.NewMetric(domain.MetricBundleLoadTime, bundleLoadTime, metricUnit(domain.MetricBundleLoadTime), bundleSource),
		PerformanceScore:    domain.NewMetric(domain.MetricPerformanceScore, estimatePerformanceScore(repo.SizeKB), metricUnit(domain.MetricPerformanceScore), domain.ProvenanceEstimated),
		TypeScriptErrorRate: domain.NewMetric(domain.MetricTypeScriptErrorRate, estimateTypeErrorRate(repo.Language, issues), metricUnit(domain.MetricTypeScriptErrorRate), domain.ProvenanceEstimated),
		TestCoverage:        domain.NewMetric(domain.MetricTestCoverage, coverage, metricUnit(domain.MetricTestCoverage), coverageSource),
	}
	return tp, nil
}

// resolveCoverage tries codecov first, then a README badge, then a heuristic.
func (c *Collector) resolveCoverage(ctx context.Context, src source.DataSource, repo *domain.Repository) (float64, domain.Provenance) {
	aux, hasAux := src.(source.AuxiliarySource)
	if hasAux {
		if coverage, err := aux.AuxiliaryProbes().CodecovCoverage(ctx, repo.Owner, repo.Name); err == nil {
			c.logf("  codecov coverage: %.1f%%\n", coverage)
			return coverage, domain.ProvenanceAPI
		}
		if readme, err := aux.Readme(ctx); err == nil {
			if coverage, ok := source.ParseCoverageBadge(readme); ok {
				c.logf("  coverage from README badge: %.1f%%\n", coverage)
				return coverage, domain.ProvenanceAPI
			}
		}
	}
	return estimateCoveragePercent(repo.Stars, repo.Language), domain.ProvenanceEstimated
}

func (c *Collector) collectBusinessImpact(ctx context.Context, src source.DataSource, asOf *time.Time) (domain.BusinessImpact, error) {
	var bi domain.BusinessImpact

	repo, err := src.Repository(ctx)
	if err != nil {
		return bi, err
	}
	prs, err := src.PullRequests(ctx, "closed", 100)
	if err != nil {
		return bi, err
	}
	issues, err := src.Issues(ctx, "all", 100)
	if err != nil {
		return bi, err
	}
	if asOf != nil {
		prs = temporal.FilterPullRequests(prs, *asOf)
		issues = temporal.FilterIssues(issues, *asOf)
	}

	merged := mergedPullRequests(prs)

	downloads := 0
	if aux, ok := src.(source.AuxiliarySource); ok {
		if pkg, err := aux.PackageName(ctx); err == nil {
			if monthly, err := aux.AuxiliaryProbes().NpmMonthlyDownloads(ctx, pkg); err == nil {
				downloads = monthly
			}
		}
	}

	bi = domain.BusinessImpact{
		TimeToMarket:        domain.NewMetric(domain.MetricTimeToMarket, averageTimeToMarketDays(merged), metricUnit(domain.MetricTimeToMarket), domain.ProvenanceAPI),
		FeatureSuccessRate:  domain.NewMetric(domain.MetricFeatureSuccessRate, featureSuccessRate(len(merged), len(prs)), metricUnit(domain.MetricFeatureSuccessRate), domain.ProvenanceAPI),
		ActiveContributors:  domain.NewMetric(domain.MetricActiveContributors, float64(activeContributors(merged)), metricUnit(domain.MetricActiveContributors), domain.ProvenanceAPI),
		IssueResolutionRate: domain.NewMetric(domain.MetricIssueResolutionRate, issueResolutionRate(issues), metricUnit(domain.MetricIssueResolutionRate), domain.ProvenanceAPI),
		CommunityGrowth:     domain.NewMetric(domain.MetricCommunityGrowth, communityGrowthScore(repo.Stars, downloads), metricUnit(domain.MetricCommunityGrowth), domain.ProvenanceAPI),
	}
	return bi, nil
}

func (c *Collector) logf(format string, args ...interface{}) {
	if !c.opts.Quiet {
		fmt.Printf(format, args...)
	}
}
