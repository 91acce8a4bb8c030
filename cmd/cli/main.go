package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kslabenko/repo-quality-metrics/internal/collector"
	"github.com/kslabenko/repo-quality-metrics/internal/config"
	"github.com/kslabenko/repo-quality-metrics/internal/domain"
	"github.com/kslabenko/repo-quality-metrics/internal/predictor"
	"github.com/kslabenko/repo-quality-metrics/internal/report"
	"github.com/kslabenko/repo-quality-metrics/internal/source"
	"github.com/kslabenko/repo-quality-metrics/internal/storage"
	"github.com/kslabenko/repo-quality-metrics/internal/storage/postgres"
	"github.com/kslabenko/repo-quality-metrics/internal/storage/sqlite"
)

var (
	projectType  string
	closedSource bool
	asOfDate     string
	mockMode     bool
	outputFormat string
	outputFile   string
	noSave       bool
	datesFlag    string
	fromDate     string
	toDate       string
	whatIfFlag   string
	limitFlag    int
)

var rootCmd = &cobra.Command{
	Use:   "quality",
	Short: "Repository quality metrics tool",
	Long: `A CLI tool for collecting and scoring repository quality metrics.

It measures developer experience, technical performance and business impact
from repository activity, scores each category on a 0-100 scale and
aggregates them into a weighted overall quality score.`,
}

var collectCmd = &cobra.Command{
	Use:   "collect [owner/repo]",
	Short: "Collect and score one repository",
	Long:  `Collect quality metrics for a repository, score them and store the result.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCollect,
}

var batchCmd = &cobra.Command{
	Use:   "batch [owner/repo ...]",
	Short: "Collect and score several repositories",
	Long:  `Collect quality metrics for several repositories in sequence, pacing requests between them.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBatch,
}

var timeseriesCmd = &cobra.Command{
	Use:   "timeseries [owner/repo]",
	Short: "Collect historical snapshots",
	Long:  `Collect one metrics snapshot per date, reconstructing how the repository looked at each point in time.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTimeSeries,
}

var showCmd = &cobra.Command{
	Use:   "show [owner/repo]",
	Short: "Show the latest stored result",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var historyCmd = &cobra.Command{
	Use:   "history [owner/repo]",
	Short: "Show stored results for a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

var reportCmd = &cobra.Command{
	Use:   "report [owner/repo]",
	Short: "Render a quality report from the latest stored result",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

var predictCmd = &cobra.Command{
	Use:   "predict [owner/repo]",
	Short: "Predict quality outcomes from the latest stored result",
	Long: `Run the trained outcome models against the latest stored metrics.

With --whatif, compares baseline predictions against predictions with the
given metric changes applied, e.g. --whatif dx_codeReviewDuration=24.`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "output format (table, json, csv, markdown)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write output to file instead of stdout")

	collectCmd.Flags().StringVar(&projectType, "type", "application", "project type (library, application, framework, microservice, monolith, platform)")
	collectCmd.Flags().BoolVar(&closedSource, "closed-source", false, "score with closed-source weights")
	collectCmd.Flags().StringVar(&asOfDate, "as-of", "", "collect metrics as of this date (YYYY-MM-DD)")
	collectCmd.Flags().BoolVar(&mockMode, "mock", false, "use fallback defaults instead of live collection")
	collectCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the result")

	batchCmd.Flags().StringVar(&projectType, "type", "application", "project type for all repositories")
	batchCmd.Flags().BoolVar(&closedSource, "closed-source", false, "score with closed-source weights")
	batchCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the results")

	timeseriesCmd.Flags().StringVar(&datesFlag, "dates", "", "comma-separated snapshot dates (YYYY-MM-DD,...)")
	timeseriesCmd.Flags().StringVar(&projectType, "type", "application", "project type")
	timeseriesCmd.Flags().BoolVar(&closedSource, "closed-source", false, "score with closed-source weights")

	historyCmd.Flags().IntVar(&limitFlag, "limit", 20, "maximum number of results")
	historyCmd.Flags().StringVar(&fromDate, "from", "", "range start (YYYY-MM-DD)")
	historyCmd.Flags().StringVar(&toDate, "to", "", "range end (YYYY-MM-DD)")

	predictCmd.Flags().StringVar(&whatIfFlag, "whatif", "", "comma-separated metric changes (name=value,...)")

	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(timeseriesCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(predictCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "postgres":
		return postgres.NewPostgresStorage(cfg.PostgresURL)
	default:
		return sqlite.NewSQLiteStorage(cfg.SQLitePath)
	}
}

func getCollector(cfg *config.Config) *collector.Collector {
	return collector.New(func(spec domain.RepoSpec) source.DataSource {
		return source.NewGitHubSource(cfg.GitHubToken, spec.Owner, spec.Name)
	}, collector.Options{})
}

func parseRepoArg(arg string) (domain.RepoSpec, error) {
	parts := strings.SplitN(arg, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return domain.RepoSpec{}, fmt.Errorf("repository must be owner/repo, got %q", arg)
	}
	return domain.RepoSpec{
		Owner:        parts[0],
		Name:         parts[1],
		ProjectType:  domain.ProjectType(projectType),
		IsOpenSource: !closedSource,
	}, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func render(results []*domain.CollectionResult) error {
	format, err := report.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	out := os.Stdout
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}
	return report.Write(out, format, results)
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	spec, err := parseRepoArg(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()

	var result *domain.CollectionResult
	if mockMode {
		result = collector.MockResult(spec, time.Now())
	} else if asOfDate != "" {
		asOf, err := time.Parse("2006-01-02", asOfDate)
		if err != nil {
			return fmt.Errorf("invalid --as-of date: %w", err)
		}
		result, err = getCollector(cfg).CollectAt(ctx, spec, asOf)
		if err != nil {
			return fmt.Errorf("collection failed: %w", err)
		}
	} else {
		result, err = getCollector(cfg).Collect(ctx, spec)
		if err != nil {
			return fmt.Errorf("collection failed: %w", err)
		}
	}

	if !noSave {
		store, err := getStorage(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()
		if err := store.SaveResult(ctx, result); err != nil {
			return fmt.Errorf("failed to save result: %w", err)
		}
	}

	return render([]*domain.CollectionResult{result})
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	specs := make([]domain.RepoSpec, 0, len(args))
	for _, arg := range args {
		spec, err := parseRepoArg(arg)
		if err != nil {
			return err
		}
		specs = append(specs, spec)
	}

	ctx := context.Background()
	results, err := getCollector(cfg).CollectBatch(ctx, specs)
	if err != nil {
		return fmt.Errorf("batch collection failed: %w", err)
	}

	if !noSave {
		store, err := getStorage(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()
		if err := store.SaveResults(ctx, results); err != nil {
			return fmt.Errorf("failed to save results: %w", err)
		}
	}

	return render(results)
}

func runTimeSeries(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	spec, err := parseRepoArg(args[0])
	if err != nil {
		return err
	}
	if datesFlag == "" {
		return fmt.Errorf("--dates is required")
	}

	var dates []time.Time
	for _, s := range strings.Split(datesFlag, ",") {
		date, err := time.Parse("2006-01-02", strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", s, err)
		}
		dates = append(dates, date)
	}

	ctx := context.Background()
	results, err := getCollector(cfg).CollectTimeSeries(ctx, spec, dates)
	if err != nil {
		return fmt.Errorf("time series collection failed: %w", err)
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	if err := store.SaveResults(ctx, results); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	for _, result := range results {
		snapshot := result.Snapshot()
		if err := store.SaveSnapshot(ctx, &snapshot); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
	}

	return render(results)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	spec, err := parseRepoArg(args[0])
	if err != nil {
		return err
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	result, err := store.GetLatestResult(context.Background(), spec.FullName())
	if err != nil {
		return err
	}
	return render([]*domain.CollectionResult{result})
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	spec, err := parseRepoArg(args[0])
	if err != nil {
		return err
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	results, err := store.ListResults(context.Background(), spec.FullName(), limitFlag)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("No stored results for %s\n", spec.FullName())
		return nil
	}
	return render(results)
}

func runReport(cmd *cobra.Command, args []string) error {
	if outputFormat == "table" {
		outputFormat = "markdown"
	}
	return runShow(cmd, args)
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.PredictScript == "" {
		return fmt.Errorf("PREDICT_SCRIPT is not configured")
	}
	spec, err := parseRepoArg(args[0])
	if err != nil {
		return err
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	result, err := store.GetLatestResult(ctx, spec.FullName())
	if err != nil {
		return err
	}

	pred := predictor.NewScriptPredictor(cfg.PythonBin, cfg.PredictScript)

	if whatIfFlag != "" {
		changes, err := parseWhatIf(whatIfFlag)
		if err != nil {
			return err
		}
		analysis, err := pred.WhatIf(ctx, result.Metrics, changes)
		if err != nil {
			return err
		}
		for target, comparison := range analysis {
			fmt.Printf("%s: %.2f -> %.2f (%+.2f, %+.2f%%)\n",
				target, comparison.Baseline, comparison.Predicted, comparison.Change, comparison.ChangePercent)
		}
		return nil
	}

	prediction, err := pred.Predict(ctx, result.Metrics)
	if err != nil {
		return err
	}
	fmt.Printf("Predicted overall score:    %.2f\n", prediction.OverallScore)
	fmt.Printf("Predicted time to market:   %.2f days\n", prediction.TimeToMarket)
	fmt.Printf("Predicted community growth: %.2f\n", prediction.CommunityGrowth)
	return nil
}

func parseWhatIf(flag string) (map[string]float64, error) {
	changes := make(map[string]float64)
	for _, pair := range strings.Split(flag, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --whatif entry %q (want name=value)", pair)
		}
		value, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --whatif value %q: %w", parts[1], err)
		}
		changes[parts[0]] = value
	}
	return changes, nil
}
