package main

import (
	"fmt"
	"log"
	"os"

	"github.com/kslabenko/repo-quality-metrics/internal/api"
	"github.com/kslabenko/repo-quality-metrics/internal/collector"
	"github.com/kslabenko/repo-quality-metrics/internal/config"
	"github.com/kslabenko/repo-quality-metrics/internal/domain"
	"github.com/kslabenko/repo-quality-metrics/internal/predictor"
	"github.com/kslabenko/repo-quality-metrics/internal/source"
	"github.com/kslabenko/repo-quality-metrics/internal/storage"
	"github.com/kslabenko/repo-quality-metrics/internal/storage/postgres"
	"github.com/kslabenko/repo-quality-metrics/internal/storage/sqlite"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize storage
	var store storage.Storage
	switch cfg.StorageType {
	case "postgres":
		store, err = postgres.NewPostgresStorage(cfg.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL storage: %v", err)
		}
	default:
		store, err = sqlite.NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite storage: %v", err)
		}
	}
	defer store.Close()

	// Initialize collector
	coll := collector.New(func(spec domain.RepoSpec) source.DataSource {
		return source.NewGitHubSource(cfg.GitHubToken, spec.Owner, spec.Name)
	}, collector.Options{Quiet: true})

	// Initialize predictor when a script is configured
	var pred predictor.Predictor
	if cfg.PredictScript != "" {
		pred = predictor.NewScriptPredictor(cfg.PythonBin, cfg.PredictScript)
	}

	// Initialize handler
	handler := api.NewHandler(coll, store, pred)

	// Setup routes
	router := api.SetupRoutes(handler)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	fmt.Printf("Starting API server on %s\n", addr)
	fmt.Printf("Storage type: %s\n", cfg.StorageType)

	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}
