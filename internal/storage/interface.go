package storage

import (
	"context"
	"time"

	"github.com/kslabenko/repo-quality-metrics/internal/domain"
)

// Storage is the abstract interface for the persistence layer
type Storage interface {
	// Collection result operations
	SaveResult(ctx context.Context, result *domain.CollectionResult) error
	SaveResults(ctx context.Context, results []*domain.CollectionResult) error
	GetResult(ctx context.Context, id string) (*domain.CollectionResult, error)
	GetLatestResult(ctx context.Context, repository string) (*domain.CollectionResult, error)
	ListResults(ctx context.Context, repository string, limit int) ([]*domain.CollectionResult, error)

	// Historical snapshot operations
	SaveSnapshot(ctx context.Context, snapshot *domain.HistoricalSnapshot) error
	GetTimeSeries(ctx context.Context, repository string, from, to time.Time) ([]*domain.HistoricalSnapshot, error)

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}
