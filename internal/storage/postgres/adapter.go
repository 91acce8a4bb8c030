package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/lib/pq"

	"github.com/kslabenko/repo-quality-metrics/internal/domain"
	apperrors "github.com/kslabenko/repo-quality-metrics/internal/errors"
	"github.com/kslabenko/repo-quality-metrics/internal/storage"
)

// postgresStorage implements the Storage interface for PostgreSQL
type postgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage creates a new PostgreSQL storage instance
func NewPostgresStorage(connURL string) (storage.Storage, error) {
	db, err := sql.Open("postgres", connURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &postgresStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *postgresStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		repository TEXT NOT NULL,
		collected_at TIMESTAMPTZ NOT NULL,
		overall_score INTEGER NOT NULL,
		confidence INTEGER NOT NULL,
		data_source TEXT NOT NULL,
		data JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_results_repository ON results(repository);
	CREATE INDEX IF NOT EXISTS idx_results_collected_at ON results(collected_at);
	CREATE INDEX IF NOT EXISTS idx_results_repo_collected ON results(repository, collected_at);

	CREATE TABLE IF NOT EXISTS snapshots (
		repository TEXT NOT NULL,
		collected_at TIMESTAMPTZ NOT NULL,
		data JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (repository, collected_at)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_repository ON snapshots(repository);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveResult saves a single collection result
func (s *postgresStorage) SaveResult(ctx context.Context, result *domain.CollectionResult) error {
	dataJSON, err := json.Marshal(result)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO results (id, repository, collected_at, overall_score, confidence, data_source, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			repository = EXCLUDED.repository,
			collected_at = EXCLUDED.collected_at,
			overall_score = EXCLUDED.overall_score,
			confidence = EXCLUDED.confidence,
			data_source = EXCLUDED.data_source,
			data = EXCLUDED.data
	`
	_, err = s.db.ExecContext(ctx, query,
		result.ID,
		result.Repository,
		result.CollectedAt,
		result.OverallScore,
		result.Confidence,
		string(result.DataSource),
		string(dataJSON),
	)
	return err
}

// SaveResults saves multiple collection results in one transaction
func (s *postgresStorage) SaveResults(ctx context.Context, results []*domain.CollectionResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (id, repository, collected_at, overall_score, confidence, data_source, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			repository = EXCLUDED.repository,
			collected_at = EXCLUDED.collected_at,
			overall_score = EXCLUDED.overall_score,
			confidence = EXCLUDED.confidence,
			data_source = EXCLUDED.data_source,
			data = EXCLUDED.data
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, result := range results {
		dataJSON, err := json.Marshal(result)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx,
			result.ID,
			result.Repository,
			result.CollectedAt,
			result.OverallScore,
			result.Confidence,
			string(result.DataSource),
			string(dataJSON),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetResult retrieves one collection result by ID
func (s *postgresStorage) GetResult(ctx context.Context, id string) (*domain.CollectionResult, error) {
	var dataJSON string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM results WHERE id = $1`, id).Scan(&dataJSON)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("result " + id)
	}
	if err != nil {
		return nil, err
	}
	return unmarshalResult(dataJSON)
}

// GetLatestResult retrieves the most recent result for a repository
func (s *postgresStorage) GetLatestResult(ctx context.Context, repository string) (*domain.CollectionResult, error) {
	var dataJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM results WHERE repository = $1 ORDER BY collected_at DESC LIMIT 1
	`, repository).Scan(&dataJSON)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("result for " + repository)
	}
	if err != nil {
		return nil, err
	}
	return unmarshalResult(dataJSON)
}

// ListResults retrieves results for a repository, most recent first
func (s *postgresStorage) ListResults(ctx context.Context, repository string, limit int) ([]*domain.CollectionResult, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM results WHERE repository = $1 ORDER BY collected_at DESC LIMIT $2
	`, repository, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.CollectionResult
	for rows.Next() {
		var dataJSON string
		if err := rows.Scan(&dataJSON); err != nil {
			return nil, err
		}
		result, err := unmarshalResult(dataJSON)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// SaveSnapshot saves a historical snapshot
func (s *postgresStorage) SaveSnapshot(ctx context.Context, snapshot *domain.HistoricalSnapshot) error {
	dataJSON, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO snapshots (repository, collected_at, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (repository, collected_at) DO UPDATE SET data = EXCLUDED.data
	`
	_, err = s.db.ExecContext(ctx, query, snapshot.Repository, snapshot.CollectedAt, string(dataJSON))
	return err
}

// GetTimeSeries retrieves snapshots in [from, to], oldest first
func (s *postgresStorage) GetTimeSeries(ctx context.Context, repository string, from, to time.Time) ([]*domain.HistoricalSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM snapshots
		WHERE repository = $1 AND collected_at >= $2 AND collected_at <= $3
		ORDER BY collected_at ASC
	`, repository, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*domain.HistoricalSnapshot
	for rows.Next() {
		var dataJSON string
		if err := rows.Scan(&dataJSON); err != nil {
			return nil, err
		}
		var snapshot domain.HistoricalSnapshot
		if err := json.Unmarshal([]byte(dataJSON), &snapshot); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, &snapshot)
	}
	return snapshots, rows.Err()
}

// Close closes the database connection
func (s *postgresStorage) Close() error {
	return s.db.Close()
}

func unmarshalResult(dataJSON string) (*domain.CollectionResult, error) {
	var result domain.CollectionResult
	if err := json.Unmarshal([]byte(dataJSON), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
