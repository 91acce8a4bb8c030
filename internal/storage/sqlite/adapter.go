package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kslabenko/repo-quality-metrics/internal/domain"
	apperrors "github.com/kslabenko/repo-quality-metrics/internal/errors"
	"github.com/kslabenko/repo-quality-metrics/internal/storage"
)

// sqliteStorage implements the Storage interface for SQLite
type sqliteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (storage.Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *sqliteStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		repository TEXT NOT NULL,
		collected_at TIMESTAMP NOT NULL,
		overall_score INTEGER NOT NULL,
		confidence INTEGER NOT NULL,
		data_source TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_results_repository ON results(repository);
	CREATE INDEX IF NOT EXISTS idx_results_collected_at ON results(collected_at);
	CREATE INDEX IF NOT EXISTS idx_results_repo_collected ON results(repository, collected_at);

	CREATE TABLE IF NOT EXISTS snapshots (
		repository TEXT NOT NULL,
		collected_at TIMESTAMP NOT NULL,
		data TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (repository, collected_at)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_repository ON snapshots(repository);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveResult saves a single collection result
func (s *sqliteStorage) SaveResult(ctx context.Context, result *domain.CollectionResult) error {
	dataJSON, err := json.Marshal(result)
	if err != nil {
		return err
	}

	query := `
		INSERT OR REPLACE INTO results (id, repository, collected_at, overall_score, confidence, data_source, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
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
func (s *sqliteStorage) SaveResults(ctx context.Context, results []*domain.CollectionResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO results (id, repository, collected_at, overall_score, confidence, data_source, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
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
func (s *sqliteStorage) GetResult(ctx context.Context, id string) (*domain.CollectionResult, error) {
	var dataJSON string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM results WHERE id = ?`, id).Scan(&dataJSON)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("result " + id)
	}
	if err != nil {
		return nil, err
	}
	return unmarshalResult(dataJSON)
}

// GetLatestResult retrieves the most recent result for a repository
func (s *sqliteStorage) GetLatestResult(ctx context.Context, repository string) (*domain.CollectionResult, error) {
	var dataJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM results WHERE repository = ? ORDER BY collected_at DESC LIMIT 1
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
func (s *sqliteStorage) ListResults(ctx context.Context, repository string, limit int) ([]*domain.CollectionResult, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM results WHERE repository = ? ORDER BY collected_at DESC LIMIT ?
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
func (s *sqliteStorage) SaveSnapshot(ctx context.Context, snapshot *domain.HistoricalSnapshot) error {
	dataJSON, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	query := `
		INSERT OR REPLACE INTO snapshots (repository, collected_at, data)
		VALUES (?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query, snapshot.Repository, snapshot.CollectedAt, string(dataJSON))
	return err
}

// GetTimeSeries retrieves snapshots in [from, to], oldest first
func (s *sqliteStorage) GetTimeSeries(ctx context.Context, repository string, from, to time.Time) ([]*domain.HistoricalSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM snapshots
		WHERE repository = ? AND collected_at >= ? AND collected_at <= ?
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
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

func unmarshalResult(dataJSON string) (*domain.CollectionResult, error) {
	var result domain.CollectionResult
	if err := json.Unmarshal([]byte(dataJSON), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
