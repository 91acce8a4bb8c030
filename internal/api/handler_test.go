package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kslabenko/repo-quality-metrics/internal/collector"
	"github.com/kslabenko/repo-quality-metrics/internal/domain"
	apperrors "github.com/kslabenko/repo-quality-metrics/internal/errors"
	"github.com/kslabenko/repo-quality-metrics/internal/predictor"
	"github.com/kslabenko/repo-quality-metrics/internal/source"
)

// memoryStorage is an in-memory Storage for handler tests.
type memoryStorage struct {
	results   map[string]*domain.CollectionResult
	byRepo    map[string][]*domain.CollectionResult
	snapshots map[string][]*domain.HistoricalSnapshot
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		results:   make(map[string]*domain.CollectionResult),
		byRepo:    make(map[string][]*domain.CollectionResult),
		snapshots: make(map[string][]*domain.HistoricalSnapshot),
	}
}

func (m *memoryStorage) SaveResult(ctx context.Context, result *domain.CollectionResult) error {
	m.results[result.ID] = result
	m.byRepo[result.Repository] = append(m.byRepo[result.Repository], result)
	return nil
}

func (m *memoryStorage) SaveResults(ctx context.Context, results []*domain.CollectionResult) error {
	for _, result := range results {
		if err := m.SaveResult(ctx, result); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryStorage) GetResult(ctx context.Context, id string) (*domain.CollectionResult, error) {
	result, ok := m.results[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("result")
	}
	return result, nil
}

func (m *memoryStorage) GetLatestResult(ctx context.Context, repository string) (*domain.CollectionResult, error) {
	results := m.byRepo[repository]
	if len(results) == 0 {
		return nil, apperrors.NewNotFoundError("result")
	}
	return results[len(results)-1], nil
}

func (m *memoryStorage) ListResults(ctx context.Context, repository string, limit int) ([]*domain.CollectionResult, error) {
	results := m.byRepo[repository]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *memoryStorage) SaveSnapshot(ctx context.Context, snapshot *domain.HistoricalSnapshot) error {
	m.snapshots[snapshot.Repository] = append(m.snapshots[snapshot.Repository], snapshot)
	return nil
}

func (m *memoryStorage) GetTimeSeries(ctx context.Context, repository string, from, to time.Time) ([]*domain.HistoricalSnapshot, error) {
	var out []*domain.HistoricalSnapshot
	for _, snap := range m.snapshots[repository] {
		if !snap.CollectedAt.Before(from) && !snap.CollectedAt.After(to) {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (m *memoryStorage) Migrate(ctx context.Context) error { return nil }
func (m *memoryStorage) Close() error                      { return nil }

func testRouter(store *memoryStorage, p predictor.Predictor) *gin.Engine {
	gin.SetMode(gin.TestMode)

	merged := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	src := &source.StaticSource{
		Repo: &domain.Repository{Owner: "acme", Name: "widgets", FullName: "acme/widgets", Language: "Go", Stars: 100, SizeKB: 500},
		PRs: []domain.PullRequest{
			{Number: 1, State: domain.PullRequestMerged, Author: "alice", CreatedAt: merged.Add(-6 * time.Hour), MergedAt: &merged, Commits: 1},
		},
	}

	c := collector.New(func(domain.RepoSpec) source.DataSource { return src }, collector.Options{
		Pacer: source.NopPacer{},
		Quiet: true,
	})
	return SetupRoutes(NewHandler(c, store, p))
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := testRouter(newMemoryStorage(), nil)
	w := doRequest(router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestCollectEndpoint(t *testing.T) {
	store := newMemoryStorage()
	router := testRouter(store, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/collect", gin.H{
		"owner": "acme",
		"repo":  "widgets",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data domain.CollectionResult `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "acme/widgets", resp.Data.Repository)
	assert.Equal(t, domain.SourceExternal, resp.Data.DataSource)

	// The result lands in storage.
	assert.Len(t, store.byRepo["acme/widgets"], 1)
}

func TestCollectEndpointMock(t *testing.T) {
	store := newMemoryStorage()
	router := testRouter(store, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/collect", gin.H{
		"owner": "acme",
		"repo":  "widgets",
		"mock":  true,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data domain.CollectionResult `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.SourceMock, resp.Data.DataSource)
	assert.Equal(t, 93, resp.Data.OverallScore)
}

func TestCollectEndpointValidation(t *testing.T) {
	router := testRouter(newMemoryStorage(), nil)

	t.Run("missing repo", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/v1/collect", gin.H{"owner": "acme"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "BAD_REQUEST")
	})

	t.Run("malformed as_of", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/v1/collect", gin.H{
			"owner": "acme",
			"repo":  "widgets",
			"as_of": "June 1st",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCollectBatchEndpoint(t *testing.T) {
	store := newMemoryStorage()
	router := testRouter(store, nil)

	t.Run("empty batch rejected", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/v1/collect/batch", gin.H{"repositories": []gin.H{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("batch collects every repository", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/v1/collect/batch", gin.H{
			"repositories": []gin.H{
				{"owner": "acme", "repo": "widgets"},
				{"owner": "acme", "repo": "gadgets"},
			},
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data []domain.CollectionResult `json:"data"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Data, 2)
	})
}

func TestCollectTimeSeriesEndpoint(t *testing.T) {
	store := newMemoryStorage()
	router := testRouter(store, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/collect/timeseries", gin.H{
		"owner": "acme",
		"repo":  "widgets",
		"dates": []string{"2024-06-03", "2024-06-10"},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Each date produces both a stored result and a snapshot.
	assert.Len(t, store.byRepo["acme/widgets"], 2)
	assert.Len(t, store.snapshots["acme/widgets"], 2)
}

func TestGetResultEndpoint(t *testing.T) {
	store := newMemoryStorage()
	result := &domain.CollectionResult{ID: "r1", Repository: "acme/widgets", OverallScore: 72}
	store.SaveResult(context.Background(), result)

	router := testRouter(store, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/results/r1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/results/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestListAndLatestEndpoints(t *testing.T) {
	store := newMemoryStorage()
	store.SaveResult(context.Background(), &domain.CollectionResult{ID: "r1", Repository: "acme/widgets", OverallScore: 60})
	store.SaveResult(context.Background(), &domain.CollectionResult{ID: "r2", Repository: "acme/widgets", OverallScore: 75})

	router := testRouter(store, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/repos/acme/widgets/results", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var listResp struct {
		Data []domain.CollectionResult `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Len(t, listResp.Data, 2)

	w = doRequest(router, http.MethodGet, "/api/v1/repos/acme/widgets/results/latest", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var latestResp struct {
		Data domain.CollectionResult `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &latestResp))
	assert.Equal(t, "r2", latestResp.Data.ID)
}

func TestGetCoverageEndpoint(t *testing.T) {
	store := newMemoryStorage()
	store.SaveResult(context.Background(), &domain.CollectionResult{
		ID:         "r1",
		Repository: "acme/widgets",
		Metrics: domain.MetricsBundle{
			DeveloperExperience: domain.DeveloperExperience{
				CodeReviewDuration: domain.NewMetric(domain.MetricCodeReviewDuration, 9, "hours", domain.ProvenanceAPI),
			},
		},
	})

	router := testRouter(store, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/repos/acme/widgets/coverage", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_metrics":18`)
	assert.Contains(t, w.Body.String(), `"available_metrics":1`)
}

// stubPredictor answers fixed predictions.
type stubPredictor struct{}

func (stubPredictor) Predict(ctx context.Context, metrics domain.MetricsBundle) (*predictor.Prediction, error) {
	return &predictor.Prediction{OverallScore: 75, TimeToMarket: 3.1, CommunityGrowth: 0.4}, nil
}

func (stubPredictor) WhatIf(ctx context.Context, metrics domain.MetricsBundle, changes map[string]float64) (map[string]predictor.WhatIfTarget, error) {
	return map[string]predictor.WhatIfTarget{
		"overallScore": {Baseline: 70, Predicted: 74, Change: 4, ChangePercent: 5.7},
	}, nil
}

func TestPredictEndpoint(t *testing.T) {
	store := newMemoryStorage()
	store.SaveResult(context.Background(), &domain.CollectionResult{ID: "r1", Repository: "acme/widgets"})

	t.Run("no predictor configured", func(t *testing.T) {
		router := testRouter(store, nil)
		w := doRequest(router, http.MethodPost, "/api/v1/predict", gin.H{"owner": "acme", "repo": "widgets"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("plain prediction", func(t *testing.T) {
		router := testRouter(store, stubPredictor{})
		w := doRequest(router, http.MethodPost, "/api/v1/predict", gin.H{"owner": "acme", "repo": "widgets"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"type":"prediction"`)
		assert.Contains(t, w.Body.String(), `"overallScore":75`)
	})

	t.Run("what-if analysis", func(t *testing.T) {
		router := testRouter(store, stubPredictor{})
		w := doRequest(router, http.MethodPost, "/api/v1/predict", gin.H{
			"owner":  "acme",
			"repo":   "widgets",
			"whatif": gin.H{"dx_codeReviewDuration": 6},
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"type":"whatif"`)
		assert.Contains(t, w.Body.String(), `"baseline":70`)
	})

	t.Run("unknown repository", func(t *testing.T) {
		router := testRouter(store, stubPredictor{})
		w := doRequest(router, http.MethodPost, "/api/v1/predict", gin.H{"owner": "acme", "repo": "unknown"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
