package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kslabenko/repo-quality-metrics/internal/collector"
	"github.com/kslabenko/repo-quality-metrics/internal/domain"
	apperrors "github.com/kslabenko/repo-quality-metrics/internal/errors"
	"github.com/kslabenko/repo-quality-metrics/internal/predictor"
	"github.com/kslabenko/repo-quality-metrics/internal/scoring"
	"github.com/kslabenko/repo-quality-metrics/internal/storage"
)

// Handler handles API requests
type Handler struct {
	collector *collector.Collector
	store     storage.Storage
	predictor predictor.Predictor
}

// NewHandler creates a new API handler. The predictor may be nil when no
// prediction script is configured.
func NewHandler(c *collector.Collector, store storage.Storage, p predictor.Predictor) *Handler {
	return &Handler{
		collector: c,
		store:     store,
		predictor: p,
	}
}

// collectRequest is the body for single-repository collection
type collectRequest struct {
	Owner       string `json:"owner" binding:"required"`
	Repo        string `json:"repo" binding:"required"`
	ProjectType string `json:"project_type"`
	OpenSource  *bool  `json:"open_source"`
	AsOf        string `json:"as_of"` // YYYY-MM-DD, empty means now
	Mock        bool   `json:"mock"`
}

func (r *collectRequest) spec() domain.RepoSpec {
	openSource := true
	if r.OpenSource != nil {
		openSource = *r.OpenSource
	}
	projectType := domain.ProjectTypeApplication
	if r.ProjectType != "" {
		projectType = domain.ProjectType(r.ProjectType)
	}
	return domain.RepoSpec{
		Owner:        r.Owner,
		Name:         r.Repo,
		ProjectType:  projectType,
		IsOpenSource: openSource,
	}
}

// Collect runs a collection for one repository and stores the result
// POST /api/v1/collect
func (h *Handler) Collect(c *gin.Context) {
	var req collectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	var result *domain.CollectionResult
	if req.Mock {
		result = collector.MockResult(req.spec(), time.Now())
	} else if req.AsOf != "" {
		asOf, err := time.Parse("2006-01-02", req.AsOf)
		if err != nil {
			respondError(c, apperrors.NewBadRequestError("as_of must be YYYY-MM-DD"))
			return
		}
		result, err = h.collector.CollectAt(c.Request.Context(), req.spec(), asOf)
		if err != nil {
			respondError(c, err)
			return
		}
	} else {
		var err error
		result, err = h.collector.Collect(c.Request.Context(), req.spec())
		if err != nil {
			respondError(c, err)
			return
		}
	}

	if err := h.store.SaveResult(c.Request.Context(), result); err != nil {
		respondError(c, apperrors.NewStorageError("failed to save result", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": result,
	})
}

// batchRequest is the body for batch collection
type batchRequest struct {
	Repositories []collectRequest `json:"repositories" binding:"required,min=1"`
}

// CollectBatch runs collections for several repositories
// POST /api/v1/collect/batch
func (h *Handler) CollectBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	specs := make([]domain.RepoSpec, 0, len(req.Repositories))
	for _, r := range req.Repositories {
		specs = append(specs, r.spec())
	}

	results, err := h.collector.CollectBatch(c.Request.Context(), specs)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.store.SaveResults(c.Request.Context(), results); err != nil {
		respondError(c, apperrors.NewStorageError("failed to save results", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": results,
	})
}

// timeSeriesRequest is the body for historical time-series collection
type timeSeriesRequest struct {
	Owner       string   `json:"owner" binding:"required"`
	Repo        string   `json:"repo" binding:"required"`
	ProjectType string   `json:"project_type"`
	OpenSource  *bool    `json:"open_source"`
	Dates       []string `json:"dates" binding:"required,min=1"` // YYYY-MM-DD each
}

// CollectTimeSeries collects one snapshot per requested date
// POST /api/v1/collect/timeseries
func (h *Handler) CollectTimeSeries(c *gin.Context) {
	var req timeSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	dates := make([]time.Time, 0, len(req.Dates))
	for _, s := range req.Dates {
		date, err := time.Parse("2006-01-02", s)
		if err != nil {
			respondError(c, apperrors.NewBadRequestError("dates must be YYYY-MM-DD"))
			return
		}
		dates = append(dates, date)
	}

	base := collectRequest{Owner: req.Owner, Repo: req.Repo, ProjectType: req.ProjectType, OpenSource: req.OpenSource}
	results, err := h.collector.CollectTimeSeries(c.Request.Context(), base.spec(), dates)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.store.SaveResults(c.Request.Context(), results); err != nil {
		respondError(c, apperrors.NewStorageError("failed to save results", err))
		return
	}
	for _, result := range results {
		snapshot := result.Snapshot()
		if err := h.store.SaveSnapshot(c.Request.Context(), &snapshot); err != nil {
			respondError(c, apperrors.NewStorageError("failed to save snapshot", err))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": results,
	})
}

// GetResult returns one stored result by ID
// GET /api/v1/results/:id
func (h *Handler) GetResult(c *gin.Context) {
	result, err := h.store.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": result,
	})
}

// ListResults returns stored results for a repository, most recent first
// GET /api/v1/repos/:owner/:repo/results
func (h *Handler) ListResults(c *gin.Context) {
	repository := c.Param("owner") + "/" + c.Param("repo")
	limit := parseIntQuery(c, "limit", 20)

	results, err := h.store.ListResults(c.Request.Context(), repository, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": results,
	})
}

// GetLatestResult returns the most recent result for a repository
// GET /api/v1/repos/:owner/:repo/results/latest
func (h *Handler) GetLatestResult(c *gin.Context) {
	repository := c.Param("owner") + "/" + c.Param("repo")

	result, err := h.store.GetLatestResult(c.Request.Context(), repository)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": result,
	})
}

// GetTimeSeries returns stored snapshots for a repository in a date range
// GET /api/v1/repos/:owner/:repo/timeseries
func (h *Handler) GetTimeSeries(c *gin.Context) {
	repository := c.Param("owner") + "/" + c.Param("repo")
	from, to := parseDateRange(c)

	snapshots, err := h.store.GetTimeSeries(c.Request.Context(), repository, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": snapshots,
	})
}

// GetCoverage returns the metric coverage report for the latest result
// GET /api/v1/repos/:owner/:repo/coverage
func (h *Handler) GetCoverage(c *gin.Context) {
	repository := c.Param("owner") + "/" + c.Param("repo")

	result, err := h.store.GetLatestResult(c.Request.Context(), repository)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": scoring.NewCoverageReport(result.Metrics),
	})
}

// predictRequest is the body for quality prediction
type predictRequest struct {
	Owner  string             `json:"owner" binding:"required"`
	Repo   string             `json:"repo" binding:"required"`
	WhatIf map[string]float64 `json:"whatif"`
}

// Predict answers a quality prediction for the latest stored result
// POST /api/v1/predict
func (h *Handler) Predict(c *gin.Context) {
	if h.predictor == nil {
		respondError(c, apperrors.NewBadRequestError("no prediction script configured"))
		return
	}

	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	result, err := h.store.GetLatestResult(c.Request.Context(), req.Owner+"/"+req.Repo)
	if err != nil {
		respondError(c, err)
		return
	}

	if len(req.WhatIf) > 0 {
		analysis, err := h.predictor.WhatIf(c.Request.Context(), result.Metrics, req.WhatIf)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"data": gin.H{"type": "whatif", "analysis": analysis},
		})
		return
	}

	prediction, err := h.predictor.Predict(c.Request.Context(), result.Metrics)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{"type": "prediction", "predictions": prediction},
	})
}

// HealthCheck returns the health status of the API
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// parseDateRange parses from/to query parameters, defaulting to the last year
func parseDateRange(c *gin.Context) (time.Time, time.Time) {
	now := time.Now()
	from := now.AddDate(-1, 0, 0)
	to := now

	if s := c.Query("from"); s != "" {
		if parsed, err := time.Parse("2006-01-02", s); err == nil {
			from = parsed
		}
	}
	if s := c.Query("to"); s != "" {
		if parsed, err := time.Parse("2006-01-02", s); err == nil {
			to = parsed
		}
	}
	return from, to
}

// parseIntQuery parses an integer query parameter with a default
func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

// respondError sends an error response with an appropriate status code
func respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodeRateLimited:
			status = http.StatusTooManyRequests
		case apperrors.ErrCodeDataSource:
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": err.Error(),
		},
	})
}
