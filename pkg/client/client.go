package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kslabenko/repo-quality-metrics/internal/domain"
	"github.com/kslabenko/repo-quality-metrics/internal/predictor"
)

// Client is the API client for repo-quality-metrics
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute, // live collections are slow
		},
	}
}

// CollectRequest describes one repository to collect.
type CollectRequest struct {
	Owner       string `json:"owner"`
	Repo        string `json:"repo"`
	ProjectType string `json:"project_type,omitempty"`
	OpenSource  *bool  `json:"open_source,omitempty"`
	AsOf        string `json:"as_of,omitempty"`
	Mock        bool   `json:"mock,omitempty"`
}

// Collect runs a collection for one repository
func (c *Client) Collect(req CollectRequest) (*domain.CollectionResult, error) {
	var response struct {
		Data *domain.CollectionResult `json:"data"`
	}
	if err := c.post("/api/v1/collect", req, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// CollectBatch runs collections for several repositories
func (c *Client) CollectBatch(reqs []CollectRequest) ([]*domain.CollectionResult, error) {
	body := map[string]interface{}{"repositories": reqs}

	var response struct {
		Data []*domain.CollectionResult `json:"data"`
	}
	if err := c.post("/api/v1/collect/batch", body, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// CollectTimeSeries collects one snapshot per date (YYYY-MM-DD each)
func (c *Client) CollectTimeSeries(owner, repo string, dates []string) ([]*domain.CollectionResult, error) {
	body := map[string]interface{}{
		"owner": owner,
		"repo":  repo,
		"dates": dates,
	}

	var response struct {
		Data []*domain.CollectionResult `json:"data"`
	}
	if err := c.post("/api/v1/collect/timeseries", body, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetResult retrieves one stored result by ID
func (c *Client) GetResult(id string) (*domain.CollectionResult, error) {
	var response struct {
		Data *domain.CollectionResult `json:"data"`
	}
	if err := c.get(fmt.Sprintf("/api/v1/results/%s", id), nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListResults retrieves stored results for a repository, most recent first
func (c *Client) ListResults(owner, repo string, limit int) ([]*domain.CollectionResult, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	var response struct {
		Data []*domain.CollectionResult `json:"data"`
	}
	if err := c.get(fmt.Sprintf("/api/v1/repos/%s/%s/results", owner, repo), params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetLatestResult retrieves the most recent result for a repository
func (c *Client) GetLatestResult(owner, repo string) (*domain.CollectionResult, error) {
	var response struct {
		Data *domain.CollectionResult `json:"data"`
	}
	if err := c.get(fmt.Sprintf("/api/v1/repos/%s/%s/results/latest", owner, repo), nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetTimeSeries retrieves stored snapshots in [from, to]
func (c *Client) GetTimeSeries(owner, repo string, from, to time.Time) ([]*domain.HistoricalSnapshot, error) {
	params := url.Values{}
	if !from.IsZero() {
		params.Set("from", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		params.Set("to", to.Format("2006-01-02"))
	}

	var response struct {
		Data []*domain.HistoricalSnapshot `json:"data"`
	}
	if err := c.get(fmt.Sprintf("/api/v1/repos/%s/%s/timeseries", owner, repo), params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// Predict answers a quality prediction from the latest stored result
func (c *Client) Predict(owner, repo string) (*predictor.Prediction, error) {
	body := map[string]interface{}{"owner": owner, "repo": repo}

	var response struct {
		Data struct {
			Predictions *predictor.Prediction `json:"predictions"`
		} `json:"data"`
	}
	if err := c.post("/api/v1/predict", body, &response); err != nil {
		return nil, err
	}
	return response.Data.Predictions, nil
}

// WhatIf answers a what-if analysis with the given prefixed metric changes
func (c *Client) WhatIf(owner, repo string, changes map[string]float64) (map[string]predictor.WhatIfTarget, error) {
	body := map[string]interface{}{"owner": owner, "repo": repo, "whatif": changes}

	var response struct {
		Data struct {
			Analysis map[string]predictor.WhatIfTarget `json:"analysis"`
		} `json:"data"`
	}
	if err := c.post("/api/v1/predict", body, &response); err != nil {
		return nil, err
	}
	return response.Data.Analysis, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get("/health", nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) get(path string, params url.Values, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	resp, err := c.httpClient.Get(u.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) post(path string, body, result interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(respBody))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
