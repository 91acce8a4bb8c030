package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

// BundleStats are the published bundle sizes for an npm package, in bytes.
type BundleStats struct {
	Size int `json:"size"`
	Gzip int `json:"gzip"`
}

// Probes reach the auxiliary metric services: bundlephobia for bundle size,
// the npm registry for download counts and codecov for test coverage. Every
// probe degrades to an error the caller treats as "no data".
type Probes struct {
	httpClient      *http.Client
	bundlephobiaURL string
	npmURL          string
	codecovURL      string
}

// NewProbes creates probes against the public service endpoints.
func NewProbes() *Probes {
	return &Probes{
		httpClient:      &http.Client{Timeout: 15 * time.Second},
		bundlephobiaURL: "https://bundlephobia.com",
		npmURL:          "https://api.npmjs.org",
		codecovURL:      "https://codecov.io",
	}
}

// BundleSize fetches the minified and gzipped bundle size for a package.
func (p *Probes) BundleSize(ctx context.Context, pkg string) (*BundleStats, error) {
	u := fmt.Sprintf("%s/api/size?package=%s", p.bundlephobiaURL, url.QueryEscape(pkg))

	var stats BundleStats
	if err := p.getJSON(ctx, u, &stats); err != nil {
		return nil, sourceErr("bundlephobia", "failed to fetch bundle size for "+pkg, err)
	}
	return &stats, nil
}

// NpmMonthlyDownloads fetches last-month download counts for a package.
func (p *Probes) NpmMonthlyDownloads(ctx context.Context, pkg string) (int, error) {
	u := fmt.Sprintf("%s/downloads/point/last-month/%s", p.npmURL, url.PathEscape(pkg))

	var payload struct {
		Downloads int `json:"downloads"`
	}
	if err := p.getJSON(ctx, u, &payload); err != nil {
		return 0, sourceErr("npm_registry", "failed to fetch downloads for "+pkg, err)
	}
	return payload.Downloads, nil
}

// CodecovCoverage fetches the repository's reported coverage percentage.
func (p *Probes) CodecovCoverage(ctx context.Context, owner, repo string) (float64, error) {
	u := fmt.Sprintf("%s/api/v2/github/%s/repos/%s", p.codecovURL, url.PathEscape(owner), url.PathEscape(repo))

	var payload struct {
		Totals struct {
			Coverage *float64 `json:"coverage"`
		} `json:"totals"`
	}
	if err := p.getJSON(ctx, u, &payload); err != nil {
		return 0, sourceErr("codecov", "failed to fetch coverage for "+owner+"/"+repo, err)
	}
	if payload.Totals.Coverage == nil {
		return 0, sourceErr("codecov", "no coverage reported for "+owner+"/"+repo, nil)
	}
	return *payload.Totals.Coverage, nil
}

func (p *Probes) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "repo-quality-metrics/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Coverage badge patterns found in README files, checked in order.
var coverageBadgePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)coverage[:\s]*(\d+(?:\.\d+)?)%`),
	regexp.MustCompile(`(?i)codecov\.io.*?(\d+(?:\.\d+)?)%`),
	regexp.MustCompile(`(?i)coveralls\.io.*?(\d+(?:\.\d+)?)%`),
}

// ParseCoverageBadge extracts a coverage percentage from README content,
// returning false when no plausible badge is found.
func ParseCoverageBadge(readme string) (float64, bool) {
	for _, pattern := range coverageBadgePatterns {
		match := pattern.FindStringSubmatch(readme)
		if len(match) < 2 {
			continue
		}
		var value float64
		if _, err := fmt.Sscanf(match[1], "%f", &value); err != nil {
			continue
		}
		if value >= 0 && value <= 100 {
			return value, true
		}
	}
	return 0, false
}
