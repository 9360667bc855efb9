// Package arcgis fetches permit and appeal records from the city's ArcGIS
// FeatureServer layers and flattens them into domain raw records.
package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jongeeting/development-digest/internal/config"
	"github.com/jongeeting/development-digest/internal/observability"
)

// isoLayout is the timestamp layout the rest of the pipeline sees. Both
// sources render to it, which keeps dedup's lexical comparison valid.
const isoLayout = "2006-01-02T15:04:05"

// Client queries the PERMITS and APPEALS FeatureServer layers.
type Client struct {
	permitsURL string
	appealsURL string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a FeatureServer client with the configured endpoints and
// request timeout.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		permitsURL: cfg.PermitsURL,
		appealsURL: cfg.AppealsURL,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// FeatureServer wire types.

type queryResponse struct {
	Features []queryFeature `json:"features"`
	Error    *serverError   `json:"error"`
}

type queryFeature struct {
	Attributes map[string]any `json:"attributes"`
}

type serverError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// query executes a FeatureServer query and returns each feature's attribute
// map. Millisecond epoch values in attributes whose key contains "date" are
// rewritten to ISO strings so all downstream timestamp handling is uniform.
func (c *Client) query(ctx context.Context, baseURL string, params url.Values) ([]map[string]any, error) {
	if params.Get("f") == "" {
		params.Set("f", "json")
	}
	if params.Get("outFields") == "" {
		params.Set("outFields", "*")
	}
	if params.Get("returnGeometry") == "" {
		params.Set("returnGeometry", "false")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arcgis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("arcgis API error: status %d: %s", resp.StatusCode, body)
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// The FeatureServer reports some failures inside a 200 response.
	if qr.Error != nil {
		return nil, fmt.Errorf("arcgis API error: %s", qr.Error.Message)
	}

	rows := make([]map[string]any, 0, len(qr.Features))
	for _, f := range qr.Features {
		rows = append(rows, normalizeDates(f.Attributes))
	}
	return rows, nil
}

func normalizeDates(attrs map[string]any) map[string]any {
	for key, value := range attrs {
		ms, ok := value.(float64)
		if !ok || ms == 0 {
			continue
		}
		if !strings.Contains(strings.ToLower(key), "date") {
			continue
		}
		attrs[key] = time.UnixMilli(int64(ms)).UTC().Format(isoLayout)
	}
	return attrs
}

// mostRecent queries a layer for its single newest timestamp.
func (c *Client) mostRecent(ctx context.Context, baseURL, dateField string) (time.Time, error) {
	params := url.Values{
		"where":             {"1=1"},
		"outFields":         {dateField},
		"orderByFields":     {dateField + " DESC"},
		"resultRecordCount": {"1"},
	}

	rows, err := c.query(ctx, baseURL, params)
	if err != nil {
		return time.Time{}, err
	}
	if len(rows) == 0 {
		return time.Time{}, fmt.Errorf("no rows for %s", dateField)
	}

	raw, _ := rows[0][dateField].(string)
	return parseTimestamp(raw)
}

// MostRecentPermit returns the newest permit issue timestamp.
func (c *Client) MostRecentPermit(ctx context.Context) (time.Time, error) {
	return c.mostRecent(ctx, c.permitsURL, "permitissuedate")
}

// MostRecentAppeal returns the newest appeal creation timestamp.
func (c *Client) MostRecentAppeal(ctx context.Context) (time.Time, error) {
	return c.mostRecent(ctx, c.appealsURL, "createddate")
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{isoLayout, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
