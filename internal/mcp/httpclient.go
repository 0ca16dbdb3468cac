package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for stdio MCP mode where the binary runs next to the assistant but
// the history lives on the server (often reached over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// may be empty when the server does not require one.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, v any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) ListCompletedWorkouts(ctx context.Context, start, end time.Time) ([]models.WorkoutSummary, error) {
	var workouts []models.WorkoutSummary
	if err := c.get(ctx, "/api/v1/workouts", timeParams(start, end), &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (c *HTTPClient) GetCompletedWorkout(ctx context.Context, id uuid.UUID) (*models.CompletedWorkout, error) {
	var w models.CompletedWorkout
	if err := c.get(ctx, "/api/v1/workouts/"+id.String(), nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *HTTPClient) GetWorkoutStats(ctx context.Context, start, end time.Time) (*models.WorkoutStats, error) {
	var stats models.WorkoutStats
	if err := c.get(ctx, "/api/v1/workouts/stats", timeParams(start, end), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) ListTemplates(ctx context.Context) ([]models.Template, error) {
	var templates []models.Template
	if err := c.get(ctx, "/api/v1/templates", nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (c *HTTPClient) AllPrevious(ctx context.Context, name string) ([]models.Previous, error) {
	var prev []models.Previous
	if err := c.get(ctx, "/api/v1/exercises/previous", url.Values{"name": {name}}, &prev); err != nil {
		return nil, err
	}
	return prev, nil
}

func (c *HTTPClient) History(ctx context.Context, name string, limit int) ([]models.ExerciseHistoryEntry, error) {
	params := url.Values{"name": {name}, "limit": {strconv.Itoa(limit)}}
	var entries []models.ExerciseHistoryEntry
	if err := c.get(ctx, "/api/v1/exercises/history", params, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *HTTPClient) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	params := url.Values{"prefix": {prefix}, "limit": {strconv.Itoa(limit)}}
	var names []string
	if err := c.get(ctx, "/api/v1/exercises/suggest", params, &names); err != nil {
		return nil, err
	}
	return names, nil
}
