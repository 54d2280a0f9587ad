// Package client is the submission client agents use against the
// grading API. Network flakiness between an agent sandbox and the
// harness is routine, so Submit retries with bounded backoff; grading a
// submission can itself take minutes of kubectl churn, hence the long
// default timeout.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout = 5 * time.Minute
	maxAttempts    = 3
)

// Client is a minimal grading API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// sleep is swapped in tests to skip real backoff waits.
	sleep func(time.Duration)
}

// New creates a client with the harness's timeout discipline.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		sleep:      time.Sleep,
	}
}

// SubmitResult is the grading verdict for one submission.
type SubmitResult struct {
	Result string `json:"result"`
	Stage  string `json:"stage"`
}

// StageStatus reports the protocol position.
type StageStatus struct {
	ProblemID string `json:"problem_id"`
	Stage     string `json:"stage"`
}

// Results is the accumulated per-stage outcome map.
type Results struct {
	ProblemID string         `json:"problem_id"`
	RunID     string         `json:"run_id"`
	Results   map[string]any `json:"results"`
}

// Submit posts one wrapped command, retrying transient failures up to
// three attempts with backoff of min(5*attempt, 30) seconds.
func (c *Client) Submit(ctx context.Context, wrapped string) (SubmitResult, error) {
	body, err := json.Marshal(map[string]string{"command": wrapped})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("encode submission: %w", err)
	}

	sleep := c.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			sleep(backoff(attempt - 1))
		}

		var out SubmitResult
		lastErr = c.post(ctx, "/submit", body, &out)
		if lastErr == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return SubmitResult{}, ctx.Err()
		}
	}
	return SubmitResult{}, fmt.Errorf("submit after %d attempts: %w", maxAttempts, lastErr)
}

// Stage fetches the current protocol stage.
func (c *Client) Stage(ctx context.Context) (StageStatus, error) {
	var out StageStatus
	if err := c.get(ctx, "/stage", &out); err != nil {
		return StageStatus{}, err
	}
	return out, nil
}

// Results fetches the accumulated results for the current run.
func (c *Client) FetchResults(ctx context.Context) (Results, error) {
	var out Results
	if err := c.get(ctx, "/results", &out); err != nil {
		return Results{}, err
	}
	return out, nil
}

func backoff(attempt int) time.Duration {
	wait := time.Duration(5*attempt) * time.Second
	if wait > 30*time.Second {
		wait = 30 * time.Second
	}
	return wait
}

func (c *Client) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
