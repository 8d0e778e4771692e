package seeding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	service "github.com/okian/judgeboard/internal/app"
	"github.com/okian/judgeboard/internal/domain/types"
)

// Submission outcomes.
const (
	ResultAccepted  = "accepted"
	ResultDuplicate = "duplicate"
	ResultFailed    = "failed"
)

// Client talks to the judgeboard HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// Health checks that the service answers.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.get(ctx, "/healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

// Submit posts one submission and reports its outcome.
func (c *Client) Submit(ctx context.Context, sub service.Submission) (string, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return ResultFailed, fmt.Errorf("marshal submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scores", bytes.NewReader(body))
	if err != nil {
		return ResultFailed, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return ResultFailed, err
	}
	defer resp.Body.Close()
	msg, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusAccepted:
		return ResultAccepted, nil
	case http.StatusOK:
		return ResultDuplicate, nil
	default:
		return ResultFailed, fmt.Errorf("submit %s: status %d: %s", sub.SubmissionID, resp.StatusCode, bytes.TrimSpace(msg))
	}
}

// Leaderboard fetches the current leaderboard of eventID.
func (c *Client) Leaderboard(ctx context.Context, eventID string) (types.Leaderboard, error) {
	var lb types.Leaderboard
	resp, err := c.get(ctx, "/events/"+url.PathEscape(eventID)+"/leaderboard")
	if err != nil {
		return lb, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return lb, fmt.Errorf("leaderboard returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&lb); err != nil {
		return lb, fmt.Errorf("decode leaderboard: %w", err)
	}
	return lb, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	return resp, nil
}
