// Package backend is the HTTP client for the paper store. Every operation
// is a single direct call: failures are reported, never retried.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paperbank/internal/model"
)

const (
	requestTimeout = 30 * time.Second
	bodyExcerptLen = 200
)

// Error reports a non-success status from one backend operation. Op keeps
// the wording distinct per operation so users can tell which call failed
// and that the server, not the AI, is the problem.
type Error struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: backend returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client talks to the backend store under a fixed base URL.
type Client struct {
	httpClient *http.Client
	base       string
}

// New creates a Client. The base URL has any trailing slash trimmed.
func New(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		base:       strings.TrimRight(baseURL, "/"),
	}
}

// ListPapers fetches the papers belonging to an identity, in backend order.
func (c *Client) ListPapers(ctx context.Context, identity string) ([]model.QuestionPaper, error) {
	var papers []model.QuestionPaper
	err := c.getJSON(ctx, "fetch papers", "/api/papers/"+url.PathEscape(identity), &papers)
	if err != nil {
		return nil, err
	}
	return papers, nil
}

// QuestionsByPaper fetches the questions of one paper.
func (c *Client) QuestionsByPaper(ctx context.Context, paperID int64) ([]model.Question, error) {
	var questions []model.Question
	err := c.getJSON(ctx, "fetch questions", fmt.Sprintf("/api/questions/%d", paperID), &questions)
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// SubmitPaper persists a newly extracted paper and returns the assigned ID.
func (c *Client) SubmitPaper(ctx context.Context, sub model.PaperSubmission) (int64, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return 0, fmt.Errorf("marshal paper submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/upload", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("submit paper: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("submit paper: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &Error{Op: "submit paper", StatusCode: resp.StatusCode, Body: truncate(string(raw))}
	}

	var out struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("submit paper: decode response: %w", err)
	}
	return out.ID, nil
}

// Fragment fetches a view's markup from the backend's static route. The
// path already carries the cache-defeating query parameter.
func (c *Client) Fragment(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return "", fmt.Errorf("build fragment request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch view fragment %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fetch view fragment %s: read response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Op: "fetch view fragment " + path, StatusCode: resp.StatusCode}
	}
	return string(raw), nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Op: op, StatusCode: resp.StatusCode, Body: truncate(string(raw))}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= bodyExcerptLen {
		return s
	}
	return s[:bodyExcerptLen] + "..."
}
