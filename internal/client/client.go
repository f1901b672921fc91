// Package client calls the fichatreino REST API. It backs the CLI and the
// remote MCP mode, where the binary runs locally and the session lives on
// the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/fichatreino/internal/catalog"
	"github.com/meltforce/fichatreino/internal/journal"
	"github.com/meltforce/fichatreino/internal/models"
	"github.com/meltforce/fichatreino/internal/workspace"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Client talks to a running fichatreino server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client targeting the given base URL. AI operations can run
// for as long as the server's AI timeout, so the HTTP timeout is generous.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 3 * time.Minute},
	}
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any) ([]byte, http.Header, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("client: marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("client: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("client: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			apiErr.Message = body.Error
		}
		return nil, nil, apiErr
	}
	return data, resp.Header, nil
}

// state performs a request answered with the session state.
func (c *Client) state(ctx context.Context, method, path string, params url.Values, body any) (workspace.State, error) {
	data, _, err := c.do(ctx, method, path, params, body)
	if err != nil {
		return workspace.State{}, err
	}
	var st workspace.State
	if err := json.Unmarshal(data, &st); err != nil {
		return workspace.State{}, fmt.Errorf("client: decode state: %w", err)
	}
	return st, nil
}

func waitParams(wait bool) url.Values {
	if !wait {
		return nil
	}
	return url.Values{"wait": {"true"}}
}

func (c *Client) State(ctx context.Context) (workspace.State, error) {
	return c.state(ctx, http.MethodGet, "/api/v1/state", nil, nil)
}

func (c *Client) Catalog(ctx context.Context) ([]catalog.Group, error) {
	data, _, err := c.do(ctx, http.MethodGet, "/api/v1/catalog", nil, nil)
	if err != nil {
		return nil, err
	}
	var groups []catalog.Group
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("client: decode catalog: %w", err)
	}
	return groups, nil
}

func (c *Client) Login(ctx context.Context, teacher string) (workspace.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/login", nil, map[string]string{"name": teacher})
}

func (c *Client) Logout(ctx context.Context) (workspace.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/logout", nil, nil)
}

func (c *Client) SelectStudent(ctx context.Context, name string) (workspace.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/students/select", nil, map[string]string{"name": name})
}

func (c *Client) Back(ctx context.Context) (workspace.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/back", nil, nil)
}

func (c *Client) SelectMuscleGroup(ctx context.Context, group string) (workspace.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/muscle-group", nil, map[string]string{"group": group})
}

// SelectExercise selects name and waits for its enrichment.
func (c *Client) SelectExercise(ctx context.Context, name string) (workspace.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/exercise", waitParams(true), map[string]string{"name": name})
}

// StartExercise selects name and returns the placeholder state at once.
func (c *Client) StartExercise(ctx context.Context, name string) (workspace.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/exercise", nil, map[string]string{"name": name})
}

func (c *Client) GenerateCue(ctx context.Context) (workspace.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/cue", waitParams(true), nil)
}

func (c *Client) UpdateProfile(ctx context.Context, p models.Profile) (workspace.State, error) {
	return c.state(ctx, http.MethodPut, "/api/v1/profile", nil, p)
}

func (c *Client) CloseIntake(ctx context.Context) (workspace.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/intake/close", nil, nil)
}

// RequestPlan asks for a periodization report and waits for it. The
// bio-insight may still be loading when it returns.
func (c *Client) RequestPlan(ctx context.Context) (workspace.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/periodization", waitParams(true), nil)
}

func (c *Client) CloseReport(ctx context.Context) (workspace.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/report/close", nil, nil)
}

// Report fetches the periodization report as json, markdown or html.
func (c *Client) Report(ctx context.Context, format string) (string, error) {
	params := url.Values{}
	if format != "" {
		params.Set("format", format)
	}
	data, _, err := c.do(ctx, http.MethodGet, "/api/v1/report", params, nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Image fetches the illustration of the selected exercise.
func (c *Client) Image(ctx context.Context) (*models.Image, error) {
	data, header, err := c.do(ctx, http.MethodGet, "/api/v1/image", nil, nil)
	if err != nil {
		return nil, err
	}
	return &models.Image{MIMEType: header.Get("Content-Type"), Bytes: data}, nil
}

func (c *Client) OpenAddDialog(ctx context.Context) (workspace.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/workout/dialog", nil, map[string]string{})
}

func (c *Client) OpenEditDialog(ctx context.Context, id string) (workspace.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/workout/dialog", nil, map[string]string{"id": id})
}

func (c *Client) SetBuffer(ctx context.Context, d models.Dosage) (workspace.State, error) {
	return c.state(ctx, http.MethodPut, "/api/v1/workout/dialog/buffer", nil, d)
}

func (c *Client) Confirm(ctx context.Context) (workspace.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/workout/dialog/confirm", nil, nil)
}

func (c *Client) CancelDialog(ctx context.Context) (workspace.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/workout/dialog/cancel", nil, nil)
}

func (c *Client) Remove(ctx context.Context, id string) (workspace.State, error) {
	return c.state(ctx, http.MethodDelete, "/api/v1/workout/entries/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CycleName(ctx context.Context) (workspace.State, error) {
	return c.state(ctx, http.MethodPost, "/api/v1/workout/cycle-name", nil, nil)
}

func (c *Client) SetDefaults(ctx context.Context, d models.Dosage) (workspace.State, error) {
	return c.state(ctx, http.MethodPut, "/api/v1/workout/defaults", nil, d)
}

// Export renders the ficha on the server in the given format.
func (c *Client) Export(ctx context.Context, format string) (string, error) {
	params := url.Values{}
	if format != "" {
		params.Set("format", format)
	}
	data, _, err := c.do(ctx, http.MethodGet, "/api/v1/workout/export", params, nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Client) Journal(ctx context.Context, limit int) ([]journal.Entry, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	data, _, err := c.do(ctx, http.MethodGet, "/api/v1/journal", params, nil)
	if err != nil {
		return nil, err
	}
	var entries []journal.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("client: decode journal: %w", err)
	}
	return entries, nil
}
