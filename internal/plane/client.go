// Package plane is a read-only client for the Plane.so tracker API. The
// Settings view uses it to list selectable projects and workflow states;
// nothing here ever writes to the tracker or persists credentials.
package plane

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// requestTimeout bounds every call. Picker fetches are interactive; a
// slow tracker should fail fast rather than hang the Settings view.
const requestTimeout = 3 * time.Second

// ErrNoAPIKey is returned when no token could be resolved.
var ErrNoAPIKey = errors.New("plane API key not configured (set PLANE_API_KEY or .claude/prp-secrets.env)")

// Option is one selectable remote entity. Ephemeral: fetched on demand,
// never persisted.
type Option struct {
	ID          string
	DisplayName string
}

// Client issues authenticated GETs against a Plane workspace.
type Client struct {
	baseURL   string
	workspace string
	apiKey    string
	http      *http.Client
}

// NewClient creates a client for one workspace. baseURL is the API root
// (e.g. https://api.plane.so/api/v1); the key is held in memory only.
func NewClient(baseURL, workspace, apiKey string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		workspace: workspace,
		apiKey:    apiKey,
		http:      &http.Client{Timeout: requestTimeout},
	}
}

// ListProjects fetches the workspace's projects.
func (c *Client) ListProjects(ctx context.Context) ([]Option, error) {
	return c.list(ctx, fmt.Sprintf("/workspaces/%s/projects/", c.workspace))
}

// ListStates fetches the workflow states of one project.
func (c *Client) ListStates(ctx context.Context, projectID string) ([]Option, error) {
	return c.list(ctx, fmt.Sprintf("/workspaces/%s/projects/%s/states/", c.workspace, projectID))
}

func (c *Client) list(ctx context.Context, path string) ([]Option, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if c.workspace == "" {
		return nil, errors.New("plane workspace slug not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("plane request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("plane API returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return decodeOptions(body)
}

// entity is the subset of a Plane project/state record the picker needs.
type entity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// decodeOptions parses either a paginated {"results": [...]} envelope or
// a bare array, rejecting anything malformed rather than returning a
// partial list.
func decodeOptions(body []byte) ([]Option, error) {
	var envelope struct {
		Results []entity `json:"results"`
	}
	var records []entity

	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Results != nil {
		records = envelope.Results
	} else if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("malformed plane response: %w", err)
	}

	opts := make([]Option, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			return nil, errors.New("malformed plane response: record without id")
		}
		name := rec.Name
		if name == "" {
			name = rec.ID
		}
		opts = append(opts, Option{ID: rec.ID, DisplayName: name})
	}
	return opts, nil
}
