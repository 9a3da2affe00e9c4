// Package client talks to the planner HTTP API. It implements both
// ports.CommentStore and ports.RoadmapStore so the CLI can drive the
// submission engine and the roadmap board against a deployed API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"silo-planner/application/ports"
	"silo-planner/domain/core/aggregates"
	"silo-planner/domain/core/entities"
	appErrors "silo-planner/pkg/errors"

	"go.uber.org/zap"
)

const storeName = "Planner API"

// Config points the client at a deployment
type Config struct {
	BaseURL string

	// LegacyPaths uses the /.netlify/functions/* routes, for deployments of the original site
	LegacyPaths bool
}

type routes struct {
	getComments, addComment, loadRoadmap, saveRoadmap string
}

var (
	apiRoutes = routes{
		getComments: "/api/comments",
		addComment:  "/api/comments",
		loadRoadmap: "/api/roadmap",
		saveRoadmap: "/api/roadmap",
	}
	legacyRoutes = routes{
		getComments: "/.netlify/functions/get-comments",
		addComment:  "/.netlify/functions/add-comment",
		loadRoadmap: "/.netlify/functions/load-roadmap",
		saveRoadmap: "/.netlify/functions/save-roadmap",
	}
)

// Client is an HTTP client for the comment and roadmap endpoints
type Client struct {
	httpClient *http.Client
	baseURL    string
	routes     routes
	logger     *zap.Logger
}

var (
	_ ports.CommentStore = (*Client)(nil)
	_ ports.RoadmapStore = (*Client)(nil)
)

// New creates an API client. httpClient may be nil.
func New(httpClient *http.Client, cfg Config, logger *zap.Logger) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, appErrors.NewConfigurationError("API URL not configured")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	r := apiRoutes
	if cfg.LegacyPaths {
		r = legacyRoutes
	}
	return &Client{httpClient: httpClient, baseURL: base, routes: r, logger: logger}, nil
}

// FetchAll implements ports.CommentStore
func (c *Client) FetchAll(ctx context.Context) (map[string][]entities.Comment, error) {
	var index map[string][]entities.Comment
	if err := c.call(ctx, http.MethodGet, c.routes.getComments, nil, &index); err != nil {
		return nil, err
	}
	if index == nil {
		index = make(map[string][]entities.Comment)
	}
	return index, nil
}

// Submit implements ports.CommentStore
func (c *Client) Submit(ctx context.Context, req ports.SubmitRequest) (ports.SubmitResult, error) {
	var resp struct {
		Success     bool  `json:"success"`
		IssueNumber int   `json:"issueNumber"`
		ID          int64 `json:"id"`
	}
	if err := c.call(ctx, http.MethodPost, c.routes.addComment, req, &resp); err != nil {
		return ports.SubmitResult{}, err
	}
	if !resp.Success {
		return ports.SubmitResult{}, appErrors.NewRemoteStoreError(storeName, 0, "comment not accepted", nil)
	}
	return ports.SubmitResult{ThreadID: resp.IssueNumber, CommentID: resp.ID}, nil
}

// Load implements ports.RoadmapStore
func (c *Client) Load(ctx context.Context) (*aggregates.Roadmap, error) {
	roadmap := aggregates.NewRoadmap()
	if err := c.call(ctx, http.MethodGet, c.routes.loadRoadmap, nil, roadmap); err != nil {
		return nil, err
	}
	return roadmap, nil
}

// Save implements ports.RoadmapStore and returns the data the API echoed back
func (c *Client) Save(ctx context.Context, roadmap *aggregates.Roadmap) (json.RawMessage, error) {
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := c.call(ctx, http.MethodPost, c.routes.saveRoadmap, roadmap, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, appErrors.NewRemoteStoreError(storeName, 0, "roadmap not saved", nil)
	}
	return resp.Data, nil
}

func (c *Client) call(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return appErrors.NewValidationError("request cannot be encoded").WithCause(err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return appErrors.NewInternalError("build API request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return appErrors.NewRemoteStoreError(storeName, 0, "", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.NewRemoteStoreError(storeName, 0, "", err)
	}

	c.logger.Debug("API call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return appErrors.NewRemoteStoreError(storeName, 0, "malformed response", err)
	}
	return nil
}

// responseError maps an API error body back onto the error kinds the server started from
func responseError(status int, data []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(data, &body)

	switch {
	case status == http.StatusBadRequest && body.Error != "":
		return appErrors.NewValidationError(body.Error)
	case status == http.StatusTooManyRequests:
		return appErrors.NewRemoteStoreError(storeName, status, "rate limit exceeded", nil)
	default:
		return appErrors.NewRemoteStoreError(storeName, status, body.Error, fmt.Errorf("HTTP %d", status))
	}
}
