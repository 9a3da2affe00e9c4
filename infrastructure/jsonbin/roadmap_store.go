// Package jsonbin keeps the roadmap document in a single JSONBin bin.
package jsonbin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"silo-planner/domain/core/aggregates"
	appErrors "silo-planner/pkg/errors"

	"go.uber.org/zap"
)

const (
	storeName     = "JSONBin"
	masterKeyName = "X-Master-Key"
)

// Config locates the bin
type Config struct {
	APIKey  string
	BinID   string
	BaseURL string
}

// RoadmapStore implements ports.RoadmapStore on the JSONBin v3 API
type RoadmapStore struct {
	httpClient *http.Client
	cfg        Config
	logger     *zap.Logger
}

// NewRoadmapStore creates a JSONBin-backed roadmap store
func NewRoadmapStore(httpClient *http.Client, cfg Config, logger *zap.Logger) *RoadmapStore {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.jsonbin.io/v3"
	}
	return &RoadmapStore{httpClient: httpClient, cfg: cfg, logger: logger}
}

type latestResponse struct {
	Record json.RawMessage `json:"record"`
}

// Load reads the latest version of the bin. A record that is not a list of paths is an empty roadmap.
func (s *RoadmapStore) Load(ctx context.Context) (*aggregates.Roadmap, error) {
	if s.cfg.APIKey == "" {
		return nil, appErrors.NewConfigurationError("API key not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/b/%s/latest", s.cfg.BaseURL, s.cfg.BinID), nil)
	if err != nil {
		return nil, appErrors.NewInternalError("build JSONBin request").WithCause(err)
	}
	req.Header.Set(masterKeyName, s.cfg.APIKey)

	body, err := s.do(req)
	if err != nil {
		return nil, err
	}

	var latest latestResponse
	if err := json.Unmarshal(body, &latest); err != nil {
		return nil, appErrors.NewRemoteStoreError(storeName, 0, "malformed response", err)
	}

	var roadmap aggregates.Roadmap
	if err := json.Unmarshal(latest.Record, &roadmap); err != nil {
		s.logger.Warn("JSONBin record is not a roadmap; treating as empty", zap.Error(err))
		return aggregates.NewRoadmap(), nil
	}
	return &roadmap, nil
}

// Save overwrites the bin with the whole tree and returns JSONBin's response
func (s *RoadmapStore) Save(ctx context.Context, roadmap *aggregates.Roadmap) (json.RawMessage, error) {
	if s.cfg.APIKey == "" {
		return nil, appErrors.NewConfigurationError("API key not configured")
	}

	payload, err := json.Marshal(roadmap)
	if err != nil {
		return nil, appErrors.NewValidationError("roadmap cannot be encoded").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, fmt.Sprintf("%s/b/%s", s.cfg.BaseURL, s.cfg.BinID), bytes.NewReader(payload))
	if err != nil {
		return nil, appErrors.NewInternalError("build JSONBin request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(masterKeyName, s.cfg.APIKey)

	body, err := s.do(req)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, appErrors.NewRemoteStoreError(storeName, 0, "malformed response", nil)
	}

	s.logger.Debug("Roadmap written to JSONBin", zap.Int("bytes", len(payload)))
	return json.RawMessage(body), nil
}

func (s *RoadmapStore) do(req *http.Request) ([]byte, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, appErrors.NewRemoteStoreError(storeName, 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.NewRemoteStoreError(storeName, 0, "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, appErrors.NewRemoteStoreError(storeName, resp.StatusCode, "", nil)
	}
	return body, nil
}
