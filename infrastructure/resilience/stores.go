package resilience

import (
	"context"
	"encoding/json"

	"silo-planner/application/ports"
	"silo-planner/domain/core/aggregates"
	"silo-planner/domain/core/entities"

	"go.uber.org/zap"
)

// CommentStore wraps a ports.CommentStore with a circuit breaker
type CommentStore struct {
	next  ports.CommentStore
	guard *guard
}

// NewCommentStore decorates next
func NewCommentStore(next ports.CommentStore, name string, cfg BreakerConfig, metrics ports.Metrics, logger *zap.Logger) *CommentStore {
	return &CommentStore{next: next, guard: newGuard(name, cfg, metrics, logger)}
}

// FetchAll implements ports.CommentStore
func (s *CommentStore) FetchAll(ctx context.Context) (map[string][]entities.Comment, error) {
	result, err := s.guard.run("fetch_all", func() (interface{}, error) {
		return s.next.FetchAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string][]entities.Comment), nil
}

// Submit implements ports.CommentStore
func (s *CommentStore) Submit(ctx context.Context, req ports.SubmitRequest) (ports.SubmitResult, error) {
	result, err := s.guard.run("submit", func() (interface{}, error) {
		return s.next.Submit(ctx, req)
	})
	if err != nil {
		return ports.SubmitResult{}, err
	}
	return result.(ports.SubmitResult), nil
}

// State returns the breaker state
func (s *CommentStore) State() string { return s.guard.State() }

// RoadmapStore wraps a ports.RoadmapStore with a circuit breaker
type RoadmapStore struct {
	next  ports.RoadmapStore
	guard *guard
}

// NewRoadmapStore decorates next
func NewRoadmapStore(next ports.RoadmapStore, name string, cfg BreakerConfig, metrics ports.Metrics, logger *zap.Logger) *RoadmapStore {
	return &RoadmapStore{next: next, guard: newGuard(name, cfg, metrics, logger)}
}

// Load implements ports.RoadmapStore
func (s *RoadmapStore) Load(ctx context.Context) (*aggregates.Roadmap, error) {
	result, err := s.guard.run("load", func() (interface{}, error) {
		return s.next.Load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*aggregates.Roadmap), nil
}

// Save implements ports.RoadmapStore
func (s *RoadmapStore) Save(ctx context.Context, roadmap *aggregates.Roadmap) (json.RawMessage, error) {
	result, err := s.guard.run("save", func() (interface{}, error) {
		return s.next.Save(ctx, roadmap)
	})
	if err != nil {
		return nil, err
	}
	return result.(json.RawMessage), nil
}

// State returns the breaker state
func (s *RoadmapStore) State() string { return s.guard.State() }
