package handlers

import (
	"context"

	"silo-planner/application/ports"
	"silo-planner/application/queries"
	"silo-planner/domain/core/aggregates"
)

// LoadRoadmapHandler reads the roadmap document
type LoadRoadmapHandler struct {
	store ports.RoadmapStore
}

// NewLoadRoadmapHandler creates a new load roadmap handler
func NewLoadRoadmapHandler(store ports.RoadmapStore) *LoadRoadmapHandler {
	return &LoadRoadmapHandler{store: store}
}

// Handle executes the query. An absent document is an empty roadmap.
func (h *LoadRoadmapHandler) Handle(ctx context.Context, _ queries.LoadRoadmapQuery) (*aggregates.Roadmap, error) {
	roadmap, err := h.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if roadmap == nil {
		return aggregates.NewRoadmap(), nil
	}
	return roadmap, nil
}
