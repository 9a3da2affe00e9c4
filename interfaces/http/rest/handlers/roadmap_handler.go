package handlers

import (
	"net/http"

	"silo-planner/application/commands"
	"silo-planner/application/commands/bus"
	"silo-planner/application/queries"
	querybus "silo-planner/application/queries/bus"
	"silo-planner/domain/core/aggregates"
	appErrors "silo-planner/pkg/errors"

	"go.uber.org/zap"
)

// RoadmapHandler serves the roadmap document endpoints
type RoadmapHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *appErrors.ErrorHandler
	logger     *zap.Logger
}

// NewRoadmapHandler creates a new roadmap handler
func NewRoadmapHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *appErrors.ErrorHandler,
	logger *zap.Logger,
) *RoadmapHandler {
	return &RoadmapHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// LoadRoadmap handles GET /api/roadmap and returns the bare array of paths
func (h *RoadmapHandler) LoadRoadmap(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.LoadRoadmapQuery{})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, result)
}

// SaveRoadmap handles POST /api/roadmap
func (h *RoadmapHandler) SaveRoadmap(w http.ResponseWriter, r *http.Request) {
	var roadmap aggregates.Roadmap
	if err := decodeJSON(w, r, &roadmap); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Dispatch(r.Context(), commands.SaveRoadmapCommand{Roadmap: &roadmap})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, result)
}
