package handlers

import (
	"context"
	"time"

	"silo-planner/application/commands"
	"silo-planner/application/ports"
	"silo-planner/domain/events"

	"go.uber.org/zap"
)

// SaveRoadmapHandler writes the whole roadmap document
type SaveRoadmapHandler struct {
	store      ports.RoadmapStore
	publisher  ports.EventPublisher
	metrics    ports.Metrics
	documentID string
	logger     *zap.Logger
}

// NewSaveRoadmapHandler creates a new save roadmap handler
func NewSaveRoadmapHandler(
	store ports.RoadmapStore,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	documentID string,
	logger *zap.Logger,
) *SaveRoadmapHandler {
	return &SaveRoadmapHandler{
		store:      store,
		publisher:  publisher,
		metrics:    metrics,
		documentID: documentID,
		logger:     logger,
	}
}

// Handle executes the save roadmap command
func (h *SaveRoadmapHandler) Handle(ctx context.Context, cmd commands.SaveRoadmapCommand) (*commands.SaveRoadmapResult, error) {
	start := time.Now()
	receipt, err := h.store.Save(ctx, cmd.Roadmap)
	duration := time.Since(start)
	if err != nil {
		h.metrics.RoadmapSaved(ports.OutcomeFailure, duration)
		return nil, err
	}
	h.metrics.RoadmapSaved(ports.OutcomeSuccess, duration)

	paths, initiatives, modules := cmd.Roadmap.Counts()
	h.logger.Info("Roadmap saved",
		zap.Int("paths", paths),
		zap.Int("initiatives", initiatives),
		zap.Int("modules", modules),
		zap.Duration("duration", duration),
	)

	event := events.NewRoadmapSaved(h.documentID, paths, initiatives, modules, time.Now())
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.Warn("Failed to publish roadmap event", zap.Error(err))
	}

	return &commands.SaveRoadmapResult{Success: true, Data: receipt}, nil
}
