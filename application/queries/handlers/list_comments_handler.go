package handlers

import (
	"context"

	"silo-planner/application/ports"
	"silo-planner/application/queries"
	"silo-planner/domain/core/entities"

	"go.uber.org/zap"
)

// ListCommentsHandler reads the comment index from the remote store
type ListCommentsHandler struct {
	store  ports.CommentStore
	logger *zap.Logger
}

// NewListCommentsHandler creates a new list comments handler
func NewListCommentsHandler(store ports.CommentStore, logger *zap.Logger) *ListCommentsHandler {
	return &ListCommentsHandler{
		store:  store,
		logger: logger,
	}
}

// Handle executes the query
func (h *ListCommentsHandler) Handle(ctx context.Context, query queries.ListCommentsQuery) (map[string][]entities.Comment, error) {
	index, err := h.store.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	if query.HasKey() {
		comments, ok := index[query.Key]
		if !ok {
			return map[string][]entities.Comment{}, nil
		}
		return map[string][]entities.Comment{query.Key: comments}, nil
	}

	h.logger.Debug("Listed comments", zap.Int("keys", len(index)))
	return index, nil
}
