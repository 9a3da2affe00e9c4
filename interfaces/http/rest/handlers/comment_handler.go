package handlers

import (
	"net/http"

	"silo-planner/application/commands"
	"silo-planner/application/commands/bus"
	"silo-planner/application/queries"
	querybus "silo-planner/application/queries/bus"
	appErrors "silo-planner/pkg/errors"

	"go.uber.org/zap"
)

// CommentHandler serves the comment endpoints
type CommentHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *appErrors.ErrorHandler
	logger     *zap.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *appErrors.ErrorHandler,
	logger *zap.Logger,
) *CommentHandler {
	return &CommentHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// ListComments handles GET /api/comments.
// The response maps every annotation key to its comments; ?key= narrows it to one key.
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.ListCommentsQuery{Key: r.URL.Query().Get("key")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, result)
}

// AddComment handles POST /api/comments
func (h *CommentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var cmd commands.AddCommentCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Dispatch(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, result)
}
