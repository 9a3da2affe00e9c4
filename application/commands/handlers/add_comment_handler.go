package handlers

import (
	"context"
	"strings"
	"time"

	"silo-planner/application/commands"
	"silo-planner/application/ports"
	"silo-planner/domain/events"

	"go.uber.org/zap"
)

// AddCommentHandler forwards a comment to the remote comment store
type AddCommentHandler struct {
	store     ports.CommentStore
	publisher ports.EventPublisher
	metrics   ports.Metrics
	now       ports.Clock
	logger    *zap.Logger
}

// NewAddCommentHandler creates a new add comment handler
func NewAddCommentHandler(
	store ports.CommentStore,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	logger *zap.Logger,
) *AddCommentHandler {
	return &AddCommentHandler{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
		logger:    logger,
	}
}

// Handle executes the add comment command
func (h *AddCommentHandler) Handle(ctx context.Context, cmd commands.AddCommentCommand) (*commands.AddCommentResult, error) {
	req := ports.SubmitRequest{
		Key:      strings.TrimSpace(cmd.Key),
		Author:   strings.TrimSpace(cmd.Name),
		Text:     strings.TrimSpace(cmd.Text),
		ThreadID: cmd.IssueNumber,
	}

	result, err := h.store.Submit(ctx, req)
	if err != nil {
		h.metrics.CommentSubmitted(ports.OutcomeFailure)
		return nil, err
	}
	h.metrics.CommentSubmitted(ports.OutcomeSuccess)

	threadID := result.ThreadID
	if threadID == 0 {
		threadID = cmd.IssueNumber
	}

	now := h.now()
	batch := []events.DomainEvent{
		events.NewCommentPosted(req.Key, req.Author, threadID, result.CommentID, !result.Created, now),
	}
	if result.Created {
		batch = append(batch, events.NewThreadOpened(req.Key, threadID, now))
	}
	if err := h.publisher.PublishBatch(ctx, batch); err != nil {
		h.logger.Warn("Failed to publish comment events",
			zap.String("key", req.Key),
			zap.Int("thread_id", threadID),
			zap.Error(err),
		)
	}

	return &commands.AddCommentResult{
		Success:     true,
		IssueNumber: threadID,
		ID:          result.CommentID,
	}, nil
}
