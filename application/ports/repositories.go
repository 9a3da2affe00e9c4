package ports

import (
	"context"
	"encoding/json"
	"time"

	"silo-planner/domain/core/aggregates"
	"silo-planner/domain/core/entities"
	"silo-planner/domain/events"
)

// SubmitRequest is a comment destined for the remote comment store.
// ThreadID is zero when the caller does not know the thread yet.
type SubmitRequest struct {
	Key      string `json:"key" validate:"required"`
	Author   string `json:"name" validate:"required"`
	Text     string `json:"text" validate:"required"`
	ThreadID int    `json:"issueNumber,omitempty" validate:"gte=0"`
}

// SubmitResult identifies where a comment landed
type SubmitResult struct {
	ThreadID  int   `json:"issueNumber"`
	CommentID int64 `json:"id"`

	// Created is true when the submission opened a new thread
	Created bool `json:"-"`
}

// CommentStore hides the remote thread/reply distinction behind a flat per-key list.
// This is a port in hexagonal architecture - the engine doesn't know about the implementation
type CommentStore interface {
	// FetchAll returns every open thread, keyed by annotation key, replies in order
	FetchAll(ctx context.Context) (map[string][]entities.Comment, error)

	// Submit posts a comment, replying to an existing thread or opening a new one.
	// Not idempotent.
	Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error)
}

// RoadmapStore persists the whole roadmap tree as one document
type RoadmapStore interface {
	// Load returns the stored tree. An absent document is an empty roadmap, not an error.
	Load(ctx context.Context) (*aggregates.Roadmap, error)

	// Save overwrites the document and returns the store's receipt
	Save(ctx context.Context, roadmap *aggregates.Roadmap) (json.RawMessage, error)
}

// KeyValueStore is the local persistent cache (the browser's local storage equivalent)
type KeyValueStore interface {
	// Get returns the value and whether the key existed
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Metrics records business outcomes
type Metrics interface {
	CommentSubmitted(outcome string)
	CommentsReconciled(outcome string)
	RoadmapSaved(outcome string, duration time.Duration)
	RemoteCall(store, operation, outcome string, duration time.Duration)
}

// Metric outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// Clock returns the current time
type Clock func() time.Time
