// Package mocks holds testify mocks for the application ports.
package mocks

import (
	"context"
	"encoding/json"
	"time"

	"silo-planner/application/ports"
	"silo-planner/domain/core/aggregates"
	"silo-planner/domain/core/entities"
	"silo-planner/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockCommentStore is a mock implementation of ports.CommentStore
type MockCommentStore struct {
	mock.Mock
}

func (m *MockCommentStore) FetchAll(ctx context.Context) (map[string][]entities.Comment, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(map[string][]entities.Comment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCommentStore) Submit(ctx context.Context, req ports.SubmitRequest) (ports.SubmitResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(ports.SubmitResult), args.Error(1)
}

// MockRoadmapStore is a mock implementation of ports.RoadmapStore
type MockRoadmapStore struct {
	mock.Mock
}

func (m *MockRoadmapStore) Load(ctx context.Context) (*aggregates.Roadmap, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*aggregates.Roadmap), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRoadmapStore) Save(ctx context.Context, roadmap *aggregates.Roadmap) (json.RawMessage, error) {
	args := m.Called(ctx, roadmap)
	if v := args.Get(0); v != nil {
		return v.(json.RawMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockEventPublisher is a mock implementation of ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

// MockMetrics is a mock implementation of ports.Metrics
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) CommentSubmitted(outcome string) {
	m.Called(outcome)
}

func (m *MockMetrics) CommentsReconciled(outcome string) {
	m.Called(outcome)
}

func (m *MockMetrics) RoadmapSaved(outcome string, duration time.Duration) {
	m.Called(outcome, duration)
}

func (m *MockMetrics) RemoteCall(store, operation, outcome string, duration time.Duration) {
	m.Called(store, operation, outcome, duration)
}

// NewPermissiveMetrics returns a MockMetrics that accepts any call
func NewPermissiveMetrics() *MockMetrics {
	m := new(MockMetrics)
	m.On("CommentSubmitted", mock.Anything).Maybe()
	m.On("CommentsReconciled", mock.Anything).Maybe()
	m.On("RoadmapSaved", mock.Anything, mock.Anything).Maybe()
	m.On("RemoteCall", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()
	return m
}
