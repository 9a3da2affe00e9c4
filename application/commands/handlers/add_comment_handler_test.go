package handlers

import (
	"context"
	"errors"
	"testing"

	"silo-planner/application/commands"
	"silo-planner/application/ports"
	"silo-planner/domain/events"
	appErrors "silo-planner/pkg/errors"
	"silo-planner/tests/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAddCommentHandler_Handle_NewThread(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := new(mocks.MockCommentStore)
	publisher := new(mocks.MockEventPublisher)

	store.On("Submit", ctx, ports.SubmitRequest{Key: "function:receiving", Author: "Pat", Text: "Needs work"}).
		Return(ports.SubmitResult{ThreadID: 12, CommentID: 9001, Created: true}, nil)
	publisher.On("PublishBatch", ctx, mock.MatchedBy(func(batch []events.DomainEvent) bool {
		return len(batch) == 2 &&
			batch[0].GetEventType() == events.TypeCommentPosted &&
			batch[1].GetEventType() == events.TypeThreadOpened
	})).Return(nil)

	handler := NewAddCommentHandler(store, publisher, mocks.NewPermissiveMetrics(), zap.NewNop())

	// Act
	result, err := handler.Handle(ctx, commands.AddCommentCommand{Key: "function:receiving", Name: " Pat ", Text: "Needs work"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, &commands.AddCommentResult{Success: true, IssueNumber: 12, ID: 9001}, result)
	store.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestAddCommentHandler_Handle_ReplyKeepsIssueNumber(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.MockCommentStore)
	publisher := new(mocks.MockEventPublisher)

	store.On("Submit", ctx, ports.SubmitRequest{Key: "base:silo", Author: "Sam", Text: "Agreed", ThreadID: 4}).
		Return(ports.SubmitResult{CommentID: 77}, nil)
	publisher.On("PublishBatch", ctx, mock.Anything).Return(errors.New("bus down"))

	handler := NewAddCommentHandler(store, publisher, mocks.NewPermissiveMetrics(), zap.NewNop())

	result, err := handler.Handle(ctx, commands.AddCommentCommand{Key: "base:silo", Name: "Sam", Text: "Agreed", IssueNumber: 4})

	require.NoError(t, err, "event publishing failures do not fail the request")
	assert.Equal(t, 4, result.IssueNumber)
	assert.Equal(t, int64(77), result.ID)
}

func TestAddCommentHandler_Handle_StoreError(t *testing.T) {
	ctx := context.Background()
	store := new(mocks.MockCommentStore)
	publisher := new(mocks.MockEventPublisher)
	metrics := new(mocks.MockMetrics)

	upstream := appErrors.NewRemoteStoreError("GitHub API", 502, "Bad Gateway", nil)
	store.On("Submit", ctx, mock.Anything).Return(ports.SubmitResult{}, upstream)
	metrics.On("CommentSubmitted", ports.OutcomeFailure).Once()

	handler := NewAddCommentHandler(store, publisher, metrics, zap.NewNop())

	result, err := handler.Handle(ctx, commands.AddCommentCommand{Key: "base:silo", Name: "Sam", Text: "x"})

	assert.Nil(t, result)
	assert.Equal(t, 502, appErrors.UpstreamStatus(err))
	publisher.AssertNotCalled(t, "PublishBatch", mock.Anything, mock.Anything)
	metrics.AssertExpectations(t)
}

func TestAddCommentCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     commands.AddCommentCommand
		wantErr string
	}{
		{"valid", commands.AddCommentCommand{Key: "k:1", Name: "n", Text: "t"}, ""},
		{"missing key", commands.AddCommentCommand{Name: "n", Text: "t"}, "Missing required fields: key, name, text"},
		{"blank text", commands.AddCommentCommand{Key: "k:1", Name: "n", Text: "  "}, "Missing required fields: key, name, text"},
		{"negative issue", commands.AddCommentCommand{Key: "k:1", Name: "n", Text: "t", IssueNumber: -1}, "issuenumber must be 0 or greater"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.True(t, appErrors.IsValidation(err))
			assert.Equal(t, tt.wantErr, appErrors.GetAppError(err).Message)
		})
	}
}
