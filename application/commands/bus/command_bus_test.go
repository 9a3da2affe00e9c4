package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingCommand struct {
	Name string
}

func (c pingCommand) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type recordingLogger struct {
	infos  []string
	errors []string
}

func (l *recordingLogger) Info(msg string, _ ...interface{})  { l.infos = append(l.infos, msg) }
func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.errors = append(l.errors, msg) }

func TestCommandBus_Dispatch(t *testing.T) {
	logger := &recordingLogger{}
	b := NewCommandBus(RecoveryMiddleware(), LoggingMiddleware(logger))

	require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		return "pong " + cmd.(pingCommand).Name, nil
	})))

	result, err := b.Dispatch(context.Background(), pingCommand{Name: "pat"})
	require.NoError(t, err)
	assert.Equal(t, "pong pat", result)
	assert.Equal(t, []string{"Executing command", "Command succeeded"}, logger.infos)
}

func TestCommandBus_DuplicateRegistration(t *testing.T) {
	b := NewCommandBus()
	h := CommandHandlerFunc(func(context.Context, Command) (interface{}, error) { return nil, nil })

	require.NoError(t, b.Register(pingCommand{}, h))
	assert.Error(t, b.Register(pingCommand{}, h))
}

func TestCommandBus_Errors(t *testing.T) {
	b := NewCommandBus(RecoveryMiddleware())
	cause := errors.New("remote down")

	err := b.Send(context.Background(), pingCommand{})
	assert.ErrorIs(t, err, ErrValidationFailed)

	err = b.Send(context.Background(), pingCommand{Name: "x"})
	assert.ErrorIs(t, err, ErrHandlerNotFound)

	require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(context.Context, Command) (interface{}, error) {
		return nil, cause
	})))
	err = b.Send(context.Background(), pingCommand{Name: "x"})
	assert.ErrorIs(t, err, ErrExecutionFailed)
	assert.ErrorIs(t, err, cause)
}

func TestRecoveryMiddleware(t *testing.T) {
	b := NewCommandBus(RecoveryMiddleware())
	require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(context.Context, Command) (interface{}, error) {
		panic("boom")
	})))

	err := b.Send(context.Background(), pingCommand{Name: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pingCommand panicked: boom")
}
