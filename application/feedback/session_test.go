package feedback

import (
	"context"
	"errors"
	"testing"

	appErrors "silo-planner/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapKV struct {
	data map[string]string
	err  error
}

func newMapKV() *mapKV { return &mapKV{data: make(map[string]string)} }

func (m *mapKV) Get(_ context.Context, key string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapKV) Set(_ context.Context, key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *mapKV) Delete(_ context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

func (m *mapKV) Close() error { return nil }

func TestSession_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()

	s, err := LoadSession(ctx, kv, "silo-commenter-name")
	require.NoError(t, err)
	assert.False(t, s.CanComment())

	require.NoError(t, SaveSession(ctx, kv, "silo-commenter-name", Session{CommenterName: "  Pat  "}))
	assert.Equal(t, "Pat", kv.data["silo-commenter-name"])

	s, err = LoadSession(ctx, kv, "silo-commenter-name")
	require.NoError(t, err)
	assert.True(t, s.CanComment())
	assert.Equal(t, "Pat", s.CommenterName)

	require.NoError(t, SaveSession(ctx, kv, "silo-commenter-name", Session{}))
	assert.NotContains(t, kv.data, "silo-commenter-name")
}

func TestSession_StorageErrors(t *testing.T) {
	kv := newMapKV()
	kv.err = errors.New("disk full")

	_, err := LoadSession(context.Background(), kv, "k")
	assert.True(t, appErrors.IsType(err, appErrors.ErrorTypeStorage))

	err = SaveSession(context.Background(), kv, "k", Session{CommenterName: "Pat"})
	assert.True(t, appErrors.IsType(err, appErrors.ErrorTypeStorage))
}
