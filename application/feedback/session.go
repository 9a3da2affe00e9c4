package feedback

import (
	"context"
	"strings"

	"silo-planner/application/ports"
	appErrors "silo-planner/pkg/errors"
)

// Session holds per-user state the engine needs but does not own
type Session struct {
	CommenterName string
}

// CanComment reports whether the session has a usable display name
func (s Session) CanComment() bool {
	return strings.TrimSpace(s.CommenterName) != ""
}

// LoadSession reads the commenter name from the local key-value store.
// A missing entry yields an empty session.
func LoadSession(ctx context.Context, kv ports.KeyValueStore, key string) (Session, error) {
	name, ok, err := kv.Get(ctx, key)
	if err != nil {
		return Session{}, appErrors.NewStorageError("load session", err)
	}
	if !ok {
		return Session{}, nil
	}
	return Session{CommenterName: name}, nil
}

// SaveSession writes the commenter name back to the local key-value store
func SaveSession(ctx context.Context, kv ports.KeyValueStore, key string, s Session) error {
	name := strings.TrimSpace(s.CommenterName)
	if name == "" {
		if err := kv.Delete(ctx, key); err != nil {
			return appErrors.NewStorageError("clear session", err)
		}
		return nil
	}
	if err := kv.Set(ctx, key, name); err != nil {
		return appErrors.NewStorageError("save session", err)
	}
	return nil
}
