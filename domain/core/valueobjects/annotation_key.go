package valueobjects

import (
	"errors"
	"fmt"
	"strings"
)

// EntityKind identifies the category of planning entity a comment is attached to
type EntityKind string

const (
	KindBase     EntityKind = "base"
	KindCustomer EntityKind = "customer"
	KindFunction EntityKind = "function"
	KindInput    EntityKind = "input"
	KindOutput   EntityKind = "output"
	KindLiteType EntityKind = "liteType"
)

// KeySeparator joins kind and id inside an annotation key
const KeySeparator = ":"

// AllKinds lists every entity kind in export order
func AllKinds() []EntityKind {
	return []EntityKind{KindBase, KindCustomer, KindFunction, KindLiteType, KindInput, KindOutput}
}

// IsValid reports whether the kind is one of the known kinds
func (k EntityKind) IsValid() bool {
	for _, known := range AllKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// String returns the kind as it appears in keys
func (k EntityKind) String() string {
	return string(k)
}

// ParseEntityKind converts a string into a known EntityKind
func ParseEntityKind(s string) (EntityKind, error) {
	kind := EntityKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("unknown entity kind %q", s)
	}
	return kind, nil
}

// EntityRef is anything that can carry feedback.
// ID wins over Name when both are set.
type EntityRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// MakeKey builds the composite annotation key for an entity
func MakeKey(kind EntityKind, entity EntityRef) string {
	id := entity.ID
	if id == "" {
		id = entity.Name
	}
	return string(kind) + KeySeparator + id
}

// ParseKey splits an annotation key on its first separator
func ParseKey(key string) (EntityKind, string, error) {
	kind, id, ok := strings.Cut(key, KeySeparator)
	if !ok {
		return "", "", errors.New("annotation key must contain a kind separator")
	}
	if id == "" {
		return "", "", errors.New("annotation key has an empty id")
	}
	parsed, err := ParseEntityKind(kind)
	if err != nil {
		return "", "", err
	}
	return parsed, id, nil
}
