package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"silo-planner/domain/core/aggregates"
)

// RoadmapStore holds one roadmap document
type RoadmapStore struct {
	mu      sync.RWMutex
	roadmap *aggregates.Roadmap
	version int
	now     func() time.Time
}

// NewRoadmapStore creates a store holding the given roadmap, or nothing when nil
func NewRoadmapStore(initial *aggregates.Roadmap) *RoadmapStore {
	s := &RoadmapStore{now: time.Now}
	if initial != nil {
		s.roadmap = initial.Clone()
	}
	return s
}

// Load returns a copy of the stored roadmap
func (s *RoadmapStore) Load(ctx context.Context) (*aggregates.Roadmap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.roadmap == nil {
		return aggregates.NewRoadmap(), nil
	}
	return s.roadmap.Clone(), nil
}

// Save replaces the stored roadmap
func (s *RoadmapStore) Save(ctx context.Context, roadmap *aggregates.Roadmap) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roadmap = roadmap.Clone()
	s.version++
	return json.Marshal(map[string]interface{}{
		"version":   s.version,
		"updatedAt": s.now().UTC().Format(time.RFC3339),
	})
}
