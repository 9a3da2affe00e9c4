// Package planning keeps the roadmap tree in memory, mirrors every change
// to the local cache, and batches remote writes through a debounce slot.
package planning

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"silo-planner/application/ports"
	"silo-planner/domain/config"
	"silo-planner/domain/core/aggregates"
	"silo-planner/pkg/debounce"
	appErrors "silo-planner/pkg/errors"

	"go.uber.org/zap"
)

// Status is the remote save indicator
type Status string

const (
	StatusSaved  Status = "saved"
	StatusSaving Status = "saving"
	StatusError  Status = "error"
)

// Board owns the in-memory roadmap
type Board struct {
	store       ports.RoadmapStore
	cache       ports.KeyValueStore
	logger      *zap.Logger
	metrics     ports.Metrics
	ids         *aggregates.IDGenerator
	cacheKey    string
	window      time.Duration
	saveTimeout time.Duration
	slot        *debounce.Slot

	mu         sync.RWMutex
	roadmap    *aggregates.Roadmap
	status     Status
	lastErr    error
	loading    bool
	dirty      bool
	generation uint64
	loaded     chan struct{}
	openOnce   sync.Once
}

// Option configures a Board
type Option func(*Board)

// WithLogger sets the board logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Board) { b.logger = logger }
}

// WithMetrics sets the business metrics recorder
func WithMetrics(m ports.Metrics) Option {
	return func(b *Board) { b.metrics = m }
}

// WithClock sets the clock used for generated ids
func WithClock(now ports.Clock) Option {
	return func(b *Board) { b.ids = aggregates.NewIDGenerator(now) }
}

// WithDebounce overrides the remote save window
func WithDebounce(d time.Duration) Option {
	return func(b *Board) { b.window = d }
}

// WithCacheKey overrides the local cache key
func WithCacheKey(key string) Option {
	return func(b *Board) { b.cacheKey = key }
}

// WithSaveTimeout bounds each remote write
func WithSaveTimeout(d time.Duration) Option {
	return func(b *Board) { b.saveTimeout = d }
}

// NewBoard creates a board holding the default roadmap. Call Open to load real data.
func NewBoard(store ports.RoadmapStore, cache ports.KeyValueStore, opts ...Option) *Board {
	cfg := config.DefaultDomainConfig()
	b := &Board{
		store:       store,
		cache:       cache,
		logger:      zap.NewNop(),
		metrics:     noopMetrics{},
		ids:         aggregates.NewIDGenerator(time.Now),
		cacheKey:    cfg.RoadmapCacheKey,
		window:      cfg.SaveDebounce,
		saveTimeout: 30 * time.Second,
		roadmap:     aggregates.DefaultRoadmap(),
		status:      StatusSaved,
		loaded:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.slot = debounce.New()
	return b
}

// Open reads the local cache synchronously and starts loading the remote copy.
// Until the remote load finishes, changes are cached locally but not sent.
// Only the first call has any effect.
func (b *Board) Open(ctx context.Context) {
	b.openOnce.Do(func() { b.open(ctx) })
}

func (b *Board) open(ctx context.Context) {
	if cached, ok := b.readCache(ctx); ok {
		b.mu.Lock()
		b.roadmap = cached
		b.mu.Unlock()
	}

	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	go b.loadRemote(ctx)
}

// WaitLoaded blocks until the remote load started by Open has finished
func (b *Board) WaitLoaded(ctx context.Context) error {
	select {
	case <-b.loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Board) readCache(ctx context.Context) (*aggregates.Roadmap, bool) {
	if b.cache == nil {
		return nil, false
	}
	raw, ok, err := b.cache.Get(ctx, b.cacheKey)
	if err != nil {
		b.logger.Warn("Failed to read roadmap cache", zap.Error(err))
		return nil, false
	}
	if !ok || raw == "" {
		return nil, false
	}
	var cached aggregates.Roadmap
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		b.logger.Warn("Ignoring corrupt roadmap cache", zap.Error(err))
		return nil, false
	}
	return &cached, true
}

func (b *Board) loadRemote(ctx context.Context) {
	defer close(b.loaded)

	remote, err := b.store.Load(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false

	switch {
	case err != nil:
		b.logger.Warn("Failed to load roadmap; keeping local copy", zap.Error(err))
	case remote.IsEmpty():
		b.logger.Debug("Remote roadmap is empty; keeping local copy")
	default:
		b.roadmap = remote.Clone()
		b.generation++
		b.dirty = false
		b.writeCacheLocked(ctx)
		b.logger.Info("Loaded roadmap from remote store")
		return
	}

	// local edits made while loading still need to reach the store
	if b.dirty {
		b.dirty = false
		b.scheduleSaveLocked()
	}
}

// Apply runs mutate against a copy of the roadmap and commits it if the result is valid
func (b *Board) Apply(ctx context.Context, mutate func(*aggregates.Roadmap) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.roadmap.Clone()
	if err := mutate(next); err != nil {
		return translate(err)
	}
	if err := next.Validate(); err != nil {
		return appErrors.NewConflictError(err.Error())
	}

	b.roadmap = next
	b.generation++
	b.writeCacheLocked(ctx)

	if b.loading {
		b.dirty = true
		return nil
	}
	b.scheduleSaveLocked()
	return nil
}

func (b *Board) writeCacheLocked(ctx context.Context) {
	if b.cache == nil {
		return
	}
	data, err := json.Marshal(b.roadmap)
	if err != nil {
		b.logger.Error("Failed to encode roadmap for cache", zap.Error(err))
		return
	}
	if err := b.cache.Set(ctx, b.cacheKey, string(data)); err != nil {
		b.logger.Warn("Failed to write roadmap cache", zap.Error(err))
	}
}

func (b *Board) scheduleSaveLocked() {
	b.status = StatusSaving
	if err := b.slot.Schedule(b.save, b.window); err != nil {
		b.logger.Warn("Roadmap save not scheduled", zap.Error(err))
	}
}

// save runs on the debounce slot and writes the newest tree
func (b *Board) save() {
	b.mu.RLock()
	snapshot := b.roadmap.Clone()
	generation := b.generation
	b.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), b.saveTimeout)
	defer cancel()

	start := time.Now()
	_, err := b.store.Save(ctx, snapshot)
	duration := time.Since(start)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		// a newer edit is already queued; its save decides the status
		if generation == b.generation {
			b.status = StatusError
			b.lastErr = err
		}
		b.metrics.RoadmapSaved(ports.OutcomeFailure, duration)
		b.logger.Error("Failed to save roadmap", zap.Error(err), zap.Duration("duration", duration))
		return
	}

	b.metrics.RoadmapSaved(ports.OutcomeSuccess, duration)
	b.logger.Debug("Roadmap saved", zap.Duration("duration", duration))
	if generation == b.generation {
		b.status = StatusSaved
		b.lastErr = nil
	}
}

// Snapshot returns a copy of the current roadmap
func (b *Board) Snapshot() *aggregates.Roadmap {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.roadmap.Clone()
}

// Status returns the save indicator and the last save error, if any
func (b *Board) Status() (Status, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status, b.lastErr
}

// Loading reports whether the initial remote load is still running
func (b *Board) Loading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loading
}

// Flush sends any pending remote write now and waits for it
func (b *Board) Flush() error {
	if err := b.slot.Flush(); err != nil {
		return err
	}
	_, lastErr := b.Status()
	return lastErr
}

// Close flushes the pending write and stops the board
func (b *Board) Close() error {
	if err := b.slot.Close(); err != nil && !errors.Is(err, debounce.ErrClosed) {
		return err
	}
	_, lastErr := b.Status()
	return lastErr
}

// AddPath appends a "New Path" with a generated id and random colour
func (b *Board) AddPath(ctx context.Context) (aggregates.Path, error) {
	p := aggregates.Path{
		ID:          b.ids.Next(aggregates.PathIDPrefix),
		Name:        config.DefaultDomainConfig().DefaultPathName,
		Color:       aggregates.RandomColor(),
		Initiatives: []aggregates.Initiative{},
	}
	err := b.Apply(ctx, func(r *aggregates.Roadmap) error { return r.AddPath(p) })
	return p, err
}

// UpdatePath changes a path's name and/or colour
func (b *Board) UpdatePath(ctx context.Context, pathID string, update aggregates.PathUpdate) error {
	return b.Apply(ctx, func(r *aggregates.Roadmap) error { return r.UpdatePath(pathID, update) })
}

// DeletePath removes a path and everything below it
func (b *Board) DeletePath(ctx context.Context, pathID string) error {
	return b.Apply(ctx, func(r *aggregates.Roadmap) error { return r.DeletePath(pathID) })
}

// AddInitiative appends a named initiative to a path
func (b *Board) AddInitiative(ctx context.Context, pathID, name string) (aggregates.Initiative, error) {
	init := aggregates.Initiative{
		ID:      b.ids.Next(aggregates.InitiativeIDPrefix),
		Name:    strings.TrimSpace(name),
		Modules: []aggregates.Module{},
	}
	err := b.Apply(ctx, func(r *aggregates.Roadmap) error { return r.AddInitiative(pathID, init) })
	return init, err
}

// RenameInitiative renames an initiative
func (b *Board) RenameInitiative(ctx context.Context, pathID, initiativeID, name string) error {
	name = strings.TrimSpace(name)
	return b.Apply(ctx, func(r *aggregates.Roadmap) error { return r.RenameInitiative(pathID, initiativeID, name) })
}

// DeleteInitiative removes an initiative
func (b *Board) DeleteInitiative(ctx context.Context, pathID, initiativeID string) error {
	return b.Apply(ctx, func(r *aggregates.Roadmap) error { return r.DeleteInitiative(pathID, initiativeID) })
}

// MoveInitiative reorders initiatives within a path
func (b *Board) MoveInitiative(ctx context.Context, pathID string, from, to int) error {
	return b.Apply(ctx, func(r *aggregates.Roadmap) error { return r.MoveInitiative(pathID, from, to) })
}

// AddModule appends a module with a generated id
func (b *Board) AddModule(ctx context.Context, pathID, initiativeID string, m aggregates.Module) (aggregates.Module, error) {
	m.ID = b.ids.Next(aggregates.ModuleIDPrefix)
	m.Name = strings.TrimSpace(m.Name)
	err := b.Apply(ctx, func(r *aggregates.Roadmap) error { return r.AddModule(pathID, initiativeID, m) })
	return m, err
}

// UpdateModule replaces a module by id
func (b *Board) UpdateModule(ctx context.Context, m aggregates.Module) error {
	return b.Apply(ctx, func(r *aggregates.Roadmap) error { return r.UpdateModule(m) })
}

// DeleteModule removes a module
func (b *Board) DeleteModule(ctx context.Context, pathID, initiativeID, moduleID string) error {
	return b.Apply(ctx, func(r *aggregates.Roadmap) error { return r.DeleteModule(pathID, initiativeID, moduleID) })
}

// MoveModule reorders modules within an initiative
func (b *Board) MoveModule(ctx context.Context, pathID, initiativeID string, from, to int) error {
	return b.Apply(ctx, func(r *aggregates.Roadmap) error { return r.MoveModule(pathID, initiativeID, from, to) })
}

// Replace swaps in a whole tree, e.g. from an import
func (b *Board) Replace(ctx context.Context, roadmap *aggregates.Roadmap) error {
	return b.Apply(ctx, func(r *aggregates.Roadmap) error {
		*r = *roadmap.Clone()
		return nil
	})
}
