package aggregates

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var (
	ErrPathNotFound       = errors.New("path not found")
	ErrInitiativeNotFound = errors.New("initiative not found")
	ErrModuleNotFound     = errors.New("module not found")
	ErrNameRequired       = errors.New("name is required")
	ErrIndexOutOfRange    = errors.New("index out of range")
)

// ID prefixes for generated identifiers
const (
	PathIDPrefix       = "path"
	InitiativeIDPrefix = "init"
	ModuleIDPrefix     = "mod"
)

// Module is the leaf of the roadmap tree
type Module struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Target string `json:"target"`
	Notes  string `json:"notes"`
}

// Initiative groups ordered modules
type Initiative struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Modules []Module `json:"modules"`
}

// Path is a top-level lane of the roadmap
type Path struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Color       string       `json:"color"`
	Initiatives []Initiative `json:"initiatives"`
}

// Roadmap is the aggregate root for the Path → Initiative → Module forest.
// It serializes as a bare JSON array of paths.
type Roadmap struct {
	paths []Path
}

// NewRoadmap creates a roadmap from the given paths
func NewRoadmap(paths ...Path) *Roadmap {
	r := &Roadmap{paths: append([]Path(nil), paths...)}
	return r.Clone()
}

// DefaultRoadmap returns the fallback tree used when no cache or remote copy exists
func DefaultRoadmap() *Roadmap {
	return NewRoadmap(Path{
		ID:    "personnel-labor",
		Name:  "Personnel & Labor",
		Color: "#4A90A4",
		Initiatives: []Initiative{
			{
				ID:   "pet-tiger",
				Name: "Pet Tiger Integration",
				Modules: []Module{
					{ID: "pt-1", Name: "Systems Understanding", Target: "Q1 2026", Notes: "Document current architecture"},
				},
			},
		},
	})
}

// Paths returns a deep copy of the paths in order
func (r *Roadmap) Paths() []Path {
	return r.Clone().paths
}

// IsEmpty reports whether the roadmap has no paths
func (r *Roadmap) IsEmpty() bool {
	return r == nil || len(r.paths) == 0
}

// Clone returns a deep copy
func (r *Roadmap) Clone() *Roadmap {
	out := &Roadmap{paths: make([]Path, len(r.paths))}
	for i, p := range r.paths {
		cp := p
		cp.Initiatives = make([]Initiative, len(p.Initiatives))
		for j, init := range p.Initiatives {
			ci := init
			ci.Modules = append(make([]Module, 0, len(init.Modules)), init.Modules...)
			cp.Initiatives[j] = ci
		}
		out.paths[i] = cp
	}
	return out
}

// Counts returns the number of paths, initiatives and modules
func (r *Roadmap) Counts() (paths, initiatives, modules int) {
	for _, p := range r.paths {
		initiatives += len(p.Initiatives)
		for _, init := range p.Initiatives {
			modules += len(init.Modules)
		}
	}
	return len(r.paths), initiatives, modules
}

// Validate checks that every id is present and unique across the whole tree
func (r *Roadmap) Validate() error {
	seen := make(map[string]string)
	check := func(kind, id string) error {
		if id == "" {
			return fmt.Errorf("%s id is required", kind)
		}
		if other, dup := seen[id]; dup {
			return fmt.Errorf("duplicate id %q used by %s and %s", id, other, kind)
		}
		seen[id] = kind
		return nil
	}

	for _, p := range r.paths {
		if err := check("path", p.ID); err != nil {
			return err
		}
		for _, init := range p.Initiatives {
			if err := check("initiative", init.ID); err != nil {
				return err
			}
			for _, m := range init.Modules {
				if err := check("module", m.ID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// FindPath returns the path with the given id
func (r *Roadmap) FindPath(pathID string) (*Path, error) {
	for i := range r.paths {
		if r.paths[i].ID == pathID {
			return &r.paths[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPathNotFound, pathID)
}

// FindInitiative returns the initiative with the given id inside a path
func (r *Roadmap) FindInitiative(pathID, initiativeID string) (*Initiative, error) {
	p, err := r.FindPath(pathID)
	if err != nil {
		return nil, err
	}
	for i := range p.Initiatives {
		if p.Initiatives[i].ID == initiativeID {
			return &p.Initiatives[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrInitiativeNotFound, initiativeID)
}

// LocateModule finds a module anywhere in the tree
func (r *Roadmap) LocateModule(moduleID string) (pathID, initiativeID string, err error) {
	for _, p := range r.paths {
		for _, init := range p.Initiatives {
			for _, m := range init.Modules {
				if m.ID == moduleID {
					return p.ID, init.ID, nil
				}
			}
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrModuleNotFound, moduleID)
}

// AddPath appends a path with no initiatives
func (r *Roadmap) AddPath(p Path) error {
	if p.Name == "" {
		return ErrNameRequired
	}
	if p.Initiatives == nil {
		p.Initiatives = []Initiative{}
	}
	r.paths = append(r.paths, p)
	return nil
}

// PathUpdate carries optional path field changes
type PathUpdate struct {
	Name  *string
	Color *string
}

// UpdatePath applies the non-nil fields of update
func (r *Roadmap) UpdatePath(pathID string, update PathUpdate) error {
	p, err := r.FindPath(pathID)
	if err != nil {
		return err
	}
	if update.Name != nil {
		if *update.Name == "" {
			return ErrNameRequired
		}
		p.Name = *update.Name
	}
	if update.Color != nil {
		p.Color = *update.Color
	}
	return nil
}

// DeletePath removes a path and everything under it
func (r *Roadmap) DeletePath(pathID string) error {
	for i := range r.paths {
		if r.paths[i].ID == pathID {
			r.paths = append(r.paths[:i], r.paths[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrPathNotFound, pathID)
}

// AddInitiative appends an initiative to a path
func (r *Roadmap) AddInitiative(pathID string, init Initiative) error {
	if init.Name == "" {
		return ErrNameRequired
	}
	p, err := r.FindPath(pathID)
	if err != nil {
		return err
	}
	if init.Modules == nil {
		init.Modules = []Module{}
	}
	p.Initiatives = append(p.Initiatives, init)
	return nil
}

// RenameInitiative changes the name of an initiative
func (r *Roadmap) RenameInitiative(pathID, initiativeID, name string) error {
	if name == "" {
		return ErrNameRequired
	}
	init, err := r.FindInitiative(pathID, initiativeID)
	if err != nil {
		return err
	}
	init.Name = name
	return nil
}

// DeleteInitiative removes an initiative and its modules
func (r *Roadmap) DeleteInitiative(pathID, initiativeID string) error {
	p, err := r.FindPath(pathID)
	if err != nil {
		return err
	}
	for i := range p.Initiatives {
		if p.Initiatives[i].ID == initiativeID {
			p.Initiatives = append(p.Initiatives[:i], p.Initiatives[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrInitiativeNotFound, initiativeID)
}

// MoveInitiative reorders initiatives within a path
func (r *Roadmap) MoveInitiative(pathID string, from, to int) error {
	p, err := r.FindPath(pathID)
	if err != nil {
		return err
	}
	moved, err := arrayMove(p.Initiatives, from, to)
	if err != nil {
		return err
	}
	p.Initiatives = moved
	return nil
}

// AddModule appends a module to an initiative
func (r *Roadmap) AddModule(pathID, initiativeID string, m Module) error {
	if m.Name == "" {
		return ErrNameRequired
	}
	init, err := r.FindInitiative(pathID, initiativeID)
	if err != nil {
		return err
	}
	init.Modules = append(init.Modules, m)
	return nil
}

// UpdateModule replaces the module with the same id wherever it lives
func (r *Roadmap) UpdateModule(m Module) error {
	if m.Name == "" {
		return ErrNameRequired
	}
	for pi := range r.paths {
		for ii := range r.paths[pi].Initiatives {
			modules := r.paths[pi].Initiatives[ii].Modules
			for mi := range modules {
				if modules[mi].ID == m.ID {
					modules[mi] = m
					return nil
				}
			}
		}
	}
	return fmt.Errorf("%w: %s", ErrModuleNotFound, m.ID)
}

// DeleteModule removes a module from an initiative
func (r *Roadmap) DeleteModule(pathID, initiativeID, moduleID string) error {
	init, err := r.FindInitiative(pathID, initiativeID)
	if err != nil {
		return err
	}
	for i := range init.Modules {
		if init.Modules[i].ID == moduleID {
			init.Modules = append(init.Modules[:i], init.Modules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrModuleNotFound, moduleID)
}

// MoveModule reorders modules within an initiative
func (r *Roadmap) MoveModule(pathID, initiativeID string, from, to int) error {
	init, err := r.FindInitiative(pathID, initiativeID)
	if err != nil {
		return err
	}
	moved, err := arrayMove(init.Modules, from, to)
	if err != nil {
		return err
	}
	init.Modules = moved
	return nil
}

// MarshalJSON renders the roadmap as an array of paths
func (r *Roadmap) MarshalJSON() ([]byte, error) {
	if r.paths == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.paths)
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Roadmap) UnmarshalJSON(data []byte) error {
	var paths []Path
	if err := json.Unmarshal(data, &paths); err != nil {
		return err
	}
	r.paths = paths
	return nil
}

// arrayMove removes the element at from and reinserts it at to
func arrayMove[T any](items []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, fmt.Errorf("%w: move %d -> %d of %d", ErrIndexOutOfRange, from, to, len(items))
	}
	out := make([]T, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)

	moved := items[from]
	out = append(out[:to], append([]T{moved}, out[to:]...)...)
	return out, nil
}

// IDGenerator issues timestamp-based ids such as "path-1735689600000".
// Two ids requested in the same millisecond collide; Roadmap.Validate reports it.
type IDGenerator struct {
	now func() time.Time
}

// NewIDGenerator creates a generator reading the given clock
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns a new id with the given prefix
func (g *IDGenerator) Next(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, g.now().UnixMilli())
}

var (
	colorMu  sync.Mutex
	colorRNG = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// RandomColor returns a random "#rrggbb" colour for a new path
func RandomColor() string {
	colorMu.Lock()
	defer colorMu.Unlock()
	return fmt.Sprintf("#%06x", colorRNG.Intn(0xFFFFFF))
}
