package aggregates

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roadmapWithModules(ids ...string) *Roadmap {
	modules := make([]Module, 0, len(ids))
	for _, id := range ids {
		modules = append(modules, Module{ID: id, Name: "Module " + id})
	}
	return NewRoadmap(Path{
		ID:   "p1",
		Name: "Path",
		Initiatives: []Initiative{
			{ID: "i1", Name: "Initiative", Modules: modules},
		},
	})
}

func moduleIDs(t *testing.T, r *Roadmap) []string {
	t.Helper()
	init, err := r.FindInitiative("p1", "i1")
	require.NoError(t, err)
	ids := make([]string, 0, len(init.Modules))
	for _, m := range init.Modules {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestDefaultRoadmap(t *testing.T) {
	r := DefaultRoadmap()
	paths := r.Paths()
	require.Len(t, paths, 1)

	assert.Equal(t, "Personnel & Labor", paths[0].Name)
	assert.Equal(t, "#4A90A4", paths[0].Color)
	require.Len(t, paths[0].Initiatives, 1)
	assert.Equal(t, "Pet Tiger Integration", paths[0].Initiatives[0].Name)
	require.Len(t, paths[0].Initiatives[0].Modules, 1)

	m := paths[0].Initiatives[0].Modules[0]
	assert.Equal(t, "Systems Understanding", m.Name)
	assert.Equal(t, "Q1 2026", m.Target)
	assert.Equal(t, "Document current architecture", m.Notes)
	assert.NoError(t, r.Validate())
}

func TestMoveModule(t *testing.T) {
	t.Run("index 2 to index 0 keeps relative order", func(t *testing.T) {
		r := roadmapWithModules("a", "b", "c", "d")
		require.NoError(t, r.MoveModule("p1", "i1", 2, 0))
		assert.Equal(t, []string{"c", "a", "b", "d"}, moduleIDs(t, r))
	})

	t.Run("forward move", func(t *testing.T) {
		r := roadmapWithModules("a", "b", "c", "d")
		require.NoError(t, r.MoveModule("p1", "i1", 0, 3))
		assert.Equal(t, []string{"b", "c", "d", "a"}, moduleIDs(t, r))
	})

	t.Run("out of range", func(t *testing.T) {
		r := roadmapWithModules("a", "b")
		err := r.MoveModule("p1", "i1", 0, 2)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		assert.Equal(t, []string{"a", "b"}, moduleIDs(t, r))
	})

	t.Run("unknown initiative", func(t *testing.T) {
		r := roadmapWithModules("a")
		assert.ErrorIs(t, r.MoveModule("p1", "nope", 0, 0), ErrInitiativeNotFound)
	})
}

func TestMoveInitiative(t *testing.T) {
	r := NewRoadmap(Path{ID: "p1", Name: "P", Initiatives: []Initiative{
		{ID: "i1", Name: "one"}, {ID: "i2", Name: "two"}, {ID: "i3", Name: "three"},
	}})

	require.NoError(t, r.MoveInitiative("p1", 2, 1))
	p, err := r.FindPath("p1")
	require.NoError(t, err)
	assert.Equal(t, "i3", p.Initiatives[1].ID)
	assert.Equal(t, "i2", p.Initiatives[2].ID)
}

func TestRoadmapCRUD(t *testing.T) {
	r := NewRoadmap()
	require.NoError(t, r.AddPath(Path{ID: "p1", Name: "Ops", Color: "#000000"}))
	require.NoError(t, r.AddInitiative("p1", Initiative{ID: "i1", Name: "Automation"}))
	require.NoError(t, r.AddModule("p1", "i1", Module{ID: "m1", Name: "Sensors", Target: "Q2"}))

	assert.ErrorIs(t, r.AddPath(Path{ID: "p2"}), ErrNameRequired)
	assert.ErrorIs(t, r.AddInitiative("missing", Initiative{ID: "x", Name: "x"}), ErrPathNotFound)

	name := "Operations"
	require.NoError(t, r.UpdatePath("p1", PathUpdate{Name: &name}))
	require.NoError(t, r.RenameInitiative("p1", "i1", "Automation v2"))
	require.NoError(t, r.UpdateModule(Module{ID: "m1", Name: "Sensors", Target: "Q3", Notes: "moved"}))

	pathID, initID, err := r.LocateModule("m1")
	require.NoError(t, err)
	assert.Equal(t, "p1", pathID)
	assert.Equal(t, "i1", initID)

	p, _ := r.FindPath("p1")
	assert.Equal(t, "Operations", p.Name)
	assert.Equal(t, "Automation v2", p.Initiatives[0].Name)
	assert.Equal(t, "Q3", p.Initiatives[0].Modules[0].Target)

	paths, inits, mods := r.Counts()
	assert.Equal(t, []int{1, 1, 1}, []int{paths, inits, mods})

	require.NoError(t, r.DeleteModule("p1", "i1", "m1"))
	assert.ErrorIs(t, r.DeleteModule("p1", "i1", "m1"), ErrModuleNotFound)
	require.NoError(t, r.DeleteInitiative("p1", "i1"))
	require.NoError(t, r.DeletePath("p1"))
	assert.True(t, r.IsEmpty())
}

func TestValidateDetectsDuplicateIDs(t *testing.T) {
	r := NewRoadmap(Path{ID: "path-1", Name: "A", Initiatives: []Initiative{
		{ID: "path-1", Name: "clash"},
	}})
	assert.Error(t, r.Validate())
}

func TestCloneIsDeep(t *testing.T) {
	r := roadmapWithModules("a", "b")
	c := r.Clone()
	require.NoError(t, c.MoveModule("p1", "i1", 1, 0))

	assert.Equal(t, []string{"a", "b"}, moduleIDs(t, r))
	assert.Equal(t, []string{"b", "a"}, moduleIDs(t, c))
}

func TestRoadmapJSONIsArray(t *testing.T) {
	data, err := json.Marshal(NewRoadmap())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	var r Roadmap
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"p","name":"P","color":"#fff","initiatives":[]}]`), &r))
	assert.False(t, r.IsEmpty())
}

func TestIDGenerator(t *testing.T) {
	fixed := time.UnixMilli(1735689600000)
	gen := NewIDGenerator(func() time.Time { return fixed })

	assert.Equal(t, "path-1735689600000", gen.Next(PathIDPrefix))
	assert.Equal(t, "mod-1735689600000", gen.Next(ModuleIDPrefix))
}

func TestRandomColor(t *testing.T) {
	assert.Regexp(t, `^#[0-9a-f]{6}$`, RandomColor())
}
