package feedback

import (
	"strings"
	"testing"
	"time"

	"silo-planner/domain/core/entities"
	"silo-planner/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
)

func TestExportFilename(t *testing.T) {
	ts := time.Date(2026, 3, 9, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "silo-architecture-feedback-2026-03-09.txt", ExportFilename(ts))
}

func TestExport_GroupsByKind(t *testing.T) {
	index := map[string][]entities.Comment{
		"function:receiving": {
			{Author: "Pat", Text: "Needs work", Timestamp: 1},
			{Author: "Sam", Text: "Agreed", Timestamp: 2, IsReply: true},
		},
		"base:silo":      {{Author: "Lee", Text: "Solid core", Timestamp: 3}},
		"liteType:scale": {{Author: "Kim", Text: "Portal?", Timestamp: 4}},
		"customer:farm":  {},
		"garbage":        {{Author: "X", Text: "ignored"}},
	}
	names := func(kind valueobjects.EntityKind, id string) (string, bool) {
		if kind == valueobjects.KindFunction && id == "receiving" {
			return "Receiving & Intake", true
		}
		return "", false
	}

	out := Export(index, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), names)

	assert.True(t, strings.HasPrefix(out, "SILO MODULAR ARCHITECTURE FEEDBACK\nGenerated: 2026-01-02\nTotal Comments: 4\n"))
	assert.Contains(t, out, strings.Repeat("=", 50))
	assert.Contains(t, out, "Receiving & Intake:\n- Pat: Needs work\n- Sam: Agreed\n")
	assert.Contains(t, out, "silo:\n- Lee: Solid core\n")
	assert.Contains(t, out, "scale:\n- Kim: Portal?\n")
	assert.NotContains(t, out, "CUSTOMER SEGMENTS")
	assert.NotContains(t, out, "ignored")

	base := strings.Index(out, "SILO BASE")
	functions := strings.Index(out, "FUNCTIONS")
	lite := strings.Index(out, "LITE PORTAL TYPES")
	assert.True(t, base < functions && functions < lite, "sections follow kind order")
}

func TestExport_Empty(t *testing.T) {
	out := Export(nil, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), nil)
	assert.Contains(t, out, "Total Comments: 0")
	assert.NotContains(t, out, "---")
}
