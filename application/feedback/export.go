package feedback

import (
	"fmt"
	"strings"
	"time"

	"silo-planner/domain/core/entities"
	"silo-planner/domain/core/valueobjects"
)

// NameLookup resolves a friendly display name for an entity; ok=false keeps the raw id
type NameLookup func(kind valueobjects.EntityKind, id string) (string, bool)

var sectionTitles = map[valueobjects.EntityKind]string{
	valueobjects.KindBase:     "SILO BASE",
	valueobjects.KindCustomer: "CUSTOMER SEGMENTS",
	valueobjects.KindFunction: "FUNCTIONS",
	valueobjects.KindLiteType: "LITE PORTAL TYPES",
	valueobjects.KindInput:    "INPUTS",
	valueobjects.KindOutput:   "OUTPUTS",
}

// ExportFilename returns the conventional file name for an export generated at t
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("silo-architecture-feedback-%s.txt", t.Format("2006-01-02"))
}

// Export renders the comment index as a plain-text report grouped by entity kind.
// Keys that do not parse are left out.
func Export(index map[string][]entities.Comment, generated time.Time, names NameLookup) string {
	type entry struct {
		name     string
		comments []entities.Comment
	}

	grouped := make(map[valueobjects.EntityKind][]entry)
	total := 0
	for _, key := range entities.NewCommentIndexFrom(index).Keys() {
		comments := index[key]
		if len(comments) == 0 {
			continue
		}
		kind, id, err := valueobjects.ParseKey(key)
		if err != nil {
			continue
		}
		name := id
		if names != nil {
			if friendly, ok := names(kind, id); ok {
				name = friendly
			}
		}
		grouped[kind] = append(grouped[kind], entry{name: name, comments: comments})
		total += len(comments)
	}

	var b strings.Builder
	b.WriteString("SILO MODULAR ARCHITECTURE FEEDBACK\n")
	fmt.Fprintf(&b, "Generated: %s\n", generated.Format("2006-01-02"))
	fmt.Fprintf(&b, "Total Comments: %d\n", total)
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, kind := range valueobjects.AllKinds() {
		entries := grouped[kind]
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s\n%s\n", sectionTitles[kind], strings.Repeat("-", 30))
		for _, e := range entries {
			fmt.Fprintf(&b, "\n%s:\n", e.name)
			for _, c := range e.comments {
				fmt.Fprintf(&b, "- %s: %s\n", c.Author, c.Text)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}
