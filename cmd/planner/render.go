package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"silo-planner/domain/core/aggregates"
	"silo-planner/domain/core/entities"

	"github.com/charmbracelet/lipgloss"
)

// styles are bound to the output writer so redirected output stays plain
type styles struct {
	renderer *lipgloss.Renderer
	title    lipgloss.Style
	faint    lipgloss.Style
	author   lipgloss.Style
	reply    lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		renderer: r,
		title:    r.NewStyle().Bold(true),
		faint:    r.NewStyle().Faint(true),
		author:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#4A90A4")),
		reply:    r.NewStyle().PaddingLeft(4),
	}
}

func (s styles) path(p aggregates.Path) string {
	return s.renderer.NewStyle().Bold(true).Foreground(lipgloss.Color(p.Color)).Render("● " + p.Name)
}

func renderRoadmap(w io.Writer, r *aggregates.Roadmap) string {
	s := newStyles(w)
	paths := r.Paths()
	if len(paths) == 0 {
		return "The roadmap is empty. Run: planner roadmap add-path\n"
	}

	var b strings.Builder
	for i, p := range paths {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s\n", s.path(p), s.faint.Render("["+p.ID+"]"))
		if len(p.Initiatives) == 0 {
			fmt.Fprintf(&b, "  %s\n", s.faint.Render("no initiatives"))
		}
		for j, init := range p.Initiatives {
			fmt.Fprintf(&b, "  %d. %s %s\n", j+1, s.title.Render(init.Name), s.faint.Render("["+init.ID+"]"))
			for k, m := range init.Modules {
				line := fmt.Sprintf("     %d. %s", k+1, m.Name)
				if m.Target != "" {
					line += " (" + m.Target + ")"
				}
				fmt.Fprintf(&b, "%s %s\n", line, s.faint.Render("["+m.ID+"]"))
				if m.Notes != "" {
					fmt.Fprintf(&b, "        %s\n", s.faint.Render(m.Notes))
				}
			}
		}
	}

	nPaths, nInits, nMods := r.Counts()
	fmt.Fprintf(&b, "\n%s\n", s.faint.Render(fmt.Sprintf("%d paths, %d initiatives, %d modules", nPaths, nInits, nMods)))
	return b.String()
}

func renderThread(w io.Writer, key string, comments []entities.Comment) string {
	s := newStyles(w)

	var b strings.Builder
	b.WriteString(s.title.Render(key))
	if len(comments) > 0 && comments[0].ThreadID != 0 {
		b.WriteString(" " + s.faint.Render(fmt.Sprintf("#%d", comments[0].ThreadID)))
	}
	b.WriteString("\n")

	for _, c := range comments {
		when := time.UnixMilli(c.Timestamp).UTC().Format("2006-01-02 15:04")
		entry := fmt.Sprintf("%s %s\n%s", s.author.Render(c.Author), s.faint.Render(when), c.Text)
		if c.IsReply {
			entry = s.reply.Render(entry)
		}
		b.WriteString("\n" + entry + "\n")
	}
	return b.String()
}
