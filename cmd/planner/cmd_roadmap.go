package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"silo-planner/application/planning"
	"silo-planner/domain/core/aggregates"

	"github.com/spf13/cobra"
)

// editFunc applies one change to the board and returns the line to print
type editFunc func(ctx context.Context, board *planning.Board, current *aggregates.Roadmap) (string, error)

func newRoadmapCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "roadmap",
		Aliases: []string{"r"},
		Short:   "View and edit the Path → Initiative → Module roadmap",
		Long: "View and edit the roadmap. Paths, initiatives and modules can be referred to\n" +
			"by id, by name, or by their 1-based position as shown by 'roadmap show'.",
	}

	var asJSON bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the roadmap tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editRoadmap(cmd, func(ctx context.Context, board *planning.Board, current *aggregates.Roadmap) (string, error) {
				if asJSON {
					data, err := json.MarshalIndent(current, "", "  ")
					if err != nil {
						return "", err
					}
					return string(data) + "\n", nil
				}
				return renderRoadmap(cmd.OutOrStdout(), current), nil
			})
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "print the stored JSON document")

	cmd.AddCommand(
		show,
		newAddPathCmd(a),
		newUpdatePathCmd(a),
		newDeletePathCmd(a),
		newAddInitiativeCmd(a),
		newRenameInitiativeCmd(a),
		newMoveInitiativeCmd(a),
		newDeleteInitiativeCmd(a),
		newAddModuleCmd(a),
		newUpdateModuleCmd(a),
		newMoveModuleCmd(a),
		newDeleteModuleCmd(a),
		newImportCmd(a),
	)
	return cmd
}

func newAddPathCmd(a *app) *cobra.Command {
	var name, color string
	cmd := &cobra.Command{
		Use:   "add-path",
		Short: "Append a new path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editRoadmap(cmd, func(ctx context.Context, board *planning.Board, _ *aggregates.Roadmap) (string, error) {
				p, err := board.AddPath(ctx)
				if err != nil {
					return "", err
				}
				update := aggregates.PathUpdate{}
				if cmd.Flags().Changed("name") {
					update.Name = &name
					p.Name = name
				}
				if cmd.Flags().Changed("color") {
					update.Color = &color
					p.Color = color
				}
				if update.Name != nil || update.Color != nil {
					if err := board.UpdatePath(ctx, p.ID, update); err != nil {
						return "", err
					}
				}
				return fmt.Sprintf("Added path %q [%s]\n", p.Name, p.ID), nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "path name (default \"New Path\")")
	cmd.Flags().StringVar(&color, "color", "", "path colour as #rrggbb (default random)")
	return cmd
}

func newUpdatePathCmd(a *app) *cobra.Command {
	var name, color string
	cmd := &cobra.Command{
		Use:   "update-path <path>",
		Short: "Rename or recolour a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("name") && !cmd.Flags().Changed("color") {
				return errors.New("nothing to change: pass --name and/or --color")
			}
			return a.editRoadmap(cmd, func(ctx context.Context, board *planning.Board, current *aggregates.Roadmap) (string, error) {
				p, err := resolvePath(current, args[0])
				if err != nil {
					return "", err
				}
				update := aggregates.PathUpdate{}
				if cmd.Flags().Changed("name") {
					update.Name = &name
				}
				if cmd.Flags().Changed("color") {
					update.Color = &color
				}
				if err := board.UpdatePath(ctx, p.ID, update); err != nil {
					return "", err
				}
				return fmt.Sprintf("Updated path [%s]\n", p.ID), nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&color, "color", "", "new colour as #rrggbb")
	return cmd
}

func newDeletePathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-path <path>",
		Short: "Delete a path with all of its initiatives and modules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editRoadmap(cmd, func(ctx context.Context, board *planning.Board, current *aggregates.Roadmap) (string, error) {
				p, err := resolvePath(current, args[0])
				if err != nil {
					return "", err
				}
				if err := board.DeletePath(ctx, p.ID); err != nil {
					return "", err
				}
				return fmt.Sprintf("Deleted path %q\n", p.Name), nil
			})
		},
	}
}

func newAddInitiativeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-initiative <path> <name...>",
		Short: "Append an initiative to a path",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editRoadmap(cmd, func(ctx context.Context, board *planning.Board, current *aggregates.Roadmap) (string, error) {
				p, err := resolvePath(current, args[0])
				if err != nil {
					return "", err
				}
				init, err := board.AddInitiative(ctx, p.ID, strings.Join(args[1:], " "))
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Added initiative %q [%s] to %s\n", init.Name, init.ID, p.Name), nil
			})
		},
	}
}

func newRenameInitiativeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename-initiative <path> <initiative> <name...>",
		Short: "Rename an initiative",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editRoadmap(cmd, func(ctx context.Context, board *planning.Board, current *aggregates.Roadmap) (string, error) {
				p, init, err := resolveInitiative(current, args[0], args[1])
				if err != nil {
					return "", err
				}
				if err := board.RenameInitiative(ctx, p.ID, init.ID, strings.Join(args[2:], " ")); err != nil {
					return "", err
				}
				return fmt.Sprintf("Renamed initiative [%s]\n", init.ID), nil
			})
		},
	}
}

func newMoveInitiativeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move-initiative <path> <from> <to>",
		Short: "Move an initiative to another position within its path (1-based)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := positions(args[1], args[2])
			if err != nil {
				return err
			}
			return a.editRoadmap(cmd, func(ctx context.Context, board *planning.Board, current *aggregates.Roadmap) (string, error) {
				p, err := resolvePath(current, args[0])
				if err != nil {
					return "", err
				}
				if err := board.MoveInitiative(ctx, p.ID, from, to); err != nil {
					return "", err
				}
				return fmt.Sprintf("Moved initiative %d to position %d in %s\n", from+1, to+1, p.Name), nil
			})
		},
	}
}

func newDeleteInitiativeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-initiative <path> <initiative>",
		Short: "Delete an initiative with all of its modules",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editRoadmap(cmd, func(ctx context.Context, board *planning.Board, current *aggregates.Roadmap) (string, error) {
				p, init, err := resolveInitiative(current, args[0], args[1])
				if err != nil {
					return "", err
				}
				if err := board.DeleteInitiative(ctx, p.ID, init.ID); err != nil {
					return "", err
				}
				return fmt.Sprintf("Deleted initiative %q\n", init.Name), nil
			})
		},
	}
}

func newAddModuleCmd(a *app) *cobra.Command {
	var target, notes string
	cmd := &cobra.Command{
		Use:   "add-module <path> <initiative> <name...>",
		Short: "Append a module to an initiative",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editRoadmap(cmd, func(ctx context.Context, board *planning.Board, current *aggregates.Roadmap) (string, error) {
				p, init, err := resolveInitiative(current, args[0], args[1])
				if err != nil {
					return "", err
				}
				m, err := board.AddModule(ctx, p.ID, init.ID, aggregates.Module{
					Name:   strings.Join(args[2:], " "),
					Target: target,
					Notes:  notes,
				})
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Added module %q [%s] to %s\n", m.Name, m.ID, init.Name), nil
			})
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "target date, e.g. \"Q2 2026\"")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

func newUpdateModuleCmd(a *app) *cobra.Command {
	var name, target, notes string
	cmd := &cobra.Command{
		Use:   "update-module <path> <initiative> <module>",
		Short: "Change a module's name, target or notes",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editRoadmap(cmd, func(ctx context.Context, board *planning.Board, current *aggregates.Roadmap) (string, error) {
				_, init, err := resolveInitiative(current, args[0], args[1])
				if err != nil {
					return "", err
				}
				m, err := resolveModule(init, args[2])
				if err != nil {
					return "", err
				}
				if cmd.Flags().Changed("name") {
					m.Name = strings.TrimSpace(name)
				}
				if cmd.Flags().Changed("target") {
					m.Target = target
				}
				if cmd.Flags().Changed("notes") {
					m.Notes = notes
				}
				if err := board.UpdateModule(ctx, m); err != nil {
					return "", err
				}
				return fmt.Sprintf("Updated module [%s]\n", m.ID), nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&target, "target", "", "new target date")
	cmd.Flags().StringVar(&notes, "notes", "", "new notes")
	return cmd
}

func newMoveModuleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move-module <path> <initiative> <from> <to>",
		Short: "Move a module to another position within its initiative (1-based)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := positions(args[2], args[3])
			if err != nil {
				return err
			}
			return a.editRoadmap(cmd, func(ctx context.Context, board *planning.Board, current *aggregates.Roadmap) (string, error) {
				p, init, err := resolveInitiative(current, args[0], args[1])
				if err != nil {
					return "", err
				}
				if err := board.MoveModule(ctx, p.ID, init.ID, from, to); err != nil {
					return "", err
				}
				return fmt.Sprintf("Moved module %d to position %d in %s\n", from+1, to+1, init.Name), nil
			})
		},
	}
}

func newDeleteModuleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-module <path> <initiative> <module>",
		Short: "Delete a module",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editRoadmap(cmd, func(ctx context.Context, board *planning.Board, current *aggregates.Roadmap) (string, error) {
				p, init, err := resolveInitiative(current, args[0], args[1])
				if err != nil {
					return "", err
				}
				m, err := resolveModule(init, args[2])
				if err != nil {
					return "", err
				}
				if err := board.DeleteModule(ctx, p.ID, init.ID, m.ID); err != nil {
					return "", err
				}
				return fmt.Sprintf("Deleted module %q\n", m.Name), nil
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the whole roadmap with a JSON array of paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read roadmap: %w", err)
			}
			var imported aggregates.Roadmap
			if err := json.Unmarshal(data, &imported); err != nil {
				return fmt.Errorf("roadmap must be a JSON array of paths: %w", err)
			}
			if err := imported.Validate(); err != nil {
				return err
			}
			return a.editRoadmap(cmd, func(ctx context.Context, board *planning.Board, _ *aggregates.Roadmap) (string, error) {
				if err := board.Replace(ctx, &imported); err != nil {
					return "", err
				}
				paths, inits, mods := imported.Counts()
				return fmt.Sprintf("Imported %d paths, %d initiatives, %d modules\n", paths, inits, mods), nil
			})
		},
	}
}

// editRoadmap opens a board, runs edit against the loaded tree, and waits for
// the remote save before returning
func (a *app) editRoadmap(cmd *cobra.Command, edit editFunc) error {
	ctx := cmd.Context()
	_, roadmaps, err := a.stores(ctx)
	if err != nil {
		return err
	}

	board := planning.NewBoard(roadmaps, a.kv,
		planning.WithLogger(a.logger.Named("planning")),
		planning.WithClock(a.now),
		planning.WithDebounce(0),
		planning.WithSaveTimeout(a.opts.timeout),
	)
	board.Open(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, a.opts.timeout)
	defer cancel()
	if err := board.WaitLoaded(waitCtx); err != nil {
		_ = board.Close()
		return fmt.Errorf("load roadmap: %w", err)
	}

	out, editErr := edit(ctx, board, board.Snapshot())
	if closeErr := board.Close(); closeErr != nil && editErr == nil {
		return fmt.Errorf("changes kept in the local cache but not saved remotely: %w", closeErr)
	}
	if editErr != nil {
		return editErr
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func resolvePath(r *aggregates.Roadmap, ref string) (aggregates.Path, error) {
	paths := r.Paths()
	if i, ok := position(ref, len(paths)); ok {
		return paths[i], nil
	}
	for _, p := range paths {
		if p.ID == ref {
			return p, nil
		}
	}
	for _, p := range paths {
		if strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return aggregates.Path{}, fmt.Errorf("no path matches %q", ref)
}

func resolveInitiative(r *aggregates.Roadmap, pathRef, initRef string) (aggregates.Path, aggregates.Initiative, error) {
	p, err := resolvePath(r, pathRef)
	if err != nil {
		return aggregates.Path{}, aggregates.Initiative{}, err
	}
	if i, ok := position(initRef, len(p.Initiatives)); ok {
		return p, p.Initiatives[i], nil
	}
	for _, init := range p.Initiatives {
		if init.ID == initRef || strings.EqualFold(init.Name, initRef) {
			return p, init, nil
		}
	}
	return aggregates.Path{}, aggregates.Initiative{}, fmt.Errorf("no initiative in %s matches %q", p.Name, initRef)
}

func resolveModule(init aggregates.Initiative, ref string) (aggregates.Module, error) {
	if i, ok := position(ref, len(init.Modules)); ok {
		return init.Modules[i], nil
	}
	for _, m := range init.Modules {
		if m.ID == ref || strings.EqualFold(m.Name, ref) {
			return m, nil
		}
	}
	return aggregates.Module{}, fmt.Errorf("no module in %s matches %q", init.Name, ref)
}

// position converts a 1-based index into a 0-based one when it is in range
func position(ref string, n int) (int, bool) {
	i, err := strconv.Atoi(ref)
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

func positions(from, to string) (int, int, error) {
	f, err := strconv.Atoi(from)
	if err != nil || f < 1 {
		return 0, 0, fmt.Errorf("invalid position %q", from)
	}
	t, err := strconv.Atoi(to)
	if err != nil || t < 1 {
		return 0, 0, fmt.Errorf("invalid position %q", to)
	}
	return f - 1, t - 1, nil
}
