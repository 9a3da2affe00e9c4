package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"silo-planner/application/feedback"
	"silo-planner/domain/core/valueobjects"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCommentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comments",
		Aliases: []string{"c"},
		Short:   "Read and post architecture feedback",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every annotated entity with its comment count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer engine.Close()

			keys := engine.Keys()
			if len(keys) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No comments yet")
				return nil
			}
			for _, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%-40s %d\n", key, len(engine.Comments(key)))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <key|id|name>",
		Short: "Print the comment thread for an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer engine.Close()

			key, matchedBy, ok := feedback.NewResolver().Resolve(args[0], engine.Keys())
			if !ok {
				return fmt.Errorf("no comments match %q", args[0])
			}
			a.logger.Debug("Resolved reference", zap.String("ref", args[0]), zap.String("key", key), zap.String("matcher", matchedBy))

			fmt.Fprint(cmd.OutOrStdout(), renderThread(cmd.OutOrStdout(), key, engine.Comments(key)))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <key|id|name> <text...>",
		Short: "Post a comment, replying to the entity's thread when one exists",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if !session.CanComment() {
				return fmt.Errorf("set your name first: planner name set <name>")
			}

			engine, err := a.loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer engine.Close()

			key, err := resolveKey(args[0], engine.Keys())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.opts.timeout)
			defer cancel()
			sub, err := engine.Submit(ctx, session, key, strings.Join(args[1:], " "))
			if err != nil {
				return fmt.Errorf("comment not posted: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Comment posted to thread #%d on %s\n", sub.ThreadID, key)
			return nil
		},
	})

	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every comment to a plain-text report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer engine.Close()

			now := a.now()
			report := feedback.Export(engine.Index(), now, nil)

			if output == "-" {
				fmt.Fprint(cmd.OutOrStdout(), report)
				return nil
			}
			if output == "" {
				output = feedback.ExportFilename(now)
			}
			if err := os.WriteFile(output, []byte(report), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `file to write, "-" for stdout (default silo-architecture-feedback-<date>.txt)`)
	return cmd
}

// loadEngine returns an engine holding the current remote comments
func (a *app) loadEngine(ctx context.Context) (*feedback.Engine, error) {
	comments, _, err := a.stores(ctx)
	if err != nil {
		return nil, err
	}

	engine := feedback.NewEngine(comments,
		feedback.WithLogger(a.logger.Named("feedback")),
		feedback.WithClock(a.now),
		feedback.WithReconcileDelay(time.Hour),
	)

	ctx, cancel := context.WithTimeout(ctx, a.opts.timeout)
	defer cancel()
	if err := engine.Refresh(ctx); err != nil {
		engine.Close()
		return nil, fmt.Errorf("load comments: %w", err)
	}
	return engine, nil
}

// resolveKey accepts a full annotation key as-is, otherwise matches
// against the keys that already have threads
func resolveKey(ref string, keys []string) (string, error) {
	if _, _, err := valueobjects.ParseKey(ref); err == nil {
		return ref, nil
	}
	if key, _, ok := feedback.NewResolver().Resolve(ref, keys); ok {
		return key, nil
	}
	return "", fmt.Errorf("%q is not an annotation key (kind:id) and matches no existing thread", ref)
}
