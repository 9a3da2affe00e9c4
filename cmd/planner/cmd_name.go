package main

import (
	"fmt"
	"strings"

	"silo-planner/application/feedback"
	domainconfig "silo-planner/domain/config"

	"github.com/spf13/cobra"
)

func newNameCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "name",
		Short: "Manage the name your comments are posted under",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <name>",
		Short: "Remember the commenter name on this machine",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				return fmt.Errorf("name cannot be blank")
			}
			key := domainconfig.DefaultDomainConfig().CommenterCacheKey
			if err := feedback.SaveSession(cmd.Context(), a.kv, key, feedback.Session{CommenterName: name}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Commenting as %s\n", name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "show",
		Aliases: []string{"whoami"},
		Short:   "Print the current commenter name",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if !session.CanComment() {
				fmt.Fprintln(cmd.OutOrStdout(), "No name set. Run: planner name set <name>")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), session.CommenterName)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the commenter name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := domainconfig.DefaultDomainConfig().CommenterCacheKey
			if err := feedback.SaveSession(cmd.Context(), a.kv, key, feedback.Session{}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Name cleared")
			return nil
		},
	})

	return cmd
}
