package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/odvcencio/revplan/pkg/config"
)

func newAliasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage revset aliases in the user config",
		Args:  cobra.NoArgs,
	}

	var noConfig bool
	var repository string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the revset aliases in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.Options{NoUserConfig: noConfig, Logger: newLogger(cmd)}
			if !noConfig {
				fo := frontendOptions{repository: repository}
				ws, _, err := fo.workspace(opts.Logger)
				if err != nil {
					return err
				}
				opts.WorkspaceDir = ws
			}
			aliases, err := config.ListAliases(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, a := range aliases {
				fmt.Fprintf(out, "%s = %s\t# %s\n", a.Decl, strconv.Quote(a.Body), a.Source)
			}
			return nil
		},
	}
	list.Flags().BoolVarP(&noConfig, "no-config", "C", false, "Only list builtin aliases")
	list.Flags().StringVarP(&repository, "repository", "R", "", "Workspace to load configuration from")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "set <name> <body>",
		Short: "Define a revset alias in the user config",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.UserConfigPath()
			if err != nil {
				return err
			}
			if err := config.SetAlias(path, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "set alias %s in %s\n", args[0], path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "unset <name>",
		Short: "Remove a revset alias from the user config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.UserConfigPath()
			if err != nil {
				return err
			}
			removed, err := config.UnsetAlias(path, args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("alias %s is not defined in %s", args[0], path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed alias %s from %s\n", args[0], path)
			return nil
		},
	})
	return cmd
}
