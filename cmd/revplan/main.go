package main

import (
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/spf13/cobra"

	"github.com/odvcencio/revplan/pkg/logging"
)

const version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var fo frontendOptions
	var ro renderOptions

	root := &cobra.Command{
		Use:   "revplan [REVSET]",
		Short: "Explain how a revset will be evaluated",
		Long: "revplan prints the plan a revset compiles to: which parts are fully\n" +
			"materialized, which are filtered lazily or used only as predicates,\n" +
			"and which are likely to be expensive.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runExplain(cmd, &fo, &ro, args[0])
		},
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")
	fo.bind(root)
	ro.bind(root)

	root.AddCommand(newExplainCmd())
	root.AddCommand(newCompareCmd())
	root.AddCommand(newDumpCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newAliasCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "revplan %s\n", version)
		},
	}
}

// newLogger builds the logger for cmd from the persistent --verbose flag.
func newLogger(cmd *cobra.Command) log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return logging.New(cmd.ErrOrStderr(), verbose)
}
