package main

import (
	"github.com/spf13/cobra"

	"github.com/odvcencio/revplan/pkg/plan"
)

func newExplainCmd() *cobra.Command {
	var fo frontendOptions
	var ro renderOptions

	cmd := &cobra.Command{
		Use:   "explain <revset>",
		Short: "Print the evaluation plan of a revset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, &fo, &ro, args[0])
		},
	}
	fo.bind(cmd)
	ro.bind(cmd)
	return cmd
}

func runExplain(cmd *cobra.Command, fo *frontendOptions, ro *renderOptions, input string) error {
	c, err := fo.compile(input, newLogger(cmd))
	if err != nil {
		return err
	}
	return ro.print(cmd, plan.FromResolved(c.expr, c.table), c.cfg)
}
