package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/revplan/pkg/diff"
	"github.com/odvcencio/revplan/pkg/plan"
	"github.com/odvcencio/revplan/pkg/render"
)

func newCompareCmd() *cobra.Command {
	var fo frontendOptions
	var ro renderOptions

	cmd := &cobra.Command{
		Use:   "compare <revset>",
		Short: "Show what the optimizer changes in a revset's plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, opts, err := ro.options()
			if err != nil {
				return err
			}
			logger := newLogger(cmd)

			var plans [2]string
			for i, optimize := range []bool{false, true} {
				c, err := fo.compileWith(args[0], optimize, logger)
				if err != nil {
					return err
				}
				plans[i] = render.Sprint(plan.FromResolved(c.expr, c.table), ctx, opts)
			}
			edits := diff.Plans(plans[0], plans[1])
			if !diff.Changed(edits) {
				fmt.Fprint(cmd.OutOrStdout(), plans[1])
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), diff.Format("unoptimized", "optimized", edits))
			return nil
		},
	}
	fo.bind(cmd)
	ro.bind(cmd)
	cmd.Flags().Lookup("no-optimize").Hidden = true
	cmd.Flags().Lookup("color").Hidden = true
	return cmd
}
