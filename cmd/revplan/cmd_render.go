package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/odvcencio/revplan/pkg/config"
	"github.com/odvcencio/revplan/pkg/plan"
	"github.com/odvcencio/revplan/pkg/reftable"
	"github.com/odvcencio/revplan/pkg/resolved"
)

func newRenderCmd() *cobra.Command {
	var ro renderOptions
	var noConfig bool

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Print the evaluation plan of a dumped resolved tree",
		Long:  "Reads a dump written by `revplan dump` (plain or zstd) from FILE, or stdin when FILE is -.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("render: %w", err)
				}
				defer f.Close()
				r = f
			}
			table := reftable.New()
			expr, err := resolved.ReadDump(r, table)
			if err != nil {
				return err
			}
			level.Debug(logger).Log("msg", "read dump", "input", args[0], "references", table.Len())

			cfg, err := config.Load(config.Options{NoUserConfig: noConfig, Logger: logger})
			if err != nil {
				return err
			}
			return ro.print(cmd, plan.FromResolved(expr, table), cfg)
		},
	}
	ro.bind(cmd)
	cmd.Flags().BoolVarP(&noConfig, "no-config", "C", false, "Ignore user configuration")
	return cmd
}
