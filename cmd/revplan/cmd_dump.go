package main

import (
	"fmt"
	"os"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/odvcencio/revplan/pkg/resolved"
)

func newDumpCmd() *cobra.Command {
	var fo frontendOptions
	var output string
	var compress bool

	cmd := &cobra.Command{
		Use:   "dump <revset>",
		Short: "Write the resolved tree of a revset as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)
			c, err := fo.compile(args[0], logger)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return resolved.WriteDump(cmd.OutOrStdout(), c.expr, c.table, compress)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("dump: %w", err)
			}
			if err := resolved.WriteDump(f, c.expr, c.table, compress); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("dump: close: %w", err)
			}
			level.Debug(logger).Log("msg", "wrote dump", "path", output, "zstd", compress, "references", c.table.Len())
			return nil
		},
	}
	fo.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to FILE instead of stdout")
	cmd.Flags().BoolVar(&compress, "zstd", false, "Compress the dump with zstd")
	return cmd
}
