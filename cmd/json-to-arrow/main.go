// Command json-to-arrow converts a JSON file into an Arrow IPC file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"arrowtools/arrowio"
	"arrowtools/ingest"
	"arrowtools/jsonsrc"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		maxRows               int64
		maxColumns            int64
		maxBytesPerValue      int64
		maxBytesTotal         int64
		maxColumnNameLen      int
		maxBytesPerErrorValue int64
	)

	cmd := &cobra.Command{
		Use:   "json-to-arrow INPUT.json OUTPUT.arrow",
		Short: "Convert a JSON file of records into an Arrow IPC file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			out, err := os.Create(args[1])
			if err != nil {
				return err
			}
			defer out.Close()

			lim := ingest.Limits{
				MaxRows:          maxRows,
				MaxColumns:       maxColumns,
				MaxBytesPerValue: maxBytesPerValue,
				MaxBytesTotal:    maxBytesTotal,
			}
			tbl := ingest.NewTable(lim, ingest.ColumnNameLimits{MaxBytes: maxColumnNameLen})

			opts := jsonsrc.Options{MaxBytesPerErrorValue: maxBytesPerErrorValue}
			if err := jsonsrc.Parse(in, tbl, opts); err != nil {
				return err
			}
			res := tbl.Finish()

			if err := arrowio.Write(out, res); err != nil {
				return err
			}
			_, err = res.Events.WriteTo(os.Stdout)
			return err
		},
	}

	flags := cmd.Flags()
	flags.Int64Var(&maxRows, "max-rows", 1_000_000, "maximum number of rows to ingest (0 = unlimited)")
	flags.Int64Var(&maxColumns, "max-columns", 2000, "maximum number of columns to ingest (0 = unlimited)")
	flags.Int64Var(&maxBytesPerValue, "max-bytes-per-value", 32*1024, "maximum stored bytes per value (0 = unlimited)")
	flags.Int64Var(&maxBytesTotal, "max-bytes-total", 1<<30, "maximum total stored value bytes (0 = unlimited)")
	flags.IntVar(&maxColumnNameLen, "max-column-name-bytes", 255, "maximum stored bytes per column name")
	flags.Int64Var(&maxBytesPerErrorValue, "max-bytes-per-error-value", jsonsrc.DefaultMaxBytesPerErrorValue, "maximum bytes of a value's literal text quoted back in a diagnostic message")

	return cmd
}
