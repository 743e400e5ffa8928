// Command xls-to-arrow converts a legacy binary XLS workbook into an
// Arrow IPC file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"arrowtools/arrowio"
	"arrowtools/ingest"
	"arrowtools/xlssrc"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		maxRows          int64
		maxColumns       int64
		maxBytesPerValue int64
		maxBytesTotal    int64
		maxColumnNameLen int
		headerRows       string
		headerRowsFile   string
		sheet            int
	)

	cmd := &cobra.Command{
		Use:   "xls-to-arrow INPUT.xls OUTPUT.arrow",
		Short: "Convert a legacy binary XLS workbook into an Arrow IPC file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			headerRange, err := xlssrc.ParseHeaderRowRange(headerRows)
			if err != nil {
				return err
			}

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

			opts := xlssrc.Options{HeaderRows: headerRange, Sheet: sheet}
			var headerTbl *ingest.Table
			if headerRowsFile != "" {
				headerTbl = ingest.NewTable(ingest.Limits{MaxBytesPerValue: maxBytesPerValue}, ingest.ColumnNameLimits{MaxBytes: maxColumnNameLen})
				opts.HeaderTable = headerTbl
			}

			if err := xlssrc.Parse(args[0], tbl, opts); err != nil {
				return err
			}
			res := tbl.Finish()

			if err := arrowio.Write(out, res); err != nil {
				return err
			}

			if headerTbl != nil {
				headerOut, err := os.Create(headerRowsFile)
				if err != nil {
					return err
				}
				defer headerOut.Close()
				if err := arrowio.Write(headerOut, headerTbl.Finish()); err != nil {
					return err
				}
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
	flags.StringVar(&headerRows, "header-rows", "1-1", "inclusive 1-based row range to use as column names, e.g. \"2-3\" (0 = none)")
	flags.StringVar(&headerRowsFile, "header-rows-file", "", "write the captured header rows to a separate Arrow IPC file at PATH")
	flags.IntVar(&sheet, "sheet", 0, "0-based index of the sheet to read")

	return cmd
}
