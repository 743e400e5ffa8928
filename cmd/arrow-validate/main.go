// Command arrow-validate checks an Arrow IPC file against a
// configurable set of structural and content invariants.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"arrowtools/validate"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	checks := validate.DefaultChecks()
	var columnNameMaxBytes int64
	noChecks := map[string]*bool{
		"utf8":                           new(bool),
		"offsets-dont-overflow":          new(bool),
		"floats-all-finite":              new(bool),
		"dictionary-values-all-used":     new(bool),
		"dictionary-values-not-null":     new(bool),
		"dictionary-values-unique":       new(bool),
		"column-name-control-characters": new(bool),
	}

	cmd := &cobra.Command{
		Use:   "arrow-validate INPUT.arrow",
		Short: "Validate an Arrow IPC file against a configurable set of checks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checks.ColumnNameMaxBytes = columnNameMaxBytes
			if *noChecks["utf8"] {
				checks.UTF8 = false
			}
			if *noChecks["offsets-dont-overflow"] {
				checks.OffsetsDontOverflow = false
			}
			if *noChecks["floats-all-finite"] {
				checks.FloatsAllFinite = false
			}
			if *noChecks["dictionary-values-all-used"] {
				checks.DictionaryValuesAllUsed = false
			}
			if *noChecks["dictionary-values-not-null"] {
				checks.DictionaryValuesNotNull = false
			}
			if *noChecks["dictionary-values-unique"] {
				checks.DictionaryValuesUnique = false
			}
			if *noChecks["column-name-control-characters"] {
				checks.ColumnNameControlChars = false
			}
			failures, err := validate.File(args[0], checks)
			if err != nil {
				return err
			}
			for _, f := range failures {
				fmt.Println(f)
			}
			if len(failures) > 0 {
				os.Exit(1)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&checks.UTF8, "check-utf8", checks.UTF8, "require every String value to be valid UTF-8")
	flags.BoolVar(&checks.OffsetsDontOverflow, "check-offsets-dont-overflow", checks.OffsetsDontOverflow, "require String column offsets to be non-decreasing and within the data buffer")
	flags.BoolVar(&checks.FloatsAllFinite, "check-floats-all-finite", checks.FloatsAllFinite, "require every float64 value to be finite")
	flags.BoolVar(&checks.DictionaryValuesAllUsed, "check-dictionary-values-all-used", checks.DictionaryValuesAllUsed, "require every dictionary value to be referenced")
	flags.BoolVar(&checks.DictionaryValuesNotNull, "check-dictionary-values-not-null", checks.DictionaryValuesNotNull, "require no dictionary value to be null")
	flags.BoolVar(&checks.DictionaryValuesUnique, "check-dictionary-values-unique", checks.DictionaryValuesUnique, "require dictionary values to be unique")
	flags.BoolVar(&checks.ColumnNameControlChars, "check-column-name-control-characters", checks.ColumnNameControlChars, "require column names to contain no control characters")
	flags.Int64Var(&columnNameMaxBytes, "check-column-name-max-bytes", 0, "require column names to be at most N bytes (0 disables this check)")

	for name, ptr := range noChecks {
		flags.BoolVar(ptr, "nocheck-"+name, false, "disable --check-"+name)
	}

	return cmd
}
