package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsyzc2019/abquant-data/internal/frame"
	"github.com/jsyzc2019/abquant-data/internal/series"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "List the extractable columns",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, col := range series.Schema() {
				kind, _ := series.ColumnKind(col)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", col, kind)
			}
		},
	}
}

func newSeriesCmd(ro *rootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "series COLUMN...",
		Short: "Print one line per requested column",
		Long: `Series prints "column: v1 v2 ..." for each column. Unknown or failed
columns print empty unless --strict is set, which reports the error.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := ro.openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer done()

			out := cmd.OutOrStdout()
			for _, col := range args {
				values, err := columnText(cmd, s, col, strict)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %s\n", col, strings.Join(values, " "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail on unknown columns and adjusted-table errors")
	return cmd
}

// columnText renders col with its natural type. Non-strict mode mirrors Extract.
func columnText(cmd *cobra.Command, s *series.Session, col string, strict bool) ([]string, error) {
	ctx := cmd.Context()
	if kind, ok := series.ColumnKind(col); ok && kind == frame.KindString {
		if !strict {
			return series.Extract[string](ctx, s, col), nil
		}
		return series.Lookup[string](ctx, s, col)
	}

	var values []float64
	if strict {
		var err error
		if values, err = series.Lookup[float64](ctx, s, col); err != nil {
			return nil, err
		}
	} else {
		values = series.Extract[float64](ctx, s, col)
	}
	text := make([]string, len(values))
	for i, v := range values {
		text[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return text, nil
}

func newDumpCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the session's raw records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := ro.openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer done()
			return series.Dump(cmd.OutOrStdout(), s)
		},
	}
}
