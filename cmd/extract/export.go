package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsyzc2019/abquant-data/internal/reporting"
	"github.com/jsyzc2019/abquant-data/internal/series"
)

func newExportCmd(ro *rootOptions) *cobra.Command {
	var (
		format  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every column of the session as CSV or parquet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "parquet" {
				return fmt.Errorf("unknown --format %q (csv, parquet)", format)
			}
			if format == "parquet" && outPath == "" {
				return fmt.Errorf("--out is required for parquet")
			}

			s, done, err := ro.openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer done()

			f, matErr := series.Materialize(cmd.Context(), s)
			if matErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", matErr)
			}

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				file, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer file.Close()
				w = file
			}

			if format == "parquet" {
				err = reporting.WriteFrameParquet(w, f)
			} else {
				err = reporting.RenderFrameCSV(w, f)
			}
			if err != nil {
				return err
			}
			if outPath != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", f.Len(), outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv or parquet")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout, required for parquet)")
	return cmd
}

func newReportCmd(ro *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the session per code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := ro.openSession(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer done()

			report, err := reporting.NewGenerator().Generate(cmd.Context(), s)
			if err != nil {
				return err
			}

			switch format {
			case "md", "markdown":
				_, err = io.WriteString(cmd.OutOrStdout(), reporting.RenderMarkdown(report))
			case "csv":
				_, err = io.WriteString(cmd.OutOrStdout(), reporting.RenderCSV(report.CodeSummaries))
			default:
				err = fmt.Errorf("unknown --format %q (md, csv)", format)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "md", "output format: md or csv")
	return cmd
}
