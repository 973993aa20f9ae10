package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/feedlens/internal/source"
	"github.com/cognicore/feedlens/pkg/feedlens"
	"github.com/cognicore/feedlens/pkg/feedlens/report"
)

// Output formats.
const (
	formatText   = "text"
	formatStyled = "styled"
	formatJSON   = "json"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		format string
		output string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [file...]",
		Short: "Run the full analysis pipeline",
		Long: `Scores sentiment, extracts and assigns topics, stores the results and
prints the run report.

With file arguments (.jsonl or .csv) the files are loaded and analyzed
together. Without arguments, stored feedback that has not been analyzed yet
is processed, up to processing.batch_size items.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			ctx := cmd.Context()
			if len(args) == 0 && dryRun {
				return fmt.Errorf("--dry-run needs input files")
			}

			eng, err := a.engine(ctx, !dryRun)
			if err != nil {
				return err
			}

			var rep *report.Report
			var runErr error
			if len(args) == 0 {
				rep, runErr = eng.AnalyzePending(ctx)
			} else {
				items, err := loadFiles(a, args)
				if err != nil {
					return err
				}
				rep, runErr = eng.Analyze(ctx, items)
			}
			if rep == nil {
				return runErr
			}

			if err := writeReport(cmd.OutOrStdout(), rep, format); err != nil {
				return err
			}
			if output != "" {
				if err := os.WriteFile(output, []byte(report.Text(rep, time.Now())+"\n"), 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				a.log.Info("Summary report saved to %s", output)
			}
			return runErr
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatStyled, "output format: text, styled or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the plain text report to this file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "analyze without storing results")
	return cmd
}

func loadFiles(a *app, paths []string) ([]feedlens.Feedback, error) {
	l := &source.Loader{Logger: a.log}
	var items []feedlens.Feedback
	for _, p := range paths {
		got, err := l.Load(p)
		if err != nil {
			return nil, err
		}
		items = append(items, got...)
	}
	return items, nil
}

func checkFormat(format string) error {
	switch format {
	case formatText, formatStyled, formatJSON:
		return nil
	}
	return fmt.Errorf("unknown format %q (want text, styled or json)", format)
}

func writeReport(w io.Writer, rep *report.Report, format string) error {
	switch format {
	case formatJSON:
		return writeJSON(w, rep)
	case formatText:
		_, err := fmt.Fprintln(w, report.Text(rep, time.Now()))
		return err
	default:
		_, err := fmt.Fprintln(w, report.Render(rep, report.DefaultStyles()))
		return err
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
