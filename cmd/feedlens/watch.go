package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/feedlens/internal/source"
	"github.com/cognicore/feedlens/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		existing bool
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch dir",
		Short: "Analyze feedback files as they appear in a directory",
		Long: `Watches a directory and runs the analysis pipeline on every .jsonl or .csv
file that is created or written there. Stops on interrupt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			eng, err := a.engine(ctx, true)
			if err != nil {
				return err
			}
			w, err := watch.New(watch.Options{Debounce: debounce, Existing: existing, Logger: a.log})
			if err != nil {
				return err
			}
			defer w.Close()

			loader := &source.Loader{Logger: a.log}
			out := cmd.OutOrStdout()
			return w.Run(ctx, args[0], func(ctx context.Context, path string) error {
				items, err := loader.Load(path)
				if err != nil {
					return err
				}
				rep, err := eng.Analyze(ctx, items)
				if rep != nil {
					fmt.Fprintf(out, "%s: run %s processed %d items, success rate %.2f%%\n",
						path, rep.RunID, rep.Stats.FeedbackProcessed, rep.Stats.SuccessRate)
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&existing, "existing", false, "also analyze files already in the directory")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before a written file is analyzed")
	return cmd
}
