package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/feedlens/pkg/feedlens/sentiment"
)

type scoredText struct {
	Text string `json:"text"`
	sentiment.Result
}

func newSentimentCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "sentiment [text...]",
		Short: "Score the sentiment of texts",
		Long: `Scores each argument, or each line of standard input when no argument is
given. Nothing is stored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine(cmd.Context(), false)
			if err != nil {
				return err
			}

			texts := args
			if len(texts) == 0 {
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					if line := strings.TrimSpace(sc.Text()); line != "" {
						texts = append(texts, line)
					}
				}
				if err := sc.Err(); err != nil {
					return fmt.Errorf("read input: %w", err)
				}
			}

			batch := eng.Scorer().ScoreBatch(texts)
			out := cmd.OutOrStdout()
			if asJSON {
				rows := make([]scoredText, len(texts))
				for i, r := range batch.Results {
					rows[i] = scoredText{Text: texts[i], Result: r}
				}
				return writeJSON(out, rows)
			}
			for i, r := range batch.Results {
				fmt.Fprintf(out, "%-8s %7.4f  (confidence %.4f)  %s\n", r.Label, r.Score, r.Confidence, texts[i])
			}
			if batch.Errors > 0 {
				fmt.Fprintf(out, "%d texts failed and were scored neutral\n", batch.Errors)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
