package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/feedlens/pkg/feedlens/summary"
	"github.com/cognicore/feedlens/pkg/feedlens/topics"
)

func newTopicsCmd(a *app) *cobra.Command {
	var (
		n      int
		method string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "topics file...",
		Short: "Extract and summarize topics from feedback files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if method != "" {
				m, err := topics.ParseMethod(method)
				if err != nil {
					return err
				}
				a.cfg.Topics.Method = string(m)
			}
			if n > 0 {
				a.cfg.Topics.NTopics = n
			}
			eng, err := a.engine(cmd.Context(), false)
			if err != nil {
				return err
			}

			items, err := loadFiles(a, args)
			if err != nil {
				return err
			}
			texts := make([]string, len(items))
			for i, f := range items {
				texts[i] = f.Text
			}

			found, err := eng.Extractor().Extract(texts, a.cfg.Topics.NTopics)
			if err != nil {
				return err
			}
			sum := summary.Summarize(found, eng.Assigner().Assign(texts, found))

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, sum)
			}
			fmt.Fprintf(out, "%d topics over %d documents (%.2f topics per document)\n",
				sum.TotalTopics, sum.TotalDocumentsAnalyzed, sum.AverageTopicsPerDocument)
			for _, t := range sum.Topics {
				fmt.Fprintf(out, "%3d. %-40s %4d docs %5.1f%%  relevance %.3f  [%s]\n",
					t.TopicID, t.TopicName, t.DocumentCount, t.PercentageOfDocs, t.AverageRelevance, strings.Join(t.Keywords, ", "))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "topics", "n", 0, "number of topics (overrides topic_extraction.n_topics)")
	cmd.Flags().StringVarP(&method, "method", "m", "", "kmeans or lda (overrides topic_extraction.method)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}
