package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/feedlens/pkg/feedlens/store"
)

// recentReport is the stored-data view printed by the report command.
type recentReport struct {
	Days    int                  `json:"days"`
	Since   time.Time            `json:"since"`
	Trends  []store.DailyMetrics `json:"sentiment_trends"`
	Topics  []store.TopicStat    `json:"topic_summary"`
	Sources []store.SourceStat   `json:"source_breakdown"`
}

func newReportCmd(a *app) *cobra.Command {
	var (
		days        int
		minMentions int
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show stored sentiment trends, topics and sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			ctx := cmd.Context()
			st, err := a.store(ctx)
			if err != nil {
				return err
			}

			r := recentReport{Days: days, Since: time.Now().AddDate(0, 0, -days)}
			if r.Trends, err = st.SentimentTrends(ctx, r.Since); err != nil {
				return err
			}
			if r.Topics, err = st.TopicSummary(ctx, r.Since, minMentions); err != nil {
				return err
			}
			if r.Sources, err = st.SourceBreakdown(ctx, r.Since); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, r)
			}
			fmt.Fprintf(out, "Sentiment trends (last %d days)\n", days)
			if len(r.Trends) == 0 {
				fmt.Fprintln(out, "  no data")
			}
			for _, d := range r.Trends {
				fmt.Fprintf(out, "  %s  %5d items  avg %6.3f  +%d -%d =%d\n",
					d.Date.Format(time.DateOnly), d.Total, d.AvgSentiment, d.Positive, d.Negative, d.Neutral)
			}
			fmt.Fprintf(out, "\nTopics (at least %d mentions)\n", minMentions)
			for _, t := range r.Topics {
				fmt.Fprintf(out, "  %-40s %5d mentions  relevance %.3f  sentiment %6.3f  %d customers\n",
					t.Topic, t.Mentions, t.AvgRelevance, t.AvgSentiment, t.UniqueCustomers)
			}
			fmt.Fprintln(out, "\nSources")
			for _, s := range r.Sources {
				fmt.Fprintf(out, "  %-20s %5d items  avg %6.3f\n", s.Source, s.Count, s.AvgSentiment)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", 30, "window in days")
	cmd.Flags().IntVar(&minMentions, "min-mentions", 3, "hide topics mentioned fewer times")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
