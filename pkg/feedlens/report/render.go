package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// topicsShown is how many topics the renderings list.
const topicsShown = 5

const termsShown = 10

var rule = strings.Repeat("=", 50)

// Text renders the plain summary report.
func Text(r *Report, generated time.Time) string {
	m := r.Metrics
	var b strings.Builder
	line := func(format string, v ...any) {
		fmt.Fprintf(&b, format, v...)
		b.WriteByte('\n')
	}

	line("%s", rule)
	line("FEEDBACK ANALYSIS SUMMARY REPORT")
	line("%s", rule)
	line("Generated: %s", generated.Format("2006-01-02 15:04:05"))
	if r.RunID != "" {
		line("Run: %s", r.RunID)
	}
	line("")
	line("OVERVIEW")
	line("- Total Feedback: %s", thousands(m.TotalFeedback))
	line("- Unique Customers: %s", thousands(m.UniqueCustomers))
	line("- Average Sentiment: %.3f", m.AvgSentiment)
	line("- Average Confidence: %.3f", m.AvgConfidence)
	line("")
	line("SENTIMENT DISTRIBUTION")
	line("- Positive: %s (%s%%)", thousands(m.Positive), percent(m.PositivePercentage))
	line("- Negative: %s (%s%%)", thousands(m.Negative), percent(m.NegativePercentage))
	line("- Neutral: %s (%s%%)", thousands(m.Neutral), percent(m.NeutralPercentage))
	line("")

	if m.DateRange != nil {
		line("TIME ANALYSIS")
		line("- Date Range: %s to %s", m.DateRange.Start.Format(time.RFC3339), m.DateRange.End.Format(time.RFC3339))
		line("- Daily Average Feedback: %.1f", m.AvgDailyFeedback)
		line("- Daily Average Sentiment: %.3f", m.AvgDailySentiment)
		line("")
	}

	if len(m.Sources) > 0 {
		line("SOURCE ANALYSIS")
		for _, s := range m.Sources {
			line("- %s: %s items (avg sentiment: %.3f)", s.Source, thousands(s.Count), s.AvgSentiment)
		}
		line("")
	}

	if len(r.Topics) > 0 {
		line("TOP TOPICS")
		for i, t := range r.Topics[:min(topicsShown, len(r.Topics))] {
			line("- %d. %s: %d mentions (relevance: %.3f)", i+1, t.Name, t.DocumentCount, t.Coherence)
		}
		line("")
	}

	if len(r.Terms) > 0 {
		line("TOP TERMS")
		for _, tc := range r.Terms[:min(termsShown, len(r.Terms))] {
			line("- %s: %d", tc.Term, tc.Count)
		}
		line("")
	}

	line("%s", rule)
	line("End of Report")
	b.WriteString(rule)
	return b.String()
}

// Notification renders the short run message sent to webhooks.
func Notification(r *Report, at time.Time) string {
	status := "SUCCESS"
	if !r.Success {
		status = "FAILED"
	}
	s := r.Stats

	var b strings.Builder
	fmt.Fprintf(&b, "Feedback Analysis Pipeline Report: %s\n\n", status)
	b.WriteString("Processing Statistics:\n")
	fmt.Fprintf(&b, "- Feedback Processed: %d\n", s.FeedbackProcessed)
	fmt.Fprintf(&b, "- Sentiment Analyzed: %d\n", s.SentimentAnalyzed)
	fmt.Fprintf(&b, "- Topics Extracted: %d\n", s.TopicsExtracted)
	fmt.Fprintf(&b, "- Success Rate: %s%%\n", percent(s.SuccessRate))
	fmt.Fprintf(&b, "- Errors: %d\n", s.Errors)
	fmt.Fprintf(&b, "- Duration: %.2f seconds\n", s.DurationSeconds)

	total, avg := "N/A", "N/A"
	days := 30
	if r.Recent != nil {
		days = r.Recent.Days
		total = strconv.Itoa(r.Recent.TotalFeedback)
		avg = strconv.FormatFloat(r.Recent.AvgSentiment, 'f', 3, 64)
	}
	fmt.Fprintf(&b, "\nRecent Metrics (%d days):\n", days)
	fmt.Fprintf(&b, "- Total Feedback: %s\n", total)
	fmt.Fprintf(&b, "- Average Sentiment: %s\n", avg)
	fmt.Fprintf(&b, "\nTimestamp: %s", at.Format(time.RFC3339))
	return b.String()
}

// Styles holds the terminal styles used by Render.
type Styles struct {
	Title    lipgloss.Style
	Section  lipgloss.Style
	Label    lipgloss.Style
	Muted    lipgloss.Style
	Positive lipgloss.Style
	Negative lipgloss.Style
	Neutral  lipgloss.Style
	Box      lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		Section:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4")).MarginTop(1),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4")).Width(22),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		Positive: lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		Negative: lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
		Neutral:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1),
	}
}

// Render renders the report for a terminal.
func Render(r *Report, st Styles) string {
	m := r.Metrics
	kv := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, st.Label.Render(label), value)
	}

	var lines []string
	lines = append(lines, st.Title.Render("Feedback Analysis Report"))
	if r.RunID != "" {
		lines = append(lines, st.Muted.Render("run "+r.RunID))
	}

	s := r.Stats
	lines = append(lines,
		st.Section.Render("Run"),
		kv("Processed", strconv.Itoa(s.FeedbackProcessed)),
		kv("Sentiment analyzed", strconv.Itoa(s.SentimentAnalyzed)),
		kv("Topic assignments", strconv.Itoa(s.TopicsExtracted)),
		kv("Errors", strconv.Itoa(s.Errors)),
		kv("Success rate", percent(s.SuccessRate)+"%"),
		kv("Duration", fmt.Sprintf("%.2fs", s.DurationSeconds)),
	)

	lines = append(lines,
		st.Section.Render("Sentiment"),
		kv("Positive", st.Positive.Render(fmt.Sprintf("%d (%s%%)", m.Positive, percent(m.PositivePercentage)))),
		kv("Negative", st.Negative.Render(fmt.Sprintf("%d (%s%%)", m.Negative, percent(m.NegativePercentage)))),
		kv("Neutral", st.Neutral.Render(fmt.Sprintf("%d (%s%%)", m.Neutral, percent(m.NeutralPercentage)))),
		kv("Average score", fmt.Sprintf("%.3f", m.AvgSentiment)),
		kv("Average confidence", fmt.Sprintf("%.3f", m.AvgConfidence)),
	)

	if len(m.Sources) > 0 {
		lines = append(lines, st.Section.Render("Sources"))
		for _, src := range m.Sources {
			lines = append(lines, kv(src.Source, fmt.Sprintf("%d items, avg %.3f", src.Count, src.AvgSentiment)))
		}
	}

	if top := r.TopTopics(topicsShown); len(top) > 0 {
		lines = append(lines, st.Section.Render("Top topics"))
		for i, t := range top {
			lines = append(lines, fmt.Sprintf("%d. %s  %s", i+1, t.TopicName,
				st.Muted.Render(fmt.Sprintf("%d docs, %s%%, relevance %.3f", t.DocumentCount, percent(t.PercentageOfDocs), t.AverageRelevance))))
		}
	}

	return st.Box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// thousands formats n with comma separators.
func thousands(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		s = "-" + s
	}
	return s
}

// percent formats an already rounded percentage without trailing zeros.
func percent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
