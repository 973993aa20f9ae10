package report

import (
	"strings"
	"testing"
	"time"

	"github.com/cognicore/feedlens/pkg/feedlens/sentiment"
	"github.com/cognicore/feedlens/pkg/feedlens/summary"
	"github.com/cognicore/feedlens/pkg/feedlens/topics"
)

var day = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

func sampleRecords() []Record {
	return []Record{
		{FeedbackID: "1", CustomerID: "c1", Source: "email", Timestamp: day.Add(10 * time.Hour), Score: 0.8, Confidence: 0.9, Label: sentiment.Positive},
		{FeedbackID: "2", CustomerID: "c2", Source: "web", Timestamp: day.Add(15 * time.Hour), Score: -0.6, Confidence: 0.5, Label: sentiment.Negative},
		{FeedbackID: "3", CustomerID: "c1", Source: "email", Timestamp: day.Add(33 * time.Hour), Score: 0, Confidence: 0.1, Label: sentiment.Neutral},
		{FeedbackID: "4", Score: 0.1, Confidence: 0.2, Label: sentiment.Neutral},
	}
}

func TestComputeMetrics(t *testing.T) {
	m := ComputeMetrics(sampleRecords())

	if m.TotalFeedback != 4 || m.UniqueCustomers != 2 {
		t.Errorf("totals = %d/%d", m.TotalFeedback, m.UniqueCustomers)
	}
	if m.Positive != 1 || m.Negative != 1 || m.Neutral != 2 {
		t.Errorf("labels = %d/%d/%d", m.Positive, m.Negative, m.Neutral)
	}
	if m.PositivePercentage != 25 || m.NegativePercentage != 25 || m.NeutralPercentage != 50 {
		t.Errorf("percentages = %v/%v/%v", m.PositivePercentage, m.NegativePercentage, m.NeutralPercentage)
	}

	checks := []struct {
		name      string
		got, want float64
	}{
		{"avg", m.AvgSentiment, 0.075},
		{"std", m.SentimentStd, 0.5737},
		{"min", m.MinSentiment, -0.6},
		{"max", m.MaxSentiment, 0.8},
		{"confidence", m.AvgConfidence, 0.425},
		{"daily feedback", m.AvgDailyFeedback, 1.5},
		{"daily sentiment", m.AvgDailySentiment, 0.05},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if m.HighConfidence != 1 || m.LowConfidence != 2 {
		t.Errorf("confidence bands = %d/%d", m.HighConfidence, m.LowConfidence)
	}

	if m.DateRange == nil {
		t.Fatal("expected a date range")
	}
	if !m.DateRange.Start.Equal(day.Add(10*time.Hour)) || !m.DateRange.End.Equal(day.Add(33*time.Hour)) {
		t.Errorf("date range = %+v", m.DateRange)
	}

	wantSources := []SourceMetrics{
		{Source: "email", Count: 2, AvgSentiment: 0.4},
		{Source: UnknownSource, Count: 1, AvgSentiment: 0.1},
		{Source: "web", Count: 1, AvgSentiment: -0.6},
	}
	if len(m.Sources) != len(wantSources) {
		t.Fatalf("sources = %+v", m.Sources)
	}
	for i, w := range wantSources {
		if m.Sources[i] != w {
			t.Errorf("source %d = %+v, want %+v", i, m.Sources[i], w)
		}
	}
}

func TestComputeMetricsEdgeCases(t *testing.T) {
	empty := ComputeMetrics(nil)
	if empty.TotalFeedback != 0 || empty.DateRange != nil || len(empty.Sources) != 0 {
		t.Errorf("empty metrics = %+v", empty)
	}

	single := ComputeMetrics([]Record{{Score: 0.5, Label: sentiment.Positive}})
	if single.SentimentStd != 0 {
		t.Errorf("std of one record = %v", single.SentimentStd)
	}
	if single.DateRange != nil || single.AvgDailyFeedback != 0 {
		t.Errorf("zero timestamps should skip time metrics: %+v", single)
	}
	if single.MinSentiment != 0.5 || single.MaxSentiment != 0.5 {
		t.Errorf("min/max = %v/%v", single.MinSentiment, single.MaxSentiment)
	}
}

func TestStatsFinish(t *testing.T) {
	start := day
	tests := []struct {
		name                          string
		processed, analyzed, assigned int
		want                          float64
	}{
		{"full", 10, 10, 10, 100},
		{"partial", 10, 10, 7, 85},
		{"rounded", 3, 3, 2, 83.33},
		{"nothing processed", 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Stats{StartedAt: start, FeedbackProcessed: tt.processed, SentimentAnalyzed: tt.analyzed, TopicsExtracted: tt.assigned}
			s.Finish(start.Add(2 * time.Second))
			if s.SuccessRate != tt.want {
				t.Errorf("success rate = %v, want %v", s.SuccessRate, tt.want)
			}
			if s.DurationSeconds != 2 {
				t.Errorf("duration = %v", s.DurationSeconds)
			}
		})
	}
}

func sampleReport() *Report {
	r := &Report{
		RunID:   "01HTESTRUN",
		Success: true,
		Stats:   Stats{FeedbackProcessed: 4, SentimentAnalyzed: 4, TopicsExtracted: 3, SuccessRate: 87.5, DurationSeconds: 1.5},
		Metrics: ComputeMetrics(sampleRecords()),
		Topics: []topics.Topic{
			{ID: 0, Name: "delivery + shipping + late", DocumentCount: 3, Coherence: 0.41},
			{ID: 1, Name: "support + agent + help", DocumentCount: 1, Coherence: 0.3},
		},
		Summary: summary.Summary{
			TotalTopics: 2,
			Topics: []summary.TopicSummary{
				{TopicID: 0, TopicName: "delivery + shipping + late", DocumentCount: 3, PercentageOfDocs: 75, AverageRelevance: 0.5},
				{TopicID: 1, TopicName: "support + agent + help", DocumentCount: 1, PercentageOfDocs: 25, AverageRelevance: 0.4},
			},
		},
	}
	r.Terms = []topics.TermCount{{Term: "delivery", Count: 3}, {Term: "late", Count: 2}}
	return r
}

func TestText(t *testing.T) {
	out := Text(sampleReport(), day)
	for _, want := range []string{
		"FEEDBACK ANALYSIS SUMMARY REPORT",
		"Generated: 2026-03-09 00:00:00",
		"Run: 01HTESTRUN",
		"- Total Feedback: 4",
		"- Positive: 1 (25%)",
		"- Neutral: 2 (50%)",
		"TIME ANALYSIS",
		"- email: 2 items (avg sentiment: 0.400)",
		"- 1. delivery + shipping + late: 3 mentions (relevance: 0.410)",
		"TOP TERMS",
		"- delivery: 3",
		"End of Report",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestTextWithoutData(t *testing.T) {
	out := Text(&Report{Metrics: ComputeMetrics(nil)}, day)
	if strings.Contains(out, "TIME ANALYSIS") || strings.Contains(out, "TOP TOPICS") || strings.Contains(out, "TOP TERMS") {
		t.Errorf("empty report should omit optional sections:\n%s", out)
	}
}

func TestNotification(t *testing.T) {
	r := sampleReport()
	out := Notification(r, day)
	for _, want := range []string{"SUCCESS", "- Success Rate: 87.5%", "- Duration: 1.50 seconds", "- Total Feedback: N/A"} {
		if !strings.Contains(out, want) {
			t.Errorf("notification missing %q:\n%s", want, out)
		}
	}

	r.Success = false
	r.Recent = &Recent{Days: 7, TotalFeedback: 12, AvgSentiment: 0.25}
	out = Notification(r, day)
	for _, want := range []string{"FAILED", "Recent Metrics (7 days)", "- Total Feedback: 12", "- Average Sentiment: 0.250"} {
		if !strings.Contains(out, want) {
			t.Errorf("notification missing %q:\n%s", want, out)
		}
	}
}

func TestRender(t *testing.T) {
	out := Render(sampleReport(), DefaultStyles())
	for _, want := range []string{"Feedback Analysis Report", "01HTESTRUN", "Top topics", "delivery + shipping + late", "email"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
}

func TestThousands(t *testing.T) {
	tests := map[int]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -1234: "-1,234"}
	for n, want := range tests {
		if got := thousands(n); got != want {
			t.Errorf("thousands(%d) = %q, want %q", n, got, want)
		}
	}
}
