// Package storetest holds behavioural tests shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cognicore/feedlens/pkg/feedlens/internalerr"
	"github.com/cognicore/feedlens/pkg/feedlens/store"
)

// Now is the reference time of the fixture.
var Now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var (
	day1 = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	old  = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
)

// Opener returns a fresh, empty store. The caller closes it.
type Opener func(t *testing.T) store.Store

// Run exercises the full store.Store contract.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"FeedbackRoundTrip", testFeedbackRoundTrip},
		{"Unprocessed", testUnprocessed},
		{"Runs", testRuns},
		{"SentimentTrends", testSentimentTrends},
		{"TopicSummary", testTopicSummary},
		{"SourceBreakdown", testSourceBreakdown},
		{"DailyMetrics", testDailyMetrics},
		{"AssignmentsReplace", testAssignmentsReplace},
		{"SentimentReplace", testSentimentReplace},
		{"Cleanup", testCleanup},
		{"Health", testHealth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			defer s.Close()
			tt.fn(t, s)
		})
	}
}

func seed(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	feedback := []store.Feedback{
		{ID: "f1", CustomerID: "c1", Text: "fast delivery", Source: "email", Timestamp: day1.Add(10 * time.Hour)},
		{ID: "f2", CustomerID: "c2", Text: "late delivery", Source: "web", Timestamp: day1.Add(15 * time.Hour)},
		{ID: "f3", CustomerID: "c1", Text: "delivery ok", Source: "email", Rating: 3, Timestamp: day2.Add(9 * time.Hour)},
		{ID: "f4", CustomerID: "c3", Text: "ancient", Source: "email", Timestamp: old},
		{ID: "f5", CustomerID: "c4", Text: "pending", Source: "web", Timestamp: day2.Add(10 * time.Hour)},
	}
	if err := s.SaveFeedback(ctx, feedback); err != nil {
		t.Fatalf("SaveFeedback: %v", err)
	}

	sent := []store.SentimentRecord{
		{FeedbackID: "f1", RunID: "r1", Score: 0.8, Label: "Positive", Confidence: 0.7, ProcessedAt: Now},
		{FeedbackID: "f2", RunID: "r1", Score: -0.6, Label: "Negative", Confidence: 0.5, ProcessedAt: Now},
		{FeedbackID: "f3", RunID: "r1", Score: 0, Label: "Neutral", ProcessedAt: Now},
		{FeedbackID: "f4", RunID: "r0", Score: 0.5, Label: "Positive", Confidence: 0.4, ProcessedAt: old},
	}
	if err := s.SaveSentiment(ctx, sent); err != nil {
		t.Fatalf("SaveSentiment: %v", err)
	}

	assignments := []store.AssignmentRecord{
		{FeedbackID: "f1", RunID: "r1", TopicID: 0, Topic: "delivery", Relevance: 0.5, Keywords: []string{"delivery"}},
		{FeedbackID: "f1", RunID: "r1", TopicID: 1, Topic: "support", Relevance: 0.3},
		{FeedbackID: "f2", RunID: "r1", TopicID: 0, Topic: "delivery", Relevance: 0.4},
		{FeedbackID: "f3", RunID: "r1", TopicID: 0, Topic: "delivery", Relevance: 0.6},
		{FeedbackID: "f4", RunID: "r0", TopicID: 0, Topic: "delivery", Relevance: 0.2},
	}
	if err := s.SaveAssignments(ctx, assignments); err != nil {
		t.Fatalf("SaveAssignments: %v", err)
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func testFeedbackRoundTrip(t *testing.T, s store.Store) {
	seed(t, s)
	ctx := context.Background()

	f, err := s.GetFeedback(ctx, "f3")
	if err != nil {
		t.Fatalf("GetFeedback: %v", err)
	}
	if f.Text != "delivery ok" || f.CustomerID != "c1" || f.Source != "email" || f.Rating != 3 {
		t.Errorf("unexpected feedback %+v", f)
	}
	if !f.Timestamp.Equal(day2.Add(9 * time.Hour)) {
		t.Errorf("timestamp = %v", f.Timestamp)
	}

	if _, err := s.GetFeedback(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.SaveFeedback(ctx, []store.Feedback{{Text: "no id"}}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	f.Text = "delivery fine"
	if err := s.SaveFeedback(ctx, []store.Feedback{f}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.GetFeedback(ctx, "f3")
	if got.Text != "delivery fine" {
		t.Errorf("update not applied: %q", got.Text)
	}
}

func testUnprocessed(t *testing.T, s store.Store) {
	seed(t, s)
	ctx := context.Background()

	if err := s.SaveFeedback(ctx, []store.Feedback{{ID: "f6", Timestamp: day1}}); err != nil {
		t.Fatal(err)
	}
	got, err := s.UnprocessedFeedback(ctx, 0)
	if err != nil {
		t.Fatalf("UnprocessedFeedback: %v", err)
	}
	if len(got) != 2 || got[0].ID != "f6" || got[1].ID != "f5" {
		t.Fatalf("expected [f6 f5] oldest first, got %+v", got)
	}

	limited, err := s.UnprocessedFeedback(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].ID != "f6" {
		t.Errorf("limit 1: got %+v", limited)
	}
}

func testRuns(t *testing.T, s store.Store) {
	ctx := context.Background()
	r := store.Run{
		ID:                "01HRUN",
		StartedAt:         Now,
		FinishedAt:        Now.Add(2 * time.Second),
		FeedbackProcessed: 10,
		SentimentAnalyzed: 10,
		TopicsExtracted:   7,
		Errors:            1,
		SuccessRate:       85,
	}
	if err := s.SaveRun(ctx, r); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	got, err := s.GetRun(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.FeedbackProcessed != 10 || got.TopicsExtracted != 7 || got.Errors != 1 || got.SuccessRate != 85 {
		t.Errorf("unexpected run %+v", got)
	}
	if !got.FinishedAt.Equal(r.FinishedAt) {
		t.Errorf("finished = %v", got.FinishedAt)
	}
	if _, err := s.GetRun(ctx, "nope"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.SaveRun(ctx, store.Run{}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func testSentimentTrends(t *testing.T, s store.Store) {
	seed(t, s)
	trends, err := s.SentimentTrends(context.Background(), Now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("SentimentTrends: %v", err)
	}
	if len(trends) != 2 {
		t.Fatalf("expected 2 days, got %+v", trends)
	}

	d1 := trends[0]
	if !d1.Date.Equal(day1) || d1.Total != 2 || d1.Positive != 1 || d1.Negative != 1 || d1.Neutral != 0 {
		t.Errorf("day1 = %+v", d1)
	}
	if !near(d1.AvgSentiment, 0.1) {
		t.Errorf("day1 avg = %v", d1.AvgSentiment)
	}
	d2 := trends[1]
	if !d2.Date.Equal(day2) || d2.Total != 1 || d2.Neutral != 1 || d2.AvgSentiment != 0 {
		t.Errorf("day2 = %+v", d2)
	}
}

func testTopicSummary(t *testing.T, s store.Store) {
	seed(t, s)
	ctx := context.Background()
	since := Now.AddDate(0, 0, -30)

	stats, err := s.TopicSummary(ctx, since, 1)
	if err != nil {
		t.Fatalf("TopicSummary: %v", err)
	}
	if len(stats) != 2 || stats[0].Topic != "delivery" || stats[1].Topic != "support" {
		t.Fatalf("unexpected stats %+v", stats)
	}
	d := stats[0]
	if d.Mentions != 3 || d.UniqueCustomers != 2 {
		t.Errorf("delivery = %+v", d)
	}
	if !near(d.AvgRelevance, 0.5) || !near(d.AvgSentiment, (0.8-0.6+0)/3) {
		t.Errorf("delivery averages = %v, %v", d.AvgRelevance, d.AvgSentiment)
	}

	stats, err = s.TopicSummary(ctx, since, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 || stats[0].Topic != "delivery" {
		t.Errorf("minMentions 3: got %+v", stats)
	}
}

func testSourceBreakdown(t *testing.T, s store.Store) {
	seed(t, s)
	stats, err := s.SourceBreakdown(context.Background(), Now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("SourceBreakdown: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 sources, got %+v", stats)
	}
	if stats[0].Source != "email" || stats[0].Count != 2 || !near(stats[0].AvgSentiment, 0.4) {
		t.Errorf("email = %+v", stats[0])
	}
	if stats[1].Source != "web" || stats[1].Count != 1 || !near(stats[1].AvgSentiment, -0.6) {
		t.Errorf("web = %+v", stats[1])
	}
}

func testDailyMetrics(t *testing.T, s store.Store) {
	seed(t, s)
	m, err := s.UpdateDailyMetrics(context.Background(), day1.Add(13*time.Hour))
	if err != nil {
		t.Fatalf("UpdateDailyMetrics: %v", err)
	}
	if !m.Date.Equal(day1) || m.Total != 2 || m.Positive != 1 || m.Negative != 1 || m.Neutral != 0 {
		t.Errorf("metrics = %+v", m)
	}
	if len(m.TopTopics) != 2 || m.TopTopics[0] != "delivery" || m.TopTopics[1] != "support" {
		t.Errorf("top topics = %v", m.TopTopics)
	}

	empty, err := s.UpdateDailyMetrics(context.Background(), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if empty.Total != 0 || empty.AvgSentiment != 0 || len(empty.TopTopics) != 0 {
		t.Errorf("empty day = %+v", empty)
	}
}

func testAssignmentsReplace(t *testing.T, s store.Store) {
	seed(t, s)
	ctx := context.Background()

	err := s.SaveAssignments(ctx, []store.AssignmentRecord{
		{FeedbackID: "f1", RunID: "r2", TopicID: 4, Topic: "quality", Relevance: 0.9},
	})
	if err != nil {
		t.Fatalf("SaveAssignments: %v", err)
	}
	stats, err := s.TopicSummary(ctx, Now.AddDate(0, 0, -30), 1)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]int{}
	for _, st := range stats {
		names[st.Topic] = st.Mentions
	}
	if _, ok := names["support"]; ok {
		t.Errorf("support should be replaced: %+v", stats)
	}
	if names["quality"] != 1 || names["delivery"] != 2 {
		t.Errorf("unexpected mentions %v", names)
	}
}

func testSentimentReplace(t *testing.T, s store.Store) {
	seed(t, s)
	ctx := context.Background()

	err := s.SaveSentiment(ctx, []store.SentimentRecord{
		{FeedbackID: "f3", RunID: "r2", Score: 0.9, Label: "Positive", ProcessedAt: Now},
	})
	if err != nil {
		t.Fatal(err)
	}
	trends, err := s.SentimentTrends(ctx, day2)
	if err != nil {
		t.Fatal(err)
	}
	if len(trends) != 1 || trends[0].Total != 1 || trends[0].Positive != 1 {
		t.Errorf("replaced sentiment not visible: %+v", trends)
	}
}

func testCleanup(t *testing.T, s store.Store) {
	seed(t, s)
	ctx := context.Background()

	if err := s.SaveRun(ctx, store.Run{ID: "r0", StartedAt: old, FinishedAt: old}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveTopics(ctx, []store.TopicRecord{
		{RunID: "r0", TopicID: 0, Name: "delivery", Keywords: []string{"delivery"}, CreatedAt: old},
		{RunID: "r1", TopicID: 0, Name: "delivery", CreatedAt: Now},
	}); err != nil {
		t.Fatal(err)
	}

	n, err := s.Cleanup(ctx, Now.AddDate(0, 0, -180))
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	// f4 with its sentiment and assignment, run r0, topic of r0
	if n != 5 {
		t.Errorf("deleted %d rows, want 5", n)
	}
	if _, err := s.GetFeedback(ctx, "f4"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("f4 should be gone: %v", err)
	}
	if _, err := s.GetFeedback(ctx, "f1"); err != nil {
		t.Errorf("f1 should survive: %v", err)
	}
	if _, err := s.GetRun(ctx, "r0"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("r0 should be gone: %v", err)
	}
}

func testHealth(t *testing.T, s store.Store) {
	ctx := context.Background()

	h := s.Health(ctx, Now)
	if !h.Connection || !h.TablesExist || h.RecentData || !h.Healthy() {
		t.Errorf("empty store health = %+v", h)
	}

	seed(t, s)
	h = s.Health(ctx, Now)
	if !h.RecentData {
		t.Errorf("expected recent data: %+v", h)
	}
	if h = s.Health(ctx, Now.AddDate(1, 0, 0)); h.RecentData {
		t.Errorf("no data a year later: %+v", h)
	}
}
