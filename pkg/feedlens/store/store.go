package store

import (
	"context"
	"time"
)

// Store persists feedback, analysis results and the aggregates derived from
// them. Implementations must be safe for concurrent use.
type Store interface {
	Close() error

	// Feedback
	SaveFeedback(ctx context.Context, items []Feedback) error
	GetFeedback(ctx context.Context, id string) (Feedback, error)
	UnprocessedFeedback(ctx context.Context, limit int) ([]Feedback, error)

	// Analysis results. SaveSentiment replaces any earlier result for the same
	// feedback; SaveAssignments replaces every earlier assignment of the
	// feedback items it mentions.
	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	SaveSentiment(ctx context.Context, recs []SentimentRecord) error
	SaveTopics(ctx context.Context, recs []TopicRecord) error
	SaveAssignments(ctx context.Context, recs []AssignmentRecord) error

	// Aggregates
	UpdateDailyMetrics(ctx context.Context, day time.Time) (DailyMetrics, error)
	SentimentTrends(ctx context.Context, since time.Time) ([]DailyMetrics, error)
	TopicSummary(ctx context.Context, since time.Time, minMentions int) ([]TopicStat, error)
	SourceBreakdown(ctx context.Context, since time.Time) ([]SourceStat, error)

	// Maintenance
	Cleanup(ctx context.Context, before time.Time) (int64, error)
	Health(ctx context.Context, now time.Time) Health
}

// Feedback is one customer comment.
type Feedback struct {
	ID         string
	CustomerID string
	Text       string
	Source     string
	Category   string
	Rating     float64
	Timestamp  time.Time
}

// Run records one pipeline execution.
type Run struct {
	ID                string
	StartedAt         time.Time
	FinishedAt        time.Time
	FeedbackProcessed int
	SentimentAnalyzed int
	TopicsExtracted   int
	Errors            int
	SuccessRate       float64
}

// SentimentRecord is the sentiment of one feedback item.
type SentimentRecord struct {
	FeedbackID   string
	RunID        string
	Score        float64
	Label        string
	Confidence   float64
	Compound     float64
	Polarity     float64
	Subjectivity float64
	ProcessedAt  time.Time
}

// TopicRecord is one topic discovered by a run.
type TopicRecord struct {
	RunID         string
	TopicID       int
	Name          string
	Keywords      []string
	DocumentCount int
	Coherence     float64
	Method        string
	CreatedAt     time.Time
}

// AssignmentRecord links a feedback item to a topic of a run.
type AssignmentRecord struct {
	FeedbackID string
	RunID      string
	TopicID    int
	Topic      string
	Relevance  float64
	Keywords   []string
}

// DailyMetrics aggregates sentiment over the feedback of one UTC day.
type DailyMetrics struct {
	Date         time.Time `json:"date"`
	AvgSentiment float64   `json:"avg_sentiment"`
	Total        int       `json:"total_feedback"`
	Positive     int       `json:"positive_count"`
	Negative     int       `json:"negative_count"`
	Neutral      int       `json:"neutral_count"`
	TopTopics    []string  `json:"top_topics"`
}

// TopicStat aggregates the assignments of one topic name.
type TopicStat struct {
	Topic           string  `json:"topic"`
	Mentions        int     `json:"mention_count"`
	AvgRelevance    float64 `json:"avg_relevance"`
	AvgSentiment    float64 `json:"avg_sentiment"`
	UniqueCustomers int     `json:"unique_customers"`
}

// SourceStat aggregates sentiment per feedback source.
type SourceStat struct {
	Source       string  `json:"source"`
	Count        int     `json:"count"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

// Health reports store status.
type Health struct {
	Connection  bool     `json:"connection"`
	TablesExist bool     `json:"tables_exist"`
	RecentData  bool     `json:"recent_data"`
	Errors      []string `json:"errors"`
}

// Healthy reports whether the store is usable. Missing recent data is not
// a failure.
func (h Health) Healthy() bool {
	return h.Connection && h.TablesExist && len(h.Errors) == 0
}

// TopTopicsLimit is how many topic names DailyMetrics keeps.
const TopTopicsLimit = 5

// RecentWindow is how far back Health looks for recent feedback.
const RecentWindow = 7 * 24 * time.Hour

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
