package report

import (
	"math"
	"sort"
	"time"

	"github.com/cognicore/feedlens/internal/numeric"
	"github.com/cognicore/feedlens/pkg/feedlens/sentiment"
)

// Confidence bands counted by ComputeMetrics.
const (
	HighConfidence = 0.8
	LowConfidence  = 0.3
)

// UnknownSource labels records without a source.
const UnknownSource = "unknown"

// Record is one analyzed feedback item as seen by the business metrics.
type Record struct {
	FeedbackID string
	CustomerID string
	Source     string
	Timestamp  time.Time
	Score      float64
	Confidence float64
	Label      sentiment.Label
}

// SourceMetrics aggregates one feedback source.
type SourceMetrics struct {
	Source       string  `json:"source"`
	Count        int     `json:"feedback_count"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

// DateRange spans the timestamps of a record set.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Metrics are the business metrics of a record set.
type Metrics struct {
	TotalFeedback      int             `json:"total_feedback"`
	UniqueCustomers    int             `json:"unique_customers"`
	Positive           int             `json:"positive_count"`
	Negative           int             `json:"negative_count"`
	Neutral            int             `json:"neutral_count"`
	PositivePercentage float64         `json:"positive_percentage"`
	NegativePercentage float64         `json:"negative_percentage"`
	NeutralPercentage  float64         `json:"neutral_percentage"`
	AvgSentiment       float64         `json:"avg_sentiment"`
	SentimentStd       float64         `json:"sentiment_std"`
	MinSentiment       float64         `json:"min_sentiment"`
	MaxSentiment       float64         `json:"max_sentiment"`
	AvgConfidence      float64         `json:"avg_confidence"`
	HighConfidence     int             `json:"high_confidence_count"`
	LowConfidence      int             `json:"low_confidence_count"`
	DateRange          *DateRange      `json:"date_range,omitempty"`
	AvgDailyFeedback   float64         `json:"avg_daily_feedback"`
	AvgDailySentiment  float64         `json:"avg_daily_sentiment"`
	Sources            []SourceMetrics `json:"source_breakdown"`
}

// ComputeMetrics aggregates records. Scores and confidences are rounded to
// four decimals, percentages and the daily feedback average to two. The
// standard deviation is the sample deviation and is 0 for fewer than two
// records. Time metrics ignore zero timestamps and are omitted when none
// remain. Empty input yields zero Metrics.
func ComputeMetrics(records []Record) Metrics {
	m := Metrics{Sources: []SourceMetrics{}}
	if len(records) == 0 {
		return m
	}
	m.TotalFeedback = len(records)

	customers := make(map[string]struct{})
	scores := make([]float64, len(records))
	var confSum float64
	m.MinSentiment, m.MaxSentiment = math.Inf(1), math.Inf(-1)
	for i, r := range records {
		if r.CustomerID != "" {
			customers[r.CustomerID] = struct{}{}
		}
		switch r.Label {
		case sentiment.Positive:
			m.Positive++
		case sentiment.Negative:
			m.Negative++
		default:
			m.Neutral++
		}
		scores[i] = r.Score
		m.MinSentiment = math.Min(m.MinSentiment, r.Score)
		m.MaxSentiment = math.Max(m.MaxSentiment, r.Score)
		confSum += r.Confidence
		if r.Confidence > HighConfidence {
			m.HighConfidence++
		}
		if r.Confidence < LowConfidence {
			m.LowConfidence++
		}
	}
	m.UniqueCustomers = len(customers)

	n := float64(m.TotalFeedback)
	m.PositivePercentage = numeric.Round(float64(m.Positive)/n*100, 2)
	m.NegativePercentage = numeric.Round(float64(m.Negative)/n*100, 2)
	m.NeutralPercentage = numeric.Round(float64(m.Neutral)/n*100, 2)

	mean := numeric.Mean(scores)
	m.AvgSentiment = numeric.Round(mean, 4)
	m.SentimentStd = numeric.Round(sampleStd(scores, mean), 4)
	m.MinSentiment = numeric.Round(m.MinSentiment, 4)
	m.MaxSentiment = numeric.Round(m.MaxSentiment, 4)
	m.AvgConfidence = numeric.Round(confSum/n, 4)

	daily(&m, records)
	m.Sources = bySource(records)
	return m
}

func sampleStd(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// daily fills the date range and the per-day averages.
func daily(m *Metrics, records []Record) {
	counts := make(map[time.Time]int)
	sums := make(map[time.Time]float64)
	var rng *DateRange
	for _, r := range records {
		if r.Timestamp.IsZero() {
			continue
		}
		if rng == nil {
			rng = &DateRange{Start: r.Timestamp, End: r.Timestamp}
		}
		if r.Timestamp.Before(rng.Start) {
			rng.Start = r.Timestamp
		}
		if r.Timestamp.After(rng.End) {
			rng.End = r.Timestamp
		}
		y, mo, d := r.Timestamp.UTC().Date()
		day := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
		counts[day]++
		sums[day] += r.Score
	}
	if rng == nil {
		return
	}
	m.DateRange = rng

	var feedback, sentimentSum float64
	for day, c := range counts {
		feedback += float64(c)
		sentimentSum += numeric.Round(sums[day]/float64(c), 4)
	}
	days := float64(len(counts))
	m.AvgDailyFeedback = numeric.Round(feedback/days, 2)
	m.AvgDailySentiment = numeric.Round(sentimentSum/days, 4)
}

// bySource groups records by source, largest first, ties by name.
func bySource(records []Record) []SourceMetrics {
	counts := make(map[string]int)
	sums := make(map[string]float64)
	for _, r := range records {
		src := r.Source
		if src == "" {
			src = UnknownSource
		}
		counts[src]++
		sums[src] += r.Score
	}

	out := make([]SourceMetrics, 0, len(counts))
	for src, c := range counts {
		out = append(out, SourceMetrics{
			Source:       src,
			Count:        c,
			AvgSentiment: numeric.Round(sums[src]/float64(c), 4),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Source < out[j].Source
	})
	return out
}
