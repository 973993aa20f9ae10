package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/feedlens/pkg/feedlens/internalerr"
	"github.com/cognicore/feedlens/pkg/feedlens/store"
)

// Store is an in-memory implementation of store.Store for tests and one-shot
// CLI runs.
type Store struct {
	mu          sync.RWMutex
	closed      bool
	feedback    map[string]store.Feedback
	runs        map[string]store.Run
	sentiment   map[string]store.SentimentRecord
	topics      []store.TopicRecord
	assignments map[string][]store.AssignmentRecord
	daily       map[time.Time]store.DailyMetrics
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		feedback:    make(map[string]store.Feedback),
		runs:        make(map[string]store.Run),
		sentiment:   make(map[string]store.SentimentRecord),
		assignments: make(map[string][]store.AssignmentRecord),
		daily:       make(map[time.Time]store.DailyMetrics),
	}
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) check() error {
	if s.closed {
		return fmt.Errorf("memstore closed: %w", internalerr.ErrStoreUnavailable)
	}
	return nil
}

// SaveFeedback inserts or replaces feedback items keyed by ID.
func (s *Store) SaveFeedback(ctx context.Context, items []store.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}

	for _, f := range items {
		if f.ID == "" {
			return fmt.Errorf("feedback without id: %w", internalerr.ErrInvalidInput)
		}
	}
	for _, f := range items {
		s.feedback[f.ID] = f
	}
	return nil
}

// GetFeedback returns a feedback item by ID.
func (s *Store) GetFeedback(ctx context.Context, id string) (store.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return store.Feedback{}, err
	}

	f, ok := s.feedback[id]
	if !ok {
		return store.Feedback{}, fmt.Errorf("feedback %q: %w", id, internalerr.ErrNotFound)
	}
	return f, nil
}

// UnprocessedFeedback returns feedback without a sentiment result, oldest
// first. A limit <= 0 returns all of it.
func (s *Store) UnprocessedFeedback(ctx context.Context, limit int) ([]store.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}

	var out []store.Feedback
	for id, f := range s.feedback {
		if _, done := s.sentiment[id]; !done {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveRun inserts or replaces a run.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	if r.ID == "" {
		return fmt.Errorf("run without id: %w", internalerr.ErrInvalidInput)
	}
	s.runs[r.ID] = r
	return nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return store.Run{}, err
	}
	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("run %q: %w", id, internalerr.ErrNotFound)
	}
	return r, nil
}

// SaveSentiment stores results, replacing earlier ones for the same feedback.
func (s *Store) SaveSentiment(ctx context.Context, recs []store.SentimentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	for _, r := range recs {
		s.sentiment[r.FeedbackID] = r
	}
	return nil
}

// SaveTopics appends topic records.
func (s *Store) SaveTopics(ctx context.Context, recs []store.TopicRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	for _, r := range recs {
		r.Keywords = append([]string(nil), r.Keywords...)
		s.topics = append(s.topics, r)
	}
	return nil
}

// Topics returns the topic records of a run in insertion order.
func (s *Store) Topics(runID string) []store.TopicRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.TopicRecord
	for _, t := range s.topics {
		if t.RunID == runID {
			out = append(out, t)
		}
	}
	return out
}

// SaveAssignments replaces the assignments of every feedback item in recs.
func (s *Store) SaveAssignments(ctx context.Context, recs []store.AssignmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}

	fresh := make(map[string][]store.AssignmentRecord)
	for _, r := range recs {
		r.Keywords = append([]string(nil), r.Keywords...)
		fresh[r.FeedbackID] = append(fresh[r.FeedbackID], r)
	}
	for id, rs := range fresh {
		s.assignments[id] = rs
	}
	return nil
}

// Assignments returns the stored assignments of one feedback item.
func (s *Store) Assignments(feedbackID string) []store.AssignmentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]store.AssignmentRecord(nil), s.assignments[feedbackID]...)
}

// UpdateDailyMetrics recomputes and stores the metrics of day.
func (s *Store) UpdateDailyMetrics(ctx context.Context, day time.Time) (store.DailyMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return store.DailyMetrics{}, err
	}

	day = store.Day(day)
	m := store.DailyMetrics{Date: day}
	var sum float64
	mentions := make(map[string]int)
	for id, f := range s.feedback {
		if !store.Day(f.Timestamp).Equal(day) {
			continue
		}
		rec, ok := s.sentiment[id]
		if !ok {
			continue
		}
		m.Total++
		sum += rec.Score
		countLabel(&m, rec.Label)
		for _, a := range s.assignments[id] {
			mentions[a.Topic]++
		}
	}
	if m.Total > 0 {
		m.AvgSentiment = sum / float64(m.Total)
	}
	m.TopTopics = topNames(mentions, store.TopTopicsLimit)
	s.daily[day] = m
	return m, nil
}

// DailyMetrics returns the stored metrics of day.
func (s *Store) DailyMetrics(day time.Time) (store.DailyMetrics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.daily[store.Day(day)]
	return m, ok
}

// SentimentTrends aggregates analyzed feedback per day from since onwards.
func (s *Store) SentimentTrends(ctx context.Context, since time.Time) ([]store.DailyMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]*store.DailyMetrics)
	sums := make(map[time.Time]float64)
	for id, f := range s.feedback {
		if f.Timestamp.Before(since) {
			continue
		}
		rec, ok := s.sentiment[id]
		if !ok {
			continue
		}
		d := store.Day(f.Timestamp)
		m := byDay[d]
		if m == nil {
			m = &store.DailyMetrics{Date: d}
			byDay[d] = m
		}
		m.Total++
		sums[d] += rec.Score
		countLabel(m, rec.Label)
	}

	out := make([]store.DailyMetrics, 0, len(byDay))
	for d, m := range byDay {
		m.AvgSentiment = sums[d] / float64(m.Total)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// TopicSummary aggregates assignments by topic name for analyzed feedback
// from since onwards, keeping topics with at least minMentions assignments.
func (s *Store) TopicSummary(ctx context.Context, since time.Time, minMentions int) ([]store.TopicStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}

	type acc struct {
		mentions  int
		relevance float64
		sentiment float64
		customers map[string]struct{}
	}
	byTopic := make(map[string]*acc)
	for id, as := range s.assignments {
		f, ok := s.feedback[id]
		if !ok || f.Timestamp.Before(since) {
			continue
		}
		rec, ok := s.sentiment[id]
		if !ok {
			continue
		}
		for _, a := range as {
			t := byTopic[a.Topic]
			if t == nil {
				t = &acc{customers: make(map[string]struct{})}
				byTopic[a.Topic] = t
			}
			t.mentions++
			t.relevance += a.Relevance
			t.sentiment += rec.Score
			if f.CustomerID != "" {
				t.customers[f.CustomerID] = struct{}{}
			}
		}
	}

	var out []store.TopicStat
	for name, t := range byTopic {
		if t.mentions < minMentions {
			continue
		}
		n := float64(t.mentions)
		out = append(out, store.TopicStat{
			Topic:           name,
			Mentions:        t.mentions,
			AvgRelevance:    t.relevance / n,
			AvgSentiment:    t.sentiment / n,
			UniqueCustomers: len(t.customers),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mentions != out[j].Mentions {
			return out[i].Mentions > out[j].Mentions
		}
		return out[i].Topic < out[j].Topic
	})
	return out, nil
}

// SourceBreakdown aggregates analyzed feedback by source from since onwards.
func (s *Store) SourceBreakdown(ctx context.Context, since time.Time) ([]store.SourceStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	sums := make(map[string]float64)
	for id, f := range s.feedback {
		if f.Timestamp.Before(since) {
			continue
		}
		rec, ok := s.sentiment[id]
		if !ok {
			continue
		}
		counts[f.Source]++
		sums[f.Source] += rec.Score
	}

	out := make([]store.SourceStat, 0, len(counts))
	for src, n := range counts {
		out = append(out, store.SourceStat{Source: src, Count: n, AvgSentiment: sums[src] / float64(n)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Source < out[j].Source
	})
	return out, nil
}

// Cleanup deletes feedback older than before together with its results,
// runs that finished before it and daily metrics of earlier days.
func (s *Store) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return 0, err
	}

	var deleted int64
	for id, f := range s.feedback {
		if !f.Timestamp.Before(before) {
			continue
		}
		deleted += int64(len(s.assignments[id]))
		delete(s.assignments, id)
		if _, ok := s.sentiment[id]; ok {
			deleted++
			delete(s.sentiment, id)
		}
		delete(s.feedback, id)
		deleted++
	}
	for id, r := range s.runs {
		if r.FinishedAt.Before(before) {
			delete(s.runs, id)
			deleted++
		}
	}
	kept := s.topics[:0]
	for _, t := range s.topics {
		if t.CreatedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	s.topics = kept
	cutoff := store.Day(before)
	for d := range s.daily {
		if d.Before(cutoff) {
			delete(s.daily, d)
			deleted++
		}
	}
	return deleted, nil
}

// Health implements store.Store.
func (s *Store) Health(ctx context.Context, now time.Time) store.Health {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := store.Health{Errors: []string{}}
	if err := s.check(); err != nil {
		h.Errors = append(h.Errors, err.Error())
		return h
	}
	h.Connection = true
	h.TablesExist = true
	since := now.Add(-store.RecentWindow)
	for _, f := range s.feedback {
		if !f.Timestamp.Before(since) {
			h.RecentData = true
			break
		}
	}
	return h
}

func countLabel(m *store.DailyMetrics, label string) {
	switch label {
	case "Positive":
		m.Positive++
	case "Negative":
		m.Negative++
	default:
		m.Neutral++
	}
}

// topNames returns up to n names by descending count, ties alphabetical.
func topNames(counts map[string]int, n int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}
