// Package feedlens analyzes customer feedback: every item gets a sentiment
// score and label, the corpus is clustered into topics, items are matched to
// those topics and the run is summarized, persisted and reported.
package feedlens

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/feedlens/internal/llm"
	"github.com/cognicore/feedlens/internal/numeric"
	"github.com/cognicore/feedlens/pkg/feedlens/assign"
	"github.com/cognicore/feedlens/pkg/feedlens/config"
	"github.com/cognicore/feedlens/pkg/feedlens/lexicon"
	"github.com/cognicore/feedlens/pkg/feedlens/logging"
	"github.com/cognicore/feedlens/pkg/feedlens/notify"
	"github.com/cognicore/feedlens/pkg/feedlens/report"
	"github.com/cognicore/feedlens/pkg/feedlens/sentiment"
	"github.com/cognicore/feedlens/pkg/feedlens/sentiment/pattern"
	"github.com/cognicore/feedlens/pkg/feedlens/sentiment/vader"
	"github.com/cognicore/feedlens/pkg/feedlens/stoplist"
	"github.com/cognicore/feedlens/pkg/feedlens/store"
	"github.com/cognicore/feedlens/pkg/feedlens/summary"
	"github.com/cognicore/feedlens/pkg/feedlens/textnorm"
	"github.com/cognicore/feedlens/pkg/feedlens/topics"
)

// ErrNoStore is returned by operations that need persistence when the
// engine was created without a store.
var ErrNoStore = errors.New("no store attached")

// Feedback is one customer comment to analyze.
type Feedback = store.Feedback

// Defaults for Options.
const (
	DefaultBatchSize  = 1000
	DefaultRecentDays = 30
	// recentMinMentions is how often a topic must occur in the recent window
	// to be listed in the report.
	recentMinMentions = 3
)

// Options configures an Engine. Only Store and Notifier are optional
// collaborators; everything else falls back to the built-in defaults.
type Options struct {
	Store    store.Store
	Notifier notify.Notifier
	Lexicon  *lexicon.Lexicon
	Stops    *stoplist.Manager

	// CompoundEstimator and PolarityEstimator replace the rule-based and
	// adjective-lexicon estimators.
	CompoundEstimator sentiment.Estimator
	PolarityEstimator sentiment.Estimator

	CompoundWeight     float64
	PolarityWeight     float64
	SentimentBatchSize int
	Workers            int

	Topics  topics.Options
	NTopics int

	// BatchSize bounds the rows written to the store per call and the items
	// fetched by AnalyzePending.
	BatchSize  int
	RecentDays int

	Logger *logging.Logger
	Clock  func() time.Time
}

// Engine runs the feedback analysis pipeline.
type Engine struct {
	store     store.Store
	notifier  notify.Notifier
	scorer    *sentiment.Scorer
	extractor *topics.Extractor
	assigner  *assign.Assigner
	nTopics   int
	batch     int
	recent    int
	log       *logging.Logger
	now       func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New creates an engine.
func New(opts Options) (*Engine, error) {
	if opts.Stops == nil {
		opts.Stops = stoplist.Default()
	}
	if opts.Lexicon == nil {
		opts.Lexicon = lexicon.Default()
	}
	if opts.CompoundEstimator == nil {
		opts.CompoundEstimator = vader.New(opts.Lexicon)
	}
	if opts.PolarityEstimator == nil {
		opts.PolarityEstimator = pattern.New(opts.Lexicon)
	}
	if opts.NTopics <= 0 {
		opts.NTopics = topics.DefaultTopics
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.RecentDays <= 0 {
		opts.RecentDays = DefaultRecentDays
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	norm := textnorm.New(opts.Stops)
	scorer, err := sentiment.NewScorer(opts.CompoundEstimator, opts.PolarityEstimator, sentiment.Options{
		Normalizer:     norm,
		CompoundWeight: opts.CompoundWeight,
		PolarityWeight: opts.PolarityWeight,
		BatchSize:      opts.SentimentBatchSize,
		Workers:        opts.Workers,
		Logger:         opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	topicOpts := opts.Topics
	topicOpts.Stops = opts.Stops
	topicOpts.Normalizer = norm
	topicOpts.Logger = opts.Logger

	return &Engine{
		store:     opts.Store,
		notifier:  opts.Notifier,
		scorer:    scorer,
		extractor: topics.NewExtractor(topicOpts),
		assigner:  assign.New(norm, opts.Logger),
		nTopics:   opts.NTopics,
		batch:     opts.BatchSize,
		recent:    opts.RecentDays,
		log:       opts.Logger,
		now:       opts.Clock,
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// NewFromConfig builds an engine from loaded configuration. st and n may be
// nil.
func NewFromConfig(cfg *config.Config, st store.Store, n notify.Notifier, log *logging.Logger) (*Engine, error) {
	comp, err := cfg.LoadComponents()
	if err != nil {
		return nil, err
	}
	var polarity sentiment.Estimator
	if cfg.Sentiment.PolarityEstimator == config.EstimatorLLM {
		polarity = llm.NewEstimator(cfg.LLM)
		log.Info("Using %s at %s for polarity", cfg.LLM.Model, cfg.LLM.BaseURL)
	}
	return New(Options{
		Store:              st,
		Notifier:           n,
		Lexicon:            comp.Lexicon,
		Stops:              comp.Stops,
		PolarityEstimator:  polarity,
		CompoundWeight:     cfg.Sentiment.VaderWeight,
		PolarityWeight:     cfg.Sentiment.TextBlobWeight,
		SentimentBatchSize: cfg.Sentiment.BatchSize,
		Workers:            cfg.Sentiment.Workers,
		Topics:             cfg.TopicOptions(),
		NTopics:            cfg.Topics.NTopics,
		BatchSize:          cfg.Processing.BatchSize,
		Logger:             log,
	})
}

// Close closes the attached store.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Scorer returns the sentiment scorer.
func (e *Engine) Scorer() *sentiment.Scorer { return e.scorer }

// Extractor returns the topic extractor.
func (e *Engine) Extractor() *topics.Extractor { return e.extractor }

// Assigner returns the topic assigner.
func (e *Engine) Assigner() *assign.Assigner { return e.assigner }

// Store returns the attached store, or nil.
func (e *Engine) Store() store.Store { return e.store }

func (e *Engine) newRunID(at time.Time) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), e.entropy).String()
}

// AnalyzePending analyzes up to BatchSize stored items that have no
// sentiment result yet, oldest first.
func (e *Engine) AnalyzePending(ctx context.Context) (*report.Report, error) {
	if e.store == nil {
		return nil, fmt.Errorf("analyze pending: %w", ErrNoStore)
	}
	items, err := e.store.UnprocessedFeedback(ctx, e.batch)
	if err != nil {
		return nil, fmt.Errorf("load unprocessed feedback: %w", err)
	}
	return e.Analyze(ctx, items)
}

// Analyze runs sentiment scoring, topic extraction, assignment and
// summarization over items.
//
// Per-item sentiment failures and a failed topic extraction are counted in
// Stats.Errors and do not fail the run. When a store is attached, items and
// results are persisted; a persistence failure marks the report unsuccessful
// and is returned together with the report. Notification failures are only
// logged.
func (e *Engine) Analyze(ctx context.Context, items []Feedback) (*report.Report, error) {
	start := e.now()
	rep := &report.Report{
		RunID:   e.newRunID(start),
		Success: true,
		Stats:   report.Stats{StartedAt: start, FeedbackProcessed: len(items)},
		Topics:  []topics.Topic{},
		Summary: summary.Summary{Topics: []summary.TopicSummary{}},
	}
	e.log.Info("Starting feedback analysis run %s", rep.RunID)

	items = e.prepare(items, rep.RunID, start)
	var runErr error
	if len(items) == 0 {
		e.log.Info("No new feedback to process")
		rep.Metrics = report.ComputeMetrics(nil)
	} else {
		runErr = e.analyze(ctx, rep, items)
	}

	rep.Stats.Finish(e.now())
	if e.store != nil && runErr == nil {
		if err := e.store.SaveRun(ctx, e.runRecord(rep)); err != nil {
			runErr = fmt.Errorf("save run: %w", err)
		}
		e.attachRecent(ctx, rep)
	}
	if runErr != nil {
		rep.Success = false
		rep.Stats.Errors++
		e.log.Error("Pipeline processing failed: %v", runErr)
	} else {
		e.log.Info("Pipeline processing completed successfully")
	}

	e.notify(ctx, rep)
	return rep, runErr
}

// prepare copies items, filling missing IDs and timestamps.
func (e *Engine) prepare(items []Feedback, runID string, at time.Time) []Feedback {
	out := make([]Feedback, len(items))
	for i, f := range items {
		if f.ID == "" {
			f.ID = fmt.Sprintf("%s-%d", runID, i)
		}
		if f.Timestamp.IsZero() {
			f.Timestamp = at
		}
		out[i] = f
	}
	return out
}

func (e *Engine) analyze(ctx context.Context, rep *report.Report, items []Feedback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	texts := make([]string, len(items))
	for i, f := range items {
		texts[i] = f.Text
	}

	e.log.Info("Starting sentiment analysis for %d feedback items", len(texts))
	batch := e.scorer.ScoreBatch(texts)
	rep.Stats.SentimentAnalyzed = len(texts) - batch.Errors
	rep.Stats.Errors += batch.Errors
	rep.Sentiment = sentiment.Distribute(batch.Results)

	if err := ctx.Err(); err != nil {
		return err
	}

	e.log.Info("Starting topic extraction for %d feedback items", len(texts))
	found, err := e.extractor.Extract(texts, e.nTopics)
	if err != nil {
		e.log.Error("Topic extraction failed: %v", err)
		rep.Stats.Errors++
		found = []topics.Topic{}
	}
	if len(found) == 0 {
		e.log.Warn("No topics extracted")
	}
	assignments := e.assigner.Assign(texts, found)
	rep.Stats.TopicsExtracted = len(assignments)
	rep.Topics = found
	rep.Summary = summary.Summarize(found, assignments)
	rep.Terms = e.extractor.TermFrequencies(texts, topics.DefaultTermLimit)
	e.log.Info("Topic extraction completed, %d topics found, %d topic assignments created", len(found), len(assignments))

	perDoc := make([][]assign.Assignment, len(items))
	for _, a := range assignments {
		perDoc[a.DocumentID] = append(perDoc[a.DocumentID], a)
	}
	rep.Documents = make([]report.Document, len(items))
	records := make([]report.Record, len(items))
	for i, f := range items {
		res := batch.Results[i]
		docTopics := perDoc[i]
		if docTopics == nil {
			docTopics = []assign.Assignment{}
		}
		rep.Documents[i] = report.Document{FeedbackID: f.ID, Sentiment: res, Topics: docTopics}
		records[i] = report.Record{
			FeedbackID: f.ID,
			CustomerID: f.CustomerID,
			Source:     f.Source,
			Timestamp:  f.Timestamp,
			Score:      res.Score,
			Confidence: res.Confidence,
			Label:      res.Label,
		}
	}
	rep.Metrics = report.ComputeMetrics(records)

	if e.store == nil {
		return nil
	}
	return e.persist(ctx, rep, items)
}

func (e *Engine) persist(ctx context.Context, rep *report.Report, items []Feedback) error {
	now := e.now()

	if err := chunked(len(items), e.batch, func(lo, hi int) error {
		return e.store.SaveFeedback(ctx, items[lo:hi])
	}); err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}

	sent := make([]store.SentimentRecord, len(items))
	for i, d := range rep.Documents {
		r := d.Sentiment
		sent[i] = store.SentimentRecord{
			FeedbackID:   d.FeedbackID,
			RunID:        rep.RunID,
			Score:        r.Score,
			Label:        string(r.Label),
			Confidence:   r.Confidence,
			Compound:     r.Compound,
			Polarity:     r.Polarity,
			Subjectivity: r.Subjectivity,
			ProcessedAt:  now,
		}
	}
	if err := chunked(len(sent), e.batch, func(lo, hi int) error {
		return e.store.SaveSentiment(ctx, sent[lo:hi])
	}); err != nil {
		return fmt.Errorf("save sentiment results: %w", err)
	}

	topicRecs := make([]store.TopicRecord, len(rep.Topics))
	for i, t := range rep.Topics {
		topicRecs[i] = store.TopicRecord{
			RunID:         rep.RunID,
			TopicID:       t.ID,
			Name:          t.Name,
			Keywords:      t.Terms(),
			DocumentCount: t.DocumentCount,
			Coherence:     t.Coherence,
			Method:        string(t.Method),
			CreatedAt:     now,
		}
	}
	if len(topicRecs) > 0 {
		if err := e.store.SaveTopics(ctx, topicRecs); err != nil {
			return fmt.Errorf("save topics: %w", err)
		}
	}

	var assigned []store.AssignmentRecord
	for _, d := range rep.Documents {
		for _, a := range d.Topics {
			assigned = append(assigned, store.AssignmentRecord{
				FeedbackID: d.FeedbackID,
				RunID:      rep.RunID,
				TopicID:    a.TopicID,
				Topic:      a.TopicName,
				Relevance:  a.Relevance,
				Keywords:   a.KeywordsFound,
			})
		}
	}
	if err := chunked(len(assigned), e.batch, func(lo, hi int) error {
		return e.store.SaveAssignments(ctx, assigned[lo:hi])
	}); err != nil {
		return fmt.Errorf("save topic results: %w", err)
	}

	days := make(map[time.Time]struct{})
	for _, f := range items {
		days[store.Day(f.Timestamp)] = struct{}{}
	}
	for day := range days {
		if _, err := e.store.UpdateDailyMetrics(ctx, day); err != nil {
			return fmt.Errorf("update satisfaction metrics: %w", err)
		}
	}
	return nil
}

// attachRecent adds store health and the recent-window metrics. Failures
// are logged and leave the report without them.
func (e *Engine) attachRecent(ctx context.Context, rep *report.Report) {
	now := e.now()
	h := e.store.Health(ctx, now)
	rep.Health = &h

	since := now.AddDate(0, 0, -e.recent)
	trends, err := e.store.SentimentTrends(ctx, since)
	if err != nil {
		e.log.Warn("Failed to add recent metrics to report: %v", err)
		return
	}
	top, err := e.store.TopicSummary(ctx, since, recentMinMentions)
	if err != nil {
		e.log.Warn("Failed to add recent metrics to report: %v", err)
		return
	}

	recent := &report.Recent{Days: e.recent, TopTopics: top}
	var sum float64
	for _, d := range trends {
		recent.TotalFeedback += d.Total
		sum += d.AvgSentiment * float64(d.Total)
	}
	if recent.TotalFeedback > 0 {
		recent.AvgSentiment = numeric.Round(sum/float64(recent.TotalFeedback), 3)
	}
	if len(recent.TopTopics) > 5 {
		recent.TopTopics = recent.TopTopics[:5]
	}
	if recent.TopTopics == nil {
		recent.TopTopics = []store.TopicStat{}
	}
	rep.Recent = recent
}

func (e *Engine) runRecord(rep *report.Report) store.Run {
	s := rep.Stats
	return store.Run{
		ID:                rep.RunID,
		StartedAt:         s.StartedAt,
		FinishedAt:        s.FinishedAt,
		FeedbackProcessed: s.FeedbackProcessed,
		SentimentAnalyzed: s.SentimentAnalyzed,
		TopicsExtracted:   s.TopicsExtracted,
		Errors:            s.Errors,
		SuccessRate:       s.SuccessRate,
	}
}

func (e *Engine) notify(ctx context.Context, rep *report.Report) {
	if e.notifier == nil {
		return
	}
	at := e.now()
	msg := notify.Message{
		Title:     "Feedback Analysis Pipeline Report",
		Text:      report.Notification(rep, at),
		Success:   rep.Success,
		RunID:     rep.RunID,
		Timestamp: at,
	}
	if err := e.notifier.Send(ctx, msg); err != nil {
		e.log.Error("Failed to send notification: %v", err)
	}
}

// Health reports the attached store's status.
func (e *Engine) Health(ctx context.Context) (store.Health, error) {
	if e.store == nil {
		return store.Health{}, fmt.Errorf("health: %w", ErrNoStore)
	}
	return e.store.Health(ctx, e.now()), nil
}

// chunked calls fn over consecutive [lo, hi) ranges of at most size.
func chunked(n, size int, fn func(lo, hi int) error) error {
	for lo := 0; lo < n; lo += size {
		if err := fn(lo, min(lo+size, n)); err != nil {
			return err
		}
	}
	return nil
}
