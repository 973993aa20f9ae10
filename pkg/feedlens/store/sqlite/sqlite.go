package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/feedlens/pkg/feedlens/internalerr"
	"github.com/cognicore/feedlens/pkg/feedlens/store"
)

// Timestamps are stored as fixed-width UTC text so that string comparison
// orders them chronologically.
const (
	tsLayout  = "2006-01-02T15:04:05.000000000Z07:00"
	dayLayout = "2006-01-02"
)

var tables = []string{
	"feedback", "runs", "sentiment_analysis", "topics", "topic_analysis", "satisfaction_metrics",
}

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed. ":memory:" opens a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %v: %w", err, internalerr.ErrStoreUnavailable)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %v: %w", err, internalerr.ErrStoreUnavailable)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %v: %w", err, internalerr.ErrStoreUnavailable)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %v: %w", err, internalerr.ErrStoreUnavailable)
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS feedback (
	id TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL DEFAULT '',
	text TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	rating REAL NOT NULL DEFAULT 0,
	ts TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_ts ON feedback(ts);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	feedback_processed INTEGER NOT NULL DEFAULT 0,
	sentiment_analyzed INTEGER NOT NULL DEFAULT 0,
	topics_extracted INTEGER NOT NULL DEFAULT 0,
	errors INTEGER NOT NULL DEFAULT 0,
	success_rate REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sentiment_analysis (
	feedback_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL DEFAULT '',
	sentiment_score REAL NOT NULL,
	sentiment_label TEXT NOT NULL,
	confidence REAL NOT NULL,
	vader_compound REAL NOT NULL DEFAULT 0,
	textblob_polarity REAL NOT NULL DEFAULT 0,
	textblob_subjectivity REAL NOT NULL DEFAULT 0,
	processed_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS topics (
	run_id TEXT NOT NULL,
	topic_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	keywords TEXT NOT NULL,
	document_count INTEGER NOT NULL,
	coherence REAL NOT NULL,
	method TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY(run_id, topic_id)
);

CREATE TABLE IF NOT EXISTS topic_analysis (
	feedback_id TEXT NOT NULL,
	run_id TEXT NOT NULL DEFAULT '',
	topic_id INTEGER NOT NULL,
	topic TEXT NOT NULL,
	relevance_score REAL NOT NULL,
	keyword_list TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_topic_analysis_feedback ON topic_analysis(feedback_id);

CREATE TABLE IF NOT EXISTS satisfaction_metrics (
	date_period TEXT PRIMARY KEY,
	avg_sentiment REAL NOT NULL,
	total_feedback_count INTEGER NOT NULL,
	positive_count INTEGER NOT NULL,
	negative_count INTEGER NOT NULL,
	neutral_count INTEGER NOT NULL,
	top_topics TEXT NOT NULL
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(tsLayout, s)
}

// SaveFeedback inserts or replaces feedback items keyed by ID.
func (s *sqliteStore) SaveFeedback(ctx context.Context, items []store.Feedback) error {
	for _, f := range items {
		if f.ID == "" {
			return fmt.Errorf("feedback without id: %w", internalerr.ErrInvalidInput)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO feedback (id, customer_id, text, source, category, rating, ts)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	customer_id=excluded.customer_id,
	text=excluded.text,
	source=excluded.source,
	category=excluded.category,
	rating=excluded.rating,
	ts=excluded.ts;
`
	ins, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return err
	}
	defer ins.Close()

	for _, f := range items {
		if _, err := ins.ExecContext(ctx, f.ID, f.CustomerID, f.Text, f.Source, f.Category, f.Rating, formatTime(f.Timestamp)); err != nil {
			return fmt.Errorf("save feedback %q: %w", f.ID, err)
		}
	}
	return tx.Commit()
}

const feedbackColumns = `f.id, f.customer_id, f.text, f.source, f.category, f.rating, f.ts`

type scanner interface {
	Scan(dest ...any) error
}

func scanFeedback(row scanner) (store.Feedback, error) {
	var f store.Feedback
	var ts string
	if err := row.Scan(&f.ID, &f.CustomerID, &f.Text, &f.Source, &f.Category, &f.Rating, &ts); err != nil {
		return store.Feedback{}, err
	}
	t, err := parseTime(ts)
	if err != nil {
		return store.Feedback{}, fmt.Errorf("feedback %q timestamp: %w", f.ID, err)
	}
	f.Timestamp = t
	return f, nil
}

// GetFeedback returns a feedback item by ID.
func (s *sqliteStore) GetFeedback(ctx context.Context, id string) (store.Feedback, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+feedbackColumns+` FROM feedback f WHERE f.id = ?`, id)
	f, err := scanFeedback(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Feedback{}, fmt.Errorf("feedback %q: %w", id, internalerr.ErrNotFound)
	}
	return f, err
}

// UnprocessedFeedback returns feedback without a sentiment result, oldest
// first. A limit <= 0 returns all of it.
func (s *sqliteStore) UnprocessedFeedback(ctx context.Context, limit int) ([]store.Feedback, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+feedbackColumns+`
FROM feedback f
LEFT JOIN sentiment_analysis sa ON sa.feedback_id = f.id
WHERE sa.feedback_id IS NULL
ORDER BY f.ts ASC, f.id ASC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Feedback
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// SaveRun inserts or replaces a run.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("run without id: %w", internalerr.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO runs
	(id, started_at, finished_at, feedback_processed, sentiment_analyzed, topics_extracted, errors, success_rate)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, formatTime(r.StartedAt), formatTime(r.FinishedAt),
		r.FeedbackProcessed, r.SentimentAnalyzed, r.TopicsExtracted, r.Errors, r.SuccessRate)
	return err
}

// GetRun returns a run by ID.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	var r store.Run
	var started, finished string
	err := s.db.QueryRowContext(ctx, `
SELECT id, started_at, finished_at, feedback_processed, sentiment_analyzed, topics_extracted, errors, success_rate
FROM runs WHERE id = ?`, id).Scan(
		&r.ID, &started, &finished, &r.FeedbackProcessed, &r.SentimentAnalyzed, &r.TopicsExtracted, &r.Errors, &r.SuccessRate)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("run %q: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Run{}, err
	}
	if r.StartedAt, err = parseTime(started); err != nil {
		return store.Run{}, err
	}
	if r.FinishedAt, err = parseTime(finished); err != nil {
		return store.Run{}, err
	}
	return r, nil
}

// SaveSentiment stores results, replacing earlier ones for the same feedback.
func (s *sqliteStore) SaveSentiment(ctx context.Context, recs []store.SentimentRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ins, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO sentiment_analysis
	(feedback_id, run_id, sentiment_score, sentiment_label, confidence,
	 vader_compound, textblob_polarity, textblob_subjectivity, processed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ins.Close()

	for _, r := range recs {
		if _, err := ins.ExecContext(ctx, r.FeedbackID, r.RunID, r.Score, r.Label, r.Confidence,
			r.Compound, r.Polarity, r.Subjectivity, formatTime(r.ProcessedAt)); err != nil {
			return fmt.Errorf("save sentiment %q: %w", r.FeedbackID, err)
		}
	}
	return tx.Commit()
}

// SaveTopics inserts topic records, replacing any with the same run and
// topic ID.
func (s *sqliteStore) SaveTopics(ctx context.Context, recs []store.TopicRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ins, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO topics
	(run_id, topic_id, name, keywords, document_count, coherence, method, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ins.Close()

	for _, r := range recs {
		kw, err := json.Marshal(nonNil(r.Keywords))
		if err != nil {
			return err
		}
		if _, err := ins.ExecContext(ctx, r.RunID, r.TopicID, r.Name, string(kw), r.DocumentCount,
			r.Coherence, r.Method, formatTime(r.CreatedAt)); err != nil {
			return fmt.Errorf("save topic %d: %w", r.TopicID, err)
		}
	}
	return tx.Commit()
}

// SaveAssignments replaces the assignments of every feedback item in recs.
func (s *sqliteStore) SaveAssignments(ctx context.Context, recs []store.AssignmentRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	seen := make(map[string]struct{})
	for _, r := range recs {
		if _, ok := seen[r.FeedbackID]; ok {
			continue
		}
		seen[r.FeedbackID] = struct{}{}
		if _, err := tx.ExecContext(ctx, `DELETE FROM topic_analysis WHERE feedback_id = ?`, r.FeedbackID); err != nil {
			return err
		}
	}

	ins, err := tx.PrepareContext(ctx, `
INSERT INTO topic_analysis (feedback_id, run_id, topic_id, topic, relevance_score, keyword_list)
VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ins.Close()

	for _, r := range recs {
		kw, err := json.Marshal(nonNil(r.Keywords))
		if err != nil {
			return err
		}
		if _, err := ins.ExecContext(ctx, r.FeedbackID, r.RunID, r.TopicID, r.Topic, r.Relevance, string(kw)); err != nil {
			return fmt.Errorf("save assignment %q: %w", r.FeedbackID, err)
		}
	}
	return tx.Commit()
}

// UpdateDailyMetrics recomputes and stores the metrics of day.
func (s *sqliteStore) UpdateDailyMetrics(ctx context.Context, day time.Time) (store.DailyMetrics, error) {
	day = store.Day(day)
	key := day.Format(dayLayout)
	m := store.DailyMetrics{Date: day}

	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*),
	COALESCE(AVG(sa.sentiment_score), 0),
	COALESCE(SUM(CASE WHEN sa.sentiment_label = 'Positive' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN sa.sentiment_label = 'Negative' THEN 1 ELSE 0 END), 0)
FROM feedback f
JOIN sentiment_analysis sa ON sa.feedback_id = f.id
WHERE substr(f.ts, 1, 10) = ?`, key).Scan(&m.Total, &m.AvgSentiment, &m.Positive, &m.Negative)
	if err != nil {
		return store.DailyMetrics{}, fmt.Errorf("daily metrics %s: %w", key, err)
	}
	m.Neutral = m.Total - m.Positive - m.Negative

	rows, err := s.db.QueryContext(ctx, `
SELECT ta.topic, COUNT(*) AS n
FROM topic_analysis ta
JOIN feedback f ON f.id = ta.feedback_id
JOIN sentiment_analysis sa ON sa.feedback_id = f.id
WHERE substr(f.ts, 1, 10) = ?
GROUP BY ta.topic
ORDER BY n DESC, ta.topic ASC
LIMIT ?`, key, store.TopTopicsLimit)
	if err != nil {
		return store.DailyMetrics{}, err
	}
	m.TopTopics = []string{}
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			rows.Close()
			return store.DailyMetrics{}, err
		}
		m.TopTopics = append(m.TopTopics, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return store.DailyMetrics{}, err
	}

	top, err := json.Marshal(m.TopTopics)
	if err != nil {
		return store.DailyMetrics{}, err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO satisfaction_metrics
	(date_period, avg_sentiment, total_feedback_count, positive_count, negative_count, neutral_count, top_topics)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(date_period) DO UPDATE SET
	avg_sentiment=excluded.avg_sentiment,
	total_feedback_count=excluded.total_feedback_count,
	positive_count=excluded.positive_count,
	negative_count=excluded.negative_count,
	neutral_count=excluded.neutral_count,
	top_topics=excluded.top_topics`,
		key, m.AvgSentiment, m.Total, m.Positive, m.Negative, m.Neutral, string(top))
	if err != nil {
		return store.DailyMetrics{}, fmt.Errorf("save daily metrics %s: %w", key, err)
	}
	return m, nil
}

// SentimentTrends aggregates analyzed feedback per day from since onwards.
func (s *sqliteStore) SentimentTrends(ctx context.Context, since time.Time) ([]store.DailyMetrics, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT substr(f.ts, 1, 10) AS day,
	AVG(sa.sentiment_score),
	COUNT(*),
	SUM(CASE WHEN sa.sentiment_label = 'Positive' THEN 1 ELSE 0 END),
	SUM(CASE WHEN sa.sentiment_label = 'Negative' THEN 1 ELSE 0 END)
FROM feedback f
JOIN sentiment_analysis sa ON sa.feedback_id = f.id
WHERE f.ts >= ?
GROUP BY day
ORDER BY day ASC`, formatTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []store.DailyMetrics{}
	for rows.Next() {
		var day string
		var m store.DailyMetrics
		if err := rows.Scan(&day, &m.AvgSentiment, &m.Total, &m.Positive, &m.Negative); err != nil {
			return nil, err
		}
		if m.Date, err = time.Parse(dayLayout, day); err != nil {
			return nil, err
		}
		m.Neutral = m.Total - m.Positive - m.Negative
		out = append(out, m)
	}
	return out, rows.Err()
}

// TopicSummary aggregates assignments by topic name for analyzed feedback
// from since onwards, keeping topics with at least minMentions assignments.
func (s *sqliteStore) TopicSummary(ctx context.Context, since time.Time, minMentions int) ([]store.TopicStat, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT ta.topic,
	COUNT(*) AS mentions,
	AVG(ta.relevance_score),
	AVG(sa.sentiment_score),
	COUNT(DISTINCT NULLIF(f.customer_id, ''))
FROM topic_analysis ta
JOIN feedback f ON f.id = ta.feedback_id
JOIN sentiment_analysis sa ON sa.feedback_id = f.id
WHERE f.ts >= ?
GROUP BY ta.topic
HAVING COUNT(*) >= ?
ORDER BY mentions DESC, ta.topic ASC`, formatTime(since), minMentions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.TopicStat
	for rows.Next() {
		var t store.TopicStat
		if err := rows.Scan(&t.Topic, &t.Mentions, &t.AvgRelevance, &t.AvgSentiment, &t.UniqueCustomers); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SourceBreakdown aggregates analyzed feedback by source from since onwards.
func (s *sqliteStore) SourceBreakdown(ctx context.Context, since time.Time) ([]store.SourceStat, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT f.source, COUNT(*) AS n, AVG(sa.sentiment_score)
FROM feedback f
JOIN sentiment_analysis sa ON sa.feedback_id = f.id
WHERE f.ts >= ?
GROUP BY f.source
ORDER BY n DESC, f.source ASC`, formatTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []store.SourceStat{}
	for rows.Next() {
		var st store.SourceStat
		if err := rows.Scan(&st.Source, &st.Count, &st.AvgSentiment); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Cleanup deletes feedback older than before together with its results,
// runs that finished before it and daily metrics of earlier days.
func (s *sqliteStore) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	cutoff := formatTime(before)
	day := store.Day(before).Format(dayLayout)
	steps := []struct {
		query string
		arg   string
	}{
		{`DELETE FROM topic_analysis WHERE feedback_id IN (SELECT id FROM feedback WHERE ts < ?)`, cutoff},
		{`DELETE FROM sentiment_analysis WHERE feedback_id IN (SELECT id FROM feedback WHERE ts < ?)`, cutoff},
		{`DELETE FROM feedback WHERE ts < ?`, cutoff},
		{`DELETE FROM runs WHERE finished_at < ?`, cutoff},
		{`DELETE FROM topics WHERE created_at < ?`, cutoff},
		{`DELETE FROM satisfaction_metrics WHERE date_period < ?`, day},
	}

	var total int64
	for _, st := range steps {
		res, err := tx.ExecContext(ctx, st.query, st.arg)
		if err != nil {
			return 0, fmt.Errorf("cleanup: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

// Health implements store.Store.
func (s *sqliteStore) Health(ctx context.Context, now time.Time) store.Health {
	h := store.Health{Errors: []string{}}

	if err := s.db.PingContext(ctx); err != nil {
		h.Errors = append(h.Errors, err.Error())
		return h
	}
	h.Connection = true

	var n int
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM sqlite_master
WHERE type = 'table' AND name IN (?, ?, ?, ?, ?, ?)`,
		tables[0], tables[1], tables[2], tables[3], tables[4], tables[5]).Scan(&n)
	if err != nil {
		h.Errors = append(h.Errors, err.Error())
		return h
	}
	h.TablesExist = n == len(tables)

	var recent int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback WHERE ts >= ?`,
		formatTime(now.Add(-store.RecentWindow))).Scan(&recent)
	if err != nil {
		h.Errors = append(h.Errors, err.Error())
		return h
	}
	h.RecentData = recent > 0
	return h
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
