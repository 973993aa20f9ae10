// Package config loads feedlens settings from YAML or TOML files, a .env file
// and FEEDBACK_ANALYSIS_* environment variables.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/feedlens/pkg/feedlens/internalerr"
	"github.com/cognicore/feedlens/pkg/feedlens/topics"
)

// Config is the full application configuration.
type Config struct {
	Database      Database      `yaml:"database" toml:"database"`
	Processing    Processing    `yaml:"processing" toml:"processing"`
	Sentiment     Sentiment     `yaml:"sentiment_analysis" toml:"sentiment_analysis"`
	Topics        Topics        `yaml:"topic_extraction" toml:"topic_extraction"`
	Logging       Logging       `yaml:"logging" toml:"logging"`
	Notifications Notifications `yaml:"notifications" toml:"notifications"`
	Maintenance   Maintenance   `yaml:"maintenance" toml:"maintenance"`
	LLM           LLM           `yaml:"llm" toml:"llm"`
	// Lexicon is an optional YAML file merged over the built-in lexicon.
	Lexicon string `yaml:"lexicon" toml:"lexicon"`
	// Stoplist is an optional YAML file of extra topic stopwords.
	Stoplist string `yaml:"stoplist" toml:"stoplist"`
}

// Database selects the result store.
type Database struct {
	// Driver is "sqlite" or "memory".
	Driver string `yaml:"driver" toml:"driver"`
	Path   string `yaml:"path" toml:"path"`
}

type Processing struct {
	BatchSize int `yaml:"batch_size" toml:"batch_size"`
}

// Sentiment keeps the historical weight key names of the two estimators.
type Sentiment struct {
	VaderWeight    float64 `yaml:"vader_weight" toml:"vader_weight"`
	TextBlobWeight float64 `yaml:"textblob_weight" toml:"textblob_weight"`
	BatchSize      int     `yaml:"batch_size" toml:"batch_size"`
	Workers        int     `yaml:"workers" toml:"workers"`
	// PolarityEstimator is "pattern" (adjective lexicon) or "llm".
	PolarityEstimator string `yaml:"polarity_estimator" toml:"polarity_estimator"`
}

type Topics struct {
	Method      string  `yaml:"method" toml:"method"`
	MaxFeatures int     `yaml:"max_features" toml:"max_features"`
	MinDF       int     `yaml:"min_df" toml:"min_df"`
	MaxDF       float64 `yaml:"max_df" toml:"max_df"`
	NGramRange  []int   `yaml:"ngram_range" toml:"ngram_range"`
	NTopics     int     `yaml:"n_topics" toml:"n_topics"`
	Seed        uint64  `yaml:"seed" toml:"seed"`
	NInit       int     `yaml:"n_init" toml:"n_init"`
	MaxIter     int     `yaml:"max_iter" toml:"max_iter"`
}

type Logging struct {
	Level string `yaml:"level" toml:"level"`
	// File receives log output in addition to stderr when set.
	File string `yaml:"file" toml:"file"`
}

type Notifications struct {
	Enabled       bool   `yaml:"enabled" toml:"enabled"`
	WebhookURL    string `yaml:"webhook_url" toml:"webhook_url"`
	RatePerMinute int    `yaml:"rate_per_minute" toml:"rate_per_minute"`
	TimeoutSec    int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
}

type Maintenance struct {
	DaysToKeep int `yaml:"days_to_keep" toml:"days_to_keep"`
}

// LLM configures the chat-completion endpoint used by the "llm" polarity
// estimator.
type LLM struct {
	BaseURL       string `yaml:"base_url" toml:"base_url"`
	APIKey        string `yaml:"api_key" toml:"api_key"`
	Model         string `yaml:"model" toml:"model"`
	TimeoutSec    int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
	RatePerMinute int    `yaml:"rate_per_minute" toml:"rate_per_minute"`
}

// Polarity estimators.
const (
	EstimatorPattern = "pattern"
	EstimatorLLM     = "llm"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Database:   Database{Driver: "sqlite", Path: filepath.Join("data", "feedback.db")},
		Processing: Processing{BatchSize: 1000},
		Sentiment: Sentiment{
			VaderWeight:    0.6,
			TextBlobWeight: 0.4,
			BatchSize:         1000,
			Workers:           1,
			PolarityEstimator: EstimatorPattern,
		},
		Topics: Topics{
			Method:      string(topics.MethodKMeans),
			MaxFeatures: topics.DefaultMaxFeatures,
			MinDF:       topics.DefaultMinDF,
			MaxDF:       topics.DefaultMaxDF,
			NGramRange:  []int{topics.DefaultNGramMin, topics.DefaultNGramMax},
			NTopics:     topics.DefaultTopics,
			Seed:        topics.DefaultSeed,
			NInit:       topics.DefaultNInit,
			MaxIter:     topics.DefaultMaxIter,
		},
		Logging:       Logging{Level: "info"},
		Notifications: Notifications{RatePerMinute: 6, TimeoutSec: 10},
		Maintenance:   Maintenance{DaysToKeep: 365},
		LLM:           LLM{TimeoutSec: 15},
	}
}

// Load reads path over the defaults, then applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.ReadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.Environ()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadFile overlays the values present in a YAML (.yaml, .yml) or TOML
// (.toml) file. Keys missing from the file keep their current values.
func (c *Config) ReadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, c)
	default:
		return fmt.Errorf("config %s: unsupported format %q: %w", path, ext, internalerr.ErrInvalidConfig)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %v: %w", path, err, internalerr.ErrInvalidConfig)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var problems []string
	bad := func(format string, v ...any) {
		problems = append(problems, fmt.Sprintf(format, v...))
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			bad("database.path is required for the sqlite driver")
		}
	case "memory":
	default:
		bad("database.driver must be sqlite or memory, got %q", c.Database.Driver)
	}

	if c.Processing.BatchSize <= 0 {
		bad("processing.batch_size must be a positive integer")
	}

	if c.Sentiment.BatchSize <= 0 {
		bad("sentiment_analysis.batch_size must be a positive integer")
	}
	if c.Sentiment.Workers < 0 {
		bad("sentiment_analysis.workers must not be negative")
	}
	if math.Abs(c.Sentiment.VaderWeight+c.Sentiment.TextBlobWeight-1) > 0.01 {
		bad("vader_weight and textblob_weight must sum to 1.0")
	}
	switch c.Sentiment.PolarityEstimator {
	case EstimatorPattern, "":
	case EstimatorLLM:
		if c.LLM.BaseURL == "" || c.LLM.Model == "" {
			bad("llm.base_url and llm.model are required for the llm polarity estimator")
		}
	default:
		bad("sentiment_analysis.polarity_estimator must be pattern or llm, got %q", c.Sentiment.PolarityEstimator)
	}
	if c.LLM.RatePerMinute < 0 {
		bad("llm.rate_per_minute must not be negative")
	}

	t := c.Topics
	if _, err := topics.ParseMethod(t.Method); err != nil {
		bad("topic_extraction.method must be kmeans or lda, got %q", t.Method)
	}
	if t.NTopics < 1 {
		bad("topic_extraction.n_topics must be at least 1")
	}
	if t.MaxFeatures < 1 {
		bad("topic_extraction.max_features must be at least 1")
	}
	if t.MinDF < 1 {
		bad("topic_extraction.min_df must be at least 1")
	}
	if t.MaxDF <= 0 || t.MaxDF > 1 {
		bad("topic_extraction.max_df must be in (0, 1]")
	}
	if len(t.NGramRange) != 2 || t.NGramRange[0] < 1 || t.NGramRange[1] < t.NGramRange[0] {
		bad("topic_extraction.ngram_range must be [min, max] with 1 <= min <= max")
	}
	if t.NInit < 0 || t.MaxIter < 0 {
		bad("topic_extraction.n_init and max_iter must not be negative")
	}

	if c.Notifications.Enabled && c.Notifications.WebhookURL == "" {
		bad("notifications.webhook_url is required when notifications are enabled")
	}
	if c.Notifications.RatePerMinute < 0 {
		bad("notifications.rate_per_minute must not be negative")
	}

	if c.Maintenance.DaysToKeep < 1 {
		bad("maintenance.days_to_keep must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(problems, "; "), internalerr.ErrInvalidConfig)
	}
	return nil
}

// TopicOptions converts the topic section into extractor options.
func (c *Config) TopicOptions() topics.Options {
	opts := topics.DefaultOptions()
	if m, err := topics.ParseMethod(c.Topics.Method); err == nil {
		opts.Method = m
	}
	opts.MaxFeatures = c.Topics.MaxFeatures
	opts.MinDF = c.Topics.MinDF
	opts.MaxDF = c.Topics.MaxDF
	if len(c.Topics.NGramRange) == 2 {
		opts.NGramMin = c.Topics.NGramRange[0]
		opts.NGramMax = c.Topics.NGramRange[1]
	}
	opts.Seed = c.Topics.Seed
	if c.Topics.NInit > 0 {
		opts.NInit = c.Topics.NInit
	}
	if c.Topics.MaxIter > 0 {
		opts.MaxIter = c.Topics.MaxIter
	}
	return opts
}
