package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/cognicore/feedlens/pkg/feedlens/internalerr"
)

// EnvPrefix starts every environment override, followed by the upper-cased
// section and key, e.g. FEEDBACK_ANALYSIS_SENTIMENT_ANALYSIS_VADER_WEIGHT.
const EnvPrefix = "FEEDBACK_ANALYSIS_"

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

type binding struct {
	name string
	set  func(c *Config, v string) error
}

func str(f func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*f(c) = v
		return nil
	}
}

func integer(f func(c *Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*f(c) = n
		return nil
	}
}

func float(f func(c *Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*f(c) = x
		return nil
	}
}

func boolean(f func(c *Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*f(c) = b
		return nil
	}
}

var bindings = []binding{
	{"DATABASE_DRIVER", str(func(c *Config) *string { return &c.Database.Driver })},
	{"DATABASE_PATH", str(func(c *Config) *string { return &c.Database.Path })},
	{"PROCESSING_BATCH_SIZE", integer(func(c *Config) *int { return &c.Processing.BatchSize })},
	{"SENTIMENT_ANALYSIS_VADER_WEIGHT", float(func(c *Config) *float64 { return &c.Sentiment.VaderWeight })},
	{"SENTIMENT_ANALYSIS_TEXTBLOB_WEIGHT", float(func(c *Config) *float64 { return &c.Sentiment.TextBlobWeight })},
	{"SENTIMENT_ANALYSIS_BATCH_SIZE", integer(func(c *Config) *int { return &c.Sentiment.BatchSize })},
	{"SENTIMENT_ANALYSIS_WORKERS", integer(func(c *Config) *int { return &c.Sentiment.Workers })},
	{"SENTIMENT_ANALYSIS_POLARITY_ESTIMATOR", str(func(c *Config) *string { return &c.Sentiment.PolarityEstimator })},
	{"TOPIC_EXTRACTION_METHOD", str(func(c *Config) *string { return &c.Topics.Method })},
	{"TOPIC_EXTRACTION_MAX_FEATURES", integer(func(c *Config) *int { return &c.Topics.MaxFeatures })},
	{"TOPIC_EXTRACTION_MIN_DF", integer(func(c *Config) *int { return &c.Topics.MinDF })},
	{"TOPIC_EXTRACTION_MAX_DF", float(func(c *Config) *float64 { return &c.Topics.MaxDF })},
	{"TOPIC_EXTRACTION_NGRAM_RANGE", setNGramRange},
	{"TOPIC_EXTRACTION_N_TOPICS", integer(func(c *Config) *int { return &c.Topics.NTopics })},
	{"TOPIC_EXTRACTION_SEED", setSeed},
	{"TOPIC_EXTRACTION_N_INIT", integer(func(c *Config) *int { return &c.Topics.NInit })},
	{"TOPIC_EXTRACTION_MAX_ITER", integer(func(c *Config) *int { return &c.Topics.MaxIter })},
	{"LOGGING_LEVEL", str(func(c *Config) *string { return &c.Logging.Level })},
	{"LOGGING_FILE", str(func(c *Config) *string { return &c.Logging.File })},
	{"NOTIFICATIONS_ENABLED", boolean(func(c *Config) *bool { return &c.Notifications.Enabled })},
	{"NOTIFICATIONS_WEBHOOK_URL", str(func(c *Config) *string { return &c.Notifications.WebhookURL })},
	{"NOTIFICATIONS_RATE_PER_MINUTE", integer(func(c *Config) *int { return &c.Notifications.RatePerMinute })},
	{"NOTIFICATIONS_TIMEOUT_SECONDS", integer(func(c *Config) *int { return &c.Notifications.TimeoutSec })},
	{"MAINTENANCE_DAYS_TO_KEEP", integer(func(c *Config) *int { return &c.Maintenance.DaysToKeep })},
	{"LLM_BASE_URL", str(func(c *Config) *string { return &c.LLM.BaseURL })},
	{"LLM_API_KEY", str(func(c *Config) *string { return &c.LLM.APIKey })},
	{"LLM_MODEL", str(func(c *Config) *string { return &c.LLM.Model })},
	{"LLM_TIMEOUT_SECONDS", integer(func(c *Config) *int { return &c.LLM.TimeoutSec })},
	{"LLM_RATE_PER_MINUTE", integer(func(c *Config) *int { return &c.LLM.RatePerMinute })},
	{"LEXICON", str(func(c *Config) *string { return &c.Lexicon })},
	{"STOPLIST", str(func(c *Config) *string { return &c.Stoplist })},
}

// setNGramRange accepts "1,2" or "1-2".
func setNGramRange(c *Config, v string) error {
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '-' || r == ' ' })
	if len(parts) != 2 {
		return fmt.Errorf("want two values, got %q", v)
	}
	lo, err := strconv.Atoi(parts[0])
	if err != nil {
		return err
	}
	hi, err := strconv.Atoi(parts[1])
	if err != nil {
		return err
	}
	c.Topics.NGramRange = []int{lo, hi}
	return nil
}

func setSeed(c *Config, v string) error {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return err
	}
	c.Topics.Seed = n
	return nil
}

// ApplyEnv applies FEEDBACK_ANALYSIS_* entries from environ (KEY=VALUE
// pairs, as returned by os.Environ). Unknown keys are ignored.
func (c *Config) ApplyEnv(environ []string) error {
	env := make(map[string]string)
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, EnvPrefix) {
			continue
		}
		env[strings.TrimPrefix(k, EnvPrefix)] = strings.TrimSpace(v)
	}

	for _, b := range bindings {
		v, ok := env[b.name]
		if !ok {
			continue
		}
		if err := b.set(c, v); err != nil {
			return fmt.Errorf("%s%s: %v: %w", EnvPrefix, b.name, err, internalerr.ErrInvalidConfig)
		}
	}
	return nil
}
