package config

import (
	"fmt"
	"io"
	"os"

	"github.com/cognicore/feedlens/pkg/feedlens/lexicon"
	"github.com/cognicore/feedlens/pkg/feedlens/logging"
	"github.com/cognicore/feedlens/pkg/feedlens/stoplist"
)

// Components holds the resources referenced by a Config.
type Components struct {
	Stops   *stoplist.Manager
	Lexicon *lexicon.Lexicon
}

// LoadComponents builds the stoplist and lexicon. Override files extend the
// built-in lists rather than replacing them.
func (c *Config) LoadComponents() (*Components, error) {
	comp := &Components{
		Stops:   stoplist.Default(),
		Lexicon: lexicon.Default(),
	}

	if c.Stoplist != "" {
		terms, err := stoplist.LoadYAML(c.Stoplist)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		for _, t := range terms {
			comp.Stops.Add(t)
		}
	}

	if c.Lexicon != "" {
		extra, err := lexicon.LoadFromYAML(c.Lexicon)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		comp.Lexicon.Merge(extra)
	}

	return comp, nil
}

// OpenLogger creates the configured logger. Output goes to stderr and, when
// Logging.File is set, to that file as well; the returned closer releases it.
func (c *Config) OpenLogger() (*logging.Logger, io.Closer, error) {
	level := logging.ParseLevel(c.Logging.Level)
	if c.Logging.File == "" {
		return logging.New(os.Stderr, level), io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(c.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.New(io.MultiWriter(os.Stderr, f), level), f, nil
}
