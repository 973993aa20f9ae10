package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/feedlens/pkg/feedlens"
	"github.com/cognicore/feedlens/pkg/feedlens/config"
	"github.com/cognicore/feedlens/pkg/feedlens/logging"
	"github.com/cognicore/feedlens/pkg/feedlens/notify"
	"github.com/cognicore/feedlens/pkg/feedlens/store"
	"github.com/cognicore/feedlens/pkg/feedlens/store/memstore"
	"github.com/cognicore/feedlens/pkg/feedlens/store/sqlite"
)

var version = "dev"

// app holds what the subcommands share. It is filled by the root command's
// PersistentPreRunE.
type app struct {
	configPath string
	envFile    string
	dbPath     string
	memory     bool
	logLevel   string

	cfg       *config.Config
	log       *logging.Logger
	logCloser io.Closer
	st        store.Store
}

// run executes the command line and releases the store and log file
// afterwards, whether or not the command failed.
func run(args []string, stdout, stderr io.Writer) error {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "feedlens",
		Short:        "Customer feedback sentiment and topic analysis",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.configPath, "config", "c", "", "config file (.yaml, .yml or .toml)")
	f.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before environment overrides")
	f.StringVar(&a.dbPath, "db", "", "SQLite database path (overrides database.path)")
	f.BoolVar(&a.memory, "memory", false, "keep results in memory instead of SQLite")
	f.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides logging.level)")

	root.AddCommand(
		newAnalyzeCmd(a),
		newSentimentCmd(a),
		newTopicsCmd(a),
		newWatchCmd(a),
		newReportCmd(a),
		newMaintenanceCmd(a),
		newHealthCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup() error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = a.dbPath
	}
	if a.memory {
		cfg.Database.Driver = "memory"
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}

	log, closer, err := cfg.OpenLogger()
	if err != nil {
		return err
	}
	a.cfg, a.log, a.logCloser = cfg, log, closer
	return nil
}

func (a *app) close() error {
	var err error
	if a.st != nil {
		err = a.st.Close()
		a.st = nil
	}
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
	return err
}

// store opens the configured store once per command.
func (a *app) store(ctx context.Context) (store.Store, error) {
	if a.st != nil {
		return a.st, nil
	}
	switch a.cfg.Database.Driver {
	case "memory":
		a.st = memstore.New()
	default:
		if dir := filepath.Dir(a.cfg.Database.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		st, err := sqlite.OpenSQLite(ctx, a.cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		a.st = st
	}
	return a.st, nil
}

func (a *app) notifier() (notify.Notifier, error) {
	n := a.cfg.Notifications
	if !n.Enabled {
		return notify.Nop{}, nil
	}
	return notify.NewWebhook(n.WebhookURL, notify.WebhookOptions{
		RatePerMinute: n.RatePerMinute,
		Timeout:       time.Duration(n.TimeoutSec) * time.Second,
		Logger:        a.log,
	})
}

// engine builds an engine, with the store attached when persist is set.
func (a *app) engine(ctx context.Context, persist bool) (*feedlens.Engine, error) {
	var st store.Store
	if persist {
		var err error
		if st, err = a.store(ctx); err != nil {
			return nil, err
		}
	}
	n, err := a.notifier()
	if err != nil {
		return nil, err
	}
	return feedlens.NewFromConfig(a.cfg, st, n, a.log)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("feedlens version %s\n", version)
		},
	}
}
