package main

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/marknutter/rlm/internal/archive"
	"github.com/marknutter/rlm/internal/config"
	"github.com/marknutter/rlm/internal/logging"
	"github.com/marknutter/rlm/internal/metrics"
	"github.com/marknutter/rlm/internal/oracle"
	"github.com/marknutter/rlm/internal/pipeline"
	"github.com/marknutter/rlm/internal/query"
	"github.com/marknutter/rlm/internal/store"
)

// app bundles the engine components every subcommand needs, built once
// in PersistentPreRunE and torn down in PersistentPostRunE.
type app struct {
	cfg         *config.Config
	logger      zerolog.Logger
	db          store.Storer
	pipeline    *pipeline.Pipeline
	surface     *query.Surface
	coordinator *archive.Coordinator
}

var (
	flagConfigPath string
	flagDBPath     string
	flagLogLevel   string
	flagLogFormat  string

	current *app
)

var rootCmd = &cobra.Command{
	Use:           "rlm",
	Short:         "Local-first episodic memory store for coding-agent sessions",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		overrides := map[string]any{}
		if flagDBPath != "" {
			overrides["db-path"] = flagDBPath
		}
		if flagLogLevel != "" {
			overrides["log-level"] = flagLogLevel
		}
		if flagLogFormat != "" {
			overrides["log-format"] = flagLogFormat
		}

		cfg, err := config.Load(flagConfigPath, overrides)
		if err != nil {
			return err
		}

		logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})

		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return err
		}
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}

		var tagger oracle.Tagger
		var summarizer oracle.Summarizer
		var extractor oracle.FactExtractor
		if cfg.OracleAPIKey != "" {
			primary := oracle.NewAnthropicOracle(cfg.OracleAPIKey, cfg.OracleModel, cfg.OracleRPS, logger)
			composite := oracle.NewComposite(primary, logger)
			tagger, summarizer, extractor = composite, composite, composite
		}

		pl := pipeline.New(db, tagger, summarizer, extractor, logger)

		current = &app{
			cfg:         cfg,
			logger:      logger,
			db:          db,
			pipeline:    pl,
			surface:     query.NewSurface(db),
			coordinator: archive.NewCoordinator(db, pl, logger),
		}

		if cfg.MetricsAddr != "" {
			go func() {
				if err := http.ListenAndServe(cfg.MetricsAddr, metrics.Handler()); err != nil {
					logger.Warn().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics listener stopped")
				}
			}()
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if current != nil && current.db != nil {
			return current.db.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to config.toml (default: ~/.rlm/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "database path (default: ~/.rlm/memory/memory.db)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(rememberCmd, recallCmd, memoryListCmd, memoryExtractCmd, memoryTagsCmd,
		forgetCmd, factsCmd, statsCmd, exportSessionCmd, hookCmd, toolServerCmd)
}

// boundedOutput bounds CLI stdout to spec.md §6.1's 4,000-character cap,
// distinct from export-session which is deliberately unbounded.
const cliMaxOutputChars = 4_000

func boundedOutput(s string) string {
	if len(s) <= cliMaxOutputChars {
		return s
	}
	omitted := len(s) - cliMaxOutputChars
	return s[:cliMaxOutputChars] + "\n... [output truncated, " + strconv.Itoa(omitted) + " more characters] ...\n"
}
