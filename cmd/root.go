package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cwbudde/psoswarm/internal/config"
)

var (
	logLevel   string
	logFormat  string
	configPath string
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "psoswarm",
	Short: "Particle swarm optimization over 2-D objectives",
	Long: `psoswarm minimizes a 2-D objective with a particle swarm, with
parameter sweeps, trace logs, PNG snapshots and an HTTP job server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// stdout carries command output; logs go to stderr
		logger = newLogger(cmd.ErrOrStderr(), logLevel, logFormat)
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Log format (json, text)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// loadConfig returns the --config file overlaid on the defaults, or the
// defaults alone when no file is given.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.Debug("Loaded config", "path", configPath)
	return cfg, nil
}
