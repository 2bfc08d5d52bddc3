package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"vlanislands/internal/assistant"
	"vlanislands/internal/config"
	"vlanislands/internal/graph"
	"vlanislands/internal/metrics"
	"vlanislands/internal/repository/sqlite"
	"vlanislands/internal/service"
)

var (
	cfgPath  string
	dbPath   string
	logLevel string
	cfg      *config.Config
	logger   *slog.Logger
)

// exitError carries a process exit code without printing an error
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

var rootCmd = &cobra.Command{
	Use:   "vlanislands",
	Short: "Detect VLAN islands in a network topology",
	Long: `vlanislands reads a topology of devices, physical links and VLAN
memberships, and reports every VLAN whose members do not form a single
connected segment over the physical links. Results can be stored as runs,
served over HTTP and MCP, and discussed with an OpenAI-compatible assistant.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var (
			path string
			err  error
		)
		if cfgPath != "" {
			cfg, path, err = config.LoadFromPath(cfgPath)
		} else {
			cfg, path, err = config.Load()
		}
		if err != nil {
			return err
		}

		if dbPath != "" {
			cfg.Database.Path = dbPath
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}

		logger = newLogger(cmd.ErrOrStderr(), cfg.Log)
		slog.SetDefault(logger)
		if path != "" {
			logger.Debug("config loaded", "path", path)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (default: search "+config.EnvConfigPath+", ./"+config.ConfigFileName+", XDG dirs)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "run database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openRepo opens the configured run database
func openRepo() (*sqlite.Repository, error) {
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening run database %s: %w", cfg.Database.Path, err)
	}
	return repo, nil
}

// newAnalysisService builds the analysis service from config. repo may be nil.
func newAnalysisService(repo *sqlite.Repository, bus *service.EventBus, reg *metrics.Registry) (*service.AnalysisService, error) {
	opts := service.AnalysisOptions{
		Policy:  cfg.EffectivePolicy(),
		Workers: cfg.Detection.Workers,
		Graph:   graph.Options{ExcludeLinkStatuses: cfg.Graph.ExcludeLinkStatuses},
		Metrics: reg,
		Logger:  logger,
	}
	if repo == nil {
		return service.NewAnalysisService(nil, bus, opts)
	}
	return service.NewAnalysisService(repo, bus, opts)
}

// newBridge builds the assistant bridge from config
func newBridge() (*assistant.OpenAIBridge, error) {
	ac := cfg.Assistant
	return assistant.NewOpenAIBridge(assistant.Config{
		BaseURL:         ac.BaseURL,
		APIType:         ac.APIType,
		APIVersion:      ac.APIVersion,
		Model:           ac.Model,
		APIKey:          cfg.APIKey(),
		MaxTokens:       ac.MaxTokens,
		Temperature:     ac.Temperature,
		Timeout:         ac.Timeout.Duration(),
		MaxHistoryTurns: ac.MaxHistoryTurns,
		Logger:          logger,
	})
}

// readInput reads a file, or stdin for "-"
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// openOutput returns stdout or a created file, and a close func
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, f.Close, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
