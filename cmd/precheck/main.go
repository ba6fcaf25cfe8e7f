// Package main provides the precheck binary entry point.
// Precheck validates a project's layout conventions before a build or
// commit proceeds: required structure, flow-class shapes, the demo entry
// point, import boundaries, documentation sections, and file sizes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eksmo-labs/precheck/config"
	"github.com/eksmo-labs/precheck/runner"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "precheck"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath  string
		rootPath    string
		logLevel    string
		collectAll  bool
		watch       bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "precheck",
		Short: "Project convention validator",
		Long: `Precheck validates a project's layout conventions before a build or
commit proceeds.

It checks:
- required directories and files exist
- flow modules follow the one-class-per-file naming convention
- flow classes expose an async classmethod run(*, total_usage=...)
- the demo module defines and invokes an async zero-argument main()
- the restricted package imports only allow-listed local modules
- the README contains the required sections
- no Python file exceeds the line ceiling

The first violation stops the run and exits 1; --all reports every
violation instead.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), runOptions{
				configPath:  configPath,
				rootPath:    rootPath,
				logLevel:    logLevel,
				collectAll:  collectAll,
				watch:       watch,
				metricsAddr: metricsAddr,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&rootPath, "root", ".", "Project root to validate")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&collectAll, "all", false, "Run every check and report all violations")
	cmd.Flags().BoolVar(&watch, "watch", false, "Stay resident and re-run on file changes")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (watch mode)")

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

type runOptions struct {
	configPath  string
	rootPath    string
	logLevel    string
	collectAll  bool
	watch       bool
	metricsAddr string
}

func run(ctx context.Context, opts runOptions) error {
	// Configure logging
	level := slog.LevelWarn
	switch strings.ToLower(opts.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Resolve project root
	absRoot, err := filepath.Abs(opts.rootPath)
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return fmt.Errorf("stat project root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", absRoot)
	}

	// Load configuration
	cfg, err := loadConfig(opts.configPath, absRoot, logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Repo.Path = absRoot

	logger.Info("Precheck ready",
		"version", Version,
		"root", absRoot,
		"collect_all", opts.collectAll)

	runnerOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithCollectAll(opts.collectAll),
	}

	var metrics *runner.Metrics
	if opts.metricsAddr != "" {
		metrics = runner.NewMetrics()
		runnerOpts = append(runnerOpts, runner.WithMetrics(metrics))
	}

	r := runner.New(cfg, runnerOpts...)

	if opts.watch {
		return runWatch(ctx, r, cfg, metrics, opts.metricsAddr, logger)
	}

	report, err := r.Run(ctx)
	if err != nil {
		return err
	}
	if !report.Passed {
		os.Exit(1)
	}
	return nil
}

// runWatch runs the suite once, then re-runs it whenever relevant files
// change, until interrupted. Watch mode never exits non-zero on
// violations; the console and metrics carry the outcome.
func runWatch(ctx context.Context, r *runner.Runner, cfg *config.Config, metrics *runner.Metrics, metricsAddr string, logger *slog.Logger) error {
	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if metrics != nil {
		go func() {
			if err := metrics.Serve(signalCtx, metricsAddr, logger); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	watcher, err := runner.NewWatcher(runner.WatcherConfig{
		Root:     cfg.Repo.Path,
		SkipDirs: cfg.Limits.SkipDirs,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Start(signalCtx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer func() { _ = watcher.Stop() }()

	if _, err := r.Run(signalCtx); err != nil {
		logger.Error("Validation run failed", "error", err)
	}

	for {
		select {
		case <-signalCtx.Done():
			logger.Info("Precheck watch stopped")
			return nil

		case changed, ok := <-watcher.Triggers():
			if !ok {
				return nil
			}
			logger.Info("Files changed, re-running checks", "changed", changed)
			if _, err := r.Run(signalCtx); err != nil {
				logger.Error("Validation run failed", "error", err)
			}
		}
	}
}

func loadConfig(configPath, rootPath string, logger *slog.Logger) (*config.Config, error) {
	if configPath != "" {
		cfg := config.DefaultConfig()
		fileCfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg.Merge(fileCfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	return config.NewLoader(logger).Load(rootPath)
}
