package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/comtw/admscrape/internal/config"
	"github.com/comtw/admscrape/internal/fetcher"
	applog "github.com/comtw/admscrape/internal/log"
	"github.com/comtw/admscrape/internal/telemetry"
)

// telemetryShutdownTimeout bounds the final span flush.
const telemetryShutdownTimeout = 5 * time.Second

// env holds what a command needs once flags and the config file are read.
type env struct {
	cfg       *config.Config
	logger    *slog.Logger
	closeLog  func() error
	telemetry *telemetry.Telemetry
}

// newEnv loads and validates the configuration selected by the persistent
// flags, builds the process logger and installs tracing. Callers must call
// close.
func newEnv(cmd *cobra.Command) (*env, error) {
	configPath, verbose := globalFlags(cmd)

	cfg, path, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	logger, closeLog, err := newLogger(cfg.Log, verbose, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	if path != "" {
		logger.Debug("configuration loaded", "path", path)
	}

	tel, err := newTelemetry(cmd.Context(), cfg.Telemetry, logger)
	if err != nil {
		_ = closeLog() //nolint:errcheck // the setup error matters more
		return nil, err
	}

	return &env{cfg: cfg, logger: logger, closeLog: closeLog, telemetry: tel}, nil
}

func (e *env) close() {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()
	if err := e.telemetry.Shutdown(ctx); err != nil {
		e.logger.Warn("failed to flush traces", "error", err)
	}
	if err := e.closeLog(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to close log file:", err)
	}
}

// newTelemetry installs the tracer provider selected by cfg.
func newTelemetry(ctx context.Context, cfg config.TelemetryConfig, logger *slog.Logger) (*telemetry.Telemetry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	tel, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:    config.AppName,
		ServiceVersion: getVersion(),
		Exporter:       cfg.Exporter,
		Endpoint:       cfg.Endpoint,
		Headers:        cfg.Headers,
	}, telemetry.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	return tel, nil
}

// globalFlags reads the persistent root flags. Commands executed on their
// own in tests have no root, so missing flags fall back to zero values.
func globalFlags(cmd *cobra.Command) (configPath string, verbose bool) {
	if f := cmd.Flag("config"); f != nil {
		configPath = f.Value.String()
	}
	if f := cmd.Flag("verbose"); f != nil {
		verbose = f.Value.String() == "true"
	}
	return configPath, verbose
}

// newLogger creates the secure process logger writing to stderr and, when
// configured, appending to a log file.
func newLogger(cfg config.LogConfig, verbose bool, stderr io.Writer) (*slog.Logger, func() error, error) {
	level, err := applog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}

	out := stderr
	closeLog := func() error { return nil }
	if cfg.File != "" {
		if dir := filepath.Dir(cfg.File); dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(stderr, f)
		closeLog = f.Close
	}

	logger := applog.NewSecureLogger(out, applog.Options{
		Level: level,
		JSON:  cfg.Format == "json",
	})
	return logger, closeLog, nil
}

// newFetcher builds the page fetcher with the FlareSolverr fallback.
func newFetcher(cfg *config.Config, logger *slog.Logger) (*fetcher.Fetcher, error) {
	cookies, err := cfg.Fetcher.SessionCookies()
	if err != nil {
		return nil, err
	}

	solver := fetcher.NewSolver(cfg.Solver.URL, cfg.Solver.MaxTimeout, logger)
	return fetcher.New(fetcher.Options{
		UserAgent:  cfg.Fetcher.UserAgent,
		Timeout:    cfg.Fetcher.Timeout,
		Retry:      cfg.Fetcher.Retry,
		RetryDelay: cfg.Fetcher.RetryDelay,
		Headers:    cfg.Fetcher.RequestHeaders(),
		Cookies:    cookies,
		RateLimit:  cfg.Fetcher.RateLimit,
	}, fetcher.WithLogger(logger), fetcher.WithSolver(solver)), nil
}

// withShutdown cancels the returned context on SIGINT or SIGTERM.
func withShutdown(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
