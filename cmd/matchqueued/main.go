// Command matchqueued runs the matchmaking queue service: an HTTP API to
// enqueue players and subscribe to match notifications, backed by an
// in-memory Coordinator.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoCodeAlone/matchqueue/cmd/matchqueued/transport"
	"github.com/GoCodeAlone/matchqueue/internal/config"
	"github.com/GoCodeAlone/matchqueue/internal/logging"
	"github.com/GoCodeAlone/matchqueue/internal/telemetry"
	"github.com/GoCodeAlone/matchqueue/pubsub"
	"github.com/GoCodeAlone/matchqueue/queue"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "matchqueued:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML or TOML config file")
	flag.Parse()

	feeders := []config.Feeder{config.NewEnvFeeder()}
	if *configPath != "" {
		feeders = append([]config.Feeder{config.FileFeeder{Path: *configPath}}, feeders...)
	}
	cfg, err := config.Load(feeders...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Logging)

	bus := pubsub.NewBus()
	defer bus.Close()

	coord := queue.NewCoordinator(queue.Config{
		Storage:         queue.NewMemStorage(nil),
		Policy:          queue.NewDeferredCapped(),
		PolicyOpts:      cfg.Queue.PolicyOpts(),
		TimeFn:          func() int64 { return time.Now().UnixMilli() },
		MaxMatchHistory: cfg.Queue.MaxMatchHistory,
		Publisher:       bus,
		Observer:        telemetry.NewLoggingObserver(logger),
		Logger:          logger,
	})
	defer coord.Stop("shutdown")

	var watcher *config.Watcher
	if *configPath != "" {
		watcher, err = config.NewWatcher(*configPath, coord, logger)
		if err != nil {
			logger.Warn("live config reload disabled", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	reporter, err := NewStatsReporter("@every 1m", coord, logger)
	if err != nil {
		return fmt.Errorf("start stats reporter: %w", err)
	}
	reporter.Start()
	defer reporter.Stop()

	router := transport.NewRouter(&transport.Handlers{
		Coordinator: coord,
		Bus:         bus,
		Logger:      logger,
	})

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLogger(cfg config.LoggingConfig) *logging.SlogLogger {
	level := parseLevel(cfg.Level)
	if cfg.Format == "json" {
		return logging.NewJSON(level)
	}
	return logging.New(level)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
