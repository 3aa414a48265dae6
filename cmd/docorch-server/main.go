// Command docorch-server runs the Document Constraint & Generation
// Orchestrator's HTTP API: the admission query endpoint and the plan
// submission/streaming endpoint of spec.md §6, backed by the in-process
// constraint catalog, admission evaluator, plan validator, and plan
// executor.
//
// Optional environment variables (see internal/config for the full list):
//
//	DOCORCH_TRANSPORT_PORT             - HTTP listen port (default: 8420)
//	DOCORCH_TRANSPORT_HOST             - HTTP listen address (default: 0.0.0.0)
//	DOCORCH_CORS_ORIGINS               - comma-separated allowed origins (default: *)
//	DOCORCH_ADMISSION_MODE             - STRICT | GUIDED | PERMISSIVE (default: GUIDED)
//	DOCORCH_LOG_LEVEL                  - debug, info, warn, error (default: info)
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bacopilot/docorch/internal/admission"
	"github.com/bacopilot/docorch/internal/catalog"
	"github.com/bacopilot/docorch/internal/config"
	"github.com/bacopilot/docorch/internal/executor"
	"github.com/bacopilot/docorch/internal/generator"
	"github.com/bacopilot/docorch/internal/httpapi"
	"github.com/bacopilot/docorch/internal/plan"
	"github.com/bacopilot/docorch/internal/project"
	"github.com/bacopilot/docorch/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "docorch-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("DOCORCH_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	logger.Info("starting docorch-server", "version", cfg.Server.Version)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cat := catalog.Default()

	store := project.NewMemStore()
	inspector := project.NewInspector(store, cat)
	evaluator := admission.NewEvaluator(cat, inspector)
	validator := plan.NewValidator(evaluator)

	// The real model/prompting layer is out of scope for this repo
	// (spec.md §1); MockGenerator is the reference Generator until one is
	// wired in, same as it is for tests and planctl.
	gen := generator.NewCircuitBreaking("docorch-generator", generator.NewMockGenerator())

	registry := executor.NewRegistry(15 * time.Minute)
	sched := scheduler.New(logger)
	sched.Add(executor.NewReaperJob(registry), 5*time.Minute, false)
	sched.Start(ctx)

	var redisClient *redis.Client
	if cfg.Transport.ChannelBackend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	srv := httpapi.NewServer(evaluator, validator, gen, registry, logger, httpapi.Options{
		DefaultMode:    admission.Mode(cfg.Admission.Mode),
		AllowOverride:  cfg.Admission.AllowOverride,
		ChannelBackend: cfg.Transport.ChannelBackend,
		RedisClient:    redisClient,
	})

	corsOrigins := strings.Split(cfg.Transport.CORSOrigins, ",")

	httpServer := &http.Server{
		Addr:         cfg.Transport.Host + ":" + cfg.Transport.Port,
		Handler:      srv.Router(corsOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the streaming endpoint holds connections open for the life of a plan run
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		sched.Stop()
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
