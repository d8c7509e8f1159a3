package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"midway/src/internal/app"
	"midway/src/internal/config"
	"midway/src/internal/core"
	"midway/src/internal/dispatch"
	"midway/src/internal/logger"
	"midway/src/internal/middleware"
	"midway/src/internal/pool"
	"midway/src/internal/server"
	"midway/src/internal/sink"
	"midway/src/internal/version"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			fmt.Println(version.String())
			os.Exit(0)
		}
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("midway starting", map[string]any{
		"version": version.Short(),
		"host":    cfg.Server.Host,
		"port":    cfg.Server.Port,
	})

	a := app.New(app.Options{
		Logger:      log,
		PoolMaxSize: int(cfg.Pool.MaxSize),
	})

	a.Use(middleware.Recover())
	a.Use(middleware.RequestID(""))
	a.Use(middleware.AccessLog())
	a.Use(healthz(a))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.New(a, cfg.Server, log)
	if err := srv.Start(ctx); err != nil {
		log.Fatal("server failed to start", map[string]any{"error": err.Error()})
		a.Shutdown()
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutdown signal received", nil)
	srv.Shutdown()

	// Drain buffered log entries before exit
	if err := a.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Log drain error: %v\n", err)
	}
}

func buildLogger(cfg *config.Config) (*logger.Logger, error) {
	root, err := sink.Build(&cfg.Logging)
	if err != nil {
		return nil, err
	}

	level, err := core.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	return logger.New(logger.Options{
		Enabled: cfg.Logging.Enabled,
		Level:   level,
		Name:    cfg.Logging.Name,
		Sink:    root,
	}), nil
}

// healthz is the terminal handler of the default chain: it answers the
// health endpoint and lets everything else fall through to the engine's 404.
func healthz(a *app.App) dispatch.Middleware {
	return func(ctx *pool.Context, next dispatch.Next) error {
		if ctx.Method() != http.MethodGet || ctx.Path() != "/healthz" {
			return next()
		}

		stats := a.PoolStats()
		body, err := json.Marshal(map[string]any{
			"status":    "ok",
			"pool_size": stats.PoolSize,
			"created":   stats.Created,
			"max_size":  stats.MaxSize,
		})
		if err != nil {
			return err
		}

		ctx.SetHeader("Content-Type", "application/json")
		ctx.SetStatus(http.StatusOK)
		ctx.SetBody(body)
		return nil
	}
}
