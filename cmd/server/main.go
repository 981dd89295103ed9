package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/eventpulse/internal/api"
	"github.com/gyaneshwarpardhi/eventpulse/internal/config"
	"github.com/gyaneshwarpardhi/eventpulse/internal/engine"
	"github.com/gyaneshwarpardhi/eventpulse/internal/store"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/eventpulse.yaml", "Path to service YAML config")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}
	setLevel(level, cfg.Log.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Data source ──────────────────────────────────────────────────────────
	var src store.Source
	switch cfg.Source.Kind {
	case config.SourcePostgres:
		pool, err := store.OpenPool(ctx, cfg.Source.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		src = store.NewPostgresSource(pool, cfg.Source.OrgID)
	default:
		src = store.NewCSVSource(cfg.Source.DataDir, cfg.Source.OrgID)
	}

	st := store.New(src)
	if _, err := st.Refresh(ctx); err != nil {
		// Serve anyway; /readyz reports 503 until a refresh succeeds.
		slog.Warn("initial snapshot load failed", "source", src.Name(), "err", err)
	}
	go st.Run(ctx, func() time.Duration { return loader.Config().Source.RefreshInterval() })

	// ── Engine ────────────────────────────────────────────────────────────────
	eng := engine.New(ctx, st, cfg.Engine)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.ServiceConfig) {
		setLevel(level, newCfg.Log.Level)
		eng.SetConf(newCfg.Engine)
		if newCfg.Source != cfg.Source {
			slog.Warn("source settings changed; refresh interval applies now, other fields need a restart")
		}
		slog.Info("config hot-reloaded", "version", newCfg.Version)
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(eng, st, loader)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr, "source", src.Name(), "org_id", cfg.Source.OrgID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop refresh loop and worker pool
	eng.Shutdown()
	slog.Info("goodbye")
}

func setLevel(v *slog.LevelVar, name string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		slog.Warn("unknown log level, keeping current", "level", name)
		return
	}
	v.Set(l)
}
