package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/cisaudit/internal/api"
	"github.com/dgallion1/cisaudit/internal/config"
	"github.com/dgallion1/cisaudit/internal/pipeline"
	"github.com/dgallion1/cisaudit/internal/session"
	"github.com/dgallion1/cisaudit/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage.
	db, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Error("open database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	st := store.New(db, cfg.DatabaseDriver)
	if err := st.Migrate(ctx); err != nil {
		log.Error("migrate database", "error", err)
		os.Exit(1)
	}

	// Initialize sessions.
	var (
		sessions session.Store
		cleaners []func()
		closeFn  = func() error { return nil }
	)
	if cfg.RedisURL != "" {
		rs, err := session.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			log.Error("connect redis", "error", err)
			os.Exit(1)
		}
		sessions, closeFn = rs, rs.Close
		log.Info("sessions in redis")
	} else {
		ms := session.NewMemoryStore(cfg.SessionTTL)
		sessions, cleaners = ms, []func(){ms.Cleanup}
		log.Info("sessions in memory")
	}
	svc := session.NewService(sessions, st, log)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, st, log, cleaners...)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, st, svc, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		closeFn()
		st.Close()
	}()

	log.Info("starting cisaudit", "port", cfg.Port, "database", cfg.DatabaseDriver)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
