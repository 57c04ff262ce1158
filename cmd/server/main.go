package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/texchunk/internal/api"
	"github.com/dgallion1/texchunk/internal/config"
	"github.com/dgallion1/texchunk/internal/extract"
	"github.com/dgallion1/texchunk/internal/pipeline"
	"github.com/dgallion1/texchunk/internal/registry"
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

	stats := extract.NewExtractStats(cfg.ExtractStatsWindow)
	importer := pipeline.NewImporter(extract.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}, stats, log)
	session := registry.NewSession()

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, importer, session, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, session, stats, log, cfg)

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

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown", "error", err)
		}

		orch.Stop()
	}()

	log.Info("starting texchunk", "port", cfg.Port, "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
