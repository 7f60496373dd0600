package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/examcancel/internal/api"
	"github.com/dgallion1/examcancel/internal/config"
	"github.com/dgallion1/examcancel/internal/fonts"
	"github.com/dgallion1/examcancel/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if cfg.ConfigFile != "" {
		if err := cfg.ApplyFile(cfg.ConfigFile); err != nil {
			log.Error("invalid config file", "path", cfg.ConfigFile, "error", err)
			os.Exit(1)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Resolve the Unicode fonts once; every run shares them.
	fs := fonts.Resolve(cfg.RegularFonts, cfg.BoldFonts, cfg.RequiredRunes(), log)
	log.Info("fonts resolved",
		"regular", fs.Regular.Name,
		"bold", fs.Bold.Name,
		"builtin", fs.Regular.Builtin || fs.Bold.Builtin,
	)

	proc := pipeline.NewProcessor(cfg, fs, log)
	proc.Start(ctx)

	srv, err := api.NewServer(proc, log, cfg)
	if err != nil {
		log.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
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
		httpServer.Shutdown(shutdownCtx)

		proc.Stop()
	}()

	log.Info("starting examcancel",
		"port", cfg.Port,
		"max_upload_bytes", cfg.MaxUploadBytes,
		"max_concurrent_docs", cfg.MaxConcurrentDocs,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
