package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ivlev/reelforge/internal/app"
	"github.com/ivlev/reelforge/internal/config"
	"github.com/ivlev/reelforge/internal/httpapi"
	"github.com/ivlev/reelforge/internal/httpapi/handlers"
	"github.com/ivlev/reelforge/internal/pkg/logger"
	"github.com/ivlev/reelforge/internal/renderlog"
	"github.com/ivlev/reelforge/internal/scriptgen"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	configPtr := flag.String("config", "", "YAML config file")
	addrPtr := flag.String("addr", "", "Listen address (default from config: :8080)")
	dryRunPtr := flag.Bool("dry-run", false, "Render to Motion-JPEG in memory; no ffmpeg needed")
	offlinePtr := flag.Bool("offline", false, "Render on a virtual clock instead of in real time")
	flag.Parse()

	logCfg := logger.DefaultConfig()
	logCfg.ServiceName = "reelforged"
	log := logger.New(logCfg)

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.LogFatal("failed to load config", err)
	}
	cfg.ApplyEnv()
	cfg.BuildVersion = version
	if *addrPtr != "" {
		cfg.Server.Addr = *addrPtr
	}
	if err := cfg.Validate(); err != nil {
		log.LogFatal("invalid config", err)
	}

	pipeline, err := app.NewPipeline(cfg, *dryRunPtr, *offlinePtr, log)
	if err != nil {
		log.LogFatal("failed to build render pipeline", err)
	}
	client := scriptgen.NewClient(cfg.LLM)

	router := httpapi.NewRouter(handlers.Deps{
		Generator:     scriptgen.NewGenerator(client, log),
		Optimizer:     scriptgen.NewOptimizer(client, log),
		Fetcher:       app.NewFetcher(cfg, log),
		Renderer:      pipeline,
		RenderLog:     renderlog.Open(cfg.Paths.RenderLog),
		OutputDir:     cfg.Paths.Output,
		Width:         cfg.Video.Width,
		Height:        cfg.Video.Height,
		RenderTimeout: cfg.Server.RenderTimeout,
		Encoder:       pipeline.Options.Format.Encoder,
		Version:       version,
		Log:           log,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Server.RenderTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr, "version", version, "llm", client.Online())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info("shutdown signal received")

	// In-flight renders get their full timeout to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.RenderTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
