package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crewsync-service/internal/app"
	"crewsync-service/internal/infrastructure/config"
	"crewsync-service/internal/usecase"
	"crewsync-service/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger().Fatal("Failed to load config", "error", err)
	}

	log := logger.NewLoggerWithLevel(cfg.LogLevel)
	log.Info("Starting CrewSync Service", "version", cfg.AppVersion, "liveSync", cfg.LiveSyncEnabled)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize service", "error", err)
	}

	// Periodic sync passes
	scheduler := usecase.NewScheduler(a.Clock, cfg.TaskTimeout, log.With("component", "scheduler"))
	for _, task := range usecase.SyncTasks(a.Orchestrator, a.Quality, a.Intervals()) {
		scheduler.Add(task)
	}
	scheduler.Start(ctx)

	// Export mailbox fallback
	var background sync.WaitGroup
	mailbox, err := a.Mailbox(ctx)
	if err != nil {
		log.Fatal("Failed to create export mailbox poller", "error", err)
	}
	if mailbox != nil {
		background.Add(1)
		go func() {
			defer background.Done()
			mailbox.StartPolling(ctx)
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"mode":    string(a.Orchestrator.Mode()),
			"version": cfg.AppVersion,
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel()
	scheduler.Stop()
	background.Wait()
	a.Close(shutdownCtx)

	log.Info("CrewSync Service stopped")
}
