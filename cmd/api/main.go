package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mistakevault/internal/config"
	"mistakevault/internal/http"
	"mistakevault/internal/ingest"
	"mistakevault/internal/llm"
	"mistakevault/internal/service"
	"mistakevault/internal/storage"
	"mistakevault/internal/vault"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := config.NewLogger(os.Stdout, cfg)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Attempt history
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	vaultManager, err := vault.NewManager(cfg.DataDir, cfg.InboxDir, cfg.VaultDir)
	if err != nil {
		log.Fatalf("Failed to initialize vault manager: %v", err)
	}
	slog.Info("Vault manager initialized", "inbox", cfg.InboxDir, "vault", cfg.VaultDir)

	store := storage.NewJSONStore(cfg.StorePath)
	attemptRepo := storage.NewAttemptRepo(db)
	uploader := ingest.NewUploader(store, vaultManager)
	recordService := service.NewRecordService(store, attemptRepo, vaultManager, uploader)

	visionClient := llm.NewClient(cfg.VisionBaseURL, cfg.VisionModel, llm.WithTimeout(cfg.VisionTimeout))
	slog.Debug("Vision configuration", "base_url", cfg.VisionBaseURL, "model", cfg.VisionModel)

	router := http.NewRouter(&http.Deps{
		RecordService: recordService,
		Store:         store,
		Model:         visionClient,
	})

	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", addr, "store", cfg.StorePath)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
	slog.Info("API server stopped")
}
