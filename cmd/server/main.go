package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-drill/internal/config"
	"github.com/stemsi/exstem-drill/internal/database"
	"github.com/stemsi/exstem-drill/internal/handler"
	"github.com/stemsi/exstem-drill/internal/logger"
	"github.com/stemsi/exstem-drill/internal/repository"
	"github.com/stemsi/exstem-drill/internal/router"
	"github.com/stemsi/exstem-drill/internal/service"
	"github.com/stemsi/exstem-drill/internal/validator"
	"github.com/stemsi/exstem-drill/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("storage", cfg.StorageDriver).
		Str("bank_dir", cfg.BankDir).
		Msg("Starting ExStem Drill")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Storage ──────────────────────────────────────────────────
	storage, err := database.OpenStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer storage.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	catalogRepo := repository.NewBankCatalogRepository(cfg.BankDir)

	// ─── Initialize Services ──────────────────────────────────────────
	bankService := service.NewBankService(catalogRepo, storage.KV, cfg.MaxUploadBytes, log)
	practiceService := service.NewPracticeService(storage.KV, log)
	preferenceService := service.NewPreferenceService(storage.KV, log)
	translationService := service.NewTranslationService(cfg, storage.Redis, log)

	// ─── Load Persisted State ─────────────────────────────────────────
	// Unreadable banks are skipped; everything else still starts.
	for _, lerr := range bankService.Load(ctx) {
		log.Warn().Err(lerr).Msg("Bank skipped")
	}
	if err := practiceService.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("Practice history unavailable, starting empty")
	}
	if err := preferenceService.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("Preferences unavailable, using defaults")
	}
	log.Info().Int("banks", len(bankService.List())).Msg("Banks loaded")

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	prefetchWorker := worker.NewTranslationPrefetchWorker(translationService, log)
	go prefetchWorker.Start(workerCtx)

	quizService := service.NewQuizService(bankService, practiceService, preferenceService, translationService, nil, prefetchWorker, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Bank:       handler.NewBankHandler(bankService, quizService),
		Practice:   handler.NewPracticeHandler(bankService, practiceService),
		Session:    handler.NewSessionHandler(quizService),
		Preference: handler.NewPreferenceHandler(preferenceService),
		WS:         handler.NewWSHandler(quizService, log, cfg.AllowedOrigins),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the prefetch worker and wait for its queue to drain.
	workerCancel()
	<-prefetchWorker.Done()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
