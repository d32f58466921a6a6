package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/portfelo/ledger-backend/internal/api"
	"github.com/portfelo/ledger-backend/internal/config"
	"github.com/portfelo/ledger-backend/internal/database"
	"github.com/portfelo/ledger-backend/internal/fxrate"
	"github.com/portfelo/ledger-backend/internal/repository"
	"github.com/portfelo/ledger-backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Create repositories
	transactionRepo := repository.NewTransactionRepository(db)
	instrumentRepo := repository.NewInstrumentRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)
	holdingsRepo := repository.NewHoldingsRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	// FX rate client, token optionally taken from the encrypted settings store
	fxToken := cfg.FX.APIToken
	if cfg.Settings.EncryptionKey != "" {
		settingsRepo, err := repository.NewSettingsRepository(db, cfg.Settings.EncryptionKey)
		if err != nil {
			log.Fatalf("Failed to open settings store: %v", err)
		}
		if stored, err := settingsRepo.Get(context.Background(), repository.SettingFXProviderToken); err != nil {
			log.Printf("Failed to read FX provider token: %v", err)
		} else if stored != "" {
			fxToken = stored
		}
	}
	fxClient := fxrate.NewClient(fxrate.WithAPIToken(fxToken))

	// Create services
	systemService := service.NewSystemService(db)
	transactionService := service.NewTransactionService(
		transactionRepo,
		instrumentRepo,
		portfolioRepo,
		snapshotRepo,
		profileRepo,
		holdingsRepo,
		fxClient,
	)
	holdingsService := service.NewHoldingsService(holdingsRepo)
	instrumentService := service.NewInstrumentService(instrumentRepo)

	// Daily FX cache prewarm
	scheduler := cron.New()
	if cfg.FX.Prewarm {
		prewarm := service.NewFXPrewarmService(holdingsRepo, fxClient)
		if err := prewarm.Schedule(scheduler); err != nil {
			log.Fatalf("Failed to schedule FX prewarm: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Create router
	router := api.NewRouter(systemService, transactionService, holdingsService, instrumentService, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
