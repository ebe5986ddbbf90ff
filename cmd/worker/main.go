package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/harper/dealdesk/internal/crm"
	"github.com/harper/dealdesk/internal/database"
	"github.com/harper/dealdesk/internal/tasks"
	"github.com/harper/dealdesk/internal/uploads"
	"github.com/harper/dealdesk/pkg/config"
	"github.com/harper/dealdesk/pkg/crypto"
	"github.com/harper/dealdesk/pkg/queue"
	"github.com/harper/dealdesk/pkg/util"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting dealdesk worker")

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Initialize encryptor for CRM credential storage
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		logger.Error("failed to create encryptor", "error", err)
		os.Exit(1)
	}

	crmService := crm.NewService(db, encryptor, cfg.CRM, logger)

	uploadStore, err := uploads.NewStore(context.Background(), db, cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to create upload store", "error", err)
		os.Exit(1)
	}

	// Create Asynq server
	srv := queue.NewServer(&cfg.Redis, 10)
	asynqClient := queue.NewClient(&cfg.Redis)
	defer asynqClient.Close()

	// Create task handler
	mailer := &tasks.LogMailer{Logger: logger}
	handler := tasks.NewHandler(db, logger, crmService, uploadStore, mailer, asynqClient, cfg.Server.BaseURL)

	// Register handlers
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Handle shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		srv.Shutdown()
		cancel()
	}()

	// Drive scheduled CRM syncs with a minutely tick.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := asynqClient.EnqueueContext(ctx, tasks.NewSchedulerTickTask()); err != nil {
					logger.Error("enqueueing scheduler tick", "error", err)
				}
			}
		}
	}()

	logger.Info("worker started, waiting for tasks...")

	// Start the server
	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
	}

	// Wait for context cancellation
	<-ctx.Done()

	// Close database connection
	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("worker stopped")
}
