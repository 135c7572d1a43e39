package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"leadcapture/internal/config"
	"leadcapture/internal/crm"
	"leadcapture/internal/database"
	"leadcapture/internal/handlers"
	"leadcapture/internal/mail"
	"leadcapture/internal/platform/storage"
	puser "leadcapture/internal/platform/user"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if cfg.JWTSecretGenerated {
		logger.Warn("JWT_SECRET not set, using a random key; issued tokens will not survive a restart")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	if cfg.AdminEmail != "" {
		admin, generated, err := puser.NewService(db).EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			logger.Fatal("failed to create administrator", zap.Error(err))
		}
		if admin != nil {
			logger.Info("administrator created", zap.String("email", admin.Email))
		}
		if generated != "" {
			// Printed once; the password is not stored anywhere else.
			fmt.Fprintf(os.Stderr, "Administrator password for %s: %s\n", admin.Email, generated)
		}
	}

	deps := handlers.Dependencies{
		Config: cfg,
		DB:     db,
		Logger: logger,
		CRM:    crm.New(cfg, logger),
		Mailer: mail.New(cfg, logger),
	}
	if cfg.StorageEnabled() {
		deps.Storage = storage.NewStorageService(cfg.Storage(), cfg.S3PublicURL)
	} else {
		logger.Warn("document storage not configured, uploads are disabled")
	}

	app := handlers.New(deps)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("server starting",
		zap.Int("port", cfg.ServerPort),
		zap.String("environment", cfg.Environment),
		zap.String("crm_mode", cfg.CRMMode),
	)

	if err := app.Listen(fmt.Sprintf(":%d", cfg.ServerPort)); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
