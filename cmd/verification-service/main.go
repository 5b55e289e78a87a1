package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/medaid/platform/internal/verification"
	"github.com/medaid/platform/pkg/config"
	"github.com/medaid/platform/pkg/database"
	"github.com/medaid/platform/pkg/logger"
)

func main() {
	// Local overrides; missing .env is fine
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.LogLevel)

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.CreateSchema(context.Background()); err != nil {
		logger.Fatalf("Failed to create database schema: %v", err)
	}

	repo := verification.NewRepository(db, logger)
	service := verification.New(cfg, logger, repo)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	go func() {
		logger.Infof("Starting Verification Service on %s", addr)
		if err := service.Start(addr); err != nil {
			logger.Fatalf("Failed to start Verification Service: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Verification Service...")
	if err := service.Stop(); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
	logger.Info("Verification Service stopped")
}
