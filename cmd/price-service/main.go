package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/medaid/platform/internal/pricing"
	"github.com/medaid/platform/internal/search"
	"github.com/medaid/platform/pkg/config"
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

	searcher := search.NewClient(&cfg.Search, logger)
	service := pricing.New(cfg, logger, searcher)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	go func() {
		logger.Infof("Starting Price Service on %s", addr)
		if err := service.Start(addr); err != nil {
			logger.Fatalf("Failed to start Price Service: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Price Service...")
	if err := service.Stop(); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
	logger.Info("Price Service stopped")
}
