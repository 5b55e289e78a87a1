package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/medaid/platform/internal/appointment"
	"github.com/medaid/platform/internal/medication"
	"github.com/medaid/platform/internal/notify"
	"github.com/medaid/platform/internal/verification"
	"github.com/medaid/platform/pkg/config"
	"github.com/medaid/platform/pkg/database"
	"github.com/medaid/platform/pkg/interfaces"
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

	appointments := appointment.NewRepository(db, logger)
	verifications := verification.NewRepository(db, logger)
	profiles := medication.NewRepository(db, logger)

	notifiers := []interfaces.Notifier{
		notify.NewTelegramNotifier(cfg.Notify.TelegramToken, logger),
		notify.NewWhatsAppNotifier(cfg.Notify.WhatsAppEndpoint, cfg.Notify.WhatsAppToken, logger),
		notify.NewPushNotifier(cfg.Notify.PushPublicKey, cfg.Notify.PushPrivateKey, logger),
	}

	service := appointment.New(cfg, logger, appointments, verifications, profiles, notifiers)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	go func() {
		logger.Infof("Starting Appointment Service on %s", addr)
		if err := service.Start(addr); err != nil {
			logger.Fatalf("Failed to start Appointment Service: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Appointment Service...")
	if err := service.Stop(); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
	logger.Info("Appointment Service stopped")
}
