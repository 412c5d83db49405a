package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/gpneto/Clinica360-sub004/cmd/mainconfig"
	"github.com/gpneto/Clinica360-sub004/internal/bookings"
	"github.com/gpneto/Clinica360-sub004/internal/cache"
	"github.com/gpneto/Clinica360-sub004/internal/clinic"
	appconfig "github.com/gpneto/Clinica360-sub004/internal/config"
	"github.com/gpneto/Clinica360-sub004/internal/messaging/evolution"
	"github.com/gpneto/Clinica360-sub004/internal/patients"
	"github.com/gpneto/Clinica360-sub004/internal/reminders"
	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

// The lambda runs one sweep per scheduled event. It talks to the cache
// service tier only; holding a direct redis connection from a short-lived
// function defeats the point of the shared cache service.
func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		logger.Error("invalid clinic timezone", "timezone", cfg.ClinicTimezone, "error", err)
		os.Exit(1)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)

	remoteTier := cache.NewServiceTier(cache.ServiceConfig{
		BaseURL: cfg.CacheServiceURL,
		APIKey:  cfg.CacheServiceAPIKey,
		Timeout: cfg.CacheTimeout,
		Logger:  logger,
	})
	tieredCache := cache.NewFacade(remoteTier, cache.NewDirectTier(nil, cfg.CacheTimeout, logger), nil, logger)

	settingsStore := clinic.NewSettingsStore(dynamoClient, cfg.SettingsTable, logger)
	settingsResolver := clinic.NewResolver(tieredCache, settingsStore, logger)
	patientsRepo := patients.NewRepository(dynamoClient, cfg.PatientsTable, logger)
	bookingsRepo := bookings.NewRepository(dynamoClient, cfg.BookingsTable, logger)

	transport, err := evolution.New(evolution.Config{
		BaseURL:  cfg.MessagingBaseURL,
		APIKey:   cfg.MessagingAPIKey,
		Instance: cfg.MessagingInstance,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to configure messaging gateway", "error", err)
		os.Exit(1)
	}

	dispatcher := reminders.NewDispatcher(reminders.DispatcherConfig{
		Repo:      bookingsRepo,
		Settings:  settingsResolver,
		Patients:  patientsRepo,
		Transport: transport,
		Logger:    logger,
		Location:  loc,
	})

	lambda.Start(func(ctx context.Context, _ events.CloudWatchEvent) error {
		result, err := dispatcher.Sweep(ctx)
		if err != nil {
			return err
		}
		logger.Info("scheduled sweep finished",
			"scanned", result.Scanned, "sent", result.Sent,
			"skipped", result.Skipped, "errors", result.Errors)
		return nil
	})
}
