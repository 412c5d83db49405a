package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/gpneto/Clinica360-sub004/cmd/mainconfig"
	"github.com/gpneto/Clinica360-sub004/internal/api/router"
	"github.com/gpneto/Clinica360-sub004/internal/bookings"
	"github.com/gpneto/Clinica360-sub004/internal/cache"
	"github.com/gpneto/Clinica360-sub004/internal/catalog"
	"github.com/gpneto/Clinica360-sub004/internal/chat"
	"github.com/gpneto/Clinica360-sub004/internal/clinic"
	appconfig "github.com/gpneto/Clinica360-sub004/internal/config"
	"github.com/gpneto/Clinica360-sub004/internal/http/handlers"
	"github.com/gpneto/Clinica360-sub004/internal/messaging/evolution"
	"github.com/gpneto/Clinica360-sub004/internal/observability/metrics"
	"github.com/gpneto/Clinica360-sub004/internal/patients"
	"github.com/gpneto/Clinica360-sub004/internal/reminders"
	"github.com/gpneto/Clinica360-sub004/internal/schedule"
	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinica360 chat-booking server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

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

	// Metrics
	registry := prometheus.NewRegistry()
	chatMetrics := metrics.NewChatMetrics(registry)
	reminderMetrics := metrics.NewReminderMetrics(registry)
	cacheMetrics := metrics.NewCacheMetrics(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	// Tiered cache: remote HTTP service preferred, direct redis fallback.
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	directTier := cache.NewDirectTier(redis.NewClient(redisOpts), cfg.CacheTimeout, logger)
	remoteTier := cache.NewServiceTier(cache.ServiceConfig{
		BaseURL: cfg.CacheServiceURL,
		APIKey:  cfg.CacheServiceAPIKey,
		Timeout: cfg.CacheTimeout,
		Logger:  logger,
	})
	tieredCache := cache.NewFacade(remoteTier, directTier, cacheMetrics, logger)

	// Stores
	settingsStore := clinic.NewSettingsStore(dynamoClient, cfg.SettingsTable, logger)
	settingsResolver := clinic.NewResolver(tieredCache, settingsStore, logger)
	catalogStore := catalog.NewStore(dynamoClient, cfg.ProfessionalsTable, cfg.ServicesTable, logger)
	patientsRepo := patients.NewRepository(dynamoClient, cfg.PatientsTable, logger)
	bookingsRepo := bookings.NewRepository(dynamoClient, cfg.BookingsTable, logger)
	contextStore := chat.NewContextStore(dynamoClient, cfg.ChatContextTable, logger)
	detector := schedule.NewDetector(bookingsRepo, logger)

	// Outbound messaging
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

	machine := chat.NewMachine(chat.MachineConfig{
		Store:    contextStore,
		Settings: settingsResolver,
		Patients: patientsRepo,
		Catalog:  catalogStore,
		Bookings: bookingsRepo,
		Conflict: detector,
		Logger:   logger,
		Metrics:  chatMetrics,
		Location: loc,
	})

	dispatcher := reminders.NewDispatcher(reminders.DispatcherConfig{
		Repo:      bookingsRepo,
		Settings:  settingsResolver,
		Patients:  patientsRepo,
		Transport: transport,
		Logger:    logger,
		Metrics:   reminderMetrics,
		Location:  loc,
	})

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if cfg.ReminderSweepEnabled {
		runner := reminders.NewRunner(dispatcher, logger).WithInterval(cfg.ReminderSweepInterval)
		go runner.Run(workerCtx)
	}

	chatWebhook := handlers.NewChatWebhookHandler(handlers.ChatWebhookConfig{
		Machine:   machine,
		Transport: transport,
		Logger:    logger,
		Token:     cfg.ChatWebhookToken,
	})
	adminHandler := handlers.NewAdminHandler(settingsResolver, dispatcher, logger)

	r := router.New(&router.Config{
		Logger:          logger,
		ChatWebhook:     chatWebhook,
		Admin:           adminHandler,
		MetricsHandler:  metricsHandler,
		AdminAuthSecret: cfg.AdminJWTSecret,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
