package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mentorbase/platform/cmd/mainconfig"
	"github.com/mentorbase/platform/internal/api/router"
	"github.com/mentorbase/platform/internal/availability"
	"github.com/mentorbase/platform/internal/bookings"
	"github.com/mentorbase/platform/internal/calendars"
	appconfig "github.com/mentorbase/platform/internal/config"
	"github.com/mentorbase/platform/internal/events"
	"github.com/mentorbase/platform/internal/notify"
	"github.com/mentorbase/platform/internal/observability/metrics"
	"github.com/mentorbase/platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting mentorbase API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage. Without DATABASE_URL everything runs in memory, which is
	// enough for local development.
	var (
		calRepo  calendars.Repository
		bookRepo bookings.Repository
		outbox   *events.OutboxStore
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("failed to reach database", "error", err)
			os.Exit(1)
		}
		calRepo = calendars.NewPostgresRepository(pool)
		bookRepo = bookings.NewPostgresRepository(pool)
		outbox = events.NewOutboxStore(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		calRepo = calendars.NewInMemoryRepository()
		bookRepo = bookings.NewInMemoryRepository()
	}

	// Month cache, optional.
	var cache *availability.Cache
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		cache = availability.NewCache(redis.NewClient(opts), cfg.AvailabilityCacheTTL, logger)
	}

	bookingMetrics := metrics.NewBookingMetrics(nil)

	availSvc := availability.NewService(calRepo, bookRepo, logger).
		WithCache(cache).
		WithMetrics(bookingMetrics).
		WithDefaultTimezone(cfg.DefaultTimezone)

	bookSvc := bookings.NewService(bookRepo, calRepo, logger).
		WithCache(cache).
		WithMetrics(bookingMetrics).
		WithDefaultTimezone(cfg.DefaultTimezone)
	if outbox != nil {
		bookSvc = bookSvc.WithOutbox(outbox)
	}

	// Email, SQS fanout and the outbox deliverer.
	emailSender := buildEmailSender(ctx, cfg, logger)
	notifySvc := notify.NewService(emailSender, logger)
	if outbox != nil {
		handlers := events.Fanout{notifySvc}
		if cfg.BookingEventsQueueURL != "" {
			awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
			if err != nil {
				logger.Error("failed to load AWS config", "error", err)
				os.Exit(1)
			}
			if pub := events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.BookingEventsQueueURL, logger); pub != nil {
				handlers = append(handlers, pub)
			}
		}
		deliverer := events.NewDeliverer(outbox, handlers, logger).
			WithInterval(cfg.OutboxPollInterval).
			WithBatchSize(int32(cfg.OutboxBatchSize))
		go deliverer.Start(ctx)
	}

	r := router.New(&router.Config{
		Logger:              logger,
		CalendarsHandler:    calendars.NewHandler(calRepo, logger),
		AvailabilityHandler: availability.NewHandler(availSvc, logger),
		BookingsHandler:     bookings.NewHandler(bookSvc, logger),
		MetricsHandler:      promhttp.Handler(),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		BookingRateLimit:    cfg.BookingRateLimit,
		BookingRateBurst:    cfg.BookingRateBurst,
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

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("sendgrid selected but not configured, falling back to log sender")
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config for SES", "error", err)
			break
		}
		if sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); sender != nil {
			return sender
		}
	}
	return notify.NewLogSender(logger)
}
