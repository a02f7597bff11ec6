package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/pawbook/pawbook/cmd/mainconfig"
	"github.com/pawbook/pawbook/internal/api/router"
	"github.com/pawbook/pawbook/internal/appointments"
	appconfig "github.com/pawbook/pawbook/internal/config"
	"github.com/pawbook/pawbook/internal/conversation"
	"github.com/pawbook/pawbook/internal/notify"
	"github.com/pawbook/pawbook/internal/observability/metrics"
	"github.com/pawbook/pawbook/internal/schedule"
	"github.com/pawbook/pawbook/internal/webchat"
	"github.com/pawbook/pawbook/pkg/logging"
)

func main() {
	// .env is optional; deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting pawbook API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	hours := hoursFromConfig(cfg)

	// Appointment storage: Postgres when configured, in-memory otherwise.
	var (
		repo    appointments.Repository
		archive *conversation.TranscriptArchive
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create postgres pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("postgres unreachable", "error", err)
			os.Exit(1)
		}
		repo = appointments.NewPostgresRepository(pool)
		archive = conversation.NewTranscriptArchive(stdlib.OpenDBFromPool(pool))
		logger.Info("appointment store: postgres")
	} else {
		repo = appointments.NewInMemoryRepository()
		logger.Warn("appointment store: in-memory, bookings are lost on restart")
	}

	engine := schedule.NewEngine(hours, repo)
	validator := appointments.NewValidator(hours)

	bookingMetrics := metrics.NewBookingMetrics(nil)
	conversationMetrics := metrics.NewConversationMetrics(nil)

	bookings := appointments.NewService(repo, engine, validator, logger).
		WithMetrics(bookingMetrics).
		WithNotifier(buildNotifier(ctx, cfg, logger))

	// Session storage: Redis when configured, in-memory otherwise.
	var store conversation.Store
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("redis unreachable", "error", err, "addr", cfg.RedisAddr)
			os.Exit(1)
		}
		store = conversation.NewRedisStore(rdb, cfg.SessionTTL)
		logger.Info("session store: redis", "addr", cfg.RedisAddr)
	} else {
		store = conversation.NewInMemoryStore()
		logger.Warn("session store: in-memory, sessions are lost on restart")
	}

	convSvc := conversation.NewService(store, bookings, engine, logger).
		WithMetrics(conversationMetrics)
	if archive != nil {
		convSvc = convSvc.WithArchive(archive)
	}
	if cfg.GeminiAPIKey != "" {
		responder, err := conversation.NewGeminiResponder(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("gemini responder unavailable, falling back to rule-based replies", "error", err)
		} else {
			convSvc = convSvc.WithResponder(responder)
			logger.Info("small-talk responder: gemini", "model", cfg.GeminiModelID)
		}
	}

	routerCfg := &router.Config{
		Logger:              logger,
		AppointmentsHandler: appointments.NewHandler(bookings, engine, logger),
		ConversationHandler: conversation.NewHandler(convSvc, logger),
		WebchatHandler:      webchat.NewHandler(convSvc, logger),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  splitOrigins(cfg.CORSAllowedOrigins),
		ChatRateLimit:       cfg.ChatRateLimit,
		ChatBurst:           cfg.ChatBurst,
	}
	r := router.New(routerCfg)

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildNotifier wires the configured email provider into the booking
// confirmation service. An unconfigured provider leaves email off without
// blocking startup.
func buildNotifier(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *notify.Service {
	var sender notify.EmailSender
	switch cfg.EmailProvider {
	case "sendgrid":
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			sender = s
			logger.Info("email provider: sendgrid", "from", cfg.SendGridFromEmail)
		} else {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY is empty, email disabled")
		}
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config, email disabled", "error", err)
			break
		}
		if s := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); s != nil {
			sender = s
			logger.Info("email provider: ses", "from", cfg.SESFromEmail, "region", cfg.AWSRegion)
		}
	case "stub":
		sender = notify.NewStubEmailSender(logger)
		logger.Info("email provider: stub, confirmations are logged only")
	default:
		logger.Warn("unknown email provider, email disabled", "provider", cfg.EmailProvider)
	}

	return notify.NewService(sender, notify.Config{
		ClinicInbox: cfg.ClinicEmail,
		ClinicName:  cfg.ClinicName,
	}, logger)
}

func hoursFromConfig(cfg *appconfig.Config) schedule.Hours {
	open := make(map[time.Weekday]bool)
	for _, d := range cfg.OpenWeekdays() {
		open[d] = true
	}
	return schedule.Hours{
		Open:             cfg.OpenHour,
		Close:            cfg.CloseHour,
		LunchStart:       cfg.LunchStartHour,
		LunchEnd:         cfg.LunchEndHour,
		SlotIntervalMins: cfg.SlotIntervalMins,
		OpenDays:         open,
		MaxAdvanceDays:   cfg.MaxAdvanceDays,
		SameDayLeadTime:  cfg.SameDayLeadTime,
	}
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
