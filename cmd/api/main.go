package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mvconsultorios/turnos-api/internal/admin"
	"github.com/mvconsultorios/turnos-api/internal/api/router"
	"github.com/mvconsultorios/turnos-api/internal/appointments"
	"github.com/mvconsultorios/turnos-api/internal/availability"
	"github.com/mvconsultorios/turnos-api/internal/cache"
	appconfig "github.com/mvconsultorios/turnos-api/internal/config"
	"github.com/mvconsultorios/turnos-api/internal/notify"
	"github.com/mvconsultorios/turnos-api/internal/observability/metrics"
	"github.com/mvconsultorios/turnos-api/internal/patients"
	"github.com/mvconsultorios/turnos-api/internal/reminders"
	"github.com/mvconsultorios/turnos-api/internal/snapshot"
	"github.com/mvconsultorios/turnos-api/pkg/logging"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel, cfg.Env)
	logger.Info("starting turnos-api server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("invalid timezone, using UTC", "timezone", cfg.Timezone, "error", err)
		loc = time.UTC
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage: Postgres when configured, in-memory otherwise. The in-memory
	// mode loses everything on restart and exists for local development.
	var (
		apptRepo    appointments.Repository
		patientRepo patients.Repository
		overrides   admin.OverrideStore
		ovWiper     admin.Wiper
		ovSource    availability.OverrideSource
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("database ping failed", "error", err)
			os.Exit(1)
		}
		apptRepo = appointments.NewPostgresRepository(pool)
		patientRepo = patients.NewPostgresRepository(pool)
		store := availability.NewStore(pool)
		overrides = store
		ovWiper = store
		ovSource = store
		logger.Info("using postgres storage")
	} else {
		mem := availability.NewMemoryOverrides()
		apptRepo = appointments.NewMemoryRepository()
		patientRepo = patients.NewMemoryRepository()
		overrides = mem
		ovWiper = mem
		ovSource = mem
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// Redis mirror for fast slot lookups; optional.
	var (
		mirror  appointments.Mirror
		flusher admin.Flusher
	)
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
			logger.Warn("redis unreachable, continuing without mirror", "error", err)
		} else {
			m := cache.NewMirror(rdb)
			mirror = m
			flusher = m
			logger.Info("redis mirror enabled", "addr", cfg.RedisAddr)
		}
	}

	reg := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(reg)

	office := notify.Office{
		Name:    cfg.OfficeName,
		Phone:   cfg.OfficePhone,
		Address: cfg.OfficeAddress,
	}

	var whatsapp notify.WhatsAppSender = notify.NewDeepLinkSender(cfg.WhatsAppCountryPrefix, logger)
	if cfg.WhatsAppMode == "cloud-api" {
		if s := notify.NewCloudAPISender(notify.CloudAPIConfig{
			BaseURL:       cfg.WhatsAppAPIBaseURL,
			AccessToken:   cfg.WhatsAppAccessToken,
			PhoneNumberID: cfg.WhatsAppPhoneNumberID,
			CountryPrefix: cfg.WhatsAppCountryPrefix,
		}, logger); s != nil {
			whatsapp = s
		} else {
			logger.Warn("cloud api credentials missing, falling back to deep links")
		}
	}

	var email notify.EmailSender = notify.NewStubEmailSender(logger)
	if s := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); s != nil {
		email = s
	}

	notifier := notify.NewService(whatsapp, email, office, logger)

	resolver := availability.NewResolver(ovSource, loc,
		availability.WithLeadTime(cfg.BookingLeadTime),
		availability.WithStride(cfg.SlotStride),
	)

	bookingService := appointments.NewService(appointments.ServiceConfig{
		Repo:     apptRepo,
		Patients: patientRepo,
		Resolver: resolver,
		Mirror:   mirror,
		Notifier: notifier,
		Metrics:  bookingMetrics,
		Logger:   logger,
	})

	importer := snapshot.NewImporter(patientRepo, apptRepo, overrides, logger)

	adminHandler := admin.NewHandler(admin.Config{
		Passphrase: cfg.AdminPassphrase,
		JWTSecret:  cfg.AdminJWTSecret,
		TokenTTL:   cfg.AdminTokenTTL,
		Overrides:  overrides,
		Wipers:     []admin.Wiper{apptRepo, patientRepo, ovWiper},
		Cache:      flusher,
		Importer:   importer,
		Logger:     logger,
	})

	r := router.New(&router.Config{
		Logger:             logger,
		BookingsHandler:    appointments.NewHandler(bookingService, logger),
		PatientsHandler:    patients.NewHandler(patientRepo, logger),
		AdminHandler:       adminHandler,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AdminJWTSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		BookingRateLimit:   cfg.BookingRateLimit,
		BookingBurst:       cfg.BookingBurst,
	})

	if cfg.RemindersEnabled {
		worker := reminders.NewWorker(apptRepo, notifier, loc, logger).
			WithInterval(cfg.ReminderInterval).
			WithMetrics(bookingMetrics)
		go worker.Run(ctx)
	}

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
