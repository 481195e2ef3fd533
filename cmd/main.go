// @title Hackathon Registration API
// @version 1.0
// @description Registro de proyectos y participantes para el hackathon.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/hackathon-registration/config"
	"github.com/Dosada05/hackathon-registration/db"
	"github.com/Dosada05/hackathon-registration/forms"
	"github.com/Dosada05/hackathon-registration/handlers"
	"github.com/Dosada05/hackathon-registration/limiter"
	"github.com/Dosada05/hackathon-registration/live"
	"github.com/Dosada05/hackathon-registration/repositories"
	api "github.com/Dosada05/hackathon-registration/routes"
	"github.com/Dosada05/hackathon-registration/scheduler"
	"github.com/Dosada05/hackathon-registration/services"
	"github.com/Dosada05/hackathon-registration/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.Bool("registration_open", cfg.RegistrationOpen),
		slog.Int("max_participants", cfg.MaxParticipants),
	)

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStartup()

	if err := db.Migrate(startupCtx, dbConn); err != nil {
		logger.Error("failed to apply database schema", slog.Any("error", err))
		os.Exit(1)
	}

	countries, err := forms.DefaultCountries()
	if err != nil {
		logger.Error("failed to load country catalogue", slog.Any("error", err))
		os.Exit(1)
	}
	schema := forms.NewSchema(cfg.MaxParticipants, countries)

	// Инициализация загрузчика файлов (Cloudflare R2)
	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(startupCtx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("Cloudflare R2 is not configured, exports are disabled")
	}

	var submitLimiter limiter.Limiter
	if cfg.RedisURL != "" {
		redisClient, err := limiter.NewRedisClient(startupCtx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()
		submitLimiter = limiter.NewRedisLimiter(redisClient, cfg.SubmitRateLimit, cfg.SubmitRateWindow)
	} else {
		logger.Warn("REDIS_URL is not set, submit rate limit is kept per process")
		submitLimiter = limiter.NewMemoryLimiter(cfg.SubmitRateLimit, cfg.SubmitRateWindow)
	}
	logger.Info("submit rate limit enabled",
		slog.Int("limit", cfg.SubmitRateLimit),
		slog.Duration("window", cfg.SubmitRateWindow),
	)

	var notifier services.Notifier
	if cfg.SMTPEnabled() {
		emailService, err := services.NewEmailService(cfg)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = emailService
	}

	// Инициализация WebSocket Hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	wsHub := live.NewHub(logger)
	go wsHub.Run(hubCtx)
	logger.Info("WebSocket Hub started")

	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)

	// Инициализация сервисов
	registrationService := services.NewRegistrationService(
		registrationRepo,
		schema,
		countries,
		services.RegistrationWindow{Open: cfg.RegistrationOpen, Deadline: cfg.RegistrationDeadline},
		wsHub,
		notifier,
		logger,
	)
	authService := services.NewAuthService(cfg.AdminEmail, cfg.AdminPasswordHash)
	exportService := services.NewExportService(registrationRepo, uploader, logger)
	logger.Info("Services initialized")

	// Запуск планировщика выгрузок
	if cfg.ExportSchedule != "" {
		exportScheduler, err := scheduler.NewExportScheduler(cfg.ExportSchedule, exportService, logger)
		if err != nil {
			logger.Error("failed to configure export scheduler", slog.Any("error", err))
			os.Exit(1)
		}
		exportScheduler.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := exportScheduler.Stop(stopCtx); err != nil {
				logger.Error("export scheduler did not stop in time", slog.Any("error", err))
			}
		}()
		logger.Info("export scheduler started", slog.String("schedule", cfg.ExportSchedule))
	}

	// Инициализация обработчиков HTTP
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	formHandler := handlers.NewFormHandler(registrationService, submitLimiter, logger)
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	adminHandler := handlers.NewAdminHandler(registrationService, exportService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger)
	healthHandler := handlers.NewHealthHandler(dbConn)
	logger.Info("HTTP handlers initialized")

	var jwtSecret []byte
	if cfg.AdminEnabled() {
		jwtSecret = []byte(cfg.JWTSecretKey)
	}

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Options{
			Logger:         logger,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			JWTSecret:      jwtSecret,
			SubmitLimiter:  submitLimiter,

			TrustProxyHeaders: cfg.TrustProxyHeaders,
		},
		registrationHandler,
		formHandler,
		authHandler,
		adminHandler,
		webSocketHandler,
		healthHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
