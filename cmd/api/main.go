package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/dentalops/booking-gateway/cmd/mainconfig"
	"github.com/dentalops/booking-gateway/internal/api/router"
	"github.com/dentalops/booking-gateway/internal/appointments"
	"github.com/dentalops/booking-gateway/internal/auth"
	appconfig "github.com/dentalops/booking-gateway/internal/config"
	"github.com/dentalops/booking-gateway/internal/http/handlers"
	"github.com/dentalops/booking-gateway/internal/nexhealth"
	"github.com/dentalops/booking-gateway/internal/observability/metrics"
	"github.com/dentalops/booking-gateway/pkg/logging"
)

func main() {
	// Local development reads .env; production relies on real env vars.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-gateway API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	nexClient, err := nexhealth.New(nexhealth.Config{
		BaseURL:    cfg.NexHealthBaseURL,
		APIKey:     cfg.NexHealthAPIKey,
		Subdomain:  cfg.NexHealthSubdomain,
		LocationID: cfg.NexHealthLocationID,
		Timeout:    cfg.NexHealthTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to build nexhealth client", "error", err)
		os.Exit(1)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	userStore := auth.NewStore(dynamoClient, cfg.UsersTable, logger)
	authService := auth.NewService(userStore, cfg.JWTSecret, cfg.TokenTTL, logger)

	var opts []appointments.Option
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		opts = append(opts, appointments.WithTypeCache(
			appointments.NewTypeCache(redisClient, cfg.TypeCacheTTL),
		))
		logger.Info("appointment type cache enabled", "addr", cfg.RedisAddr)
	}
	locationID, err := cfg.LocationIDInt()
	if err != nil {
		logger.Error("invalid NEXHEALTH_LOCATION_ID", "error", err)
		os.Exit(1)
	}

	bookingMetrics := metrics.NewBookingMetrics(nil)
	bookingService := appointments.NewService(
		appointments.InstrumentUpstream(nexClient, bookingMetrics),
		locationID,
		cfg.NexHealthDefaultProviderID,
		logger,
		opts...,
	)
	bookingHandler := handlers.NewBookingHandler(bookingService, bookingMetrics, logger)
	authHandler := handlers.NewAuthHandler(authService, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		BookingHandler:     bookingHandler,
		AuthHandler:        authHandler,
		MetricsHandler:     promhttp.Handler(),
		JWTSecret:          cfg.JWTSecret,
		CORSAllowedOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
