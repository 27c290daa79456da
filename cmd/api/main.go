package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/healthconnect/backend/internal/adapters/cache"
	"github.com/healthconnect/backend/internal/adapters/database"
	"github.com/healthconnect/backend/internal/adapters/providers/geolocation"
	"github.com/healthconnect/backend/internal/api/handlers"
	"github.com/healthconnect/backend/internal/api/middleware"
	"github.com/healthconnect/backend/internal/api/routes"
	"github.com/healthconnect/backend/internal/application/services"
	"github.com/healthconnect/backend/internal/domain/providers"
	"github.com/healthconnect/backend/internal/infrastructure/clients/postgres"
	"github.com/healthconnect/backend/internal/infrastructure/clients/redis"
	"github.com/healthconnect/backend/internal/infrastructure/observability"
	"github.com/healthconnect/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			observability.AttachLogExport()
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Redis is optional; searches and geocoding run uncached without it.
	var cacheProvider providers.CacheProvider
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, running without cache")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient, "healthconnect:")
	}

	sources, err := geolocation.NewSources(cfg.Geo, cacheProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure geo providers")
	}
	log.Info().
		Str("primary", sources.Primary.Name()).
		Str("fallback", sources.Fallback.Name()).
		Msg("hospital finder providers configured")

	// Initialize adapters
	consultationRepo := database.NewConsultationAdapter(pgClient)
	profileRepo := database.NewProfileAdapter(pgClient)

	// Initialize services
	finder := services.NewHospitalFinderService(services.HospitalFinderOptions{
		Geocoder: sources.Geocoder,
		Primary:  sources.Primary,
		Fallback: sources.Fallback,
		Cache:    cacheProvider,
		CacheTTL: cfg.Geo.SearchCacheTTL,
		Metrics:  metrics,
	})
	tracker := services.NewSearchTracker(0)
	consultationService := services.NewConsultationService(consultationRepo)
	authorizationService := services.NewAuthorizationService(profileRepo, cfg.Auth.AdminEmails)

	if cfg.Auth.JWTSecret == "" {
		log.Warn().Msg("AUTH_JWT_SECRET is not set, authenticated routes will reject every request")
	}

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, cfg.Geo.GeocodeCacheTTL)
	}

	// Worst case a search geocodes, queries the primary source and then runs
	// three fallback queries one after another.
	searchTimeout := 5 * cfg.Geo.HTTPTimeout

	router := routes.NewRouter(routes.RouterOptions{
		HospitalHandler:     handlers.NewHospitalHandler(finder, tracker, searchTimeout),
		ConsultationHandler: handlers.NewConsultationHandler(consultationService),
		AdminHandler:        handlers.NewAdminHandler(consultationService),
		Auth:                middleware.NewAuthMiddleware(cfg.Auth, authorizationService),
		CacheMiddleware:     cacheMiddleware,
		AllowedOrigins:      cfg.Server.AllowedOrigins,
		Metrics:             metrics,
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: searchTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
