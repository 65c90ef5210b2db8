package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lifexia/healthnav/internal/adapters/cache"
	"github.com/lifexia/healthnav/internal/adapters/catalog"
	"github.com/lifexia/healthnav/internal/adapters/events"
	"github.com/lifexia/healthnav/internal/adapters/providers/geolocation"
	"github.com/lifexia/healthnav/internal/adapters/search"
	"github.com/lifexia/healthnav/internal/api/handlers"
	"github.com/lifexia/healthnav/internal/api/middleware"
	"github.com/lifexia/healthnav/internal/api/routes"
	"github.com/lifexia/healthnav/internal/application/services"
	"github.com/lifexia/healthnav/internal/domain/providers"
	"github.com/lifexia/healthnav/internal/domain/repositories"
	"github.com/lifexia/healthnav/internal/infrastructure/clients/redis"
	"github.com/lifexia/healthnav/internal/infrastructure/clients/typesense"
	"github.com/lifexia/healthnav/internal/infrastructure/notifications"
	"github.com/lifexia/healthnav/internal/infrastructure/observability"
	"github.com/lifexia/healthnav/pkg/config"
	"github.com/lifexia/healthnav/pkg/secrets"
)

func main() {

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Overlay Vault-held secrets onto the environment before the config
	// reads it.
	overlay, overlayErr := secrets.Overlay(ctx, secrets.ConfigFromEnv())

	// Load configuration

	cfg, err := config.Load()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Environment)
	logger := observability.GetLogger()

	if overlayErr != nil {
		logger.Warn().Err(overlayErr).Msg("Vault overlay failed, continuing with plain environment")
	} else if overlay.Enabled {
		logger.Info().Str("path", overlay.Path).Int("loaded", len(overlay.Loaded)).Msg("Vault secrets overlaid")
	}

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Redis client, continuing without cache")
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.Info().Msg("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	flags := services.NewFeatureFlags()

	// Initialize Typesense client
	var typesenseClient *typesense.Client
	if flags.SearchIndexEnabled() {
		typesenseClient, err = typesense.NewClient(&cfg.Typesense)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Typesense client, search falls back to in-memory matching")
			typesenseClient = nil
		} else {
			logger.Info().Msg("Typesense client initialized successfully")
		}
	}

	// Build the facility catalog

	var facilityCatalog repositories.FacilityCatalog
	switch cfg.Catalog.Source {
	case "file":
		fileCatalog, err := catalog.NewFileCatalog(cfg.Catalog.File, *logger)
		if err != nil {
			logger.Fatal().Err(err).Str("file", cfg.Catalog.File).Msg("Failed to load catalog file")
		}
		facilityCatalog = fileCatalog
	default:
		facilityCatalog = catalog.NewBuiltinCatalog()
	}

	// Wrap with caching if Redis is available (for read performance optimization)
	if cacheProvider != nil {
		facilityCatalog = catalog.NewCachedCatalog(facilityCatalog, cacheProvider, *logger)
		logger.Info().Msg("Catalog wrapped with caching layer")
	} else {
		logger.Warn().Msg("Catalog running without cache (Redis unavailable)")
	}

	var searchRepo repositories.SearchRepository

	if typesenseClient != nil {

		adapter := search.NewTypesenseAdapter(typesenseClient)

		// Ensure schema exists

		if err := adapter.InitSchema(ctx); err != nil {

			logger.Warn().Err(err).Msg("Failed to init Typesense schema")

		}

		searchRepo = adapter

	}

	// Initialize event bus for catalog update notifications
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient, *logger)
		logger.Info().Msg("Event bus initialized successfully")
	} else {
		logger.Info().Msg("Event bus disabled (Redis not available)")
	}

	var geolocationProvider providers.GeolocationProvider
	switch cfg.Geolocation.Provider {
	case "google":
		if cfg.Geolocation.APIKey == "" {
			logger.Warn().Msg("GEOLOCATION_API_KEY is not set; using mock geolocation provider")
			geolocationProvider = geolocation.NewMockGeolocationProvider()
		} else {
			geolocationProvider = geolocation.NewGoogleGeolocationProvider(cfg.Geolocation.APIKey, cacheProvider)
		}
	default:
		geolocationProvider = geolocation.NewMockGeolocationProvider()
	}

	// Initialize services

	locationService := services.NewLocationService(
		facilityCatalog,
		searchRepo,
		metrics,
		services.LocationConfig{
			HospitalRadiusKm: cfg.Map.HospitalRadiusKm,
			PharmacyRadiusKm: cfg.Map.PharmacyRadiusKm,
			EmergencyNumber:  cfg.Map.EmergencyNumber,
		},
		*logger,
	)

	var sender services.TextSender
	if flags.ShareEnabled() {
		whatsappSender, err := notifications.NewWhatsAppCloudSender(cfg.WhatsApp)
		if err != nil {
			logger.Warn().Err(err).Msg("WhatsApp sender unavailable, share requests will be rejected")
		} else {
			sender = whatsappSender
			logger.Info().Msg("WhatsApp sender initialized successfully")
		}
	}
	shareService := services.NewShareService(locationService, sender, *logger)

	// Initialize cache invalidation service
	var cacheInvalidationService *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus, *logger)
		if err := cacheInvalidationService.Start(); err != nil {
			logger.Warn().Err(err).Msg("Failed to start cache invalidation service")
		} else {
			logger.Info().Msg("Cache invalidation service started successfully")
		}
	}

	// Start cache warming service for improved read performance
	if cacheProvider != nil {
		warmingService := services.NewCacheWarmingService(
			facilityCatalog, // Use cached catalog to warm cache
			cacheProvider,
			*logger,
		)
		go warmingService.StartPeriodicWarming(ctx, warmInterval())
		logger.Info().Dur("interval", warmInterval()).Msg("Cache warming service started")
	}

	// Initialize handlers

	locationHandler := handlers.NewLocationHandler(locationService)

	geolocationHandler := handlers.NewGeolocationHandler(geolocationProvider)

	previewHandler := handlers.NewPreviewHandlerWithOptions(cfg.StaticMaps.APIKey, cacheProvider, cfg.StaticMaps.URL, nil)
	shareHandler := handlers.NewShareHandler(shareService, cacheProvider)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics, *logger)
		logger.Info().Msg("Cache middleware initialized successfully")
	}

	// Set up router

	router := routes.NewRouter(
		locationHandler,
		geolocationHandler,
		previewHandler,
		shareHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during server shutdown")
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing event bus")
		}
	}

	// Stop cache invalidation service
	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}

	logger.Info().Msg("Server stopped")
}

// warmInterval reads the cache warm cadence, defaulting to five minutes.
func warmInterval() time.Duration {
	if raw := os.Getenv("WARM_INTERVAL_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 5 * time.Minute
}
