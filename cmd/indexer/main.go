package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lifexia/healthnav/internal/adapters/catalog"
	"github.com/lifexia/healthnav/internal/adapters/events"
	"github.com/lifexia/healthnav/internal/adapters/search"
	"github.com/lifexia/healthnav/internal/application/services"
	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/providers"
	"github.com/lifexia/healthnav/internal/domain/repositories"
	"github.com/lifexia/healthnav/internal/infrastructure/clients/redis"
	"github.com/lifexia/healthnav/internal/infrastructure/clients/typesense"
	"github.com/lifexia/healthnav/internal/infrastructure/observability"
	"github.com/lifexia/healthnav/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the existing locations collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", cfg.Server.Environment)
	logger := observability.GetLogger()

	interval, err := resolveInterval(intervalFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid reindex interval")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset, *logger); err != nil {
			logger.Error().Err(err).Msg("Reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		logger.Info().Dur("interval", interval).Msg("Reindex complete, waiting for next run")

		select {
		case <-ctx.Done():
			logger.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

// resolveInterval reads the repeat cadence from the flag, falling back to
// INDEX_INTERVAL_SECONDS. Empty means run once and exit.
func resolveInterval(flagValue string) (time.Duration, error) {
	value := strings.TrimSpace(flagValue)
	if value != "" {
		interval, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid interval %q: %w", value, err)
		}
		if interval <= 0 {
			return 0, fmt.Errorf("interval must be greater than zero")
		}
		return interval, nil
	}

	if raw := strings.TrimSpace(os.Getenv("INDEX_INTERVAL_SECONDS")); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return 0, fmt.Errorf("invalid INDEX_INTERVAL_SECONDS %q", raw)
		}
		return time.Duration(secs) * time.Second, nil
	}

	return 0, nil
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool, logger zerolog.Logger) error {
	var facilityCatalog repositories.FacilityCatalog
	switch cfg.Catalog.Source {
	case "file":
		fileCatalog, err := catalog.NewFileCatalog(cfg.Catalog.File, logger)
		if err != nil {
			return err
		}
		facilityCatalog = fileCatalog
	default:
		facilityCatalog = catalog.NewBuiltinCatalog()
	}

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	adapter := search.NewTypesenseAdapter(tsClient)

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		logger.Info().Msg("Reset requested, deleting locations collection")
		if err := adapter.DropCollection(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to delete collection")
		}
	}

	if err := adapter.InitSchema(ctx); err != nil {
		return err
	}

	locations := services.NewLocationService(facilityCatalog, adapter, nil, services.LocationConfig{
		HospitalRadiusKm: cfg.Map.HospitalRadiusKm,
		PharmacyRadiusKm: cfg.Map.PharmacyRadiusKm,
		EmergencyNumber:  cfg.Map.EmergencyNumber,
	}, logger)

	count, err := locations.ReindexAll(ctx)
	if err != nil {
		return err
	}

	logger.Info().Int("count", count).Msg("Indexing complete")

	publishIndexed(ctx, cfg, count, logger)
	return nil
}

// publishIndexed tells the API processes the index changed so response
// caches get flushed. Redis being down only delays invalidation until the
// cached entries expire, so failures are logged and swallowed.
func publishIndexed(ctx context.Context, cfg *config.Config, count int, logger zerolog.Logger) {
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, skipping catalog event publish")
		return
	}
	defer redisClient.Close()

	bus := events.NewRedisEventBus(redisClient, logger)
	defer bus.Close()

	event := entities.NewCatalogEvent(entities.CatalogEventTypeIndexed, "indexer", count)
	if err := bus.Publish(ctx, providers.EventChannelCatalogUpdates, event); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish catalog event")
	}
}
