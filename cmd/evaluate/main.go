package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/lifexia/healthnav/internal/adapters/catalog"
	"github.com/lifexia/healthnav/internal/adapters/search"
	"github.com/lifexia/healthnav/internal/application/services"
	"github.com/lifexia/healthnav/internal/domain/repositories"
	"github.com/lifexia/healthnav/internal/evaluation"
	"github.com/lifexia/healthnav/internal/infrastructure/clients/typesense"
	"github.com/lifexia/healthnav/internal/infrastructure/observability"
	"github.com/lifexia/healthnav/pkg/config"
)

func main() {
	var goldenPath string
	flag.StringVar(&goldenPath, "golden", "config/golden_queries.json", "path to the golden query set")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-evaluate", cfg.Server.Environment)
	logger := observability.GetLogger()

	var facilityCatalog repositories.FacilityCatalog
	switch cfg.Catalog.Source {
	case "file":
		fileCatalog, err := catalog.NewFileCatalog(cfg.Catalog.File, *logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to load catalog file")
		}
		facilityCatalog = fileCatalog
	default:
		facilityCatalog = catalog.NewBuiltinCatalog()
	}

	// Evaluate against the live index when one is reachable, otherwise fall
	// back to the same in-memory matching the API serves when Typesense is
	// down. Both paths are worth measuring.
	var searchRepo repositories.SearchRepository
	flags := services.NewFeatureFlags()
	if flags.SearchIndexEnabled() {
		tsClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			logger.Warn().Err(err).Msg("Typesense unavailable, evaluating in-memory matching")
		} else {
			searchRepo = search.NewTypesenseAdapter(tsClient)
		}
	}

	locations := services.NewLocationService(facilityCatalog, searchRepo, nil, services.LocationConfig{
		HospitalRadiusKm: cfg.Map.HospitalRadiusKm,
		PharmacyRadiusKm: cfg.Map.PharmacyRadiusKm,
		EmergencyNumber:  cfg.Map.EmergencyNumber,
	}, *logger)

	queries, err := evaluation.LoadGoldenQueries(goldenPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load golden queries")
	}
	if err := evaluation.ValidateGoldenQueries(queries); err != nil {
		logger.Fatal().Err(err).Msg("Golden query set is invalid")
	}

	runner := evaluation.NewRunner(locations)
	summary, err := runner.Run(context.Background(), queries)
	if err != nil {
		logger.Fatal().Err(err).Msg("Evaluation failed")
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}
