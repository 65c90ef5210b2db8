package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/lifexia/healthnav/internal/adapters/catalog"
	"github.com/lifexia/healthnav/internal/adapters/console"
	"github.com/lifexia/healthnav/internal/adapters/providers/geolocation"
	"github.com/lifexia/healthnav/internal/adapters/sources"
	"github.com/lifexia/healthnav/internal/application/services"
	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/providers"
	"github.com/lifexia/healthnav/internal/domain/repositories"
	"github.com/lifexia/healthnav/internal/infrastructure/observability"
	"github.com/lifexia/healthnav/internal/mapsession"
	"github.com/lifexia/healthnav/pkg/config"
)

func main() {
	var apiURL string
	var address string
	var radius float64
	flag.StringVar(&apiURL, "api", "", "aggregation API base URL; empty serves from the local catalog")
	flag.StringVar(&address, "address", "", "kiosk site address to geocode as the session origin")
	flag.Float64Var(&radius, "radius", 0, "fetch radius in km; 0 lets the source decide")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-kiosk", cfg.Server.Environment)
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := buildSource(apiURL, cfg, *logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build facility source")
	}

	session := mapsession.NewSession(
		mapsession.Config{
			DefaultCenter: entities.Location{
				Latitude:  cfg.Map.DefaultLatitude,
				Longitude: cfg.Map.DefaultLongitude,
			},
			RadiusKm: radius,
		},
		source,
		buildLocator(address, cfg, *logger),
		console.NewCanvas(*logger),
		console.NewSurface(os.Stdout),
		nil,
		*logger,
	)

	if err := session.Open(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to open session")
	}
	defer session.Dispose()

	logger.Info().Str("city", cfg.Map.DefaultCity).Msg("Kiosk session started")
	fmt.Println("Commands: filter <category> | search <text> | sort <distance|rating|name> | select <id> | clear | quit")

	repl(ctx, session)
}

// repl reads console commands line by line until quit, stdin closing or a
// shutdown signal. The session renders asynchronously, so command output
// arrives when the matching fetch lands, not on the next prompt.
func repl(ctx context.Context, session *mapsession.Session) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !dispatch(session, line) {
				return
			}
		}
	}
}

// dispatch applies one console command. It returns false on quit.
func dispatch(session *mapsession.Session, line string) bool {
	command, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(command) {
	case "":
	case "filter":
		session.SetFilter(arg)
	case "search":
		session.Search(arg)
	case "sort":
		session.SetSort(mapsession.SortKey(strings.ToLower(arg)))
	case "select":
		session.Select(arg)
	case "clear":
		session.ClearSelection()
	case "quit", "exit":
		return false
	default:
		fmt.Printf("Unknown command %q\n", command)
	}
	return true
}

// buildSource picks where facilities come from: a remote aggregation API when
// one is configured, the local catalog service otherwise.
func buildSource(apiURL string, cfg *config.Config, logger zerolog.Logger) (providers.FacilitySource, error) {
	if strings.TrimSpace(apiURL) != "" {
		return sources.NewAPISource(apiURL, logger), nil
	}

	var facilityCatalog repositories.FacilityCatalog
	switch cfg.Catalog.Source {
	case "file":
		fileCatalog, err := catalog.NewFileCatalog(cfg.Catalog.File, logger)
		if err != nil {
			return nil, err
		}
		facilityCatalog = fileCatalog
	default:
		facilityCatalog = catalog.NewBuiltinCatalog()
	}

	locations := services.NewLocationService(facilityCatalog, nil, nil, services.LocationConfig{
		HospitalRadiusKm: cfg.Map.HospitalRadiusKm,
		PharmacyRadiusKm: cfg.Map.PharmacyRadiusKm,
		EmergencyNumber:  cfg.Map.EmergencyNumber,
	}, logger)
	return sources.NewServiceSource(locations), nil
}

// buildLocator resolves the session origin: a configured site address
// geocodes through the configured provider, anything else pins the kiosk to
// the default center.
func buildLocator(address string, cfg *config.Config, logger zerolog.Logger) providers.Locator {
	if strings.TrimSpace(address) == "" {
		return geolocation.NewFixedLocator(cfg.Map.DefaultLatitude, cfg.Map.DefaultLongitude)
	}

	var provider providers.GeolocationProvider
	if cfg.Geolocation.Provider == "google" && cfg.Geolocation.APIKey != "" {
		provider = geolocation.NewGoogleGeolocationProvider(cfg.Geolocation.APIKey, nil)
	} else {
		logger.Warn().Msg("No geocoding credentials, resolving the site address with the mock provider")
		provider = geolocation.NewMockGeolocationProvider()
	}
	return geolocation.NewGeocodeLocator(provider, address)
}
