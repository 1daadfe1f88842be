package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"fieldroute-service/internal/adapters/cache"
	"fieldroute-service/internal/adapters/distance"
	"fieldroute-service/internal/adapters/repositories"
	"fieldroute-service/internal/api"
	"fieldroute-service/internal/config"
	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/ports"
)

// main is the application composition root.
// It wires concrete adapters (SQLite, distance providers) behind ports and
// starts the HTTP server.
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	db, err := openDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	// Initialize schema and seed demo data on startup for local runs.
	if err := initAndSeed(db, cfg.SeedPath); err != nil {
		log.Fatal().Err(err).Msg("init database")
	}

	dist, err := buildDistanceFunc(cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("build distance provider")
	}

	workOrderRepo := repositories.NewSqliteWorkOrderRepository(db)
	itineraryRepo := repositories.NewSqliteItineraryRepository(db, workOrderRepo)
	customerRepo := repositories.NewSqliteCustomerRepository(db)

	tolerance := time.Duration(cfg.LateToleranceMin) * time.Minute
	router := api.NewRouter(workOrderRepo, itineraryRepo, customerRepo, dist, tolerance)

	log.Info().Str("addr", ":"+cfg.Port).Msg("server listening")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal().Err(srv.ListenAndServe()).Msg("server stopped")
}

// buildDistanceFunc selects the metric for route optimization. Remote road
// distance runs behind the persistent pair cache; haversine needs neither
// network nor cache.
func buildDistanceFunc(cfg config.Config, db *sql.DB) (domain.DistanceFunc, error) {
	switch cfg.DistanceProvider {
	case "haversine", "":
		return domain.Haversine, nil
	case "remote":
		remote, err := distance.NewRemoteDistanceProvider(cfg.RouteAPIURL, cfg.RouteAPIKey)
		if err != nil {
			return nil, err
		}
		cached := cache.NewCachedDistanceProvider(cache.NewSqliteDistanceCache(db), remote)
		return adaptProvider(cached), nil
	default:
		return nil, fmt.Errorf("unknown distance provider %q", cfg.DistanceProvider)
	}
}

// adaptProvider bridges a failable provider to the engine's pure metric.
// Resolution failures fall back to great-circle distance so route
// optimization degrades instead of aborting.
func adaptProvider(provider ports.DistanceProvider) domain.DistanceFunc {
	return func(a, b domain.Coordinates) float64 {
		km, err := provider.GetDistance(context.Background(), a, b)
		if err != nil {
			log.Warn().Err(err).Msg("distance provider failed, using haversine")
			return domain.Haversine(a, b)
		}
		return km
	}
}

func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}

	return db, nil
}

func initAndSeed(db *sql.DB, seedPath string) error {
	if err := repositories.InitSchema(db); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if _, err := os.Stat(seedPath); os.IsNotExist(err) {
		log.Info().Str("path", seedPath).Msg("no seed file, skipping")
		return nil
	}

	if err := repositories.SeedFromJSON(db, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}
