package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config carries the environment-driven settings for both binaries.
type Config struct {
	Port             string `envconfig:"PORT" default:"8080"`
	DBPath           string `envconfig:"DB_PATH" default:"data/app.db"`
	DatabaseURL      string `envconfig:"DATABASE_URL"`
	SeedPath         string `envconfig:"SEED_PATH" default:"data/seeds/fieldservice.json"`
	DistanceProvider string `envconfig:"DISTANCE_PROVIDER" default:"haversine"`
	RouteAPIURL      string `envconfig:"ROUTE_API_URL"`
	RouteAPIKey      string `envconfig:"ROUTE_API_KEY"`
	LateToleranceMin int    `envconfig:"LATE_TOLERANCE_MIN" default:"15"`
}

// Load reads .env when present, then resolves Config from the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found (using environment variables)")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
