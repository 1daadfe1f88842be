package main

import (
	"database/sql"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fieldroute-service/internal/adapters/repositories"
	"fieldroute-service/internal/config"
	"fieldroute-service/internal/platform/db"
)

// dbtool initializes the schema and seeds demo data against Postgres for
// shared environments. Local runs use the server's embedded SQLite path
// instead.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer conn.Close()

	if err := initAndSeed(conn, cfg.SeedPath); err != nil {
		log.Fatal().Err(err).Msg("init and seed")
	}
}

func initAndSeed(conn *sql.DB, seedPath string) error {
	log.Info().Msg("initializing database schema")
	if err := repositories.InitSchema(conn); err != nil {
		return err
	}
	log.Info().Msg("schema ready")

	log.Info().Str("path", seedPath).Msg("seeding database")
	if err := repositories.SeedFromJSON(conn, seedPath); err != nil {
		return err
	}
	log.Info().Msg("seeding complete")

	return nil
}
