package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
)

func main() {
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	dir := flag.String("dir", "", "Migrations directory (defaults to MIGRATIONS_DIR)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if *dir != "" {
		cfg.MigrationsDir = *dir
	}
	if cfg.DBDriver != "postgres" {
		logging.Fatal().Str("driver", cfg.DBDriver).Msg("SQL migrations require the postgres driver")
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	sqlDB, err := db.DB()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to get database handle")
	}
	migrator := database.NewMigrator(sqlDB, cfg.MigrationsDir)

	if *rollback {
		name, err := migrator.Rollback(ctx)
		if errors.Is(err, database.ErrNoMigrations) {
			fmt.Println("No migrations to rollback")
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "rollback failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Successfully rolled back migration: %s\n", name)
		return
	}

	applied, err := migrator.Up(ctx)
	for _, name := range applied {
		fmt.Printf("Successfully applied migration: %s\n", name)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("All migrations applied successfully.")
}
