package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logging"
)

// Open connects to the configured database and returns a gorm handle.
// Postgres goes through lib/pq so the pool settings and errors are pq's.
func Open(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormLogger(cfg)}

	switch cfg.DBDriver {
	case "sqlite":
		dsn := cfg.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000"
		db, err := gorm.Open(SQLiteDialector(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("error opening sqlite database: %w", err)
		}
		logging.Info().Str("path", cfg.SQLitePath).Msg("connected to sqlite")
		return db, nil

	case "postgres":
		logging.Info().
			Str("host", cfg.DBHost).
			Str("port", cfg.DBPort).
			Str("user", cfg.DBUser).
			Msg("connecting to database")

		sqlDB, err := sql.Open("postgres", cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("error opening database: %w", err)
		}

		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(pingCtx); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("error connecting to the database: %w", err)
		}

		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormCfg)
		if err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("error initializing gorm: %w", err)
		}
		logging.Info().Msg("connected to database")
		return db, nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
}

func gormLogger(cfg *config.Config) logger.Interface {
	if cfg.Env == config.Development {
		return logger.Default.LogMode(logger.Warn)
	}
	return logger.Default.LogMode(logger.Silent)
}

// HealthCheck pings the underlying connection pool
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the pool behind db
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
