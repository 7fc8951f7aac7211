package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
)

// ErrNoMigrations is returned by Rollback when nothing has been applied
var ErrNoMigrations = errors.New("no migrations to rollback")

// RunMigrations brings the schema up to date. SQLite uses gorm auto-migration,
// postgres applies the SQL files in migrationsDir.
func RunMigrations(ctx context.Context, db *gorm.DB, migrationsDir string) error {
	if db.Dialector.Name() == "sqlite" {
		logging.Info().Msg("using gorm auto-migration for sqlite")
		return db.WithContext(ctx).AutoMigrate(models.All()...)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	_, err = NewMigrator(sqlDB, migrationsDir).Up(ctx)
	return err
}

// Migrator applies NNNN_name.sql files in order and rolls them back with
// the matching NNNN_name_rollback.sql file.
type Migrator struct {
	db  *sql.DB
	dir string
}

func NewMigrator(db *sql.DB, dir string) *Migrator {
	return &Migrator{db: db, dir: dir}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

// files lists forward migration files in apply order
func (m *Migrator) files() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".sql" || strings.HasSuffix(name, "_rollback.sql") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Up applies every migration not yet recorded and returns their names
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	names, err := m.files()
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, name := range names {
		var exists bool
		err := m.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE name = $1)`, name,
		).Scan(&exists)
		if err != nil {
			return applied, fmt.Errorf("failed to check migration status: %w", err)
		}
		if exists {
			logging.Debug().Str("migration", name).Msg("skipping migration (already applied)")
			continue
		}

		if err := m.exec(ctx, name, `INSERT INTO schema_migrations (name) VALUES ($1)`); err != nil {
			return applied, err
		}
		logging.Info().Str("migration", name).Msg("applied migration")
		applied = append(applied, name)
	}
	return applied, nil
}

// Rollback reverts the most recently applied migration
func (m *Migrator) Rollback(ctx context.Context) (string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return "", err
	}

	var last string
	err := m.db.QueryRowContext(ctx,
		`SELECT name FROM schema_migrations ORDER BY applied_at DESC, name DESC LIMIT 1`,
	).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoMigrations
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last migration: %w", err)
	}

	rollback := strings.TrimSuffix(last, ".sql") + "_rollback.sql"
	if err := m.exec(ctx, rollback, `DELETE FROM schema_migrations WHERE name = $1`, last); err != nil {
		return "", err
	}
	logging.Info().Str("migration", last).Msg("rolled back migration")
	return last, nil
}

// exec runs file and the bookkeeping statement in one transaction.
// bookkeepingArg defaults to file itself.
func (m *Migrator) exec(ctx context.Context, file, bookkeeping string, bookkeepingArg ...string) error {
	content, err := os.ReadFile(filepath.Join(m.dir, file))
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", file, err)
	}

	arg := file
	if len(bookkeepingArg) > 0 {
		arg = bookkeepingArg[0]
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to execute migration %s: %w", file, err)
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, arg); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %s: %w", file, err)
	}
	return tx.Commit()
}
