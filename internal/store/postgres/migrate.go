package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies all pending schema migrations from the embedded files.
// It is a no-op when the schema is current.
func Migrate(ctx context.Context, databaseURL string) error {
	logger := slog.Default().With("component", "migrate")

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open database for migration: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database for migration: %w", err)
	}

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{
		MigrationsTable: pgxmigrate.DefaultMigrationsTable,
	})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	m.Log = migrateLogger{logger}

	err = m.Up()
	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		logger.Warn("close migrator", "source_error", srcErr, "db_error", dbErr)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("schema up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	logger.Info("migrations applied")
	return nil
}

// migrateLogger adapts slog to migrate.Logger.
type migrateLogger struct {
	l *slog.Logger
}

func (m migrateLogger) Printf(format string, v ...any) {
	m.l.Debug(fmt.Sprintf(format, v...))
}

func (m migrateLogger) Verbose() bool { return false }
