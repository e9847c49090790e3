package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations is the schema as a filesystem rooted at the SQL files.
func Migrations() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// MigrationStatus represents the status of a migration (applied or pending).
type MigrationStatus struct {
	Version   int64
	Name      string
	Applied   bool
	AppliedAt *time.Time
}

// Migrator applies the embedded goose migrations through the pgx stdlib adapter.
type Migrator struct {
	db       *sql.DB
	provider *goose.Provider
}

func NewMigrator(pool *pgxpool.Pool) (*Migrator, error) {
	sqlDB := stdlib.OpenDBFromPool(pool)
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, Migrations())
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return &Migrator{db: sqlDB, provider: provider}, nil
}

// Up applies all pending migrations and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("migrate up: %w", err)
	}
	return len(results), nil
}

// Down rolls back the most recent migration. It returns the rolled back
// version, or 0 when nothing was applied.
func (m *Migrator) Down(ctx context.Context) (int64, error) {
	res, err := m.provider.Down(ctx)
	if errors.Is(err, goose.ErrNoNextVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("migrate down: %w", err)
	}
	return res.Source.Version, nil
}

func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	states, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}

	statuses := make([]MigrationStatus, 0, len(states))
	for _, st := range states {
		s := MigrationStatus{
			Version: st.Source.Version,
			Name:    st.Source.Path,
		}
		if st.State == goose.StateApplied {
			s.Applied = true
			at := st.AppliedAt
			s.AppliedAt = &at
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

// Close releases the stdlib handle; the underlying pool stays open.
func (m *Migrator) Close() error {
	return m.db.Close()
}
