// Package migration applies the embedded SQL schema with golang-migrate.
package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"invoicepro/migrations"
	"invoicepro/pkg/logger"
)

// Migrator runs schema migrations against one database.
type Migrator struct {
	migrate *migrate.Migrate
}

// New creates a Migrator for a postgres:// URL using the embedded schema.
func New(databaseURL string) (*Migrator, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return &Migrator{migrate: m}, nil
}

// NewFromPath creates a Migrator reading NNNNNN_name.{up,down}.sql files
// from dir instead of the embedded schema.
func NewFromPath(databaseURL, dir string) (*Migrator, error) {
	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return &Migrator{migrate: m}, nil
}

// Open picks NewFromPath when dir is set and New otherwise.
func Open(databaseURL, dir string) (*Migrator, error) {
	if dir != "" {
		return NewFromPath(databaseURL, dir)
	}
	return New(databaseURL)
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	err := m.migrate.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info(ctx, "no migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration up: %w", err)
	}
	return m.logVersion(ctx, "migrations applied")
}

// Down rolls back steps migrations; steps <= 0 rolls back everything.
func (m *Migrator) Down(ctx context.Context, steps int) error {
	var err error
	if steps > 0 {
		err = m.migrate.Steps(-steps)
	} else {
		err = m.migrate.Down()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info(ctx, "no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration down: %w", err)
	}
	return m.logVersion(ctx, "migrations rolled back")
}

// Version returns the current schema version and dirty flag.
// A database without migrations reports version 0.
func (m *Migrator) Version() (uint, bool, error) {
	v, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (m *Migrator) logVersion(ctx context.Context, msg string) error {
	v, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	logger.Info(ctx, msg, "version", v, "dirty", dirty)
	return nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr)
}
