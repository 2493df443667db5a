// Package migration applies the embedded SQL schema with golang-migrate.
package migration

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var files embed.FS

var (
	// ErrDSNRequired is returned when no database URL is given.
	ErrDSNRequired = errors.New("migration: database url is required")
	// ErrDirection is returned for anything other than "up" or "down".
	ErrDirection = errors.New("migration: direction must be up or down")
)

// Run migrates the database at dsn (postgres:// or pgx5://) in direction.
// Being already at the target version is not an error.
func Run(dsn, direction string) error {
	if dsn == "" {
		return ErrDSNRequired
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("%w, got %q", ErrDirection, direction)
	}

	src, err := iofs.New(files, "sql")
	if err != nil {
		return fmt.Errorf("migration: source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, driverURL(dsn))
	if err != nil {
		return fmt.Errorf("migration: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if direction == "up" {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration: %s: %w", direction, err)
	}

	return nil
}

func driverURL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}
