package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/fhuszti/media-pipeline/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("could not create source driver: %w", err)
	}
	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		return nil, fmt.Errorf("could not create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "mysql", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize migration: %w", err)
	}
	return m, nil
}

// MigrateUp applies every pending migration. A schema left dirty by a failed
// run is forced back to the version before the failing one and retried once.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}

	err = m.Up()
	var dirty migrate.ErrDirty
	if errors.As(err, &dirty) {
		prev, perr := previousVersion(uint(dirty.Version))
		if perr != nil {
			return perr
		}
		logger.Warnf(ctx, "⚠️  database dirty at version %d, forcing back to %d", dirty.Version, prev)
		if ferr := m.Force(prev); ferr != nil {
			return fmt.Errorf("failed to force to version %d: %w", prev, ferr)
		}
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	logVersion(ctx, m)
	return nil
}

// MigrateDown rolls back the given number of migrations.
func MigrateDown(ctx context.Context, db *sql.DB, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down %d failed: %w", steps, err)
	}
	logVersion(ctx, m)
	return nil
}

func logVersion(ctx context.Context, m *migrate.Migrate) {
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info(ctx, "schema is empty")
	case err == nil:
		logger.Infof(ctx, "schema at version %d (dirty=%t)", version, dirty)
	}
}

// versions lists the embedded up migrations, ascending.
func versions() ([]uint, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}
	var out []uint
	for _, e := range entries {
		// <version>_<description>.up.sql
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		raw, _, _ := strings.Cut(e.Name(), "_")
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, uint(v))
	}
	slices.Sort(out)
	return out, nil
}

// previousVersion returns the version to force a dirty schema back to.
// The first migration has no predecessor: the schema is reset to empty.
func previousVersion(dirty uint) (int, error) {
	vs, err := versions()
	if err != nil {
		return 0, err
	}
	i := slices.Index(vs, dirty)
	switch {
	case i < 0:
		return 0, fmt.Errorf("dirty at unknown version %d", dirty)
	case i == 0:
		return database.NilVersion, nil
	default:
		return int(vs[i-1]), nil
	}
}
