package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/fhuszti/media-pipeline/internal/db"
	"github.com/fhuszti/media-pipeline/internal/migration"
)

type TestDB struct {
	DB      *sql.DB
	Cleanup func() error
}

// SetupTestDB creates a fresh schema named after TEST_DB_DSN's database and
// runs the migrations on it.
func SetupTestDB(ctx context.Context) (*TestDB, error) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		return nil, fmt.Errorf("TEST_DB_DSN env-var not set")
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN %q: %w", dsn, err)
	}

	dbName := fmt.Sprintf("%s_%d", cfg.DBName, time.Now().UnixNano())
	cfg.DBName = ""
	rootDB, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open root DB: %w", err)
	}
	if _, err := rootDB.ExecContext(ctx, "CREATE DATABASE "+dbName); err != nil {
		_ = rootDB.Close()
		return nil, fmt.Errorf("create database %q: %w", dbName, err)
	}

	cfg.DBName = dbName
	database, err := db.New(ctx, db.Config{
		DSN:             cfg.FormatDSN(),
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
		MultiStatements: true,
	})
	if err != nil {
		_, _ = rootDB.Exec("DROP DATABASE " + dbName)
		_ = rootDB.Close()
		return nil, fmt.Errorf("open test DB %q: %w", dbName, err)
	}

	cleanup := func() error {
		if err := database.Close(); err != nil {
			return err
		}
		if _, err := rootDB.Exec("DROP DATABASE " + dbName); err != nil {
			_ = rootDB.Close()
			return fmt.Errorf("drop database %q: %w", dbName, err)
		}
		return rootDB.Close()
	}

	if err := migration.MigrateUp(ctx, database.DB); err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("migrate %q: %w", dbName, err)
	}

	return &TestDB{DB: database.DB, Cleanup: cleanup}, nil
}
