package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/fhuszti/media-pipeline/internal/logger"
)

type Database struct {
	*sql.DB
}

// New opens the pool described by cfg and pings it once.
func New(ctx context.Context, cfg Config) (*Database, error) {
	mc, err := cfg.driverConfig()
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("create mariadb connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping mariadb at %s: %w", mc.Addr, err), db.Close())
	}
	logger.Infof(ctx, "✅  Connected to MariaDB at %s/%s", mc.Addr, mc.DBName)
	return &Database{db}, nil
}
