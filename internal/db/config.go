package db

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config describes a MariaDB connection pool.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// MultiStatements is only needed by the migration runner.
	MultiStatements bool
}

// driverConfig parses the DSN and pins the options the repository relies on:
// DATETIME columns scan into time.Time, in UTC.
func (c Config) driverConfig() (*mysql.Config, error) {
	mc, err := mysql.ParseDSN(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse mariadb DSN: %w", err)
	}
	mc.ParseTime = true
	mc.Loc = time.UTC
	if c.MultiStatements {
		mc.MultiStatements = true
	}
	return mc, nil
}
