package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"busticket/internal/db"
	"busticket/internal/utils"
)

// ConnectDB opens the pool for the configured dialect and pings it.
func ConnectDB(ctx context.Context, env Env) (*sql.DB, error) {
	dsn, err := dataSourceName(env.Dialect, env.DatabaseURL)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(env.Dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", env.Dialect, err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := Ping(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", env.Dialect, err)
	}

	utils.LogEvent("", "DB", "connect", fmt.Sprintf("connected driver=%s", env.Dialect))
	return sqlDB, nil
}

// Ping checks the pool with a short deadline.
func Ping(ctx context.Context, sqlDB *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// dataSourceName forces the MySQL options the repositories rely on: DATE and
// TIMESTAMP columns scan into time.Time in UTC.
func dataSourceName(dialect db.Dialect, raw string) (string, error) {
	if dialect == db.Postgres {
		return raw, nil
	}
	cfg, err := mysql.ParseDSN(raw)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	if cfg.Collation == "" || cfg.Collation == "utf8mb4_general_ci" {
		cfg.Collation = "utf8mb4_unicode_ci"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	return cfg.FormatDSN(), nil
}

// Ready pings the pool and checks the ledger tables exist.
func Ready(ctx context.Context, sqlDB *sql.DB, dialect db.Dialect) error {
	if err := Ping(ctx, sqlDB); err != nil {
		return err
	}
	for _, table := range []string{"routes", "bookings"} {
		ok, err := dialect.HasTable(ctx, sqlDB, table)
		if err != nil {
			return fmt.Errorf("check table %s: %w", table, err)
		}
		if !ok {
			return fmt.Errorf("table %s is missing, run migrations", table)
		}
	}
	return nil
}
