// Package database centralises sqlx connection helpers for the session
// store.  The driver is go-sql-driver/mysql, which also works with MariaDB.
//
// Public entry points:
//
//	Open(ctx, dsn)                     – conservative pool for one-shot CGI runs.
//	OpenWithOptions(ctx, dsn, pool)    – fine-grained control.
//
// Both helpers Ping the database before returning so callers can fail fast
// during bootstrap.  Callers should Close() the returned *sqlx.DB.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Pool bounds connection usage.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// DefaultPool suits a process serving a single request: two connections at
// most, recycled after five minutes.
var DefaultPool = Pool{MaxOpen: 2, MaxIdle: 1, MaxLifetime: 5 * time.Minute}

// Open returns a *sqlx.DB using DefaultPool.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, DefaultPool)
}

// OpenWithOptions validates the DSN, applies pool limits, and pings.
// parseTime is forced on so DATETIME columns scan into time.Time.
func OpenWithOptions(ctx context.Context, dsn string, p Pool) (*sqlx.DB, error) {
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("database dsn: %w", err)
	}
	mc.ParseTime = true

	db, err := sqlx.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(p.MaxOpen)
	db.SetMaxIdleConns(p.MaxIdle)
	db.SetConnMaxLifetime(p.MaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database ping %s: %w", mc.Addr, err)
	}
	return db, nil
}
