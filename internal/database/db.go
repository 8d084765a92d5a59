package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	mu   sync.RWMutex
	pool *pgxpool.Pool
)

// Connect opens the process-wide connection pool and verifies it with a
// ping. Calling Connect while a pool is already open is an error; Close
// first to reconnect.
func Connect(ctx context.Context, connString string, maxConns, minConns int, maxLifetime, maxIdleTime time.Duration) error {
	mu.Lock()
	defer mu.Unlock()

	if pool != nil {
		return fmt.Errorf("database already connected")
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return fmt.Errorf("error parsing database config: %w", err)
	}

	cfg.MaxConns = int32(maxConns)
	cfg.MinConns = int32(minConns)
	cfg.MaxConnLifetime = maxLifetime
	cfg.MaxConnIdleTime = maxIdleTime
	cfg.HealthCheckPeriod = time.Minute

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error creating connection pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return fmt.Errorf("error connecting to database: %w", err)
	}

	pool = p
	return nil
}

// Close drains and releases the pool.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if pool != nil {
		pool.Close()
		pool = nil
	}
}

// Pool returns the process-wide pool, or nil before Connect.
func Pool() *pgxpool.Pool {
	mu.RLock()
	defer mu.RUnlock()
	return pool
}

// Status pings the database, for health checks.
func Status(ctx context.Context) error {
	p := Pool()
	if p == nil {
		return fmt.Errorf("database not initialized")
	}
	return p.Ping(ctx)
}

// Stats exposes pool utilization counters.
func Stats() *pgxpool.Stat {
	p := Pool()
	if p == nil {
		return nil
	}
	return p.Stat()
}
