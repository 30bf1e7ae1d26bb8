package driver

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DatabaseDriver wraps the pgx pool for the relational read paths
// (category hierarchy lookups and full-rebuild scans).
type DatabaseDriver struct {
	Pool *pgxpool.Pool
}

func NewDatabaseDriver(ctx context.Context, connString string) (*DatabaseDriver, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("database init: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}

	return &DatabaseDriver{Pool: pool}, nil
}

func (d *DatabaseDriver) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
}
