package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PoolOptions tunes the connection pool. Zero values fall back to the
// defaults below.
type PoolOptions struct {
	MaxConns int32
	MinConns int32
}

type DB struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New opens a pool from a Postgres URL and pings it once.
func New(ctx context.Context, databaseURL string, opts PoolOptions, logger *zap.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	// Pool defaults:
	//
	// MaxConns (25): every request holds a connection only for its
	//   transaction; websocket streams hold none, they wait on the hub.
	//   25 stays well under the usual max_connections of 100.
	//
	// MinConns (5): warm connections for the first requests after idle.
	//
	// MaxConnLifetime / MaxConnIdleTime / HealthCheckPeriod: recycle and
	//   probe connections so failovers and dropped TCP sessions surface
	//   in the pool rather than in a user's request.
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = min(opts.MinConns, poolConfig.MaxConns)
	}
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 20 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}

	logger.Info("DB connection established",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.String("database", poolConfig.ConnConfig.Database),
		zap.Int32("max_conns", poolConfig.MaxConns),
		zap.Int32("min_conns", poolConfig.MinConns),
	)
	return &DB{
		pool:   pool,
		logger: logger,
	}, nil
}

func (db *DB) Close() {
	db.logger.Info("closing database connection pool")
	db.pool.Close()
}

func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) Health(ctx context.Context) error {
	return db.pool.Ping(ctx)
}
