package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/config"
	"github.com/lalith-99/dormlink/internal/db"
	"github.com/lalith-99/dormlink/internal/observ"
	"github.com/lalith-99/dormlink/internal/repository"
	"github.com/lalith-99/dormlink/internal/repository/memory"
	"github.com/lalith-99/dormlink/internal/repository/postgres"
)

// app holds what every command needs: config, logger and an open store.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   repository.Store
	db      *db.DB
	closers []func()
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	a.onClose(func() { _ = logger.Sync() })

	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		a.store = memory.New()
	default:
		database, err := db.New(ctx, cfg.DatabaseURL, db.PoolOptions{
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		}, logger)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.onClose(database.Close)
		a.db = database
		a.store = postgres.New(database.Pool())
	}
	return a, nil
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// close runs cleanup in reverse registration order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
