package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/api"
	"github.com/lalith-99/dormlink/internal/config"
	"github.com/lalith-99/dormlink/internal/db"
	"github.com/lalith-99/dormlink/internal/notify"
	"github.com/lalith-99/dormlink/internal/scheduler"
	"github.com/lalith-99/dormlink/internal/workflow"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dormlink",
		Short:         "Student housing, visits, leases, events and carpools",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return migrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "sweep-leases",
			Short: "Expire every lease whose end date has passed and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return sweepLeases(cmd.Context())
			},
		},
	)
	return root
}

func serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.db != nil {
		if _, err := db.Migrate(ctx, a.db.Pool(), a.logger); err != nil {
			return err
		}
	}

	hub := notify.NewHub(a.store.Repos().Notifications, a.logger)
	if a.cfg.RedisURL != "" {
		if err := startRelay(ctx, a, hub); err != nil {
			return err
		}
	}

	engine := workflow.New(a.store, hub, a.logger)

	if a.cfg.LeaseSweepEnabled {
		sched := scheduler.New(engine, a.cfg.LeaseSweepTime, a.logger)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	var health api.HealthChecker
	if a.db != nil {
		health = a.db.Health
	}

	srv := &http.Server{
		Addr: ":" + a.cfg.Port,
		Handler: api.NewRouter(api.Deps{
			Engine:         engine,
			Hub:            hub,
			JWTSecret:      a.cfg.JWTSecret,
			TokenTTL:       a.cfg.TokenTTL,
			AllowedOrigins: a.cfg.AllowedOrigins,
			Health:         health,
			Done:           ctx.Done(),
			Logger:         a.logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting dormlink",
			zap.String("port", a.cfg.Port),
			zap.String("env", a.cfg.Env),
			zap.String("store", a.cfg.Store),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// startRelay connects to Redis and forwards notifications between
// instances until ctx is cancelled.
func startRelay(ctx context.Context, a *app, hub *notify.Hub) error {
	opts, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("ping redis: %w", err)
	}
	a.onClose(func() { _ = client.Close() })

	relay := notify.NewRedisRelay(client, notify.DefaultChannel, a.logger)
	hub.SetRelay(relay)
	go func() {
		if err := relay.Run(ctx, hub); err != nil {
			a.logger.Error("notification relay stopped", zap.Error(err))
		}
	}()
	return nil
}

func migrate(ctx context.Context) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.db == nil {
		return fmt.Errorf("migrate needs STORE=%s", config.StorePostgres)
	}
	applied, err := db.Migrate(ctx, a.db.Pool(), a.logger)
	if err != nil {
		return err
	}
	fmt.Printf("applied %d migration(s)\n", len(applied))
	return nil
}

func sweepLeases(ctx context.Context) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	hub := notify.NewHub(a.store.Repos().Notifications, a.logger)
	engine := workflow.New(a.store, hub, a.logger)
	return runSweep(ctx, scheduler.New(engine, a.cfg.LeaseSweepTime, a.logger), os.Stdout)
}

// leaseSweeper is the part of the scheduler sweep-leases drives.
type leaseSweeper interface {
	RunNow(ctx context.Context) (int, error)
}

// runSweep reports how many leases ended and fails the command when any
// lease could not be expired.
func runSweep(ctx context.Context, s leaseSweeper, out io.Writer) error {
	n, err := s.RunNow(ctx)
	fmt.Fprintf(out, "expired %d lease(s)\n", n)
	return err
}
