// Package scheduler runs the daily lease-expiry sweep.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// LeaseExpirer ends every active lease whose end date is before today.
type LeaseExpirer interface {
	Today() string
	ExpireLeases(ctx context.Context, today string) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	leases  LeaseExpirer
	runAt   string
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	running bool
}

// New builds a scheduler that sweeps leases once a day at runAt ("HH:MM",
// server local time).
func New(leases LeaseExpirer, runAt string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		leases: leases,
		runAt:  runAt,
		logger: logger.Named("scheduler"),
	}
}

// DailySpec converts "HH:MM" to a cron spec: "02:30" -> "30 2 * * *".
func DailySpec(hhmm string) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("lease sweep time %q must be HH:MM", hhmm)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}

// Start registers the sweep and starts the cron loop. Jobs run with a
// context that Stop cancels.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	spec, err := DailySpec(s.runAt)
	if err != nil {
		return err
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	if _, err := s.cron.AddFunc(spec, func() {
		// failures are logged by RunNow; the next day's run retries them
		_, _ = s.RunNow(s.ctx)
	}); err != nil {
		s.cancel()
		return fmt.Errorf("schedule lease sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("lease sweep scheduled", zap.String("at", s.runAt), zap.String("cron", spec))
	return nil
}

// Stop cancels in-flight sweeps and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("scheduler stopped")
}

// RunNow performs one sweep. It returns how many leases it ended, together
// with any failure; a partial failure still reports the leases it did end.
func (s *Scheduler) RunNow(ctx context.Context) (int, error) {
	today := s.leases.Today()
	n, err := s.leases.ExpireLeases(ctx, today)
	if err != nil {
		s.logger.Error("lease sweep failed", zap.String("today", today), zap.Int("expired", n), zap.Error(err))
		return n, fmt.Errorf("lease sweep %s: %w", today, err)
	}
	s.logger.Info("lease sweep finished", zap.String("today", today), zap.Int("expired", n))
	return n, nil
}
