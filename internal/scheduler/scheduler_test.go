package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeExpirer struct {
	today string
	n     int
	err   error
	calls []string
}

func (f *fakeExpirer) Today() string { return f.today }

func (f *fakeExpirer) ExpireLeases(_ context.Context, today string) (int, error) {
	f.calls = append(f.calls, today)
	return f.n, f.err
}

func TestDailySpec(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "02:00", want: "0 2 * * *"},
		{in: "23:45", want: "45 23 * * *"},
		{in: "00:05", want: "5 0 * * *"},
		{in: "24:00", wantErr: true},
		{in: "2am", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := DailySpec(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunNow(t *testing.T) {
	t.Run("passes today through", func(t *testing.T) {
		f := &fakeExpirer{today: "2025-09-01", n: 2}
		s := New(f, "02:00", zap.NewNop())

		n, err := s.RunNow(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []string{"2025-09-01"}, f.calls)
	})

	t.Run("partial failure reports the count and the error", func(t *testing.T) {
		failure := errors.New("one lease failed")
		f := &fakeExpirer{today: "2025-09-01", n: 1, err: failure}
		s := New(f, "02:00", zap.NewNop())

		n, err := s.RunNow(context.Background())
		require.ErrorIs(t, err, failure)
		assert.Contains(t, err.Error(), "2025-09-01")
		assert.Equal(t, 1, n)
	})
}

func TestStartStop(t *testing.T) {
	t.Run("rejects a bad time", func(t *testing.T) {
		s := New(&fakeExpirer{}, "noon", zap.NewNop())
		assert.Error(t, s.Start(context.Background()))
	})

	t.Run("start is idempotent and stop is safe twice", func(t *testing.T) {
		s := New(&fakeExpirer{}, "03:30", zap.NewNop())
		require.NoError(t, s.Start(context.Background()))
		require.NoError(t, s.Start(context.Background()))
		assert.Len(t, s.cron.Entries(), 1)

		s.Stop()
		s.Stop()
	})
}
