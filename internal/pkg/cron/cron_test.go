package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler() *Scheduler {
	return NewScheduler(logrus.NewEntry(logrus.New()), time.Second)
}

func TestScheduler_AddAndRunNow(t *testing.T) {
	s := newTestScheduler()
	var calls atomic.Int32

	require.NoError(t, s.Add("goal-reminders", "0 9 * * *", func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 3, nil
	}))
	require.NoError(t, s.Add("manual-only", "", func(ctx context.Context) (int, error) {
		return 0, nil
	}))

	assert.Equal(t, []string{"goal-reminders", "manual-only"}, s.Jobs())
	assert.Equal(t, 1, s.Scheduled())

	n, err := s.RunNow(context.Background(), "goal-reminders")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int32(1), calls.Load())
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := newTestScheduler()
	err := s.Add("broken", "not a spec", func(ctx context.Context) (int, error) { return 0, nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Zero(t, s.Scheduled())
}

func TestScheduler_UnknownJob(t *testing.T) {
	s := newTestScheduler()
	_, err := s.RunNow(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestScheduler_JobError(t *testing.T) {
	s := newTestScheduler()
	boom := errors.New("db down")
	require.NoError(t, s.Add("expire-spotlights", "", func(ctx context.Context) (int, error) {
		return 1, boom
	}))

	n, err := s.RunNow(context.Background(), "expire-spotlights")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
}

func TestScheduler_Timeout(t *testing.T) {
	s := NewScheduler(logrus.NewEntry(logrus.New()), 20*time.Millisecond)
	require.NoError(t, s.Add("slow", "", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}))

	_, err := s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_StartStop(t *testing.T) {
	s := newTestScheduler()
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
