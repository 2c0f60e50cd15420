package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"flightwatch-bot/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := NewScheduler(context.Background(), logger.NewNopLogger())
	assert.Error(t, s.AddJob("price", "every tuesday", func(context.Context) error { return nil }))
	assert.NoError(t, s.AddJob("price", "@every 1h", func(context.Context) error { return nil }))
	assert.NoError(t, s.AddJob("flight", "*/15 * * * *", func(context.Context) error { return nil }))
	assert.Len(t, s.cron.Entries(), 2)
}

func TestJobsReceiveContextAndRecover(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "scheduler")
	s := NewScheduler(ctx, logger.NewNopLogger())

	var seen interface{}
	require.NoError(t, s.AddJob("ok", "@every 1h", func(ctx context.Context) error {
		seen = ctx.Value(key{})
		return errors.New("logged, not returned")
	}))
	require.NoError(t, s.AddJob("panics", "@every 1h", func(context.Context) error {
		panic("boom")
	}))

	entries := s.cron.Entries()
	require.Len(t, entries, 2)
	entries[0].WrappedJob.Run()
	assert.Equal(t, "scheduler", seen)
	assert.NotPanics(t, entries[1].WrappedJob.Run)
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(context.Background(), logger.NewNopLogger())
	s.Start()
	done := make(chan struct{})
	go func() {
		s.Stop(time.Second)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
