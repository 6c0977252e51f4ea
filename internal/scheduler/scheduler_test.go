// FilePath: server/hub/internal/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsJobOnInterval(t *testing.T) {
	s := New()
	var runs atomic.Int32
	s.Register("tick", 10*time.Millisecond, false, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start(context.Background())
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	got := runs.Load()
	assert.GreaterOrEqual(t, got, int32(3))

	// No further runs after Stop.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, got, runs.Load())
}

func TestSchedulerRunOnStart(t *testing.T) {
	s := New()
	var runs atomic.Int32
	s.Register("eager", time.Hour, true, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(1), runs.Load())
}

func TestSchedulerTrigger(t *testing.T) {
	s := New()
	var runs atomic.Int32
	s.Register("manual", time.Hour, false, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	require.NoError(t, s.Trigger(context.Background(), "manual"))
	assert.Equal(t, int32(1), runs.Load())

	err := s.Trigger(context.Background(), "nope")
	assert.Error(t, err)
}

func TestSchedulerJobErrorDoesNotStopLoop(t *testing.T) {
	s := New()
	var runs atomic.Int32
	s.Register("flaky", 10*time.Millisecond, false, func(ctx context.Context) error {
		runs.Add(1)
		return assert.AnError
	})

	s.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, runs.Load(), int32(2))
}
