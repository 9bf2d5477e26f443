package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookreader/internal/tasks"
)

type fakeSessions struct {
	idle  []time.Duration
	count int
}

func (f *fakeSessions) CloseIdle(_ context.Context, idle time.Duration) int {
	f.idle = append(f.idle, idle)
	return f.count
}

type fakeQueue struct {
	tasks []backlite.Task
	err   error
}

func (f *fakeQueue) Enqueue(_ context.Context, task backlite.Task) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.tasks = append(f.tasks, task)
	return "id", nil
}

func TestValidateCronSchedule(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("*/5 * * * *"))
	assert.NoError(t, ValidateCronSchedule("0 3 * * *"))
	assert.Error(t, ValidateCronSchedule("every minute"))
	assert.Error(t, ValidateCronSchedule("0 0 0 * * *"), "seconds field is not accepted")
}

func TestMaintenanceScheduler_StartStop(t *testing.T) {
	s := NewMaintenanceScheduler(&fakeSessions{}, &fakeQueue{}, Config{
		SweepSchedule: "*/5 * * * *",
		IdleTimeout:   30 * time.Minute,
		PruneSchedule: "0 3 * * *",
	})

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	require.NotNil(t, s.NextSweep())
	assert.True(t, s.NextSweep().After(time.Now()))

	require.NoError(t, s.Start(context.Background()), "starting twice is a no-op")

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextSweep())
}

func TestMaintenanceScheduler_StopsWithContext(t *testing.T) {
	s := NewMaintenanceScheduler(&fakeSessions{}, nil, Config{SweepSchedule: "* * * * *"})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestMaintenanceScheduler_InvalidSchedule(t *testing.T) {
	s := NewMaintenanceScheduler(&fakeSessions{}, nil, Config{SweepSchedule: "nope"})
	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())

	s = NewMaintenanceScheduler(&fakeSessions{}, &fakeQueue{}, Config{SweepSchedule: "* * * * *", PruneSchedule: "bad"})
	assert.Error(t, s.Start(context.Background()))
}

func TestMaintenanceScheduler_SweepIdle(t *testing.T) {
	sessions := &fakeSessions{count: 2}
	s := NewMaintenanceScheduler(sessions, nil, Config{IdleTimeout: 15 * time.Minute})

	s.SweepIdle()

	assert.Equal(t, []time.Duration{15 * time.Minute}, sessions.idle)
}

func TestMaintenanceScheduler_EnqueuePrune(t *testing.T) {
	queue := &fakeQueue{}
	s := NewMaintenanceScheduler(&fakeSessions{}, queue, Config{})

	s.EnqueuePrune()
	require.Len(t, queue.tasks, 1)
	assert.IsType(t, tasks.PruneProgressTask{}, queue.tasks[0])

	queue.err = errors.New("queue closed")
	s.EnqueuePrune()
	assert.Len(t, queue.tasks, 1)

	NewMaintenanceScheduler(&fakeSessions{}, nil, Config{}).EnqueuePrune()
}
