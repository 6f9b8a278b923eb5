package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/pubshelf/internal/config"
	"github.com/mrlokans/pubshelf/internal/tasks"
)

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []backlite.Task
	err   error
}

func (e *fakeEnqueuer) Enqueue(_ context.Context, tasks ...backlite.Task) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, tasks...)
	return []string{"task-1"}, nil
}

func TestCoverWarmupScheduler_Disabled(t *testing.T) {
	s := NewCoverWarmupScheduler(&fakeEnqueuer{}, config.CoverWarmup{Enabled: false, Schedule: "0 * * * *"}, tasks.RenderAllCoversTask{})

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	_, ok := s.NextRun()
	assert.False(t, ok)
}

func TestCoverWarmupScheduler_InvalidSchedule(t *testing.T) {
	s := NewCoverWarmupScheduler(&fakeEnqueuer{}, config.CoverWarmup{Enabled: true, Schedule: "every day"}, tasks.RenderAllCoversTask{})

	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestCoverWarmupScheduler_StartStop(t *testing.T) {
	s := NewCoverWarmupScheduler(&fakeEnqueuer{}, config.CoverWarmup{Enabled: true, Schedule: "0 * * * *"}, tasks.RenderAllCoversTask{})

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	next, ok := s.NextRun()
	require.True(t, ok)
	assert.True(t, next.After(time.Now()))
	assert.Zero(t, next.Minute())

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestCoverWarmupScheduler_StopsWithContext(t *testing.T) {
	s := NewCoverWarmupScheduler(&fakeEnqueuer{}, config.CoverWarmup{Enabled: true, Schedule: "0 * * * *"}, tasks.RenderAllCoversTask{})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestCoverWarmupScheduler_RunNow(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	task := tasks.RenderAllCoversTask{Width: 120, Height: 180, Format: "jpeg"}
	s := NewCoverWarmupScheduler(enqueuer, config.CoverWarmup{}, task)

	id, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)
	assert.Equal(t, []backlite.Task{task}, enqueuer.tasks)
}

func TestCoverWarmupScheduler_RunNow_Error(t *testing.T) {
	boom := errors.New("queue closed")
	s := NewCoverWarmupScheduler(&fakeEnqueuer{err: boom}, config.CoverWarmup{}, tasks.RenderAllCoversTask{})

	_, err := s.RunNow(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSchedule_Helpers(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("30 3 * * *"))
	assert.Error(t, ValidateCronSchedule("* * *"))
	assert.Equal(t, "Daily at 03:30", CronDescription("30 3 * * *"))
	assert.Equal(t, "Custom schedule: 5 4 * * *", CronDescription("5 4 * * *"))

	now := time.Date(2024, 1, 1, 10, 15, 0, 0, time.UTC)
	next, err := NextRunTime("0 * * * *", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), next)
}
