package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/pubshelf/internal/database/publications"
	"github.com/mrlokans/pubshelf/internal/imaging"
	"github.com/mrlokans/pubshelf/internal/publication"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, client)

	_, err = os.Stat(filepath.Join(tmpDir, "test-tasks.db"))
	assert.NoError(t, err, "tasks database should be created")

	assert.NoError(t, client.Close())
}

func TestTasksDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "pubshelf-tasks.db"), TasksDBPath("data/pubshelf.db"))
	assert.Equal(t, "library-tasks", TasksDBPath("library"))
}

func TestClientStartStop(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.Start(ctx)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
}

func TestClientStop_NotStarted(t *testing.T) {
	client := newTestClient(t)
	assert.True(t, client.Stop(context.Background()))
}

type fakeRenderer struct {
	mu    sync.Mutex
	calls []RenderCoverTask
	err   error
	done  chan struct{}
}

func (r *fakeRenderer) Render(_ context.Context, id uint, size publication.Size, format imaging.Format) (string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, RenderCoverTask{PublicationID: id, Width: size.Width, Height: size.Height, Format: string(format)})
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	return "/covers/x.jpg", r.err
}

type staticLister []uint

func (l staticLister) ListIDs() ([]uint, error) {
	return l, nil
}

func TestEnqueueRunsRenderCover(t *testing.T) {
	client := newTestClient(t)
	renderer := &fakeRenderer{done: make(chan struct{}, 1)}
	client.Register(NewRenderCoverQueue(renderer))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.Start(ctx)

	ids, err := client.Enqueue(ctx, RenderCoverTask{PublicationID: 7, Width: 120, Height: 180})
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	select {
	case <-renderer.done:
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}

	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	require.Len(t, renderer.calls, 1)
	assert.Equal(t, RenderCoverTask{PublicationID: 7, Width: 120, Height: 180, Format: "jpeg"}, renderer.calls[0])
}

func TestRenderCoverProcessor(t *testing.T) {
	ctx := context.Background()

	t.Run("renders in requested format", func(t *testing.T) {
		renderer := &fakeRenderer{}
		err := RenderCoverProcessor(renderer)(ctx, RenderCoverTask{PublicationID: 1, Format: "png"})
		require.NoError(t, err)
		assert.Equal(t, "png", renderer.calls[0].Format)
	})

	t.Run("missing cover is not retried", func(t *testing.T) {
		renderer := &fakeRenderer{err: publication.ErrNoCover}
		assert.NoError(t, RenderCoverProcessor(renderer)(ctx, RenderCoverTask{PublicationID: 1}))
	})

	t.Run("deleted publication is not retried", func(t *testing.T) {
		renderer := &fakeRenderer{err: publications.ErrNotFound}
		assert.NoError(t, RenderCoverProcessor(renderer)(ctx, RenderCoverTask{PublicationID: 1}))
	})

	t.Run("other failures are retried", func(t *testing.T) {
		boom := errors.New("disk full")
		renderer := &fakeRenderer{err: boom}
		assert.ErrorIs(t, RenderCoverProcessor(renderer)(ctx, RenderCoverTask{PublicationID: 1}), boom)
	})

	t.Run("timed out render is retried", func(t *testing.T) {
		renderer := &fakeRenderer{err: fmt.Errorf("render cover 1: %w", context.DeadlineExceeded)}
		err := RenderCoverProcessor(renderer)(ctx, RenderCoverTask{PublicationID: 1})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("task timeout is retried even without a cover", func(t *testing.T) {
		expired, cancel := context.WithCancel(ctx)
		cancel()
		renderer := &fakeRenderer{err: publication.ErrNoCover}
		err := RenderCoverProcessor(renderer)(expired, RenderCoverTask{PublicationID: 1})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("unknown format", func(t *testing.T) {
		renderer := &fakeRenderer{}
		err := RenderCoverProcessor(renderer)(ctx, RenderCoverTask{PublicationID: 1, Format: "tiff"})
		assert.ErrorIs(t, err, imaging.ErrUnsupportedFormat)
		assert.Empty(t, renderer.calls)
	})

	t.Run("not configured", func(t *testing.T) {
		assert.Error(t, RenderCoverProcessor(nil)(ctx, RenderCoverTask{PublicationID: 1}))
	})
}

type recordingEnqueuer struct {
	tasks []backlite.Task
}

func (e *recordingEnqueuer) Enqueue(_ context.Context, tasks ...backlite.Task) ([]string, error) {
	e.tasks = append(e.tasks, tasks...)
	ids := make([]string, len(tasks))
	return ids, nil
}

func TestRenderAllCoversProcessor(t *testing.T) {
	enqueuer := &recordingEnqueuer{}
	process := RenderAllCoversProcessor(staticLister{3, 5}, enqueuer)

	require.NoError(t, process(context.Background(), RenderAllCoversTask{Width: 60, Height: 90}))

	assert.Equal(t, []backlite.Task{
		RenderCoverTask{PublicationID: 3, Width: 60, Height: 90},
		RenderCoverTask{PublicationID: 5, Width: 60, Height: 90},
	}, enqueuer.tasks)
}

func TestRenderAllCoversProcessor_Empty(t *testing.T) {
	enqueuer := &recordingEnqueuer{}
	process := RenderAllCoversProcessor(staticLister{}, enqueuer)

	require.NoError(t, process(context.Background(), RenderAllCoversTask{}))
	assert.Empty(t, enqueuer.tasks)
}

func TestTaskConfigs(t *testing.T) {
	render := RenderCoverTask{PublicationID: 1}.Config()
	assert.Equal(t, "render_cover", render.Name)
	assert.Equal(t, 3, render.MaxAttempts)
	assert.NotNil(t, render.Retention)

	all := RenderAllCoversTask{}.Config()
	assert.Equal(t, "render_all_covers", all.Name)
	assert.Equal(t, 1, all.MaxAttempts)
	assert.Equal(t, 10*time.Minute, all.Timeout)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Minute, cfg.RetryDelay)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, 24*time.Hour, cfg.RetentionDuration)
}
