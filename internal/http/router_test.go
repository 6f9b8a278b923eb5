package http

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/pubshelf/internal/covers"
	"github.com/mrlokans/pubshelf/internal/database"
	"github.com/mrlokans/pubshelf/internal/database/publications"
	"github.com/mrlokans/pubshelf/internal/imaging"
	"github.com/mrlokans/pubshelf/internal/library"
	"github.com/mrlokans/pubshelf/internal/publication"
	"github.com/mrlokans/pubshelf/internal/services"
)

type fakeQueue struct {
	mu       sync.Mutex
	enqueued []backlite.Task
}

func (q *fakeQueue) Enqueue(_ context.Context, tasks ...backlite.Task) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, tasks...)
	return []string{"task-42"}, nil
}

func (q *fakeQueue) Status(_ context.Context, taskID string) (backlite.TaskStatus, error) {
	if taskID == "task-42" {
		return backlite.TaskStatusSuccess, nil
	}
	return backlite.TaskStatusNotFound, nil
}

type fakeWarmup struct {
	next time.Time
}

func (w fakeWarmup) IsRunning() bool            { return true }
func (w fakeWarmup) NextRun() (time.Time, bool) { return w.next, true }

type testServer struct {
	router  *gin.Engine
	rootDir string
	queue   *fakeQueue
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	tmpDir := t.TempDir()
	rootDir := filepath.Join(tmpDir, "library")
	require.NoError(t, os.MkdirAll(rootDir, 0755))

	db, err := database.NewQuietDatabase(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	images := imaging.NewProvider(85)
	repo := publications.NewRepository(db.DB)
	lib := library.New(repo, library.Options{RootDir: rootDir, Images: images})
	t.Cleanup(func() { lib.Close() })

	cache, err := covers.NewCache(filepath.Join(tmpDir, "covers"), images)
	require.NoError(t, err)
	renderer := services.NewCoverRenderer(lib, cache, publication.Size{})
	queue := &fakeQueue{}

	router := NewRouter(RouterConfig{
		Database:     db,
		Version:      "test",
		Publications: repo,
		Importer:     services.NewImportService(repo, lib, renderer).SetRootDir(rootDir),
		Covers:       renderer,
		TaskQueue:    queue,
		Warmup:       fakeWarmup{next: time.Date(2030, 1, 1, 3, 30, 0, 0, time.UTC)},
	})
	return &testServer{router: router, rootDir: rootDir, queue: queue}
}

// addPublicationDir writes an unpacked publication under the library root and
// returns its path relative to the root.
func (s *testServer) addPublicationDir(t *testing.T, name string, coverW, coverH int) string {
	t.Helper()
	dir := filepath.Join(s.rootDir, name)
	require.NoError(t, os.MkdirAll(dir, 0755))

	if coverW > 0 {
		img := image.NewRGBA(image.Rect(0, 0, coverW, coverH))
		img.Set(0, 0, color.RGBA{B: 255, A: 255})
		f, err := os.Create(filepath.Join(dir, "cover.png"))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
	}
	return name
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

const mobyManifest = `{
	"metadata": {
		"identifier": "urn:isbn:9780142437247",
		"title": {"en": "Moby-Dick", "fr": "Moby Dick ou le Cachalot"},
		"language": ["en"],
		"author": ["Herman Melville"]
	},
	"readingOrder": [{"href": "chapter1.xhtml", "type": "application/xhtml+xml"}],
	"resources": [{"href": "cover.png", "type": "image/png", "rel": "cover"}]
}`

type jsonBody = map[string]any
