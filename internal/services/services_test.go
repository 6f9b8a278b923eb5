package services

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/pubshelf/internal/covers"
	"github.com/mrlokans/pubshelf/internal/database"
	"github.com/mrlokans/pubshelf/internal/database/publications"
	"github.com/mrlokans/pubshelf/internal/imaging"
	"github.com/mrlokans/pubshelf/internal/library"
	"github.com/mrlokans/pubshelf/internal/publication"
)

type testEnv struct {
	repo     *publications.Repository
	lib      *library.Library
	cache    *covers.Cache
	importer *ImportService
	renderer *CoverRenderer
}

func setupEnv(t *testing.T, defaultSize publication.Size) *testEnv {
	t.Helper()
	tmpDir := t.TempDir()

	db, err := database.NewQuietDatabase(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	images := imaging.NewProvider(85)
	repo := publications.NewRepository(db.DB)
	lib := library.New(repo, library.Options{Images: images})
	t.Cleanup(func() { lib.Close() })

	cache, err := covers.NewCache(filepath.Join(tmpDir, "covers"), images)
	require.NoError(t, err)

	renderer := NewCoverRenderer(lib, cache, defaultSize)
	return &testEnv{
		repo:     repo,
		lib:      lib,
		cache:    cache,
		importer: NewImportService(repo, lib, renderer),
		renderer: renderer,
	}
}

func writePublicationDir(t *testing.T, identifier string, withCover bool) string {
	t.Helper()
	dir := t.TempDir()

	manifest := publication.Manifest{
		Metadata: publication.Metadata{
			Identifier: identifier,
			Title:      publication.NewMultilangString("Moby Dick"),
			Languages:  []string{"en"},
		},
		ReadingOrder: []publication.Link{{Href: "chapter1.xhtml", Type: "application/xhtml+xml"}},
	}
	if withCover {
		manifest.Resources = []publication.Link{
			{Href: "cover.png", Type: "image/png", Rels: []string{publication.RelCover}},
		}
		img := image.NewRGBA(image.Rect(0, 0, 100, 200))
		img.Set(0, 0, color.RGBA{G: 255, A: 255})
		f, err := os.Create(filepath.Join(dir, "cover.png"))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
	}

	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFilename), data, 0644))
	return dir
}

func decodeFile(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, _, err := image.Decode(f)
	require.NoError(t, err)
	return img
}

func TestImportService_ImportDir(t *testing.T) {
	env := setupEnv(t, publication.Size{})
	dir := writePublicationDir(t, "urn:uuid:1", true)

	result, err := env.importer.ImportDir(context.Background(), dir)
	require.NoError(t, err)
	assert.False(t, result.Replaced)
	assert.Equal(t, "Moby Dick", result.Publication.Title)
	assert.Equal(t, dir, result.Publication.RootPath)
}

func TestImportService_ImportDir_MissingManifest(t *testing.T) {
	env := setupEnv(t, publication.Size{})

	_, err := env.importer.ImportDir(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImportService_ImportDir_InvalidManifest(t *testing.T) {
	env := setupEnv(t, publication.Size{})
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFilename), []byte("{not json"), 0644))

	_, err := env.importer.ImportDir(context.Background(), dir)
	assert.ErrorIs(t, err, ErrInvalidManifest)
}

func TestImportService_ImportManifest_RequiresTitle(t *testing.T) {
	env := setupEnv(t, publication.Size{})

	_, err := env.importer.ImportManifest(context.Background(), publication.Manifest{}, "/tmp")
	assert.ErrorIs(t, err, ErrInvalidManifest)
}

func TestCoverRenderer_Render(t *testing.T) {
	env := setupEnv(t, publication.Size{})
	ctx := context.Background()
	result, err := env.importer.ImportDir(ctx, writePublicationDir(t, "urn:uuid:1", true))
	require.NoError(t, err)
	id := result.Publication.ID

	full, err := env.renderer.Render(ctx, id, publication.Size{}, imaging.FormatPNG)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(100, 200), decodeFile(t, full).Bounds().Size())

	thumb, err := env.renderer.Render(ctx, id, publication.Size{Width: 50, Height: 50}, imaging.FormatJPEG)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(25, 50), decodeFile(t, thumb).Bounds().Size())
	assert.NotEqual(t, full, thumb)
}

func TestCoverRenderer_Render_DefaultSize(t *testing.T) {
	env := setupEnv(t, publication.Size{Width: 10, Height: 10})
	ctx := context.Background()
	result, err := env.importer.ImportDir(ctx, writePublicationDir(t, "urn:uuid:1", true))
	require.NoError(t, err)

	path, err := env.renderer.Render(ctx, result.Publication.ID, publication.Size{}, imaging.FormatPNG)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(5, 10), decodeFile(t, path).Bounds().Size())
}

func TestCoverRenderer_Render_NoCover(t *testing.T) {
	env := setupEnv(t, publication.Size{})
	ctx := context.Background()
	result, err := env.importer.ImportDir(ctx, writePublicationDir(t, "urn:uuid:1", false))
	require.NoError(t, err)

	_, err = env.renderer.Render(ctx, result.Publication.ID, publication.Size{}, imaging.FormatPNG)
	assert.ErrorIs(t, err, publication.ErrNoCover)
}

func TestCoverRenderer_Render_UnknownPublication(t *testing.T) {
	env := setupEnv(t, publication.Size{})

	_, err := env.renderer.Render(context.Background(), 99, publication.Size{}, imaging.FormatPNG)
	assert.ErrorIs(t, err, publications.ErrNotFound)
}

func TestImportService_Reimport_InvalidatesCovers(t *testing.T) {
	env := setupEnv(t, publication.Size{})
	ctx := context.Background()
	dir := writePublicationDir(t, "urn:uuid:1", true)

	first, err := env.importer.ImportDir(ctx, dir)
	require.NoError(t, err)
	path, err := env.renderer.Render(ctx, first.Publication.ID, publication.Size{}, imaging.FormatPNG)
	require.NoError(t, err)
	before, err := env.lib.Open(ctx, first.Publication.ID)
	require.NoError(t, err)

	second, err := env.importer.ImportDir(ctx, writePublicationDir(t, "urn:uuid:1", false))
	require.NoError(t, err)
	assert.Equal(t, first.Publication.ID, second.Publication.ID)
	assert.True(t, second.Replaced)

	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist), "cached cover should be dropped")

	after, err := env.lib.Open(ctx, first.Publication.ID)
	require.NoError(t, err)
	assert.NotSame(t, before, after)

	_, err = env.renderer.Render(ctx, first.Publication.ID, publication.Size{}, imaging.FormatPNG)
	assert.ErrorIs(t, err, publication.ErrNoCover)
}

func TestImportService_Delete(t *testing.T) {
	env := setupEnv(t, publication.Size{})
	ctx := context.Background()
	result, err := env.importer.ImportDir(ctx, writePublicationDir(t, "urn:uuid:1", true))
	require.NoError(t, err)
	id := result.Publication.ID

	path, err := env.renderer.Render(ctx, id, publication.Size{}, imaging.FormatPNG)
	require.NoError(t, err)

	require.NoError(t, env.importer.Delete(ctx, id))

	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, err = env.lib.Open(ctx, id)
	assert.ErrorIs(t, err, publications.ErrNotFound)
	assert.ErrorIs(t, env.importer.Delete(ctx, id), publications.ErrNotFound)
}

func TestImportService_ImportDir_RelativeToRoot(t *testing.T) {
	env := setupEnv(t, publication.Size{})
	dir := writePublicationDir(t, "urn:uuid:rel", false)

	importer := NewImportService(env.repo, nil, nil).SetRootDir(filepath.Dir(dir))
	result, err := importer.ImportDir(context.Background(), filepath.Base(dir))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), result.Publication.RootPath)
}
