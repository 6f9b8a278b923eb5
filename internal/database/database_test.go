package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/pubshelf/internal/entities"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewQuietDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabase(t *testing.T) {
	db := setupTestDB(t)

	t.Run("migrates publication tables", func(t *testing.T) {
		assert.True(t, db.DB.Migrator().HasTable(&entities.Publication{}))
		assert.True(t, db.DB.Migrator().HasTable(&entities.Link{}))
	})

	t.Run("Ping succeeds on open database", func(t *testing.T) {
		assert.NoError(t, db.Ping())
	})

	t.Run("deleting a publication cascades to its links", func(t *testing.T) {
		pub := &entities.Publication{
			Title: "Moby Dick",
			Links: []entities.Link{
				{Group: entities.LinkGroupResources, Href: "cover.jpg", RelsJSON: `["cover"]`},
				{Group: entities.LinkGroupReadingOrder, Href: "chapter1.xhtml", Position: 1},
			},
		}
		require.NoError(t, db.DB.Create(pub).Error)

		require.NoError(t, db.DB.Delete(&entities.Publication{}, pub.ID).Error)

		var count int64
		require.NoError(t, db.DB.Model(&entities.Link{}).Where("publication_id = ?", pub.ID).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestDatabase_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := NewQuietDatabase(path)
	require.NoError(t, err)
	require.NoError(t, db.DB.Create(&entities.Publication{Title: "Moby Dick"}).Error)
	require.NoError(t, db.Close())

	db, err = NewQuietDatabase(path)
	require.NoError(t, err)
	defer db.Close()

	var count int64
	require.NoError(t, db.DB.Model(&entities.Publication{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDatabase_PingAfterClose(t *testing.T) {
	db, err := NewQuietDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())
	assert.Error(t, db.Ping())
}
