package favourites

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookreader/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "favourites.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Favourite{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db)
}

func TestRepository_SetFavourite(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.SetFavourite(1, 10, true))
	require.NoError(t, repo.SetFavourite(1, 10, true), "marking twice is a no-op")

	fav, err := repo.IsFavourite(1, 10)
	require.NoError(t, err)
	assert.True(t, fav)

	count, err := repo.GetFavouriteCount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	other, err := repo.IsFavourite(2, 10)
	require.NoError(t, err)
	assert.False(t, other, "favourites are per user")
}

func TestRepository_UnsetFavourite(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.SetFavourite(1, 10, true))

	require.NoError(t, repo.SetFavourite(1, 10, false))
	require.NoError(t, repo.SetFavourite(1, 10, false), "unmarking twice is a no-op")

	fav, err := repo.IsFavourite(1, 10)
	require.NoError(t, err)
	assert.False(t, fav)
}
