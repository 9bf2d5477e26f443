// Package favourites provides database operations for a reader's favourite books.
//
// # Usage
//
//	repo := favourites.NewRepository(db)
//	err := repo.SetFavourite(userID, bookID, true)
package favourites

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookreader/internal/entities"
)

// Repository handles all favourites database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new favourites repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SetFavourite marks or unmarks a book as a favourite of the user.
// Both directions are idempotent.
func (r *Repository) SetFavourite(userID, bookID uint, isFavourite bool) error {
	if !isFavourite {
		return r.db.Where("user_id = ? AND book_id = ?", userID, bookID).
			Delete(&entities.Favourite{}).Error
	}

	fav := entities.Favourite{UserID: userID, BookID: bookID}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
		DoNothing: true,
	}).Create(&fav).Error
}

// IsFavourite reports whether the user has marked the book as a favourite.
func (r *Repository) IsFavourite(userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Favourite{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error
	return count > 0, err
}

// GetFavouriteCount returns the number of favourite books of a user.
func (r *Repository) GetFavouriteCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Favourite{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
