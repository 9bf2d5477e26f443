// Package books provides database operations for the book catalogue.
//
// Books are shared between readers; every read query joins the requesting
// reader's progress and favourite flag into entities.BookWithProgress.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookWithProgress(bookID, userID)
package books

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/mrlokans/bookreader/internal/entities"
)

// Listing queries leave out the content column.
const summaryColumns = "b.id, b.title, b.author, b.description, b.cover_image, b.created_by, b.created_at, b.updated_at"

const progressColumns = "rp.current_position, rp.is_completed, rp.last_read_at, " +
	"CASE WHEN f.id IS NOT NULL THEN 1 ELSE 0 END AS is_favorite"

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) withProgress(userID uint) *gorm.DB {
	return r.db.Table("books AS b").
		Joins("LEFT JOIN reading_progress rp ON rp.book_id = b.id AND rp.user_id = ?", userID).
		Joins("LEFT JOIN favourites f ON f.book_id = b.id AND f.user_id = ?", userID)
}

// ListBooksWithProgress returns every book, newest first, without content.
func (r *Repository) ListBooksWithProgress(userID uint) ([]entities.BookWithProgress, error) {
	var books []entities.BookWithProgress
	err := r.withProgress(userID).
		Select(summaryColumns + ", " + progressColumns).
		Order("b.created_at DESC").
		Scan(&books).Error
	return books, err
}

// GetBookWithProgress returns one book including its content.
func (r *Repository) GetBookWithProgress(bookID, userID uint) (*entities.BookWithProgress, error) {
	var books []entities.BookWithProgress
	err := r.withProgress(userID).
		Select("b.*, "+progressColumns).
		Where("b.id = ?", bookID).
		Limit(1).
		Scan(&books).Error
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &books[0], nil
}

// ListFavouriteBooks returns the books the user marked as favourites.
func (r *Repository) ListFavouriteBooks(userID uint) ([]entities.BookWithProgress, error) {
	var books []entities.BookWithProgress
	err := r.withProgress(userID).
		Select(summaryColumns+", "+progressColumns).
		Where("f.id IS NOT NULL").
		Order("f.created_at DESC").
		Scan(&books).Error
	return books, err
}

// ListCompletedBooks returns the books the user has finished.
func (r *Repository) ListCompletedBooks(userID uint) ([]entities.BookWithProgress, error) {
	var books []entities.BookWithProgress
	err := r.withProgress(userID).
		Select(summaryColumns+", "+progressColumns).
		Where("rp.is_completed = ?", true).
		Order("rp.last_read_at DESC").
		Scan(&books).Error
	return books, err
}

// ListInProgressBooks returns started but unfinished books, most recently read first.
func (r *Repository) ListInProgressBooks(userID uint) ([]entities.BookWithProgress, error) {
	var books []entities.BookWithProgress
	err := r.withProgress(userID).
		Select(summaryColumns+", "+progressColumns).
		Where("rp.id IS NOT NULL AND rp.is_completed = ? AND rp.current_position > 0", false).
		Order("rp.last_read_at DESC").
		Scan(&books).Error
	return books, err
}

// GetBookByID retrieves a book by ID.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// CreateBook inserts a new book.
func (r *Repository) CreateBook(book *entities.Book) error {
	if err := r.db.Create(book).Error; err != nil {
		return fmt.Errorf("failed to create book %q: %w", book.Title, err)
	}
	log.Printf("Created book %q by %s (%d)", book.Title, book.Author, book.ID)
	return nil
}

// UpdateBook saves all fields of an existing book.
func (r *Repository) UpdateBook(book *entities.Book) error {
	return r.db.Save(book).Error
}

// DeleteBook removes a book together with all progress and favourites pointing at it.
func (r *Repository) DeleteBook(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&entities.ReadingProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.Favourite{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.Book{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
