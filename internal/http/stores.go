package http

import (
	"context"
	"time"

	"github.com/mrlokans/bookreader/internal/entities"
	"github.com/mrlokans/bookreader/internal/reader"
	"github.com/mrlokans/bookreader/internal/sessions"
)

// This file consolidates the store interfaces used by HTTP controllers.
// Each controller depends only on the interface it needs.

// BookStore provides the book catalogue joined with per-user progress.
type BookStore interface {
	ListBooksWithProgress(userID uint) ([]entities.BookWithProgress, error)
	GetBookWithProgress(bookID, userID uint) (*entities.BookWithProgress, error)
	ListFavouriteBooks(userID uint) ([]entities.BookWithProgress, error)
	ListCompletedBooks(userID uint) ([]entities.BookWithProgress, error)
	ListInProgressBooks(userID uint) ([]entities.BookWithProgress, error)
	GetBookByID(id uint) (*entities.Book, error)
	CreateBook(book *entities.Book) error
	UpdateBook(book *entities.Book) error
	DeleteBook(id uint) error
}

// BookGetter provides read access to books.
type BookGetter interface {
	GetBookByID(id uint) (*entities.Book, error)
}

// SessionCloser flushes and closes an open reading session.
type SessionCloser interface {
	Close(ctx context.Context, userID, bookID uint) error
}

// ProgressStore writes progress outside of a reading session.
type ProgressStore interface {
	SaveProgress(ctx context.Context, userID, bookID uint, position float64, completed bool, at time.Time) (bool, error)
	GetProgress(userID, bookID uint) (*entities.ReadingProgress, error)
}

// FavouritesStore reads and toggles the favourite flag of a book.
type FavouritesStore interface {
	SetFavourite(userID, bookID uint, isFavourite bool) error
	IsFavourite(userID, bookID uint) (bool, error)
	GetFavouriteCount(userID uint) (int64, error)
}

// ReadingSessions drives open reading sessions.
type ReadingSessions interface {
	Open(ctx context.Context, userID, bookID uint) (sessions.View, error)
	Current(userID, bookID uint) (sessions.View, error)
	Next(userID, bookID uint) (sessions.View, error)
	Previous(userID, bookID uint) (sessions.View, error)
	Slider(userID, bookID uint, value float64) (sessions.View, error)
	Scroll(userID, bookID uint, in reader.ScrollInput) (sessions.View, error)
	Close(ctx context.Context, userID, bookID uint) error
	Len() int
}

// TaskStatusReader reports the state of a background task.
type TaskStatusReader interface {
	StatusName(ctx context.Context, taskID string) (string, error)
}
