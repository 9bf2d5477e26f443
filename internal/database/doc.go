// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── books/           # Book catalogue, joined with per-user progress
//	├── progress/        # Reading progress upserts and orphan pruning
//	├── favourites/      # Favourite book tracking
//	└── users/           # Users and API tokens
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./bookreader.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	progressRepo := progress.NewRepository(db.DB)
//
//	book, err := booksRepo.GetBookWithProgress(bookID, userID)
//	applied, err := progressRepo.SaveProgress(ctx, userID, bookID, 42.5, false, time.Now())
//
// # Interface Implementations
//
//   - books.Repository: implements http.BookStore and sessions.ContentProvider
//   - progress.Repository: implements http.ProgressStore, sessions.ProgressStore and the
//     tasks.ProgressWriter / tasks.OrphanProgressPruner used by background tasks
//   - favourites.Repository: implements http.FavouritesStore
//   - users.Repository: implements auth.TokenValidator
//
// The checks live in internal/interfaces.
//
// # Progress Merging
//
// Progress rows are keyed by (user_id, book_id). Every write carries the time
// the change happened on the client; an upsert only applies when that time is
// not older than the stored one, so concurrent devices resolve last-writer-wins.
package database
