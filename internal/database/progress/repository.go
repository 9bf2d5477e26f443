// Package progress stores per-user reading progress.
//
// Writes are merged monotonically: every write carries the time the reader
// made the change, and a write older than the stored one is ignored. Two
// devices reading the same book therefore resolve to the most recent change
// no matter in which order their writes reach the database.
//
// # Usage
//
//	repo := progress.NewRepository(db)
//	applied, err := repo.SaveProgress(ctx, userID, bookID, 42.5, false, time.Now())
package progress

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookreader/internal/entities"
	"github.com/mrlokans/bookreader/internal/reader"
)

// Repository handles all reading progress database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveProgress upserts the progress of a user in a book. The position is
// clamped to [0, 100]. It returns false when a newer change is already stored.
func (r *Repository) SaveProgress(ctx context.Context, userID, bookID uint, position float64, completed bool, at time.Time) (bool, error) {
	if at.IsZero() {
		at = time.Now()
	}

	row := entities.ReadingProgress{
		UserID:          userID,
		BookID:          bookID,
		CurrentPosition: reader.ClampPosition(position),
		IsCompleted:     completed,
		LastReadAt:      at,
		ChangedAtMs:     at.UnixMilli(),
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"current_position", "is_completed", "last_read_at", "changed_at_ms", "updated_at",
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "reading_progress.changed_at_ms <= excluded.changed_at_ms"},
		}},
	}).Create(&row)
	if result.Error != nil {
		return false, fmt.Errorf("failed to save progress for user %d book %d: %w", userID, bookID, result.Error)
	}

	if result.RowsAffected == 0 {
		log.Printf("[PROGRESS] Ignored stale write for user %d book %d (changed at %s)",
			userID, bookID, at.Format(time.RFC3339Nano))
		return false, nil
	}
	return true, nil
}

// GetProgress returns the stored progress, or gorm.ErrRecordNotFound.
func (r *Repository) GetProgress(userID, bookID uint) (*entities.ReadingProgress, error) {
	var p entities.ReadingProgress
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteOrphans removes progress and favourite rows whose book no longer exists.
func (r *Repository) DeleteOrphans(ctx context.Context) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec("DELETE FROM reading_progress WHERE book_id NOT IN (SELECT id FROM books)")
		if res.Error != nil {
			return res.Error
		}
		removed += res.RowsAffected

		res = tx.Exec("DELETE FROM favourites WHERE book_id NOT IN (SELECT id FROM books)")
		if res.Error != nil {
			return res.Error
		}
		removed += res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune orphaned progress: %w", err)
	}
	return removed, nil
}
