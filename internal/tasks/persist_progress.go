package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// ProgressWriter stores a reader's progress with last-writer-wins merging.
type ProgressWriter interface {
	SaveProgress(ctx context.Context, userID, bookID uint, position float64, completed bool, at time.Time) (bool, error)
}

// PersistProgressTask carries a progress write that failed inline.
// ChangedAtMs keeps the original change time so a late retry never
// overwrites progress recorded after it.
type PersistProgressTask struct {
	UserID      uint    `json:"user_id"`
	BookID      uint    `json:"book_id"`
	Position    float64 `json:"position"`
	Completed   bool    `json:"completed"`
	ChangedAtMs int64   `json:"changed_at_ms"`
}

// Config returns the queue configuration for progress persistence tasks.
func (t PersistProgressTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "persist_progress",
		MaxAttempts: 10,
		Backoff:     30 * time.Second,
		Timeout:     30 * time.Second,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: true,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PersistProgressProcessor creates a processor function for PersistProgressTask.
func PersistProgressProcessor(store ProgressWriter) backlite.QueueProcessor[PersistProgressTask] {
	return func(ctx context.Context, task PersistProgressTask) error {
		if store == nil {
			return fmt.Errorf("progress store not configured")
		}

		applied, err := store.SaveProgress(ctx, task.UserID, task.BookID, task.Position, task.Completed,
			time.UnixMilli(task.ChangedAtMs))
		if err != nil {
			return fmt.Errorf("persist progress for user %d book %d: %w", task.UserID, task.BookID, err)
		}

		if applied {
			log.Printf("[TASK] Persisted progress for user %d book %d: %.2f%% (completed=%t)",
				task.UserID, task.BookID, task.Position, task.Completed)
		} else {
			log.Printf("[TASK] Dropped progress for user %d book %d: newer progress already stored",
				task.UserID, task.BookID)
		}
		return nil
	}
}

// NewPersistProgressQueue creates a backlite queue for progress persistence tasks.
func NewPersistProgressQueue(store ProgressWriter) backlite.Queue {
	return backlite.NewQueue(PersistProgressProcessor(store))
}
