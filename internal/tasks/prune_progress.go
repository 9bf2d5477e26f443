package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// OrphanProgressPruner deletes progress rows that point at deleted books.
type OrphanProgressPruner interface {
	DeleteOrphans(ctx context.Context) (int64, error)
}

// PruneProgressTask removes progress and favourites left behind by deleted books.
type PruneProgressTask struct{}

// Config returns the queue configuration for prune tasks.
func (t PruneProgressTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_progress",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PruneProgressProcessor creates a processor function for PruneProgressTask.
func PruneProgressProcessor(pruner OrphanProgressPruner) backlite.QueueProcessor[PruneProgressTask] {
	return func(ctx context.Context, _ PruneProgressTask) error {
		if pruner == nil {
			return fmt.Errorf("progress pruner not configured")
		}

		removed, err := pruner.DeleteOrphans(ctx)
		if err != nil {
			return fmt.Errorf("prune progress: %w", err)
		}

		log.Printf("[TASK] Pruned %d orphaned progress rows", removed)
		return nil
	}
}

// NewPruneProgressQueue creates a backlite queue for prune tasks.
func NewPruneProgressQueue(pruner OrphanProgressPruner) backlite.Queue {
	return backlite.NewQueue(PruneProgressProcessor(pruner))
}
