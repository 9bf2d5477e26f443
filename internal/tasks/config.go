package tasks

import "time"

// Config tunes the background queue.
type Config struct {
	// Workers bounds how many queued writes run at once.
	Workers int
	// ReleaseAfter returns a claimed task to the queue when its worker vanished.
	ReleaseAfter time.Duration
	// CleanupInterval is the period of the retention sweep over finished tasks.
	CleanupInterval time.Duration
}

// DefaultConfig is used when TASK_WORKERS and friends are unset.
func DefaultConfig() Config {
	return Config{
		Workers:         2,
		ReleaseAfter:    5 * time.Minute,
		CleanupInterval: time.Hour,
	}
}
