// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Reading Engine
//
//   - reader.Scheduler: Receives every progress change of a Controller (internal/reader/controller.go)
//   - reader.CompletionNotifier: Told once per session when a book is finished (internal/reader/controller.go)
//   - reader.Clock: Time source and timers for debouncing (internal/reader/clock.go)
//
// ## Session Dependencies
//
//   - sessions.ContentProvider: Book text plus the stored progress it resumes from (internal/sessions/manager.go)
//   - sessions.ProgressStore: Durable progress writes (internal/sessions/manager.go)
//   - sessions.TaskQueue: Fallback for writes the store rejected (internal/sessions/manager.go)
//
// ## Data Access Interfaces
//
//   - BookStore, BookGetter: Book catalogue with per-user progress (internal/http/stores.go)
//   - ProgressStore: Direct progress updates (internal/http/stores.go)
//   - FavouritesStore: Favourite tracking (internal/http/stores.go)
//   - auth.TokenValidator: API token lookup (internal/auth/middleware.go)
//
// ## Background Work
//
//   - tasks.ProgressWriter: Replays queued progress writes (internal/tasks/persist_progress.go)
//   - tasks.OrphanProgressPruner: Drops progress of deleted books (internal/tasks/prune_progress.go)
//   - scheduler.IdleCloser: Closes sessions nobody touched for a while (internal/scheduler/maintenance.go)
//
// # Adding a New Progress Store
//
// To persist progress somewhere other than SQLite:
//
//  1. Implement SaveProgress with the stale-write rule: a write whose change
//     time is older than the stored one is ignored and reported as not applied.
//
//     func (s *RedisStore) SaveProgress(ctx context.Context, userID, bookID uint,
//         position float64, completed bool, at time.Time) (bool, error)
//
//  2. Add compile-time checks:
//
//     var _ sessions.ProgressStore = (*RedisStore)(nil)
//     var _ tasks.ProgressWriter = (*RedisStore)(nil)
//
//  3. Pass it to sessions.NewManager in entrypoint.go
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
