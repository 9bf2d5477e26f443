package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/bookreader/internal/auth"
	"github.com/mrlokans/bookreader/internal/database/books"
	"github.com/mrlokans/bookreader/internal/database/favourites"
	"github.com/mrlokans/bookreader/internal/database/progress"
	"github.com/mrlokans/bookreader/internal/database/users"
	"github.com/mrlokans/bookreader/internal/http"
	"github.com/mrlokans/bookreader/internal/reader"
	"github.com/mrlokans/bookreader/internal/scheduler"
	"github.com/mrlokans/bookreader/internal/sessions"
	"github.com/mrlokans/bookreader/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Book catalogue
var _ http.BookStore = (*books.Repository)(nil)
var _ http.BookGetter = (*books.Repository)(nil)
var _ sessions.ContentProvider = (*books.Repository)(nil)

// Progress store
var _ http.ProgressStore = (*progress.Repository)(nil)
var _ sessions.ProgressStore = (*progress.Repository)(nil)
var _ tasks.ProgressWriter = (*progress.Repository)(nil)
var _ tasks.OrphanProgressPruner = (*progress.Repository)(nil)

// FavouritesStore implementations
var _ http.FavouritesStore = (*favourites.Repository)(nil)

// Token lookup
var _ auth.TokenValidator = (*users.Repository)(nil)

// =============================================================================
// Reading Engine
// =============================================================================

// Writes leave the controller through the debouncer
var _ reader.Scheduler = (*reader.Debouncer)(nil)
var _ reader.Clock = reader.SystemClock{}

// Session registry
var _ http.ReadingSessions = (*sessions.Manager)(nil)
var _ http.SessionCloser = (*sessions.Manager)(nil)
var _ http.SessionCounter = (*sessions.Manager)(nil)
var _ scheduler.IdleCloser = (*sessions.Manager)(nil)

// =============================================================================
// Task Queue
// =============================================================================

var _ sessions.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.TaskQueue = (*tasks.Client)(nil)
var _ http.TaskStatusReader = (*tasks.Client)(nil)
