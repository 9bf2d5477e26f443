package http

import (
	"github.com/mrlokans/bookreader/internal/auth"
	"github.com/mrlokans/bookreader/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database   *database.Database
	Books      BookStore
	Progress   ProgressStore
	Favourites FavouritesStore

	// Open reading sessions
	Sessions ReadingSessions

	// Task queue status (optional, nil when tasks are disabled)
	TaskStatus TaskStatusReader

	// Authentication (optional, nil means single-user mode)
	AuthMiddleware *auth.Middleware

	// Application info
	Version string
}
