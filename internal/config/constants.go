package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the application database.
	// The task queue keeps its own database next to it.
	DefaultDatabasePath = "./bookreader.db"
)
