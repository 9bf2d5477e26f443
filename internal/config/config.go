package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // Single reader, no authentication (default)
	AuthModeToken AuthMode = "token" // Per-user bearer API tokens
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Reader
		Sessions
		Tasks
		Logging
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Auth struct {
		Mode AuthMode
	}
	Reader struct {
		PageSize     int           // Target characters per page (default: 3000)
		SaveDebounce time.Duration // Quiet period before progress is written (default: 2s)
		ScrollGate   int           // Minimum in-page scroll change in percent (default: 5)
		SaveAttempts int           // Inline write attempts before the task queue takes over (default: 3)
	}
	Sessions struct {
		CacheSize     int
		IdleTimeout   time.Duration
		SweepSchedule string // Cron format: "*/5 * * * *" = every 5 minutes
		PruneSchedule string // Cron format; empty disables orphan pruning
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Logging struct {
		File       string // Empty logs to stdout only
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("auth_mode", string(AuthModeNone))

	// Reader defaults
	v.SetDefault("reader_page_size", 3000)
	v.SetDefault("reader_save_debounce", "2s")
	v.SetDefault("reader_scroll_gate", 5)
	v.SetDefault("reader_save_attempts", 3)

	// Session defaults
	v.SetDefault("session_cache_size", 256)
	v.SetDefault("session_idle_timeout", "30m")
	v.SetDefault("session_sweep_schedule", "*/5 * * * *")
	v.SetDefault("prune_schedule", "0 3 * * *") // Daily at 03:00

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "5m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Log file defaults
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 50)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_max_age_days", 28)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			Mode: AuthMode(v.GetString("AUTH_MODE")),
		},
		Reader: Reader{
			PageSize:     v.GetInt("READER_PAGE_SIZE"),
			SaveDebounce: v.GetDuration("READER_SAVE_DEBOUNCE"),
			ScrollGate:   v.GetInt("READER_SCROLL_GATE"),
			SaveAttempts: v.GetInt("READER_SAVE_ATTEMPTS"),
		},
		Sessions: Sessions{
			CacheSize:     v.GetInt("SESSION_CACHE_SIZE"),
			IdleTimeout:   v.GetDuration("SESSION_IDLE_TIMEOUT"),
			SweepSchedule: v.GetString("SESSION_SWEEP_SCHEDULE"),
			PruneSchedule: v.GetString("PRUNE_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Logging: Logging{
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
	}
}
