// Package logging points the standard logger and gin's request log at stdout
// and, when a log file is configured, a size-rotated copy of the same stream.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrlokans/bookreader/internal/config"
)

// NewWriter returns the output every logger in the process writes to.
// The returned closer releases the log file; it is a no-op without one.
func NewWriter(cfg config.Logging) (io.Writer, io.Closer) {
	if cfg.File == "" {
		return os.Stdout, nopCloser{}
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	return io.MultiWriter(os.Stdout, fileWriter), fileWriter
}

// Setup installs the configured writer on the standard logger.
func Setup(cfg config.Logging) (io.Writer, io.Closer) {
	w, closer := NewWriter(cfg)
	log.SetOutput(w)
	log.SetFlags(log.LstdFlags)
	if cfg.File != "" {
		log.Printf("Logging to stdout and %s (rotating at %d MB, keeping %d backups)",
			cfg.File, cfg.MaxSizeMB, cfg.MaxBackups)
	}
	return w, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
