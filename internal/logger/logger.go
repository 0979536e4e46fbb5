// Package logger holds the process-wide structured logger used by bufheap.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(discard())
}

const (
	logPrefix     = "bufheap-"
	logSuffix     = ".log"
	retentionDays = 30
)

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Writer  io.Writer  // Destination; takes precedence over LogDir
	LogDir  string     // Directory for daily log files when Writer is nil
	Level   slog.Level // Minimum log level
	JSON    bool       // JSON handler instead of text
}

// L returns the active logger. It discards everything until Init enables it.
func L() *slog.Logger { return current.Load() }

// Init configures logging. Call from main() before any log calls.
// If opts.Enabled is false, all log output is discarded.
func Init(opts Options) error {
	if !opts.Enabled {
		current.Store(discard())
		return nil
	}

	w := opts.Writer
	if w == nil {
		if opts.LogDir == "" {
			w = os.Stderr
		} else {
			if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
				return err
			}
			// Clean up old logs (best-effort, ignore errors)
			cleanOldLogs(opts.LogDir)

			filename := filepath.Join(opts.LogDir, logPrefix+time.Now().Format("2006-01-02")+logSuffix)
			f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return err
			}
			w = f
		}
	}

	hopts := &slog.HandlerOptions{Level: opts.Level}
	if opts.JSON {
		current.Store(slog.New(slog.NewJSONHandler(w, hopts)))
	} else {
		current.Store(slog.New(slog.NewTextHandler(w, hopts)))
	}
	return nil
}

// ParseLevel maps a level name ("debug", "info", "warn", "error") to a
// slog.Level. Unknown names return false.
func ParseLevel(s string) (slog.Level, bool) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, false
	}
	return lvl, true
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// cleanOldLogs removes log files older than retentionDays.
func cleanOldLogs(logDir string) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, logPrefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}

		// Parse date from filename: bufheap-2024-01-05.log
		dateStr := strings.TrimPrefix(strings.TrimSuffix(name, logSuffix), logPrefix)
		logDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}

		if logDate.Before(cutoff) {
			os.Remove(filepath.Join(logDir, name))
		}
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L().Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L().Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L().Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L().Error(msg, args...) }
