// Package logging sets up the structured file logger used by every command.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// AppName names the log directory and file
	AppName = "reqbook"

	// rotate once the file passes 5 MB, keeping three old files
	maxLogSize    = 5 * 1024 * 1024
	maxLogBackups = 3
)

// Options controls InitLogger. Dir overrides the platform log directory.
type Options struct {
	Debug bool
	Dir   string
}

// InitLogger opens the JSON log file and returns a logger writing to it along
// with a func that closes the file. Default log locations:
//   - macOS:   ~/Library/Logs/reqbook/reqbook.log
//   - Linux:   $XDG_STATE_HOME/reqbook/reqbook.log (~/.local/state when unset)
//   - Windows: %LOCALAPPDATA%\reqbook\Logs\reqbook.log
func InitLogger(opts Options) (*slog.Logger, func() error, error) {
	logPath := ""
	if opts.Dir != "" {
		logPath = filepath.Join(opts.Dir, AppName+".log")
	} else {
		p, err := LogFilePath()
		if err != nil {
			return nil, nil, err
		}
		logPath = p
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	if err := rotate(logPath, maxLogSize, maxLogBackups); err != nil {
		return nil, nil, fmt.Errorf("rotate log file: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", logPath, err)
	}

	return New(f, opts.Debug), f.Close, nil
}

// New builds a JSON logger on w. Debug enables debug level and source locations.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}))
}

// NewNopLogger discards everything
func NewNopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError + 1,
	}))
}

// rotate shifts path to path.1, path.1 to path.2 and so on once path reaches
// limit bytes. The oldest backup past keep is removed.
func rotate(path string, limit int64, keep int) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Size() < limit {
		return nil
	}

	os.Remove(fmt.Sprintf("%s.%d", path, keep))
	for i := keep - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", path, i), fmt.Sprintf("%s.%d", path, i+1))
	}
	return os.Rename(path, path+".1")
}

// LogFilePath returns the platform log file location
func LogFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Logs", AppName, AppName+".log"), nil
	case "windows":
		local := os.Getenv("LOCALAPPDATA")
		if local == "" {
			local = filepath.Join(home, "AppData", "Local")
		}
		return filepath.Join(local, AppName, "Logs", AppName+".log"), nil
	default:
		state := os.Getenv("XDG_STATE_HOME")
		if state == "" {
			state = filepath.Join(home, ".local", "state")
		}
		return filepath.Join(state, AppName, AppName+".log"), nil
	}
}
