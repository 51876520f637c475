package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config captures logging configuration options.
type Config struct {
	Level    string
	Dir      string
	Filename string
}

// Logger provides leveled printf-style logging backed by slog. Domain
// packages depend on the narrow interface in internal/domain/auth/model,
// which this type satisfies.
type Logger struct {
	slog *slog.Logger
	file *os.File
}

// New creates a Logger writing to stdout and, when a directory is
// configured, to a log file as well.
func New(cfg Config) (*Logger, error) {
	var out io.Writer = os.Stdout
	var file *os.File

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		name := cfg.Filename
		if name == "" {
			name = "server.log"
		}
		f, err := os.OpenFile(filepath.Join(cfg.Dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		out = io.MultiWriter(os.Stdout, f)
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: parseLevel(cfg.Level)})
	return &Logger{slog: slog.New(handler), file: file}, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Slog exposes the structured logger for integrations that prefer it.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

func (l *Logger) Debug(format string, args ...any) {
	l.slog.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...any) {
	l.slog.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.slog.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.slog.Error(fmt.Sprintf(format, args...))
}

// DebugTag logs a debug message under a component tag.
func (l *Logger) DebugTag(tag, format string, args ...any) {
	l.slog.Debug(fmt.Sprintf(format, args...), "component", tag)
}

// InfoTag logs an info message under a component tag.
func (l *Logger) InfoTag(tag, format string, args ...any) {
	l.slog.Info(fmt.Sprintf(format, args...), "component", tag)
}

// WarnTag logs a warning under a component tag.
func (l *Logger) WarnTag(tag, format string, args ...any) {
	l.slog.Warn(fmt.Sprintf(format, args...), "component", tag)
}

// ErrorTag logs an error under a component tag.
func (l *Logger) ErrorTag(tag, format string, args ...any) {
	l.slog.Error(fmt.Sprintf(format, args...), "component", tag)
}

// Close releases the log file handle if one was opened.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
