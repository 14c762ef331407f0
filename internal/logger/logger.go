// File: internal/logger/logger.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// slog logger factory: named severities, text or json records, stderr or a
// size-rotated log file.

package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// LevelTrace sits below slog.LevelDebug so every record is emitted.
	LevelTrace slog.Level = -8
	// LevelOff sits above slog.LevelError so nothing is emitted.
	LevelOff slog.Level = 12
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config selects severity, format and destination.
type Config struct {
	// Severity is one of TRACE, DEBUG, INFO, WARNING, ERROR, OFF.
	Severity string `json:"severity" yaml:"severity"`
	// Format is "text" or "json".
	Format string `json:"format" yaml:"format"`
	// FilePath routes records to a rotating file. Empty means the
	// writer given to New, or stderr.
	FilePath   string `json:"file_path" yaml:"file-path"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max-size-mb"`
	MaxBackups int    `json:"max_backups" yaml:"max-backups"`
	Compress   bool   `json:"compress" yaml:"compress"`
}

// DefaultConfig logs INFO and above as text to stderr.
func DefaultConfig() Config {
	return Config{
		Severity:   "INFO",
		Format:     FormatText,
		MaxSizeMB:  512,
		MaxBackups: 10,
	}
}

// Logger is a slog.Logger whose severity can change at runtime.
type Logger struct {
	*slog.Logger
	level  *slog.LevelVar
	closer io.Closer
}

// New builds a logger from cfg. w receives records when cfg.FilePath is
// empty; nil selects os.Stderr.
func New(cfg Config, w io.Writer) (*Logger, error) {
	lvl, err := ParseSeverity(cfg.Severity)
	if err != nil {
		return nil, err
	}
	l := &Logger{level: new(slog.LevelVar)}
	l.level.Set(lvl)

	switch {
	case cfg.FilePath != "":
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
		w, l.closer = lj, lj
	case w == nil:
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: l.level, ReplaceAttr: replaceLevel}
	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", FormatText:
		h = slog.NewTextHandler(w, opts)
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, errors.Errorf("unknown log format %q", cfg.Format)
	}
	l.Logger = slog.New(h)
	return l, nil
}

// SetSeverity changes the minimum severity of l and every logger derived
// from it.
func (l *Logger) SetSeverity(severity string) error {
	lvl, err := ParseSeverity(severity)
	if err != nil {
		return err
	}
	l.level.Set(lvl)
	return nil
}

// Severity returns the current severity name.
func (l *Logger) Severity() string {
	return levelName(l.level.Level())
}

// Trace logs at LevelTrace.
func (l *Logger) Trace(msg string, args ...any) {
	l.Log(context.Background(), LevelTrace, msg, args...)
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// ParseSeverity maps a severity name to its slog level. Empty means INFO.
func ParseSeverity(severity string) (slog.Level, error) {
	switch strings.ToUpper(severity) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	case "OFF":
		return LevelOff, nil
	}
	return 0, errors.Errorf("unknown log severity %q", severity)
}

func levelName(l slog.Level) string {
	switch {
	case l <= LevelTrace:
		return "TRACE"
	case l <= slog.LevelDebug:
		return "DEBUG"
	case l <= slog.LevelInfo:
		return "INFO"
	case l <= slog.LevelWarn:
		return "WARNING"
	case l <= slog.LevelError:
		return "ERROR"
	}
	return "OFF"
}

func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey && len(groups) == 0 {
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(levelName(lvl))
		}
	}
	return a
}
