// Package logging provides the leveled logger passed into feedlens components.
package logging

import (
	"io"
	"log"
	"os"
	"strings"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level. Unknown values map to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Logger writes leveled messages through one log.Logger per level.
// A nil *Logger is valid and discards everything.
type Logger struct {
	level Level
	debug *log.Logger
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
}

// New creates a logger writing to w at the given minimum level.
func New(w io.Writer, level Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	flags := log.Ldate | log.Ltime
	return &Logger{
		level: level,
		debug: log.New(w, "DEBUG: ", flags),
		info:  log.New(w, "INFO: ", flags),
		warn:  log.New(w, "WARN: ", flags),
		err:   log.New(w, "ERROR: ", flags),
	}
}

// Discard returns a logger that drops all output.
func Discard() *Logger {
	return New(io.Discard, LevelError+1)
}

// Level returns the minimum level that is written.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelError + 1
	}
	return l.level
}

func (l *Logger) Debug(format string, v ...any) {
	if l == nil || l.level > LevelDebug {
		return
	}
	l.debug.Printf(format, v...)
}

func (l *Logger) Info(format string, v ...any) {
	if l == nil || l.level > LevelInfo {
		return
	}
	l.info.Printf(format, v...)
}

func (l *Logger) Warn(format string, v ...any) {
	if l == nil || l.level > LevelWarn {
		return
	}
	l.warn.Printf(format, v...)
}

func (l *Logger) Error(format string, v ...any) {
	if l == nil || l.level > LevelError {
		return
	}
	l.err.Printf(format, v...)
}
