// Package logger provides leveled logging for the dashboard server.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level orders log severities
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level, defaulting to info
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

// Logger writes timestamped, leveled lines
type Logger struct {
	level Level
	out   *log.Logger
	err   *log.Logger
}

// New creates a Logger writing info and below to stdout and errors to stderr
func New(level Level) *Logger {
	return NewWithWriters(level, os.Stdout, os.Stderr)
}

// NewWithWriters creates a Logger with explicit destinations
func NewWithWriters(level Level, out, errOut io.Writer) *Logger {
	return &Logger{
		level: level,
		out:   log.New(out, "", 0),
		err:   log.New(errOut, "", 0),
	}
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) write(dst *log.Logger, level Level, tag, format string, args ...any) {
	if level < l.level {
		return
	}
	dst.Printf("[%s] %-5s %s", l.timestamp(), tag, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) {
	l.write(l.out, LevelDebug, "DEBUG", format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	l.write(l.out, LevelInfo, "INFO", format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.write(l.out, LevelWarn, "WARN", format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.write(l.err, LevelError, "ERROR", format, args...)
}
