// Package httpx carries the shared HTTP-adjacent plumbing: the structured
// logger used across the pipeline and server, and bounded retry with
// exponential backoff for transport-level failures.
package httpx

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/term"
)

// Level is the logging verbosity threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

// Format is the log output format.
type Format int

const (
	FormatHuman Format = iota
	FormatJSON
)

// ParseLevel maps a config string onto a Level. Unknown values mean info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ParseFormat maps a config string onto a Format. "auto" (and anything
// unknown) picks human-readable output when stdout is a terminal and JSON
// otherwise, so CI logs stay machine-parseable.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "human":
		return FormatHuman
	default:
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return FormatHuman
		}
		return FormatJSON
	}
}

// Logger writes leveled, structured log lines.
type Logger struct {
	level  Level
	format Format
	out    *log.Logger
}

// NewLogger creates a logger writing to the standard log output.
func NewLogger(level Level, format Format) *Logger {
	return &Logger{level: level, format: format, out: log.Default()}
}

// Fields carries structured context attached to a log line.
type Fields map[string]any

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields Fields) { l.write(LevelDebug, "debug", msg, fields) }

// Info logs at info level.
func (l *Logger) Info(msg string, fields Fields) { l.write(LevelInfo, "info", msg, fields) }

// Warn logs a warning. Warnings mark absorbed failures, so they are
// emitted even at the error threshold.
func (l *Logger) Warn(msg string, fields Fields) { l.write(LevelError, "warning", msg, fields) }

// Error logs at error level.
func (l *Logger) Error(msg string, fields Fields) { l.write(LevelError, "error", msg, fields) }

func (l *Logger) write(level Level, label, msg string, fields Fields) {
	if l == nil || level < l.level {
		return
	}

	if l.format == FormatJSON {
		entry := map[string]any{
			"level":     label,
			"msg":       msg,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		for k, v := range fields {
			entry[k] = v
		}
		raw, err := json.Marshal(entry)
		if err != nil {
			l.out.Printf(`{"level":"error","msg":"log marshal failed: %v"}`, err)
			return
		}
		l.out.Print(string(raw))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(label), msg)
	for _, k := range sortedKeys(fields) {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	l.out.Print(b.String())
}

func sortedKeys(fields Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
