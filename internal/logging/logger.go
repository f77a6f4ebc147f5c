package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"overdrive/sim/internal/config"
)

// Level represents log verbosity ordering.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case FatalLevel:
		return "fatal"
	default:
		return "info"
	}
}

func parseLevel(raw string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", raw)
	}
}

// Field represents a structured logging attribute.
type Field struct {
	Key   string
	Value any
}

// String returns a string field.
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Int returns an int field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Int64 returns an int64 field.
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

// Uint64 returns a uint64 field.
func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }

// Float64 returns a float64 field.
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }

// Bool returns a bool field.
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Duration returns a duration field rendered in seconds.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.Seconds()}
}

// Error returns an error field.
func Error(err error) Field { return Field{Key: "error", Value: fmt.Sprint(err)} }

var (
	globalMu     sync.RWMutex
	globalLogger = newNopLogger()
)

// syncWriter describes a writer that can flush to durable storage.
type syncWriter interface {
	io.Writer
	Sync() error
}

type discardSyncWriter struct{}

func (discardSyncWriter) Write(p []byte) (int, error) { return len(p), nil }
func (discardSyncWriter) Sync() error                 { return nil }

// Logger emits JSON-formatted structured logs with optional contextual fields.
type Logger struct {
	mu     sync.Mutex
	level  Level
	writer syncWriter
	fields map[string]any
}

// New constructs a JSON logger configured with on-disk rotation and stdout mirroring.
func New(cfg config.LoggingConfig) (*Logger, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("logging path must be specified")
	}
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	writer, err := newRotatingWriter(cfg)
	if err != nil {
		return nil, err
	}
	combined := &multiWriter{writers: []syncWriter{writer, os.Stdout}}
	logger := &Logger{
		level:  level,
		writer: combined,
		fields: map[string]any{"service": "simd"},
	}
	ReplaceGlobals(logger)
	return logger, nil
}

// NewTestLogger returns a logger that discards output, suitable for tests.
func NewTestLogger() *Logger {
	return newNopLogger()
}

func newNopLogger() *Logger {
	return &Logger{
		level:  DebugLevel,
		writer: discardSyncWriter{},
		fields: make(map[string]any),
	}
}

// ReplaceGlobals swaps the fallback logger used when no explicit logger is wired.
func ReplaceGlobals(logger *Logger) {
	if logger == nil {
		return
	}
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// L returns the current global logger.
func L() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// With augments the logger with additional structured fields.
func (l *Logger) With(fields ...Field) *Logger {
	if l == nil {
		return L().With(fields...)
	}
	clone := &Logger{
		level:  l.level,
		writer: l.writer,
		fields: make(map[string]any, len(l.fields)+len(fields)),
	}
	for k, v := range l.fields {
		clone.fields[k] = v
	}
	for _, field := range fields {
		clone.fields[field.Key] = field.Value
	}
	return clone
}

// Sync flushes buffered output to durable storage.
func (l *Logger) Sync() error {
	if l == nil || l.writer == nil {
		return nil
	}
	return l.writer.Sync()
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields ...Field) { l.log(DebugLevel, message, fields...) }

// Info logs an informational message.
func (l *Logger) Info(message string, fields ...Field) { l.log(InfoLevel, message, fields...) }

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields ...Field) { l.log(WarnLevel, message, fields...) }

// Error logs an error message.
func (l *Logger) Error(message string, fields ...Field) { l.log(ErrorLevel, message, fields...) }

// Fatal logs a fatal message and exits the process.
func (l *Logger) Fatal(message string, fields ...Field) { l.log(FatalLevel, message, fields...) }

func (l *Logger) log(level Level, message string, fields ...Field) {
	if l == nil {
		L().log(level, message, fields...)
		return
	}
	if level < l.level {
		return
	}
	payload := make(map[string]any, len(l.fields)+len(fields)+3)
	for k, v := range l.fields {
		payload[k] = v
	}
	payload["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	payload["level"] = level.String()
	payload["message"] = message
	for _, field := range fields {
		payload[field.Key] = field.Value
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.writer.Write(append(data, '\n'))
	if level == FatalLevel {
		_ = l.writer.Sync()
		os.Exit(1)
	}
}

// multiWriter writes to multiple sync writers.
type multiWriter struct {
	writers []syncWriter
}

func (m *multiWriter) Write(p []byte) (int, error) {
	for _, w := range m.writers {
		if _, err := w.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (m *multiWriter) Sync() error {
	var firstErr error
	for _, w := range m.writers {
		if err := w.Sync(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// rotatingWriter writes to a single log file and rotates based on a size policy.
type rotatingWriter struct {
	mu         sync.Mutex
	path       string
	maxSize    int64
	maxBackups int
	file       *os.File
	size       int64
}

func newRotatingWriter(cfg config.LoggingConfig) (*rotatingWriter, error) {
	if cfg.MaxSizeMB <= 0 {
		return nil, errors.New("OVERDRIVE_LOG_MAX_SIZE_MB must be positive")
	}
	if cfg.MaxBackups < 0 {
		return nil, errors.New("OVERDRIVE_LOG_MAX_BACKUPS must be non-negative")
	}
	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &rotatingWriter{
		path:       cfg.Path,
		maxSize:    int64(cfg.MaxSizeMB) * 1024 * 1024,
		maxBackups: cfg.MaxBackups,
		file:       file,
		size:       info.Size(),
	}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.size+int64(len(p)) > w.maxSize {
		if err := w.rotateLocked(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

func (w *rotatingWriter) rotateLocked() error {
	//1.- Close the active file before renaming it out of the way.
	if err := w.file.Close(); err != nil {
		return err
	}
	backup := fmt.Sprintf("%s.%s", w.path, time.Now().UTC().Format("20060102T150405.000000000Z"))
	if err := os.Rename(w.path, backup); err != nil {
		return err
	}
	//2.- Re-open a fresh file and prune backups past the retention limit.
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.file = file
	w.size = 0
	w.pruneLocked()
	return nil
}

func (w *rotatingWriter) pruneLocked() {
	if w.maxBackups <= 0 {
		return
	}
	matches, err := filepath.Glob(w.path + ".*")
	if err != nil || len(matches) <= w.maxBackups {
		return
	}
	sort.Strings(matches)
	for _, stale := range matches[:len(matches)-w.maxBackups] {
		_ = os.Remove(stale)
	}
}
