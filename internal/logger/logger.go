package logger

import (
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Options selects the level and an optional rotating log file.
type Options struct {
	Level string
	// File, when set, receives a copy of every entry and is rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

var (
	// globalLogger holds the singleton logger instance.
	globalLogger *Logger
	mu           sync.Mutex
)

// Get returns the singleton logger. The first call initializes it with the
// provided level; later calls ignore the level and return the existing
// instance, including one installed by Init.
func Get(level string) *Logger {
	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		globalLogger = New(Options{Level: level})
	}
	return globalLogger
}

// Init replaces the singleton with a logger built from opts. It is meant to
// be called once from main after the configuration is loaded.
func Init(opts Options) *Logger {
	l := New(opts)
	mu.Lock()
	globalLogger = l
	mu.Unlock()
	return l
}
