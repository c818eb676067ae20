// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

// Package log provides leveled logging for conductor
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Log levels, ordered by priority
const (
	LevelError = iota
	LevelWarn
	LevelInfo
	LevelVerbose
	LevelDebug
	LevelTrace
)

var levelNames = map[string]int{
	"error":   LevelError,
	"warn":    LevelWarn,
	"info":    LevelInfo,
	"verbose": LevelVerbose,
	"debug":   LevelDebug,
	"trace":   LevelTrace,
}

var levelTags = map[int]string{
	LevelError:   "ERROR",
	LevelWarn:    "WARN",
	LevelInfo:    "INFO",
	LevelVerbose: "VERBOSE",
	LevelDebug:   "DEBUG",
	LevelTrace:   "TRACE",
}

var (
	mu         sync.Mutex
	level      = LevelInfo
	timestamps = true
	out        io.Writer = os.Stdout
	errOut     io.Writer = os.Stderr
)

// Initialize sets the global log level and timestamp behavior.
func Initialize(levelName string, showTimestamps bool) {
	mu.Lock()
	defer mu.Unlock()
	if lv, ok := levelNames[strings.ToLower(levelName)]; ok {
		level = lv
	}
	timestamps = showTimestamps
}

// SetLevel changes the global log level by name. Unknown names are ignored.
func SetLevel(levelName string) {
	mu.Lock()
	defer mu.Unlock()
	if lv, ok := levelNames[strings.ToLower(levelName)]; ok {
		level = lv
	}
}

// GetLevel returns the current global log level name.
func GetLevel() string {
	mu.Lock()
	defer mu.Unlock()
	for name, lv := range levelNames {
		if lv == level {
			return name
		}
	}
	return "info"
}

// GetTimestampsEnabled reports whether log lines carry timestamps.
func GetTimestampsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return timestamps
}

// SetOutput redirects log output. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	errOut = w
}

func write(msgLevel int, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if msgLevel > level {
		return
	}
	printLine(msgLevel, format, args...)
}

// emit writes a message regardless of the global level. Scoped loggers with
// their own level use it so per-component overrides work both directions.
func emit(msgLevel int, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	printLine(msgLevel, format, args...)
}

// printLine assumes mu is held.
func printLine(msgLevel int, format string, args ...interface{}) {
	w := out
	if msgLevel == LevelError {
		w = errOut
	}
	message := fmt.Sprintf(format, args...)
	if timestamps {
		fmt.Fprintf(w, "%s %s %s\n", time.Now().Format("2006-01-02 15:04:05"), levelTags[msgLevel], message)
	} else {
		fmt.Fprintf(w, "%s %s\n", levelTags[msgLevel], message)
	}
}

// Trace logs a trace message
func Trace(format string, args ...interface{}) { write(LevelTrace, format, args...) }

// Debug logs a debug message
func Debug(format string, args ...interface{}) { write(LevelDebug, format, args...) }

// Verbose logs a verbose message
func Verbose(format string, args ...interface{}) { write(LevelVerbose, format, args...) }

// Info logs an info message
func Info(format string, args ...interface{}) { write(LevelInfo, format, args...) }

// Warn logs a warning message
func Warn(format string, args ...interface{}) { write(LevelWarn, format, args...) }

// Error logs an error message
func Error(format string, args ...interface{}) { write(LevelError, format, args...) }

// Fatal logs an error message and exits the program
func Fatal(format string, args ...interface{}) {
	write(LevelError, format, args...)
	os.Exit(1)
}
