// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

package log

import "fmt"

// ScopedLogger prefixes every message with a component scope and supports a
// per-scope log level that overrides the global level.
type ScopedLogger struct {
	prefix   string
	logLevel string
}

// NewScopedLogger creates a logger for one component scope, e.g. "[edge/default]".
// An empty logLevel defers to the global level.
func NewScopedLogger(prefix, logLevel string) *ScopedLogger {
	return &ScopedLogger{prefix: prefix, logLevel: logLevel}
}

func (s *ScopedLogger) shouldLog(msgLevel int) bool {
	if s.logLevel == "" {
		return true
	}
	scopeLevel, ok := levelNames[s.logLevel]
	if !ok {
		return true
	}
	return msgLevel <= scopeLevel
}

func (s *ScopedLogger) log(msgLevel int, format string, args ...interface{}) {
	if !s.shouldLog(msgLevel) {
		return
	}
	message := fmt.Sprintf(format, args...)
	if s.logLevel != "" {
		// Scope override bypasses the global filter so per-component
		// debugging works without raising the global level.
		emit(msgLevel, "%s %s", s.prefix, message)
		return
	}
	write(msgLevel, "%s %s", s.prefix, message)
}

func (s *ScopedLogger) Trace(format string, args ...interface{}) {
	s.log(LevelTrace, format, args...)
}

func (s *ScopedLogger) Debug(format string, args ...interface{}) {
	s.log(LevelDebug, format, args...)
}

func (s *ScopedLogger) Verbose(format string, args ...interface{}) {
	s.log(LevelVerbose, format, args...)
}

func (s *ScopedLogger) Info(format string, args ...interface{}) {
	s.log(LevelInfo, format, args...)
}

func (s *ScopedLogger) Warn(format string, args ...interface{}) {
	s.log(LevelWarn, format, args...)
}

func (s *ScopedLogger) Error(format string, args ...interface{}) {
	s.log(LevelError, format, args...)
}
