// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rtc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pion/logging"
)

// LevelTrace is the slog level used for pion's trace output, one step
// below Debug.
const LevelTrace = slog.LevelDebug - 4

// LoggerFactory routes pion's internal logging into a *slog.Logger.
// Each pion subsystem (ice, dtls, sctp, pc, ...) gets a logger with a
// "scope" attribute.
type LoggerFactory struct {
	logger *slog.Logger
}

var _ logging.LoggerFactory = (*LoggerFactory)(nil)

// NewLoggerFactory wraps logger for use as a pion LoggerFactory.
func NewLoggerFactory(logger *slog.Logger) *LoggerFactory {
	return &LoggerFactory{logger: logger}
}

// NewLogger returns a leveled logger for one pion subsystem.
func (f *LoggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return &scopedLogger{logger: f.logger.With("scope", scope)}
}

type scopedLogger struct {
	logger *slog.Logger
}

func (l *scopedLogger) log(level slog.Level, message string) {
	l.logger.Log(context.Background(), level, message)
}

func (l *scopedLogger) logf(level slog.Level, format string, args ...interface{}) {
	if !l.logger.Enabled(context.Background(), level) {
		return
	}
	l.logger.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

func (l *scopedLogger) Trace(message string) { l.log(LevelTrace, message) }
func (l *scopedLogger) Tracef(format string, args ...interface{}) {
	l.logf(LevelTrace, format, args...)
}
func (l *scopedLogger) Debug(message string) { l.log(slog.LevelDebug, message) }
func (l *scopedLogger) Debugf(format string, args ...interface{}) {
	l.logf(slog.LevelDebug, format, args...)
}
func (l *scopedLogger) Info(message string) { l.log(slog.LevelInfo, message) }
func (l *scopedLogger) Infof(format string, args ...interface{}) {
	l.logf(slog.LevelInfo, format, args...)
}
func (l *scopedLogger) Warn(message string) { l.log(slog.LevelWarn, message) }
func (l *scopedLogger) Warnf(format string, args ...interface{}) {
	l.logf(slog.LevelWarn, format, args...)
}
func (l *scopedLogger) Error(message string) { l.log(slog.LevelError, message) }
func (l *scopedLogger) Errorf(format string, args ...interface{}) {
	l.logf(slog.LevelError, format, args...)
}
