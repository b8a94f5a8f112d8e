// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package logger provides the process-wide logging sink used across the
// registry server: a single slog.Logger singleton, initialized once at
// startup and read lock-free by every goroutine afterwards.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/stacklok/toolhive-core/env"
	"github.com/stacklok/toolhive-core/logging"
)

var singleton atomic.Pointer[slog.Logger]

func init() {
	singleton.Store(logging.New())
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

// unstructuredLogsWithEnv reports whether UNSTRUCTURED_LOGS resolves to
// human-readable logging. Unset or unparsable values default to true so a
// bare `cratery serve` on a terminal stays readable.
func unstructuredLogsWithEnv(r env.Reader) bool {
	v := r.Getenv("UNSTRUCTURED_LOGS")
	if v == "" {
		return true
	}
	b, err := parseBool(v)
	if err != nil {
		return true
	}
	return b
}

func parseBool(s string) (bool, error) {
	switch s {
	case "true", "1", "True", "TRUE":
		return true, nil
	case "false", "0", "False", "FALSE":
		return false, nil
	default:
		return false, fmt.Errorf("not a bool: %q", s)
	}
}

// Initialize sets up the process-wide logger from the environment. main
// calls it once at startup; log calls made before it use the default
// logger installed by init.
func Initialize() {
	InitializeWithEnv(osEnv{})
}

// InitializeWithEnv is Initialize with an injectable environment reader, so
// tests can exercise both logging modes deterministically.
func InitializeWithEnv(r env.Reader) {
	opts := []logging.Option{logging.WithLevel(slog.LevelInfo)}
	if unstructuredLogsWithEnv(r) {
		opts = append(opts, logging.WithOutput(os.Stderr))
	} else {
		opts = append(opts, logging.WithOutput(os.Stdout))
	}
	singleton.Store(logging.New(opts...))
}

// Get returns the current singleton logger.
func Get() *slog.Logger {
	return singleton.Load()
}

// NewLogr adapts the singleton slog.Logger to a logr.Logger, for libraries
// (go-git, controller-runtime-style code) that expect the logr interface.
func NewLogr() logr.Logger {
	return logr.FromSlogHandler(Get().Handler())
}

// Debug logs at debug level.
func Debug(msg string) { Get().Debug(msg) }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { Get().Debug(fmt.Sprintf(format, args...)) }

// Debugw logs a message with structured key/value pairs at debug level.
func Debugw(msg string, kv ...any) { Get().Debug(msg, kv...) }

// Info logs at info level.
func Info(msg string) { Get().Info(msg) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { Get().Info(fmt.Sprintf(format, args...)) }

// Infow logs a message with structured key/value pairs at info level.
func Infow(msg string, kv ...any) { Get().Info(msg, kv...) }

// Warn logs at warn level.
func Warn(msg string) { Get().Warn(msg) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) { Get().Warn(fmt.Sprintf(format, args...)) }

// Warnw logs a message with structured key/value pairs at warn level.
func Warnw(msg string, kv ...any) { Get().Warn(msg, kv...) }

// Error logs at error level.
func Error(msg string) { Get().Error(msg) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { Get().Error(fmt.Sprintf(format, args...)) }

// Errorw logs a message with structured key/value pairs at error level.
func Errorw(msg string, kv ...any) { Get().Error(msg, kv...) }

// DPanic logs at error level. Unlike Panic it does not unwind the stack; it
// marks conditions that should never happen outside of development.
func DPanic(msg string) { Get().Error(msg) }

// DPanicf is DPanic with formatting.
func DPanicf(format string, args ...any) { Get().Error(fmt.Sprintf(format, args...)) }

// DPanicw is DPanic with structured key/value pairs.
func DPanicw(msg string, kv ...any) { Get().Error(msg, kv...) }

// Panic logs at error level and then panics with msg.
func Panic(msg string) {
	Get().Error(msg)
	panic(msg)
}

// Panicf logs a formatted message at error level and then panics with it.
func Panicf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	Get().Error(msg)
	panic(msg)
}

// Panicw logs a message with key/value pairs at error level and then panics.
func Panicw(msg string, kv ...any) {
	Get().Error(msg, kv...)
	panic(msg)
}

// Fatal logs at error level and exits the process.
func Fatal(msg string) {
	Get().Error(msg)
	os.Exit(1)
}

// Fatalf logs a formatted message at error level and exits the process.
func Fatalf(format string, args ...any) {
	Get().Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
