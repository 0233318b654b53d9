// Copyright 2026 The waylayout Authors
// SPDX-License-Identifier: MIT

// Package logger wraps charmbracelet/log with the convenience functions
// and LOG_LEVEL environment handling waylayoutd expects everywhere else in
// the codebase.
package logger

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Logger is the process-wide structured logger. It is safe to read
// concurrently; only SetLevel and SetOutput mutate it, and both are
// expected to be called during startup before any worker goroutines begin.
var Logger *log.Logger

func init() {
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	SetLevel(os.Getenv("LOG_LEVEL"))
}

// SetLevel sets the log level from a string such as "debug" or "WARN".
// An unrecognized or empty value sets the level to info.
func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		Logger.SetLevel(log.DebugLevel)
	case "WARN", "WARNING":
		Logger.SetLevel(log.WarnLevel)
	case "ERROR":
		Logger.SetLevel(log.ErrorLevel)
	case "FATAL":
		Logger.SetLevel(log.FatalLevel)
	default:
		Logger.SetLevel(log.InfoLevel)
	}
}

// SetOutput redirects the logger to w, preserving the current level and
// timestamp options.
func SetOutput(w *os.File) {
	level := Logger.GetLevel()
	Logger = log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	Logger.SetLevel(level)
}

func Debugf(format string, args ...any) { Logger.Debugf(format, args...) }
func Infof(format string, args ...any)  { Logger.Infof(format, args...) }
func Warnf(format string, args ...any)  { Logger.Warnf(format, args...) }
func Errorf(format string, args ...any) { Logger.Errorf(format, args...) }
func Fatalf(format string, args ...any) { Logger.Fatalf(format, args...) }

// Adapter narrows Logger down to the wl.Logger interface (Debugf/Warnf/
// Errorf only), so internal/wl does not need to import charmbracelet/log
// directly.
type Adapter struct{}

func (Adapter) Debugf(format string, args ...any) { Logger.Debugf(format, args...) }
func (Adapter) Warnf(format string, args ...any)  { Logger.Warnf(format, args...) }
func (Adapter) Errorf(format string, args ...any) { Logger.Errorf(format, args...) }
