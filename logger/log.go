// SPDX-FileCopyrightText: Copyright (c) 2016-2023, CloudZero, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogOutputWriter is the default output for all log messages. It is buffered
// so that interactive output can pause log writes and resume them later.
var LogOutputWriter = NewBufferedWriter(os.Stderr)

// SetWriter configures a log writer for the global logger
func SetWriter(w io.Writer) {
	log.Logger = log.Output(w)
}

// UseJSONLogging switches the global logger to plain JSON output
func UseJSONLogging(out io.Writer) {
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// CliCompactLogger drops the timestamp, which is the default for a one-shot
// CLI invocation
func CliCompactLogger(out io.Writer) {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:             out,
		FormatTimestamp: func(i interface{}) string { return "" },
	})
}

// Set the log-level of the global logger. Invalid levels fall back to info.
func Set(level string) {
	switch strings.ToLower(level) {
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	default:
		log.Warn().Str("level", level).Msg("unknown log-level, falling back to info")
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// GetEnvLogLevel detects the log-level from the DEBUG and TRACE environment
// variables. Environment variables always take precedence over flags.
func GetEnvLogLevel() (string, bool) {
	if val, ok := os.LookupEnv("TRACE"); ok && isTruthy(val) {
		return "trace", true
	}
	if val, ok := os.LookupEnv("DEBUG"); ok && isTruthy(val) {
		return "debug", true
	}
	return "", false
}

func isTruthy(val string) bool {
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// InitTestEnv will set all log configurations for a test environment,
// verbose and colorful
func InitTestEnv() {
	Set("debug")
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
