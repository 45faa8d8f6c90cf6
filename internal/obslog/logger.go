// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package obslog provides the structured logging configuration shared by
// the orchestrator, executor, and CLI.
package obslog

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format is the log output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Standard field keys, kept consistent across the codebase.
const (
	RunIDKey = "run_id"
	JobIDKey = "job_id"
	StepKey  = "step_index"
)

// Config holds logging configuration.
type Config struct {
	Level     string
	Format    Format
	Output    io.Writer
	AddSource bool
}

// DefaultConfig returns sensible logging defaults: info level, JSON format,
// stderr output.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: FormatJSON,
		Output: os.Stderr,
	}
}

// FromEnv builds a Config from FLOWRUN_LOG_LEVEL / FLOWRUN_LOG_FORMAT,
// falling back to DefaultConfig.
func FromEnv() *Config {
	cfg := DefaultConfig()
	if level := os.Getenv("FLOWRUN_LOG_LEVEL"); level != "" {
		cfg.Level = strings.ToLower(level)
	}
	if format := os.Getenv("FLOWRUN_LOG_FORMAT"); format != "" {
		cfg.Format = Format(strings.ToLower(format))
	}
	if os.Getenv("FLOWRUN_LOG_SOURCE") == "1" {
		cfg.AddSource = true
	}
	return cfg
}

// New builds a slog.Logger from the given configuration.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}
	var handler slog.Handler
	switch cfg.Format {
	case FormatText:
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRun returns a logger annotated with the run ID.
func WithRun(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With(slog.String(RunIDKey, runID))
}

// WithJob returns a logger annotated with the run and job IDs.
func WithJob(logger *slog.Logger, runID, jobID string) *slog.Logger {
	return logger.With(slog.String(RunIDKey, runID), slog.String(JobIDKey, jobID))
}

// WithStep returns a logger annotated with run, job, and step-index context.
func WithStep(logger *slog.Logger, runID, jobID string, stepIndex int) *slog.Logger {
	return logger.With(
		slog.String(RunIDKey, runID),
		slog.String(JobIDKey, jobID),
		slog.Int(StepKey, stepIndex),
	)
}
