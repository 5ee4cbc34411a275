// Package diag is the structured diagnostics channel for analysis calls.
// Warnings that a solver would otherwise print (conflicting source pins,
// unreachable nodes, shorted sources) are recorded here so callers and
// tests can inspect or suppress them.
package diag

import (
	"context"
	"log/slog"
)

type Diagnostic struct {
	Level   slog.Level
	Message string
	Args    []any // alternating key/value pairs, slog style
}

// Recorder collects diagnostics and optionally forwards them to a logger.
// A nil *Recorder drops everything.
type Recorder struct {
	logger  *slog.Logger
	entries []Diagnostic
}

func NewRecorder(logger *slog.Logger) *Recorder {
	return &Recorder{logger: logger}
}

func (r *Recorder) emit(level slog.Level, msg string, args ...any) {
	if r == nil {
		return
	}
	r.entries = append(r.entries, Diagnostic{Level: level, Message: msg, Args: args})
	if r.logger != nil {
		r.logger.Log(context.Background(), level, msg, args...)
	}
}

func (r *Recorder) Info(msg string, args ...any) { r.emit(slog.LevelInfo, msg, args...) }
func (r *Recorder) Warn(msg string, args ...any) { r.emit(slog.LevelWarn, msg, args...) }

func (r *Recorder) Entries() []Diagnostic {
	if r == nil {
		return nil
	}
	return r.entries
}

// Warnings returns recorded entries at warn level or above.
func (r *Recorder) Warnings() []Diagnostic {
	if r == nil {
		return nil
	}
	var out []Diagnostic
	for _, d := range r.entries {
		if d.Level >= slog.LevelWarn {
			out = append(out, d)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	if r != nil {
		r.entries = nil
	}
}
