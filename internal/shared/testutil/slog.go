// Package testutil provides shared test support for the salespipe
// packages. Its recording slog handler lets tests assert on the log
// records a component emitted without touching the global logger or a
// log file.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// LogRecord is one captured log record.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// recordSink collects records for a handler and all handlers derived
// from it via WithAttrs, so a logger built with With(...) still lands
// in the same capture buffer.
type recordSink struct {
	mu      sync.Mutex
	records []LogRecord
}

// RecordingHandler is a slog.Handler that captures every record at
// every level.
type RecordingHandler struct {
	sink  *recordSink
	bound []slog.Attr
}

// NewRecordingHandler creates an empty recording handler.
func NewRecordingHandler() *RecordingHandler {
	return &RecordingHandler{sink: &recordSink{}}
}

// NewTestLogger returns a logger whose output can be inspected through
// the returned handler.
func NewTestLogger() (*slog.Logger, *RecordingHandler) {
	handler := NewRecordingHandler()
	return slog.New(handler), handler
}

// Enabled implements slog.Handler. Tests always capture all levels.
func (h *RecordingHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
func (h *RecordingHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs()+len(h.bound))
	for _, a := range h.bound {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	h.sink.records = append(h.sink.records, LogRecord{
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	return nil
}

// WithAttrs implements slog.Handler. The derived handler shares the
// capture buffer and stamps the bound attributes onto every record.
func (h *RecordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := make([]slog.Attr, 0, len(h.bound)+len(attrs))
	bound = append(bound, h.bound...)
	bound = append(bound, attrs...)
	return &RecordingHandler{sink: h.sink, bound: bound}
}

// WithGroup implements slog.Handler. Groups are flattened; no salespipe
// logger uses them.
func (h *RecordingHandler) WithGroup(string) slog.Handler {
	return h
}

// Records returns a copy of all captured records.
func (h *RecordingHandler) Records() []LogRecord {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	records := make([]LogRecord, len(h.sink.records))
	copy(records, h.sink.records)
	return records
}

// ByLevel returns the captured records at exactly the given level.
func (h *RecordingHandler) ByLevel(level slog.Level) []LogRecord {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	var filtered []LogRecord
	for _, r := range h.sink.records {
		if r.Level == level {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Contains reports whether any captured record's message contains the
// given substring.
func (h *RecordingHandler) Contains(message string) bool {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	for _, r := range h.sink.records {
		if strings.Contains(r.Message, message) {
			return true
		}
	}
	return false
}

// HasAttr reports whether any captured record carries the attribute.
func (h *RecordingHandler) HasAttr(key string, value any) bool {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	for _, r := range h.sink.records {
		if got, ok := r.Attrs[key]; ok && got == value {
			return true
		}
	}
	return false
}

// Reset discards all captured records.
func (h *RecordingHandler) Reset() {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	h.sink.records = h.sink.records[:0]
}
