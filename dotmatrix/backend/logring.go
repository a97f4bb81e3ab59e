package backend

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// LogEntry is a single captured log record.
type LogEntry struct {
	Time    time.Time
	Level   slog.Level
	Message string
}

// LogRing is a thread-safe circular buffer of log entries. The
// terminal backend routes slog through it so log output does not write
// over the raw screen.
type LogRing struct {
	mu      sync.RWMutex
	entries []LogEntry
	index   int
	count   int
}

func NewLogRing(size int) *LogRing {
	return &LogRing{entries: make([]LogEntry, size)}
}

func (r *LogRing) Add(entry LogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.index] = entry
	r.index = (r.index + 1) % len(r.entries)
	if r.count < len(r.entries) {
		r.count++
	}
}

// Recent returns up to max entries, newest first.
func (r *LogRing) Recent(max int) []LogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := r.count
	if max > 0 && max < count {
		count = max
	}
	if count == 0 {
		return nil
	}

	out := make([]LogEntry, count)
	for i := 0; i < count; i++ {
		out[i] = r.entries[(r.index-1-i+len(r.entries))%len(r.entries)]
	}
	return out
}

// LogRingHandler is a slog.Handler that captures records into a LogRing.
type LogRingHandler struct {
	ring  *LogRing
	level slog.Level
}

func NewLogRingHandler(ring *LogRing, level slog.Level) *LogRingHandler {
	return &LogRingHandler{ring: ring, level: level}
}

func (h *LogRingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *LogRingHandler) Handle(_ context.Context, record slog.Record) error {
	message := record.Message
	record.Attrs(func(a slog.Attr) bool {
		message += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		return true
	})

	h.ring.Add(LogEntry{
		Time:    record.Time,
		Level:   record.Level,
		Message: message,
	})
	return nil
}

// WithAttrs and WithGroup return the handler unchanged; captured
// entries carry attributes inline in the message text.
func (h *LogRingHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }

func (h *LogRingHandler) WithGroup(name string) slog.Handler { return h }

// FormatLogEntry renders an entry as a single display line.
func FormatLogEntry(entry LogEntry) string {
	level := "???"
	switch entry.Level {
	case slog.LevelDebug:
		level = "DBG"
	case slog.LevelInfo:
		level = "INF"
	case slog.LevelWarn:
		level = "WRN"
	case slog.LevelError:
		level = "ERR"
	}
	return fmt.Sprintf("%s [%s] %s", entry.Time.Format("15:04:05"), level, entry.Message)
}
