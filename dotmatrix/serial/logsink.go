package serial

import "log/slog"

// LogSink is a Device that logs outgoing bytes as text. Bytes are
// buffered until a line break for readable output.
type LogSink struct {
	logger *slog.Logger
	line   []byte
}

type LogSinkOption func(*LogSink)

// WithLogger routes output to the given logger instead of the default.
func WithLogger(logger *slog.Logger) LogSinkOption {
	return func(s *LogSink) { s.logger = logger }
}

func NewLogSink(opts ...LogSinkOption) *LogSink {
	s := &LogSink{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LogSink) Receive(value byte) {
	if value == 0 || value == '\n' || value == '\r' {
		s.Flush()
		return
	}
	s.line = append(s.line, value)
}

// Flush logs any buffered partial line.
func (s *LogSink) Flush() {
	if len(s.line) == 0 {
		return
	}
	s.logger.Info("serial", "line", string(s.line))
	s.line = s.line[:0]
}
