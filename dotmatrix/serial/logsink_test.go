package serial

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestSink() (*LogSink, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	return NewLogSink(WithLogger(logger)), &buf
}

func TestLogSinkLineBreaks(t *testing.T) {
	testCases := []struct {
		desc  string
		input string
	}{
		{desc: "newline", input: "passed\n"},
		{desc: "carriage return", input: "passed\r"},
		{desc: "nul terminator", input: "passed\x00"},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			s, buf := newTestSink()

			for _, b := range []byte(tC.input) {
				s.Receive(b)
			}

			assert.Contains(t, buf.String(), "line=passed")
		})
	}
}

func TestLogSinkBuffersPartialLines(t *testing.T) {
	s, buf := newTestSink()

	s.Receive('o')
	s.Receive('k')
	assert.Empty(t, buf.String(), "no output until a line break")

	s.Flush()
	assert.Contains(t, buf.String(), "line=ok")
}

func TestLogSinkFlushEmpty(t *testing.T) {
	s, buf := newTestSink()

	s.Flush()

	assert.Empty(t, buf.String())
}

func TestLogSinkSplitsLines(t *testing.T) {
	s, buf := newTestSink()

	for _, b := range []byte("one\ntwo\n") {
		s.Receive(b)
	}

	out := buf.String()
	assert.Contains(t, out, "line=one")
	assert.Contains(t, out, "line=two")
}
