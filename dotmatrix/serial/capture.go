package serial

import (
	"io"
	"sync"
)

// Capture is a Device that accumulates every transferred byte in
// memory, optionally copying them to a writer as they arrive. Handy
// for test ROMs that report results over the link port.
type Capture struct {
	mu  sync.Mutex
	buf []byte
	tee io.Writer
}

type CaptureOption func(*Capture)

// WithTee copies every received byte to w as it arrives.
func WithTee(w io.Writer) CaptureOption {
	return func(c *Capture) { c.tee = w }
}

func NewCapture(opts ...CaptureOption) *Capture {
	c := &Capture{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Capture) Receive(value byte) {
	c.mu.Lock()
	c.buf = append(c.buf, value)
	tee := c.tee
	c.mu.Unlock()

	if tee != nil {
		tee.Write([]byte{value})
	}
}

// Bytes returns a copy of everything received so far.
func (c *Capture) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, len(c.buf))
	copy(out, c.buf)
	return out
}

// String returns the received bytes as text.
func (c *Capture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.buf)
}

func (c *Capture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf = c.buf[:0]
}
