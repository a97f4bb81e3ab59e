// Package timing paces emulation against wall-clock time. The core
// runs as fast as the host allows; frontends that want real-time play
// block on a Limiter between frames.
package timing

import (
	"time"

	"github.com/valerio/go-dotmatrix/dotmatrix"
)

// MinSpeed is the slowest accepted speed multiplier. Anything below is
// clamped so a stray flag value cannot stall a frame for minutes.
const MinSpeed = 0.01

// Limiter controls frame pacing.
type Limiter interface {
	// WaitForNextFrame blocks until the next frame is due. Returns
	// immediately if emulation is behind schedule.
	WaitForNextFrame()

	// Reset drops the accumulated schedule, useful after pauses.
	Reset()
}

// NewNoOpLimiter returns a limiter that never waits (for headless mode).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// FrameDuration returns the wall-clock length of one frame at the
// given speed multiplier. 1.0 is hardware speed, 59.73 frames a second.
func FrameDuration(speed float64) time.Duration {
	return time.Duration(float64(time.Second) / (dotmatrix.FrameRate * ClampSpeed(speed)))
}

// ClampSpeed raises out-of-range multipliers to MinSpeed.
func ClampSpeed(speed float64) float64 {
	if speed < MinSpeed {
		return MinSpeed
	}
	return speed
}
