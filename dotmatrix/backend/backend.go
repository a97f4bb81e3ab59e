// Package backend contains the host frontends: frame rendering, input
// polling and audio playback. Backends are driven one frame at a time;
// the run loop itself lives with the caller.
package backend

import (
	"errors"

	"github.com/valerio/go-dotmatrix/dotmatrix"
	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

// Config holds settings shared by all backends.
type Config struct {
	Title string
	Scale int
}

// Input carries one frame of host input: the current pad state plus
// one-shot control requests.
type Input struct {
	Buttons dotmatrix.Buttons

	Quit        bool
	TogglePause bool
	FastForward bool
	SaveState   bool
	LoadState   bool
	Screenshot  bool
}

// Backend is a frontend driven one frame at a time. Update renders the
// frame and reports the input gathered since the previous call.
type Backend interface {
	Init(config Config) error
	Update(frame *video.FrameBuffer) (Input, error)
	Cleanup() error
}

// StepFunc advances the emulation by one frame in response to host
// input and returns the frame to display.
type StepFunc func(Input) (*video.FrameBuffer, error)

// ErrStopped is returned by a StepFunc when the run should end.
var ErrStopped = errors.New("emulation stopped")

// LoopOwner is implemented by backends whose host library owns the
// event loop (ebiten). Callers hand over control through RunLoop
// instead of driving Update themselves.
type LoopOwner interface {
	RunLoop(step StepFunc) error
}
