//go:build !sdl2

package backend

import (
	"fmt"

	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

// SDL2 stub for builds without the sdl2 tag.
type SDL2 struct{}

func NewSDL2() *SDL2 {
	return &SDL2{}
}

func (s *SDL2) Init(config Config) error {
	return fmt.Errorf("SDL2 backend not available - compile with -tags sdl2 and install SDL2 development libraries")
}

func (s *SDL2) Update(frame *video.FrameBuffer) (Input, error) {
	return Input{}, fmt.Errorf("SDL2 backend not available")
}

func (s *SDL2) Cleanup() error {
	return nil
}
