//go:build !ebiten

package backend

import (
	"fmt"

	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

// Ebiten stub for builds without the ebiten tag.
type Ebiten struct{}

func NewEbiten() *Ebiten {
	return &Ebiten{}
}

func (e *Ebiten) Init(config Config) error {
	return fmt.Errorf("ebiten backend not available - compile with -tags ebiten")
}

func (e *Ebiten) Update(frame *video.FrameBuffer) (Input, error) {
	return Input{}, fmt.Errorf("ebiten backend not available")
}

func (e *Ebiten) Cleanup() error {
	return nil
}
