//go:build ebiten

package backend

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/valerio/go-dotmatrix/dotmatrix"
	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

// Ebiten renders into a native window through the ebiten game loop.
// Ebiten owns the loop, so this backend implements LoopOwner and is
// driven through RunLoop rather than Update.
type Ebiten struct {
	config Config
}

func NewEbiten() *Ebiten {
	return &Ebiten{}
}

func (e *Ebiten) Init(config Config) error {
	e.config = config
	scale := config.Scale
	if scale <= 0 {
		scale = 3
	}
	ebiten.SetWindowTitle(config.Title)
	ebiten.SetWindowSize(video.FramebufferWidth*scale, video.FramebufferHeight*scale)
	slog.Info("ebiten backend initialized", "scale", scale)
	return nil
}

// Update is unused; stepping happens inside RunLoop.
func (e *Ebiten) Update(frame *video.FrameBuffer) (Input, error) {
	return Input{}, nil
}

func (e *Ebiten) Cleanup() error {
	return nil
}

// RunLoop hands control to ebiten until the window closes or the step
// function reports a stop.
func (e *Ebiten) RunLoop(step StepFunc) error {
	if err := ebiten.RunGame(&ebitenGame{step: step}); err != nil {
		return fmt.Errorf("running ebiten loop: %w", err)
	}
	return nil
}

type ebitenGame struct {
	step  StepFunc
	frame *video.FrameBuffer
	tex   *ebiten.Image
}

func (g *ebitenGame) Update() error {
	frame, err := g.step(g.pollInput())
	if errors.Is(err, ErrStopped) {
		return ebiten.Termination
	}
	if err != nil {
		return err
	}
	g.frame = frame
	return nil
}

func (g *ebitenGame) pollInput() Input {
	var in Input

	for key, button := range ebitenButtons {
		if ebiten.IsKeyPressed(key) {
			in.Buttons |= button
		}
	}

	in.FastForward = ebiten.IsKeyPressed(ebiten.KeyTab)
	in.Quit = inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ)
	in.TogglePause = inpututil.IsKeyJustPressed(ebiten.KeySpace) || inpututil.IsKeyJustPressed(ebiten.KeyP)
	in.SaveState = inpututil.IsKeyJustPressed(ebiten.KeyF5)
	in.LoadState = inpututil.IsKeyJustPressed(ebiten.KeyF8)
	in.Screenshot = inpututil.IsKeyJustPressed(ebiten.KeyF9)

	return in
}

var ebitenButtons = map[ebiten.Key]dotmatrix.Buttons{
	ebiten.KeyArrowRight: dotmatrix.ButtonRight,
	ebiten.KeyArrowLeft:  dotmatrix.ButtonLeft,
	ebiten.KeyArrowUp:    dotmatrix.ButtonUp,
	ebiten.KeyArrowDown:  dotmatrix.ButtonDown,
	ebiten.KeyZ:          dotmatrix.ButtonA,
	ebiten.KeyX:          dotmatrix.ButtonB,
	ebiten.KeyEnter:      dotmatrix.ButtonStart,
	ebiten.KeyShiftRight: dotmatrix.ButtonSelect,
}

func (g *ebitenGame) Draw(screen *ebiten.Image) {
	if g.frame == nil {
		return
	}
	if g.tex == nil {
		g.tex = ebiten.NewImage(video.FramebufferWidth, video.FramebufferHeight)
	}
	g.tex.WritePixels(g.frame.ToRGBA())
	screen.DrawImage(g.tex, nil)
}

func (g *ebitenGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return video.FramebufferWidth, video.FramebufferHeight
}
