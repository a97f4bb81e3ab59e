//go:build sdl2

package backend

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/valerio/go-dotmatrix/dotmatrix"
	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

// SDL2 renders into a native window. Building it requires the SDL2
// development libraries; default builds get the stub instead (see
// build tags).
type SDL2 struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	config   Config

	buttons dotmatrix.Buttons
	pending Input
	fast    bool
}

func NewSDL2() *SDL2 {
	return &SDL2{}
}

func (s *SDL2) Init(config Config) error {
	s.config = config
	scale := config.Scale
	if scale <= 0 {
		scale = 3
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("initializing SDL2: %w", err)
	}

	window, err := sdl.CreateWindow(
		config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(video.FramebufferWidth*scale),
		int32(video.FramebufferHeight*scale),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("creating window: %w", err)
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("creating renderer: %w", err)
	}
	s.renderer = renderer

	// ABGR8888 is RGBA byte order in memory on little-endian hosts,
	// matching what FrameBuffer.ToRGBA produces.
	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_ABGR8888,
		sdl.TEXTUREACCESS_STREAMING,
		video.FramebufferWidth,
		video.FramebufferHeight,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("creating texture: %w", err)
	}
	s.texture = texture

	slog.Info("SDL2 backend initialized", "scale", scale)
	return nil
}

func (s *SDL2) Update(frame *video.FrameBuffer) (Input, error) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		s.handleEvent(event)
	}

	input := s.pending
	s.pending = Input{}
	input.Buttons = s.buttons
	input.FastForward = s.fast

	s.renderFrame(frame)
	return input, nil
}

func (s *SDL2) Cleanup() error {
	slog.Info("cleaning up SDL2 backend")
	if s.texture != nil {
		s.texture.Destroy()
	}
	if s.renderer != nil {
		s.renderer.Destroy()
	}
	if s.window != nil {
		s.window.Destroy()
	}
	sdl.Quit()
	return nil
}

func (s *SDL2) handleEvent(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		s.pending.Quit = true
	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN {
			s.handleKeyDown(e.Keysym.Sym)
		} else if e.Type == sdl.KEYUP {
			s.handleKeyUp(e.Keysym.Sym)
		}
	}
}

var sdlButtons = map[sdl.Keycode]dotmatrix.Buttons{
	sdl.K_RIGHT:     dotmatrix.ButtonRight,
	sdl.K_LEFT:      dotmatrix.ButtonLeft,
	sdl.K_UP:        dotmatrix.ButtonUp,
	sdl.K_DOWN:      dotmatrix.ButtonDown,
	sdl.K_z:         dotmatrix.ButtonA,
	sdl.K_x:         dotmatrix.ButtonB,
	sdl.K_RETURN:    dotmatrix.ButtonStart,
	sdl.K_RSHIFT:    dotmatrix.ButtonSelect,
	sdl.K_BACKSPACE: dotmatrix.ButtonSelect,
}

func (s *SDL2) handleKeyDown(key sdl.Keycode) {
	if button, ok := sdlButtons[key]; ok {
		s.buttons |= button
		return
	}

	switch key {
	case sdl.K_ESCAPE, sdl.K_q:
		s.pending.Quit = true
	case sdl.K_SPACE, sdl.K_p:
		s.pending.TogglePause = true
	case sdl.K_TAB:
		s.fast = true
	case sdl.K_F5:
		s.pending.SaveState = true
	case sdl.K_F8:
		s.pending.LoadState = true
	case sdl.K_F9:
		s.pending.Screenshot = true
	}
}

func (s *SDL2) handleKeyUp(key sdl.Keycode) {
	if button, ok := sdlButtons[key]; ok {
		s.buttons &^= button
		return
	}
	if key == sdl.K_TAB {
		s.fast = false
	}
}

func (s *SDL2) renderFrame(frame *video.FrameBuffer) {
	pixels := frame.ToRGBA()
	s.texture.Update(nil, unsafe.Pointer(&pixels[0]), video.FramebufferWidth*4)

	s.renderer.SetDrawColor(0, 0, 0, 255)
	s.renderer.Clear()
	s.renderer.Copy(s.texture, nil, nil)
	s.renderer.Present()
}
