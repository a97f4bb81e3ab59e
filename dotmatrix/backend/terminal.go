package backend

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-dotmatrix/dotmatrix"
	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

const (
	minTermWidth  = 80
	minTermHeight = 24

	// Terminals deliver key repeats, not releases. A button counts as
	// held while repeats keep arriving within this window.
	keyTimeout = 100 * time.Millisecond
)

const dpadButtons = dotmatrix.ButtonRight | dotmatrix.ButtonLeft |
	dotmatrix.ButtonUp | dotmatrix.ButtonDown

// Terminal renders the frame into a tcell screen using half-block
// cells, two pixels per character cell.
type Terminal struct {
	screen     tcell.Screen
	config     Config
	ring       *LogRing
	prevLogger *slog.Logger
	logLevel   slog.Level

	keyStates map[dotmatrix.Buttons]time.Time
	pending   Input
	fast      bool
	sigQuit   atomic.Bool
}

func NewTerminal() *Terminal {
	return &Terminal{logLevel: slog.LevelInfo}
}

func (t *Terminal) Init(config Config) error {
	t.config = config
	t.keyStates = make(map[dotmatrix.Buttons]time.Time)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	t.screen = screen

	// Route slog into an in-memory ring; anything written to the tty
	// directly would corrupt the tcell screen.
	t.ring = NewLogRing(100)
	t.prevLogger = slog.Default()
	slog.SetDefault(slog.New(NewLogRingHandler(t.ring, slog.LevelDebug)))

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	go t.handleSignals()

	slog.Info("terminal backend initialized")
	return nil
}

func (t *Terminal) Cleanup() error {
	if t.screen != nil {
		t.screen.Fini()
	}
	if t.prevLogger != nil {
		slog.SetDefault(t.prevLogger)
	}
	slog.Info("terminal backend closed")
	return nil
}

func (t *Terminal) handleSignals() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	<-signals
	t.sigQuit.Store(true)
}

// Update renders the frame and reports input gathered since the last
// call.
func (t *Terminal) Update(frame *video.FrameBuffer) (Input, error) {
	now := time.Now()

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.handleKey(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	input := t.pending
	t.pending = Input{}

	for button, lastPressed := range t.keyStates {
		if now.Sub(lastPressed) < keyTimeout {
			input.Buttons |= button
		} else {
			delete(t.keyStates, button)
		}
	}
	input.FastForward = t.fast
	if t.sigQuit.Load() {
		input.Quit = true
	}

	t.render(frame)
	t.screen.Show()

	return input, nil
}

func (t *Terminal) handleKey(ev *tcell.EventKey, now time.Time) {
	if button, ok := keyButtons[ev.Key()]; ok {
		t.press(button, now)
		return
	}

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		t.pending.Quit = true
	case tcell.KeyF5:
		t.pending.SaveState = true
	case tcell.KeyF8:
		t.pending.LoadState = true
	case tcell.KeyF9:
		t.pending.Screenshot = true
	case tcell.KeyRune:
		t.handleRune(ev.Rune(), now)
	}
}

func (t *Terminal) handleRune(r rune, now time.Time) {
	if button, ok := runeButtons[r]; ok {
		t.press(button, now)
		return
	}

	switch r {
	case 'q':
		t.pending.Quit = true
	case ' ', 'p':
		t.pending.TogglePause = true
	case 'f':
		t.fast = !t.fast
		slog.Info("fast forward", "enabled", t.fast)
	case '+', '=':
		t.changeLogLevel(1)
	case '-', '_':
		t.changeLogLevel(-1)
	}
}

// press records a button as held. Pressing a d-pad direction clears
// the other three, matching the exclusive directions of the hardware
// cross.
func (t *Terminal) press(button dotmatrix.Buttons, now time.Time) {
	if button&dpadButtons != 0 {
		for other := range t.keyStates {
			if other&dpadButtons != 0 {
				delete(t.keyStates, other)
			}
		}
	}
	t.keyStates[button] = now
}

var keyButtons = map[tcell.Key]dotmatrix.Buttons{
	tcell.KeyUp:         dotmatrix.ButtonUp,
	tcell.KeyDown:       dotmatrix.ButtonDown,
	tcell.KeyLeft:       dotmatrix.ButtonLeft,
	tcell.KeyRight:      dotmatrix.ButtonRight,
	tcell.KeyEnter:      dotmatrix.ButtonStart,
	tcell.KeyBackspace:  dotmatrix.ButtonSelect,
	tcell.KeyBackspace2: dotmatrix.ButtonSelect,
}

var runeButtons = map[rune]dotmatrix.Buttons{
	'z': dotmatrix.ButtonA,
	'x': dotmatrix.ButtonB,
	'w': dotmatrix.ButtonUp,
	's': dotmatrix.ButtonDown,
	'a': dotmatrix.ButtonLeft,
	'd': dotmatrix.ButtonRight,
}

func (t *Terminal) changeLogLevel(direction int) {
	levels := []slog.Level{slog.LevelError, slog.LevelWarn, slog.LevelInfo, slog.LevelDebug}
	for i, level := range levels {
		if level == t.logLevel {
			next := i + direction
			if next >= 0 && next < len(levels) {
				t.logLevel = levels[next]
				slog.Info("log filter changed", "level", t.logLevel)
			}
			return
		}
	}
}

// shadeColors indexes terminal colors by framebuffer shade, lightest
// first.
var shadeColors = [4]tcell.Color{
	tcell.ColorWhite,
	tcell.ColorSilver,
	tcell.ColorGray,
	tcell.ColorBlack,
}

func halfBlockCell(top, bottom byte) (rune, tcell.Style) {
	if top == bottom {
		return '█', tcell.StyleDefault.Foreground(shadeColors[top&0x03])
	}
	return '▀', tcell.StyleDefault.
		Foreground(shadeColors[top&0x03]).
		Background(shadeColors[bottom&0x03])
}

func (t *Terminal) render(frame *video.FrameBuffer) {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		for i, ch := range msg {
			t.screen.SetContent(i, termHeight/2, ch, nil, style)
		}
		return
	}

	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	t.drawText(1, 0, termWidth, " "+t.config.Title+" ", titleStyle)

	gameTop := 1
	for y := 0; y < video.FramebufferHeight; y += 2 {
		for x := 0; x < video.FramebufferWidth; x++ {
			ch, style := halfBlockCell(frame.GetPixel(x, y), frame.GetPixel(x, y+1))
			t.screen.SetContent(x, gameTop+y/2, ch, nil, style)
		}
	}

	logsY := gameTop + video.FramebufferHeight/2 + 1
	t.drawLogs(logsY, termWidth, termHeight)

	help := " z=A x=B arrows=dpad Enter=Start Bksp=Select | Space=pause f=ffwd F5=save F8=load F9=shot q=quit | logs -/+ "
	t.drawText(0, termHeight-1, termWidth, help, tcell.StyleDefault.Foreground(tcell.ColorWhite))
}

func (t *Terminal) drawLogs(startY, termWidth, termHeight int) {
	available := termHeight - 1 - startY
	if available <= 0 {
		return
	}

	entries := t.ring.Recent(available * 2)
	row := 0
	for _, entry := range entries {
		if entry.Level < t.logLevel {
			continue
		}
		if row >= available {
			break
		}

		style := tcell.StyleDefault.Foreground(tcell.ColorBlue)
		switch entry.Level {
		case slog.LevelDebug:
			style = tcell.StyleDefault.Foreground(tcell.ColorGray)
		case slog.LevelWarn:
			style = tcell.StyleDefault.Foreground(tcell.ColorYellow)
		case slog.LevelError:
			style = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
		}

		t.drawText(0, startY+row, termWidth, FormatLogEntry(entry), style)
		row++
	}
}

func (t *Terminal) drawText(x, y, maxWidth int, text string, style tcell.Style) {
	col := x
	for _, ch := range text {
		if col >= maxWidth {
			break
		}
		t.screen.SetContent(col, y, ch, nil, style)
		col++
	}
}
