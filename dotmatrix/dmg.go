// Package dotmatrix emulates the original Game Boy (DMG). The DMG
// type wires the SM83 CPU to the bus and exposes the host-facing
// surface: stepping, completed frames, audio samples, input and save
// states. The core is single threaded and deterministic; frame and
// sample hand-off points are safe to use from other goroutines.
package dotmatrix

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/valerio/go-dotmatrix/dotmatrix/cpu"
	"github.com/valerio/go-dotmatrix/dotmatrix/memory"
	"github.com/valerio/go-dotmatrix/dotmatrix/serial"
	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

const (
	// CyclesPerFrame is the length of one LCD refresh in T-cycles:
	// 154 scanlines of 456 dots.
	CyclesPerFrame = 70224

	// CyclesPerSecond is the DMG master clock in T-cycles.
	CyclesPerSecond = 4194304

	// FrameRate is the LCD refresh rate in Hz.
	FrameRate = float64(CyclesPerSecond) / float64(CyclesPerFrame)
)

// Buttons packs the eight buttons into a bitmask, 1 = pressed. The bit
// positions follow memory.JoypadKey.
type Buttons uint8

const (
	ButtonRight  Buttons = 1 << memory.JoypadRight
	ButtonLeft   Buttons = 1 << memory.JoypadLeft
	ButtonUp     Buttons = 1 << memory.JoypadUp
	ButtonDown   Buttons = 1 << memory.JoypadDown
	ButtonA      Buttons = 1 << memory.JoypadA
	ButtonB      Buttons = 1 << memory.JoypadB
	ButtonSelect Buttons = 1 << memory.JoypadSelect
	ButtonStart  Buttons = 1 << memory.JoypadStart
)

// DMG is one emulated machine in post-boot state.
type DMG struct {
	cpu *cpu.CPU
	bus *memory.Bus

	logger  *slog.Logger
	device  serial.Device
	capture *serial.Capture

	// input is the packed button mask the host last handed over. It is
	// sampled once per RunFrame so a frame sees a stable joypad.
	input atomic.Uint32

	cycles uint64

	mu         sync.Mutex
	front      *video.FrameBuffer
	frameCount uint64
}

// Option configures a DMG at construction time.
type Option func(*DMG)

// WithSerialDevice attaches a sink for bytes sent out the link port.
func WithSerialDevice(device serial.Device) Option {
	return func(d *DMG) {
		d.device = device
		if c, ok := device.(*serial.Capture); ok {
			d.capture = c
		}
	}
}

// WithLogger routes machine logs to the given logger instead of the
// default.
func WithLogger(logger *slog.Logger) Option {
	return func(d *DMG) { d.logger = logger }
}

// New builds a machine around the given ROM image, already in the
// state the boot ROM leaves behind.
func New(rom []byte, opts ...Option) (*DMG, error) {
	cart, err := memory.NewCartridge(rom)
	if err != nil {
		return nil, fmt.Errorf("loading cartridge: %w", err)
	}

	d := &DMG{
		logger: slog.Default(),
		front:  video.NewFrameBuffer(),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.bus = memory.NewBus(cart, d.publishFrame)
	if d.device != nil {
		d.bus.SetSerialDevice(d.device)
	}
	d.cpu = cpu.New(d.bus)

	d.logger.Info("cartridge loaded", "cart", cart.String())
	return d, nil
}

// publishFrame runs on the core goroutine whenever the PPU completes a
// frame. It swaps the finished buffer with the front buffer, a single
// pointer exchange under the mutex, and hands the old front back to
// the PPU to render the next frame into. An unread front buffer is
// simply overwritten a frame later.
func (d *DMG) publishFrame(fb *video.FrameBuffer) *video.FrameBuffer {
	d.mu.Lock()
	prev := d.front
	d.front = fb
	d.frameCount++
	d.mu.Unlock()
	return prev
}

// Step executes a single instruction (or interrupt dispatch) and
// returns the T-cycles it consumed. A fault stops the machine; the
// returned error unwraps to *cpu.Fault.
func (d *DMG) Step() (int, error) {
	cycles, err := d.cpu.Exec()
	d.cycles += uint64(cycles)
	return cycles, err
}

// RunFrame applies pending input, then executes whole instructions
// until the PPU publishes a frame. With the LCD disabled no frame
// ever completes, so it returns after a frame's worth of cycles.
func (d *DMG) RunFrame() error {
	d.bus.SetInput(uint8(d.input.Load()))

	start := d.frameCount
	spent := 0
	for {
		cycles, err := d.cpu.Exec()
		d.cycles += uint64(cycles)
		spent += cycles
		if err != nil {
			return err
		}
		if d.frameCount != start || spent >= CyclesPerFrame {
			return nil
		}
	}
}

// Frame returns a copy of the most recently completed frame.
func (d *DMG) Frame() *video.FrameBuffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.front.Clone()
}

// Frames returns how many frames the PPU has completed.
func (d *DMG) Frames() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frameCount
}

// Cycles returns the total T-cycles executed since construction.
func (d *DMG) Cycles() uint64 {
	return d.cycles
}

// SetInput replaces the pressed-button mask. The machine samples it at
// the next RunFrame. Safe to call from any goroutine.
func (d *DMG) SetInput(pressed Buttons) {
	d.input.Store(uint32(pressed))
}

// Samples drains up to len(buf) interleaved stereo samples from the
// audio ring and returns how many were written. Safe to call
// concurrently with the core.
func (d *DMG) Samples(buf []int16) int {
	return d.bus.APU().Samples(buf)
}

// SampleRate returns the audio stream rate in Hz.
func (d *DMG) SampleRate() int {
	return d.bus.APU().SampleRate()
}

// SerialOutput returns a copy of everything captured from the link
// port so far, or nil when no Capture device is attached.
func (d *DMG) SerialOutput() []byte {
	if d.capture == nil {
		return nil
	}
	return d.capture.Bytes()
}

// ExternalRAM returns the cartridge RAM contents, or nil when the
// cartridge has none.
func (d *DMG) ExternalRAM() []byte {
	return d.bus.ExternalRAM()
}

// ReplaceExternalRAM overwrites the cartridge RAM, typically with a
// battery save loaded from disk.
func (d *DMG) ReplaceExternalRAM(data []byte) error {
	return d.bus.ReplaceExternalRAM(data)
}

// CartridgeInfo describes the loaded ROM header.
type CartridgeInfo struct {
	Title      string
	Kind       string
	ROMBanks   int
	RAMSize    int
	HasBattery bool
	HasRTC     bool
}

func (d *DMG) CartridgeInfo() CartridgeInfo {
	c := d.bus.Cartridge()
	return CartridgeInfo{
		Title:      c.Title(),
		Kind:       c.Kind().String(),
		ROMBanks:   c.ROMBanks(),
		RAMSize:    c.RAMSize(),
		HasBattery: c.HasBattery(),
		HasRTC:     c.HasRTC(),
	}
}
