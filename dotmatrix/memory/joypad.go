package memory

import "github.com/valerio/go-dotmatrix/dotmatrix/bit"

// JoypadKey identifies one physical button. The values double as bit
// positions in the packed input mask the host hands to the core.
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// Joypad implements the P1 button matrix. Writes keep only the two
// select bits; reads expose the selected button rows on the low nibble
// with pressed buttons reading 0. A press that becomes visible on the
// selected rows requests the Joypad interrupt.
type Joypad struct {
	buttons uint8 // A/B/Select/Start on bits 0-3, 1 = released
	dpad    uint8 // Right/Left/Up/Down on bits 0-3, 1 = released
	sel     uint8 // select bits 4-5 as last written

	requestInterrupt func()
}

func newJoypad(irq func()) Joypad {
	return Joypad{
		buttons:          0x0F,
		dpad:             0x0F,
		requestInterrupt: irq,
	}
}

// visible resolves the low nibble for the current selection. Selecting
// both rows ANDs them together, selecting neither floats high.
func (j *Joypad) visible() uint8 {
	selectDpad := !bit.IsSet(4, j.sel)
	selectButtons := !bit.IsSet(5, j.sel)

	switch {
	case selectDpad && selectButtons:
		return j.dpad & j.buttons & 0x0F
	case selectDpad:
		return j.dpad & 0x0F
	case selectButtons:
		return j.buttons & 0x0F
	}
	return 0x0F
}

// Read returns the P1 register value. Bits 6-7 always read as 1.
func (j *Joypad) Read() byte {
	return 0xC0 | j.sel | j.visible()
}

// Write stores the row select bits. The button bits are read only.
func (j *Joypad) Write(value byte) {
	j.sel = value & 0x30
}

// SetState applies a packed pressed-button mask (bit positions follow
// JoypadKey, 1 = pressed). Falling edges on the visible nibble raise
// the Joypad interrupt, matching how the hardware watches the line.
func (j *Joypad) SetState(pressed uint8) {
	before := j.visible()

	j.dpad = ^pressed & 0x0F
	j.buttons = ^(pressed >> 4) & 0x0F

	after := j.visible()
	if before&^after != 0 && j.requestInterrupt != nil {
		j.requestInterrupt()
	}
}

// JoypadState is the serializable joypad snapshot.
type JoypadState struct {
	Buttons uint8
	Dpad    uint8
	Sel     uint8
}

func (j *Joypad) State() JoypadState {
	return JoypadState{Buttons: j.buttons, Dpad: j.dpad, Sel: j.sel}
}

func (j *Joypad) Restore(state JoypadState) {
	j.buttons = state.Buttons
	j.dpad = state.Dpad
	j.sel = state.Sel
}
