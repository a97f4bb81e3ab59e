package memory

import (
	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
	"github.com/valerio/go-dotmatrix/dotmatrix/bit"
)

// tacBits maps the TAC clock select field (bits 1-0) to the divider bit
// whose falling edge clocks TIMA:
//
//	00 -> bit 9 (4096 Hz)
//	01 -> bit 3 (262144 Hz)
//	10 -> bit 5 (65536 Hz)
//	11 -> bit 7 (16384 Hz)
var tacBits = [4]uint8{9, 3, 5, 7}

// Timer implements DIV/TIMA/TMA/TAC. DIV is the high byte of a 16-bit
// divider that increments every cycle; TIMA increments whenever the
// TAC-selected divider bit falls while the timer is enabled. Because
// the edge detector watches the bit itself, writes that zero the
// divider or change TAC can produce an extra increment, which is real
// hardware behavior and deliberately not filtered.
type Timer struct {
	divider  uint16
	tima     byte
	tma      byte
	tac      byte
	reloadIn int // cycles left until an overflowed TIMA reloads from TMA

	requestInterrupt func()
}

// selectedBit returns the state of the TAC-selected divider bit, or
// false when the timer is disabled.
func (t *Timer) selectedBit() bool {
	if !bit.IsSet(2, t.tac) {
		return false
	}
	return bit.IsSet16(tacBits[t.tac&0x03], t.divider)
}

// Tick advances the timer by the given number of cycles.
func (t *Timer) Tick(cycles int) {
	for i := 0; i < cycles; i++ {
		if t.reloadIn > 0 {
			t.reloadIn--
			if t.reloadIn == 0 {
				t.tima = t.tma
				if t.requestInterrupt != nil {
					t.requestInterrupt()
				}
			}
		}

		old := t.selectedBit()
		t.divider++
		if old && !t.selectedBit() {
			t.incrementTIMA()
		}
	}
}

// incrementTIMA bumps the counter. On overflow TIMA reads zero for one
// machine cycle before the TMA reload and interrupt happen.
func (t *Timer) incrementTIMA() {
	if t.tima == 0xFF {
		t.tima = 0
		t.reloadIn = 4
		return
	}
	t.tima++
}

func (t *Timer) Read(address uint16) byte {
	switch address {
	case addr.DIV:
		return byte(t.divider >> 8)
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac | 0xF8
	}
	return 0xFF
}

func (t *Timer) Write(address uint16, value byte) {
	switch address {
	case addr.DIV:
		// Zeroing the divider can itself be a falling edge.
		old := t.selectedBit()
		t.divider = 0
		if old {
			t.incrementTIMA()
		}
	case addr.TIMA:
		// A write during the reload delay cancels the reload.
		t.reloadIn = 0
		t.tima = value
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		// Disabling the timer or moving to a low selected bit while the
		// old selected bit was high also counts as a falling edge.
		old := t.selectedBit()
		t.tac = value & 0x07
		if old && !t.selectedBit() {
			t.incrementTIMA()
		}
	}
}

// TimerState is the serializable timer snapshot.
type TimerState struct {
	Divider  uint16
	TIMA     byte
	TMA      byte
	TAC      byte
	ReloadIn int
}

func (t *Timer) State() TimerState {
	return TimerState{
		Divider:  t.divider,
		TIMA:     t.tima,
		TMA:      t.tma,
		TAC:      t.tac,
		ReloadIn: t.reloadIn,
	}
}

func (t *Timer) Restore(state TimerState) {
	t.divider = state.Divider
	t.tima = state.TIMA
	t.tma = state.TMA
	t.tac = state.TAC
	t.reloadIn = state.ReloadIn
}
