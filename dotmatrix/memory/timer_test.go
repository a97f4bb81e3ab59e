package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
)

func TestTimerDIV(t *testing.T) {
	tmr := Timer{}

	tmr.Tick(255)
	assert.Equal(t, uint8(0), tmr.Read(addr.DIV))

	tmr.Tick(1)
	assert.Equal(t, uint8(1), tmr.Read(addr.DIV))

	tmr.Write(addr.DIV, 0x55) // any write clears
	assert.Equal(t, uint8(0), tmr.Read(addr.DIV))
}

func TestTimerTIMARates(t *testing.T) {
	testCases := []struct {
		desc   string
		tac    uint8
		period int
	}{
		{desc: "4096 Hz", tac: 0x04, period: 1024},
		{desc: "262144 Hz", tac: 0x05, period: 16},
		{desc: "65536 Hz", tac: 0x06, period: 64},
		{desc: "16384 Hz", tac: 0x07, period: 256},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			tmr := Timer{tac: tC.tac}

			tmr.Tick(tC.period - 1)
			assert.Equal(t, uint8(0), tmr.tima)

			tmr.Tick(1)
			assert.Equal(t, uint8(1), tmr.tima)

			tmr.Tick(tC.period * 3)
			assert.Equal(t, uint8(4), tmr.tima)
		})
	}
}

func TestTimerDisabled(t *testing.T) {
	tmr := Timer{}

	tmr.Tick(4096)

	assert.Equal(t, uint8(0), tmr.tima)
	assert.Equal(t, uint8(0x10), tmr.Read(addr.DIV), "divider keeps counting")
}

func TestTimerOverflowDelay(t *testing.T) {
	fired := 0
	tmr := Timer{tima: 0xFF, tma: 0xAB, tac: 0x05, requestInterrupt: func() { fired++ }}

	// At 262144 Hz the selected bit falls every 16 cycles.
	tmr.Tick(16)

	// TIMA reads zero during the reload delay and no interrupt has
	// fired yet.
	assert.Equal(t, uint8(0), tmr.Read(addr.TIMA))
	assert.Equal(t, 0, fired)

	tmr.Tick(3)
	assert.Equal(t, uint8(0), tmr.Read(addr.TIMA))
	assert.Equal(t, 0, fired)

	tmr.Tick(1)
	assert.Equal(t, uint8(0xAB), tmr.Read(addr.TIMA))
	assert.Equal(t, 1, fired)
}

func TestTimerWriteDuringReloadCancels(t *testing.T) {
	fired := 0
	tmr := Timer{tima: 0xFF, tma: 0xAB, tac: 0x05, requestInterrupt: func() { fired++ }}

	tmr.Tick(16)
	tmr.Write(addr.TIMA, 0x12)
	tmr.Tick(8)

	assert.Equal(t, uint8(0x12), tmr.Read(addr.TIMA))
	assert.Equal(t, 0, fired)
}

func TestTimerDIVWriteFallingEdge(t *testing.T) {
	tmr := Timer{tac: 0x05} // selected bit is divider bit 3

	tmr.Tick(8) // bit 3 now high
	tmr.Write(addr.DIV, 0)

	assert.Equal(t, uint8(1), tmr.tima, "reset while the selected bit is high clocks TIMA")
}

func TestTimerTACWriteFallingEdge(t *testing.T) {
	tmr := Timer{tac: 0x05}

	tmr.Tick(8)             // bit 3 high
	tmr.Write(addr.TAC, 0x00) // disable: selected bit drops

	assert.Equal(t, uint8(1), tmr.tima)
}

func TestTimerRegisterReads(t *testing.T) {
	tmr := Timer{}

	tmr.Write(addr.TAC, 0xFF)
	assert.Equal(t, uint8(0xFF), tmr.Read(addr.TAC), "TAC upper bits read as 1")

	tmr.Write(addr.TAC, 0x02)
	assert.Equal(t, uint8(0xFA), tmr.Read(addr.TAC))

	tmr.Write(addr.TMA, 0x42)
	assert.Equal(t, uint8(0x42), tmr.Read(addr.TMA))
}

func TestTimerStateRoundTrip(t *testing.T) {
	tmr := Timer{tac: 0x05, tma: 0x10}
	tmr.Tick(100)

	state := tmr.State()
	restored := Timer{}
	restored.Restore(state)

	assert.Equal(t, tmr.divider, restored.divider)
	assert.Equal(t, tmr.tima, restored.tima)
	assert.Equal(t, tmr.tma, restored.tma)
	assert.Equal(t, tmr.tac, restored.tac)
}
