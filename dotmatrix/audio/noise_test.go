package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
)

func TestNoiseLFSR(t *testing.T) {
	a := newPoweredAPU()
	a.WriteRegister(addr.NR42, 0xF0)
	a.WriteRegister(addr.NR43, 0x00) // divisor 8, shift 0: one clock every 8 cycles
	a.WriteRegister(addr.NR44, 0x80)

	assert.Equal(t, uint16(0x7FFF), a.noise.lfsr, "trigger resets the register")
	assert.Equal(t, -15, a.noise.output(), "bit 0 set means low output")

	// The all-ones state shifts in zeros for 14 clocks.
	a.Tick(8)
	assert.Equal(t, uint16(0x3FFF), a.noise.lfsr)

	a.Tick(8 * 13)
	assert.Equal(t, uint16(0x0001), a.noise.lfsr)

	// Then bits 0 and 1 differ and feedback turns on.
	a.Tick(8)
	assert.Equal(t, uint16(0x4000), a.noise.lfsr)
	assert.Equal(t, 15, a.noise.output(), "bit 0 clear means high output")
}

func TestNoiseLFSRWidth7(t *testing.T) {
	a := newPoweredAPU()
	a.WriteRegister(addr.NR42, 0xF0)
	a.WriteRegister(addr.NR43, 0x08)
	a.WriteRegister(addr.NR44, 0x80)

	// Feedback lands on bit 6 as well in narrow mode.
	a.Tick(8)
	assert.Equal(t, uint16(0x3FBF), a.noise.lfsr)
}

func TestNoiseRetriggerResetsLFSR(t *testing.T) {
	a := newPoweredAPU()
	a.WriteRegister(addr.NR42, 0xF0)
	a.WriteRegister(addr.NR43, 0x00)
	a.WriteRegister(addr.NR44, 0x80)

	a.Tick(8 * 5)
	assert.NotEqual(t, uint16(0x7FFF), a.noise.lfsr)

	a.WriteRegister(addr.NR44, 0x80)
	assert.Equal(t, uint16(0x7FFF), a.noise.lfsr)
}

func TestNoisePeriods(t *testing.T) {
	testCases := []struct {
		desc string
		nr43 uint8
		want int
	}{
		{desc: "divisor code zero", nr43: 0x00, want: 8},
		{desc: "divisor code one", nr43: 0x01, want: 16},
		{desc: "divisor code seven", nr43: 0x07, want: 112},
		{desc: "shift one", nr43: 0x10, want: 16},
		{desc: "divisor four shift two", nr43: 0x24, want: 256},
		{desc: "divisor seven shift seven", nr43: 0x77, want: 14336},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			a := newPoweredAPU()
			a.WriteRegister(addr.NR43, tC.nr43)

			assert.Equal(t, tC.want, a.noise.period())
		})
	}
}

func TestNoiseEnvelope(t *testing.T) {
	a := newPoweredAPU()
	a.WriteRegister(addr.NR42, 0xA1) // volume 10, down, period 1
	a.WriteRegister(addr.NR44, 0x80)

	a.Tick(65536)

	assert.Equal(t, uint8(9), a.noise.volume)
	assert.True(t, a.noise.active())
}

func TestNoiseTriggerRequiresDAC(t *testing.T) {
	a := newPoweredAPU()

	a.WriteRegister(addr.NR42, 0x00)
	a.WriteRegister(addr.NR44, 0x80)
	assert.False(t, a.noise.active())

	a.WriteRegister(addr.NR42, 0x08)
	a.WriteRegister(addr.NR44, 0x80)
	assert.True(t, a.noise.active(), "direction bit alone powers the DAC")
}
