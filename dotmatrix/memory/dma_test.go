package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// testDMA wires the engine to a fake bus where every address reads as
// page+offset, so the landed bytes identify their source.
func testDMA() (*DMA, *[160]byte) {
	oam := &[160]byte{}
	d := &DMA{
		read:  func(address uint16) byte { return byte(address>>8) + byte(address) },
		write: func(index int, value byte) { oam[index] = value },
	}
	return d, oam
}

func TestDMATransfer(t *testing.T) {
	d, oam := testDMA()

	d.Start(0xC1)
	assert.True(t, d.Active())
	assert.Equal(t, uint8(0xC1), d.Register())

	// One byte lands every 4 cycles, 160 bytes in total.
	d.Tick(4)
	assert.Equal(t, uint8(0xC1), oam[0])
	assert.Equal(t, uint8(0x00), oam[1], "only the first byte has landed")

	d.Tick(4)
	assert.Equal(t, uint8(0xC2), oam[1])

	d.Tick(160*4 - 8)
	assert.False(t, d.Active())
	assert.Equal(t, uint8(0x60), oam[159])
}

func TestDMARestart(t *testing.T) {
	d, oam := testDMA()

	d.Start(0xC1)
	d.Tick(40)
	assert.Equal(t, uint8(0xCA), oam[9])

	// A mid-flight write restarts from the new page.
	d.Start(0xC2)
	d.Tick(4)
	assert.True(t, d.Active())
	assert.Equal(t, uint8(0xC2), oam[0])

	d.Tick(160 * 4)
	assert.False(t, d.Active())
	assert.Equal(t, uint8(0x61), oam[159])
}

func TestDMAIdleTickDoesNothing(t *testing.T) {
	d, oam := testDMA()

	d.Tick(1000)

	assert.False(t, d.Active())
	assert.Equal(t, uint8(0), oam[0])
}

func TestDMAStateRoundTrip(t *testing.T) {
	d, _ := testDMA()
	d.Start(0xC1)
	d.Tick(42)

	state := d.State()
	restored, oam := testDMA()
	restored.Restore(state)

	// The restored engine resumes mid-transfer rather than restarting.
	restored.Tick(160 * 4)
	assert.False(t, restored.Active())
	assert.Equal(t, uint8(0x00), oam[9])
	assert.Equal(t, uint8(0xCB), oam[10])
	assert.Equal(t, uint8(0x60), oam[159])
}
