package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustMBC(t *testing.T, cartType, romCode, ramCode byte) MBC {
	t.Helper()
	cart, err := NewCartridge(buildROM(cartType, romCode, ramCode))
	assert.NoError(t, err)
	return NewMBC(cart)
}

func TestNoMBC(t *testing.T) {
	m := mustMBC(t, 0x08, 0x00, 0x02) // ROM+RAM, no controller

	assert.Equal(t, uint8(0x00), m.Read(0x0000))
	assert.Equal(t, uint8(0x01), m.Read(0x4000), "upper half maps bank 1")

	// Unbanked RAM needs no enable sequence.
	m.Write(0xA000, 0x42)
	assert.Equal(t, uint8(0x42), m.Read(0xA000))
	assert.Len(t, m.RAM(), 8*1024)
}

func TestMBC1BankSwitching(t *testing.T) {
	m := mustMBC(t, 0x01, 0x05, 0x00) // 1 MiB, 64 banks

	assert.Equal(t, uint8(1), m.Read(0x4000), "bank register starts at 1")

	m.Write(0x2000, 0x02)
	assert.Equal(t, uint8(2), m.Read(0x4000))

	// Writing 0 selects bank 1, so bank 0x20 aliases to 0x21 once the
	// high bits are set.
	m.Write(0x2000, 0x20)
	assert.Equal(t, uint8(1), m.Read(0x4000))
	m.Write(0x4000, 0x01)
	assert.Equal(t, uint8(0x21), m.Read(0x4000))

	// RAM banking mode reserves the high bits for RAM, dropping the
	// effective ROM bank back down.
	m.Write(0x6000, 0x01)
	assert.Equal(t, uint8(1), m.Read(0x4000))
}

func TestMBC1RAM(t *testing.T) {
	m := mustMBC(t, 0x03, 0x01, 0x03) // 32 KiB RAM, 4 banks

	assert.Equal(t, uint8(0xFF), m.Read(0xA000), "disabled RAM reads open bus")
	m.Write(0xA000, 0x42)

	m.Write(0x0000, 0x0A)
	assert.Equal(t, uint8(0x00), m.Read(0xA000), "write before enable must not land")

	m.Write(0xA000, 0x42)
	assert.Equal(t, uint8(0x42), m.Read(0xA000))

	// Bank 1 in RAM banking mode is a different cell.
	m.Write(0x6000, 0x01)
	m.Write(0x4000, 0x01)
	assert.Equal(t, uint8(0x00), m.Read(0xA000))
	m.Write(0xA000, 0x99)

	m.Write(0x4000, 0x00)
	assert.Equal(t, uint8(0x42), m.Read(0xA000))

	m.Write(0x0000, 0x00)
	assert.Equal(t, uint8(0xFF), m.Read(0xA000), "disable cuts access again")
}

func TestMBC3BankSwitching(t *testing.T) {
	m := mustMBC(t, 0x11, 0x02, 0x00) // 128 KiB, 8 banks

	m.Write(0x2000, 0x00)
	assert.Equal(t, uint8(1), m.Read(0x4000), "bank 0 coerces to 1")

	m.Write(0x2000, 0x05)
	assert.Equal(t, uint8(5), m.Read(0x4000))

	m.Write(0x2000, 0x85) // only 7 bits count
	assert.Equal(t, uint8(5), m.Read(0x4000))
}

func TestMBC3RTCLatch(t *testing.T) {
	m := mustMBC(t, 0x10, 0x00, 0x03)

	m.Write(0x0000, 0x0A)
	m.Write(0x4000, 0x08) // select RTC seconds

	m.Write(0xA000, 0x3B)
	assert.Equal(t, uint8(0x00), m.Read(0xA000), "unlatched clock reads the old snapshot")

	m.Write(0x6000, 0x00)
	m.Write(0x6000, 0x01)
	assert.Equal(t, uint8(0x3B), m.Read(0xA000))

	// Live register changes stay invisible until the next latch.
	m.Write(0xA000, 0x10)
	assert.Equal(t, uint8(0x3B), m.Read(0xA000))

	m.Write(0x6000, 0x00)
	m.Write(0x6000, 0x01)
	assert.Equal(t, uint8(0x10), m.Read(0xA000))
}

func TestMBC3RAMAndClockShareWindow(t *testing.T) {
	m := mustMBC(t, 0x10, 0x00, 0x03)

	m.Write(0x0000, 0x0A)

	m.Write(0x4000, 0x00)
	m.Write(0xA000, 0x42)

	m.Write(0x4000, 0x02)
	m.Write(0xA000, 0x24)

	m.Write(0x4000, 0x00)
	assert.Equal(t, uint8(0x42), m.Read(0xA000))
	m.Write(0x4000, 0x02)
	assert.Equal(t, uint8(0x24), m.Read(0xA000))
}

func TestMBC5BankSwitching(t *testing.T) {
	m := mustMBC(t, 0x19, 0x03, 0x00) // 256 KiB, 16 banks

	// Bank 0 is selectable, mapping the header into the upper window.
	m.Write(0x2000, 0x00)
	assert.Equal(t, uint8('T'), m.Read(0x4000+titleAddress))

	m.Write(0x2000, 0x03)
	assert.Equal(t, uint8(3), m.Read(0x4000))

	// The ninth bit lives at its own port; 0x105 wraps to bank 5 here.
	m.Write(0x3000, 0x01)
	m.Write(0x2000, 0x05)
	assert.Equal(t, uint8(5), m.Read(0x4000))
}

func TestMBC5RAMBanks(t *testing.T) {
	m := mustMBC(t, 0x1A, 0x00, 0x03)

	m.Write(0x0000, 0x0A)
	m.Write(0x4000, 0x00)
	m.Write(0xA000, 0x11)
	m.Write(0x4000, 0x02)
	m.Write(0xA000, 0x22)

	m.Write(0x4000, 0x00)
	assert.Equal(t, uint8(0x11), m.Read(0xA000))
	m.Write(0x4000, 0x02)
	assert.Equal(t, uint8(0x22), m.Read(0xA000))
}

func TestMBCSetRAM(t *testing.T) {
	m := mustMBC(t, 0x03, 0x01, 0x02)

	err := m.SetRAM(make([]byte, 4))
	assert.Error(t, err, "size must match the cartridge")

	saved := make([]byte, 8*1024)
	saved[0] = 0xAA
	assert.NoError(t, m.SetRAM(saved))

	m.Write(0x0000, 0x0A)
	assert.Equal(t, uint8(0xAA), m.Read(0xA000))
}

func TestMBCStateRoundTrip(t *testing.T) {
	m := mustMBC(t, 0x03, 0x05, 0x03)

	m.Write(0x0000, 0x0A)
	m.Write(0x2000, 0x07)
	m.Write(0x4000, 0x01)
	m.Write(0xA000, 0x42) // lands in RAM bank 0, mode is still 0

	state := m.State()

	// The snapshot owns its RAM copy.
	m.Write(0xA000, 0x00)
	assert.Equal(t, uint8(0x42), state.RAM[0])

	restored := mustMBC(t, 0x03, 0x05, 0x03)
	restored.Restore(state)

	assert.Equal(t, uint8(0x42), restored.Read(0xA000))
	assert.Equal(t, m.Read(0x4000), restored.Read(0x4000))
}
