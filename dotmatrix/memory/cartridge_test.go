package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// buildROM assembles a minimal ROM image. Every 16 KiB bank gets its
// number stamped into its first byte so reads identify the mapped bank.
func buildROM(cartType, romCode, ramCode byte) []byte {
	size := (32 * 1024) << romCode
	rom := make([]byte, size)
	copy(rom[titleAddress:], "TEST")
	rom[cartridgeTypeAddress] = cartType
	rom[romSizeAddress] = romCode
	rom[ramSizeAddress] = ramCode
	for bank := 1; bank < size/0x4000; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	return rom
}

func TestNewCartridge(t *testing.T) {
	cart, err := NewCartridge(buildROM(0x01, 0x01, 0x02))

	assert.NoError(t, err)
	assert.Equal(t, "TEST", cart.Title())
	assert.Equal(t, MBC1Kind, cart.Kind())
	assert.Equal(t, 4, cart.ROMBanks())
	assert.Equal(t, 8*1024, cart.RAMSize())
	assert.False(t, cart.HasBattery())
	assert.Contains(t, cart.String(), "MBC1")
}

func TestNewCartridgeKinds(t *testing.T) {
	testCases := []struct {
		desc     string
		cartType byte
		kind     MBCKind
		battery  bool
		rtc      bool
	}{
		{desc: "rom only", cartType: 0x00, kind: NoMBCKind},
		{desc: "rom+ram+battery", cartType: 0x09, kind: NoMBCKind, battery: true},
		{desc: "mbc1+ram+battery", cartType: 0x03, kind: MBC1Kind, battery: true},
		{desc: "mbc3+rtc+battery", cartType: 0x0F, kind: MBC3Kind, battery: true, rtc: true},
		{desc: "mbc3+ram", cartType: 0x12, kind: MBC3Kind},
		{desc: "mbc5", cartType: 0x19, kind: MBC5Kind},
		{desc: "mbc5+ram+battery", cartType: 0x1B, kind: MBC5Kind, battery: true},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cart, err := NewCartridge(buildROM(tC.cartType, 0x00, 0x00))

			assert.NoError(t, err)
			assert.Equal(t, tC.kind, cart.Kind())
			assert.Equal(t, tC.battery, cart.HasBattery())
			assert.Equal(t, tC.rtc, cart.HasRTC())
		})
	}
}

func TestNewCartridgeErrors(t *testing.T) {
	t.Run("image smaller than header", func(t *testing.T) {
		_, err := NewCartridge(make([]byte, 0x100))
		assert.ErrorIs(t, err, ErrROMTooSmall)
	})
	t.Run("unsupported type", func(t *testing.T) {
		_, err := NewCartridge(buildROM(0x20, 0x00, 0x00))
		assert.ErrorIs(t, err, ErrUnsupportedMBC)
	})
	t.Run("rom size code out of range", func(t *testing.T) {
		rom := buildROM(0x00, 0x00, 0x00)
		rom[romSizeAddress] = 0x09
		_, err := NewCartridge(rom)
		assert.ErrorIs(t, err, ErrBadROMSize)
	})
	t.Run("rom size larger than image", func(t *testing.T) {
		rom := buildROM(0x00, 0x00, 0x00)
		rom[romSizeAddress] = 0x02 // claims 128 KiB, image is 32
		_, err := NewCartridge(rom)
		assert.ErrorIs(t, err, ErrBadROMSize)
	})
	t.Run("bad ram size code", func(t *testing.T) {
		rom := buildROM(0x00, 0x00, 0x00)
		rom[ramSizeAddress] = 0x06
		_, err := NewCartridge(rom)
		assert.ErrorIs(t, err, ErrBadRAMSize)
	})
}

func TestCartridgeTitleCleaning(t *testing.T) {
	rom := buildROM(0x00, 0x00, 0x00)
	copy(rom[titleAddress:], []byte{'P', 'O', 'K', 'E', 0x00, 0x00, 0x01, 0x00})

	cart, err := NewCartridge(rom)

	assert.NoError(t, err)
	assert.Equal(t, "POKE  ?", cart.Title())
}

func TestCartridgeUntitled(t *testing.T) {
	rom := buildROM(0x00, 0x00, 0x00)
	for i := 0; i < titleLength; i++ {
		rom[titleAddress+i] = 0
	}

	cart, err := NewCartridge(rom)

	assert.NoError(t, err)
	assert.Equal(t, "(untitled)", cart.Title())
}
