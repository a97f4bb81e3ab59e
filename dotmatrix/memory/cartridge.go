package memory

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Header field offsets in the cartridge ROM.
const (
	titleAddress         = 0x0134
	titleLength          = 15
	cartridgeTypeAddress = 0x0147
	romSizeAddress       = 0x0148
	ramSizeAddress       = 0x0149
	headerEnd            = 0x0150
)

// Header parse failures. All are fatal: a cartridge that lies about its
// own geometry cannot be mapped safely.
var (
	ErrROMTooSmall    = errors.New("rom image smaller than cartridge header")
	ErrUnsupportedMBC = errors.New("unsupported cartridge type")
	ErrBadROMSize     = errors.New("rom size code inconsistent with image")
	ErrBadRAMSize     = errors.New("invalid ram size code")
)

// MBCKind identifies the bank controller variant on the cartridge.
type MBCKind uint8

const (
	// NoMBCKind is a plain 32 KiB cartridge with no banking hardware.
	NoMBCKind MBCKind = iota
	// MBC1Kind is the 5+2 bit controller with a ROM/RAM mode switch.
	MBC1Kind
	// MBC3Kind is the 7-bit controller with a latched RTC.
	MBC3Kind
	// MBC5Kind is the 9-bit controller used by late cartridges.
	MBC5Kind
)

func (k MBCKind) String() string {
	switch k {
	case NoMBCKind:
		return "none"
	case MBC1Kind:
		return "MBC1"
	case MBC3Kind:
		return "MBC3"
	case MBC5Kind:
		return "MBC5"
	}
	return "unknown"
}

// ramSizes maps the header RAM size code to a byte count.
var ramSizes = map[uint8]int{
	0x00: 0,
	0x01: 2 * 1024,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

// Cartridge is a parsed ROM image: the raw bytes plus the header fields
// the mapper needs. It does not own banking state, the MBC does.
type Cartridge struct {
	data []byte

	title      string
	kind       MBCKind
	typeByte   uint8
	romBanks   int
	ramSize    int
	hasBattery bool
	hasRTC     bool
}

// NewCartridge parses the header of a raw ROM image and validates its
// geometry against the buffer. The image is used as-is, not copied.
func NewCartridge(data []byte) (*Cartridge, error) {
	if len(data) < headerEnd {
		return nil, fmt.Errorf("%w: %d bytes", ErrROMTooSmall, len(data))
	}

	c := &Cartridge{
		data:     data,
		title:    cleanTitle(data[titleAddress : titleAddress+titleLength]),
		typeByte: data[cartridgeTypeAddress],
	}

	switch c.typeByte {
	case 0x00, 0x08, 0x09:
		c.kind = NoMBCKind
	case 0x01, 0x02, 0x03:
		c.kind = MBC1Kind
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		c.kind = MBC3Kind
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		c.kind = MBC5Kind
	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnsupportedMBC, c.typeByte)
	}

	switch c.typeByte {
	case 0x03, 0x09, 0x0F, 0x10, 0x13, 0x1B, 0x1E:
		c.hasBattery = true
	}
	switch c.typeByte {
	case 0x0F, 0x10:
		c.hasRTC = true
	}

	romCode := data[romSizeAddress]
	if romCode > 0x08 {
		return nil, fmt.Errorf("%w: code 0x%02X", ErrBadROMSize, romCode)
	}
	romSize := (32 * 1024) << romCode
	if romSize > len(data) {
		return nil, fmt.Errorf("%w: header claims %d bytes, image has %d", ErrBadROMSize, romSize, len(data))
	}
	c.romBanks = romSize / 0x4000

	ramSize, ok := ramSizes[data[ramSizeAddress]]
	if !ok {
		return nil, fmt.Errorf("%w: code 0x%02X", ErrBadRAMSize, data[ramSizeAddress])
	}
	c.ramSize = ramSize

	return c, nil
}

// Title returns the header title, cleaned to printable characters.
func (c *Cartridge) Title() string { return c.title }

// Kind returns the bank controller variant the header selects.
func (c *Cartridge) Kind() MBCKind { return c.kind }

// ROMBanks returns the number of 16 KiB ROM banks.
func (c *Cartridge) ROMBanks() int { return c.romBanks }

// RAMSize returns the external RAM size in bytes.
func (c *Cartridge) RAMSize() int { return c.ramSize }

// HasBattery reports whether the cartridge type includes battery-backed RAM.
func (c *Cartridge) HasBattery() bool { return c.hasBattery }

// HasRTC reports whether the cartridge type includes the MBC3 clock.
func (c *Cartridge) HasRTC() bool { return c.hasRTC }

// String summarizes the cartridge for logs.
func (c *Cartridge) String() string {
	return fmt.Sprintf("%s (type=0x%02X mbc=%s rom=%dKiB ram=%dKiB)",
		c.title, c.typeByte, c.kind, c.romBanks*16, c.ramSize/1024)
}

// cleanTitle maps the raw title bytes to printable ASCII: NULs become
// spaces, anything else unprintable becomes '?', and the result is
// trimmed. Untitled carts get a placeholder.
func cleanTitle(raw []byte) string {
	runes := make([]rune, 0, len(raw))
	for _, b := range raw {
		r := rune(b)
		if r == 0 {
			r = ' '
		} else if !unicode.IsPrint(r) {
			r = '?'
		}
		runes = append(runes, r)
	}

	title := strings.TrimSpace(string(runes))
	if title == "" {
		return "(untitled)"
	}
	return title
}
