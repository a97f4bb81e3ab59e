// Package addr holds the DMG memory map: region boundaries, IO register
// addresses and the interrupt bit assignments.
package addr

// Memory regions. End addresses are inclusive.
const (
	// ROMBank0End is the last byte of the fixed cartridge ROM bank.
	ROMBank0End uint16 = 0x3FFF
	// ROMBankNEnd is the last byte of the switchable ROM bank window.
	ROMBankNEnd uint16 = 0x7FFF
	// VRAMStart is the first byte of video RAM (8 KiB).
	VRAMStart uint16 = 0x8000
	// VRAMEnd is the last byte of video RAM.
	VRAMEnd uint16 = 0x9FFF
	// ExternalRAMStart is the first byte of the cartridge RAM window.
	ExternalRAMStart uint16 = 0xA000
	// ExternalRAMEnd is the last byte of the cartridge RAM window.
	ExternalRAMEnd uint16 = 0xBFFF
	// WRAMStart is the first byte of work RAM (8 KiB).
	WRAMStart uint16 = 0xC000
	// WRAMEnd is the last byte of work RAM.
	WRAMEnd uint16 = 0xDFFF
	// EchoStart is the first byte of the region mirroring work RAM.
	EchoStart uint16 = 0xE000
	// EchoEnd is the last byte of the echo region.
	EchoEnd uint16 = 0xFDFF
	// OAMStart is the first byte of object attribute memory (40 sprites, 4 bytes each).
	OAMStart uint16 = 0xFE00
	// OAMEnd is the last byte of object attribute memory.
	OAMEnd uint16 = 0xFE9F
	// UnusableStart is the first byte of the prohibited region after OAM.
	UnusableStart uint16 = 0xFEA0
	// UnusableEnd is the last byte of the prohibited region.
	UnusableEnd uint16 = 0xFEFF
	// IOStart is the first byte of the IO register window.
	IOStart uint16 = 0xFF00
	// HRAMStart is the first byte of high RAM.
	HRAMStart uint16 = 0xFF80
	// HRAMEnd is the last byte of high RAM.
	HRAMEnd uint16 = 0xFFFE
)

// Joypad and serial port.
const (
	// P1 selects and reads the joypad matrix.
	P1 uint16 = 0xFF00
	// SB holds the byte shifted out (and in) by a serial transfer.
	SB uint16 = 0xFF01
	// SC controls serial transfers: bit 7 starts one, bit 0 selects the
	// internal clock. Hardware clears bit 7 when the transfer completes
	// and requests the Serial interrupt.
	SC uint16 = 0xFF02
)

// Timer registers.
const (
	// DIV is the visible high byte of the internal divider; writing any
	// value resets the whole divider.
	DIV uint16 = 0xFF04
	// TIMA is the timer counter; it requests an interrupt on overflow.
	TIMA uint16 = 0xFF05
	// TMA is the value reloaded into TIMA after an overflow.
	TMA uint16 = 0xFF06
	// TAC enables the timer and selects its clock bit.
	TAC uint16 = 0xFF07
)

// Interrupt registers.
const (
	// IF is the interrupt request register.
	IF uint16 = 0xFF0F
	// IE is the interrupt enable register.
	IE uint16 = 0xFFFF
)

// APU registers.
const (
	AudioStart uint16 = 0xFF10
	AudioEnd   uint16 = 0xFF3F

	NR10 uint16 = 0xFF10 // channel 1 sweep
	NR11 uint16 = 0xFF11 // channel 1 duty and length load
	NR12 uint16 = 0xFF12 // channel 1 envelope
	NR13 uint16 = 0xFF13 // channel 1 frequency low
	NR14 uint16 = 0xFF14 // channel 1 frequency high and control

	NR21 uint16 = 0xFF16 // channel 2 duty and length load
	NR22 uint16 = 0xFF17 // channel 2 envelope
	NR23 uint16 = 0xFF18 // channel 2 frequency low
	NR24 uint16 = 0xFF19 // channel 2 frequency high and control

	NR30 uint16 = 0xFF1A // channel 3 DAC enable
	NR31 uint16 = 0xFF1B // channel 3 length load
	NR32 uint16 = 0xFF1C // channel 3 output level
	NR33 uint16 = 0xFF1D // channel 3 frequency low
	NR34 uint16 = 0xFF1E // channel 3 frequency high and control

	NR41 uint16 = 0xFF20 // channel 4 length load
	NR42 uint16 = 0xFF21 // channel 4 envelope
	NR43 uint16 = 0xFF22 // channel 4 polynomial counter
	NR44 uint16 = 0xFF23 // channel 4 control

	NR50 uint16 = 0xFF24 // master volume per terminal
	NR51 uint16 = 0xFF25 // channel to terminal routing
	NR52 uint16 = 0xFF26 // power control and channel status

	WaveRAMStart uint16 = 0xFF30
	WaveRAMEnd   uint16 = 0xFF3F
)

// PPU registers.
const (
	// LCDC is the LCD control register.
	LCDC uint16 = 0xFF40
	// STAT is the LCD status register.
	STAT uint16 = 0xFF41
	// SCY is the background vertical scroll.
	SCY uint16 = 0xFF42
	// SCX is the background horizontal scroll.
	SCX uint16 = 0xFF43
	// LY is the current scanline (read only).
	LY uint16 = 0xFF44
	// LYC is compared against LY for the STAT coincidence bit.
	LYC uint16 = 0xFF45
	// DMA starts an OAM DMA transfer from the written page.
	DMA uint16 = 0xFF46
	// BGP is the background palette.
	BGP uint16 = 0xFF47
	// OBP0 is sprite palette 0.
	OBP0 uint16 = 0xFF48
	// OBP1 is sprite palette 1.
	OBP1 uint16 = 0xFF49
	// WY is the window top coordinate.
	WY uint16 = 0xFF4A
	// WX is the window left coordinate plus 7.
	WX uint16 = 0xFF4B
)

// Tile data and tile maps inside VRAM.
const (
	// TileData0 is the unsigned tile data region (indices 0-255).
	TileData0 uint16 = 0x8000
	// TileData1 is the start of the signed tile data region (indices -128 to -1).
	TileData1 uint16 = 0x8800
	// TileData2 continues the signed region (indices 0-127).
	TileData2 uint16 = 0x9000

	// TileMap0 is background/window tile map 0.
	TileMap0 uint16 = 0x9800
	// TileMap1 is background/window tile map 1.
	TileMap1 uint16 = 0x9C00
)

// Interrupt identifies one interrupt source as its bit in IF/IE.
type Interrupt uint8

const (
	// VBlankInterrupt fires once per frame when the PPU enters line 144.
	VBlankInterrupt Interrupt = 1
	// LCDSTATInterrupt fires on enabled STAT conditions (mode or LY=LYC).
	LCDSTATInterrupt Interrupt = 1 << 1
	// TimerInterrupt fires when TIMA overflows.
	TimerInterrupt Interrupt = 1 << 2
	// SerialInterrupt fires when a serial transfer completes.
	SerialInterrupt Interrupt = 1 << 3
	// JoypadInterrupt fires when a selected button line falls.
	JoypadInterrupt Interrupt = 1 << 4
)

// Vector returns the service routine address for the interrupt with the
// given bit index (0 for VBlank through 4 for Joypad).
func Vector(bitIndex uint8) uint16 {
	return 0x0040 + uint16(bitIndex)*8
}

// String names the interrupt source for logs and fault reports.
func (i Interrupt) String() string {
	switch i {
	case VBlankInterrupt:
		return "VBlank"
	case LCDSTATInterrupt:
		return "LCDSTAT"
	case TimerInterrupt:
		return "Timer"
	case SerialInterrupt:
		return "Serial"
	case JoypadInterrupt:
		return "Joypad"
	}
	return "Unknown"
}
