package memory

import (
	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
	"github.com/valerio/go-dotmatrix/dotmatrix/audio"
	"github.com/valerio/go-dotmatrix/dotmatrix/bit"
	"github.com/valerio/go-dotmatrix/dotmatrix/serial"
	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

// regionMap resolves the high byte of an address to its memory region,
// so dispatch is a single table lookup instead of range comparisons.
var regionMap = makeRegionMap()

func makeRegionMap() [256]memRegion {
	var m [256]memRegion
	for page := 0x00; page <= 0x7F; page++ {
		m[page] = regionROM
	}
	for page := 0x80; page <= 0x9F; page++ {
		m[page] = regionVRAM
	}
	for page := 0xA0; page <= 0xBF; page++ {
		m[page] = regionExtRAM
	}
	for page := 0xC0; page <= 0xDF; page++ {
		m[page] = regionWRAM
	}
	for page := 0xE0; page <= 0xFD; page++ {
		m[page] = regionEcho
	}
	// Page 0xFE holds OAM plus the unusable area 0xFEA0-0xFEFF.
	m[0xFE] = regionOAM
	m[0xFF] = regionIO
	return m
}

// serialTransferCycles is one byte at the internal bit clock: the link
// port shifts at 8192 Hz, so eight bits take 4096 machine cycles.
const serialTransferCycles = 4096

// Bus connects the CPU to everything else in the machine: the
// cartridge through its MBC, video and work RAM, OAM, the PPU, APU,
// timer, the OAM DMA engine, the joypad and the serial port. All CPU
// memory traffic goes through Read and Write, and the CPU calls
// Advance once per memory access so peripheral state is current at
// the exact cycle each access lands on.
type Bus struct {
	cart *Cartridge
	mbc  MBC

	wram [0x2000]byte
	hram [0x7F]byte
	vram [0x2000]byte
	oam  [0xA0]byte

	intFlags  byte
	intEnable byte

	ppu *video.PPU
	apu *audio.APU

	timer  Timer
	dma    DMA
	joypad Joypad

	sb              byte
	sc              byte
	serialDevice    serial.Device
	serialTimed     bool
	serialCountdown int
}

// NewBus builds a bus around the given cartridge with every register
// holding the value the boot ROM leaves behind. onFrame is handed to
// the PPU and fires once per completed frame, optionally returning a
// replacement render buffer; it may be nil.
func NewBus(cart *Cartridge, onFrame func(*video.FrameBuffer) *video.FrameBuffer) *Bus {
	b := &Bus{
		cart: cart,
		mbc:  NewMBC(cart),
	}

	b.timer.requestInterrupt = func() { b.RequestInterrupt(addr.TimerInterrupt) }
	b.timer.divider = 0xAB00 // DIV reads 0xAB right after boot

	b.joypad = newJoypad(func() { b.RequestInterrupt(addr.JoypadInterrupt) })

	b.dma.read = b.read
	b.dma.write = func(index int, value byte) { b.oam[index] = value }

	b.ppu = video.New(b.vram[:], b.oam[:], b.RequestInterrupt, onFrame)
	b.apu = audio.New()

	b.intFlags = 0xE1
	b.sc = 0x7E

	b.initIO()
	return b
}

// initIO replays the IO register values the boot ROM leaves behind
// through the normal write path, so side effects like the channel 1
// trigger happen the same way they do on hardware. NR52 goes first:
// the APU powers on before the channel registers land.
func (b *Bus) initIO() {
	bootValues := []struct {
		address uint16
		value   byte
	}{
		{addr.TIMA, 0x00},
		{addr.TMA, 0x00},
		{addr.TAC, 0x00},
		{addr.NR52, 0xF1},
		{addr.NR10, 0x80},
		{addr.NR11, 0xBF},
		{addr.NR12, 0xF3},
		{addr.NR14, 0xBF},
		{addr.NR21, 0x3F},
		{addr.NR22, 0x00},
		{addr.NR24, 0xBF},
		{addr.NR30, 0x7F},
		{addr.NR31, 0xFF},
		{addr.NR32, 0x9F},
		{addr.NR34, 0xBF},
		{addr.NR41, 0xFF},
		{addr.NR42, 0x00},
		{addr.NR43, 0x00},
		{addr.NR44, 0xBF},
		{addr.NR50, 0x77},
		{addr.NR51, 0xF3},
		{addr.LCDC, 0x91},
		{addr.SCY, 0x00},
		{addr.SCX, 0x00},
		{addr.LYC, 0x00},
		{addr.BGP, 0xFC},
		{addr.OBP0, 0xFF},
		{addr.OBP1, 0xFF},
		{addr.WY, 0x00},
		{addr.WX, 0x00},
	}
	for _, w := range bootValues {
		b.write(w.address, w.value)
	}
}

// Read returns the byte the CPU sees at address. While an OAM DMA
// transfer is running everything below the IO page reads as 0xFF.
func (b *Bus) Read(address uint16) byte {
	if b.dma.Active() && address < addr.IOStart {
		return 0xFF
	}
	return b.read(address)
}

// Write stores value at address on behalf of the CPU. Writes below
// the IO page are dropped while an OAM DMA transfer is running.
func (b *Bus) Write(address uint16, value byte) {
	if b.dma.Active() && address < addr.IOStart {
		return
	}
	b.write(address, value)
}

// read is the raw bus lookup with no DMA gating. The DMA engine uses
// it directly, which is how it keeps fetching while the CPU is locked
// out.
func (b *Bus) read(address uint16) byte {
	switch regionMap[address>>8] {
	case regionROM, regionExtRAM:
		return b.mbc.Read(address)
	case regionVRAM:
		return b.vram[address-addr.VRAMStart]
	case regionWRAM:
		return b.wram[address-addr.WRAMStart]
	case regionEcho:
		return b.wram[address-addr.EchoStart]
	case regionOAM:
		if address <= addr.OAMEnd {
			return b.oam[address-addr.OAMStart]
		}
		return 0xFF // unusable 0xFEA0-0xFEFF
	default:
		return b.readHigh(address)
	}
}

func (b *Bus) write(address uint16, value byte) {
	switch regionMap[address>>8] {
	case regionROM, regionExtRAM:
		b.mbc.Write(address, value)
	case regionVRAM:
		b.vram[address-addr.VRAMStart] = value
	case regionWRAM:
		b.wram[address-addr.WRAMStart] = value
	case regionEcho:
		b.wram[address-addr.EchoStart] = value
	case regionOAM:
		if address <= addr.OAMEnd {
			b.oam[address-addr.OAMStart] = value
		}
		// Writes into 0xFEA0-0xFEFF land nowhere.
	default:
		b.writeHigh(address, value)
	}
}

// readHigh covers page 0xFF: IO registers, HRAM and IE.
func (b *Bus) readHigh(address uint16) byte {
	switch {
	case address >= addr.HRAMStart && address < addr.IE:
		return b.hram[address-addr.HRAMStart]
	case address == addr.IE:
		return b.intEnable
	case address == addr.P1:
		return b.joypad.Read()
	case address == addr.SB:
		return b.sb
	case address == addr.SC:
		return b.sc | 0x7E
	case address >= addr.DIV && address <= addr.TAC:
		return b.timer.Read(address)
	case address == addr.IF:
		return b.intFlags | 0xE0
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		return b.apu.ReadRegister(address)
	case address == addr.DMA:
		return b.dma.Register()
	case address >= addr.LCDC && address <= addr.WX:
		return b.ppu.ReadRegister(address)
	}
	return 0xFF
}

func (b *Bus) writeHigh(address uint16, value byte) {
	switch {
	case address >= addr.HRAMStart && address < addr.IE:
		b.hram[address-addr.HRAMStart] = value
	case address == addr.IE:
		b.intEnable = value
	case address == addr.P1:
		b.joypad.Write(value)
	case address == addr.SB:
		b.sb = value
	case address == addr.SC:
		b.writeSerialControl(value)
	case address >= addr.DIV && address <= addr.TAC:
		b.timer.Write(address, value)
	case address == addr.IF:
		b.intFlags = value | 0xE0
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		b.apu.WriteRegister(address, value)
	case address == addr.DMA:
		b.dma.Start(value)
	case address >= addr.LCDC && address <= addr.WX:
		b.ppu.WriteRegister(address, value)
	}
	// Unmapped IO (0xFF03, 0xFF08-0xFF0E, 0xFF4C-0xFF7F) drops writes.
}

// writeSerialControl starts a transfer when both the start bit and the
// internal clock select are set. Without timing enabled the byte
// completes on the spot, which is what test ROM output loops expect.
func (b *Bus) writeSerialControl(value byte) {
	b.sc = value
	if !bit.IsSet(7, value) || !bit.IsSet(0, value) {
		return
	}
	if b.serialTimed {
		b.serialCountdown = serialTransferCycles
		return
	}
	b.completeSerialTransfer()
}

func (b *Bus) completeSerialTransfer() {
	if b.serialDevice != nil {
		b.serialDevice.Receive(b.sb)
	}
	// With no link partner the shifted-in byte is all ones.
	b.sb = 0xFF
	b.sc = bit.Clear(7, b.sc)
	b.RequestInterrupt(addr.SerialInterrupt)
}

func (b *Bus) tickSerial(cycles int) {
	if b.serialCountdown <= 0 {
		return
	}
	b.serialCountdown -= cycles
	if b.serialCountdown <= 0 {
		b.serialCountdown = 0
		b.completeSerialTransfer()
	}
}

// Advance moves every clocked peripheral forward by the given number
// of machine cycles.
func (b *Bus) Advance(cycles int) {
	b.timer.Tick(cycles)
	b.dma.Tick(cycles)
	b.ppu.Tick(cycles)
	b.apu.Tick(cycles)
	b.tickSerial(cycles)
}

// RequestInterrupt raises the IF bit for the given interrupt source.
func (b *Bus) RequestInterrupt(interrupt addr.Interrupt) {
	b.intFlags |= byte(interrupt)
}

// APU exposes the audio unit so a host can pull generated samples.
func (b *Bus) APU() *audio.APU { return b.apu }

// Cartridge returns the loaded cartridge.
func (b *Bus) Cartridge() *Cartridge { return b.cart }

// SetInput applies a packed pressed-button mask to the joypad.
func (b *Bus) SetInput(pressed uint8) { b.joypad.SetState(pressed) }

// SetSerialDevice connects a sink for bytes sent out the link port.
func (b *Bus) SetSerialDevice(device serial.Device) { b.serialDevice = device }

// SetSerialTiming selects between completing transfers immediately and
// waiting out the hardware bit clock before delivering each byte.
func (b *Bus) SetSerialTiming(timed bool) { b.serialTimed = timed }

// ExternalRAM returns the cartridge RAM contents, or nil when the
// cartridge has none.
func (b *Bus) ExternalRAM() []byte { return b.mbc.RAM() }

// ReplaceExternalRAM overwrites the cartridge RAM, typically with a
// battery save loaded from disk.
func (b *Bus) ReplaceExternalRAM(data []byte) error { return b.mbc.SetRAM(data) }

// BusState is the serializable snapshot of the bus and everything it
// owns. The serial device and the frame callback are wiring rather
// than state and are left out.
type BusState struct {
	WRAM []byte
	HRAM []byte
	VRAM []byte
	OAM  []byte

	IF byte
	IE byte

	SB              byte
	SC              byte
	SerialCountdown int

	Timer  TimerState
	DMA    DMAState
	Joypad JoypadState
	MBC    MBCState
	PPU    video.PPUState
	APU    audio.APUState
}

func (b *Bus) State() BusState {
	return BusState{
		WRAM:            append([]byte(nil), b.wram[:]...),
		HRAM:            append([]byte(nil), b.hram[:]...),
		VRAM:            append([]byte(nil), b.vram[:]...),
		OAM:             append([]byte(nil), b.oam[:]...),
		IF:              b.intFlags,
		IE:              b.intEnable,
		SB:              b.sb,
		SC:              b.sc,
		SerialCountdown: b.serialCountdown,
		Timer:           b.timer.State(),
		DMA:             b.dma.State(),
		Joypad:          b.joypad.State(),
		MBC:             b.mbc.State(),
		PPU:             b.ppu.State(),
		APU:             b.apu.State(),
	}
}

func (b *Bus) Restore(state BusState) {
	copy(b.wram[:], state.WRAM)
	copy(b.hram[:], state.HRAM)
	copy(b.vram[:], state.VRAM)
	copy(b.oam[:], state.OAM)
	b.intFlags = state.IF
	b.intEnable = state.IE
	b.sb = state.SB
	b.sc = state.SC
	b.serialCountdown = state.SerialCountdown
	b.timer.Restore(state.Timer)
	b.dma.Restore(state.DMA)
	b.joypad.Restore(state.Joypad)
	b.mbc.Restore(state.MBC)
	b.ppu.Restore(state.PPU)
	b.apu.Restore(state.APU)
}
