package memory

import "fmt"

// MBC is the contract every bank controller variant implements. Reads
// and writes cover the cartridge windows only (0x0000-0x7FFF and
// 0xA000-0xBFFF); the bus routes everything else.
type MBC interface {
	Read(address uint16) byte
	Write(address uint16, value byte)

	// RAM exposes the external RAM bytes for battery persistence.
	// Nil when the cartridge has none.
	RAM() []byte
	// SetRAM replaces the external RAM contents. The buffer must match
	// the cartridge's RAM size exactly.
	SetRAM(data []byte) error

	// State snapshots banking registers and RAM; Restore loads them.
	State() MBCState
	Restore(state MBCState)
}

// MBCState is the serializable banking state shared by all variants.
// Unused fields stay zero for simpler controllers.
type MBCState struct {
	Kind       MBCKind
	BankLow    uint8
	BankHigh   uint8
	ROMBank    uint16
	RAMBank    uint8
	RAMEnabled bool
	Mode       uint8
	RAM        []byte
	RTC        [5]byte
	RTCLatched [5]byte
	LatchArmed bool
}

// NewMBC builds the controller variant the cartridge header selects.
func NewMBC(cart *Cartridge) MBC {
	switch cart.Kind() {
	case NoMBCKind:
		return newNoMBC(cart)
	case MBC1Kind:
		return newMBC1(cart)
	case MBC3Kind:
		return newMBC3(cart)
	case MBC5Kind:
		return newMBC5(cart)
	}
	// NewCartridge rejects unknown kinds, this is unreachable with a
	// parsed cartridge.
	panic(fmt.Sprintf("no MBC for kind %d", cart.Kind()))
}

func copyRAM(src []byte) []byte {
	if src == nil {
		return nil
	}
	out := make([]byte, len(src))
	copy(out, src)
	return out
}

func replaceRAM(dst, src []byte) error {
	if len(src) != len(dst) {
		return fmt.Errorf("ram size mismatch: have %d bytes, want %d", len(src), len(dst))
	}
	copy(dst, src)
	return nil
}

// noMBC maps a 32 KiB image straight through. Types 0x08/0x09 carry
// unbanked RAM, which is always accessible.
type noMBC struct {
	rom []byte
	ram []byte
}

func newNoMBC(cart *Cartridge) *noMBC {
	return &noMBC{
		rom: cart.data,
		ram: make([]byte, cart.RAMSize()),
	}
}

func (m *noMBC) Read(address uint16) byte {
	switch {
	case address <= 0x7FFF:
		if int(address) < len(m.rom) {
			return m.rom[address]
		}
		return 0xFF
	case address >= 0xA000 && address <= 0xBFFF:
		offset := int(address - 0xA000)
		if offset < len(m.ram) {
			return m.ram[offset]
		}
		return 0xFF
	}
	return 0xFF
}

func (m *noMBC) Write(address uint16, value byte) {
	if address >= 0xA000 && address <= 0xBFFF {
		offset := int(address - 0xA000)
		if offset < len(m.ram) {
			m.ram[offset] = value
		}
	}
	// ROM writes have no registers to hit.
}

func (m *noMBC) RAM() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	return m.ram
}

func (m *noMBC) SetRAM(data []byte) error { return replaceRAM(m.ram, data) }

func (m *noMBC) State() MBCState {
	return MBCState{Kind: NoMBCKind, RAM: copyRAM(m.ram)}
}

func (m *noMBC) Restore(state MBCState) {
	copy(m.ram, state.RAM)
}

// mbc1 is the most common controller: a 5-bit bank register, a 2-bit
// secondary register and a mode bit deciding whether the secondary bits
// extend the ROM bank or select the RAM bank. Writing 0 to the low bank
// register selects bank 1, so banks 0x00/0x20/0x40/0x60 alias upward.
type mbc1 struct {
	rom      []byte
	ram      []byte
	romBanks int

	bankLow    uint8 // 5 bits, never 0
	bankHigh   uint8 // 2 bits
	mode       uint8 // 0 = ROM banking, 1 = RAM banking
	ramEnabled bool
}

func newMBC1(cart *Cartridge) *mbc1 {
	return &mbc1{
		rom:      cart.data,
		ram:      make([]byte, cart.RAMSize()),
		romBanks: cart.ROMBanks(),
		bankLow:  1,
	}
}

// romBank resolves the effective switchable bank from the registers.
func (m *mbc1) romBank() int {
	bank := int(m.bankLow)
	if m.mode == 0 {
		bank |= int(m.bankHigh) << 5
	}
	return bank % m.romBanks
}

// ramBank resolves the active RAM bank. Outside RAM banking mode the
// secondary register is reserved for ROM, so bank 0 is forced.
func (m *mbc1) ramBank() int {
	if m.mode == 1 {
		return int(m.bankHigh)
	}
	return 0
}

func (m *mbc1) Read(address uint16) byte {
	switch {
	case address <= 0x3FFF:
		return m.rom[address]
	case address <= 0x7FFF:
		offset := m.romBank()*0x4000 + int(address-0x4000)
		return m.rom[offset%len(m.rom)]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		offset := m.ramBank()*0x2000 + int(address-0xA000)
		return m.ram[offset%len(m.ram)]
	}
	return 0xFF
}

func (m *mbc1) Write(address uint16, value byte) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case address <= 0x3FFF:
		bank := value & 0x1F
		if bank == 0 {
			bank = 1
		}
		m.bankLow = bank
	case address <= 0x5FFF:
		m.bankHigh = value & 0x03
	case address <= 0x7FFF:
		m.mode = value & 0x01
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		offset := m.ramBank()*0x2000 + int(address-0xA000)
		m.ram[offset%len(m.ram)] = value
	}
}

func (m *mbc1) RAM() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	return m.ram
}

func (m *mbc1) SetRAM(data []byte) error { return replaceRAM(m.ram, data) }

func (m *mbc1) State() MBCState {
	return MBCState{
		Kind:       MBC1Kind,
		BankLow:    m.bankLow,
		BankHigh:   m.bankHigh,
		Mode:       m.mode,
		RAMEnabled: m.ramEnabled,
		RAM:        copyRAM(m.ram),
	}
}

func (m *mbc1) Restore(state MBCState) {
	m.bankLow = state.BankLow
	if m.bankLow == 0 {
		m.bankLow = 1
	}
	m.bankHigh = state.BankHigh
	m.mode = state.Mode
	m.ramEnabled = state.RAMEnabled
	copy(m.ram, state.RAM)
}

// mbc3 has a 7-bit ROM bank register and multiplexes the RAM window
// between RAM banks (select 0x00-0x03) and the clock registers (select
// 0x08-0x0C). The clock here is a latched stub: it holds whatever was
// written, and a 0x00 then 0x01 write to the latch port copies the live
// registers into the readable latch.
type mbc3 struct {
	rom      []byte
	ram      []byte
	romBanks int

	romBank    uint8 // 7 bits, never 0
	ramSelect  uint8
	ramEnabled bool

	rtc        [5]byte
	rtcLatched [5]byte
	latchArmed bool
}

func newMBC3(cart *Cartridge) *mbc3 {
	return &mbc3{
		rom:      cart.data,
		ram:      make([]byte, cart.RAMSize()),
		romBanks: cart.ROMBanks(),
		romBank:  1,
	}
}

func (m *mbc3) Read(address uint16) byte {
	switch {
	case address <= 0x3FFF:
		return m.rom[address]
	case address <= 0x7FFF:
		bank := int(m.romBank) % m.romBanks
		offset := bank*0x4000 + int(address-0x4000)
		return m.rom[offset%len(m.rom)]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		switch {
		case m.ramSelect <= 0x03:
			if len(m.ram) == 0 {
				return 0xFF
			}
			offset := int(m.ramSelect)*0x2000 + int(address-0xA000)
			return m.ram[offset%len(m.ram)]
		case m.ramSelect >= 0x08 && m.ramSelect <= 0x0C:
			return m.rtcLatched[m.ramSelect-0x08]
		}
		return 0xFF
	}
	return 0xFF
}

func (m *mbc3) Write(address uint16, value byte) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case address <= 0x3FFF:
		bank := value & 0x7F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case address <= 0x5FFF:
		m.ramSelect = value & 0x0F
	case address <= 0x7FFF:
		if m.latchArmed && value == 0x01 {
			m.rtcLatched = m.rtc
		}
		m.latchArmed = value == 0x00
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		switch {
		case m.ramSelect <= 0x03:
			if len(m.ram) == 0 {
				return
			}
			offset := int(m.ramSelect)*0x2000 + int(address-0xA000)
			m.ram[offset%len(m.ram)] = value
		case m.ramSelect >= 0x08 && m.ramSelect <= 0x0C:
			m.rtc[m.ramSelect-0x08] = value
		}
	}
}

func (m *mbc3) RAM() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	return m.ram
}

func (m *mbc3) SetRAM(data []byte) error { return replaceRAM(m.ram, data) }

func (m *mbc3) State() MBCState {
	return MBCState{
		Kind:       MBC3Kind,
		ROMBank:    uint16(m.romBank),
		RAMBank:    m.ramSelect,
		RAMEnabled: m.ramEnabled,
		RAM:        copyRAM(m.ram),
		RTC:        m.rtc,
		RTCLatched: m.rtcLatched,
		LatchArmed: m.latchArmed,
	}
}

func (m *mbc3) Restore(state MBCState) {
	m.romBank = uint8(state.ROMBank)
	if m.romBank == 0 {
		m.romBank = 1
	}
	m.ramSelect = state.RAMBank
	m.ramEnabled = state.RAMEnabled
	copy(m.ram, state.RAM)
	m.rtc = state.RTC
	m.rtcLatched = state.RTCLatched
	m.latchArmed = state.LatchArmed
}

// mbc5 has a straight 9-bit ROM bank register split over two write
// ports and a 4-bit RAM bank. Unlike MBC1, bank 0 is selectable.
type mbc5 struct {
	rom      []byte
	ram      []byte
	romBanks int

	romBank    uint16 // 9 bits
	ramBank    uint8  // 4 bits
	ramEnabled bool
}

func newMBC5(cart *Cartridge) *mbc5 {
	return &mbc5{
		rom:      cart.data,
		ram:      make([]byte, cart.RAMSize()),
		romBanks: cart.ROMBanks(),
		romBank:  1,
	}
}

func (m *mbc5) Read(address uint16) byte {
	switch {
	case address <= 0x3FFF:
		return m.rom[address]
	case address <= 0x7FFF:
		bank := int(m.romBank) % m.romBanks
		offset := bank*0x4000 + int(address-0x4000)
		return m.rom[offset%len(m.rom)]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		offset := int(m.ramBank)*0x2000 + int(address-0xA000)
		return m.ram[offset%len(m.ram)]
	}
	return 0xFF
}

func (m *mbc5) Write(address uint16, value byte) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case address <= 0x2FFF:
		m.romBank = m.romBank&0x100 | uint16(value)
	case address <= 0x3FFF:
		m.romBank = m.romBank&0x0FF | uint16(value&0x01)<<8
	case address <= 0x5FFF:
		m.ramBank = value & 0x0F
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		offset := int(m.ramBank)*0x2000 + int(address-0xA000)
		m.ram[offset%len(m.ram)] = value
	}
}

func (m *mbc5) RAM() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	return m.ram
}

func (m *mbc5) SetRAM(data []byte) error { return replaceRAM(m.ram, data) }

func (m *mbc5) State() MBCState {
	return MBCState{
		Kind:       MBC5Kind,
		ROMBank:    m.romBank,
		RAMBank:    m.ramBank,
		RAMEnabled: m.ramEnabled,
		RAM:        copyRAM(m.ram),
	}
}

func (m *mbc5) Restore(state MBCState) {
	m.romBank = state.ROMBank
	m.ramBank = state.RAMBank
	m.ramEnabled = state.RAMEnabled
	copy(m.ram, state.RAM)
}
