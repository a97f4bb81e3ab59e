package cpu

import (
	"fmt"

	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
	"github.com/valerio/go-dotmatrix/dotmatrix/bit"
)

// Bus is the CPU's window on the rest of the machine. Read and Write
// land on whatever the address resolves to, Advance moves the clocked
// peripherals forward.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	Advance(cycles int)
}

// Flag is one of the 4 flags in the flag register (low byte of AF).
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// Fault reports execution reaching an opcode the hardware does not
// implement. On the real unit these lock the CPU until power off.
// Snapshot holds the register state at the faulting instruction.
type Fault struct {
	Opcode   uint16
	Address  uint16
	Snapshot CPUState
}

func (f *Fault) Error() string {
	return fmt.Sprintf("cpu fault: illegal opcode 0x%02X at 0x%04X", f.Opcode, f.Address)
}

// CPU holds the SM83 execution state: the eight registers, the two
// pointer registers and the interrupt/halt bookkeeping around them.
type CPU struct {
	a  uint8
	f  uint8
	b  uint8
	c  uint8
	d  uint8
	e  uint8
	h  uint8
	l  uint8
	sp uint16
	pc uint16

	interruptsEnabled bool
	eiPending         bool // EI delay: interrupts enable after the next instruction
	currentOpcode     uint16
	stopped           bool
	halted            bool
	cycles            uint64

	// haltBug makes the next opcode fetch skip its PC increment, so
	// the byte after HALT is read twice. Armed by HALT when IME is
	// clear and an interrupt is already pending.
	haltBug bool

	// ticked counts the cycles already handed to the bus during the
	// current instruction, so Exec can advance exactly the remainder.
	ticked int

	bus Bus
}

// New returns a CPU with post-boot register state, ready to run from
// the cartridge entry point.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}

	c.setAF(0x01B0)
	c.setBC(0x0013)
	c.setDE(0x00D8)
	c.setHL(0x014D)
	c.sp = 0xFFFE
	c.pc = 0x0100

	return c
}

// Exec services one interrupt or runs one instruction, advancing the
// bus as the cycles elapse. It returns the machine cycles consumed.
// Reaching an illegal opcode returns a *Fault.
func (c *CPU) Exec() (int, error) {
	c.ticked = 0

	if c.stopped {
		// STOP ends on a joypad line going low, independent of IE.
		if c.bus.Read(addr.IF)&byte(addr.JoypadInterrupt) != 0 {
			c.stopped = false
		} else {
			c.bus.Advance(4)
			c.cycles += 4
			return 4, nil
		}
	}

	if cycles := c.serviceInterrupts(); cycles > 0 {
		return cycles, nil
	}

	// EI takes effect after the instruction that follows it. The
	// interrupt check above runs before the enable lands, so that
	// one instruction always executes.
	if c.eiPending {
		c.eiPending = false
		c.interruptsEnabled = true
	}

	if c.halted {
		// Pending interrupts end HALT even with IME clear; the
		// handler just doesn't run.
		if c.pendingInterrupts() != 0 {
			c.halted = false
		} else {
			c.bus.Advance(4)
			c.cycles += 4
			return 4, nil
		}
	}

	pcBefore := c.pc
	opcode := c.fetchByte()

	var instruction Opcode
	if opcode == 0xCB {
		cb := c.fetchByte()
		c.currentOpcode = bit.Combine(0xCB, cb)
		instruction = opcodesCB[cb]
	} else {
		c.currentOpcode = uint16(opcode)
		instruction = opcodes[opcode]
	}

	if instruction == nil {
		return 0, &Fault{Opcode: c.currentOpcode, Address: pcBefore, Snapshot: c.State()}
	}

	cycles := instruction(c)
	if remaining := cycles - c.ticked; remaining > 0 {
		c.bus.Advance(remaining)
	}
	c.cycles += uint64(cycles)

	return cycles, nil
}

// serviceInterrupts dispatches the highest priority pending interrupt
// when the master enable is set. Returns the cycles consumed, 0 when
// nothing was dispatched.
func (c *CPU) serviceInterrupts() int {
	if !c.interruptsEnabled {
		return 0
	}

	pending := c.pendingInterrupts()
	if pending == 0 {
		return 0
	}

	for i := uint8(0); i < 5; i++ {
		if !bit.IsSet(i, pending) {
			continue
		}

		c.halted = false
		c.interruptsEnabled = false
		c.bus.Write(addr.IF, bit.Clear(i, c.bus.Read(addr.IF)))

		c.pushStack(c.pc)
		c.pc = addr.Vector(i)
		c.bus.Advance(12)
		c.ticked += 12

		c.cycles += 20
		return 20
	}

	return 0
}

// pendingInterrupts returns the interrupts both requested and enabled.
func (c *CPU) pendingInterrupts() byte {
	return c.bus.Read(addr.IE) & c.bus.Read(addr.IF) & 0x1F
}

// readByte performs one timed bus read: the bus advances first so the
// value reflects peripheral state at the cycle the access lands on.
func (c *CPU) readByte(address uint16) byte {
	c.bus.Advance(4)
	c.ticked += 4
	return c.bus.Read(address)
}

// writeByte performs one timed bus write.
func (c *CPU) writeByte(address uint16, value byte) {
	c.bus.Advance(4)
	c.ticked += 4
	c.bus.Write(address, value)
}

// fetchByte reads the byte at PC and advances past it. While the HALT
// bug is armed the increment is skipped once, so the same byte is
// seen again by the next fetch.
func (c *CPU) fetchByte() byte {
	value := c.readByte(c.pc)
	if c.haltBug {
		c.haltBug = false
		return value
	}
	c.pc++
	return value
}

// fetchWord reads the two bytes at PC (low first) and advances past
// them.
func (c *CPU) fetchWord() uint16 {
	low := c.fetchByte()
	high := c.fetchByte()
	return bit.Combine(high, low)
}

func (c *CPU) setFlag(flag Flag) {
	c.f |= uint8(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &= uint8(flag ^ 0xFF)
}

func (c CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}

// flagToBit returns 1 if the passed flag is set, 0 otherwise.
func (c CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if !condition {
		c.resetFlag(flag)
		return
	}
	c.setFlag(flag)
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c CPU) getBC() uint16 {
	return bit.Combine(c.b, c.c)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c CPU) getDE() uint16 {
	return bit.Combine(c.d, c.e)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

func (c CPU) getHL() uint16 {
	return bit.Combine(c.h, c.l)
}

func (c *CPU) setAF(value uint16) {
	c.a = bit.High(value)
	// F register lower 4 bits are always 0.
	c.f = bit.Low(value) & 0xF0
}

func (c CPU) getAF() uint16 {
	return bit.Combine(c.a, c.f)
}

// Debug getters for register display.
func (c *CPU) GetPC() uint16     { return c.pc }
func (c *CPU) GetSP() uint16     { return c.sp }
func (c *CPU) GetCycles() uint64 { return c.cycles }
func (c *CPU) GetIME() bool      { return c.interruptsEnabled }
func (c *CPU) IsHalted() bool    { return c.halted }
func (c *CPU) IsStopped() bool   { return c.stopped }

// GetFlagString returns a human-readable view of the flag register.
func (c *CPU) GetFlagString() string {
	flags := []byte{'-', '-', '-', '-'}
	if c.isSetFlag(zeroFlag) {
		flags[0] = 'Z'
	}
	if c.isSetFlag(subFlag) {
		flags[1] = 'N'
	}
	if c.isSetFlag(halfCarryFlag) {
		flags[2] = 'H'
	}
	if c.isSetFlag(carryFlag) {
		flags[3] = 'C'
	}
	return string(flags)
}

// CPUState is the serializable snapshot of CPU execution state.
type CPUState struct {
	A, F, B, C, D, E, H, L uint8
	SP, PC                 uint16

	IME       bool
	EIPending bool
	Halted    bool
	Stopped   bool
	HaltBug   bool
	Cycles    uint64
}

func (c *CPU) State() CPUState {
	return CPUState{
		A: c.a, F: c.f, B: c.b, C: c.c,
		D: c.d, E: c.e, H: c.h, L: c.l,
		SP:        c.sp,
		PC:        c.pc,
		IME:       c.interruptsEnabled,
		EIPending: c.eiPending,
		Halted:    c.halted,
		Stopped:   c.stopped,
		HaltBug:   c.haltBug,
		Cycles:    c.cycles,
	}
}

func (c *CPU) Restore(state CPUState) {
	c.a, c.f, c.b, c.c = state.A, state.F&0xF0, state.B, state.C
	c.d, c.e, c.h, c.l = state.D, state.E, state.H, state.L
	c.sp = state.SP
	c.pc = state.PC
	c.interruptsEnabled = state.IME
	c.eiPending = state.EIPending
	c.halted = state.Halted
	c.stopped = state.Stopped
	c.haltBug = state.HaltBug
	c.cycles = state.Cycles
}
