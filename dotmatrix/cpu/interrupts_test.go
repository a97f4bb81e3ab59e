package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
)

func TestInterruptDispatch(t *testing.T) {
	cpu, bus := run(0x00)
	cpu.interruptsEnabled = true
	bus.mem[addr.IF] = 0x01
	bus.mem[addr.IE] = 0x01

	cycles, err := cpu.Exec()

	assert.NoError(t, err)
	assert.Equal(t, 20, cycles)
	assert.Equal(t, 20, bus.advanced)
	assert.Equal(t, uint16(0x0040), cpu.pc)
	assert.False(t, cpu.interruptsEnabled)
	assert.Equal(t, uint8(0x00), bus.mem[addr.IF], "serviced bit must be cleared")

	// The interrupted PC goes on the stack, high byte first.
	assert.Equal(t, uint16(0xFFFC), cpu.sp)
	assert.Equal(t, uint8(0xC0), bus.mem[0xFFFD])
	assert.Equal(t, uint8(0x00), bus.mem[0xFFFC])
}

func TestInterruptPriority(t *testing.T) {
	testCases := []struct {
		desc   string
		flags  uint8
		vector uint16
		after  uint8
	}{
		{desc: "vblank", flags: 0x01, vector: 0x0040, after: 0x00},
		{desc: "lcd stat", flags: 0x02, vector: 0x0048, after: 0x00},
		{desc: "timer", flags: 0x04, vector: 0x0050, after: 0x00},
		{desc: "serial", flags: 0x08, vector: 0x0058, after: 0x00},
		{desc: "joypad", flags: 0x10, vector: 0x0060, after: 0x00},
		{desc: "vblank wins when all pending", flags: 0x1F, vector: 0x0040, after: 0x1E},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu, bus := run(0x00)
			cpu.interruptsEnabled = true
			bus.mem[addr.IF] = tC.flags
			bus.mem[addr.IE] = 0x1F

			cycles, err := cpu.Exec()

			assert.NoError(t, err)
			assert.Equal(t, 20, cycles)
			assert.Equal(t, tC.vector, cpu.pc)
			assert.Equal(t, tC.after, bus.mem[addr.IF])
		})
	}
}

func TestInterruptNeedsBothIFAndIE(t *testing.T) {
	cpu, bus := run(0x00)
	cpu.interruptsEnabled = true
	bus.mem[addr.IF] = 0x01
	bus.mem[addr.IE] = 0x02

	cycles, err := cpu.Exec()

	assert.NoError(t, err)
	assert.Equal(t, 4, cycles, "masked interrupt must not dispatch")
	assert.Equal(t, uint16(0xC001), cpu.pc)
}

func TestEITakesEffectAfterNextInstruction(t *testing.T) {
	cpu, bus := run(0xFB, 0x00) // EI then NOP
	bus.mem[addr.IF] = 0x01
	bus.mem[addr.IE] = 0x01

	_, err := cpu.Exec()
	assert.NoError(t, err)
	assert.False(t, cpu.interruptsEnabled)
	assert.True(t, cpu.eiPending)

	// The instruction after EI still runs before any dispatch.
	cycles, err := cpu.Exec()
	assert.NoError(t, err)
	assert.Equal(t, 4, cycles)
	assert.Equal(t, uint16(0xC002), cpu.pc)
	assert.True(t, cpu.interruptsEnabled)

	cycles, err = cpu.Exec()
	assert.NoError(t, err)
	assert.Equal(t, 20, cycles)
	assert.Equal(t, uint16(0x0040), cpu.pc)
}

func TestDICancelsPendingEI(t *testing.T) {
	cpu, _ := run(0xFB, 0xF3, 0x00) // EI then DI

	_, err := cpu.Exec()
	assert.NoError(t, err)
	_, err = cpu.Exec()
	assert.NoError(t, err)

	assert.False(t, cpu.interruptsEnabled)
	assert.False(t, cpu.eiPending)
}

func TestRETIEnablesInterruptsImmediately(t *testing.T) {
	cpu, bus := run(0xD9)
	cpu.sp = 0xFFFC
	bus.mem[0xFFFC] = 0x34
	bus.mem[0xFFFD] = 0x12
	bus.mem[addr.IF] = 0x01
	bus.mem[addr.IE] = 0x01

	cycles, err := cpu.Exec()
	assert.NoError(t, err)
	assert.Equal(t, 16, cycles)
	assert.Equal(t, uint16(0x1234), cpu.pc)
	assert.True(t, cpu.interruptsEnabled)

	// No EI-style delay: the very next step dispatches.
	cycles, err = cpu.Exec()
	assert.NoError(t, err)
	assert.Equal(t, 20, cycles)
	assert.Equal(t, uint16(0x0040), cpu.pc)
}

func TestHALTWakesWithoutIME(t *testing.T) {
	cpu, bus := run(0x76, 0x00)

	_, err := cpu.Exec()
	assert.NoError(t, err)
	assert.True(t, cpu.halted)

	cycles, err := cpu.Exec()
	assert.NoError(t, err)
	assert.Equal(t, 4, cycles)
	assert.True(t, cpu.halted, "stays halted with nothing pending")

	bus.mem[addr.IF] = 0x04
	bus.mem[addr.IE] = 0x04

	_, err = cpu.Exec()
	assert.NoError(t, err)
	assert.False(t, cpu.halted)
	assert.Equal(t, uint16(0xC002), cpu.pc, "resumes at the instruction after HALT")
	assert.Equal(t, uint8(0x04), bus.mem[addr.IF], "no handler runs, flag stays set")
}

func TestHALTWakesIntoHandlerWithIME(t *testing.T) {
	cpu, bus := run(0x76)
	cpu.interruptsEnabled = true

	_, err := cpu.Exec()
	assert.NoError(t, err)
	assert.True(t, cpu.halted)

	bus.mem[addr.IF] = 0x01
	bus.mem[addr.IE] = 0x01

	cycles, err := cpu.Exec()
	assert.NoError(t, err)
	assert.Equal(t, 20, cycles)
	assert.False(t, cpu.halted)
	assert.Equal(t, uint16(0x0040), cpu.pc)

	// The return address is the byte after HALT.
	assert.Equal(t, uint8(0xC0), bus.mem[0xFFFD])
	assert.Equal(t, uint8(0x01), bus.mem[0xFFFC])
}

func TestHALTBugReadsOperandTwice(t *testing.T) {
	cpu, bus := run(0x76, 0x3E, 0x12) // HALT, LD A, n
	bus.mem[addr.IF] = 0x01
	bus.mem[addr.IE] = 0x01

	_, err := cpu.Exec()
	assert.NoError(t, err)
	assert.False(t, cpu.halted, "pending interrupt with IME clear skips the halt")
	assert.True(t, cpu.haltBug)

	// The first fetch after the bug does not advance PC, so LD A, n
	// reads its own opcode byte as the operand.
	_, err = cpu.Exec()
	assert.NoError(t, err)
	assert.Equal(t, uint8(0x3E), cpu.a)
	assert.Equal(t, uint16(0xC002), cpu.pc)
	assert.False(t, cpu.haltBug)
}

func TestSTOPSkipsPaddingAndWaitsForJoypad(t *testing.T) {
	cpu, bus := run(0x10, 0x00, 0x00)

	cycles, err := cpu.Exec()
	assert.NoError(t, err)
	assert.Equal(t, 4, cycles)
	assert.True(t, cpu.stopped)
	assert.Equal(t, uint16(0xC002), cpu.pc)

	cycles, err = cpu.Exec()
	assert.NoError(t, err)
	assert.Equal(t, 4, cycles)
	assert.True(t, cpu.stopped)
	assert.Equal(t, uint16(0xC002), cpu.pc, "no fetch while stopped")

	// A joypad line ends STOP even with IE clear.
	bus.mem[addr.IF] = 0x10
	bus.mem[addr.IE] = 0x00

	_, err = cpu.Exec()
	assert.NoError(t, err)
	assert.False(t, cpu.stopped)
	assert.Equal(t, uint16(0xC003), cpu.pc)
}

func TestInterruptCyclesAccumulate(t *testing.T) {
	cpu, bus := run(0x00)
	cpu.interruptsEnabled = true
	bus.mem[addr.IF] = 0x01
	bus.mem[addr.IE] = 0x01

	_, err := cpu.Exec()
	assert.NoError(t, err)

	assert.Equal(t, uint64(20), cpu.GetCycles())
}
