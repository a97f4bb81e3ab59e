package cpu

import "github.com/valerio/go-dotmatrix/dotmatrix/bit"

func (c *CPU) pushStack(value uint16) {
	c.sp--
	c.writeByte(c.sp, bit.High(value))
	c.sp--
	c.writeByte(c.sp, bit.Low(value))
}

func (c *CPU) popStack() uint16 {
	low := c.readByte(c.sp)
	c.sp++
	high := c.readByte(c.sp)
	c.sp++
	return bit.Combine(high, low)
}

func (c *CPU) inc(r *uint8) {
	*r++
	value := *r

	c.setFlagToCondition(zeroFlag, value == 0)
	c.setFlagToCondition(halfCarryFlag, value&0xF == 0)
	c.resetFlag(subFlag)
}

func (c *CPU) dec(r *uint8) {
	*r--
	value := *r

	c.setFlagToCondition(zeroFlag, value == 0)
	c.setFlagToCondition(halfCarryFlag, value&0xF == 0xF)
	c.setFlag(subFlag)
}

// rlc rotates left, bit 7 into both carry and bit 0. The accumulator
// forms (RLCA and friends) clear Z afterwards instead.
func (c *CPU) rlc(r *uint8) {
	value := *r
	carry := value >> 7

	value = value<<1 | carry
	*r = value

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry == 1)
}

// rl rotates left through the carry flag.
func (c *CPU) rl(r *uint8) {
	value := *r
	oldCarry := c.flagToBit(carryFlag)

	c.setFlagToCondition(carryFlag, value > 0x7F)
	value = value<<1 | oldCarry
	*r = value

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

// rrc rotates right, bit 0 into both carry and bit 7.
func (c *CPU) rrc(r *uint8) {
	value := *r
	carry := value & 1

	value = value>>1 | carry<<7
	*r = value

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry == 1)
}

// rr rotates right through the carry flag.
func (c *CPU) rr(r *uint8) {
	value := *r
	oldCarry := c.flagToBit(carryFlag) << 7

	c.setFlagToCondition(carryFlag, value&1 == 1)
	value = value>>1 | oldCarry
	*r = value

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

// sla shifts left into carry, bit 0 becomes 0.
func (c *CPU) sla(r *uint8) {
	value := *r

	c.setFlagToCondition(carryFlag, value > 0x7F)
	value <<= 1
	*r = value

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

// sra shifts right into carry, bit 7 keeps its value.
func (c *CPU) sra(r *uint8) {
	value := *r

	c.setFlagToCondition(carryFlag, value&1 == 1)
	value = value>>1 | value&0x80
	*r = value

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

// srl shifts right into carry, bit 7 becomes 0.
func (c *CPU) srl(r *uint8) {
	value := *r

	c.setFlagToCondition(carryFlag, value&1 == 1)
	value >>= 1
	*r = value

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

// swap exchanges the two nibbles.
func (c *CPU) swap(r *uint8) {
	value := *r<<4 | *r>>4
	*r = value

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

// bit tests one bit, Z set when the bit is clear. Carry is untouched.
func (c *CPU) bit(index uint8, value uint8) {
	c.setFlagToCondition(zeroFlag, !bit.IsSet(index, value))
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

// res clears one bit, no flags.
func (c *CPU) res(index uint8, r *uint8) {
	*r = bit.Clear(index, *r)
}

// set sets one bit, no flags.
func (c *CPU) set(index uint8, r *uint8) {
	*r = bit.Set(index, *r)
}

// addToA adds value to the accumulator, setting all four flags.
func (c *CPU) addToA(value uint8) {
	a := c.a
	result := a + value

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (a&0xF)+(value&0xF) > 0xF)
	c.setFlagToCondition(carryFlag, uint16(a)+uint16(value) > 0xFF)

	c.a = result
}

// adc adds value plus the carry flag to the accumulator. The carry
// feeds into both the half carry and carry computations.
func (c *CPU) adc(value uint8) {
	a := c.a
	carry := c.flagToBit(carryFlag)
	result := a + value + carry

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (a&0xF)+(value&0xF)+carry > 0xF)
	c.setFlagToCondition(carryFlag, uint16(a)+uint16(value)+uint16(carry) > 0xFF)

	c.a = result
}

// sub subtracts value from the accumulator, setting all four flags.
func (c *CPU) sub(value uint8) {
	a := c.a
	result := a - value

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, a&0xF < value&0xF)
	c.setFlagToCondition(carryFlag, a < value)

	c.a = result
}

// sbc subtracts value plus the carry flag from the accumulator.
func (c *CPU) sbc(value uint8) {
	a := c.a
	carry := c.flagToBit(carryFlag)
	result := a - value - carry

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, uint16(a&0xF) < uint16(value&0xF)+uint16(carry))
	c.setFlagToCondition(carryFlag, uint16(a) < uint16(value)+uint16(carry))

	c.a = result
}

// cp compares value against the accumulator: a subtraction that only
// sets flags.
func (c *CPU) cp(value uint8) {
	a := c.a
	result := a - value

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, a&0xF < value&0xF)
	c.setFlagToCondition(carryFlag, a < value)
}

func (c *CPU) and(value uint8) {
	c.a &= value

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

func (c *CPU) or(value uint8) {
	c.a |= value

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

func (c *CPU) xor(value uint8) {
	c.a ^= value

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

// addToHL adds a 16 bit value to HL. Z is untouched, half carry comes
// from bit 11.
func (c *CPU) addToHL(value uint16) {
	hl := c.getHL()
	result := hl + value

	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (hl&0xFFF)+(value&0xFFF) > 0xFFF)
	c.setFlagToCondition(carryFlag, uint32(hl)+uint32(value) > 0xFFFF)

	c.setHL(result)
}

// addSignedToSP fetches the signed immediate and returns SP plus it.
// Half carry and carry come from unsigned arithmetic on the low byte,
// Z and N are always clear. Shared by ADD SP,n and LD HL,SP+n.
func (c *CPU) addSignedToSP() uint16 {
	n := c.fetchByte()
	sp := c.sp
	result := sp + uint16(int8(n))

	c.resetFlag(zeroFlag)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (sp&0xF)+uint16(n&0xF) > 0xF)
	c.setFlagToCondition(carryFlag, (sp&0xFF)+uint16(n) > 0xFF)

	return result
}

// daa adjusts the accumulator after BCD arithmetic, using N to tell
// whether the last operation added or subtracted. Carry can only be
// set here, never cleared.
func (c *CPU) daa() {
	a := uint16(c.a)

	if c.isSetFlag(subFlag) {
		if c.isSetFlag(halfCarryFlag) {
			a = (a - 0x06) & 0xFF
		}
		if c.isSetFlag(carryFlag) {
			a -= 0x60
		}
	} else {
		if c.isSetFlag(halfCarryFlag) || a&0x0F > 0x09 {
			a += 0x06
		}
		if c.isSetFlag(carryFlag) || a > 0x9F {
			a += 0x60
		}
	}

	if a&0x100 != 0 {
		c.setFlag(carryFlag)
	}
	c.resetFlag(halfCarryFlag)

	c.a = uint8(a)
	c.setFlagToCondition(zeroFlag, c.a == 0)
}

// jr moves PC by a signed offset, relative to the byte after the
// operand.
func (c *CPU) jr(offset int8) {
	c.pc += uint16(offset)
}

// rst pushes PC and jumps to one of the fixed restart vectors.
func (c *CPU) rst(target uint16) {
	c.pushStack(c.pc)
	c.pc = target
}
