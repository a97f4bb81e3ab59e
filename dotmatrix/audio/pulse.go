package audio

// pulseChannel is a square wave generator with envelope, length and,
// for channel 1 only, a frequency sweep unit.
type pulseChannel struct {
	enabled    bool
	dacEnabled bool

	frequency uint16
	timer     uint16

	duty    byte
	dutyPos byte

	length        uint16
	lengthEnabled bool

	envVolume byte
	envUp     bool
	envPeriod byte
	envTimer  byte
	volume    byte

	hasSweep        bool
	sweepPeriod     byte
	sweepNegate     bool
	sweepShift      byte
	sweepTimer      byte
	sweepEnabled    bool
	sweepShadow     uint16
	sweepNegateUsed bool

	// raw register bytes for readback
	nr10 byte
	nrX1 byte
	nrX2 byte
}

func (c *pulseChannel) active() bool {
	return c.enabled
}

// powerOff clears the channel registers. Length counters and internal
// timers survive an APU power cycle on DMG.
func (c *pulseChannel) powerOff() {
	c.enabled = false
	c.dacEnabled = false
	c.frequency = 0
	c.duty = 0
	c.lengthEnabled = false
	c.envVolume = 0
	c.envUp = false
	c.envPeriod = 0
	c.volume = 0
	c.sweepPeriod = 0
	c.sweepNegate = false
	c.sweepShift = 0
	c.nr10 = 0
	c.nrX1 = 0
	c.nrX2 = 0
}

func (c *pulseChannel) readNR10() byte { return c.nr10 }

// readNRx1 exposes only the duty bits; the length load is write-only.
func (c *pulseChannel) readNRx1() byte { return c.nrX1 & 0xC0 }

func (c *pulseChannel) readNRx2() byte { return c.nrX2 }

func (c *pulseChannel) readNRx4() byte {
	if c.lengthEnabled {
		return 0x40
	}
	return 0x00
}

func (c *pulseChannel) writeNR10(value byte) {
	c.nr10 = value
	c.sweepPeriod = (value >> 4) & 0x07
	negate := value&0x08 != 0

	// Clearing the negate bit after a negate calculation has run
	// disables the channel.
	if c.sweepNegateUsed && !negate {
		c.enabled = false
	}

	c.sweepNegate = negate
	c.sweepShift = value & 0x07
}

func (c *pulseChannel) writeNRx1(value byte) {
	c.nrX1 = value
	c.duty = (value >> 6) & 0x03
	c.length = 64 - uint16(value&0x3F)
}

// writeNRx1LengthOnly loads the length counter while the APU is
// powered off; the duty bits are discarded.
func (c *pulseChannel) writeNRx1LengthOnly(value byte) {
	c.length = 64 - uint16(value&0x3F)
}

func (c *pulseChannel) writeNRx2(value byte) {
	c.nrX2 = value
	c.envVolume = value >> 4
	c.envUp = value&0x08 != 0
	c.envPeriod = value & 0x07

	// The DAC is powered whenever volume or direction is nonzero.
	c.dacEnabled = value&0xF8 != 0
	if !c.dacEnabled {
		c.enabled = false
	}
}

func (c *pulseChannel) writeNRx3(value byte) {
	c.frequency = (c.frequency & 0x0700) | uint16(value)
}

func (c *pulseChannel) writeNRx4(value byte, frameStep byte) {
	c.frequency = (c.frequency & 0x00FF) | (uint16(value&0x07) << 8)

	wasEnabled := c.lengthEnabled
	c.lengthEnabled = value&0x40 != 0

	// Enabling the length counter during the first half of a length
	// period clocks it once immediately.
	if !wasEnabled && c.lengthEnabled && c.length > 0 && frameStep&1 == 0 {
		c.length--
		if c.length == 0 {
			c.enabled = false
		}
	}

	if value&0x80 != 0 {
		c.trigger(frameStep)
	}
}

func (c *pulseChannel) trigger(frameStep byte) {
	c.enabled = c.dacEnabled
	c.timer = (2048 - c.frequency) * 4

	if c.length == 0 {
		c.length = 64
		if c.lengthEnabled && frameStep&1 == 0 {
			c.length--
		}
	}

	c.envTimer = c.envPeriod
	c.volume = c.envVolume

	if c.hasSweep {
		c.sweepShadow = c.frequency
		if c.sweepPeriod == 0 {
			c.sweepTimer = 8
		} else {
			c.sweepTimer = c.sweepPeriod
		}
		c.sweepEnabled = c.sweepPeriod != 0 || c.sweepShift != 0
		c.sweepNegateUsed = false

		// An immediate overflow check runs when the shift is nonzero.
		if c.sweepShift != 0 {
			c.sweepFrequency()
		}
	}
}

func (c *pulseChannel) tick() {
	if c.timer > 0 {
		c.timer--
	}

	if c.timer == 0 {
		c.timer = (2048 - c.frequency) * 4
		c.dutyPos = (c.dutyPos + 1) & 7
	}
}

func (c *pulseChannel) clockLength() {
	if c.lengthEnabled && c.length > 0 {
		c.length--
		if c.length == 0 {
			c.enabled = false
		}
	}
}

func (c *pulseChannel) clockEnvelope() {
	if c.envTimer > 0 {
		c.envTimer--
	}

	if c.envTimer == 0 {
		if c.envPeriod == 0 {
			c.envTimer = 8
		} else {
			c.envTimer = c.envPeriod
		}

		if c.envPeriod != 0 {
			if c.envUp && c.volume < 15 {
				c.volume++
			} else if !c.envUp && c.volume > 0 {
				c.volume--
			}
		}
	}
}

func (c *pulseChannel) clockSweep() {
	if !c.hasSweep {
		return
	}

	if c.sweepTimer > 0 {
		c.sweepTimer--
	}

	if c.sweepTimer == 0 {
		if c.sweepPeriod == 0 {
			c.sweepTimer = 8
		} else {
			c.sweepTimer = c.sweepPeriod
		}

		if c.sweepEnabled && c.sweepPeriod != 0 {
			next := c.sweepFrequency()

			if next <= 2047 && c.sweepShift != 0 {
				c.frequency = next
				c.sweepShadow = next

				// Run the overflow check again with the new value.
				c.sweepFrequency()
			}
		}
	}
}

// sweepFrequency computes the next sweep frequency from the shadow
// register and disables the channel on overflow.
func (c *pulseChannel) sweepFrequency() uint16 {
	delta := c.sweepShadow >> c.sweepShift

	var next uint16
	if c.sweepNegate {
		c.sweepNegateUsed = true
		next = c.sweepShadow - delta
	} else {
		next = c.sweepShadow + delta
	}

	if next > 2047 {
		c.enabled = false
	}

	return next
}

func (c *pulseChannel) output() int {
	if !c.enabled || !c.dacEnabled {
		return 0
	}

	var input byte
	if dutyPatterns[c.duty][c.dutyPos] != 0 {
		input = c.volume
	}
	return dacOutput(input)
}

// PulseState is a serializable snapshot of a pulse channel.
type PulseState struct {
	Enabled    bool
	DACEnabled bool

	Frequency uint16
	Timer     uint16
	Duty      byte
	DutyPos   byte

	Length        uint16
	LengthEnabled bool

	EnvVolume byte
	EnvUp     bool
	EnvPeriod byte
	EnvTimer  byte
	Volume    byte

	SweepPeriod     byte
	SweepNegate     bool
	SweepShift      byte
	SweepTimer      byte
	SweepEnabled    bool
	SweepShadow     uint16
	SweepNegateUsed bool

	NR10 byte
	NRx1 byte
	NRx2 byte
}

func (c *pulseChannel) state() PulseState {
	return PulseState{
		Enabled:         c.enabled,
		DACEnabled:      c.dacEnabled,
		Frequency:       c.frequency,
		Timer:           c.timer,
		Duty:            c.duty,
		DutyPos:         c.dutyPos,
		Length:          c.length,
		LengthEnabled:   c.lengthEnabled,
		EnvVolume:       c.envVolume,
		EnvUp:           c.envUp,
		EnvPeriod:       c.envPeriod,
		EnvTimer:        c.envTimer,
		Volume:          c.volume,
		SweepPeriod:     c.sweepPeriod,
		SweepNegate:     c.sweepNegate,
		SweepShift:      c.sweepShift,
		SweepTimer:      c.sweepTimer,
		SweepEnabled:    c.sweepEnabled,
		SweepShadow:     c.sweepShadow,
		SweepNegateUsed: c.sweepNegateUsed,
		NR10:            c.nr10,
		NRx1:            c.nrX1,
		NRx2:            c.nrX2,
	}
}

func (c *pulseChannel) restore(s PulseState) {
	c.enabled = s.Enabled
	c.dacEnabled = s.DACEnabled
	c.frequency = s.Frequency
	c.timer = s.Timer
	c.duty = s.Duty
	c.dutyPos = s.DutyPos
	c.length = s.Length
	c.lengthEnabled = s.LengthEnabled
	c.envVolume = s.EnvVolume
	c.envUp = s.EnvUp
	c.envPeriod = s.EnvPeriod
	c.envTimer = s.EnvTimer
	c.volume = s.Volume
	c.sweepPeriod = s.SweepPeriod
	c.sweepNegate = s.SweepNegate
	c.sweepShift = s.SweepShift
	c.sweepTimer = s.SweepTimer
	c.sweepEnabled = s.SweepEnabled
	c.sweepShadow = s.SweepShadow
	c.sweepNegateUsed = s.SweepNegateUsed
	c.nr10 = s.NR10
	c.nrX1 = s.NRx1
	c.nrX2 = s.NRx2
}
