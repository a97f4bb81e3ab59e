package audio

// noiseChannel generates pseudo-random noise from a 15-bit linear
// feedback shift register, optionally narrowed to 7 bits.
type noiseChannel struct {
	enabled    bool
	dacEnabled bool

	divisorCode byte
	clockShift  byte
	width7      bool
	timer       int

	length        uint16
	lengthEnabled bool

	envVolume byte
	envUp     bool
	envPeriod byte
	envTimer  byte
	volume    byte

	lfsr uint16

	nr42 byte
	nr43 byte
}

func (c *noiseChannel) active() bool {
	return c.enabled
}

func (c *noiseChannel) powerOff() {
	c.enabled = false
	c.dacEnabled = false
	c.divisorCode = 0
	c.clockShift = 0
	c.width7 = false
	c.lengthEnabled = false
	c.envVolume = 0
	c.envUp = false
	c.envPeriod = 0
	c.volume = 0
	c.nr42 = 0
	c.nr43 = 0
}

func (c *noiseChannel) readNR42() byte { return c.nr42 }
func (c *noiseChannel) readNR43() byte { return c.nr43 }

func (c *noiseChannel) readNR44() byte {
	if c.lengthEnabled {
		return 0x40
	}
	return 0x00
}

func (c *noiseChannel) writeNR41(value byte) {
	c.length = 64 - uint16(value&0x3F)
}

func (c *noiseChannel) writeNR42(value byte) {
	c.nr42 = value
	c.envVolume = value >> 4
	c.envUp = value&0x08 != 0
	c.envPeriod = value & 0x07

	c.dacEnabled = value&0xF8 != 0
	if !c.dacEnabled {
		c.enabled = false
	}
}

func (c *noiseChannel) writeNR43(value byte) {
	c.nr43 = value
	c.clockShift = value >> 4
	c.width7 = value&0x08 != 0
	c.divisorCode = value & 0x07
}

func (c *noiseChannel) writeNR44(value byte, frameStep byte) {
	wasEnabled := c.lengthEnabled
	c.lengthEnabled = value&0x40 != 0

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

func (c *noiseChannel) trigger(frameStep byte) {
	c.enabled = c.dacEnabled
	c.timer = c.period()

	if c.length == 0 {
		c.length = 64
		if c.lengthEnabled && frameStep&1 == 0 {
			c.length--
		}
	}

	c.envTimer = c.envPeriod
	c.volume = c.envVolume

	c.lfsr = lfsrInitialValue
}

// period returns the frequency timer reload: divisor << shift, where
// divisor code 0 stands for 8.
func (c *noiseChannel) period() int {
	divisor := 8
	if c.divisorCode != 0 {
		divisor = int(c.divisorCode) << 4
	}
	return divisor << c.clockShift
}

func (c *noiseChannel) tick() {
	if c.timer > 0 {
		c.timer--
	}

	if c.timer == 0 {
		c.timer = c.period()

		feedback := (c.lfsr & 1) ^ ((c.lfsr >> 1) & 1)
		c.lfsr = (c.lfsr >> 1) | (feedback << 14)

		if c.width7 {
			c.lfsr &^= 1 << 6
			c.lfsr |= feedback << 6
		}
	}
}

func (c *noiseChannel) clockLength() {
	if c.lengthEnabled && c.length > 0 {
		c.length--
		if c.length == 0 {
			c.enabled = false
		}
	}
}

func (c *noiseChannel) clockEnvelope() {
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

func (c *noiseChannel) output() int {
	if !c.enabled || !c.dacEnabled {
		return 0
	}

	// Bit 0 low means the waveform is high.
	var input byte
	if c.lfsr&1 == 0 {
		input = c.volume
	}
	return dacOutput(input)
}

// NoiseState is a serializable snapshot of the noise channel.
type NoiseState struct {
	Enabled    bool
	DACEnabled bool

	DivisorCode byte
	ClockShift  byte
	Width7      bool
	Timer       int

	Length        uint16
	LengthEnabled bool

	EnvVolume byte
	EnvUp     bool
	EnvPeriod byte
	EnvTimer  byte
	Volume    byte

	LFSR uint16

	NR42 byte
	NR43 byte
}

func (c *noiseChannel) state() NoiseState {
	return NoiseState{
		Enabled:       c.enabled,
		DACEnabled:    c.dacEnabled,
		DivisorCode:   c.divisorCode,
		ClockShift:    c.clockShift,
		Width7:        c.width7,
		Timer:         c.timer,
		Length:        c.length,
		LengthEnabled: c.lengthEnabled,
		EnvVolume:     c.envVolume,
		EnvUp:         c.envUp,
		EnvPeriod:     c.envPeriod,
		EnvTimer:      c.envTimer,
		Volume:        c.volume,
		LFSR:          c.lfsr,
		NR42:          c.nr42,
		NR43:          c.nr43,
	}
}

func (c *noiseChannel) restore(s NoiseState) {
	c.enabled = s.Enabled
	c.dacEnabled = s.DACEnabled
	c.divisorCode = s.DivisorCode
	c.clockShift = s.ClockShift
	c.width7 = s.Width7
	c.timer = s.Timer
	c.length = s.Length
	c.lengthEnabled = s.LengthEnabled
	c.envVolume = s.EnvVolume
	c.envUp = s.EnvUp
	c.envPeriod = s.EnvPeriod
	c.envTimer = s.EnvTimer
	c.volume = s.Volume
	c.lfsr = s.LFSR
	c.nr42 = s.NR42
	c.nr43 = s.NR43
}
