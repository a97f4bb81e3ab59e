package audio

// waveChannel plays 4-bit samples from the 16-byte wave pattern RAM.
type waveChannel struct {
	enabled    bool
	dacEnabled bool

	frequency uint16
	timer     uint16

	length        uint16
	lengthEnabled bool

	volumeCode byte
	position   byte

	waveRAM      [waveRAMSize]byte
	sampleBuffer byte

	// While the channel plays, CPU access to wave RAM only works in
	// the exact cycle after the channel fetched a byte, and it lands
	// on the byte under the playback position.
	justAccessed bool
	lastByte     byte

	nr30 byte
	nr32 byte
}

func (c *waveChannel) active() bool {
	return c.enabled
}

func (c *waveChannel) powerOff() {
	c.enabled = false
	c.dacEnabled = false
	c.frequency = 0
	c.lengthEnabled = false
	c.volumeCode = 0
	c.nr30 = 0
	c.nr32 = 0
}

func (c *waveChannel) readNR30() byte { return c.nr30 }
func (c *waveChannel) readNR32() byte { return c.nr32 }

func (c *waveChannel) readNR34() byte {
	if c.lengthEnabled {
		return 0x40
	}
	return 0x00
}

func (c *waveChannel) writeNR30(value byte) {
	c.nr30 = value
	c.dacEnabled = value&0x80 != 0
	if !c.dacEnabled {
		c.enabled = false
	}
}

func (c *waveChannel) writeNR31(value byte) {
	c.length = 256 - uint16(value)
}

func (c *waveChannel) writeNR32(value byte) {
	c.nr32 = value
	c.volumeCode = (value >> 5) & 0x03
}

func (c *waveChannel) writeNR33(value byte) {
	c.frequency = (c.frequency & 0x0700) | uint16(value)
}

func (c *waveChannel) writeNR34(value byte, frameStep byte) {
	c.frequency = (c.frequency & 0x00FF) | (uint16(value&0x07) << 8)

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

func (c *waveChannel) trigger(frameStep byte) {
	c.enabled = c.dacEnabled

	// The wave timer reloads with a few cycles of extra delay.
	c.timer = (2048-c.frequency)*2 + 6

	if c.length == 0 {
		c.length = 256
		if c.lengthEnabled && frameStep&1 == 0 {
			c.length--
		}
	}

	c.position = 0
	c.sampleBuffer = c.waveRAM[0] >> 4
}

func (c *waveChannel) tick() {
	c.justAccessed = false

	if c.timer > 0 {
		c.timer--
	}

	if c.timer == 0 {
		c.timer = (2048 - c.frequency) * 2
		c.position = (c.position + 1) & 31

		byteIndex := c.position / 2
		c.lastByte = c.waveRAM[byteIndex]
		c.justAccessed = true

		if c.position&1 == 0 {
			c.sampleBuffer = c.lastByte >> 4
		} else {
			c.sampleBuffer = c.lastByte & 0x0F
		}
	}
}

func (c *waveChannel) clockLength() {
	if c.lengthEnabled && c.length > 0 {
		c.length--
		if c.length == 0 {
			c.enabled = false
		}
	}
}

func (c *waveChannel) readWaveRAM(offset uint16) byte {
	if c.enabled {
		if c.justAccessed {
			return c.lastByte
		}
		return 0xFF
	}
	return c.waveRAM[offset]
}

func (c *waveChannel) writeWaveRAM(offset uint16, value byte) {
	if c.enabled {
		if c.justAccessed {
			c.waveRAM[c.position/2] = value
		}
		return
	}
	c.waveRAM[offset] = value
}

func (c *waveChannel) output() int {
	if !c.enabled || !c.dacEnabled {
		return 0
	}

	input := c.sampleBuffer >> waveVolumeShift[c.volumeCode]
	return dacOutput(input)
}

// WaveState is a serializable snapshot of the wave channel.
type WaveState struct {
	Enabled    bool
	DACEnabled bool

	Frequency uint16
	Timer     uint16

	Length        uint16
	LengthEnabled bool

	VolumeCode byte
	Position   byte

	WaveRAM      [waveRAMSize]byte
	SampleBuffer byte
	JustAccessed bool
	LastByte     byte

	NR30 byte
	NR32 byte
}

func (c *waveChannel) state() WaveState {
	return WaveState{
		Enabled:       c.enabled,
		DACEnabled:    c.dacEnabled,
		Frequency:     c.frequency,
		Timer:         c.timer,
		Length:        c.length,
		LengthEnabled: c.lengthEnabled,
		VolumeCode:    c.volumeCode,
		Position:      c.position,
		WaveRAM:       c.waveRAM,
		SampleBuffer:  c.sampleBuffer,
		JustAccessed:  c.justAccessed,
		LastByte:      c.lastByte,
		NR30:          c.nr30,
		NR32:          c.nr32,
	}
}

func (c *waveChannel) restore(s WaveState) {
	c.enabled = s.Enabled
	c.dacEnabled = s.DACEnabled
	c.frequency = s.Frequency
	c.timer = s.Timer
	c.length = s.Length
	c.lengthEnabled = s.LengthEnabled
	c.volumeCode = s.VolumeCode
	c.position = s.Position
	c.waveRAM = s.WaveRAM
	c.sampleBuffer = s.SampleBuffer
	c.justAccessed = s.JustAccessed
	c.lastByte = s.LastByte
	c.nr30 = s.NR30
	c.nr32 = s.NR32
}
