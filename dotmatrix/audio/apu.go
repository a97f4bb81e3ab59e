package audio

import (
	"sync"

	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
)

// APU implements the four-channel DMG sound unit: two pulse channels,
// a wave channel and a noise channel, sequenced at 512 Hz and mixed
// into an interleaved stereo int16 stream at SampleRate.
//
// The APU is ticked on the shared cycle clock. Completed samples go
// into a bounded ring with a drop-oldest policy so a slow consumer
// never stalls the core; Samples drains the ring from another
// goroutine.
//
// Reference: https://gbdev.io/pandocs/Audio_details.html
type APU struct {
	pulseA pulseChannel
	pulseB pulseChannel
	wave   waveChannel
	noise  noiseChannel

	nr50    byte
	nr51    byte
	powered bool

	seq frameSequencer

	// sampleCounter accumulates SampleRate per cycle and emits one
	// stereo pair each time it crosses cpuFrequency, which keeps the
	// stream rate exact without floating point drift.
	sampleCounter int

	mu   sync.Mutex
	ring sampleRing
}

// New creates an APU with every channel silent and power off state
// matching a unit that has not run the boot sequence. Post-boot
// register values are established through WriteRegister.
func New() *APU {
	a := &APU{}
	a.pulseA.hasSweep = true
	a.noise.lfsr = lfsrInitialValue
	return a
}

// frameSequencer derives the 512 Hz event clock from the cycle clock.
type frameSequencer struct {
	timer int
	step  byte
}

// reset is applied on APU power-on: the next event lands a full period
// away and runs step 0, a length clock.
func (s *frameSequencer) reset() {
	s.timer = 0
	s.step = 7
}

// tick advances one cycle and reports whether a new step begins. The
// step counter already holds the new step when tick returns true.
func (s *frameSequencer) tick() bool {
	s.timer++
	if s.timer >= cyclesPerStep {
		s.timer = 0
		s.step = (s.step + 1) & 7
		return true
	}
	return false
}

// Tick advances the APU by the given number of T-cycles. A powered-off
// APU is frozen: no channel timers advance and no samples are emitted.
func (a *APU) Tick(cycles int) {
	if !a.powered {
		return
	}
	for i := 0; i < cycles; i++ {
		a.step()
	}
}

// Frame sequencer step actions:
//
//	Step   Length  Sweep  Envelope
//	0      Clock   -      -
//	1      -       -      -
//	2      Clock   Clock  -
//	3      -       -      -
//	4      Clock   -      -
//	5      -       -      -
//	6      Clock   Clock  -
//	7      -       -      Clock
func (a *APU) step() {
	if a.seq.tick() {
		step := a.seq.step

		if step&1 == 0 {
			a.clockLength()
		}
		if step == 2 || step == 6 {
			a.pulseA.clockSweep()
		}
		if step == 7 {
			a.clockEnvelopes()
		}
	}

	a.pulseA.tick()
	a.pulseB.tick()
	a.wave.tick()
	a.noise.tick()

	a.sampleCounter += SampleRate
	if a.sampleCounter >= cpuFrequency {
		a.sampleCounter -= cpuFrequency
		a.outputSample()
	}
}

func (a *APU) clockLength() {
	a.pulseA.clockLength()
	a.pulseB.clockLength()
	a.wave.clockLength()
	a.noise.clockLength()
}

func (a *APU) clockEnvelopes() {
	a.pulseA.clockEnvelope()
	a.pulseB.clockEnvelope()
	a.noise.clockEnvelope()
}

func (a *APU) outputSample() {
	left, right := a.mix()

	a.mu.Lock()
	a.ring.push(left, right)
	a.mu.Unlock()
}

// mix sums the channel DACs into the two output terminals per the
// NR51 routing matrix, scales by the NR50 master volumes and converts
// to int16. Each channel contributes -15..+15 and each master volume
// multiplies by 1..8, so the extremes land exactly on the int16 range.
func (a *APU) mix() (int16, int16) {
	ch1 := a.pulseA.output()
	ch2 := a.pulseB.output()
	ch3 := a.wave.output()
	ch4 := a.noise.output()

	var left, right int
	if a.nr51&0x10 != 0 {
		left += ch1
	}
	if a.nr51&0x20 != 0 {
		left += ch2
	}
	if a.nr51&0x40 != 0 {
		left += ch3
	}
	if a.nr51&0x80 != 0 {
		left += ch4
	}
	if a.nr51&0x01 != 0 {
		right += ch1
	}
	if a.nr51&0x02 != 0 {
		right += ch2
	}
	if a.nr51&0x04 != 0 {
		right += ch3
	}
	if a.nr51&0x08 != 0 {
		right += ch4
	}

	leftVol := int(a.nr50>>4&0x07) + 1
	rightVol := int(a.nr50&0x07) + 1

	return int16(left * leftVol * 32767 / 480), int16(right * rightVol * 32767 / 480)
}

// ReadRegister reads an APU register (0xFF10-0xFF3F). Unused bits and
// write-only registers read back as ones.
func (a *APU) ReadRegister(address uint16) byte {
	switch address {
	case addr.NR10:
		return a.pulseA.readNR10() | 0x80
	case addr.NR11:
		return a.pulseA.readNRx1() | 0x3F
	case addr.NR12:
		return a.pulseA.readNRx2()
	case addr.NR13:
		return 0xFF
	case addr.NR14:
		return a.pulseA.readNRx4() | 0xBF

	case addr.NR21:
		return a.pulseB.readNRx1() | 0x3F
	case addr.NR22:
		return a.pulseB.readNRx2()
	case addr.NR23:
		return 0xFF
	case addr.NR24:
		return a.pulseB.readNRx4() | 0xBF

	case addr.NR30:
		return a.wave.readNR30() | 0x7F
	case addr.NR31:
		return 0xFF
	case addr.NR32:
		return a.wave.readNR32() | 0x9F
	case addr.NR33:
		return 0xFF
	case addr.NR34:
		return a.wave.readNR34() | 0xBF

	case addr.NR41:
		return 0xFF
	case addr.NR42:
		return a.noise.readNR42()
	case addr.NR43:
		return a.noise.readNR43()
	case addr.NR44:
		return a.noise.readNR44() | 0xBF

	case addr.NR50:
		return a.nr50
	case addr.NR51:
		return a.nr51
	case addr.NR52:
		status := byte(0x70)
		if a.powered {
			status |= 0x80
		}
		if a.pulseA.active() {
			status |= 0x01
		}
		if a.pulseB.active() {
			status |= 0x02
		}
		if a.wave.active() {
			status |= 0x04
		}
		if a.noise.active() {
			status |= 0x08
		}
		return status
	}

	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		return a.wave.readWaveRAM(address - addr.WaveRAMStart)
	}

	return 0xFF
}

// WriteRegister writes an APU register (0xFF10-0xFF3F). While the APU
// is powered off, only NR52, wave RAM and the length loads are
// writable.
func (a *APU) WriteRegister(address uint16, value byte) {
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		a.wave.writeWaveRAM(address-addr.WaveRAMStart, value)
		return
	}

	if address == addr.NR52 {
		powered := value&0x80 != 0
		if a.powered && !powered {
			a.powerOff()
		} else if !a.powered && powered {
			a.seq.reset()
		}
		a.powered = powered
		return
	}

	if !a.powered {
		switch address {
		case addr.NR11:
			a.pulseA.writeNRx1LengthOnly(value)
		case addr.NR21:
			a.pulseB.writeNRx1LengthOnly(value)
		case addr.NR31:
			a.wave.writeNR31(value)
		case addr.NR41:
			a.noise.writeNR41(value)
		}
		return
	}

	switch address {
	case addr.NR10:
		a.pulseA.writeNR10(value)
	case addr.NR11:
		a.pulseA.writeNRx1(value)
	case addr.NR12:
		a.pulseA.writeNRx2(value)
	case addr.NR13:
		a.pulseA.writeNRx3(value)
	case addr.NR14:
		a.pulseA.writeNRx4(value, a.seq.step)

	case addr.NR21:
		a.pulseB.writeNRx1(value)
	case addr.NR22:
		a.pulseB.writeNRx2(value)
	case addr.NR23:
		a.pulseB.writeNRx3(value)
	case addr.NR24:
		a.pulseB.writeNRx4(value, a.seq.step)

	case addr.NR30:
		a.wave.writeNR30(value)
	case addr.NR31:
		a.wave.writeNR31(value)
	case addr.NR32:
		a.wave.writeNR32(value)
	case addr.NR33:
		a.wave.writeNR33(value)
	case addr.NR34:
		a.wave.writeNR34(value, a.seq.step)

	case addr.NR41:
		a.noise.writeNR41(value)
	case addr.NR42:
		a.noise.writeNR42(value)
	case addr.NR43:
		a.noise.writeNR43(value)
	case addr.NR44:
		a.noise.writeNR44(value, a.seq.step)

	case addr.NR50:
		a.nr50 = value
	case addr.NR51:
		a.nr51 = value
	}
}

// powerOff clears the register file of every channel. Length counters
// and internal timers survive, matching DMG behavior.
func (a *APU) powerOff() {
	a.pulseA.powerOff()
	a.pulseB.powerOff()
	a.wave.powerOff()
	a.noise.powerOff()
	a.nr50 = 0
	a.nr51 = 0
}

// Samples fills buf with up to len(buf) interleaved stereo samples and
// returns how many were written, always a multiple of two. Safe to
// call concurrently with Tick.
func (a *APU) Samples(buf []int16) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ring.drain(buf)
}

// SampleRate returns the output stream rate in Hz.
func (a *APU) SampleRate() int {
	return SampleRate
}

// sampleRing is a bounded buffer of interleaved stereo samples. When
// full, pushing drops the oldest pair so playback skips rather than
// blocking the core.
type sampleRing struct {
	buf  [sampleBufferSize]int16
	head int
	size int
}

func (r *sampleRing) push(left, right int16) {
	if r.size+2 > len(r.buf) {
		r.head = (r.head + 2) % len(r.buf)
		r.size -= 2
	}
	tail := (r.head + r.size) % len(r.buf)
	r.buf[tail] = left
	r.buf[(tail+1)%len(r.buf)] = right
	r.size += 2
}

func (r *sampleRing) drain(dst []int16) int {
	n := len(dst) &^ 1
	if n > r.size {
		n = r.size
	}
	for i := 0; i < n; i++ {
		dst[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	r.head = (r.head + n) % len(r.buf)
	r.size -= n
	return n
}

// APUState is a serializable snapshot of the APU. The sample ring is
// consumer-side buffering and intentionally not part of it.
type APUState struct {
	PulseA PulseState
	PulseB PulseState
	Wave   WaveState
	Noise  NoiseState

	NR50    byte
	NR51    byte
	Powered bool

	SeqTimer int
	SeqStep  byte

	SampleCounter int
}

// State captures the APU for serialization.
func (a *APU) State() APUState {
	return APUState{
		PulseA:        a.pulseA.state(),
		PulseB:        a.pulseB.state(),
		Wave:          a.wave.state(),
		Noise:         a.noise.state(),
		NR50:          a.nr50,
		NR51:          a.nr51,
		Powered:       a.powered,
		SeqTimer:      a.seq.timer,
		SeqStep:       a.seq.step,
		SampleCounter: a.sampleCounter,
	}
}

// Restore loads a snapshot produced by State. Pending samples in the
// ring are discarded so the stream resumes cleanly from the snapshot.
func (a *APU) Restore(state APUState) {
	a.pulseA.restore(state.PulseA)
	a.pulseA.hasSweep = true
	a.pulseB.restore(state.PulseB)
	a.wave.restore(state.Wave)
	a.noise.restore(state.Noise)
	a.nr50 = state.NR50
	a.nr51 = state.NR51
	a.powered = state.Powered
	a.seq.timer = state.SeqTimer
	a.seq.step = state.SeqStep
	a.sampleCounter = state.SampleCounter

	a.mu.Lock()
	a.ring.head = 0
	a.ring.size = 0
	a.mu.Unlock()
}
