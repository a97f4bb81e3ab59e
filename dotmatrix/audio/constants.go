package audio

// Timing constants
// Reference: https://gbdev.io/pandocs/Audio_details.html
const (
	// cpuFrequency is the T-cycle clock the APU is stepped on.
	cpuFrequency = 4194304

	// SampleRate is the output stream rate in Hz.
	SampleRate = 44100

	// cyclesPerStep is the number of CPU cycles per frame sequencer
	// tick. The frame sequencer runs at 512 Hz: 4194304 / 512 = 8192.
	cyclesPerStep = 8192
)

const (
	// waveRAMSize is the size of wave pattern RAM in bytes (32 nibbles).
	waveRAMSize = 16

	// lfsrInitialValue is the all-ones noise shift register state.
	lfsrInitialValue uint16 = 0x7FFF

	// sampleBufferSize is the sample ring capacity in int16 samples
	// (interleaved stereo), roughly 185ms of audio.
	sampleBufferSize = 16384
)

// dutyPatterns holds the four pulse waveforms, one bit per eighth of
// the period.
var dutyPatterns = [4][8]byte{
	{0, 0, 0, 0, 0, 0, 0, 1}, // 12.5%
	{1, 0, 0, 0, 0, 0, 0, 1}, // 25%
	{1, 0, 0, 0, 0, 1, 1, 1}, // 50%
	{0, 1, 1, 1, 1, 1, 1, 0}, // 75%
}

// waveVolumeShift maps the NR32 output level code to a right shift
// applied to each wave sample: mute, 100%, 50%, 25%.
var waveVolumeShift = [4]byte{4, 0, 1, 2}

// dacOutput maps a 4-bit DAC input to a signed level. The DAC is
// linear between -15 and +15, so the mixed output of all four channels
// stays within +/-60 before master volume scaling.
func dacOutput(input byte) int {
	return 2*int(input) - 15
}
