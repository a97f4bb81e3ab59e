package audio

// Provider is the pull interface audio backends consume samples
// through.
type Provider interface {
	// Samples fills buf with up to len(buf) interleaved stereo
	// samples and returns how many were written.
	Samples(buf []int16) int

	// SampleRate returns the stream rate in Hz.
	SampleRate() int
}

var _ Provider = (*APU)(nil)
