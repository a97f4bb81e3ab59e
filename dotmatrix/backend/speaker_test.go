package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubProvider struct {
	samples []int16
	rate    int
}

func (s *stubProvider) Samples(buf []int16) int {
	n := copy(buf, s.samples)
	s.samples = s.samples[n:]
	return n
}

func (s *stubProvider) SampleRate() int { return s.rate }

func TestSpeakerRead(t *testing.T) {
	provider := &stubProvider{samples: []int16{100, -100, 32000, -32000}}
	s := &Speaker{provider: provider, volume: 1, buf: make([]int16, 8)}

	// Room for six samples; only four are available, the rest is
	// silence.
	p := make([]byte, 12)
	n, err := s.Read(p)

	assert.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, []byte{100, 0x00, 156, 0xFF, 0x00, 0x7D, 0x00, 0x83, 0, 0, 0, 0}, p)
}

func TestSpeakerReadAppliesVolume(t *testing.T) {
	testCases := []struct {
		desc   string
		volume float64
		sample int16
		want   int16
	}{
		{desc: "half volume", volume: 0.5, sample: 1000, want: 500},
		{desc: "double volume", volume: 2, sample: 1000, want: 2000},
		{desc: "clamped high", volume: 2, sample: 20000, want: 32767},
		{desc: "clamped low", volume: 2, sample: -20000, want: -32768},
		{desc: "muted", volume: 0, sample: 12345, want: 0},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			provider := &stubProvider{samples: []int16{tC.sample}}
			s := &Speaker{provider: provider, volume: tC.volume, buf: make([]int16, 4)}

			p := make([]byte, 2)
			_, err := s.Read(p)

			assert.NoError(t, err)
			got := int16(uint16(p[0]) | uint16(p[1])<<8)
			assert.Equal(t, tC.want, got)
		})
	}
}

func TestSpeakerReadGrowsBuffer(t *testing.T) {
	provider := &stubProvider{samples: make([]int16, 64)}
	s := &Speaker{provider: provider, volume: 1, buf: make([]int16, 2)}

	p := make([]byte, 128)
	n, err := s.Read(p)

	assert.NoError(t, err)
	assert.Equal(t, 128, n)
	assert.GreaterOrEqual(t, len(s.buf), 64)
}

func TestClampVolume(t *testing.T) {
	assert.Equal(t, 1.5, ClampVolume(1.5))
	assert.Equal(t, 0.0, ClampVolume(-1))
	assert.Equal(t, 2.0, ClampVolume(3))
}
