package backend

import (
	"fmt"

	"github.com/ebitengine/oto/v3"

	"github.com/valerio/go-dotmatrix/dotmatrix/audio"
)

// Speaker plays the emulated audio stream through the host sound
// device. oto pulls samples on its own goroutine; when the emulator
// has not produced enough yet the gap is filled with silence rather
// than blocking.
type Speaker struct {
	ctx      *oto.Context
	player   *oto.Player
	provider audio.Provider
	volume   float64
	buf      []int16
}

func NewSpeaker(provider audio.Provider, volume float64) (*Speaker, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   provider.SampleRate(),
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	<-ready

	s := &Speaker{
		ctx:      ctx,
		provider: provider,
		volume:   ClampVolume(volume),
		buf:      make([]int16, 4096),
	}
	s.player = ctx.NewPlayer(s)
	return s, nil
}

func (s *Speaker) Start() {
	s.player.Play()
}

func (s *Speaker) Close() error {
	return s.player.Close()
}

// Read converts provider samples to little-endian bytes with the
// volume applied. Called by oto's playback goroutine.
func (s *Speaker) Read(p []byte) (int, error) {
	want := len(p) / 2
	if len(s.buf) < want {
		s.buf = make([]int16, want)
	}

	n := s.provider.Samples(s.buf[:want])
	for i := 0; i < n; i++ {
		scaled := int32(float64(s.buf[i]) * s.volume)
		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		p[2*i] = byte(scaled)
		p[2*i+1] = byte(scaled >> 8)
	}
	for i := n * 2; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

// ClampVolume limits the volume multiplier to the supported 0..2
// range.
func ClampVolume(volume float64) float64 {
	if volume < 0 {
		return 0
	}
	if volume > 2 {
		return 2
	}
	return volume
}
