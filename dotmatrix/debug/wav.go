package debug

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVRecorder streams interleaved stereo int16 samples into a PCM WAV
// file. Close finalizes the header and must be called for the file to
// be playable.
type WAVRecorder struct {
	file *os.File
	enc  *wav.Encoder
	buf  *audio.IntBuffer
}

func NewWAVRecorder(path string, sampleRate int) (*WAVRecorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating wav file: %w", err)
	}
	return &WAVRecorder{
		file: file,
		enc:  wav.NewEncoder(file, sampleRate, 16, 2, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}, nil
}

// Write appends samples to the recording.
func (r *WAVRecorder) Write(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	if cap(r.buf.Data) < len(samples) {
		r.buf.Data = make([]int, len(samples))
	}
	r.buf.Data = r.buf.Data[:len(samples)]
	for i, s := range samples {
		r.buf.Data[i] = int(s)
	}
	if err := r.enc.Write(r.buf); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}
	return nil
}

func (r *WAVRecorder) Close() error {
	if err := r.enc.Close(); err != nil {
		r.file.Close()
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return r.file.Close()
}
