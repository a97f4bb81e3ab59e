// Package debug provides capture helpers for offline inspection: PNG
// frame snapshots and WAV recordings of the audio stream.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

// WriteFramePNG encodes the frame as an 8-bit grayscale PNG at path.
func WriteFramePNG(frame *video.FrameBuffer, path string) error {
	img := image.NewGray(image.Rect(0, 0, video.FramebufferWidth, video.FramebufferHeight))
	copy(img.Pix, frame.ToGrayscale())

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// SaveFramePNG writes a timestamped snapshot into directory (the
// working directory when empty) and returns the path written.
func SaveFramePNG(frame *video.FrameBuffer, baseName, directory string) (string, error) {
	if directory == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving snapshot directory: %w", err)
		}
		directory = cwd
	}

	name := fmt.Sprintf("%s_%s.png", baseName, time.Now().Format("20060102_150405"))
	path := filepath.Join(directory, name)
	if err := WriteFramePNG(frame, path); err != nil {
		return "", err
	}
	return path, nil
}
