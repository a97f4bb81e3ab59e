package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

func TestWriteFramePNG(t *testing.T) {
	fb := video.NewFrameBuffer()
	fb.SetPixel(0, 0, video.ShadeBlack)
	fb.SetPixel(1, 0, video.ShadeDarkGrey)
	fb.SetPixel(2, 0, video.ShadeLightGrey)

	path := filepath.Join(t.TempDir(), "frame.png")
	assert.NoError(t, WriteFramePNG(fb, path))

	file, err := os.Open(path)
	assert.NoError(t, err)
	defer file.Close()

	img, err := png.Decode(file)
	assert.NoError(t, err)
	assert.Equal(t, video.FramebufferWidth, img.Bounds().Dx())
	assert.Equal(t, video.FramebufferHeight, img.Bounds().Dy())

	testCases := []struct {
		desc string
		x    int
		want uint32
	}{
		{desc: "black", x: 0, want: 0x00},
		{desc: "dark grey", x: 1, want: 0x4C},
		{desc: "light grey", x: 2, want: 0x98},
		{desc: "untouched pixels stay white", x: 3, want: 0xFF},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			r, g, b, _ := img.At(tC.x, 0).RGBA()
			assert.Equal(t, tC.want*0x101, r)
			assert.Equal(t, r, g)
			assert.Equal(t, g, b)
		})
	}
}

func TestWriteFramePNGBadPath(t *testing.T) {
	fb := video.NewFrameBuffer()
	err := WriteFramePNG(fb, filepath.Join(t.TempDir(), "missing", "frame.png"))
	assert.Error(t, err)
}

func TestSaveFramePNG(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveFramePNG(video.NewFrameBuffer(), "capture", dir)

	assert.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "capture_")
	assert.Equal(t, ".png", filepath.Ext(path))
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}
