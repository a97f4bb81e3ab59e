package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

func TestHeadlessQuitsAfterMaxFrames(t *testing.T) {
	h := NewHeadless(3, SnapshotConfig{})
	assert.NoError(t, h.Init(Config{Title: "test"}))

	fb := video.NewFrameBuffer()
	for i := 0; i < 2; i++ {
		in, err := h.Update(fb)
		assert.NoError(t, err)
		assert.False(t, in.Quit)
	}

	in, err := h.Update(fb)
	assert.NoError(t, err)
	assert.True(t, in.Quit)
	assert.NoError(t, h.Cleanup())
}

func TestHeadlessSnapshots(t *testing.T) {
	dir := t.TempDir()
	h := NewHeadless(5, SnapshotConfig{
		Enabled:   true,
		Interval:  2,
		Directory: dir,
		ROMName:   "demo",
	})
	assert.NoError(t, h.Init(Config{}))

	fb := video.NewFrameBuffer()
	var quit bool
	for i := 0; i < 5; i++ {
		in, err := h.Update(fb)
		assert.NoError(t, err)
		quit = in.Quit
	}
	assert.True(t, quit)

	// Interval hits at 2 and 4, plus the final frame.
	for _, name := range []string{"demo_frame_2.png", "demo_frame_4.png", "demo_frame_5.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	_, err := os.Stat(filepath.Join(dir, "demo_frame_3.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestCreateSnapshotConfigDisabled(t *testing.T) {
	config, err := CreateSnapshotConfig(0, "", "roms/tetris.gb")
	assert.NoError(t, err)
	assert.False(t, config.Enabled)
}

func TestCreateSnapshotConfigNamesAndDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snaps")

	config, err := CreateSnapshotConfig(10, dir, "path/to/cpu_instrs.gb")

	assert.NoError(t, err)
	assert.True(t, config.Enabled)
	assert.Equal(t, dir, config.Directory)
	assert.Equal(t, "cpu_instrs", config.ROMName)

	info, statErr := os.Stat(dir)
	assert.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

func TestCreateSnapshotConfigTempDir(t *testing.T) {
	config, err := CreateSnapshotConfig(5, "", "demo.gb")
	assert.NoError(t, err)
	assert.NotEmpty(t, config.Directory)
	defer os.RemoveAll(config.Directory)

	info, statErr := os.Stat(config.Directory)
	assert.NoError(t, statErr)
	assert.True(t, info.IsDir())
}
