package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTileRowPixel(t *testing.T) {
	// The 0x3C/0x7E example row from the VRAM tile format.
	row := TileRow{Low: 0x3C, High: 0x7E}

	want := []byte{0, 2, 3, 3, 3, 3, 2, 0}
	for x, index := range want {
		assert.Equal(t, index, row.Pixel(x), "pixel %d", x)
	}
}

func TestTileRowPixelFlipped(t *testing.T) {
	row := TileRow{Low: 0xF0, High: 0x00}

	// Unflipped the colored half is on the left.
	assert.Equal(t, uint8(1), row.Pixel(0))
	assert.Equal(t, uint8(0), row.Pixel(7))

	assert.Equal(t, uint8(0), row.PixelFlipped(0))
	assert.Equal(t, uint8(1), row.PixelFlipped(7))
}

func TestPalColor(t *testing.T) {
	identity := uint8(0xE4) // 11 10 01 00
	for index := uint8(0); index < 4; index++ {
		assert.Equal(t, index, palColor(identity, index))
	}

	inverted := uint8(0x1B) // 00 01 10 11
	for index := uint8(0); index < 4; index++ {
		assert.Equal(t, 3-index, palColor(inverted, index))
	}
}
