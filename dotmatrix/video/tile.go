package video

import "github.com/valerio/go-dotmatrix/dotmatrix/bit"

// TileRow is one row of a tile pattern (8 pixels) in the two bit-plane
// format tiles use in VRAM:
//
//	Low:  bit plane 0, provides bit 0 of each pixel's color index
//	High: bit plane 1, provides bit 1 of each pixel's color index
//
// Bit 7 is the leftmost pixel and bit 0 the rightmost:
//
//	Bit:     7 6 5 4 3 2 1 0
//	Pixel:   0 1 2 3 4 5 6 7
//
// Example: bytes $3C and $7E form the row
//
//	Low  (0x3C): 0 0 1 1 1 1 0 0
//	High (0x7E): 0 1 1 1 1 1 1 0
//	            -----------------
//	Index:       0 2 3 3 3 3 2 0
//
// The color index (0-3) is mapped to a shade by a palette register, and
// index 0 is transparent for sprites. A full 8x8 tile is 16 bytes.
type TileRow struct {
	Low  byte
	High byte
}

// Pixel extracts the color index (0-3) of a pixel in the row.
// pixelX is 0-7 with 0 the leftmost pixel.
func (t TileRow) Pixel(pixelX int) byte {
	bitIndex := uint8(7 - pixelX)

	var index byte
	if bit.IsSet(bitIndex, t.Low) {
		index |= 1
	}
	if bit.IsSet(bitIndex, t.High) {
		index |= 2
	}

	return index
}

// PixelFlipped extracts a color index with the row mirrored
// horizontally, as used by sprites with the flip X attribute.
func (t TileRow) PixelFlipped(pixelX int) byte {
	bitIndex := uint8(pixelX)

	var index byte
	if bit.IsSet(bitIndex, t.Low) {
		index |= 1
	}
	if bit.IsSet(bitIndex, t.High) {
		index |= 2
	}

	return index
}

// palColor maps a color index through a palette register. Each index
// occupies two bits, index 0 in the low bits.
func palColor(palette byte, index byte) byte {
	return (palette >> (index * 2)) & 0x03
}
