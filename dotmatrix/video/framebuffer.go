package video

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
)

// Shade is a post-palette pixel value. 0 is the lightest shade, 3 the
// darkest. The palette registers (BGP, OBP0, OBP1) map tile color
// indices to shades before they reach the framebuffer.
const (
	ShadeWhite byte = iota
	ShadeLightGrey
	ShadeDarkGrey
	ShadeBlack
)

// grayLevels maps a shade to an 8-bit luminance value.
var grayLevels = [4]byte{0xFF, 0x98, 0x4C, 0x00}

// FrameBuffer holds one 160x144 frame as post-palette shades (0-3),
// row-major with (0,0) at the top left.
type FrameBuffer struct {
	pixels []byte
}

func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{
		pixels: make([]byte, FramebufferWidth*FramebufferHeight),
	}
}

func (fb *FrameBuffer) GetPixel(x, y int) byte {
	return fb.pixels[y*FramebufferWidth+x]
}

func (fb *FrameBuffer) SetPixel(x, y int, shade byte) {
	fb.pixels[y*FramebufferWidth+x] = shade
}

// Clear resets every pixel to the lightest shade, matching the blank
// panel shown while the LCD is disabled.
func (fb *FrameBuffer) Clear() {
	for i := range fb.pixels {
		fb.pixels[i] = ShadeWhite
	}
}

// Pixels returns the underlying shade slice. The slice is owned by the
// framebuffer and changes as new scanlines are rendered.
func (fb *FrameBuffer) Pixels() []byte {
	return fb.pixels
}

func (fb *FrameBuffer) CopyFrom(other *FrameBuffer) {
	copy(fb.pixels, other.pixels)
}

func (fb *FrameBuffer) Clone() *FrameBuffer {
	clone := NewFrameBuffer()
	clone.CopyFrom(fb)
	return clone
}

// ToGrayscale converts the frame to one 8-bit luminance byte per pixel.
func (fb *FrameBuffer) ToGrayscale() []byte {
	out := make([]byte, len(fb.pixels))
	for i, shade := range fb.pixels {
		out[i] = grayLevels[shade&0x03]
	}
	return out
}

// ToRGBA converts the frame to RGBA8888, 4 bytes per pixel, for display
// backends that want a full color texture.
func (fb *FrameBuffer) ToRGBA() []byte {
	out := make([]byte, len(fb.pixels)*4)
	for i, shade := range fb.pixels {
		l := grayLevels[shade&0x03]
		out[i*4] = l
		out[i*4+1] = l
		out[i*4+2] = l
		out[i*4+3] = 0xFF
	}
	return out
}
