package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
)

// ppuFixture owns the VRAM/OAM backing storage and records interrupts
// and published frames.
type ppuFixture struct {
	p      *PPU
	vram   []byte
	oam    []byte
	irqs   map[addr.Interrupt]int
	frames int
}

func newPPUFixture() *ppuFixture {
	f := &ppuFixture{
		vram: make([]byte, 0x2000),
		oam:  make([]byte, 0xA0),
		irqs: map[addr.Interrupt]int{},
	}
	f.p = New(f.vram, f.oam,
		func(i addr.Interrupt) { f.irqs[i]++ },
		func(*FrameBuffer) *FrameBuffer { f.frames++; return nil })
	return f
}

func (f *ppuFixture) setTileRow(tile, row int, low, high byte) {
	f.vram[tile*16+row*2] = low
	f.vram[tile*16+row*2+1] = high
}

// setMapEntry writes a tile index into tile map 0 (0x9800) or 1 (0x9C00).
func (f *ppuFixture) setMapEntry(whichMap, tileX, tileY int, tile byte) {
	base := 0x1800
	if whichMap == 1 {
		base = 0x1C00
	}
	f.vram[base+tileY*32+tileX] = tile
}

func (f *ppuFixture) setSprite(index int, y, x, tile, attrs byte) {
	copy(f.oam[index*4:], []byte{y, x, tile, attrs})
}

// renderLines ticks from the top of the frame through the render point
// of the given line, so lines 0..line are in the framebuffer.
func (f *ppuFixture) renderLines(line int) {
	f.p.Tick(scanlineDots*line + pixelTransferDots)
}

func TestPPUModeProgression(t *testing.T) {
	f := newPPUFixture()

	assert.Equal(t, ModeOAMScan, f.p.Mode())
	assert.Equal(t, uint8(0), f.p.LY())

	f.p.Tick(oamScanDots)
	assert.Equal(t, ModePixelTransfer, f.p.Mode())

	f.p.Tick(pixelTransferDots - oamScanDots)
	assert.Equal(t, ModeHBlank, f.p.Mode())

	f.p.Tick(scanlineDots - pixelTransferDots)
	assert.Equal(t, ModeOAMScan, f.p.Mode())
	assert.Equal(t, uint8(1), f.p.LY())
}

func TestPPUVBlank(t *testing.T) {
	f := newPPUFixture()

	f.p.Tick(scanlineDots*visibleLines - 1)
	assert.Equal(t, 0, f.irqs[addr.VBlankInterrupt])

	f.p.Tick(1)
	assert.Equal(t, ModeVBlank, f.p.Mode())
	assert.Equal(t, uint8(144), f.p.LY())
	assert.Equal(t, 1, f.irqs[addr.VBlankInterrupt])
	assert.Equal(t, 1, f.frames)

	// Ten blank lines later the frame wraps.
	f.p.Tick(scanlineDots * 10)
	assert.Equal(t, ModeOAMScan, f.p.Mode())
	assert.Equal(t, uint8(0), f.p.LY())
	assert.Equal(t, 1, f.irqs[addr.VBlankInterrupt], "one VBlank per frame")
}

func TestPPUSTATReadWrite(t *testing.T) {
	f := newPPUFixture()
	f.p.Tick(oamScanDots) // into pixel transfer

	f.p.WriteRegister(addr.STAT, 0xFF)
	stat := f.p.ReadRegister(addr.STAT)

	assert.Equal(t, uint8(0x78), stat&0x78, "interrupt selects stick")
	assert.NotZero(t, stat&0x80, "bit 7 always reads set")
	assert.Equal(t, uint8(ModePixelTransfer), stat&0x03, "mode bits are read-only")

	f.p.WriteRegister(addr.LY, 55)
	assert.Equal(t, uint8(0), f.p.ReadRegister(addr.LY), "LY is read-only")
}

func TestPPULYCInterrupt(t *testing.T) {
	f := newPPUFixture()

	f.p.WriteRegister(addr.STAT, 0x40)
	f.p.WriteRegister(addr.LYC, 2)
	assert.Equal(t, 0, f.irqs[addr.LCDSTATInterrupt])

	f.p.Tick(scanlineDots * 2)
	assert.Equal(t, uint8(2), f.p.LY())
	assert.Equal(t, 1, f.irqs[addr.LCDSTATInterrupt])
	assert.NotZero(t, f.p.ReadRegister(addr.STAT)&0x04, "coincidence bit set")

	// Holding the line through the scanline must not re-fire.
	f.p.Tick(scanlineDots - 1)
	assert.Equal(t, 1, f.irqs[addr.LCDSTATInterrupt])

	f.p.Tick(1)
	assert.Zero(t, f.p.ReadRegister(addr.STAT)&0x04)
}

func TestPPUModeInterrupt(t *testing.T) {
	f := newPPUFixture()

	// Enabling the OAM scan select while already in OAM scan is a
	// rising edge of its own.
	f.p.WriteRegister(addr.STAT, 0x20)
	assert.Equal(t, 1, f.irqs[addr.LCDSTATInterrupt])

	f.p.Tick(scanlineDots)
	assert.Equal(t, 2, f.irqs[addr.LCDSTATInterrupt])

	f.p.Tick(scanlineDots)
	assert.Equal(t, 3, f.irqs[addr.LCDSTATInterrupt])
}

func TestPPULCDDisable(t *testing.T) {
	f := newPPUFixture()

	f.p.Tick(scanlineDots * 3)
	f.p.Framebuffer().SetPixel(0, 0, ShadeBlack)

	f.p.WriteRegister(addr.LCDC, 0x11)

	assert.Equal(t, uint8(0), f.p.LY())
	assert.Equal(t, ModeHBlank, f.p.Mode())
	assert.Zero(t, f.p.ReadRegister(addr.STAT)&0x03)
	assert.Equal(t, ShadeWhite, f.p.Framebuffer().GetPixel(0, 0), "panel blanks")
	assert.Equal(t, 1, f.frames, "the blank frame is published")

	// A disabled LCD consumes no dots.
	f.p.Tick(scanlineDots * 20)
	assert.Equal(t, uint8(0), f.p.LY())

	f.p.WriteRegister(addr.LCDC, 0x91)
	assert.Equal(t, ModeOAMScan, f.p.Mode())
	f.p.Tick(scanlineDots)
	assert.Equal(t, uint8(1), f.p.LY())
}

func TestPPUBackgroundRendering(t *testing.T) {
	f := newPPUFixture()
	f.setTileRow(1, 0, 0xFF, 0x00) // solid color index 1
	f.setMapEntry(0, 0, 0, 1)

	f.renderLines(0)

	fb := f.p.Framebuffer()
	assert.Equal(t, ShadeLightGrey, fb.GetPixel(0, 0))
	assert.Equal(t, ShadeLightGrey, fb.GetPixel(7, 0))
	assert.Equal(t, ShadeWhite, fb.GetPixel(8, 0), "next map entry is tile 0")
}

func TestPPUBackgroundPalette(t *testing.T) {
	f := newPPUFixture()
	f.setTileRow(1, 0, 0xFF, 0x00)
	f.setMapEntry(0, 0, 0, 1)
	f.p.WriteRegister(addr.BGP, 0x1B) // invert: index 1 -> shade 2

	f.renderLines(0)

	assert.Equal(t, ShadeDarkGrey, f.p.Framebuffer().GetPixel(0, 0))
}

func TestPPUScrolling(t *testing.T) {
	f := newPPUFixture()
	f.setTileRow(1, 0, 0xFF, 0x00)
	f.setMapEntry(0, 1, 0, 1) // second tile column
	f.p.WriteRegister(addr.SCX, 8)

	f.renderLines(0)

	assert.Equal(t, ShadeLightGrey, f.p.Framebuffer().GetPixel(0, 0))

	// Vertical scroll: the same tile seen through SCY lands on row 0
	// of the visible frame only when the map entry matches.
	f = newPPUFixture()
	f.setTileRow(1, 0, 0xFF, 0x00)
	f.setMapEntry(0, 0, 1, 1) // second tile row
	f.p.WriteRegister(addr.SCY, 8)

	f.renderLines(0)

	assert.Equal(t, ShadeLightGrey, f.p.Framebuffer().GetPixel(0, 0))
}

func TestPPUSignedTileAddressing(t *testing.T) {
	f := newPPUFixture()
	f.p.WriteRegister(addr.LCDC, 0x81) // 0x8800 signed addressing

	// Tile -128 lives at 0x8800, the start of the signed window.
	f.vram[0x0800] = 0xFF
	f.setMapEntry(0, 0, 0, 0x80)

	f.renderLines(0)

	assert.Equal(t, ShadeLightGrey, f.p.Framebuffer().GetPixel(0, 0))
}

func TestPPUBackgroundDisabled(t *testing.T) {
	f := newPPUFixture()
	f.setTileRow(1, 0, 0xFF, 0x3C)
	f.setMapEntry(0, 0, 0, 1)
	f.p.WriteRegister(addr.LCDC, 0x90) // BG off

	f.renderLines(0)

	assert.Equal(t, ShadeWhite, f.p.Framebuffer().GetPixel(0, 0))
}

func TestPPUWindow(t *testing.T) {
	f := newPPUFixture()
	f.setTileRow(1, 0, 0xFF, 0x00)
	f.setMapEntry(1, 0, 0, 1) // window uses map 1 here

	// Window on, window map 1, WX=7 puts the window at the left edge.
	f.p.WriteRegister(addr.LCDC, 0x91|1<<windowEnableBit|1<<windowMapBit)
	f.p.WriteRegister(addr.WX, 7)
	f.p.WriteRegister(addr.WY, 1)

	f.renderLines(2)

	fb := f.p.Framebuffer()
	assert.Equal(t, ShadeWhite, fb.GetPixel(0, 0), "line above WY shows background")
	assert.Equal(t, ShadeLightGrey, fb.GetPixel(0, 1), "window starts at its own row 0")
	assert.Equal(t, ShadeWhite, fb.GetPixel(0, 2), "window row 1 is blank tile data")
}

func TestPPUSpriteRendering(t *testing.T) {
	f := newPPUFixture()
	f.setTileRow(2, 0, 0xFF, 0xFF) // solid color index 3
	f.setSprite(0, 16, 8, 2, 0x00)
	f.p.WriteRegister(addr.LCDC, 0x93)
	f.p.WriteRegister(addr.OBP0, 0xE4) // sprites on

	f.renderLines(0)

	fb := f.p.Framebuffer()
	assert.Equal(t, ShadeBlack, fb.GetPixel(0, 0))
	assert.Equal(t, ShadeBlack, fb.GetPixel(7, 0))
	assert.Equal(t, ShadeWhite, fb.GetPixel(8, 0))
}

func TestPPUSpriteTransparency(t *testing.T) {
	f := newPPUFixture()
	f.setTileRow(2, 0, 0x0F, 0x00) // left half transparent, right half index 1
	f.setSprite(0, 16, 8, 2, 0x00)
	f.p.WriteRegister(addr.LCDC, 0x93)
	f.p.WriteRegister(addr.OBP0, 0xE4)

	f.renderLines(0)

	fb := f.p.Framebuffer()
	assert.Equal(t, ShadeWhite, fb.GetPixel(0, 0), "index 0 shows the background")
	assert.Equal(t, ShadeLightGrey, fb.GetPixel(4, 0))
}

func TestPPUSpritePriorityByX(t *testing.T) {
	f := newPPUFixture()
	f.setTileRow(2, 0, 0xFF, 0x00) // index 1, light grey
	f.setTileRow(3, 0, 0xFF, 0xFF) // index 3, black
	f.setSprite(0, 16, 12, 2, 0x00)
	f.setSprite(1, 16, 8, 3, 0x00)
	f.p.WriteRegister(addr.LCDC, 0x93)
	f.p.WriteRegister(addr.OBP0, 0xE4)

	f.renderLines(0)

	fb := f.p.Framebuffer()
	assert.Equal(t, ShadeBlack, fb.GetPixel(0, 0), "lower X wins the overlap")
	assert.Equal(t, ShadeBlack, fb.GetPixel(7, 0))
	assert.Equal(t, ShadeLightGrey, fb.GetPixel(8, 0), "loser shows where the winner ends")
	assert.Equal(t, ShadeLightGrey, fb.GetPixel(11, 0))
	assert.Equal(t, ShadeWhite, fb.GetPixel(12, 0))
}

func TestPPUSpritePriorityTie(t *testing.T) {
	f := newPPUFixture()
	f.setTileRow(2, 0, 0xFF, 0x00)
	f.setTileRow(3, 0, 0xFF, 0xFF)
	f.setSprite(0, 16, 8, 2, 0x00)
	f.setSprite(1, 16, 8, 3, 0x00)
	f.p.WriteRegister(addr.LCDC, 0x93)
	f.p.WriteRegister(addr.OBP0, 0xE4)

	f.renderLines(0)

	assert.Equal(t, ShadeLightGrey, f.p.Framebuffer().GetPixel(0, 0), "same X, lower OAM index wins")
}

func TestPPUSpriteBehindBackground(t *testing.T) {
	f := newPPUFixture()
	f.setTileRow(1, 0, 0xFF, 0x00) // bg index 1 in the first tile
	f.setMapEntry(0, 0, 0, 1)
	f.setTileRow(3, 0, 0xFF, 0xFF)
	f.setSprite(0, 16, 12, 3, 0x80) // behind background
	f.p.WriteRegister(addr.LCDC, 0x93)
	f.p.WriteRegister(addr.OBP0, 0xE4)

	f.renderLines(0)

	fb := f.p.Framebuffer()
	assert.Equal(t, ShadeLightGrey, fb.GetPixel(4, 0), "nonzero background covers the sprite")
	assert.Equal(t, ShadeBlack, fb.GetPixel(8, 0), "index 0 background does not")
}

func TestPPUSpriteLimit(t *testing.T) {
	f := newPPUFixture()
	f.setTileRow(2, 0, 0xFF, 0x00)
	f.setTileRow(3, 0, 0xFF, 0xFF)
	for i := 0; i < 10; i++ {
		f.setSprite(i, 16, 100, 2, 0x00)
	}
	f.setSprite(10, 16, 8, 3, 0x00)
	f.p.WriteRegister(addr.LCDC, 0x93)
	f.p.WriteRegister(addr.OBP0, 0xE4)

	f.renderLines(0)

	fb := f.p.Framebuffer()
	assert.Equal(t, ShadeWhite, fb.GetPixel(0, 0), "the eleventh sprite is dropped")
	assert.Equal(t, ShadeLightGrey, fb.GetPixel(92, 0))
}

func TestPPUSpriteXZeroNotSelected(t *testing.T) {
	f := newPPUFixture()
	f.setTileRow(2, 0, 0xFF, 0x00)
	f.setTileRow(3, 0, 0xFF, 0xFF)
	for i := 0; i < 10; i++ {
		f.setSprite(i, 16, 0, 2, 0x00)
	}
	f.setSprite(10, 16, 8, 3, 0x00)
	f.p.WriteRegister(addr.LCDC, 0x93)
	f.p.WriteRegister(addr.OBP0, 0xE4)

	f.renderLines(0)

	// X=0 entries never join the selection, so they don't consume the
	// ten sprite budget either.
	assert.Equal(t, ShadeBlack, f.p.Framebuffer().GetPixel(0, 0))
}

func TestPPUSpriteFlips(t *testing.T) {
	f := newPPUFixture()
	f.setTileRow(2, 0, 0xF0, 0x00) // left half index 1
	f.setTileRow(2, 7, 0xFF, 0xFF) // bottom row index 3
	f.p.WriteRegister(addr.LCDC, 0x93)
	f.p.WriteRegister(addr.OBP0, 0xE4)

	f.setSprite(0, 16, 8, 2, 0x20) // flip X
	f.renderLines(0)
	fb := f.p.Framebuffer()
	assert.Equal(t, ShadeWhite, fb.GetPixel(0, 0))
	assert.Equal(t, ShadeLightGrey, fb.GetPixel(7, 0), "mirrored row puts color on the right")

	f = newPPUFixture()
	f.setTileRow(2, 0, 0xF0, 0x00)
	f.setTileRow(2, 7, 0xFF, 0xFF)
	f.p.WriteRegister(addr.LCDC, 0x93)
	f.p.WriteRegister(addr.OBP0, 0xE4)

	f.setSprite(0, 16, 8, 2, 0x40) // flip Y
	f.renderLines(0)
	assert.Equal(t, ShadeBlack, f.p.Framebuffer().GetPixel(0, 0), "line 0 shows the bottom row")
}

func TestPPUTallSprites(t *testing.T) {
	f := newPPUFixture()
	f.setTileRow(2, 0, 0xFF, 0x00) // top tile, index 1
	f.setTileRow(3, 0, 0xFF, 0xFF) // bottom tile, index 3
	f.setSprite(0, 16, 8, 0x03, 0x00)
	f.p.WriteRegister(addr.LCDC, 0x97) // 8x16 sprites
	f.p.WriteRegister(addr.OBP0, 0xE4)

	f.renderLines(8)

	fb := f.p.Framebuffer()
	assert.Equal(t, ShadeLightGrey, fb.GetPixel(0, 0), "bit 0 of the index is forced off for the top half")
	assert.Equal(t, ShadeBlack, fb.GetPixel(0, 8), "and on for the bottom half")
}

func TestPPUSpritePalettes(t *testing.T) {
	f := newPPUFixture()
	f.setTileRow(2, 0, 0xFF, 0x00)
	f.setSprite(0, 16, 8, 2, 0x10) // OBP1
	f.p.WriteRegister(addr.LCDC, 0x93)
	f.p.WriteRegister(addr.OBP1, 0x1B) // index 1 -> shade 2

	f.renderLines(0)

	assert.Equal(t, ShadeDarkGrey, f.p.Framebuffer().GetPixel(0, 0))
}

func TestPPUStateRoundTrip(t *testing.T) {
	f := newPPUFixture()
	f.setTileRow(1, 0, 0xFF, 0x00)
	f.setMapEntry(0, 0, 0, 1)

	f.p.Tick(scanlineDots*5 + 123)
	state := f.p.State()

	g := newPPUFixture()
	copy(g.vram, f.vram)
	g.p.Restore(state)

	assert.Equal(t, f.p.LY(), g.p.LY())
	assert.Equal(t, f.p.Mode(), g.p.Mode())
	assert.Equal(t, f.p.ReadRegister(addr.STAT), g.p.ReadRegister(addr.STAT))
	assert.Equal(t, f.p.Framebuffer().Pixels(), g.p.Framebuffer().Pixels())

	// Both continue in lockstep.
	f.p.Tick(scanlineDots)
	g.p.Tick(scanlineDots)
	assert.Equal(t, f.p.LY(), g.p.LY())
	assert.Equal(t, f.p.Framebuffer().Pixels(), g.p.Framebuffer().Pixels())
}
