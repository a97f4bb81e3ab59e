package video

import (
	"sort"

	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
	"github.com/valerio/go-dotmatrix/dotmatrix/bit"
)

// Mode is the LCD controller mode, visible in the low two bits of STAT.
type Mode byte

const (
	ModeHBlank Mode = iota
	ModeVBlank
	ModeOAMScan
	ModePixelTransfer
)

func (m Mode) String() string {
	switch m {
	case ModeHBlank:
		return "HBlank"
	case ModeVBlank:
		return "VBlank"
	case ModeOAMScan:
		return "OAMScan"
	case ModePixelTransfer:
		return "PixelTransfer"
	}
	return "Unknown"
}

// Dot thresholds within one scanline. The dot counter runs from 0 to
// 455 on every line: OAM scan covers dots 0-79, pixel transfer 80-251
// and the rest is horizontal blank. Lines 144-153 are vertical blank.
const (
	oamScanDots       = 80
	pixelTransferDots = 252
	scanlineDots      = 456
)

const (
	visibleLines      = FramebufferHeight
	totalLines        = 154
	maxSpritesPerLine = 10
)

// LCDC bit indices.
const (
	bgEnableBit     uint8 = 0
	spriteEnableBit uint8 = 1
	spriteSizeBit   uint8 = 2
	bgMapBit        uint8 = 3
	tileDataBit     uint8 = 4
	windowEnableBit uint8 = 5
	windowMapBit    uint8 = 6
	lcdEnableBit    uint8 = 7
)

// PPU implements the DMG picture processor: an LCD controller stepped
// once per machine cycle, plus a scanline renderer that fills the
// framebuffer during pixel transfer.
//
// VRAM and OAM are slices into storage owned by the bus, so sprite DMA
// and CPU writes are visible here without copying. The PPU owns the LCD
// register file (0xFF40-0xFF4B except the DMA trigger at 0xFF46).
type PPU struct {
	vram []byte
	oam  []byte

	fb *FrameBuffer

	lcdc byte
	stat byte
	scy  byte
	scx  byte
	ly   byte
	lyc  byte
	bgp  byte
	obp0 byte
	obp1 byte
	wy   byte
	wx   byte

	mode Mode
	dots int

	// sprites selected for the current scanline, in priority order
	// once the OAM scan completes.
	sprites     []Sprite
	spriteStore [maxSpritesPerLine]Sprite
	priority    spritePriorityBuffer

	// windowLine counts scanlines that actually used the window; the
	// window fetcher resumes from it rather than from LY.
	windowLine int

	// statLine is the previous state of the combined STAT interrupt
	// condition. An interrupt fires only on a rising edge.
	statLine bool

	requestInterrupt func(addr.Interrupt)
	onFrame          func(*FrameBuffer) *FrameBuffer
}

// New creates a PPU in the post-boot state. vram and oam are handles
// into bus-owned storage. onFrame is invoked with the finished
// framebuffer whenever a frame completes and may return a replacement
// buffer for the PPU to render the next frame into, which lets the
// consumer double-buffer with a pointer swap instead of a copy.
// Returning nil keeps the current buffer; onFrame may be nil.
func New(vram, oam []byte, requestInterrupt func(addr.Interrupt), onFrame func(*FrameBuffer) *FrameBuffer) *PPU {
	p := &PPU{
		vram:             vram,
		oam:              oam,
		fb:               NewFrameBuffer(),
		lcdc:             0x91,
		stat:             0x85,
		bgp:              0xE4,
		obp0:             0xFF,
		obp1:             0xFF,
		mode:             ModeOAMScan,
		requestInterrupt: requestInterrupt,
		onFrame:          onFrame,
	}
	p.sprites = p.spriteStore[:0]
	return p
}

// Framebuffer returns the buffer the PPU is rendering into. A publish
// may swap it for the one onFrame returns, so consumers that want
// completed frames should take them from the onFrame callback.
func (p *PPU) Framebuffer() *FrameBuffer {
	return p.fb
}

// LY returns the current scanline.
func (p *PPU) LY() byte {
	return p.ly
}

// Mode returns the current controller mode.
func (p *PPU) Mode() Mode {
	return p.mode
}

// ReadRegister reads one of the LCD registers (0xFF40-0xFF4B).
func (p *PPU) ReadRegister(address uint16) byte {
	switch address {
	case addr.LCDC:
		return p.lcdc
	case addr.STAT:
		return p.stat | byte(p.mode)
	case addr.SCY:
		return p.scy
	case addr.SCX:
		return p.scx
	case addr.LY:
		return p.ly
	case addr.LYC:
		return p.lyc
	case addr.BGP:
		return p.bgp
	case addr.OBP0:
		return p.obp0
	case addr.OBP1:
		return p.obp1
	case addr.WY:
		return p.wy
	case addr.WX:
		return p.wx
	}
	return 0xFF
}

// WriteRegister writes one of the LCD registers (0xFF40-0xFF4B).
func (p *PPU) WriteRegister(address uint16, value byte) {
	switch address {
	case addr.LCDC:
		wasOn := bit.IsSet(lcdEnableBit, p.lcdc)
		p.lcdc = value
		isOn := bit.IsSet(lcdEnableBit, value)
		switch {
		case wasOn && !isOn:
			// Disabling the LCD resets the scan position and blanks
			// the panel immediately.
			p.ly = 0
			p.dots = 0
			p.mode = ModeHBlank
			p.stat &= 0xFC
			p.fb.Clear()
			p.publishFrame()
		case !wasOn && isOn:
			p.mode = ModeOAMScan
			p.dots = 0
		}
	case addr.STAT:
		// Bits 0-2 are read-only, bit 7 always reads set.
		p.stat = (p.stat & 0x07) | (value & 0x78) | 0x80
		p.updateSTAT()
	case addr.SCY:
		p.scy = value
	case addr.SCX:
		p.scx = value
	case addr.LY:
		// read-only
	case addr.LYC:
		p.lyc = value
		p.updateSTAT()
	case addr.BGP:
		p.bgp = value
	case addr.OBP0:
		p.obp0 = value
	case addr.OBP1:
		p.obp1 = value
	case addr.WY:
		p.wy = value
	case addr.WX:
		p.wx = value
	}
}

// Tick advances the PPU by the given number of T-cycles. While the LCD
// is disabled the PPU is frozen and consumes no dots.
func (p *PPU) Tick(cycles int) {
	if !bit.IsSet(lcdEnableBit, p.lcdc) {
		return
	}
	for i := 0; i < cycles; i++ {
		p.step()
	}
}

func (p *PPU) step() {
	p.dots++

	switch p.mode {
	case ModeOAMScan:
		// One OAM entry is examined every 2 dots: entry 0 at dots 1-2,
		// entry 1 at dots 3-4, and so on through all 40 entries.
		if p.dots%2 == 0 {
			index := p.dots/2 - 1
			if index < 40 {
				p.scanSprite(index)
			}
		}
		if p.dots >= oamScanDots {
			p.sortSprites()
			p.setMode(ModePixelTransfer)
		}
	case ModePixelTransfer:
		if p.dots >= pixelTransferDots {
			p.renderScanline()
			p.setMode(ModeHBlank)
		}
	case ModeHBlank:
		if p.dots >= scanlineDots {
			p.dots = 0
			p.ly++
			if p.ly >= visibleLines {
				p.setMode(ModeVBlank)
				p.requestInterrupt(addr.VBlankInterrupt)
				p.publishFrame()
			} else {
				p.setMode(ModeOAMScan)
			}
		}
	case ModeVBlank:
		if p.dots >= scanlineDots {
			p.dots = 0
			p.ly++
			if p.ly >= totalLines {
				p.ly = 0
				p.windowLine = 0
				p.setMode(ModeOAMScan)
			} else {
				p.updateSTAT()
			}
		}
	}
}

func (p *PPU) publishFrame() {
	if p.onFrame == nil {
		return
	}
	if next := p.onFrame(p.fb); next != nil {
		p.fb = next
	}
}

// setMode switches the controller mode, mirrors it into STAT and
// re-evaluates the STAT interrupt condition.
func (p *PPU) setMode(mode Mode) {
	p.mode = mode
	p.stat = (p.stat & 0xFC) | byte(mode)

	if mode == ModeOAMScan {
		p.sprites = p.spriteStore[:0]
	}

	p.updateSTAT()
}

// updateSTAT refreshes the LY=LYC coincidence bit and fires the STAT
// interrupt on a rising edge of the combined condition.
func (p *PPU) updateSTAT() {
	if p.ly == p.lyc {
		p.stat |= 0x04
	} else {
		p.stat &^= 0x04
	}

	line := p.stat&0x40 != 0 && p.stat&0x04 != 0
	switch p.mode {
	case ModeHBlank:
		line = line || p.stat&0x08 != 0
	case ModeVBlank:
		line = line || p.stat&0x10 != 0
	case ModeOAMScan:
		line = line || p.stat&0x20 != 0
	}

	if line && !p.statLine {
		p.requestInterrupt(addr.LCDSTATInterrupt)
	}
	p.statLine = line
}

func (p *PPU) spriteHeight() int {
	if bit.IsSet(spriteSizeBit, p.lcdc) {
		return 16
	}
	return 8
}

// scanSprite checks whether the OAM entry at index intersects the
// current scanline and, if so, adds it to the selection. Entries with a
// raw X of 0 are fully off screen and never selected; the 10 sprite
// hardware limit still counts only selected entries.
func (p *PPU) scanSprite(index int) {
	if len(p.sprites) >= maxSpritesPerLine {
		return
	}

	s := spriteAt(p.oam, index)
	if s.X == 0 {
		return
	}

	top := s.ScreenY()
	if int(p.ly) < top || int(p.ly) >= top+p.spriteHeight() {
		return
	}

	p.sprites = append(p.sprites, s)
}

// sortSprites orders the scanline selection by priority: lower raw X
// first, ties broken by lower OAM index.
func (p *PPU) sortSprites() {
	sort.Slice(p.sprites, func(i, j int) bool {
		if p.sprites[i].X != p.sprites[j].X {
			return p.sprites[i].X < p.sprites[j].X
		}
		return p.sprites[i].OAMIndex < p.sprites[j].OAMIndex
	})
}

// renderScanline draws the background, window and sprite pixels for
// the current line into the framebuffer.
func (p *PPU) renderScanline() {
	if p.ly >= visibleLines {
		return
	}

	y := int(p.ly)
	windowUsed := false

	// Nonzero background color indices cover sprites flagged as
	// behind the background, so keep them around for the sprite pass.
	var bgIndex [FramebufferWidth]byte

	for x := 0; x < FramebufferWidth; x++ {
		shade, index, usedWindow := p.backgroundPixel(x, y)
		bgIndex[x] = index
		p.fb.SetPixel(x, y, shade)
		if usedWindow {
			windowUsed = true
		}
	}

	// The window line counter advances only on lines where the window
	// actually produced pixels.
	if windowUsed {
		p.windowLine++
	}

	if bit.IsSet(spriteEnableBit, p.lcdc) {
		p.renderSprites(y, &bgIndex)
	}
}

// backgroundPixel resolves one background or window pixel, returning
// the post-palette shade, the raw color index and whether the window
// supplied the pixel. A disabled background yields index 0 as white.
func (p *PPU) backgroundPixel(x, y int) (shade, index byte, usedWindow bool) {
	if !bit.IsSet(bgEnableBit, p.lcdc) {
		return ShadeWhite, 0, false
	}

	inWindow := bit.IsSet(windowEnableBit, p.lcdc) &&
		y >= int(p.wy) &&
		x+7 >= int(p.wx)

	var tx, ty int
	var mapBit uint8
	if inWindow {
		tx = x + 7 - int(p.wx)
		ty = p.windowLine
		mapBit = windowMapBit
	} else {
		tx = (x + int(p.scx)) % 256
		ty = (y + int(p.scy)) % 256
		mapBit = bgMapBit
	}

	tileIndex := p.tileMapEntry(mapBit, tx/8, ty/8)
	row := p.tileRow(tileIndex, ty%8)
	idx := row.Pixel(tx % 8)

	return palColor(p.bgp, idx), idx, inWindow
}

// tileMapEntry reads a tile index from one of the two 32x32 tile maps.
// mapBit is the LCDC bit selecting the map for this plane.
func (p *PPU) tileMapEntry(mapBit uint8, tileX, tileY int) byte {
	base := addr.TileMap0
	if bit.IsSet(mapBit, p.lcdc) {
		base = addr.TileMap1
	}
	offset := int(base-addr.VRAMStart) + tileY*32 + tileX
	return p.vram[offset]
}

// tileRow fetches one row of a background or window tile, honoring the
// LCDC addressing mode: unsigned indices from 0x8000 or signed indices
// around 0x9000.
func (p *PPU) tileRow(tileIndex byte, line int) TileRow {
	var offset int
	if bit.IsSet(tileDataBit, p.lcdc) {
		offset = int(tileIndex) * 16
	} else {
		offset = int(addr.TileData2-addr.VRAMStart) + int(int8(tileIndex))*16
	}
	offset += line * 2
	return TileRow{Low: p.vram[offset], High: p.vram[offset+1]}
}

// spriteRow fetches the tile row a sprite shows on the current line,
// applying vertical flip and 8x16 tile pairing. Sprites always use
// unsigned tile addressing.
func (p *PPU) spriteRow(s *Sprite) TileRow {
	height := p.spriteHeight()

	rel := int(p.ly) - s.ScreenY()
	if s.FlipY() {
		rel = height - 1 - rel
	}

	tileIndex := s.TileIndex
	if height == 16 {
		if rel >= 8 {
			tileIndex |= 0x01
		} else {
			tileIndex &= 0xFE
		}
	}

	offset := int(tileIndex)*16 + (rel%8)*2
	return TileRow{Low: p.vram[offset], High: p.vram[offset+1]}
}

// renderSprites composites the scanline's sprite selection over the
// background. Sprites are walked in priority order; the first sprite
// to claim a pixel keeps it, even when it then defers to a nonzero
// background pixel.
func (p *PPU) renderSprites(y int, bgIndex *[FramebufferWidth]byte) {
	p.priority.Clear()

	for i := range p.sprites {
		s := &p.sprites[i]
		row := p.spriteRow(s)
		screenX := s.ScreenX()

		palette := p.obp0
		if s.UsesOBP1() {
			palette = p.obp1
		}

		for px := 0; px < 8; px++ {
			x := screenX + px
			if x < 0 || x >= FramebufferWidth {
				continue
			}

			var idx byte
			if s.FlipX() {
				idx = row.PixelFlipped(px)
			} else {
				idx = row.Pixel(px)
			}
			if idx == 0 {
				continue
			}

			if !p.priority.Claim(x, int(s.X), s.OAMIndex) {
				continue
			}
			if s.BehindBG() && bgIndex[x] != 0 {
				continue
			}

			p.fb.SetPixel(x, y, palColor(palette, idx))
		}
	}
}

// PPUState is a serializable snapshot of the PPU.
type PPUState struct {
	LCDC byte
	STAT byte
	SCY  byte
	SCX  byte
	LY   byte
	LYC  byte
	BGP  byte
	OBP0 byte
	OBP1 byte
	WY   byte
	WX   byte

	Mode       Mode
	Dots       int
	WindowLine int
	StatLine   bool
	Sprites    []Sprite
	Frame      []byte
}

// State captures the PPU for serialization.
func (p *PPU) State() PPUState {
	sprites := make([]Sprite, len(p.sprites))
	copy(sprites, p.sprites)
	frame := make([]byte, len(p.fb.pixels))
	copy(frame, p.fb.pixels)
	return PPUState{
		LCDC:       p.lcdc,
		STAT:       p.stat,
		SCY:        p.scy,
		SCX:        p.scx,
		LY:         p.ly,
		LYC:        p.lyc,
		BGP:        p.bgp,
		OBP0:       p.obp0,
		OBP1:       p.obp1,
		WY:         p.wy,
		WX:         p.wx,
		Mode:       p.mode,
		Dots:       p.dots,
		WindowLine: p.windowLine,
		StatLine:   p.statLine,
		Sprites:    sprites,
		Frame:      frame,
	}
}

// Restore loads a snapshot produced by State.
func (p *PPU) Restore(state PPUState) {
	p.lcdc = state.LCDC
	p.stat = state.STAT
	p.scy = state.SCY
	p.scx = state.SCX
	p.ly = state.LY
	p.lyc = state.LYC
	p.bgp = state.BGP
	p.obp0 = state.OBP0
	p.obp1 = state.OBP1
	p.wy = state.WY
	p.wx = state.WX
	p.mode = state.Mode
	p.dots = state.Dots
	p.windowLine = state.WindowLine
	p.statLine = state.StatLine

	p.sprites = p.spriteStore[:0]
	for _, s := range state.Sprites {
		if len(p.sprites) < maxSpritesPerLine {
			p.sprites = append(p.sprites, s)
		}
	}

	if len(state.Frame) == len(p.fb.pixels) {
		copy(p.fb.pixels, state.Frame)
	}
}
