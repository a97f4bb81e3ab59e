package video

import "github.com/valerio/go-dotmatrix/dotmatrix/bit"

// Sprite is a single OAM entry. The 40 entries live at 0xFE00-0xFE9F,
// four bytes each. Position bytes are kept raw: the hardware offsets
// them by 16 (Y) and 8 (X) so partially off-screen sprites can be
// represented.
type Sprite struct {
	Y          byte // raw Y position, screen row is Y-16
	X          byte // raw X position, screen column is X-8
	TileIndex  byte
	Attributes byte
	OAMIndex   int // 0-39, breaks priority ties
}

func (s *Sprite) ScreenX() int { return int(s.X) - 8 }
func (s *Sprite) ScreenY() int { return int(s.Y) - 16 }

// UsesOBP1 selects the sprite palette: false is OBP0, true is OBP1.
func (s *Sprite) UsesOBP1() bool { return bit.IsSet(4, s.Attributes) }

func (s *Sprite) FlipX() bool { return bit.IsSet(5, s.Attributes) }
func (s *Sprite) FlipY() bool { return bit.IsSet(6, s.Attributes) }

// BehindBG reports the BG-over-OBJ priority flag: when set, background
// pixels with a nonzero color index cover this sprite.
func (s *Sprite) BehindBG() bool { return bit.IsSet(7, s.Attributes) }

// spriteAt decodes the OAM entry at the given index (0-39).
func spriteAt(oam []byte, index int) Sprite {
	base := index * 4
	return Sprite{
		Y:          oam[base],
		X:          oam[base+1],
		TileIndex:  oam[base+2],
		Attributes: oam[base+3],
		OAMIndex:   index,
	}
}
