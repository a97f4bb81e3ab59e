package video

// spritePriorityBuffer tracks per-pixel sprite ownership for one
// scanline. DMG priority rules:
//
//   - the sprite with the lower X coordinate owns overlapping pixels
//   - when X coordinates match, the lower OAM index wins
//
// Example with two overlapping sprites:
//
//	Pixels:     0  1  2  3  4  5  6  7  8  9 10 11 12 13 14 15 16 17
//	Sprite 0:                  [-----A-----]                    (X=5)
//	Sprite 1:                           [-----B-----]           (X=10)
//	Result:                    [-----A-----]--B-----]
//
// A pixel stays owned even when its owner ends up deferring to the
// background: a sprite behind a nonzero background pixel still blocks
// lower-priority sprites from showing through.
type spritePriorityBuffer struct {
	// ownerIndex holds the OAM index of the sprite owning each pixel,
	// or -1 while unowned.
	ownerIndex [FramebufferWidth]int

	// ownerX holds the raw X of each pixel's owner for comparisons.
	ownerX [FramebufferWidth]int
}

// Clear resets the buffer for a new scanline.
func (s *spritePriorityBuffer) Clear() {
	for i := range s.ownerIndex {
		s.ownerIndex[i] = -1
		s.ownerX[i] = 0xFF
	}
}

// Claim attempts to take ownership of a pixel for a sprite and reports
// whether the sprite now owns it.
func (s *spritePriorityBuffer) Claim(pixelX, spriteX, oamIndex int) bool {
	if pixelX < 0 || pixelX >= FramebufferWidth {
		return false
	}

	owner := s.ownerIndex[pixelX]

	if owner == -1 {
		s.ownerIndex[pixelX] = oamIndex
		s.ownerX[pixelX] = spriteX
		return true
	}

	if spriteX < s.ownerX[pixelX] {
		s.ownerIndex[pixelX] = oamIndex
		s.ownerX[pixelX] = spriteX
		return true
	}

	if spriteX == s.ownerX[pixelX] && oamIndex < owner {
		s.ownerIndex[pixelX] = oamIndex
		s.ownerX[pixelX] = spriteX
		return true
	}

	return false
}

// Owner returns the OAM index owning a pixel, or -1 if none.
func (s *spritePriorityBuffer) Owner(pixelX int) int {
	if pixelX < 0 || pixelX >= FramebufferWidth {
		return -1
	}
	return s.ownerIndex[pixelX]
}
