// Package bit provides small helpers for the byte and word manipulation
// the emulation core does constantly.
package bit

// Combine joins two bytes into a word, high byte first.
func Combine(high, low uint8) uint16 {
	return (uint16(high) << 8) | uint16(low)
}

// Low returns the least significant byte of a word.
func Low(value uint16) uint8 {
	return uint8(value)
}

// High returns the most significant byte of a word.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// IsSet reports whether the bit at index is 1.
func IsSet(index, value uint8) bool {
	return (value>>index)&1 == 1
}

// IsSet16 reports whether the bit at index of a word is 1.
func IsSet16(index uint8, value uint16) bool {
	return (value>>index)&1 == 1
}

// Set returns value with the bit at index set to 1.
func Set(index, value uint8) uint8 {
	return value | (1 << index)
}

// Clear returns value with the bit at index set to 0.
func Clear(index, value uint8) uint8 {
	return value &^ (1 << index)
}

// GetBitValue returns 1 or 0 for the bit at index.
func GetBitValue(index, value uint8) uint8 {
	if IsSet(index, value) {
		return 1
	}
	return 0
}

// ExtractBits returns the bits from highBit down to lowBit, inclusive,
// shifted to the low end. ExtractBits(0b1101_0110, 6, 4) == 0b101.
func ExtractBits(value uint8, highBit, lowBit uint8) uint8 {
	width := highBit - lowBit + 1
	mask := uint8(1)<<width - 1
	return (value >> lowBit) & mask
}
