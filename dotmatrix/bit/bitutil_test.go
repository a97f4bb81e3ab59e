package bit

import (
	"testing"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		high, low uint8
		expected  uint16
	}{
		{0xAB, 0xCD, 0xABCD},
		{0x00, 0x00, 0x0000},
		{0xFF, 0xFF, 0xFFFF},
		{0x12, 0x34, 0x1234},
	}

	for _, tt := range tests {
		result := Combine(tt.high, tt.low)
		if result != tt.expected {
			t.Errorf("Combine(%X, %X) = %X; want %X", tt.high, tt.low, result, tt.expected)
		}
	}
}

func TestLowHigh(t *testing.T) {
	tests := []struct {
		value     uint16
		low, high uint8
	}{
		{0xABCD, 0xCD, 0xAB},
		{0x0000, 0x00, 0x00},
		{0xFFFF, 0xFF, 0xFF},
		{0x1234, 0x34, 0x12},
	}

	for _, tt := range tests {
		if got := Low(tt.value); got != tt.low {
			t.Errorf("Low(%X) = %X; want %X", tt.value, got, tt.low)
		}
		if got := High(tt.value); got != tt.high {
			t.Errorf("High(%X) = %X; want %X", tt.value, got, tt.high)
		}
	}
}

func TestIsSet(t *testing.T) {
	tests := []struct {
		value    uint8
		index    uint8
		expected bool
	}{
		{0b10101010, 0, false},
		{0b10101010, 1, true},
		{0b10101010, 2, false},
		{0b10101010, 7, true},
		{0b10101010, 8, false},
	}

	for _, tt := range tests {
		result := IsSet(tt.index, tt.value)
		if result != tt.expected {
			t.Errorf("IsSet(%d, %08b) = %v; want %v", tt.index, tt.value, result, tt.expected)
		}
	}
}

func TestIsSet16(t *testing.T) {
	tests := []struct {
		value    uint16
		index    uint8
		expected bool
	}{
		{0x0200, 9, true},
		{0x0200, 8, false},
		{0x8000, 15, true},
		{0x0001, 0, true},
	}

	for _, tt := range tests {
		result := IsSet16(tt.index, tt.value)
		if result != tt.expected {
			t.Errorf("IsSet16(%d, %016b) = %v; want %v", tt.index, tt.value, result, tt.expected)
		}
	}
}

func TestSetClear(t *testing.T) {
	tests := []struct {
		value        uint8
		index        uint8
		set, cleared uint8
	}{
		{0b10101010, 0, 0b10101011, 0b10101010},
		{0b10101010, 1, 0b10101010, 0b10101000},
		{0b10101010, 7, 0b10101010, 0b00101010},
	}

	for _, tt := range tests {
		if got := Set(tt.index, tt.value); got != tt.set {
			t.Errorf("Set(%d, %08b) = %08b; want %08b", tt.index, tt.value, got, tt.set)
		}
		if got := Clear(tt.index, tt.value); got != tt.cleared {
			t.Errorf("Clear(%d, %08b) = %08b; want %08b", tt.index, tt.value, got, tt.cleared)
		}
	}
}

func TestGetBitValue(t *testing.T) {
	tests := []struct {
		value    uint8
		index    uint8
		expected uint8
	}{
		{0b10101010, 0, 0},
		{0b10101010, 1, 1},
		{0b10101010, 7, 1},
	}

	for _, tt := range tests {
		result := GetBitValue(tt.index, tt.value)
		if result != tt.expected {
			t.Errorf("GetBitValue(%d, %08b) = %d; want %d", tt.index, tt.value, result, tt.expected)
		}
	}
}

func TestExtractBits(t *testing.T) {
	tests := []struct {
		value           uint8
		highBit, lowBit uint8
		expected        uint8
	}{
		{0b11010110, 6, 4, 0b101},
		{0b11010110, 7, 0, 0b11010110},
		{0b11010110, 1, 0, 0b10},
		{0b11000000, 7, 6, 0b11},
	}

	for _, tt := range tests {
		result := ExtractBits(tt.value, tt.highBit, tt.lowBit)
		if result != tt.expected {
			t.Errorf("ExtractBits(%08b, %d, %d) = %b; want %b", tt.value, tt.highBit, tt.lowBit, result, tt.expected)
		}
	}
}
