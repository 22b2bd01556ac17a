// Package bitarray decodes fixed-width unsigned integers packed into 64-bit words,
// as used by chunk block states and heightmaps.
//
// Entries are stored low bits first and never span a word boundary; the unused
// high bits of each word are padding.
package bitarray

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPayload is returned when the words cannot hold the requested entries.
	ErrMalformedPayload = errors.New("malformed packed payload")
	// ErrIndexOutOfRange is returned by Get for an index outside [0, Len()).
	ErrIndexOutOfRange = errors.New("packed index out of range")
)

// Array is an immutable view over packed words. Safe for concurrent reads.
type Array struct {
	bits    int
	length  int
	perWord int
	mask    uint64
	words   []uint64
}

// WordsNeeded returns how many words hold length entries of the given width.
func WordsNeeded(bits, length int) int {
	perWord := 64 / bits
	return (length + perWord - 1) / perWord
}

// New wraps words as length entries of the given bit width (1..32).
func New(bits, length int, words []uint64) (*Array, error) {
	if bits < 1 || bits > 32 {
		return nil, fmt.Errorf("%w: bits per entry %d not in 1..32", ErrMalformedPayload, bits)
	}
	if length < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrMalformedPayload, length)
	}
	if need := WordsNeeded(bits, length); len(words) < need {
		return nil, fmt.Errorf("%w: %d entries of %d bits need %d words, got %d",
			ErrMalformedPayload, length, bits, need, len(words))
	}
	return &Array{
		bits:    bits,
		length:  length,
		perWord: 64 / bits,
		mask:    1<<uint(bits) - 1,
		words:   words,
	}, nil
}

// Len returns the logical number of entries.
func (a *Array) Len() int { return a.length }

// Bits returns the width of one entry.
func (a *Array) Bits() int { return a.bits }

// Get returns entry i.
func (a *Array) Get(i int) (uint32, error) {
	if i < 0 || i >= a.length {
		return 0, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, i, a.length)
	}
	word := a.words[i/a.perWord]
	shift := uint((i % a.perWord) * a.bits)
	return uint32((word >> shift) & a.mask), nil
}

// Encode packs values into words using the same layout Get reads.
// Values wider than bits are truncated.
func Encode(values []uint32, bits int) []uint64 {
	perWord := 64 / bits
	mask := uint64(1)<<uint(bits) - 1
	words := make([]uint64, WordsNeeded(bits, len(values)))
	for i, v := range values {
		shift := uint((i % perWord) * bits)
		words[i/perWord] |= (uint64(v) & mask) << shift
	}
	return words
}
