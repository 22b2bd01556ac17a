// Package section resolves blocks inside one 16×16×16 chunk section stored as a
// palette plus packed palette indices.
package section

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"github.com/OCharnyshevich/gdmc-client/pkg/world/bitarray"
)

const (
	// Size is the edge length of a section.
	Size = 16
	// Volume is the number of blocks in a section.
	Volume = Size * Size * Size

	minBitsPerEntry = 4
)

// VoidAir is the block reported for sections that carry no block data.
const VoidAir = "minecraft:void_air"

// ErrCorruptPalette is returned when a decoded index has no palette entry.
var ErrCorruptPalette = errors.New("palette index out of range")

// BlockState is a block id with its optional properties.
type BlockState struct {
	Name       string            `nbt:"Name"`
	Properties map[string]string `nbt:"Properties"`
}

// String formats the state as name[k=v,...] with sorted keys.
func (b BlockState) String() string {
	if len(b.Properties) == 0 {
		return b.Name
	}
	return b.Name + "[" + formatProperties(b.Properties) + "]"
}

// Void is the implicit state of blocks in empty sections.
var Void = BlockState{Name: VoidAir}

// Palette lists the distinct block states of one section.
type Palette []BlockState

// BitsPerEntry returns the packed index width for a palette of n entries.
func BitsPerEntry(n int) int {
	b := 0
	if n > 1 {
		b = bits.Len(uint(n - 1))
	}
	return max(minBitsPerEntry, b)
}

// Index returns the block index of local coordinates within a section.
func Index(x, y, z int) int {
	return y*Size*Size + z*Size + x
}

// Section is one decoded section: *Populated, Empty or *Malformed.
type Section interface {
	// StateAt returns the block at local coordinates (each 0..15).
	StateAt(x, y, z int) (BlockState, error)
	sealed()
}

// Empty is a section without block data; every block is Void.
type Empty struct{}

func (Empty) StateAt(x, y, z int) (BlockState, error) {
	return Void, nil
}

func (Empty) sealed() {}

// Malformed records a section whose payload failed to decode. Queries into it
// return the decode error; neighbouring sections are unaffected.
type Malformed struct {
	Err error
}

func (m *Malformed) StateAt(x, y, z int) (BlockState, error) {
	return BlockState{}, m.Err
}

func (*Malformed) sealed() {}

// Populated is a section with a palette and packed block states.
type Populated struct {
	palette Palette
	states  *bitarray.Array
}

// New builds a populated section from a palette and raw block-state words.
func New(palette Palette, words []uint64) (*Populated, error) {
	if len(palette) == 0 {
		return nil, fmt.Errorf("%w: empty palette", bitarray.ErrMalformedPayload)
	}
	states, err := bitarray.New(BitsPerEntry(len(palette)), Volume, words)
	if err != nil {
		return nil, fmt.Errorf("decode block states: %w", err)
	}
	return &Populated{palette: palette, states: states}, nil
}

// Decode returns Empty when words is empty and a populated section otherwise.
// A decode failure is returned as *Malformed so callers keep a value for the slot.
func Decode(palette Palette, words []uint64) Section {
	if len(words) == 0 {
		return Empty{}
	}
	p, err := New(palette, words)
	if err != nil {
		return &Malformed{Err: err}
	}
	return p
}

// Palette returns the section palette. It must not be modified.
func (p *Populated) Palette() Palette { return p.palette }

func (p *Populated) StateAt(x, y, z int) (BlockState, error) {
	idx, err := p.states.Get(Index(x, y, z))
	if err != nil {
		return BlockState{}, err
	}
	if int(idx) >= len(p.palette) {
		return BlockState{}, fmt.Errorf("%w: index %d at (%d,%d,%d), palette has %d entries",
			ErrCorruptPalette, idx, x, y, z, len(p.palette))
	}
	return p.palette[idx], nil
}

func (*Populated) sealed() {}

func formatProperties(props map[string]string) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(props[k])
	}
	return sb.String()
}
