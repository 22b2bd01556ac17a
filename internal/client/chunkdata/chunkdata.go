// Package chunkdata decodes and encodes the multi-chunk NBT payload returned by
// the world interface's /chunks endpoint.
package chunkdata

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/gzip"

	"github.com/OCharnyshevich/gdmc-client/pkg/world/section"
)

// ErrDecode is returned when a payload is not a readable chunk list.
var ErrDecode = errors.New("decode chunk payload")

// Heightmap kinds written by the game.
const (
	MotionBlocking         = "MOTION_BLOCKING"
	MotionBlockingNoLeaves = "MOTION_BLOCKING_NO_LEAVES"
	OceanFloor             = "OCEAN_FLOOR"
	WorldSurface           = "WORLD_SURFACE"
)

// HeightmapKinds lists the heightmaps requested by default.
var HeightmapKinds = []string{MotionBlocking, MotionBlockingNoLeaves, OceanFloor, WorldSurface}

const (
	// HeightmapBits is the width of one packed heightmap sample.
	HeightmapBits = 9
	// BiomeSamples is the number of 4×4×4 biome cells in a 256 block tall chunk.
	BiomeSamples = 4 * 4 * 64
)

// Payload is the root of a /chunks response.
type Payload struct {
	Chunks []Chunk `nbt:"Chunks"`
}

type Chunk struct {
	DataVersion int32 `nbt:"DataVersion"`
	Level       Level `nbt:"Level"`
}

// Level holds the fields of one chunk column.
type Level struct {
	XPos       int32               `nbt:"xPos"`
	ZPos       int32               `nbt:"zPos"`
	Heightmaps map[string][]uint64 `nbt:"Heightmaps"`
	Sections   []Section           `nbt:"Sections"`
	Biomes     []int32             `nbt:"Biomes"`
}

// Section is one 16 block tall slice of a chunk. Missing or empty BlockStates
// mean the section holds no blocks.
type Section struct {
	Y           int8            `nbt:"Y"`
	Palette     section.Palette `nbt:"Palette"`
	BlockStates []uint64        `nbt:"BlockStates"`
}

// Decode parses a raw payload. Gzip-framed payloads are unwrapped first.
func Decode(raw []byte) (*Payload, error) {
	return DecodeReader(bytes.NewReader(raw))
}

// DecodeReader parses a payload from r.
func DecodeReader(r io.Reader) (*Payload, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %w", ErrDecode, err)
		}
		defer zr.Close()
		return decodeNBT(zr)
	}
	return decodeNBT(br)
}

func decodeNBT(r io.Reader) (*Payload, error) {
	var p Payload
	if _, err := nbt.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &p, nil
}

// DecodeChunk parses one chunk stored as a root compound.
func DecodeChunk(raw []byte) (*Chunk, error) {
	var c Chunk
	if _, err := nbt.NewDecoder(bytes.NewReader(raw)).Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &c, nil
}
