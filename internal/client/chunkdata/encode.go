package chunkdata

import (
	"io"
	"sort"

	"github.com/OCharnyshevich/gdmc-client/pkg/world/nbt"
)

// DataVersion116 is the data version of 1.16.5 chunks.
const DataVersion116 = 2586

// Encode writes chunks as a /chunks payload. Heightmaps and properties are
// written in sorted key order so output is deterministic.
func Encode(w io.Writer, chunks []Chunk) error {
	nw := nbt.NewWriter(w)

	nw.BeginCompound("")
	nw.BeginList("Chunks", nbt.TagCompound, int32(len(chunks)))
	for i := range chunks {
		encodeChunk(nw, &chunks[i])
	}
	nw.EndCompound()

	return nw.Err()
}

// EncodeChunk writes one chunk as a root compound, the form chunks take in
// region files.
func EncodeChunk(w io.Writer, c *Chunk) error {
	nw := nbt.NewWriter(w)
	nw.BeginCompound("")
	encodeChunk(nw, c)
	return nw.Err()
}

// encodeChunk writes the fields of c and closes its compound.
func encodeChunk(nw *nbt.Writer, c *Chunk) {
	nw.WriteInt("DataVersion", c.DataVersion)
	nw.BeginCompound("Level")
	nw.WriteInt("xPos", c.Level.XPos)
	nw.WriteInt("zPos", c.Level.ZPos)

	nw.BeginCompound("Heightmaps")
	for _, kind := range sortedKeys(c.Level.Heightmaps) {
		nw.WriteLongArray(kind, c.Level.Heightmaps[kind])
	}
	nw.EndCompound()

	nw.BeginList("Sections", nbt.TagCompound, int32(len(c.Level.Sections)))
	for _, s := range c.Level.Sections {
		nw.WriteTagByte("Y", byte(s.Y))
		if len(s.BlockStates) > 0 {
			nw.BeginList("Palette", nbt.TagCompound, int32(len(s.Palette)))
			for _, state := range s.Palette {
				nw.WriteString("Name", state.Name)
				if len(state.Properties) > 0 {
					nw.WriteStringCompound("Properties", sortedKeys(state.Properties), state.Properties)
				}
				nw.EndCompound()
			}
			nw.WriteLongArray("BlockStates", s.BlockStates)
		}
		nw.EndCompound()
	}

	if c.Level.Biomes != nil {
		nw.WriteIntArray("Biomes", c.Level.Biomes)
	}
	nw.EndCompound() // Level
	nw.EndCompound() // chunk
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
