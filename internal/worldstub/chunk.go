package worldstub

import (
	"io"
	"strings"

	"github.com/OCharnyshevich/gdmc-client/internal/client/chunkdata"
	"github.com/OCharnyshevich/gdmc-client/pkg/world/bitarray"
	"github.com/OCharnyshevich/gdmc-client/pkg/world/section"
)

// EncodeChunks writes dx×dz chunks starting at chunk (x, z), x-fastest.
func (w *World) EncodeChunks(out io.Writer, x, z, dx, dz int) error {
	w.mu.RLock()
	chunks := make([]chunkdata.Chunk, 0, max(dx*dz, 0))
	for cz := z; cz < z+dz; cz++ {
		for cx := x; cx < x+dx; cx++ {
			chunks = append(chunks, w.chunkLocked(cx, cz))
		}
	}
	w.mu.RUnlock()

	return chunkdata.Encode(out, chunks)
}

func (w *World) chunkLocked(cx, cz int) chunkdata.Chunk {
	level := chunkdata.Level{
		XPos:       int32(cx),
		ZPos:       int32(cz),
		Heightmaps: w.heightmapsLocked(cx, cz),
		Biomes:     make([]int32, chunkdata.BiomeSamples),
	}

	// Lighting-only section below the world, as the game writes it.
	level.Sections = append(level.Sections, chunkdata.Section{Y: -1})
	for sy := 0; sy < worldHeight/section.Size; sy++ {
		if s, ok := w.sectionLocked(cx, cz, sy); ok {
			level.Sections = append(level.Sections, s)
		}
	}

	for i := range level.Biomes {
		bx, bz, by := i&3, (i>>2)&3, i>>4
		level.Biomes[i] = w.biome(cx*16+bx*4, by*4, cz*16+bz*4)
	}

	return chunkdata.Chunk{DataVersion: chunkdata.DataVersion116, Level: level}
}

// sectionLocked builds section sy of a chunk; all-air sections carry no data.
func (w *World) sectionLocked(cx, cz, sy int) (chunkdata.Section, bool) {
	palette := section.Palette{{Name: Air}}
	lookup := map[string]uint32{Air: 0}
	indices := make([]uint32, section.Volume)
	solid := false

	for y := 0; y < section.Size; y++ {
		for z := 0; z < section.Size; z++ {
			for x := 0; x < section.Size; x++ {
				b := w.blockLocked(cx*16+x, sy*16+y, cz*16+z)
				if b == Air {
					continue
				}
				idx, ok := lookup[b]
				if !ok {
					idx = uint32(len(palette))
					lookup[b] = idx
					palette = append(palette, parseState(b))
				}
				indices[section.Index(x, y, z)] = idx
				solid = true
			}
		}
	}
	if !solid {
		return chunkdata.Section{}, false
	}
	return chunkdata.Section{
		Y:           int8(sy),
		Palette:     palette,
		BlockStates: bitarray.Encode(indices, section.BitsPerEntry(len(palette))),
	}, true
}

// parseState splits "name[k=v,...]" into a block state.
func parseState(b string) section.BlockState {
	name, props, ok := strings.Cut(b, "[")
	if !ok {
		return section.BlockState{Name: b}
	}
	state := section.BlockState{Name: name, Properties: map[string]string{}}
	for _, kv := range strings.Split(strings.TrimSuffix(props, "]"), ",") {
		if k, v, ok := strings.Cut(kv, "="); ok {
			state.Properties[k] = v
		}
	}
	return state
}

var heightmapFilters = map[string]func(block string) bool{
	chunkdata.WorldSurface: func(b string) bool { return b != Air },
	chunkdata.MotionBlocking: func(b string) bool {
		return b != Air && !isPassable(b)
	},
	chunkdata.MotionBlockingNoLeaves: func(b string) bool {
		return b != Air && !isPassable(b) && !strings.HasSuffix(b, "_leaves")
	},
	chunkdata.OceanFloor: func(b string) bool {
		return b != Air && !isPassable(b) && b != "minecraft:water" && b != "minecraft:lava"
	},
}

func isPassable(b string) bool {
	switch b {
	case "minecraft:grass", "minecraft:tall_grass", "minecraft:torch", "minecraft:snow":
		return true
	}
	return false
}

// heightmapsLocked computes, per kind, one above the highest matching block
// of each column.
func (w *World) heightmapsLocked(cx, cz int) map[string][]uint64 {
	out := make(map[string][]uint64, len(heightmapFilters))
	for kind, match := range heightmapFilters {
		hm := make([]uint32, 256)
		for z := 0; z < 16; z++ {
			for x := 0; x < 16; x++ {
				for y := worldHeight - 1; y >= 0; y-- {
					if match(w.blockLocked(cx*16+x, y, cz*16+z)) {
						hm[z*16+x] = uint32(y + 1)
						break
					}
				}
			}
		}
		out[kind] = bitarray.Encode(hm, chunkdata.HeightmapBits)
	}
	return out
}
