package anvil

import (
	"bytes"
	"context"
	"fmt"

	"github.com/OCharnyshevich/gdmc-client/pkg/world/nbt"
)

// Dir is a directory of region files that serves chunk rectangles in the
// same payload layout as the world interface's /chunks endpoint.
type Dir string

// GetChunks assembles dx×dz chunks starting at chunk (x, z), x-fastest, into
// one payload. Every chunk must be present.
func (d Dir) GetChunks(ctx context.Context, x, z, dx, dz int) ([]byte, error) {
	if dx < 0 || dz < 0 {
		return nil, fmt.Errorf("invalid chunk rectangle %dx%d", dx, dz)
	}

	var buf bytes.Buffer
	w := nbt.NewWriter(&buf)
	w.BeginCompound("")
	w.BeginList("Chunks", nbt.TagCompound, int32(dx*dz))
	for cz := z; cz < z+dz; cz++ {
		for cx := x; cx < x+dx; cx++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			raw, err := ReadChunk(string(d), ChunkPos{cx, cz})
			if err != nil {
				return nil, err
			}
			body, err := nbt.CompoundBody(raw)
			if err != nil {
				return nil, fmt.Errorf("chunk (%d,%d): %w", cx, cz, err)
			}
			w.WriteRaw(body)
		}
	}
	w.EndCompound()

	if err := w.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
