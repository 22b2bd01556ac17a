package editor

import (
	"context"

	"github.com/OCharnyshevich/gdmc-client/internal/client/worldslice"
	"github.com/OCharnyshevich/gdmc-client/pkg/gamedata"
	"github.com/OCharnyshevich/gdmc-client/pkg/world/section"
)

// View answers slice queries in the editor's local coordinates.
type View struct {
	slice  *worldslice.Slice
	offset [3]int
}

// LoadView caches the local area [x1,x2) × [z1,z2) with one chunk fetch
// from the server.
func (e *Editor) LoadView(ctx context.Context, x1, z1, x2, z2 int, opts worldslice.Options) (*View, error) {
	return e.LoadViewFrom(ctx, e.t, x1, z1, x2, z2, opts)
}

// LoadViewFrom is LoadView reading chunks from src, such as a saved copy
// of the world.
func (e *Editor) LoadViewFrom(ctx context.Context, src worldslice.ChunkFetcher, x1, z1, x2, z2 int, opts worldslice.Options) (*View, error) {
	if opts.Logger == nil {
		opts.Logger = e.log
	}
	gx1, _, gz1 := e.LocalToGlobal(x1, 0, z1)
	gx2, _, gz2 := e.LocalToGlobal(x2, 0, z2)
	s, err := worldslice.Load(ctx, src, worldslice.NewRegion(gx1, gz1, gx2, gz2), opts)
	if err != nil {
		return nil, err
	}
	return &View{slice: s, offset: e.cfg.Offset}, nil
}

// Slice returns the underlying slice, which takes global coordinates.
func (v *View) Slice() *worldslice.Slice {
	return v.slice
}

func (v *View) global(x, y, z int) (int, int, int) {
	return x + v.offset[0], y + v.offset[1], z + v.offset[2]
}

// BlockAt returns the block id at local (x, y, z).
func (v *View) BlockAt(x, y, z int) (string, error) {
	return v.slice.BlockAt(v.global(x, y, z))
}

// BlockStateAt returns the block state at local (x, y, z).
func (v *View) BlockStateAt(x, y, z int) (section.BlockState, error) {
	return v.slice.BlockStateAt(v.global(x, y, z))
}

// HeightAt returns the heightmap sample of kind at local column (x, z) as a
// local y: the raw sample minus the y offset. With a zero y offset it equals
// the raw sample of the slice.
func (v *View) HeightAt(x, z int, kind string) (int, error) {
	gx, _, gz := v.global(x, 0, z)
	h, err := v.slice.HeightAt(gx, gz, kind)
	if err != nil {
		return 0, err
	}
	return h - v.offset[1], nil
}

// BiomeAt returns the biome at local (x, y, z).
func (v *View) BiomeAt(x, y, z int) (gamedata.Biome, error) {
	return v.slice.BiomeAt(v.global(x, y, z))
}

// BiomesNear returns the biomes of the chunk containing local (x, y, z).
func (v *View) BiomesNear(x, y, z int) ([]gamedata.Biome, error) {
	return v.slice.BiomesNear(v.global(x, y, z))
}

// PrimaryBiomeNear returns the most common biome of the chunk containing
// local (x, y, z).
func (v *View) PrimaryBiomeNear(x, y, z int) (gamedata.Biome, error) {
	return v.slice.PrimaryBiomeNear(v.global(x, y, z))
}
