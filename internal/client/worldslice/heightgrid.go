package worldslice

// HeightGrid holds one heightmap kind over a region, indexed by region-local
// column. It is one column and one row larger than the region; the extra
// cells are filled when chunk data covers them but are not queryable.
type HeightGrid struct {
	sizeX, sizeZ int
	values       []int
}

func newHeightGrid(r Region) *HeightGrid {
	sx, sz := max(r.SizeX, 0)+1, max(r.SizeZ, 0)+1
	return &HeightGrid{sizeX: sx, sizeZ: sz, values: make([]int, sx*sz)}
}

// Size returns the allocated grid dimensions.
func (g *HeightGrid) Size() (int, int) {
	return g.sizeX, g.sizeZ
}

// At returns the raw height at region-local (x, z).
func (g *HeightGrid) At(x, z int) (int, bool) {
	if x < 0 || x >= g.sizeX || z < 0 || z >= g.sizeZ {
		return 0, false
	}
	return g.values[x*g.sizeZ+z], true
}

// set stores v, discarding cells outside the grid.
func (g *HeightGrid) set(x, z, v int) {
	if x < 0 || x >= g.sizeX || z < 0 || z >= g.sizeZ {
		return
	}
	g.values[x*g.sizeZ+z] = v
}
