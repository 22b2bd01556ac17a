package worldslice

import "fmt"

const chunkSize = 16

// Region is a rectangle of block columns in global coordinates. The upper
// bound is exclusive.
type Region struct {
	X, Z         int
	SizeX, SizeZ int
}

// NewRegion returns the region spanning [x1,x2) × [z1,z2).
func NewRegion(x1, z1, x2, z2 int) Region {
	return Region{X: x1, Z: z1, SizeX: x2 - x1, SizeZ: z2 - z1}
}

// Contains reports whether the global column (x, z) lies inside the region.
func (r Region) Contains(x, z int) bool {
	return x >= r.X && x < r.X+r.SizeX && z >= r.Z && z < r.Z+r.SizeZ
}

// ChunkRect returns the chunks fetched for the region: the origin chunk holds
// the region origin and the counts are the region size in chunks, rounded up.
func (r Region) ChunkRect() ChunkRect {
	return ChunkRect{
		X:      r.X >> 4,
		Z:      r.Z >> 4,
		CountX: ceilDiv(r.SizeX, chunkSize),
		CountZ: ceilDiv(r.SizeZ, chunkSize),
	}
}

func (r Region) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", r.X, r.Z, r.X+r.SizeX, r.Z+r.SizeZ)
}

// ChunkRect is a rectangle of chunks: origin in chunk coordinates plus counts.
type ChunkRect struct {
	X, Z           int
	CountX, CountZ int
}

// Len returns the number of chunks in the rectangle.
func (c ChunkRect) Len() int {
	return c.CountX * c.CountZ
}

// local converts global chunk coordinates into indices within the rectangle.
func (c ChunkRect) local(cx, cz int) (int, int, bool) {
	lx, lz := cx-c.X, cz-c.Z
	return lx, lz, lx >= 0 && lx < c.CountX && lz >= 0 && lz < c.CountZ
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
