package worldstub

// Terrain shapes the base world under the block overrides.
type Terrain interface {
	// Ground returns the height of the first air block of a column.
	Ground(x, z int) int
	// Biome returns the biome id sampled at a block position.
	Biome(x, y, z int) int32
}

// Biome ids of the 1.16 table used by the built-in terrains.
const (
	biomePlains    int32 = 1
	biomeDesert    int32 = 2
	biomeMountains int32 = 3
)

type flatTerrain int

// Flat returns a terrain whose grass surface is at y = ground-1 everywhere,
// all plains.
func Flat(ground int) Terrain {
	return flatTerrain(ground)
}

func (f flatTerrain) Ground(int, int) int {
	return int(f)
}

func (f flatTerrain) Biome(int, int, int) int32 {
	return biomePlains
}

// Hills is a rolling terrain built from layered simplex noise.
type Hills struct {
	// Base is the mean ground height.
	Base int
	// Amplitude is the largest deviation from Base.
	Amplitude int

	height  *simplex
	climate *simplex
}

// NewHills creates a deterministic hilly terrain for seed.
func NewHills(seed int64, base, amplitude int) *Hills {
	return &Hills{
		Base:      base,
		Amplitude: amplitude,
		height:    newSimplex(seed),
		climate:   newSimplex(seed ^ 0x5DEECE66D),
	}
}

func (h *Hills) Ground(x, z int) int {
	n := h.height.octaves(float64(x)/96, float64(z)/96, 4, 0.5)
	g := h.Base + int(n*float64(h.Amplitude))
	return min(max(g, 2), worldHeight-1)
}

func (h *Hills) Biome(x, _, z int) int32 {
	if h.Ground(x, z) > h.Base+h.Amplitude/2 {
		return biomeMountains
	}
	if h.climate.octaves(float64(x)/256, float64(z)/256, 2, 0.5) > 0.3 {
		return biomeDesert
	}
	return biomePlains
}

// simplex is 2D simplex noise over a seeded permutation table.
type simplex struct {
	perm [512]uint8
}

var grad2 = [8][2]float64{
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
}

func newSimplex(seed int64) *simplex {
	var p [256]uint8
	for i := range p {
		p[i] = uint8(i)
	}
	s := uint64(seed)
	for i := 255; i > 0; i-- {
		s = s*6364136223846793005 + 1442695040888963407
		j := int((s >> 33) % uint64(i+1))
		p[i], p[j] = p[j], p[i]
	}

	n := &simplex{}
	for i := range n.perm {
		n.perm[i] = p[i&255]
	}
	return n
}

// at returns noise in [-1, 1].
func (n *simplex) at(x, y float64) float64 {
	const (
		skew   = 0.36602540378443864676 // (sqrt(3)-1)/2
		unskew = 0.21132486540518711775 // (3-sqrt(3))/6
	)

	s := (x + y) * skew
	i, j := floor(x+s), floor(y+s)
	t := float64(i+j) * unskew
	x0, y0 := x-(float64(i)-t), y-(float64(j)-t)

	i1, j1 := 0, 1
	if x0 > y0 {
		i1, j1 = 1, 0
	}

	corners := [3][2]float64{
		{x0, y0},
		{x0 - float64(i1) + unskew, y0 - float64(j1) + unskew},
		{x0 - 1 + 2*unskew, y0 - 1 + 2*unskew},
	}
	ii, jj := i&255, j&255
	grads := [3]int{
		int(n.perm[ii+int(n.perm[jj])]) % 8,
		int(n.perm[ii+i1+int(n.perm[jj+j1])]) % 8,
		int(n.perm[ii+1+int(n.perm[jj+1])]) % 8,
	}

	var sum float64
	for k, c := range corners {
		f := 0.5 - c[0]*c[0] - c[1]*c[1]
		if f < 0 {
			continue
		}
		f *= f
		g := grad2[grads[k]]
		sum += f * f * (g[0]*c[0] + g[1]*c[1])
	}
	return 70 * sum
}

// octaves sums layers of doubling frequency, normalised to [-1, 1].
func (n *simplex) octaves(x, y float64, count int, persistence float64) float64 {
	var total, norm float64
	amp, freq := 1.0, 1.0
	for i := 0; i < count; i++ {
		total += n.at(x*freq, y*freq) * amp
		norm += amp
		amp *= persistence
		freq *= 2
	}
	return total / norm
}

func floor(v float64) int {
	i := int(v)
	if v < float64(i) {
		return i - 1
	}
	return i
}
