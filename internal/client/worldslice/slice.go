// Package worldslice caches the chunks covering a region of the world and
// answers block, height and biome queries against that snapshot.
//
// A Slice is read-only after Load and is not updated when the world changes;
// it is safe for concurrent use.
package worldslice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/OCharnyshevich/gdmc-client/internal/client/chunkdata"
	"github.com/OCharnyshevich/gdmc-client/pkg/gamedata"
	"github.com/OCharnyshevich/gdmc-client/pkg/world/bitarray"
	"github.com/OCharnyshevich/gdmc-client/pkg/world/section"
)

const (
	sectionsPerChunk = 16
	worldHeight      = sectionsPerChunk * section.Size
)

var (
	// ErrOutOfBounds is returned for coordinates outside the cached chunks.
	ErrOutOfBounds = errors.New("coordinates outside cached region")
	// ErrUnknownHeightKind is returned for a heightmap kind that was not requested.
	ErrUnknownHeightKind = errors.New("unknown heightmap kind")
	// ErrUnknownBiome is returned for a biome id missing from the biome table.
	ErrUnknownBiome = errors.New("unknown biome id")
	// ErrFetch wraps failures of the chunk source.
	ErrFetch = errors.New("fetch chunks")
)

// ChunkFetcher returns the raw payload for a rectangle of chunks.
type ChunkFetcher interface {
	GetChunks(ctx context.Context, x, z, dx, dz int) ([]byte, error)
}

// Options tune slice construction. Zero values select defaults.
type Options struct {
	// HeightmapKinds to cache; defaults to chunkdata.HeightmapKinds.
	HeightmapKinds []string
	// Biomes resolves biome ids; defaults to the built-in table.
	Biomes gamedata.BiomeRegistry
	Logger *slog.Logger
}

type column struct {
	sections [sectionsPerChunk]section.Section
	biomes   []int32
}

// Slice is a cached, read-only view of a region.
type Slice struct {
	region     Region
	rect       ChunkRect
	kinds      []string
	heightmaps map[string]*HeightGrid
	columns    []column // x + z*rect.CountX
	biomes     gamedata.BiomeRegistry
	warnings   []error
}

// Load fetches every chunk covering region with a single request and builds
// the slice. Any fetch or decode failure aborts construction.
func Load(ctx context.Context, src ChunkFetcher, region Region, opts Options) (*Slice, error) {
	rect := region.ChunkRect()
	raw, err := src.GetChunks(ctx, rect.X, rect.Z, rect.CountX, rect.CountZ)
	if err != nil {
		return nil, fmt.Errorf("%w %+v: %w", ErrFetch, rect, err)
	}
	payload, err := chunkdata.Decode(raw)
	if err != nil {
		return nil, err
	}
	return Build(region, payload, opts)
}

// Build constructs a slice from an already decoded payload whose chunks are
// ordered x-fastest over region.ChunkRect().
func Build(region Region, payload *chunkdata.Payload, opts Options) (*Slice, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	kinds := opts.HeightmapKinds
	if kinds == nil {
		kinds = chunkdata.HeightmapKinds
	}
	biomes := opts.Biomes
	if biomes == nil {
		gd, err := gamedata.Load(gamedata.DefaultVersion)
		if err != nil {
			return nil, err
		}
		biomes = gd.Biomes
	}

	rect := region.ChunkRect()
	if len(payload.Chunks) != rect.Len() {
		return nil, fmt.Errorf("%w: got %d chunks for %+v, want %d",
			chunkdata.ErrDecode, len(payload.Chunks), rect, rect.Len())
	}

	s := &Slice{
		region:     region,
		rect:       rect,
		kinds:      append([]string(nil), kinds...),
		heightmaps: make(map[string]*HeightGrid, len(kinds)),
		columns:    make([]column, rect.Len()),
		biomes:     biomes,
	}
	for _, kind := range kinds {
		s.heightmaps[kind] = newHeightGrid(region)
	}

	for cz := 0; cz < rect.CountZ; cz++ {
		for cx := 0; cx < rect.CountX; cx++ {
			level := &payload.Chunks[cx+cz*rect.CountX].Level
			s.loadHeightmaps(cx, cz, level)
			s.loadColumn(cx, cz, level)
		}
	}

	for _, w := range s.warnings {
		log.Warn("chunk data problem", "slice", s.String(), "error", w)
	}
	log.Debug("world slice loaded",
		"region", region.String(),
		"chunkX", rect.X, "chunkZ", rect.Z,
		"chunksX", rect.CountX, "chunksZ", rect.CountZ,
	)
	return s, nil
}

func (s *Slice) loadHeightmaps(cx, cz int, level *chunkdata.Level) {
	offX, offZ := s.region.X&0xF, s.region.Z&0xF
	for _, kind := range s.kinds {
		raw, ok := level.Heightmaps[kind]
		if !ok {
			s.warnings = append(s.warnings, fmt.Errorf("%w: chunk (%d,%d) has no %s heightmap",
				bitarray.ErrMalformedPayload, s.rect.X+cx, s.rect.Z+cz, kind))
			continue
		}
		samples, err := bitarray.New(chunkdata.HeightmapBits, section.Size*section.Size, raw)
		if err != nil {
			s.warnings = append(s.warnings, fmt.Errorf("chunk (%d,%d) %s heightmap: %w",
				s.rect.X+cx, s.rect.Z+cz, kind, err))
			continue
		}

		grid := s.heightmaps[kind]
		for z := 0; z < section.Size; z++ {
			for x := 0; x < section.Size; x++ {
				h, _ := samples.Get(z*section.Size + x)
				grid.set(cx*section.Size+x-offX, cz*section.Size+z-offZ, int(h))
			}
		}
	}
}

func (s *Slice) loadColumn(cx, cz int, level *chunkdata.Level) {
	col := &s.columns[cx+cz*s.rect.CountX]
	for i := range col.sections {
		col.sections[i] = section.Empty{}
	}
	for _, raw := range level.Sections {
		if raw.Y < 0 || int(raw.Y) >= sectionsPerChunk {
			continue
		}
		sec := section.Decode(raw.Palette, raw.BlockStates)
		if m, ok := sec.(*section.Malformed); ok {
			s.warnings = append(s.warnings, fmt.Errorf("chunk (%d,%d) section %d: %w",
				s.rect.X+cx, s.rect.Z+cz, raw.Y, m.Err))
		}
		col.sections[raw.Y] = sec
	}
	col.biomes = level.Biomes
}

// Region returns the region the slice was built for.
func (s *Slice) Region() Region { return s.region }

// ChunkRect returns the cached chunk rectangle.
func (s *Slice) ChunkRect() ChunkRect { return s.rect }

// HeightmapKinds returns the cached heightmap kinds.
func (s *Slice) HeightmapKinds() []string {
	return append([]string(nil), s.kinds...)
}

// Warnings returns decode problems that affected individual sections or
// heightmaps without aborting construction.
func (s *Slice) Warnings() []error {
	return append([]error(nil), s.warnings...)
}

func (s *Slice) String() string {
	return "WorldSlice" + s.region.String()
}

func (s *Slice) column(x, z int) (*column, error) {
	cx, cz, ok := s.rect.local(x>>4, z>>4)
	if !ok {
		return nil, fmt.Errorf("%w: block (%d,%d) is in chunk (%d,%d), cached chunks %+v",
			ErrOutOfBounds, x, z, x>>4, z>>4, s.rect)
	}
	return &s.columns[cx+cz*s.rect.CountX], nil
}

// BlockStateAt returns the block state at global coordinates. Blocks in
// sections without data, and above or below the world, are void air.
func (s *Slice) BlockStateAt(x, y, z int) (section.BlockState, error) {
	col, err := s.column(x, z)
	if err != nil {
		return section.BlockState{}, err
	}
	if y < 0 || y >= worldHeight {
		return section.Void, nil
	}
	return col.sections[y>>4].StateAt(x&0xF, y&0xF, z&0xF)
}

// BlockAt returns the namespaced block id at global coordinates.
func (s *Slice) BlockAt(x, y, z int) (string, error) {
	state, err := s.BlockStateAt(x, y, z)
	if err != nil {
		return "", err
	}
	return state.Name, nil
}

// HeightAt returns the raw sample of heightmap kind at global column (x, z).
// Columns of the region that lie beyond the cached chunks are out of bounds.
func (s *Slice) HeightAt(x, z int, kind string) (int, error) {
	grid, ok := s.heightmaps[kind]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownHeightKind, kind)
	}
	if !s.region.Contains(x, z) {
		return 0, fmt.Errorf("%w: column (%d,%d) not in %s", ErrOutOfBounds, x, z, s.region)
	}
	if _, err := s.column(x, z); err != nil {
		return 0, err
	}
	h, _ := grid.At(x-s.region.X, z-s.region.Z)
	return h, nil
}

// Heightmap returns the grid of one kind.
func (s *Slice) Heightmap(kind string) (*HeightGrid, error) {
	grid, ok := s.heightmaps[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHeightKind, kind)
	}
	return grid, nil
}

func (s *Slice) chunkBiomes(x, z int) ([]int32, error) {
	col, err := s.column(x, z)
	if err != nil {
		return nil, err
	}
	if len(col.biomes) == 0 {
		return nil, fmt.Errorf("%w: chunk (%d,%d) has no biome data",
			bitarray.ErrMalformedPayload, x>>4, z>>4)
	}
	return col.biomes, nil
}

func (s *Slice) lookupBiome(id int32) (gamedata.Biome, error) {
	b, ok := s.biomes.ByID(int(id))
	if !ok {
		return gamedata.Biome{}, fmt.Errorf("%w: %d", ErrUnknownBiome, id)
	}
	return b, nil
}

// BiomeAt returns the biome of the 4×4×4 cell containing the block. Samples
// are taken per chunk, so results near chunk borders may be off by up to two
// blocks.
func (s *Slice) BiomeAt(x, y, z int) (gamedata.Biome, error) {
	data, err := s.chunkBiomes(x, z)
	if err != nil {
		return gamedata.Biome{}, err
	}
	if y < 0 || y >= worldHeight {
		return gamedata.Biome{}, fmt.Errorf("%w: y=%d", ErrOutOfBounds, y)
	}
	idx := (x&0xF)>>2 + 4*((z&0xF)>>2) + 16*(y>>2)
	if idx >= len(data) {
		return gamedata.Biome{}, fmt.Errorf("%w: biome index %d, chunk has %d samples",
			bitarray.ErrMalformedPayload, idx, len(data))
	}
	return s.lookupBiome(data[idx])
}

// BiomesNear returns the distinct biomes of the chunk containing the block,
// ordered by biome id.
func (s *Slice) BiomesNear(x, y, z int) ([]gamedata.Biome, error) {
	data, err := s.chunkBiomes(x, z)
	if err != nil {
		return nil, err
	}
	ids := make([]int32, 0, 4)
	seen := make(map[int32]bool)
	for _, id := range data {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]gamedata.Biome, 0, len(ids))
	for _, id := range ids {
		b, err := s.lookupBiome(id)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// PrimaryBiomeNear returns the most frequent biome sample of the chunk
// containing the block. Ties go to the lowest biome id.
func (s *Slice) PrimaryBiomeNear(x, y, z int) (gamedata.Biome, error) {
	data, err := s.chunkBiomes(x, z)
	if err != nil {
		return gamedata.Biome{}, err
	}
	counts := make(map[int32]int)
	for _, id := range data {
		counts[id]++
	}
	best, bestCount := int32(0), -1
	for id, n := range counts {
		if n > bestCount || (n == bestCount && id < best) {
			best, bestCount = id, n
		}
	}
	return s.lookupBiome(best)
}
