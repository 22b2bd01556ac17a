package worldstub

import (
	"strings"
	"sync"
)

const (
	Air     = "minecraft:air"
	Bedrock = "minecraft:bedrock"
	Stone   = "minecraft:stone"
	Dirt    = "minecraft:dirt"
	Grass   = "minecraft:grass_block"

	worldHeight = 256
)

// BlockPos represents a block position in the world.
type BlockPos struct {
	X, Y, Z int
}

// World is a generated terrain with block overrides for writes received over HTTP.
type World struct {
	mu        sync.RWMutex
	blocks    map[BlockPos]string
	terrain   Terrain
	biome     func(x, y, z int) int32
	commands  []string
	buildArea *BuildArea
}

// BuildArea mirrors the JSON served at /buildarea.
type BuildArea struct {
	XFrom int `json:"xFrom"`
	YFrom int `json:"yFrom"`
	ZFrom int `json:"zFrom"`
	XTo   int `json:"xTo"`
	YTo   int `json:"yTo"`
	ZTo   int `json:"zTo"`
}

// NewWorld creates a flat world whose grass surface is at y = ground-1.
// Every biome sample is plains.
func NewWorld(ground int) *World {
	return NewTerrainWorld(Flat(ground))
}

// NewTerrainWorld creates a world shaped by t.
func NewTerrainWorld(t Terrain) *World {
	return &World{
		blocks:  make(map[BlockPos]string),
		terrain: t,
		biome:   t.Biome,
	}
}

// SetBiomes replaces the terrain's biomes in chunk payloads.
func (w *World) SetBiomes(fn func(x, y, z int) int32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.biome = fn
}

// SetBuildArea sets or clears (nil) the build area.
func (w *World) SetBuildArea(a *BuildArea) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buildArea = a
}

func (w *World) base(x, y, z int) string {
	ground := w.terrain.Ground(x, z)
	switch {
	case y < 0 || y >= worldHeight || y >= ground:
		return Air
	case y == 0:
		return Bedrock
	case y == ground-1:
		return Grass
	case y >= ground-4:
		return Dirt
	default:
		return Stone
	}
}

// GetBlock returns the block at the given position.
// Checks overrides first, then falls back to the flat terrain.
func (w *World) GetBlock(x, y, z int) string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.blockLocked(x, y, z)
}

func (w *World) blockLocked(x, y, z int) string {
	if b, ok := w.blocks[BlockPos{x, y, z}]; ok {
		return b
	}
	return w.base(x, y, z)
}

// SetBlock stores a block override and reports whether the block changed.
// Blocks outside the build height are rejected.
func (w *World) SetBlock(x, y, z int, block string) bool {
	if y < 0 || y >= worldHeight {
		return false
	}
	if !strings.Contains(block, ":") {
		block = "minecraft:" + block
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	pos := BlockPos{x, y, z}
	if w.blockLocked(x, y, z) == block {
		return false
	}
	if block == w.base(x, y, z) {
		delete(w.blocks, pos)
	} else {
		w.blocks[pos] = block
	}
	return true
}

// ForEachOverride calls fn for every block override under a read lock.
func (w *World) ForEachOverride(fn func(pos BlockPos, block string)) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for pos, b := range w.blocks {
		fn(pos, b)
	}
}

// Commands returns the commands received so far.
func (w *World) Commands() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.commands...)
}

func (w *World) recordCommand(cmd string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.commands = append(w.commands, cmd)
}
