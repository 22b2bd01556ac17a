package gamedata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Biome mirrors an entry of minecraft-data's biomes.json.
type Biome struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	DisplayName   string  `json:"displayName"`
	Category      string  `json:"category"`
	Temperature   float64 `json:"temperature"`
	Precipitation string  `json:"precipitation"`
	Depth         float64 `json:"depth"`
	Dimension     string  `json:"dimension"`
	Color         int     `json:"color"`
	Rainfall      float64 `json:"rainfall"`
}

// Namespaced returns the biome name with the minecraft namespace.
func (b Biome) Namespaced() string {
	return "minecraft:" + b.Name
}

// DecodeBiomes reads a biomes.json array.
func DecodeBiomes(r io.Reader) ([]Biome, error) {
	var biomes []Biome
	if err := json.NewDecoder(r).Decode(&biomes); err != nil {
		return nil, fmt.Errorf("decode biomes: %w", err)
	}
	return biomes, nil
}

// LoadBiomesFile reads a biomes.json file, such as one fetched by cmd/dmd.
func LoadBiomesFile(path string) (BiomeRegistry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open biomes: %w", err)
	}
	defer f.Close()

	biomes, err := DecodeBiomes(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewBiomeRegistry(biomes), nil
}
