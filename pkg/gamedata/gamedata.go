// Package gamedata holds version-specific lookup tables keyed by game version.
package gamedata

import (
	"bytes"
	"embed"
	"fmt"
)

// GameData groups the tables for one game version.
type GameData struct {
	Version string
	Biomes  BiomeRegistry
}

// DefaultVersion is the game version whose tables are built in.
const DefaultVersion = "1.16.5"

//go:embed data/*.json
var builtin embed.FS

func init() {
	Register(DefaultVersion, func() *GameData {
		raw, err := builtin.ReadFile(fmt.Sprintf("data/biomes-%s.json", DefaultVersion))
		if err != nil {
			panic(err)
		}
		biomes, err := DecodeBiomes(bytes.NewReader(raw))
		if err != nil {
			panic(err)
		}
		return &GameData{Version: DefaultVersion, Biomes: NewBiomeRegistry(biomes)}
	})
}
