package gamedata

import "sort"

type BiomeRegistry interface {
	ByID(id int) (Biome, bool)
	ByName(name string) (Biome, bool)
	All() []Biome
}

type biomeTable struct {
	byID   map[int]Biome
	byName map[string]Biome
	all    []Biome
}

// NewBiomeRegistry indexes biomes by id and by name. Later duplicates win.
func NewBiomeRegistry(biomes []Biome) BiomeRegistry {
	t := &biomeTable{
		byID:   make(map[int]Biome, len(biomes)),
		byName: make(map[string]Biome, len(biomes)),
	}
	for _, b := range biomes {
		t.byID[b.ID] = b
		t.byName[b.Name] = b
	}
	t.all = make([]Biome, 0, len(t.byID))
	for _, b := range t.byID {
		t.all = append(t.all, b)
	}
	sort.Slice(t.all, func(i, j int) bool { return t.all[i].ID < t.all[j].ID })
	return t
}

func (t *biomeTable) ByID(id int) (Biome, bool) {
	b, ok := t.byID[id]
	return b, ok
}

func (t *biomeTable) ByName(name string) (Biome, bool) {
	b, ok := t.byName[name]
	return b, ok
}

func (t *biomeTable) All() []Biome {
	return t.all
}
