package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/OCharnyshevich/gdmc-client/internal/client/chunkdata"
	"github.com/OCharnyshevich/gdmc-client/internal/client/editor"
	"github.com/OCharnyshevich/gdmc-client/pkg/gamedata"
)

// Config holds the client configuration.
type Config struct {
	ServerURL   string        `yaml:"server_url"`
	Timeout     time.Duration `yaml:"timeout"`
	BufferLimit int           `yaml:"buffer_limit"`
	Retries     int           `yaml:"retries"`
	RetryDelay  time.Duration `yaml:"retry_delay"`

	// Offset is added to local coordinates to obtain global ones.
	Offset [3]int `yaml:"offset,flow"`

	HeightmapTypes []string `yaml:"heightmap_types"`
	BiomesFile     string   `yaml:"biomes_file"` // minecraft-data biomes.json; empty = embedded table
	GameVersion    string   `yaml:"game_version"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ServerURL:      "http://localhost:9000",
		Timeout:        10 * time.Second,
		BufferLimit:    editor.DefaultBufferLimit,
		Retries:        5,
		HeightmapTypes: append([]string(nil), chunkdata.HeightmapKinds...),
		GameVersion:    gamedata.DefaultVersion,
	}
}

// Load reads a YAML file over the defaults, so keys missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["server"] {
		cfg.ServerURL = fromFile.ServerURL
	}
	if !explicitFlags["timeout"] {
		cfg.Timeout = fromFile.Timeout
	}
	if !explicitFlags["buffer-limit"] {
		cfg.BufferLimit = fromFile.BufferLimit
	}
	if !explicitFlags["retries"] {
		cfg.Retries = fromFile.Retries
	}
	if !explicitFlags["retry-delay"] {
		cfg.RetryDelay = fromFile.RetryDelay
	}
	if !explicitFlags["offset"] {
		cfg.Offset = fromFile.Offset
	}
	if !explicitFlags["heightmaps"] {
		cfg.HeightmapTypes = fromFile.HeightmapTypes
	}
	if !explicitFlags["biomes"] {
		cfg.BiomesFile = fromFile.BiomesFile
	}
	if !explicitFlags["game-version"] {
		cfg.GameVersion = fromFile.GameVersion
	}
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.ServerURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("server_url %q: must be an http(s) URL", c.ServerURL))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout %s: must not be negative", c.Timeout))
	}
	if c.BufferLimit < 1 {
		errs = append(errs, fmt.Errorf("buffer_limit %d: must be at least 1", c.BufferLimit))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries %d: must not be negative", c.Retries))
	}
	if c.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("retry_delay %s: must not be negative", c.RetryDelay))
	}
	known := make(map[string]bool, len(chunkdata.HeightmapKinds))
	for _, k := range chunkdata.HeightmapKinds {
		known[k] = true
	}
	for _, k := range c.HeightmapTypes {
		if !known[k] {
			errs = append(errs, fmt.Errorf("heightmap_types: unknown kind %q", k))
		}
	}
	return errors.Join(errs...)
}

// Editor returns the editor settings.
func (c *Config) Editor() editor.Config {
	return editor.Config{
		Offset:      c.Offset,
		BufferLimit: c.BufferLimit,
		Retries:     c.Retries,
		RetryDelay:  c.RetryDelay,
	}
}

// Biomes returns the biome table selected by BiomesFile or GameVersion.
func (c *Config) Biomes() (gamedata.BiomeRegistry, error) {
	if c.BiomesFile != "" {
		return gamedata.LoadBiomesFile(c.BiomesFile)
	}
	gd, err := gamedata.Load(c.GameVersion)
	if err != nil {
		return nil, err
	}
	return gd.Biomes, nil
}
