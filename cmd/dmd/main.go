package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	get "github.com/hashicorp/go-getter"

	"github.com/OCharnyshevich/gdmc-client/pkg/gamedata"
)

func main() {
	var (
		base     = flag.String("base", "https://github.com/PrismarineJS/minecraft-data.git", "base url")
		platform = flag.String("platform", "pc", "platform of the data tables")
		ver      = flag.String("version", gamedata.DefaultVersion, "game version")
		out      = flag.String("o", "./data", "output dir path")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if *out == "" || *platform == "" || *ver == "" {
		log.Error("output dir, platform and version are required")
		os.Exit(2)
	}

	dir := filepath.Join(*out, fmt.Sprintf("%s-%s", *platform, *ver))
	if err := os.RemoveAll(dir); err != nil {
		log.Error("clean output dir", "dir", dir, "error", err)
		os.Exit(1)
	}

	// https://github.com/PrismarineJS/minecraft-data/tree/master/data/pc/1.16.5
	url := fmt.Sprintf("git::%s//data/%s/%s", *base, *platform, *ver)
	log.Info("downloading data tables", "url", url, "dir", dir)
	if err := get.Get(dir, url); err != nil {
		log.Error("download", "error", err)
		os.Exit(1)
	}

	// Check that the biome table is usable by the client.
	path := filepath.Join(dir, "biomes.json")
	reg, err := gamedata.LoadBiomesFile(path)
	if err != nil {
		log.Error("load biomes", "path", path, "error", err)
		os.Exit(1)
	}
	log.Info("done", "biomes", len(reg.All()), "path", path)
}
