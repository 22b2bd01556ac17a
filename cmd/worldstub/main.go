package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/OCharnyshevich/gdmc-client/internal/worldstub"
)

func main() {
	var (
		addr     = flag.String("addr", "localhost:9000", "listen address")
		terrain  = flag.String("terrain", "flat", "terrain: flat or hills")
		ground   = flag.Int("ground", 64, "mean height of the terrain surface")
		seed     = flag.Int64("seed", 0, "seed of the hills terrain")
		gzipped  = flag.Bool("gzip", false, "gzip-frame /chunks payloads")
		logLevel = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var world *worldstub.World
	switch *terrain {
	case "flat":
		world = worldstub.NewWorld(*ground)
	case "hills":
		world = worldstub.NewTerrainWorld(worldstub.NewHills(*seed, *ground, 24))
	default:
		log.Error("unknown terrain", "terrain", *terrain)
		os.Exit(2)
	}

	srv := worldstub.New(world, log)
	srv.SetGzipChunks(*gzipped)
	if err := srv.Start(ctx, *addr); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
