package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/OCharnyshevich/gdmc-client/internal/client/config"
	"github.com/OCharnyshevich/gdmc-client/internal/client/editor"
	"github.com/OCharnyshevich/gdmc-client/internal/client/transport"
	"github.com/OCharnyshevich/gdmc-client/internal/client/worldslice"
	"github.com/OCharnyshevich/gdmc-client/pkg/world/anvil"
)

const usage = `usage: worldctl [flags] <command> [args]

commands:
  get x y z                       print the block at a position
  set x y z block                 place a block
  fill x1 y1 z1 x2 y2 z2 block    fill a cuboid, corners inclusive
  command text...                 run a server command
  buildarea                       print the build area
  slice x1 z1 x2 z2               summarise heights and biomes of an area
  biome x y z                     print the biome at a position
  export x1 z1 x2 z2 dir          save the chunks of an area as region files

Coordinates are local: the -offset is added before they reach the server.
With -world, slice and biome read a directory written by export instead.

flags:
`

func main() {
	cfg := config.DefaultConfig()

	var (
		configPath = flag.String("config", "", "YAML config file")
		buffered   = flag.Bool("buffer", false, "buffer block writes and send them in batches")
		worldDir   = flag.String("world", "", "region directory to read slices from instead of the server")
		logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, error")
		heightmaps = strings.Join(cfg.HeightmapTypes, ",")
	)
	flag.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "world interface base URL")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout")
	flag.IntVar(&cfg.BufferLimit, "buffer-limit", cfg.BufferLimit, "pending blocks that trigger a flush")
	flag.IntVar(&cfg.Retries, "retries", cfg.Retries, "extra attempts for a failed flush")
	flag.DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "wait between flush attempts")
	flag.Var((*offsetFlag)(&cfg.Offset), "offset", "global position of local origin as x,y,z")
	flag.StringVar(&heightmaps, "heightmaps", heightmaps, "comma-separated heightmap kinds to load")
	flag.StringVar(&cfg.BiomesFile, "biomes", cfg.BiomesFile, "minecraft-data biomes.json (default: embedded table)")
	flag.StringVar(&cfg.GameVersion, "game-version", cfg.GameVersion, "game version of the embedded tables")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	cfg.HeightmapTypes = splitList(heightmaps)

	if *configPath != "" {
		fromFile, err := config.Load(*configPath)
		if err != nil {
			log.Error("load config", "error", err)
			os.Exit(1)
		}
		config.Merge(cfg, fromFile, explicit)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(2)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := newApp(cfg, log)
	if err != nil {
		log.Error("create client", "error", err)
		os.Exit(1)
	}
	if *worldDir != "" {
		app.chunks = anvil.Dir(*worldDir)
	}
	if *buffered {
		if err := app.editor.SetBuffering(ctx, true); err != nil {
			log.Error("enable buffering", "error", err)
			os.Exit(1)
		}
	}

	runErr := app.run(ctx, os.Stdout, flag.Arg(0), flag.Args()[1:])
	if err := app.editor.Close(ctx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if runErr != nil {
		log.Error(flag.Arg(0), "error", runErr)
		if errors.Is(runErr, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type app struct {
	cfg    *config.Config
	log    *slog.Logger
	editor *editor.Editor
	tr     *transport.Client

	// chunks serves slice reads; nil reads from the server.
	chunks worldslice.ChunkFetcher
}

func newApp(cfg *config.Config, log *slog.Logger) (*app, error) {
	tr, err := transport.New(cfg.ServerURL, cfg.Timeout, log)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, editor: editor.New(tr, cfg.Editor(), log), tr: tr}, nil
}

// offsetFlag parses "x,y,z".
type offsetFlag [3]int

func (o *offsetFlag) String() string {
	return fmt.Sprintf("%d,%d,%d", o[0], o[1], o[2])
}

func (o *offsetFlag) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return fmt.Errorf("want x,y,z, got %q", s)
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("coordinate %d: %w", i, err)
		}
		o[i] = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
