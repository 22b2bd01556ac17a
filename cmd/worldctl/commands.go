package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/OCharnyshevich/gdmc-client/internal/client/chunkdata"
	"github.com/OCharnyshevich/gdmc-client/internal/client/editor"
	"github.com/OCharnyshevich/gdmc-client/internal/client/worldslice"
	"github.com/OCharnyshevich/gdmc-client/pkg/world/anvil"
)

var errUsage = errors.New("usage")

func (a *app) run(ctx context.Context, out io.Writer, name string, args []string) error {
	switch name {
	case "get":
		p, err := ints(args, 3)
		if err != nil {
			return err
		}
		block, err := a.editor.GetBlock(ctx, p[0], p[1], p[2])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, block)

	case "set":
		if len(args) != 4 {
			return fmt.Errorf("%w: set x y z block", errUsage)
		}
		p, err := ints(args[:3], 3)
		if err != nil {
			return err
		}
		resp, err := a.editor.SetBlock(ctx, p[0], p[1], p[2], args[3])
		if err != nil {
			return err
		}
		if resp != "" {
			fmt.Fprintln(out, resp)
		}

	case "fill":
		if len(args) != 7 {
			return fmt.Errorf("%w: fill x1 y1 z1 x2 y2 z2 block", errUsage)
		}
		p, err := ints(args[:6], 6)
		if err != nil {
			return err
		}
		if err := a.editor.Fill(ctx, p[0], p[1], p[2], p[3], p[4], p[5], args[6]); err != nil {
			return err
		}
		volume := (abs(p[3]-p[0]) + 1) * (abs(p[4]-p[1]) + 1) * (abs(p[5]-p[2]) + 1)
		fmt.Fprintf(out, "placed %d blocks\n", volume)

	case "command":
		if len(args) == 0 {
			return fmt.Errorf("%w: command text...", errUsage)
		}
		resp, err := a.editor.RunCommand(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, resp)

	case "buildarea":
		area, err := a.editor.BuildArea(ctx)
		if errors.Is(err, editor.ErrNoBuildArea) {
			fmt.Fprintln(out, "no build area set")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "from (%d, %d, %d) to (%d, %d, %d)\n",
			area.XFrom, area.YFrom, area.ZFrom, area.XTo, area.YTo, area.ZTo)

	case "slice":
		p, err := ints(args, 4)
		if err != nil {
			return err
		}
		return a.describeSlice(ctx, out, p[0], p[1], p[2], p[3])

	case "biome":
		p, err := ints(args, 3)
		if err != nil {
			return err
		}
		v, err := a.loadView(ctx, p[0], p[2], p[0]+1, p[2]+1)
		if err != nil {
			return err
		}
		b, err := v.BiomeAt(p[0], p[1], p[2])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, b.Namespaced())

	case "export":
		if len(args) != 5 {
			return fmt.Errorf("%w: export x1 z1 x2 z2 dir", errUsage)
		}
		p, err := ints(args[:4], 4)
		if err != nil {
			return err
		}
		n, err := a.export(ctx, p[0], p[1], p[2], p[3], args[4])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %d chunks to %s\n", n, args[4])

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
	return nil
}

func (a *app) loadView(ctx context.Context, x1, z1, x2, z2 int) (*editor.View, error) {
	biomes, err := a.cfg.Biomes()
	if err != nil {
		return nil, err
	}
	opts := worldslice.Options{
		HeightmapKinds: a.cfg.HeightmapTypes,
		Biomes:         biomes,
		Logger:         a.log,
	}
	if a.chunks != nil {
		return a.editor.LoadViewFrom(ctx, a.chunks, x1, z1, x2, z2, opts)
	}
	return a.editor.LoadView(ctx, x1, z1, x2, z2, opts)
}

// export fetches the chunks covering a local area from the server and saves
// them as region files under dir.
func (a *app) export(ctx context.Context, x1, z1, x2, z2 int, dir string) (int, error) {
	if x2 <= x1 || z2 <= z1 {
		return 0, fmt.Errorf("%w: export needs x1 < x2 and z1 < z2", errUsage)
	}
	gx1, _, gz1 := a.editor.LocalToGlobal(x1, 0, z1)
	gx2, _, gz2 := a.editor.LocalToGlobal(x2, 0, z2)
	rect := worldslice.NewRegion(gx1, gz1, gx2, gz2).ChunkRect()

	raw, err := a.tr.GetChunks(ctx, rect.X, rect.Z, rect.CountX, rect.CountZ)
	if err != nil {
		return 0, err
	}
	payload, err := chunkdata.Decode(raw)
	if err != nil {
		return 0, err
	}

	chunks := make(map[anvil.ChunkPos][]byte, len(payload.Chunks))
	for i := range payload.Chunks {
		c := &payload.Chunks[i]
		var buf bytes.Buffer
		if err := chunkdata.EncodeChunk(&buf, c); err != nil {
			return 0, err
		}
		chunks[anvil.ChunkPos{X: int(c.Level.XPos), Z: int(c.Level.ZPos)}] = buf.Bytes()
	}
	if err := anvil.SaveChunks(dir, chunks); err != nil {
		return 0, err
	}
	a.log.Info("exported chunks", "dir", dir, "chunks", len(chunks), "from", rect)
	return len(chunks), nil
}

func (a *app) describeSlice(ctx context.Context, out io.Writer, x1, z1, x2, z2 int) error {
	if x2 <= x1 || z2 <= z1 {
		return fmt.Errorf("%w: slice needs x1 < x2 and z1 < z2", errUsage)
	}
	v, err := a.loadView(ctx, x1, z1, x2, z2)
	if err != nil {
		return err
	}
	s := v.Slice()
	rect := s.ChunkRect()
	fmt.Fprintf(out, "%s: %d×%d chunks from chunk (%d, %d)\n", s, rect.CountX, rect.CountZ, rect.X, rect.Z)

	for _, kind := range s.HeightmapKinds() {
		lo, hi := 0, 0
		for x := x1; x < x2; x++ {
			for z := z1; z < z2; z++ {
				h, err := v.HeightAt(x, z, kind)
				if err != nil {
					return err
				}
				if (x == x1 && z == z1) || h < lo {
					lo = h
				}
				if (x == x1 && z == z1) || h > hi {
					hi = h
				}
			}
		}
		fmt.Fprintf(out, "%s: %d..%d\n", kind, lo, hi)
	}

	cx, cy, cz := (x1+x2)/2, 64, (z1+z2)/2
	if kinds := s.HeightmapKinds(); len(kinds) > 0 {
		if cy, err = v.HeightAt(cx, cz, kinds[0]); err != nil {
			return err
		}
	}
	primary, err := v.PrimaryBiomeNear(cx, cy, cz)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "primary biome near centre: %s\n", primary.Namespaced())

	for _, w := range s.Warnings() {
		fmt.Fprintf(out, "warning: %v\n", w)
	}
	return nil
}

func ints(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%w: want %d integer arguments, got %d", errUsage, n, len(args))
	}
	out := make([]int, n)
	for i, s := range args {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d: %w", errUsage, i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
