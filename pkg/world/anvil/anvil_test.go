package anvil

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/OCharnyshevich/gdmc-client/internal/client/chunkdata"
)

func encodeChunk(t *testing.T, x, z int) []byte {
	t.Helper()
	c := chunkdata.Chunk{
		DataVersion: chunkdata.DataVersion116,
		Level: chunkdata.Level{
			XPos:   int32(x),
			ZPos:   int32(z),
			Biomes: make([]int32, chunkdata.BiomeSamples),
		},
	}
	var buf bytes.Buffer
	if err := chunkdata.EncodeChunk(&buf, &c); err != nil {
		t.Fatalf("EncodeChunk: %v", err)
	}
	return buf.Bytes()
}

func TestChunkPosRegion(t *testing.T) {
	tests := []struct {
		pos    ChunkPos
		rx, rz int
		index  int
	}{
		{ChunkPos{0, 0}, 0, 0, 0},
		{ChunkPos{31, 1}, 0, 0, 63},
		{ChunkPos{32, -1}, 1, -1, 992},
		{ChunkPos{-33, 40}, -2, 1, 31 + 8*32},
	}
	for _, tt := range tests {
		rx, rz := tt.pos.Region()
		if rx != tt.rx || rz != tt.rz || tt.pos.index() != tt.index {
			t.Errorf("%+v: region (%d,%d) index %d, want (%d,%d) %d",
				tt.pos, rx, rz, tt.pos.index(), tt.rx, tt.rz, tt.index)
		}
	}
}

func TestSaveAndReadChunks(t *testing.T) {
	dir := t.TempDir()
	chunks := map[ChunkPos][]byte{}
	for _, p := range []ChunkPos{{-1, 0}, {0, 0}, {-1, 1}, {0, 1}, {40, 40}} {
		chunks[p] = encodeChunk(t, p.X, p.Z)
	}
	if err := SaveChunks(dir, chunks); err != nil {
		t.Fatalf("SaveChunks: %v", err)
	}
	for _, rxz := range [][2]int{{-1, 0}, {0, 0}, {1, 1}} {
		if _, err := os.Stat(RegionPath(dir, rxz[0], rxz[1])); err != nil {
			t.Errorf("region %v: %v", rxz, err)
		}
	}

	for p, want := range chunks {
		got, err := ReadChunk(dir, p)
		if err != nil {
			t.Fatalf("ReadChunk(%+v): %v", p, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("ReadChunk(%+v) differs from saved data", p)
		}
	}

	if _, err := ReadChunk(dir, ChunkPos{5, 5}); !errors.Is(err, ErrChunkNotFound) {
		t.Errorf("missing chunk: %v, want ErrChunkNotFound", err)
	}
	if _, err := ReadChunk(dir, ChunkPos{500, 500}); !errors.Is(err, ErrChunkNotFound) {
		t.Errorf("missing region: %v, want ErrChunkNotFound", err)
	}
}

func TestSaveRegionRejectsForeignChunk(t *testing.T) {
	err := SaveRegion(t.TempDir(), 0, 0, map[ChunkPos][]byte{{32, 0}: encodeChunk(t, 32, 0)})
	if err == nil {
		t.Fatal("SaveRegion accepted a chunk of another region")
	}
}

func TestDirGetChunks(t *testing.T) {
	dir := t.TempDir()
	chunks := map[ChunkPos][]byte{}
	for z := 3; z < 5; z++ {
		for x := -2; x < 1; x++ {
			chunks[ChunkPos{x, z}] = encodeChunk(t, x, z)
		}
	}
	if err := SaveChunks(dir, chunks); err != nil {
		t.Fatalf("SaveChunks: %v", err)
	}

	raw, err := Dir(dir).GetChunks(context.Background(), -2, 3, 3, 2)
	if err != nil {
		t.Fatalf("GetChunks: %v", err)
	}
	p, err := chunkdata.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(p.Chunks) != 6 {
		t.Fatalf("got %d chunks, want 6", len(p.Chunks))
	}
	for i, c := range p.Chunks {
		wantX, wantZ := int32(-2+i%3), int32(3+i/3)
		if c.Level.XPos != wantX || c.Level.ZPos != wantZ {
			t.Errorf("chunk %d at (%d,%d), want (%d,%d)", i, c.Level.XPos, c.Level.ZPos, wantX, wantZ)
		}
	}

	if _, err := Dir(dir).GetChunks(context.Background(), -2, 3, 4, 2); !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("GetChunks beyond saved chunks = %v, want ErrChunkNotFound", err)
	}
}
