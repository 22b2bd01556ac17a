// Package anvil reads and writes chunks in region (.mca) files, so world
// slices can be exported from a server and loaded again offline.
package anvil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

const (
	sectorSize      = 4096
	headerSectors   = 2 // location table + timestamp table
	chunksPerRegion = 32

	compressionGzip = 1
	compressionZlib = 2
	compressionNone = 3
)

// ErrChunkNotFound is returned for a chunk absent from its region file.
var ErrChunkNotFound = errors.New("chunk not in region")

// ChunkPos identifies a chunk by its X and Z coordinates.
type ChunkPos struct{ X, Z int }

// Region returns the coordinates of the region file holding the chunk.
func (p ChunkPos) Region() (int, int) {
	return p.X >> 5, p.Z >> 5
}

func (p ChunkPos) index() int {
	return (p.X & (chunksPerRegion - 1)) + (p.Z&(chunksPerRegion-1))*chunksPerRegion
}

// RegionPath returns the path of region (rx, rz) under dir.
func RegionPath(dir string, rx, rz int) string {
	return filepath.Join(dir, fmt.Sprintf("r.%d.%d.mca", rx, rz))
}

// SaveRegion writes all provided chunks to a .mca region file, replacing any
// existing file. chunks maps chunk positions to their uncompressed NBT data;
// every chunk must belong to region (rx, rz).
func SaveRegion(dir string, rx, rz int, chunks map[ChunkPos][]byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create region dir: %w", err)
	}

	locations := make([]byte, sectorSize)
	timestamps := make([]byte, sectorSize)
	now := uint32(time.Now().Unix())

	// Each chunk: 4 bytes length + 1 byte compression type + compressed data,
	// padded to a sector boundary.
	var data bytes.Buffer
	sector := uint32(headerSectors)
	for pos, raw := range chunks {
		if x, z := pos.Region(); x != rx || z != rz {
			return fmt.Errorf("chunk (%d,%d) is not in region (%d,%d)", pos.X, pos.Z, rx, rz)
		}

		var compressed bytes.Buffer
		zw, err := zlib.NewWriterLevel(&compressed, zlib.DefaultCompression)
		if err != nil {
			return fmt.Errorf("create zlib writer: %w", err)
		}
		if _, err := zw.Write(raw); err != nil {
			return fmt.Errorf("compress chunk (%d,%d): %w", pos.X, pos.Z, err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("close zlib writer: %w", err)
		}

		length := uint32(compressed.Len()) + 1
		sectors := (length + 4 + sectorSize - 1) / sectorSize
		if sectors > 0xFF {
			return fmt.Errorf("chunk (%d,%d): %d sectors exceed the region format", pos.X, pos.Z, sectors)
		}

		off := pos.index() * 4
		binary.BigEndian.PutUint32(locations[off:off+4], sector<<8|sectors)
		binary.BigEndian.PutUint32(timestamps[off:off+4], now)

		var header [5]byte
		binary.BigEndian.PutUint32(header[0:4], length)
		header[4] = compressionZlib
		data.Write(header[:])
		data.Write(compressed.Bytes())
		if pad := int(sectors)*sectorSize - int(length+4); pad > 0 {
			data.Write(make([]byte, pad))
		}
		sector += sectors
	}

	// Write the file atomically.
	path := RegionPath(dir, rx, rz)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp region file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmp)
	}()

	for _, part := range [][]byte{locations, timestamps, data.Bytes()} {
		if _, err := f.Write(part); err != nil {
			return fmt.Errorf("write region file: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close region file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename region file: %w", err)
	}
	return nil
}

// SaveChunks groups chunks by region and writes one region file per group.
func SaveChunks(dir string, chunks map[ChunkPos][]byte) error {
	regions := make(map[[2]int]map[ChunkPos][]byte)
	for pos, raw := range chunks {
		rx, rz := pos.Region()
		key := [2]int{rx, rz}
		if regions[key] == nil {
			regions[key] = make(map[ChunkPos][]byte)
		}
		regions[key][pos] = raw
	}
	for key, group := range regions {
		if err := SaveRegion(dir, key[0], key[1], group); err != nil {
			return err
		}
	}
	return nil
}

// ReadChunk returns the uncompressed NBT of one chunk from the region files
// under dir.
func ReadChunk(dir string, pos ChunkPos) ([]byte, error) {
	rx, rz := pos.Region()
	f, err := os.Open(RegionPath(dir, rx, rz))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: chunk (%d,%d), no region file", ErrChunkNotFound, pos.X, pos.Z)
	}
	if err != nil {
		return nil, fmt.Errorf("open region: %w", err)
	}
	defer f.Close()

	var loc [4]byte
	if _, err := f.ReadAt(loc[:], int64(pos.index()*4)); err != nil {
		return nil, fmt.Errorf("read location of chunk (%d,%d): %w", pos.X, pos.Z, err)
	}
	v := binary.BigEndian.Uint32(loc[:])
	if v == 0 {
		return nil, fmt.Errorf("%w: chunk (%d,%d)", ErrChunkNotFound, pos.X, pos.Z)
	}

	var header [5]byte
	start := int64(v>>8) * sectorSize
	if _, err := f.ReadAt(header[:], start); err != nil {
		return nil, fmt.Errorf("read chunk (%d,%d) header: %w", pos.X, pos.Z, err)
	}
	length := binary.BigEndian.Uint32(header[0:4])
	if length < 1 || length > (v&0xFF)*sectorSize {
		return nil, fmt.Errorf("chunk (%d,%d): bad length %d", pos.X, pos.Z, length)
	}
	compressed := io.NewSectionReader(f, start+5, int64(length-1))

	var r io.Reader
	switch header[4] {
	case compressionGzip:
		zr, err := gzip.NewReader(compressed)
		if err != nil {
			return nil, fmt.Errorf("chunk (%d,%d): %w", pos.X, pos.Z, err)
		}
		defer zr.Close()
		r = zr
	case compressionZlib:
		zr, err := zlib.NewReader(compressed)
		if err != nil {
			return nil, fmt.Errorf("chunk (%d,%d): %w", pos.X, pos.Z, err)
		}
		defer zr.Close()
		r = zr
	case compressionNone:
		r = compressed
	default:
		return nil, fmt.Errorf("chunk (%d,%d): unknown compression %d", pos.X, pos.Z, header[4])
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress chunk (%d,%d): %w", pos.X, pos.Z, err)
	}
	return raw, nil
}
