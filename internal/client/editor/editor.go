// Package editor is the write path of the client: it translates local
// coordinates into global ones and either sends each block immediately or
// buffers placements and sends them as one batch.
//
// An Editor is safe for concurrent use; operations are serialized.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/OCharnyshevich/gdmc-client/internal/client/transport"
)

// DefaultBufferLimit is the number of pending placements that triggers a flush.
const DefaultBufferLimit = 4096

var (
	// ErrFlushFailed is returned when a batch could not be sent. It wraps the
	// error of the last attempt.
	ErrFlushFailed = errors.New("flush failed")
	// ErrNoBuildArea is returned by BuildArea when the server has none set.
	ErrNoBuildArea = transport.ErrNoBuildArea
)

// Transport is the subset of the world interface the editor needs.
// Coordinates are global.
type Transport interface {
	GetBlock(ctx context.Context, x, y, z int) (string, error)
	PutBlock(ctx context.Context, x, y, z int, block string) (string, error)
	PutBlocks(ctx context.Context, batchID string, batch []transport.Placement) (string, error)
	RunCommand(ctx context.Context, command string) (string, error)
	BuildArea(ctx context.Context) (transport.BuildArea, error)
	GetChunks(ctx context.Context, x, z, dx, dz int) ([]byte, error)
}

// Config tunes an Editor.
type Config struct {
	// Offset is added to local coordinates to obtain global ones.
	Offset [3]int
	// BufferLimit is the pending count that triggers an automatic flush.
	// Values below one select DefaultBufferLimit.
	BufferLimit int
	// Retries is the number of extra attempts after a transient failure.
	Retries int
	// RetryDelay is waited between attempts.
	RetryDelay time.Duration
}

// Editor places blocks through a Transport.
type Editor struct {
	t   Transport
	cfg Config
	log *slog.Logger

	// newBatchID names each flushed batch.
	newBatchID func() string

	mu        sync.Mutex
	buffering bool
	pending   []transport.Placement
}

// New creates an Editor in direct mode.
func New(t Transport, cfg Config, log *slog.Logger) *Editor {
	if cfg.BufferLimit < 1 {
		cfg.BufferLimit = DefaultBufferLimit
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if log == nil {
		log = slog.Default()
	}
	return &Editor{
		t:          t,
		cfg:        cfg,
		log:        log,
		newBatchID: func() string { return uuid.NewString() },
	}
}

// LocalToGlobal translates local coordinates by the configured offset.
func (e *Editor) LocalToGlobal(x, y, z int) (int, int, int) {
	return x + e.cfg.Offset[0], y + e.cfg.Offset[1], z + e.cfg.Offset[2]
}

// GlobalToLocal is the inverse of LocalToGlobal.
func (e *Editor) GlobalToLocal(x, y, z int) (int, int, int) {
	return x - e.cfg.Offset[0], y - e.cfg.Offset[1], z - e.cfg.Offset[2]
}

// Buffering reports whether placements are being buffered.
func (e *Editor) Buffering() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffering
}

// Pending returns the number of buffered placements.
func (e *Editor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// SetBuffering switches between direct and buffered mode. Leaving buffered
// mode flushes first; if that flush fails the editor stays buffered and the
// placements remain pending.
func (e *Editor) SetBuffering(ctx context.Context, on bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setBufferingLocked(ctx, on)
}

func (e *Editor) setBufferingLocked(ctx context.Context, on bool) error {
	if !on {
		if err := e.flushLocked(ctx); err != nil {
			return err
		}
	}
	if on == e.buffering {
		return nil
	}
	e.buffering = on
	e.log.Info("block buffering switched", "buffering", on)
	return nil
}

// ToggleBuffer flips the buffering mode and returns the new mode.
func (e *Editor) ToggleBuffer(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.setBufferingLocked(ctx, !e.buffering); err != nil {
		return e.buffering, err
	}
	return e.buffering, nil
}

// SetBlock places block at local (x, y, z). In direct mode it returns the
// server response; in buffered mode it returns an empty response and only
// fails when the placement triggers a flush that fails.
func (e *Editor) SetBlock(ctx context.Context, x, y, z int, block string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setBlockLocked(ctx, x, y, z, block)
}

func (e *Editor) setBlockLocked(ctx context.Context, x, y, z int, block string) (string, error) {
	gx, gy, gz := e.LocalToGlobal(x, y, z)
	if !e.buffering {
		return e.t.PutBlock(ctx, gx, gy, gz, block)
	}

	e.pending = append(e.pending, transport.Placement{X: gx, Y: gy, Z: gz, Block: block})
	if len(e.pending) >= e.cfg.BufferLimit {
		return "", e.flushLocked(ctx)
	}
	return "", nil
}

// Fill places block at every position of the cuboid spanned by the two
// local corners, inclusive, in any corner order. It stops at the first
// failed placement.
func (e *Editor) Fill(ctx context.Context, x1, y1, z1, x2, y2, z2 int, block string) error {
	x1, x2 = min(x1, x2), max(x1, x2)
	y1, y2 = min(y1, y2), max(y1, y2)
	z1, z2 = min(z1, z2), max(z1, z2)

	e.mu.Lock()
	defer e.mu.Unlock()
	for x := x1; x <= x2; x++ {
		for y := y1; y <= y2; y++ {
			for z := z1; z <= z2; z++ {
				if _, err := e.setBlockLocked(ctx, x, y, z, block); err != nil {
					return fmt.Errorf("fill at (%d,%d,%d): %w", x, y, z, err)
				}
			}
		}
	}
	return nil
}

// Flush sends all pending placements as one batch. Transient failures are
// retried with the identical batch; the pending placements are cleared only
// once a batch is accepted. A failed flush may still have been applied in
// part by the server.
func (e *Editor) Flush(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flushLocked(ctx)
}

func (e *Editor) flushLocked(ctx context.Context) error {
	if len(e.pending) == 0 {
		return nil
	}

	batch := e.pending
	id := e.newBatchID()
	attempts := e.cfg.Retries + 1

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 && e.cfg.RetryDelay > 0 {
			if werr := wait(ctx, e.cfg.RetryDelay); werr != nil {
				err = werr
				break
			}
		}

		_, err = e.t.PutBlocks(ctx, id, batch)
		if err == nil {
			e.pending = nil
			e.log.Debug("flushed blocks", "batch", id, "blocks", len(batch), "attempt", attempt)
			return nil
		}

		e.log.Warn("flush attempt failed",
			"batch", id,
			"attempt", attempt,
			"remaining", attempts-attempt,
			"error", err,
		)
		if !transport.IsTransient(err) {
			break
		}
	}
	return fmt.Errorf("%w: batch %s with %d blocks: %w", ErrFlushFailed, id, len(batch), err)
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Close flushes pending placements. The flush runs to completion even when
// ctx is already cancelled, so a shutdown signal does not drop buffered
// placements. The editor remains usable.
func (e *Editor) Close(ctx context.Context) error {
	return e.Flush(context.WithoutCancel(ctx))
}

// GetBlock reads the block at local (x, y, z) from the server. Pending
// placements are not consulted.
func (e *Editor) GetBlock(ctx context.Context, x, y, z int) (string, error) {
	gx, gy, gz := e.LocalToGlobal(x, y, z)
	return e.t.GetBlock(ctx, gx, gy, gz)
}

// RunCommand executes a server command and returns its output.
func (e *Editor) RunCommand(ctx context.Context, command string) (string, error) {
	return e.t.RunCommand(ctx, command)
}

// BuildArea returns the server's build area in local coordinates.
func (e *Editor) BuildArea(ctx context.Context) (transport.BuildArea, error) {
	a, err := e.t.BuildArea(ctx)
	if err != nil {
		return transport.BuildArea{}, err
	}
	a.XFrom, a.YFrom, a.ZFrom = e.GlobalToLocal(a.XFrom, a.YFrom, a.ZFrom)
	a.XTo, a.YTo, a.ZTo = e.GlobalToLocal(a.XTo, a.YTo, a.ZTo)
	return a, nil
}
