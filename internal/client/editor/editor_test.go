package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/OCharnyshevich/gdmc-client/internal/client/transport"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeTransport records calls and fails PutBlocks with the scripted errors,
// one per call, succeeding once the script is exhausted.
type fakeTransport struct {
	putBlocksErrs []error

	puts    []transport.Placement
	batches [][]transport.Placement
	ids     []string
	area    transport.BuildArea
	areaErr error
}

func (f *fakeTransport) GetBlock(_ context.Context, x, y, z int) (string, error) {
	return fmt.Sprintf("block@%d,%d,%d", x, y, z), nil
}

func (f *fakeTransport) PutBlock(_ context.Context, x, y, z int, block string) (string, error) {
	f.puts = append(f.puts, transport.Placement{X: x, Y: y, Z: z, Block: block})
	return "1", nil
}

func (f *fakeTransport) PutBlocks(_ context.Context, id string, batch []transport.Placement) (string, error) {
	f.ids = append(f.ids, id)
	f.batches = append(f.batches, append([]transport.Placement(nil), batch...))
	if len(f.putBlocksErrs) > 0 {
		err := f.putBlocksErrs[0]
		f.putBlocksErrs = f.putBlocksErrs[1:]
		if err != nil {
			return "", err
		}
	}
	return "1", nil
}

func (f *fakeTransport) RunCommand(_ context.Context, command string) (string, error) {
	return "ran " + command, nil
}

func (f *fakeTransport) BuildArea(context.Context) (transport.BuildArea, error) {
	return f.area, f.areaErr
}

func (f *fakeTransport) GetChunks(context.Context, int, int, int, int) ([]byte, error) {
	return nil, errors.New("not implemented")
}

var unavailable = &transport.StatusError{Method: http.MethodPut, Path: "/blocks", Code: http.StatusServiceUnavailable}

func newBuffered(t *testing.T, f *fakeTransport, cfg Config) *Editor {
	t.Helper()
	e := New(f, cfg, quiet)
	if err := e.SetBuffering(context.Background(), true); err != nil {
		t.Fatalf("SetBuffering: %v", err)
	}
	return e
}

func TestCoordinateTranslation(t *testing.T) {
	e := New(&fakeTransport{}, Config{Offset: [3]int{100, -10, -50}}, quiet)

	gx, gy, gz := e.LocalToGlobal(1, 2, 3)
	if gx != 101 || gy != -8 || gz != -47 {
		t.Fatalf("LocalToGlobal = (%d,%d,%d)", gx, gy, gz)
	}
	lx, ly, lz := e.GlobalToLocal(gx, gy, gz)
	if lx != 1 || ly != 2 || lz != 3 {
		t.Fatalf("GlobalToLocal = (%d,%d,%d)", lx, ly, lz)
	}
}

func TestDirectModeSendsEachBlock(t *testing.T) {
	f := &fakeTransport{}
	e := New(f, Config{Offset: [3]int{100, 0, -50}}, quiet)

	resp, err := e.SetBlock(context.Background(), 1, 2, 3, "minecraft:stone")
	if err != nil || resp != "1" {
		t.Fatalf("SetBlock = %q, %v", resp, err)
	}
	want := []transport.Placement{{X: 101, Y: 2, Z: -47, Block: "minecraft:stone"}}
	if !reflect.DeepEqual(f.puts, want) {
		t.Fatalf("puts = %+v, want %+v", f.puts, want)
	}
	if len(f.batches) != 0 || e.Pending() != 0 {
		t.Fatal("direct mode must not buffer")
	}
}

func TestBufferLimitTriggersSingleFlush(t *testing.T) {
	f := &fakeTransport{}
	e := newBuffered(t, f, Config{BufferLimit: 3})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := e.SetBlock(ctx, i, 0, 0, "minecraft:stone"); err != nil {
			t.Fatalf("SetBlock %d: %v", i, err)
		}
	}
	if len(f.batches) != 0 || len(f.puts) != 0 {
		t.Fatal("no transport call expected below the limit")
	}
	if e.Pending() != 2 {
		t.Fatalf("Pending() = %d, want 2", e.Pending())
	}

	if _, err := e.SetBlock(ctx, 2, 0, 0, "minecraft:glass"); err != nil {
		t.Fatalf("SetBlock 2: %v", err)
	}
	want := [][]transport.Placement{{
		{X: 0, Y: 0, Z: 0, Block: "minecraft:stone"},
		{X: 1, Y: 0, Z: 0, Block: "minecraft:stone"},
		{X: 2, Y: 0, Z: 0, Block: "minecraft:glass"},
	}}
	if !reflect.DeepEqual(f.batches, want) {
		t.Fatalf("batches = %+v, want %+v", f.batches, want)
	}
	if e.Pending() != 0 {
		t.Fatalf("Pending() = %d after flush, want 0", e.Pending())
	}
}

func TestFlushRetriesTransientFailures(t *testing.T) {
	f := &fakeTransport{putBlocksErrs: []error{
		unavailable,
		fmt.Errorf("%w: connection reset", transport.ErrTransport),
	}}
	e := newBuffered(t, f, Config{Retries: 5})
	ctx := context.Background()

	e.SetBlock(ctx, 0, 0, 0, "minecraft:stone")
	e.SetBlock(ctx, 0, 1, 0, "minecraft:dirt")

	if err := e.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(f.batches) != 3 {
		t.Fatalf("attempts = %d, want 3", len(f.batches))
	}
	for i := 1; i < 3; i++ {
		if f.ids[i] != f.ids[0] {
			t.Errorf("attempt %d used batch id %q, want %q", i+1, f.ids[i], f.ids[0])
		}
		if !reflect.DeepEqual(f.batches[i], f.batches[0]) {
			t.Errorf("attempt %d sent %+v, want %+v", i+1, f.batches[i], f.batches[0])
		}
	}
	if e.Pending() != 0 {
		t.Fatalf("Pending() = %d, want 0", e.Pending())
	}
}

func TestFlushGivesUp(t *testing.T) {
	tests := []struct {
		name         string
		retries      int
		errs         []error
		wantAttempts int
	}{
		{"retries exhausted", 2, []error{unavailable, unavailable, unavailable, unavailable}, 3},
		{"no retries", 0, []error{unavailable}, 1},
		{"permanent failure", 5, []error{&transport.StatusError{Code: http.StatusBadRequest}}, 1},
		{"bad response", 5, []error{fmt.Errorf("%w: %w", transport.ErrTransport, transport.ErrBadResponse)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeTransport{putBlocksErrs: tt.errs}
			e := newBuffered(t, f, Config{Retries: tt.retries})
			ctx := context.Background()
			e.SetBlock(ctx, 0, 0, 0, "minecraft:stone")

			err := e.Flush(ctx)
			if !errors.Is(err, ErrFlushFailed) {
				t.Fatalf("Flush = %v, want ErrFlushFailed", err)
			}
			if !errors.Is(err, transport.ErrTransport) {
				t.Fatalf("Flush error should wrap the last attempt: %v", err)
			}
			if len(f.batches) != tt.wantAttempts {
				t.Fatalf("attempts = %d, want %d", len(f.batches), tt.wantAttempts)
			}
			if e.Pending() != 1 {
				t.Fatalf("Pending() = %d, want 1", e.Pending())
			}
		})
	}
}

func TestFlushRetryDelayHonoursContext(t *testing.T) {
	f := &fakeTransport{putBlocksErrs: []error{unavailable}}
	e := newBuffered(t, f, Config{Retries: 3, RetryDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	e.SetBlock(ctx, 0, 0, 0, "minecraft:stone")
	cancel()

	err := e.Flush(ctx)
	if !errors.Is(err, ErrFlushFailed) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Flush = %v", err)
	}
	if len(f.batches) != 1 {
		t.Fatalf("attempts = %d, want 1", len(f.batches))
	}
}

func TestFlushEmptyBuffer(t *testing.T) {
	f := &fakeTransport{}
	e := newBuffered(t, f, Config{})
	if err := e.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(f.batches) != 0 {
		t.Fatal("empty flush must not send")
	}
}

func TestLeavingBufferedMode(t *testing.T) {
	ctx := context.Background()

	t.Run("no pending", func(t *testing.T) {
		f := &fakeTransport{}
		e := newBuffered(t, f, Config{})
		if err := e.SetBuffering(ctx, false); err != nil {
			t.Fatalf("SetBuffering(false): %v", err)
		}
		if e.Buffering() {
			t.Fatal("still buffering")
		}
	})

	t.Run("flushes pending", func(t *testing.T) {
		f := &fakeTransport{}
		e := newBuffered(t, f, Config{})
		e.SetBlock(ctx, 0, 0, 0, "minecraft:stone")
		e.SetBlock(ctx, 1, 0, 0, "minecraft:stone")
		if err := e.SetBuffering(ctx, false); err != nil {
			t.Fatalf("SetBuffering(false): %v", err)
		}
		if len(f.batches) != 1 || len(f.batches[0]) != 2 {
			t.Fatalf("batches = %+v", f.batches)
		}
	})

	t.Run("failed flush stays buffered", func(t *testing.T) {
		f := &fakeTransport{putBlocksErrs: []error{unavailable}}
		e := newBuffered(t, f, Config{})
		e.SetBlock(ctx, 0, 0, 0, "minecraft:stone")
		if err := e.SetBuffering(ctx, false); !errors.Is(err, ErrFlushFailed) {
			t.Fatalf("SetBuffering(false) = %v", err)
		}
		if !e.Buffering() || e.Pending() != 1 {
			t.Fatalf("Buffering() = %v, Pending() = %d", e.Buffering(), e.Pending())
		}
	})
}

func TestToggleBuffer(t *testing.T) {
	f := &fakeTransport{}
	e := New(f, Config{}, quiet)
	ctx := context.Background()

	on, err := e.ToggleBuffer(ctx)
	if err != nil || !on {
		t.Fatalf("ToggleBuffer = %v, %v", on, err)
	}
	e.SetBlock(ctx, 0, 0, 0, "minecraft:stone")
	on, err = e.ToggleBuffer(ctx)
	if err != nil || on {
		t.Fatalf("ToggleBuffer = %v, %v", on, err)
	}
	if len(f.batches) != 1 {
		t.Fatalf("toggle off should flush, batches = %d", len(f.batches))
	}
}

func TestFill(t *testing.T) {
	f := &fakeTransport{}
	e := newBuffered(t, f, Config{Offset: [3]int{10, 0, 0}})

	if err := e.Fill(context.Background(), 1, 5, 2, 0, 3, 3, "minecraft:glass"); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if e.Pending() != 2*3*2 {
		t.Fatalf("Pending() = %d, want 12", e.Pending())
	}
	if err := e.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	batch := f.batches[0]
	if first := batch[0]; first != (transport.Placement{X: 10, Y: 3, Z: 2, Block: "minecraft:glass"}) {
		t.Fatalf("first placement = %+v", first)
	}
	if last := batch[len(batch)-1]; last != (transport.Placement{X: 11, Y: 5, Z: 3, Block: "minecraft:glass"}) {
		t.Fatalf("last placement = %+v", last)
	}
}

func TestFillStopsOnError(t *testing.T) {
	f := &fakeTransport{putBlocksErrs: []error{unavailable}}
	e := newBuffered(t, f, Config{BufferLimit: 2})

	err := e.Fill(context.Background(), 0, 0, 0, 3, 0, 0, "minecraft:stone")
	if !errors.Is(err, ErrFlushFailed) {
		t.Fatalf("Fill = %v, want ErrFlushFailed", err)
	}
	if e.Pending() != 2 {
		t.Fatalf("Pending() = %d, want 2", e.Pending())
	}
}

func TestReadsAndCommands(t *testing.T) {
	f := &fakeTransport{area: transport.BuildArea{XFrom: 100, YFrom: 0, ZFrom: 200, XTo: 150, YTo: 255, ZTo: 250}}
	e := New(f, Config{Offset: [3]int{100, 0, 200}}, quiet)
	ctx := context.Background()

	if got, _ := e.GetBlock(ctx, 1, 2, 3); got != "block@101,2,203" {
		t.Errorf("GetBlock = %q", got)
	}
	if got, _ := e.RunCommand(ctx, "time set day"); got != "ran time set day" {
		t.Errorf("RunCommand = %q", got)
	}

	area, err := e.BuildArea(ctx)
	if err != nil {
		t.Fatalf("BuildArea: %v", err)
	}
	want := transport.BuildArea{XFrom: 0, YFrom: 0, ZFrom: 0, XTo: 50, YTo: 255, ZTo: 50}
	if area != want {
		t.Errorf("BuildArea = %+v, want %+v", area, want)
	}

	f.areaErr = transport.ErrNoBuildArea
	if _, err := e.BuildArea(ctx); !errors.Is(err, ErrNoBuildArea) {
		t.Errorf("BuildArea = %v, want ErrNoBuildArea", err)
	}
}
