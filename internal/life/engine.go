// Package life is the simulation engine: world buffers living on a compute
// device, the byte-per-cell and bit-packed iteration kernels, the codec
// between the two representations and the shared lookup table.
//
// An Engine is not safe for concurrent use. Lifecycle calls (Resize, Release,
// SwitchMode) must not overlap an Iterate call.
package life

import (
	"errors"
	"fmt"
	"math"

	"bitlife/internal/core"
	"bitlife/internal/device"
)

// noFailure is the failure threshold when no allocation has failed.
const noFailure = math.MaxInt

// IterateOptions are launch parameters. None of them change the result.
type IterateOptions struct {
	Threads        int
	UseLookupTable bool
	BytesPerThread int
	BigChunks      bool
}

// DefaultIterateOptions mirrors the defaults of the command line tools.
func DefaultIterateOptions() IterateOptions {
	return IterateOptions{Threads: 256, UseLookupTable: true, BytesPerThread: 8}
}

// Engine owns the device buffers of one world.
type Engine struct {
	dev  *device.Device
	geom core.Geometry

	cells Pair
	bits  Pair

	live        core.Mode
	initialized bool
	generation  int64

	// failedSize is the smallest allocation known to fail since the last
	// resize; requests at or above it are refused without trying.
	failedSize int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithBoundary sets the edge policy used by the kernels.
func WithBoundary(b core.Boundary) EngineOption {
	return func(e *Engine) { e.geom.Boundary = b }
}

// WithSize records initial dimensions without allocating.
func WithSize(w, h int) EngineOption {
	return func(e *Engine) { e.geom.W, e.geom.H = w, h }
}

// NewEngine returns an engine with no buffers.
func NewEngine(dev *device.Device, opts ...EngineOption) *Engine {
	e := &Engine{dev: dev, failedSize: noFailure}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Device returns the device the engine allocates from.
func (e *Engine) Device() *device.Device { return e.dev }

// Geometry returns the world geometry.
func (e *Engine) Geometry() core.Geometry { return e.geom }

// Size returns the world dimensions.
func (e *Engine) Size() core.Size { return core.Size{W: e.geom.W, H: e.geom.H} }

// LiveMode reports which representation holds the world.
func (e *Engine) LiveMode() core.Mode { return e.live }

// Generation counts generations since the world was last initialized or
// loaded.
func (e *Engine) Generation() int64 { return e.generation }

// Initialized reports whether the live buffers hold a world.
func (e *Engine) Initialized() bool { return e.initialized }

// FailedAllocationSize returns the remembered failure threshold and whether
// one is set.
func (e *Engine) FailedAllocationSize() (int, bool) {
	return e.failedSize, e.failedSize != noFailure
}

// SetBoundary changes the edge policy for subsequent iterations.
func (e *Engine) SetBoundary(b core.Boundary) { e.geom.Boundary = b }

// Validate checks that the current geometry can be used with mode.
func (e *Engine) Validate(mode core.Mode) error {
	if e.geom.W <= 0 || e.geom.H <= 0 {
		return fmt.Errorf("world %dx%d is empty", e.geom.W, e.geom.H)
	}
	if mode == core.ModeBits && e.geom.W%8 != 0 {
		return fmt.Errorf("bit-packed worlds need a width divisible by 8, got %d", e.geom.W)
	}
	return nil
}

// Resize releases every buffer and records the new dimensions. Nothing is
// allocated until the next use. Resizing to the current dimensions keeps the
// buffers. Either way the failed-allocation threshold is cleared.
func (e *Engine) Resize(w, h int) error {
	e.failedSize = noFailure
	if w == e.geom.W && h == e.geom.H {
		return nil
	}
	err := e.Release()
	e.geom.W, e.geom.H = w, h
	return err
}

func (e *Engine) pair(mode core.Mode) *Pair {
	if mode == core.ModeBits {
		return &e.bits
	}
	return &e.cells
}

func (e *Engine) worldSize(mode core.Mode) int {
	if mode == core.ModeBits {
		return e.geom.PackedSize()
	}
	return e.geom.Cells()
}

// Allocated reports whether the buffer pair for mode exists.
func (e *Engine) Allocated(mode core.Mode) bool {
	return e.pair(mode).Present()
}

// EnsureAllocated allocates the buffer pair for mode unless it exists. It
// returns false when the allocation fails or is known to fail; a failed
// attempt leaves neither buffer behind. err reports a device fault, including
// one raised while rolling back a half-allocated pair.
func (e *Engine) EnsureAllocated(mode core.Mode) (bool, error) {
	p := e.pair(mode)
	if p.Present() {
		return true, nil
	}
	size := e.worldSize(mode)
	if size <= 0 || size >= e.failedSize {
		return false, nil
	}
	cur, err := e.dev.Malloc(size)
	if err != nil {
		return e.allocFailed(size, err)
	}
	next, err := e.dev.Malloc(size)
	if err != nil {
		if ferr := e.dev.Free(cur); ferr != nil {
			return false, fmt.Errorf("roll back %d byte allocation: %w", size, ferr)
		}
		return e.allocFailed(size, err)
	}
	*p = Pair{Cur: cur, Next: next}
	return true, nil
}

// allocFailed remembers an out-of-memory size; other errors are faults.
func (e *Engine) allocFailed(size int, err error) (bool, error) {
	if !errors.Is(err, device.ErrOutOfMemory) {
		return false, err
	}
	e.failedSize = size
	return false, nil
}

func (e *Engine) releasePair(mode core.Mode) error {
	p := e.pair(mode)
	err := errors.Join(e.dev.Free(p.Cur), e.dev.Free(p.Next))
	*p = Pair{}
	if mode == e.live {
		e.initialized = false
	}
	return err
}

// Release frees the buffers of both representations. The lookup table is
// not affected. Calling it with nothing allocated is a no-op.
func (e *Engine) Release() error {
	return errors.Join(e.releasePair(core.ModeBytes), e.releasePair(core.ModeBits))
}

// Close releases the engine's buffers at teardown.
func (e *Engine) Close() error { return e.Release() }

// LookupTable returns the process-wide lookup table, building it on first
// use.
func (e *Engine) LookupTable() (*Table, error) { return SharedTable(e.dev) }

// Iterate advances the live world. It returns false when the live buffers
// are not available; err reports a device fault, after which the world
// contents are undefined.
func (e *Engine) Iterate(generations int, opts IterateOptions) (bool, error) {
	if !e.initialized || !e.Allocated(e.live) {
		return false, nil
	}
	if generations <= 0 {
		return true, nil
	}
	var (
		next Pair
		ok   bool
		err  error
	)
	if e.live == core.ModeBits {
		var table *Table
		if opts.UseLookupTable {
			if table, err = e.LookupTable(); err != nil {
				return false, err
			}
		}
		next, ok, err = BitLife(e.dev, e.bits, table, e.geom, generations, opts.Threads, opts.BytesPerThread, opts.BigChunks)
		if ok {
			e.bits = next
		}
	} else {
		next, ok, err = SimpleLife(e.dev, e.cells, e.geom, generations, opts.Threads)
		if ok {
			e.cells = next
		}
	}
	if err != nil {
		return false, fmt.Errorf("iterate %s world: %w", e.live, err)
	}
	if ok {
		e.generation += int64(generations)
	}
	return ok, nil
}

// SwitchMode moves the world into the other representation, converting the
// live state and then releasing the previous buffers. It returns false when
// the target buffers cannot be allocated; the live world is kept in that
// case.
func (e *Engine) SwitchMode(mode core.Mode) (bool, error) {
	if err := e.Validate(mode); err != nil {
		return false, err
	}
	if !e.initialized {
		e.live = mode
		return e.EnsureAllocated(mode)
	}
	if mode == e.live {
		return true, nil
	}
	if ok, err := e.EnsureAllocated(mode); !ok || err != nil {
		return false, err
	}
	var err error
	if mode == core.ModeBits {
		err = EncodeKernel(e.dev, e.cells.Cur, e.geom.W, e.geom.H, e.bits.Cur)
	} else {
		err = DecodeKernel(e.dev, e.bits.Cur, e.geom.W, e.geom.H, e.cells.Cur)
	}
	if err != nil {
		return false, fmt.Errorf("switch to %s: %w", mode, err)
	}
	prev := e.live
	e.live = mode
	if err := e.releasePair(prev); err != nil {
		return true, err
	}
	return true, nil
}

// View returns a read-only view of the live world for display. Data is nil
// when nothing is initialized.
func (e *Engine) View() core.WorldView {
	v := core.WorldView{Mode: e.live, Geometry: e.geom}
	if e.initialized {
		v.Data = e.pair(e.live).Cur.Bytes()
	}
	return v
}

// ReadCells copies the live world to dst as one byte per cell.
func (e *Engine) ReadCells(dst []byte) error {
	if !e.initialized {
		return errors.New("world is not initialized")
	}
	if len(dst) != e.geom.Cells() {
		return fmt.Errorf("destination holds %d cells, world has %d", len(dst), e.geom.Cells())
	}
	if e.live == core.ModeBytes {
		return e.dev.CopyToHost(dst, e.cells.Cur)
	}
	packed := make([]byte, e.geom.PackedSize())
	if err := e.dev.CopyToHost(packed, e.bits.Cur); err != nil {
		return err
	}
	for i, b := range packed {
		decodeByte(b, dst[i*8:i*8+8])
	}
	return nil
}

// ReadPacked copies the live world to dst in the bit-packed layout.
func (e *Engine) ReadPacked(dst []byte) error {
	if !e.initialized {
		return errors.New("world is not initialized")
	}
	if err := e.Validate(core.ModeBits); err != nil {
		return err
	}
	if len(dst) != e.geom.PackedSize() {
		return fmt.Errorf("destination holds %d bytes, packed world has %d", len(dst), e.geom.PackedSize())
	}
	if e.live == core.ModeBits {
		return e.dev.CopyToHost(dst, e.bits.Cur)
	}
	cells := make([]byte, e.geom.Cells())
	if err := e.dev.CopyToHost(cells, e.cells.Cur); err != nil {
		return err
	}
	copy(dst, Encode(cells, e.geom.W, e.geom.H))
	return nil
}

// LoadCells uploads a byte-per-cell world into the live representation and
// sets the generation counter. It returns false when the buffers cannot be
// allocated.
func (e *Engine) LoadCells(cells []byte, generation int64) (bool, error) {
	if err := e.Validate(e.live); err != nil {
		return false, err
	}
	if len(cells) != e.geom.Cells() {
		return false, fmt.Errorf("got %d cells, world has %d", len(cells), e.geom.Cells())
	}
	if ok, err := e.EnsureAllocated(e.live); !ok || err != nil {
		return false, err
	}
	var host []byte
	if e.live == core.ModeBits {
		host = Encode(cells, e.geom.W, e.geom.H)
	} else {
		host = make([]byte, len(cells))
		for i, c := range cells {
			host[i] = c & 1
		}
	}
	if err := e.dev.CopyToDevice(e.pair(e.live).Cur, host); err != nil {
		return false, err
	}
	e.initialized = true
	e.generation = generation
	return true, nil
}

// Parameters reports the engine state for display.
func (e *Engine) Parameters(opts IterateOptions) core.ParameterSnapshot {
	failed := "none"
	if size, ok := e.FailedAllocationSize(); ok {
		failed = fmt.Sprintf("%d B", size)
	}
	stats := e.dev.Stats()
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				core.IntParam("w", "Width", e.geom.W),
				core.IntParam("h", "Height", e.geom.H),
				core.StringParam("boundary", "Boundary", e.geom.Boundary.String()),
				core.Int64Param("generation", "Generation", e.generation),
			},
		},
		{
			Name: "Engine",
			Params: []core.Parameter{
				core.StringParam("mode", "Mode", e.live.String()),
				core.IntParam("threads", "Threads", clampThreads(opts.Threads)),
				core.BoolParam("lookup", "Lookup table", opts.UseLookupTable),
				core.IntParam("bytes_per_thread", "Bytes/thread", max(opts.BytesPerThread, 1)),
				core.BoolParam("big_chunks", "Big chunks", opts.BigChunks),
			},
		},
		{
			Name: "Device",
			Params: []core.Parameter{
				core.StringParam("device", "Device", e.dev.Name()),
				core.IntParam("in_use", "Bytes in use", stats.InUse),
				core.StringParam("failed_alloc", "Failed alloc", failed),
			},
		},
	}}
}
