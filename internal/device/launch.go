package device

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ThreadID identifies a thread within a one-dimensional launch.
type ThreadID struct {
	BlockIdx  int
	ThreadIdx int
	BlockDim  int
	GridDim   int
}

// Global returns the thread index across the whole grid.
func (t ThreadID) Global() int { return t.BlockIdx*t.BlockDim + t.ThreadIdx }

// Stride returns the total number of threads in the launch, the step of a
// grid-stride loop.
func (t ThreadID) Stride() int { return t.BlockDim * t.GridDim }

// Kernel is the body executed once per thread.
type Kernel func(t ThreadID)

// Launch runs k for every thread of a grid×block launch and waits for all of
// them. Threads are split into contiguous ranges, one range per goroutine.
// A panic inside the kernel is reported as a *Fault.
func (d *Device) Launch(grid, block int, k Kernel) error {
	if grid <= 0 || block <= 0 || block > MaxThreadsPerBlock {
		return fault("launch", "invalid configuration grid=%d block=%d", grid, block)
	}
	if k == nil {
		return fault("launch", "nil kernel")
	}
	total := grid * block
	parts := d.workers * 4
	if parts > total {
		parts = total
	}
	per := (total + parts - 1) / parts

	var eg errgroup.Group
	eg.SetLimit(d.workers)
	for lo := 0; lo < total; lo += per {
		hi := min(lo+per, total)
		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &Fault{Op: "launch", Err: fmt.Errorf("kernel panic: %v", r)}
				}
			}()
			for g := lo; g < hi; g++ {
				k(ThreadID{BlockIdx: g / block, ThreadIdx: g % block, BlockDim: block, GridDim: grid})
			}
			return nil
		})
	}
	return eg.Wait()
}

// GridFor returns the number of blocks needed to cover n items with block
// threads each, capped at maxGrid when maxGrid is positive. Kernels launched
// with a capped grid walk the remainder with a grid-stride loop.
func GridFor(n, block, maxGrid int) int {
	if n <= 0 || block <= 0 {
		return 1
	}
	grid := (n + block - 1) / block
	if maxGrid > 0 && grid > maxGrid {
		grid = maxGrid
	}
	return grid
}
