package life

import (
	"bitlife/internal/core"
	"bitlife/internal/device"
)

// maxGrid caps the number of blocks per launch; kernels cover the rest with
// grid-stride loops.
const maxGrid = 1 << 15

// Pair is the double buffer of one representation. Cur holds the latest
// generation; Next is scratch.
type Pair struct {
	Cur  *device.Buffer
	Next *device.Buffer
}

// Swap exchanges the roles of the two buffers.
func (p Pair) Swap() Pair { return Pair{Cur: p.Next, Next: p.Cur} }

// Present reports whether both buffers exist.
func (p Pair) Present() bool { return p.Cur != nil && p.Next != nil }

func (p Pair) fits(size int) bool {
	return p.Present() && p.Cur != p.Next && p.Cur.Len() == size && p.Next.Len() == size
}

func clampThreads(n int) int {
	if n <= 0 {
		return 256
	}
	return min(n, device.MaxThreadsPerBlock)
}

func rule(alive uint8, n int) uint8 {
	if n == 3 || (n == 2 && alive == 1) {
		return 1
	}
	return 0
}

// SimpleLife advances a byte-per-cell world by generations and returns the
// pair with Cur holding the result. ok is false when the buffers are missing
// or do not match geom; err reports a device fault.
func SimpleLife(dev *device.Device, pair Pair, geom core.Geometry, generations, threads int) (Pair, bool, error) {
	n := geom.Cells()
	if n <= 0 || !pair.fits(n) {
		return pair, false, nil
	}
	threads = clampThreads(threads)
	grid := device.GridFor(n, threads, maxGrid)
	for g := 0; g < generations; g++ {
		cur, next := pair.Cur.Bytes(), pair.Next.Bytes()
		err := dev.Launch(grid, threads, func(tid device.ThreadID) {
			for cell := tid.Global(); cell < n; cell += tid.Stride() {
				next[cell] = simpleCell(cur, geom, cell)
			}
		})
		if err != nil {
			return pair, false, err
		}
		pair = pair.Swap()
	}
	return pair, true, nil
}

func simpleCell(cur []byte, g core.Geometry, cell int) uint8 {
	w, h := g.W, g.H
	x, y := cell%w, cell/w
	xl := g.Boundary.Neighbor(x, -1, w)
	xr := g.Boundary.Neighbor(x, 1, w)
	rows := [3]int{g.Boundary.Neighbor(y, -1, h), y, g.Boundary.Neighbor(y, 1, h)}

	n := 0
	for i, ry := range rows {
		if ry < 0 {
			continue
		}
		row := cur[ry*w : ry*w+w]
		if xl >= 0 {
			n += int(row[xl] & 1)
		}
		if i != 1 {
			n += int(row[x] & 1)
		}
		if xr >= 0 {
			n += int(row[xr] & 1)
		}
	}
	return rule(cur[cell]&1, n)
}
