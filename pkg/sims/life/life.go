// Package life is a single-threaded byte-per-cell Game of Life used as the
// reference that the parallel engines are checked against.
package life

import (
	icore "bitlife/internal/core"
	"bitlife/pkg/core"
)

// Life implements Conway's Game of Life over a cyclic or bounded world.
type Life struct {
	geom icore.Geometry
	cur  []uint8
	nxt  []uint8
}

// New returns a Life simulation with the provided dimensions.
func New(w, h int, boundary icore.Boundary) *Life {
	cells := make([]uint8, w*h)
	return &Life{
		geom: icore.Geometry{W: w, H: h, Boundary: boundary},
		cur:  cells,
		nxt:  make([]uint8, len(cells)),
	}
}

// FromCells wraps a copy of cells.
func FromCells(cells []uint8, w, h int, boundary icore.Boundary) *Life {
	l := New(w, h, boundary)
	copy(l.cur, cells)
	return l
}

// Name returns the simulation identifier.
func (l *Life) Name() string { return "life" }

// Size returns the grid dimensions.
func (l *Life) Size() icore.Size { return icore.Size{W: l.geom.W, H: l.geom.H} }

// Cells exposes the current grid values.
func (l *Life) Cells() []uint8 { return l.cur }

// Reset randomizes the board using the provided seed.
func (l *Life) Reset(seed int64) {
	core.Fill(l.cur, 0x1, core.NewPCG(seed))
}

// Step advances the simulation by one generation.
func (l *Life) Step() {
	w, h := l.geom.W, l.geom.H
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			neighbors := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny, ok := l.geom.Resolve(x+dx, y+dy)
					if !ok {
						continue
					}
					neighbors += int(l.cur[ny*w+nx] & 1)
				}
			}
			idx := y*w + x
			alive := l.cur[idx]&1 == 1
			l.nxt[idx] = 0
			if (alive && (neighbors == 2 || neighbors == 3)) || (!alive && neighbors == 3) {
				l.nxt[idx] = 1
			}
		}
	}
	l.cur, l.nxt = l.nxt, l.cur
}

// StepN advances n generations.
func (l *Life) StepN(n int) {
	for i := 0; i < n; i++ {
		l.Step()
	}
}
