package core

// Geometry describes a world: its dimensions in cells and how neighbours
// are resolved at the edges.
type Geometry struct {
	W, H     int
	Boundary Boundary
}

// Cells returns the number of cells in the world.
func (g Geometry) Cells() int { return g.W * g.H }

// PackedWidth returns the number of bytes per row in the bit-packed
// representation. W must be a multiple of 8.
func (g Geometry) PackedWidth() int { return g.W / 8 }

// PackedSize returns the size of a bit-packed world in bytes.
func (g Geometry) PackedSize() int { return g.PackedWidth() * g.H }

// Index returns the linear slice index for coordinates (x, y).
func (g Geometry) Index(x, y int) int { return y*g.W + x }

// Resolve maps possibly out-of-range coordinates onto the grid. Cyclic
// worlds wrap toroidally; bounded worlds report ok=false for anything
// outside, which callers treat as a dead cell.
func (g Geometry) Resolve(x, y int) (int, int, bool) {
	if g.Boundary == Cyclic {
		x = (x%g.W + g.W) % g.W
		y = (y%g.H + g.H) % g.H
		return x, y, true
	}
	if x < 0 || x >= g.W || y < 0 || y >= g.H {
		return x, y, false
	}
	return x, y, true
}

// Neighbor resolves index i (0 <= i < n) shifted by d along an axis of
// length n. It returns -1 when a bounded axis is left.
func (b Boundary) Neighbor(i, d, n int) int {
	j := i + d
	if j >= 0 && j < n {
		return j
	}
	if b != Cyclic {
		return -1
	}
	return (j%n + n) % n
}
