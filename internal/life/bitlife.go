package life

import (
	"bitlife/internal/core"
	"bitlife/internal/device"
)

// BigChunkRows is the number of rows a big-chunk work unit walks down.
const BigChunkRows = 32

// stripStack is the window capacity a big-chunk unit keeps on the stack.
const stripStack = 64

// BitLife advances a bit-packed world by generations and returns the pair
// with Cur holding the result.
//
// A standard work unit covers bytesPerThread consecutive bytes of one row and
// rolls a 3×(bytesPerThread+2) byte window along it. With bigChunks a unit
// covers the same column span for BigChunkRows rows and slides the window
// down instead, reading each row once. A nil table switches to direct
// neighbour counting. Every variant produces the same world.
func BitLife(dev *device.Device, pair Pair, table *Table, geom core.Geometry,
	generations, threads, bytesPerThread int, bigChunks bool) (Pair, bool, error) {
	if geom.W <= 0 || geom.H <= 0 || geom.W%8 != 0 {
		return pair, false, nil
	}
	pw := geom.PackedWidth()
	if !pair.fits(pw * geom.H) {
		return pair, false, nil
	}
	threads = clampThreads(threads)
	bpt := min(max(bytesPerThread, 1), pw)
	unitsPerRow := (pw + bpt - 1) / bpt

	units := unitsPerRow * geom.H
	if bigChunks {
		units = unitsPerRow * ((geom.H + BigChunkRows - 1) / BigChunkRows)
	}
	grid := device.GridFor(units, threads, maxGrid)

	for g := 0; g < generations; g++ {
		s := bitStep{
			cur:     pair.Cur.Bytes(),
			next:    pair.Next.Bytes(),
			pw:      pw,
			h:       geom.H,
			bounded: geom.Boundary != core.Cyclic,
			table:   table,
		}
		err := dev.Launch(grid, threads, func(tid device.ThreadID) {
			for u := tid.Global(); u < units; u += tid.Stride() {
				x0 := (u % unitsPerRow) * bpt
				x1 := min(x0+bpt, pw)
				if bigChunks {
					y0 := (u / unitsPerRow) * BigChunkRows
					s.strip(x0, x1, y0, min(y0+BigChunkRows, geom.H))
					continue
				}
				s.run(u/unitsPerRow, x0, x1)
			}
		})
		if err != nil {
			return pair, false, err
		}
		pair = pair.Swap()
	}
	return pair, true, nil
}

// bitStep holds what one generation of the packed kernel reads and writes.
type bitStep struct {
	cur, next []byte
	pw, h     int
	bounded   bool
	table     *Table
}

// rowOffset returns the start of row y, or -1 when y is outside a bounded
// world.
func (s *bitStep) rowOffset(y int) int {
	if y < 0 || y >= s.h {
		if s.bounded {
			return -1
		}
		y = (y + s.h) % s.h
	}
	return y * s.pw
}

func (s *bitStep) load(off, x int) uint32 {
	if off < 0 {
		return 0
	}
	if x < 0 || x >= s.pw {
		if s.bounded {
			return 0
		}
		x = (x + s.pw) % s.pw
	}
	return uint32(s.cur[off+x])
}

// window assembles the ten cells a packed byte needs from its row: the last
// cell of the left byte, its own eight and the first cell of the right byte.
func window(left, mid, right uint32) uint32 {
	return (left&1)<<9 | mid<<1 | right>>7
}

// evalByte resolves the next state of the middle byte from three ten-bit row
// windows.
func (s *bitStep) evalByte(top, mid, bot uint32) byte {
	if s.table != nil {
		hi := s.table.Eval(top>>4, mid>>4, bot>>4)
		lo := s.table.Eval(top, mid, bot)
		return hi<<4 | lo
	}
	var out byte
	for p := uint(8); p >= 1; p-- {
		out = out<<1 | nextCell(top, mid, bot, p)
	}
	return out
}

// run evolves bytes x0..x1 of row y, rolling the left/centre/right bytes of
// the three rows along the span.
func (s *bitStep) run(y, x0, x1 int) {
	offs := [3]int{s.rowOffset(y - 1), y * s.pw, s.rowOffset(y + 1)}
	var left, centre [3]uint32
	for r, off := range offs {
		left[r] = s.load(off, x0-1)
		centre[r] = s.load(off, x0)
	}
	out := s.next[y*s.pw:]
	for x := x0; x < x1; x++ {
		var win [3]uint32
		for r, off := range offs {
			right := s.load(off, x+1)
			win[r] = window(left[r], centre[r], right)
			left[r], centre[r] = centre[r], right
		}
		out[x] = s.evalByte(win[0], win[1], win[2])
	}
}

// rowWindows writes the ten-bit windows of bytes x0..x1 of the row at off.
func (s *bitStep) rowWindows(off, x0, x1 int, dst []uint32) {
	left := s.load(off, x0-1)
	centre := s.load(off, x0)
	for i := range x1 - x0 {
		right := s.load(off, x0+i+1)
		dst[i] = window(left, centre, right)
		left, centre = centre, right
	}
}

// strip evolves bytes x0..x1 of rows y0..y1, keeping the windows of the
// rows above, at and below the current one and rotating them downwards.
func (s *bitStep) strip(x0, x1, y0, y1 int) {
	n := x1 - x0
	var stack [3 * stripStack]uint32
	buf := stack[:]
	if 3*n > len(buf) {
		buf = make([]uint32, 3*n)
	}
	above, here, below := buf[:n], buf[n:2*n], buf[2*n:3*n]
	s.rowWindows(s.rowOffset(y0-1), x0, x1, above)
	s.rowWindows(y0*s.pw, x0, x1, here)
	for y := y0; y < y1; y++ {
		s.rowWindows(s.rowOffset(y+1), x0, x1, below)
		out := s.next[y*s.pw+x0 : y*s.pw+x1]
		for i := range out {
			out[i] = s.evalByte(above[i], here[i], below[i])
		}
		above, here, below = here, below, above
	}
}
