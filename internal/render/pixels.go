package render

import (
	"fmt"
	"image/color"

	"bitlife/internal/core"
	"bitlife/internal/device"
)

// Palette holds the colors used by DisplayLife.
type Palette struct {
	Alive      color.RGBA
	Dead       color.RGBA
	Background color.RGBA
	// Neighbors tints live cells by their live neighbour count when
	// colorizing; index 0..8.
	Neighbors [9]color.RGBA
}

// DefaultPalette returns white cells on black with a blue-to-red neighbour
// ramp.
func DefaultPalette() Palette {
	p := Palette{
		Alive:      color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Dead:       color.RGBA{A: 255},
		Background: color.RGBA{R: 24, G: 24, B: 30, A: 255},
	}
	for i := range p.Neighbors {
		t := uint8(i * 255 / 8)
		p.Neighbors[i] = color.RGBA{R: t, G: 96 + t/3, B: 255 - t, A: 255}
	}
	return p
}

// Viewport maps destination pixels onto world cells: each cell covers
// Zoom×Zoom pixels and pixel (0,0) shows cell (OffsetX, OffsetY).
type Viewport struct {
	OffsetX, OffsetY int
	Zoom             int
	Colorize         bool
	Cyclic           bool
}

// DisplayLife paints view into dst, an RGBA buffer of destW×destH pixels,
// one thread per pixel. Packed views are read directly. Cells outside a
// non-cyclic viewport get the background color.
func DisplayLife(dev *device.Device, view core.WorldView, dst []byte, destW, destH int, vp Viewport, pal Palette) error {
	if len(dst) != 4*destW*destH {
		return &device.Fault{Op: "display", Err: fmt.Errorf("destination is %d bytes, need %d", len(dst), 4*destW*destH)}
	}
	g := view.Geometry
	if view.Data == nil || g.W <= 0 || g.H <= 0 {
		fillRGBA(dst, pal.Background)
		return nil
	}
	zoom := max(vp.Zoom, 1)
	cellAt := func(x, y int) uint8 {
		if view.Mode == core.ModeBits {
			return view.Data[y*g.PackedWidth()+x/8] >> (7 - x%8) & 1
		}
		return view.Data[y*g.W+x] & 1
	}
	n := destW * destH
	const block = 256
	return dev.Launch(device.GridFor(n, block, 1<<15), block, func(tid device.ThreadID) {
		for i := tid.Global(); i < n; i += tid.Stride() {
			x := vp.OffsetX + (i%destW)/zoom
			y := vp.OffsetY + (i/destW)/zoom
			c := pal.Background
			if vp.Cyclic {
				x = (x%g.W + g.W) % g.W
				y = (y%g.H + g.H) % g.H
			}
			if x >= 0 && x < g.W && y >= 0 && y < g.H {
				c = pal.Dead
				if cellAt(x, y) == 1 {
					c = pal.Alive
					if vp.Colorize {
						c = pal.Neighbors[liveNeighbors(g, cellAt, x, y)]
					}
				}
			}
			setRGBA(dst[i*4:i*4+4], c)
		}
	})
}

func liveNeighbors(g core.Geometry, cellAt func(x, y int) uint8, x, y int) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if nx, ny, ok := g.Resolve(x+dx, y+dy); ok {
				n += int(cellAt(nx, ny))
			}
		}
	}
	return n
}

func setRGBA(px []byte, c color.RGBA) {
	px[0], px[1], px[2], px[3] = c.R, c.G, c.B, c.A
}

func fillRGBA(buf []byte, c color.RGBA) {
	for i := 0; i+3 < len(buf); i += 4 {
		setRGBA(buf[i:i+4], c)
	}
}

// fillBinaryRGBA converts binary cell data (0/1) into RGBA pixels in buf.
func fillBinaryRGBA(buf []byte, cells []uint8, on, off color.Color) {
	rOn, gOn, bOn, aOn := on.RGBA()
	rOff, gOff, bOff, aOff := off.RGBA()
	for i, c := range cells {
		base := i * 4
		if c&1 != 0 {
			buf[base+0] = uint8(rOn >> 8)
			buf[base+1] = uint8(gOn >> 8)
			buf[base+2] = uint8(bOn >> 8)
			buf[base+3] = uint8(aOn >> 8)
			continue
		}
		buf[base+0] = uint8(rOff >> 8)
		buf[base+1] = uint8(gOff >> 8)
		buf[base+2] = uint8(bOff >> 8)
		buf[base+3] = uint8(aOff >> 8)
	}
}

// CellsToRGBA renders a byte-per-cell world 1:1, used for still exports.
func CellsToRGBA(cells []uint8, pal Palette) []byte {
	buf := make([]byte, 4*len(cells))
	fillBinaryRGBA(buf, cells, pal.Alive, pal.Dead)
	return buf
}
