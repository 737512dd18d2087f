//go:build ebiten

package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

// KeyHelp lists the viewer bindings shown by the overlay.
var KeyHelp = []string{
	"space  pause / resume",
	"n      single generation",
	"r / s  reseed same / new seed",
	"b      toggle bytes / bits",
	"l      toggle lookup table",
	"c      toggle big chunks",
	"v      neighbour colours",
	"+ / -  zoom",
	"arrows pan",
	"p / o  save / load snapshot",
	"h      hide this help",
	"q      quit",
}

// Overlay draws a status line and, on demand, the key bindings on top of
// the world view.
type Overlay struct {
	showHelp bool
}

// NewOverlay constructs an overlay with the help hidden.
func NewOverlay() *Overlay { return &Overlay{} }

// Update toggles the help panel.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		o.showHelp = !o.showHelp
	}
}

// Draw paints status in the top-left corner and the help below it.
func (o *Overlay) Draw(screen *ebiten.Image, status string) {
	ebitenutil.DebugPrintAt(screen, status, 4, 2)
	if !o.showHelp {
		return
	}
	face := basicfont.Face7x13
	const (
		left = 8
		top  = 24
		line = 15
	)
	w := 0
	for _, s := range KeyHelp {
		w = max(w, text.BoundString(face, s).Dx())
	}
	h := line*len(KeyHelp) + 8
	vector.DrawFilledRect(screen, left-4, top-4, float32(w+8), float32(h), color.RGBA{A: 200}, false)
	for i, s := range KeyHelp {
		text.Draw(screen, s, face, left, top+line*(i+1)-4, color.White)
	}
}
