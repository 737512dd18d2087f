//go:build ebiten

package ui

import (
	"image"
	"image/color"
	"strconv"

	"bitlife/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

// ParameterProvider reports the state shown on the panel.
type ParameterProvider interface {
	Parameters() core.ParameterSnapshot
}

// IntParameterSetter accepts adjustments from the panel buttons.
type IntParameterSetter interface {
	SetIntParameter(key string, value int) bool
}

// Control is an integer parameter adjustable with -/+ buttons.
type Control struct {
	Key      string
	Step     int
	Min, Max int
	// Double multiplies or divides by two instead of stepping.
	Double bool
}

// DefaultControls are the launch parameters exposed on the panel.
var DefaultControls = []Control{
	{Key: "threads", Min: 32, Max: 1024, Double: true},
	{Key: "bytes_per_thread", Step: 1, Min: 1, Max: 64},
}

// HUD renders the parameter panel to the right of the world view.
type HUD struct {
	provider ParameterProvider
	setter   IntParameterSetter
	width    int
	panel    *ebiten.Image
	snapshot core.ParameterSnapshot

	controls     []hudControlState
	panelOffsetX int

	pixel *ebiten.Image
}

// NewHUD constructs a HUD for the provider and panel width. Buttons are
// shown when the provider also implements IntParameterSetter.
func NewHUD(provider ParameterProvider, width int) *HUD {
	if width < 0 {
		width = 0
	}
	h := &HUD{provider: provider, width: width}
	if width > 0 {
		h.pixel = ebiten.NewImage(1, 1)
		h.pixel.Fill(color.White)
	}
	if setter, ok := provider.(IntParameterSetter); ok {
		h.setter = setter
		h.controls = make([]hudControlState, len(DefaultControls))
		for i, ctrl := range DefaultControls {
			h.controls[i] = hudControlState{control: ctrl}
		}
	}
	return h
}

// Update refreshes the cached snapshot and handles button clicks.
func (h *HUD) Update(panelOffsetX int) {
	if h == nil || h.provider == nil {
		return
	}
	h.panelOffsetX = panelOffsetX
	h.snapshot = h.provider.Parameters()
	for i := range h.controls {
		state := &h.controls[i]
		p, ok := h.snapshot.Lookup(state.control.Key)
		state.label = state.control.Key
		state.hasValue = false
		if !ok {
			continue
		}
		state.label = p.Label
		if v, err := strconv.Atoi(p.Value); err == nil {
			state.value = v
			state.hasValue = true
		}
	}
	h.handleInput()
}

// Draw paints the panel at offsetX with the given height.
func (h *HUD) Draw(screen *ebiten.Image, offsetX, height int) {
	if h == nil || h.width <= 0 || height <= 0 {
		return
	}
	if h.panel == nil || h.panel.Bounds().Dy() != height {
		h.panel = ebiten.NewImage(h.width, height)
	}
	h.panel.Fill(color.RGBA{R: 16, G: 16, B: 20, A: 255})
	y := h.drawParameters()
	h.drawControls(y)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

func (h *HUD) drawParameters() int {
	face := basicfont.Face7x13
	y := panelPadding + headerBaseline
	for _, group := range h.snapshot.Groups {
		text.Draw(h.panel, group.Name, face, panelPadding, y, headerColor)
		y += lineHeight
		for _, p := range group.Params {
			text.Draw(h.panel, p.Label, face, panelPadding+indent, y, labelColor)
			bounds := text.BoundString(face, p.Value)
			text.Draw(h.panel, p.Value, face, h.width-panelPadding-bounds.Dx(), y, valueColor)
			y += lineHeight
		}
		y += groupGap
	}
	return y
}

func (h *HUD) drawControls(top int) {
	face := basicfont.Face7x13
	for i := range h.controls {
		state := &h.controls[i]
		rowTop := top + i*controlHeight
		buttonY := rowTop + (controlHeight-buttonSize)/2
		state.plusRect = image.Rect(h.width-panelPadding-buttonSize, buttonY, h.width-panelPadding, buttonY+buttonSize)
		state.minusRect = image.Rect(state.plusRect.Min.X-buttonGap-buttonSize, buttonY, state.plusRect.Min.X-buttonGap, buttonY+buttonSize)

		text.Draw(h.panel, state.label, face, panelPadding, rowTop+labelBaseline, labelColor)
		value := "--"
		if state.hasValue {
			value = strconv.Itoa(state.value)
		}
		bounds := text.BoundString(face, value)
		text.Draw(h.panel, value, face, state.minusRect.Min.X-buttonGap-bounds.Dx(), rowTop+labelBaseline, valueColor)

		_, canDown := state.target(-1)
		_, canUp := state.target(1)
		h.drawButton(state.minusRect, "-", state.hasValue && canDown)
		h.drawButton(state.plusRect, "+", state.hasValue && canUp)
	}
}

func (h *HUD) handleInput() {
	if h.setter == nil || !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	mx, my := ebiten.CursorPosition()
	px := mx - h.panelOffsetX
	if px < 0 {
		return
	}
	for i := range h.controls {
		state := &h.controls[i]
		if !state.hasValue {
			continue
		}
		dir := 0
		switch {
		case pointInRect(px, my, state.minusRect):
			dir = -1
		case pointInRect(px, my, state.plusRect):
			dir = 1
		}
		if dir == 0 {
			continue
		}
		if target, ok := state.target(dir); ok && h.setter.SetIntParameter(state.control.Key, target) {
			state.value = target
		}
		return
	}
}

func (h *HUD) drawButton(rect image.Rectangle, label string, enabled bool) {
	if h.pixel == nil || rect.Empty() {
		return
	}
	bg := color.RGBA{R: 54, G: 56, B: 64, A: 255}
	fg := color.RGBA{R: 230, G: 230, B: 240, A: 255}
	if !enabled {
		bg = color.RGBA{R: 32, G: 34, B: 40, A: 255}
		fg = color.RGBA{R: 120, G: 120, B: 130, A: 255}
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(rect.Dx()), float64(rect.Dy()))
	op.GeoM.Translate(float64(rect.Min.X), float64(rect.Min.Y))
	op.ColorScale.ScaleWithColor(bg)
	h.panel.DrawImage(h.pixel, op)

	face := basicfont.Face7x13
	bounds := text.BoundString(face, label)
	x := rect.Min.X + (rect.Dx()-bounds.Dx())/2
	y := rect.Min.Y + (rect.Dy()-bounds.Dy())/2 + bounds.Dy()
	text.Draw(h.panel, label, face, x, y, fg)
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return image.Pt(x, y).In(rect)
}

type hudControlState struct {
	control  Control
	label    string
	value    int
	hasValue bool

	minusRect image.Rectangle
	plusRect  image.Rectangle
}

// target returns the value one click in direction dir would set.
func (s *hudControlState) target(dir int) (int, bool) {
	v := s.value
	switch {
	case s.control.Double && dir > 0:
		v *= 2
	case s.control.Double:
		v /= 2
	default:
		v += dir * max(s.control.Step, 1)
	}
	if v < s.control.Min || v > s.control.Max || v == s.value {
		return s.value, false
	}
	return v, true
}

var (
	headerColor = color.RGBA{R: 200, G: 200, B: 210, A: 255}
	labelColor  = color.RGBA{R: 170, G: 170, B: 180, A: 255}
	valueColor  = color.RGBA{R: 230, G: 230, B: 240, A: 255}
)

const (
	panelPadding   = 12
	indent         = 8
	lineHeight     = 16
	groupGap       = 6
	controlHeight  = 32
	buttonSize     = 22
	buttonGap      = 6
	headerBaseline = 12
	labelBaseline  = 20
)
