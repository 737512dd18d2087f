//go:build ebiten

package app

import (
	"fmt"
	"log"
	"os"
	"time"

	"bitlife/internal/core"
	"bitlife/internal/render"
	"bitlife/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	hudWidth   = 240
	maxViewDim = 1024
	panStep    = 16
)

// Game adapts a Session to the ebiten.Game interface.
type Game struct {
	session *Session
	clock   *core.FixedStep

	hud     *ui.HUD
	overlay *ui.Overlay

	viewW, viewH int
	pixels       []byte
	frame        *ebiten.Image
	viewport     render.Viewport
	palette      render.Palette

	snapshotPath string
}

// New constructs a Game around s. Frames are painted by the display kernel
// into a buffer of at most maxViewDim pixels per side.
func New(s *Session, cfg *Config) *Game {
	g := &Game{
		session: s,
		clock:   core.NewFixedStep(cfg.TPS, max(cfg.GensPerTick, 1)),
		hud:     ui.NewHUD(s, hudWidth),
		overlay: ui.NewOverlay(),
		palette: render.DefaultPalette(),
		viewport: render.Viewport{
			Zoom:   max(cfg.Scale, 1),
			Cyclic: cfg.BoundaryValue() == core.Cyclic,
		},
		snapshotPath: "world.blif",
	}
	g.resizeView()
	return g
}

// ScreenSize returns the window size in pixels, HUD included.
func (g *Game) ScreenSize() (int, int) { return g.viewW + hudWidth, g.viewH }

func (g *Game) resizeView() {
	geom := g.session.Engine().Geometry()
	g.viewW = min(geom.W*g.viewport.Zoom, maxViewDim)
	g.viewH = min(geom.H*g.viewport.Zoom, maxViewDim)
	g.pixels = make([]byte, 4*g.viewW*g.viewH)
	g.frame = ebiten.NewImage(g.viewW, g.viewH)
}

// Reset reinitializes the world with the provided seed.
func (g *Game) Reset(seed int64) error {
	g.clock.Reset()
	return g.session.Reset(seed)
}

// Update handles per-frame input and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if err := g.handleKeys(); err != nil {
		return err
	}
	g.overlay.Update()
	offset, _ := g.ScreenSize()
	g.hud.Update(offset - hudWidth)

	due := g.clock.Due()
	if g.session.Paused {
		return nil
	}
	return g.session.Step(due)
}

func (g *Game) handleKeys() error {
	s := g.session
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		s.Paused = !s.Paused
		g.clock.Reset()
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		return s.StepOnce()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		return g.Reset(s.Seed())
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		return g.Reset(time.Now().UnixNano())
	case inpututil.IsKeyJustPressed(ebiten.KeyB):
		return s.ToggleMode()
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		s.ToggleLookup()
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		s.ToggleBigChunks()
	case inpututil.IsKeyJustPressed(ebiten.KeyV):
		g.viewport.Colorize = !g.viewport.Colorize
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd):
		g.viewport.Zoom = min(g.viewport.Zoom*2, 32)
		g.resizeView()
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract):
		g.viewport.Zoom = max(g.viewport.Zoom/2, 1)
		g.resizeView()
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		g.save()
	case inpututil.IsKeyJustPressed(ebiten.KeyO):
		g.load()
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.viewport.OffsetX -= panStep / g.viewport.Zoom
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.viewport.OffsetX += panStep / g.viewport.Zoom
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.viewport.OffsetY -= panStep / g.viewport.Zoom
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.viewport.OffsetY += panStep / g.viewport.Zoom
	}
	return nil
}

func (g *Game) save() {
	f, err := os.Create(g.snapshotPath)
	if err != nil {
		log.Printf("save snapshot: %v", err)
		return
	}
	defer f.Close()
	if err := g.session.Save(f); err != nil {
		log.Printf("save snapshot: %v", err)
		return
	}
	log.Printf("saved generation %d to %s", g.session.Engine().Generation(), g.snapshotPath)
}

func (g *Game) load() {
	f, err := os.Open(g.snapshotPath)
	if err != nil {
		log.Printf("load snapshot: %v", err)
		return
	}
	defer f.Close()
	if err := g.session.Load(f); err != nil {
		log.Printf("load snapshot: %v", err)
		return
	}
	g.viewport.Cyclic = g.session.Engine().Geometry().Boundary == core.Cyclic
	g.resizeView()
}

// Draw renders the current world, the HUD and the overlay.
func (g *Game) Draw(screen *ebiten.Image) {
	eng := g.session.Engine()
	if err := render.DisplayLife(eng.Device(), eng.View(), g.pixels, g.viewW, g.viewH, g.viewport, g.palette); err != nil {
		log.Printf("display: %v", err)
		return
	}
	g.frame.WritePixels(g.pixels)
	screen.DrawImage(g.frame, nil)
	g.hud.Draw(screen, g.viewW, g.viewH)
	status := fmt.Sprintf("gen %d  %.0f fps", eng.Generation(), ebiten.ActualFPS())
	if msg := g.session.Status(); msg != "" {
		status += "  " + msg
	}
	g.overlay.Draw(screen, status)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.ScreenSize()
}
