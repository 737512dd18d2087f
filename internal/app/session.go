package app

import (
	"fmt"
	"io"
	"log"

	"bitlife/internal/core"
	"bitlife/internal/device"
	"bitlife/internal/life"
	"bitlife/internal/snapshot"
)

// Session drives one engine on behalf of a front end. Allocation failures
// pause the session and are reported through Status instead of stopping it.
type Session struct {
	cfg    *Config
	dev    *device.Device
	engine *life.Engine
	opts   life.IterateOptions
	seed   int64
	status string
	// degraded records that the last pause came from a failure.
	degraded bool

	Paused bool
}

// NewSession validates cfg and initializes a random world.
func NewSession(cfg *Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dev := device.New(device.WithCapacity(cfg.MemoryLimit))
	s := &Session{
		cfg:  cfg,
		dev:  dev,
		opts: cfg.IterateOptions(),
		engine: life.NewEngine(dev,
			life.WithSize(cfg.Width, cfg.Height),
			life.WithBoundary(cfg.BoundaryValue())),
	}
	if err := s.Reset(cfg.Seed); err != nil {
		return nil, err
	}
	return s, nil
}

// Engine exposes the underlying engine.
func (s *Session) Engine() *life.Engine { return s.engine }

// Options returns the current launch parameters.
func (s *Session) Options() life.IterateOptions { return s.opts }

// Seed returns the seed of the last reset.
func (s *Session) Seed() int64 { return s.seed }

// Status describes the last recoverable problem, empty when none.
func (s *Session) Status() string { return s.status }

func (s *Session) degrade(format string, args ...any) {
	s.status = fmt.Sprintf(format, args...)
	s.Paused = true
	s.degraded = true
	log.Print(s.status)
}

// recovered clears the status and lifts a pause caused by a failure. A pause
// the user asked for is kept.
func (s *Session) recovered() {
	s.status = ""
	if s.degraded {
		s.Paused = false
		s.degraded = false
	}
}

// Reset fills the world with random cells from seed in the current mode.
func (s *Session) Reset(seed int64) error {
	s.seed = seed
	src, err := s.cfg.NewSource(seed)
	if err != nil {
		return err
	}
	mode := s.engine.LiveMode()
	if !s.engine.Initialized() {
		mode = s.cfg.ModeValue()
	}
	ok, err := s.engine.Init(mode, src)
	if err != nil {
		return err
	}
	if !ok {
		s.degrade("cannot allocate a %dx%d %s world", s.cfg.Width, s.cfg.Height, mode)
		return nil
	}
	s.recovered()
	return nil
}

// Step advances n generations unless paused.
func (s *Session) Step(n int) error {
	if s.Paused || n <= 0 {
		return nil
	}
	return s.advance(n)
}

// StepOnce advances a single generation even when paused.
func (s *Session) StepOnce() error { return s.advance(1) }

func (s *Session) advance(n int) error {
	ok, err := s.engine.Iterate(n, s.opts)
	if err != nil {
		return err
	}
	if !ok {
		s.degrade("world buffers are not available")
	}
	return nil
}

// ToggleMode switches between the byte and bit representations.
func (s *Session) ToggleMode() error {
	target := core.ModeBits
	if s.engine.LiveMode() == core.ModeBits {
		target = core.ModeBytes
	}
	if err := s.engine.Validate(target); err != nil {
		s.status = err.Error()
		return nil
	}
	ok, err := s.engine.SwitchMode(target)
	if err != nil {
		return err
	}
	if !ok {
		s.degrade("cannot allocate %s buffers, staying in %s mode", target, s.engine.LiveMode())
		return nil
	}
	s.cfg.Mode = target.String()
	s.recovered()
	return nil
}

// ToggleLookup enables or disables the lookup table.
func (s *Session) ToggleLookup() { s.opts.UseLookupTable = !s.opts.UseLookupTable }

// ToggleBigChunks enables or disables big-chunk partitioning.
func (s *Session) ToggleBigChunks() { s.opts.BigChunks = !s.opts.BigChunks }

// SetIntParameter adjusts a launch parameter by key, reporting whether the
// key is known and the value acceptable.
func (s *Session) SetIntParameter(key string, value int) bool {
	switch key {
	case "threads":
		if value < 1 || value > device.MaxThreadsPerBlock {
			return false
		}
		s.opts.Threads = value
	case "bytes_per_thread":
		if value < 1 {
			return false
		}
		s.opts.BytesPerThread = value
	default:
		return false
	}
	return true
}

// Resize replaces the world with a random one of the new size.
func (s *Session) Resize(w, h int) error {
	if err := s.engine.Resize(w, h); err != nil {
		return err
	}
	s.cfg.Width, s.cfg.Height = w, h
	return s.Reset(s.seed)
}

// Save writes the current world as a snapshot.
func (s *Session) Save(w io.Writer) error {
	geom := s.engine.Geometry()
	packed := make([]byte, geom.PackedSize())
	if err := s.engine.ReadPacked(packed); err != nil {
		return err
	}
	return snapshot.Save(w, snapshot.Snapshot{Geometry: geom, Generation: s.engine.Generation(), Packed: packed})
}

// Load replaces the world with a snapshot, keeping the current mode.
func (s *Session) Load(r io.Reader) error {
	snap, err := snapshot.Load(r)
	if err != nil {
		return err
	}
	g := snap.Geometry
	if err := s.engine.Resize(g.W, g.H); err != nil {
		return err
	}
	s.engine.SetBoundary(g.Boundary)
	s.cfg.Width, s.cfg.Height, s.cfg.Boundary = g.W, g.H, g.Boundary.String()
	ok, err := s.engine.LoadCells(life.Decode(snap.Packed, g.W, g.H), snap.Generation)
	if err != nil {
		return err
	}
	if !ok {
		s.degrade("cannot allocate a %dx%d world for the snapshot", g.W, g.H)
		return nil
	}
	s.recovered()
	return nil
}

// Parameters reports engine and session state for the HUD.
func (s *Session) Parameters() core.ParameterSnapshot {
	snap := s.engine.Parameters(s.opts)
	status := s.status
	if status == "" {
		status = "ok"
	}
	snap.Groups = append(snap.Groups, core.ParameterGroup{
		Name: "Session",
		Params: []core.Parameter{
			core.Int64Param("seed", "Seed", s.seed),
			core.StringParam("rand", "Random", s.cfg.Source),
			core.BoolParam("paused", "Paused", s.Paused),
			core.StringParam("status", "Status", status),
		},
	})
	return snap
}

// Close releases device memory and the shared lookup table.
func (s *Session) Close() error {
	err := s.engine.Close()
	life.ReleaseSharedTable()
	return err
}
