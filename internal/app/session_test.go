package app

import (
	"bytes"
	"slices"
	"testing"

	"bitlife/internal/core"
)

func smallConfig() *Config {
	cfg := NewConfig()
	cfg.Width = 64
	cfg.Height = 32
	return cfg
}

func readWorld(t *testing.T, s *Session) []byte {
	t.Helper()
	cells := make([]byte, s.Engine().Geometry().Cells())
	if err := s.Engine().ReadCells(cells); err != nil {
		t.Fatal(err)
	}
	return cells
}

func TestSessionToggleModeKeepsWorld(t *testing.T) {
	s, err := NewSession(smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Step(3); err != nil {
		t.Fatal(err)
	}
	before := readWorld(t, s)
	if err := s.ToggleMode(); err != nil {
		t.Fatal(err)
	}
	if s.Engine().LiveMode() != core.ModeBytes {
		t.Fatalf("mode = %s, want bytes", s.Engine().LiveMode())
	}
	if !slices.Equal(before, readWorld(t, s)) {
		t.Fatal("toggling mode changed the world")
	}
}

func TestSessionDegradesOnAllocationFailure(t *testing.T) {
	cfg := smallConfig()
	cfg.MemoryLimit = 100
	s, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("allocation failure must not be an error: %v", err)
	}
	if !s.Paused || s.Status() == "" {
		t.Fatalf("session should be paused with a status, got paused=%v status=%q", s.Paused, s.Status())
	}
	if err := s.StepOnce(); err != nil {
		t.Fatal(err)
	}
	if p, _ := s.Parameters().Lookup("status"); p.Value == "ok" {
		t.Fatal("status parameter should report the failure")
	}
}

func TestSessionSaveLoad(t *testing.T) {
	s, err := NewSession(smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Step(5); err != nil {
		t.Fatal(err)
	}
	want := readWorld(t, s)

	var buf bytes.Buffer
	if err := s.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	other := smallConfig()
	other.Width, other.Height, other.Seed = 16, 16, 9
	o, err := NewSession(other)
	if err != nil {
		t.Fatal(err)
	}
	defer o.Close()
	if err := o.Load(&buf); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if o.Engine().Generation() != 5 {
		t.Fatalf("generation = %d, want 5", o.Engine().Generation())
	}
	if !slices.Equal(readWorld(t, o), want) {
		t.Fatal("loaded world differs")
	}
}

func TestSessionPausedDoesNotStep(t *testing.T) {
	s, err := NewSession(smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	s.Paused = true
	if err := s.Step(4); err != nil {
		t.Fatal(err)
	}
	if s.Engine().Generation() != 0 {
		t.Fatalf("paused session advanced to %d", s.Engine().Generation())
	}
	if err := s.StepOnce(); err != nil {
		t.Fatal(err)
	}
	if s.Engine().Generation() != 1 {
		t.Fatalf("single step reached generation %d", s.Engine().Generation())
	}
}

func TestSessionSetIntParameter(t *testing.T) {
	s, err := NewSession(smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if !s.SetIntParameter("threads", 64) || s.Options().Threads != 64 {
		t.Fatalf("threads not applied: %+v", s.Options())
	}
	if s.SetIntParameter("threads", 4096) {
		t.Fatal("threads above the block limit must be refused")
	}
	if s.SetIntParameter("bytes_per_thread", 0) || s.SetIntParameter("w", 8) {
		t.Fatal("invalid adjustments must be refused")
	}
	if err := s.Step(2); err != nil {
		t.Fatal(err)
	}
	if p, _ := s.Parameters().Lookup("threads"); p.Value != "64" {
		t.Fatalf("threads parameter = %q", p.Value)
	}
}

func TestSessionResumesAfterRecovery(t *testing.T) {
	cfg := smallConfig()
	cfg.MemoryLimit = 100
	s, err := NewSession(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if !s.Paused {
		t.Fatal("allocation failure should pause the session")
	}
	if err := s.Resize(16, 2); err != nil {
		t.Fatal(err)
	}
	if s.Paused || s.Status() != "" {
		t.Fatalf("session still degraded: paused=%v status=%q", s.Paused, s.Status())
	}
	if err := s.Step(2); err != nil {
		t.Fatal(err)
	}
	if s.Engine().Generation() != 2 {
		t.Fatalf("generation = %d, want 2", s.Engine().Generation())
	}
}

func TestSessionResetKeepsUserPause(t *testing.T) {
	s, err := NewSession(smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	s.Paused = true
	if err := s.Reset(7); err != nil {
		t.Fatal(err)
	}
	if !s.Paused {
		t.Fatal("reset lifted a pause the user asked for")
	}
}
