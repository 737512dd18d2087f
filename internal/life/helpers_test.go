package life

import (
	"testing"

	"bitlife/internal/core"
	"bitlife/internal/device"
	rng "bitlife/pkg/core"
)

func randomCells(seed int64, w, h int) []byte {
	cells := make([]byte, w*h)
	rng.Fill(cells, 0x1, rng.NewPCG(seed))
	return cells
}

// loadEngine returns an engine holding cells in the given mode.
func loadEngine(t *testing.T, cells []byte, w, h int, b core.Boundary, mode core.Mode) *Engine {
	t.Helper()
	e := NewEngine(device.New(device.WithWorkers(4)), WithSize(w, h), WithBoundary(b))
	if ok, err := e.SwitchMode(mode); !ok || err != nil {
		t.Fatalf("SwitchMode(%s) = %v, %v", mode, ok, err)
	}
	if ok, err := e.LoadCells(cells, 0); !ok || err != nil {
		t.Fatalf("LoadCells = %v, %v", ok, err)
	}
	return e
}

func readCells(t *testing.T, e *Engine) []byte {
	t.Helper()
	out := make([]byte, e.Geometry().Cells())
	if err := e.ReadCells(out); err != nil {
		t.Fatalf("ReadCells: %v", err)
	}
	return out
}

func iterate(t *testing.T, e *Engine, gens int, opts IterateOptions) {
	t.Helper()
	ok, err := e.Iterate(gens, opts)
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if !ok {
		t.Fatal("Iterate reported missing buffers")
	}
}

func firstDiff(a, b []byte, w int) (int, int, bool) {
	for i := range a {
		if a[i] != b[i] {
			return i % w, i / w, true
		}
	}
	return 0, 0, false
}

func setCells(cells []byte, w int, pts [][2]int) {
	for _, p := range pts {
		cells[p[1]*w+p[0]] = 1
	}
}

func ensure(t *testing.T, e *Engine, mode core.Mode) bool {
	t.Helper()
	ok, err := e.EnsureAllocated(mode)
	if err != nil {
		t.Fatalf("EnsureAllocated(%s): %v", mode, err)
	}
	return ok
}
