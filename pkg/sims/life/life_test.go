package life

import (
	"testing"

	icore "bitlife/internal/core"
)

func TestBlinkerOscillation(t *testing.T) {
	life := New(5, 5, icore.Cyclic)

	w := life.Size().W
	set := func(x, y int) { life.Cells()[y*w+x] = 1 }
	set(2, 1)
	set(2, 2)
	set(2, 3)

	life.Step()
	cells := life.Cells()

	expects := map[[2]int]bool{
		{1, 2}: true,
		{2, 2}: true,
		{3, 2}: true,
	}

	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			idx := y*w + x
			alive := cells[idx] == 1
			_, shouldBeAlive := expects[[2]int{x, y}]
			if shouldBeAlive != alive {
				t.Fatalf("cell (%d,%d) alive=%v, expected %v", x, y, alive, shouldBeAlive)
			}
		}
	}

	life.Step()
	cells = life.Cells()

	expects = map[[2]int]bool{
		{2, 1}: true,
		{2, 2}: true,
		{2, 3}: true,
	}

	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			idx := y*w + x
			alive := cells[idx] == 1
			_, shouldBeAlive := expects[[2]int{x, y}]
			if shouldBeAlive != alive {
				t.Fatalf("after second step cell (%d,%d) alive=%v, expected %v", x, y, alive, shouldBeAlive)
			}
		}
	}
}

func TestBoundedEdgeBlinkerDiffersFromCyclic(t *testing.T) {
	// A vertical blinker on the left edge: cyclic worlds see the wrapped
	// column, bounded worlds lose the left arm.
	seed := make([]uint8, 5*5)
	seed[1*5+0] = 1
	seed[2*5+0] = 1
	seed[3*5+0] = 1

	cyclic := FromCells(seed, 5, 5, icore.Cyclic)
	bounded := FromCells(seed, 5, 5, icore.Bounded)
	cyclic.Step()
	bounded.Step()

	if cyclic.Cells()[2*5+4] != 1 {
		t.Fatal("cyclic blinker should wrap to column 4")
	}
	if bounded.Cells()[2*5+4] != 0 {
		t.Fatal("bounded blinker must not wrap")
	}
	if bounded.Cells()[2*5+1] != 1 || bounded.Cells()[2*5+0] != 1 {
		t.Fatal("bounded blinker should keep the inner arm")
	}
}
