package life

import (
	"testing"

	"bitlife/internal/device"
)

func TestTableKnownNeighbourhoods(t *testing.T) {
	table, err := BuildTable(device.New())
	if err != nil {
		t.Fatalf("BuildTable: %v", err)
	}
	if got := table.Eval(0, 0, 0); got != 0 {
		t.Fatalf("empty window = %04b, want 0", got)
	}
	// Horizontal blinker through columns 1..3 of the middle row turns
	// vertical: only column 2 survives in the middle row.
	if got := table.Eval(0, 0b011100, 0); got != 0b0100 {
		t.Fatalf("blinker window = %04b, want 0100", got)
	}
	// Live cells in columns 0..2 of the top row: column 1 sees three and is
	// born, column 2 sees only two.
	if got := table.Eval(0b111000, 0, 0); got != 0b1000 {
		t.Fatalf("birth window = %04b, want 1000", got)
	}
	// A 2x2 block in columns 2..3 of the top and middle rows is stable.
	if got := table.Eval(0b001100, 0b001100, 0); got != 0b0110 {
		t.Fatalf("block window = %04b, want 0110", got)
	}
}

func TestTableMatchesDirectCounting(t *testing.T) {
	table, err := BuildTable(device.New(device.WithWorkers(2)))
	if err != nil {
		t.Fatal(err)
	}
	for idx := uint32(0); idx < TableSize; idx += 97 {
		top, mid, bot := idx>>12&0x3f, idx>>6&0x3f, idx&0x3f
		for c := uint(1); c <= 4; c++ {
			want := uint8(0)
			n := 0
			for dx := -1; dx <= 1; dx++ {
				p := uint(int(5-c) + dx)
				n += int(top>>p&1) + int(bot>>p&1)
				if dx != 0 {
					n += int(mid >> p & 1)
				}
			}
			alive := mid >> (5 - c) & 1
			if n == 3 || (n == 2 && alive == 1) {
				want = 1
			}
			if got := table.Eval(top, mid, bot) >> (4 - c) & 1; got != want {
				t.Fatalf("index %#x column %d = %d, want %d", idx, c, got, want)
			}
		}
	}
}

func TestSharedTableBuiltOnce(t *testing.T) {
	dev := device.New()
	before := TableBuilds()
	a, err := SharedTable(dev)
	if err != nil {
		t.Fatal(err)
	}
	b, err := SharedTable(dev)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("SharedTable returned different tables")
	}
	if builds := TableBuilds() - before; builds > 1 {
		t.Fatalf("table built %d times", builds)
	}
}

func TestPrecomputeTableRejectsShortBuffer(t *testing.T) {
	if err := PrecomputeTable(device.New(), make([]byte, 16)); err == nil {
		t.Fatal("expected error for short table buffer")
	}
}
