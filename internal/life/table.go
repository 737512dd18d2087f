package life

import (
	"fmt"
	"math/bits"
	"sync"

	"bitlife/internal/device"
)

// TableSize is the number of entries in the 6×3 evaluation table: three rows
// of six cells, one bit each.
const TableSize = 1 << 18

// Table maps a 6-column × 3-row neighbourhood to the next state of its four
// interior cells. The index is top<<12 | mid<<6 | bot where each row is six
// bits with the leftmost cell in bit 5. The entry holds the four results with
// the leftmost interior cell in bit 3.
type Table struct {
	entries []byte
}

// Eval looks up the four interior results for three six-bit rows.
func (t *Table) Eval(top, mid, bot uint32) uint8 {
	return t.entries[(top&0x3f)<<12|(mid&0x3f)<<6|bot&0x3f]
}

// Bytes returns the raw table. It must not be modified.
func (t *Table) Bytes() []byte { return t.entries }

// nextCell applies Conway's rule to the cell at bit position p of the middle
// row, counting neighbours at positions p-1..p+1 of all three rows.
func nextCell(top, mid, bot uint32, p uint) uint8 {
	m := uint32(7) << (p - 1)
	alive := (mid >> p) & 1
	n := bits.OnesCount32(top&m) + bits.OnesCount32(mid&m) + bits.OnesCount32(bot&m) - int(alive)
	if n == 3 || (n == 2 && alive == 1) {
		return 1
	}
	return 0
}

func evalWindow(idx uint32) uint8 {
	top, mid, bot := idx>>12&0x3f, idx>>6&0x3f, idx&0x3f
	var out uint8
	for p := uint(4); p >= 1; p-- {
		out = out<<1 | nextCell(top, mid, bot, p)
	}
	return out
}

// PrecomputeTable fills a caller-allocated TableSize buffer, one thread per
// entry.
func PrecomputeTable(dev *device.Device, out []byte) error {
	if len(out) != TableSize {
		return &device.Fault{Op: "precompute table", Err: fmt.Errorf("buffer is %d bytes, need %d", len(out), TableSize)}
	}
	const block = 256
	return dev.Launch(device.GridFor(TableSize, block, 0), block, func(tid device.ThreadID) {
		for i := tid.Global(); i < TableSize; i += tid.Stride() {
			out[i] = evalWindow(uint32(i))
		}
	})
}

// BuildTable allocates and fills a new Table.
func BuildTable(dev *device.Device) (*Table, error) {
	t := &Table{entries: make([]byte, TableSize)}
	if err := PrecomputeTable(dev, t.entries); err != nil {
		return nil, err
	}
	return t, nil
}

// The process-wide table is built on first request and kept until
// ReleaseSharedTable. Readers share it without locking once they hold it.
var shared struct {
	mu     sync.Mutex
	table  *Table
	builds int
}

// SharedTable returns the process-wide table, building it on the first call.
func SharedTable(dev *device.Device) (*Table, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.table != nil {
		return shared.table, nil
	}
	t, err := BuildTable(dev)
	if err != nil {
		return nil, fmt.Errorf("build lookup table: %w", err)
	}
	shared.table = t
	shared.builds++
	return t, nil
}

// ReleaseSharedTable drops the process-wide table. Call it at teardown.
func ReleaseSharedTable() {
	shared.mu.Lock()
	shared.table = nil
	shared.mu.Unlock()
}

// TableBuilds reports how many times the shared table has been computed.
func TableBuilds() int {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	return shared.builds
}
