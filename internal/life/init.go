package life

import (
	"bitlife/internal/core"
	rng "bitlife/pkg/core"
)

// Masks applied to random bytes: one meaningful bit per cell in byte mode,
// eight in bit mode.
const (
	bytesMask uint8 = 0x01
	bitsMask  uint8 = 0xff
)

// Init allocates the buffers for mode if needed, fills the world with random
// cells drawn from src and makes mode the live representation. It returns
// false when the buffers cannot be allocated.
func (e *Engine) Init(mode core.Mode, src rng.BitSource) (bool, error) {
	if err := e.Validate(mode); err != nil {
		return false, err
	}
	if ok, err := e.EnsureAllocated(mode); !ok || err != nil {
		return false, err
	}
	mask := bytesMask
	if mode == core.ModeBits {
		mask = bitsMask
	}
	host := make([]byte, e.worldSize(mode))
	rng.Fill(host, mask, src)
	if err := e.dev.CopyToDevice(e.pair(mode).Cur, host); err != nil {
		return false, err
	}
	e.live = mode
	e.initialized = true
	e.generation = 0
	return true, nil
}
