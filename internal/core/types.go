package core

import (
	"fmt"
	"strings"
)

// Size describes the dimensions of a world.
type Size struct {
	W int
	H int
}

// Mode selects the cell storage representation.
type Mode uint8

const (
	// ModeBytes stores one byte per cell.
	ModeBytes Mode = iota
	// ModeBits packs eight horizontally adjacent cells per byte.
	ModeBits
)

func (m Mode) String() string {
	switch m {
	case ModeBytes:
		return "bytes"
	case ModeBits:
		return "bits"
	default:
		return fmt.Sprintf("mode(%d)", m)
	}
}

// ParseMode accepts the names produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "bytes", "byte", "simple":
		return ModeBytes, nil
	case "bits", "bit", "packed":
		return ModeBits, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// Boundary selects how cells at the edge of the world see their neighbours.
type Boundary uint8

const (
	// Cyclic wraps both axes, making the world a torus.
	Cyclic Boundary = iota
	// Bounded treats everything outside the world as dead.
	Bounded
)

func (b Boundary) String() string {
	switch b {
	case Cyclic:
		return "cyclic"
	case Bounded:
		return "bounded"
	default:
		return fmt.Sprintf("boundary(%d)", b)
	}
}

// ParseBoundary accepts the names produced by Boundary.String.
func ParseBoundary(s string) (Boundary, error) {
	switch strings.ToLower(s) {
	case "cyclic", "torus", "wrap":
		return Cyclic, nil
	case "bounded", "clamp", "clamped":
		return Bounded, nil
	}
	return 0, fmt.Errorf("unknown boundary %q", s)
}

// WorldView is a read-only view of the live world handed to display code.
// Data is bit-packed when Mode is ModeBits.
type WorldView struct {
	Data     []byte
	Mode     Mode
	Geometry Geometry
}
