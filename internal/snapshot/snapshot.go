// Package snapshot saves and restores worlds.
//
// A snapshot is the magic "BLIF", a big-endian uint32 header length, a JSON
// header and the bit-packed cells compressed with zstd. The header carries a
// SHA3-256 fingerprint of the packed cells that Load verifies.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/klauspost/compress/zstd"
	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/sha3"

	"bitlife/internal/core"
)

const (
	magic   = "BLIF"
	version = 1

	maxHeader = 1 << 16
)

// MaxCells bounds the world a snapshot may describe, so a forged header
// cannot make Load allocate without limit.
const MaxCells = 1 << 30

var (
	// ErrFormat reports input that is not a snapshot.
	ErrFormat = errors.New("snapshot: bad format")
	// ErrCorrupt reports a snapshot whose cells do not match its fingerprint.
	ErrCorrupt = errors.New("snapshot: fingerprint mismatch")
)

// Header describes the world stored in a snapshot.
type Header struct {
	Version     int    `json:"version"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Boundary    string `json:"boundary"`
	Generation  int64  `json:"generation"`
	Fingerprint string `json:"fingerprint"`
}

// Snapshot is a world at a given generation in the bit-packed layout.
type Snapshot struct {
	Geometry   core.Geometry
	Generation int64
	Packed     []byte
}

// Fingerprint returns the hex SHA3-256 digest of packed cells.
func Fingerprint(packed []byte) string {
	sum := sha3.Sum256(packed)
	return hex.EncodeToString(sum[:])
}

// Save writes s to w.
func Save(w io.Writer, s Snapshot) error {
	g := s.Geometry
	if g.W <= 0 || g.H <= 0 || g.W%8 != 0 {
		return fmt.Errorf("snapshot: cannot store a %dx%d world", g.W, g.H)
	}
	if len(s.Packed) != g.PackedSize() {
		return fmt.Errorf("snapshot: %d packed bytes for a %dx%d world", len(s.Packed), g.W, g.H)
	}
	hdr, err := sonnet.Marshal(Header{
		Version:     version,
		Width:       g.W,
		Height:      g.H,
		Boundary:    g.Boundary.String(),
		Generation:  s.Generation,
		Fingerprint: Fingerprint(s.Packed),
	})
	if err != nil {
		return fmt.Errorf("snapshot: encode header: %w", err)
	}

	var prefix bytes.Buffer
	prefix.WriteString(magic)
	if err := binary.Write(&prefix, binary.BigEndian, uint32(len(hdr))); err != nil {
		return err
	}
	prefix.Write(hdr)
	if _, err := w.Write(prefix.Bytes()); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(runtime.NumCPU()))
	if err != nil {
		return err
	}
	if _, err := enc.Write(s.Packed); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadHeader reads and validates the header from r, leaving r at the start
// of the compressed cells.
func ReadHeader(r io.Reader) (Header, error) {
	var prefix [len(magic) + 4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if string(prefix[:len(magic)]) != magic {
		return Header{}, fmt.Errorf("%w: missing magic", ErrFormat)
	}
	n := binary.BigEndian.Uint32(prefix[len(magic):])
	if n == 0 || n > maxHeader {
		return Header{}, fmt.Errorf("%w: header length %d", ErrFormat, n)
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	var hdr Header
	if err := sonnet.Unmarshal(raw, &hdr); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if hdr.Version != version {
		return Header{}, fmt.Errorf("%w: unsupported version %d", ErrFormat, hdr.Version)
	}
	if hdr.Width <= 0 || hdr.Height <= 0 || hdr.Width%8 != 0 {
		return Header{}, fmt.Errorf("%w: world %dx%d", ErrFormat, hdr.Width, hdr.Height)
	}
	if hdr.Width > MaxCells || hdr.Height > MaxCells/hdr.Width {
		return Header{}, fmt.Errorf("%w: world %dx%d exceeds %d cells", ErrFormat, hdr.Width, hdr.Height, MaxCells)
	}
	return hdr, nil
}

// Load reads a snapshot from r and verifies its fingerprint.
func Load(r io.Reader) (Snapshot, error) {
	hdr, err := ReadHeader(r)
	if err != nil {
		return Snapshot{}, err
	}
	boundary, err := core.ParseBoundary(hdr.Boundary)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	dec, err := zstd.NewReader(r)
	if err != nil {
		return Snapshot{}, err
	}
	defer dec.Close()

	geom := core.Geometry{W: hdr.Width, H: hdr.Height, Boundary: boundary}
	packed := make([]byte, geom.PackedSize())
	if _, err := io.ReadFull(dec, packed); err != nil {
		return Snapshot{}, fmt.Errorf("%w: cells: %v", ErrFormat, err)
	}
	if Fingerprint(packed) != hdr.Fingerprint {
		return Snapshot{}, ErrCorrupt
	}
	return Snapshot{Geometry: geom, Generation: hdr.Generation, Packed: packed}, nil
}
