package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"slices"
	"testing"

	"github.com/klauspost/compress/zstd"

	"bitlife/internal/core"
	rng "bitlife/pkg/core"
)

func testSnapshot() Snapshot {
	geom := core.Geometry{W: 64, H: 32, Boundary: core.Bounded}
	packed := make([]byte, geom.PackedSize())
	rng.Fill(packed, 0xff, rng.NewPCG(42))
	return Snapshot{Geometry: geom, Generation: 1234, Packed: packed}
}

func TestSaveLoad(t *testing.T) {
	want := testSnapshot()
	var buf bytes.Buffer
	if err := Save(&buf, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Geometry != want.Geometry || got.Generation != want.Generation {
		t.Fatalf("loaded %+v gen %d, want %+v gen %d", got.Geometry, got.Generation, want.Geometry, want.Generation)
	}
	if !slices.Equal(got.Packed, want.Packed) {
		t.Fatal("cells differ after load")
	}
}

func TestReadHeaderReportsFingerprint(t *testing.T) {
	s := testSnapshot()
	var buf bytes.Buffer
	if err := Save(&buf, s); err != nil {
		t.Fatal(err)
	}
	hdr, err := ReadHeader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Fingerprint != Fingerprint(s.Packed) || hdr.Boundary != "bounded" {
		t.Fatalf("unexpected header %+v", hdr)
	}
	if len(hdr.Fingerprint) != 64 {
		t.Fatalf("fingerprint %q is not a hex SHA3-256", hdr.Fingerprint)
	}
}

func TestLoadDetectsCorruption(t *testing.T) {
	s := testSnapshot()
	var buf bytes.Buffer
	if err := Save(&buf, s); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()
	hdr, err := ReadHeader(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}

	// Re-encode different cells behind the saved header.
	headerEnd := bytes.Index(raw, []byte(hdr.Fingerprint)) + len(hdr.Fingerprint) + 2
	var forged bytes.Buffer
	forged.Write(raw[:headerEnd])
	enc, _ := zstd.NewWriter(&forged)
	tampered := slices.Clone(s.Packed)
	tampered[0] ^= 0x80
	enc.Write(tampered)
	enc.Close()

	if _, err := Load(&forged); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	if _, err := Load(bytes.NewReader([]byte("PNG\x00\x00\x00\x00\x01x"))); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	if _, err := Load(bytes.NewReader(nil)); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for empty input, got %v", err)
	}
}

func TestSaveRejectsMismatchedCells(t *testing.T) {
	s := testSnapshot()
	s.Packed = s.Packed[:10]
	if err := Save(&bytes.Buffer{}, s); err == nil {
		t.Fatal("expected error for short cell buffer")
	}
}

func forgedHeader(t *testing.T, hdr string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(magic)
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(hdr))); err != nil {
		t.Fatal(err)
	}
	buf.WriteString(hdr)
	return buf.Bytes()
}

func TestLoadRejectsOversizedWorld(t *testing.T) {
	headers := []string{
		`{"version":1,"width":8,"height":4611686018427387904,"boundary":"cyclic","generation":0,"fingerprint":""}`,
		`{"version":1,"width":32768,"height":32769,"boundary":"cyclic","generation":0,"fingerprint":""}`,
		`{"version":1,"width":9223372036854775800,"height":2,"boundary":"cyclic","generation":0,"fingerprint":""}`,
	}
	for _, hdr := range headers {
		if _, err := Load(bytes.NewReader(forgedHeader(t, hdr))); !errors.Is(err, ErrFormat) {
			t.Fatalf("header %s: expected ErrFormat, got %v", hdr, err)
		}
	}
}

func TestReadHeaderAcceptsLargestWorld(t *testing.T) {
	hdr := `{"version":1,"width":32768,"height":32768,"boundary":"bounded","generation":3,"fingerprint":"x"}`
	got, err := ReadHeader(bytes.NewReader(forgedHeader(t, hdr)))
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if got.Width*got.Height != MaxCells {
		t.Fatalf("unexpected header %+v", got)
	}
}
