package life

import (
	"errors"
	"slices"
	"testing"

	"bitlife/internal/device"
)

func TestEncodeBitOrder(t *testing.T) {
	cells := []byte{1, 0, 0, 0, 0, 0, 0, 1, 0, 1, 0, 0, 0, 0, 0, 0}
	got := Encode(cells, 16, 1)
	if !slices.Equal(got, []byte{0x81, 0x40}) {
		t.Fatalf("Encode = %#x, want [0x81 0x40]", got)
	}
}

func TestEncodeUsesLowBit(t *testing.T) {
	cells := []byte{3, 2, 0xff, 0, 0, 0, 0, 0}
	if got := Encode(cells, 8, 1); got[0] != 0xa0 {
		t.Fatalf("Encode = %#x, want 0xa0", got[0])
	}
}

func TestRoundTrip(t *testing.T) {
	for _, size := range [][2]int{{8, 1}, {16, 16}, {72, 13}, {256, 64}} {
		w, h := size[0], size[1]
		cells := randomCells(int64(w*h), w, h)
		if got := Decode(Encode(cells, w, h), w, h); !slices.Equal(got, cells) {
			x, y, _ := firstDiff(got, cells, w)
			t.Fatalf("%dx%d round trip differs at (%d,%d)", w, h, x, y)
		}
	}
}

func TestKernelsMatchHostCodec(t *testing.T) {
	dev := device.New(device.WithWorkers(3))
	const w, h = 64, 24
	cells := randomCells(11, w, h)

	cbuf, _ := dev.Malloc(w * h)
	pbuf, _ := dev.Malloc(w / 8 * h)
	if err := dev.CopyToDevice(cbuf, cells); err != nil {
		t.Fatal(err)
	}
	if err := EncodeKernel(dev, cbuf, w, h, pbuf); err != nil {
		t.Fatalf("EncodeKernel: %v", err)
	}
	if !slices.Equal(pbuf.Bytes(), Encode(cells, w, h)) {
		t.Fatal("device encode differs from host encode")
	}

	if err := dev.Memset(cbuf, 0xee); err != nil {
		t.Fatal(err)
	}
	if err := DecodeKernel(dev, pbuf, w, h, cbuf); err != nil {
		t.Fatalf("DecodeKernel: %v", err)
	}
	if !slices.Equal(cbuf.Bytes(), cells) {
		t.Fatal("device decode did not restore the world")
	}
}

func TestCodecKernelRejectsBadGeometry(t *testing.T) {
	dev := device.New()
	cbuf, _ := dev.Malloc(12 * 2)
	pbuf, _ := dev.Malloc(2)
	var f *device.Fault
	if err := EncodeKernel(dev, cbuf, 12, 2, pbuf); !errors.As(err, &f) {
		t.Fatalf("expected fault for width 12, got %v", err)
	}
}
