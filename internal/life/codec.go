package life

import (
	"fmt"

	"bitlife/internal/device"
)

// Packed bytes are MSB-first: bit 7 holds the leftmost of the eight cells.
// Byte-per-cell values are alive when their low bit is set; decoding always
// produces 0 or 1.

func encodeByte(cells []byte) byte {
	_ = cells[7]
	var out byte
	for i := 0; i < 8; i++ {
		out |= (cells[i] & 1) << (7 - i)
	}
	return out
}

func decodeByte(b byte, dst []byte) {
	_ = dst[7]
	for i := 0; i < 8; i++ {
		dst[i] = (b >> (7 - i)) & 1
	}
}

// Encode packs a byte-per-cell world on the host. w must be a multiple of 8.
func Encode(cells []byte, w, h int) []byte {
	out := make([]byte, w/8*h)
	for i := range out {
		out[i] = encodeByte(cells[i*8 : i*8+8])
	}
	return out
}

// Decode unpacks a bit-packed world on the host.
func Decode(packed []byte, w, h int) []byte {
	out := make([]byte, w*h)
	for i, b := range packed[:w/8*h] {
		decodeByte(b, out[i*8:i*8+8])
	}
	return out
}

func checkCodecBuffers(op string, cells, packed *device.Buffer, w, h int) error {
	if w%8 != 0 {
		return &device.Fault{Op: op, Err: fmt.Errorf("width %d is not a multiple of 8", w)}
	}
	if cells.Len() != w*h || packed.Len() != w/8*h {
		return &device.Fault{Op: op, Err: fmt.Errorf("buffer sizes %d/%d do not match %dx%d", cells.Len(), packed.Len(), w, h)}
	}
	return nil
}

// EncodeKernel packs cells into packed on the device, one thread per packed
// byte.
func EncodeKernel(dev *device.Device, cells *device.Buffer, w, h int, packed *device.Buffer) error {
	if err := checkCodecBuffers("encode", cells, packed, w, h); err != nil {
		return err
	}
	src, dst := cells.Bytes(), packed.Bytes()
	n := len(dst)
	const block = 256
	return dev.Launch(device.GridFor(n, block, maxGrid), block, func(tid device.ThreadID) {
		for i := tid.Global(); i < n; i += tid.Stride() {
			dst[i] = encodeByte(src[i*8 : i*8+8])
		}
	})
}

// DecodeKernel unpacks packed into cells on the device, one thread per packed
// byte.
func DecodeKernel(dev *device.Device, packed *device.Buffer, w, h int, cells *device.Buffer) error {
	if err := checkCodecBuffers("decode", cells, packed, w, h); err != nil {
		return err
	}
	src, dst := packed.Bytes(), cells.Bytes()
	n := len(src)
	const block = 256
	return dev.Launch(device.GridFor(n, block, maxGrid), block, func(tid device.ThreadID) {
		for i := tid.Global(); i < n; i += tid.Stride() {
			decodeByte(src[i], dst[i*8:i*8+8])
		}
	})
}
