// Package device emulates a data-parallel compute device on the host CPU.
//
// Device memory is a budgeted allocator that can run out, and kernels are
// launched over a one-dimensional grid of blocks of threads. A launch blocks
// until every thread has finished; there is no cancellation of in-flight work.
package device

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// MaxThreadsPerBlock bounds the block dimension of a launch.
const MaxThreadsPerBlock = 1024

// ErrOutOfMemory is returned by Malloc when the device budget is exhausted.
var ErrOutOfMemory = errors.New("device: out of memory")

// Fault describes an unrecoverable device error. Callers abort the running
// operation when they see one.
type Fault struct {
	Op  string
	Err error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("device fault in %s: %v", f.Op, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

func fault(op string, format string, args ...any) *Fault {
	return &Fault{Op: op, Err: fmt.Errorf(format, args...)}
}

// Buffer is a block of device memory.
type Buffer struct {
	data  []byte
	freed bool
}

// Len returns the buffer size in bytes.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Bytes exposes the device memory. Only kernels and read-only views should
// touch it.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Stats summarizes allocator activity.
type Stats struct {
	Mallocs       int
	FailedMallocs int
	Frees         int
	InUse         int
	Peak          int
}

// Device owns the memory budget and the worker fan-out used for launches.
type Device struct {
	name     string
	capacity int
	workers  int

	mu    sync.Mutex
	stats Stats
}

// Option configures a Device.
type Option func(*Device)

// WithCapacity limits the total bytes that may be allocated at once. Zero
// means unlimited.
func WithCapacity(bytes int) Option {
	return func(d *Device) {
		if bytes < 0 {
			bytes = 0
		}
		d.capacity = bytes
	}
}

// WithWorkers sets how many goroutines a launch fans out to.
func WithWorkers(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithName labels the device.
func WithName(name string) Option {
	return func(d *Device) { d.name = name }
}

// New constructs a Device.
func New(opts ...Option) *Device {
	d := &Device{name: "cpu", workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the device label.
func (d *Device) Name() string { return d.name }

// Capacity returns the memory budget in bytes, zero when unlimited.
func (d *Device) Capacity() int { return d.capacity }

// Workers returns the launch fan-out.
func (d *Device) Workers() int { return d.workers }

// Stats returns a copy of the allocator counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Malloc allocates size bytes of zeroed device memory.
func (d *Device) Malloc(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fault("malloc", "invalid size %d", size)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Mallocs++
	if d.capacity > 0 && d.stats.InUse+size > d.capacity {
		d.stats.FailedMallocs++
		return nil, fmt.Errorf("malloc %d bytes (%d of %d in use): %w", size, d.stats.InUse, d.capacity, ErrOutOfMemory)
	}
	d.stats.InUse += size
	if d.stats.InUse > d.stats.Peak {
		d.stats.Peak = d.stats.InUse
	}
	return &Buffer{data: make([]byte, size)}, nil
}

// Free releases a buffer. Freeing nil is a no-op.
func (d *Device) Free(b *Buffer) error {
	if b == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if b.freed {
		return fault("free", "double free of %d byte buffer", len(b.data))
	}
	b.freed = true
	d.stats.Frees++
	d.stats.InUse -= len(b.data)
	b.data = nil
	return nil
}

// CopyToDevice uploads src into dst. The sizes must match.
func (d *Device) CopyToDevice(dst *Buffer, src []byte) error {
	if err := checkLive("memcpy htod", dst); err != nil {
		return err
	}
	if len(src) != len(dst.data) {
		return fault("memcpy htod", "size mismatch: host %d, device %d", len(src), len(dst.data))
	}
	copy(dst.data, src)
	return nil
}

// CopyToHost downloads src into dst. The sizes must match.
func (d *Device) CopyToHost(dst []byte, src *Buffer) error {
	if err := checkLive("memcpy dtoh", src); err != nil {
		return err
	}
	if len(dst) != len(src.data) {
		return fault("memcpy dtoh", "size mismatch: host %d, device %d", len(dst), len(src.data))
	}
	copy(dst, src.data)
	return nil
}

// Memset fills the buffer with value.
func (d *Device) Memset(b *Buffer, value byte) error {
	if err := checkLive("memset", b); err != nil {
		return err
	}
	for i := range b.data {
		b.data[i] = value
	}
	return nil
}

func checkLive(op string, b *Buffer) error {
	if b == nil {
		return fault(op, "nil buffer")
	}
	if b.freed {
		return fault(op, "use after free")
	}
	return nil
}
