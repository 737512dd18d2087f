package core

import "time"

// FixedStep paces generations at a steady rate independent of the frame
// rate. Each call to Due reports how many generations have accumulated.
type FixedStep struct {
	step        time.Duration
	accumulator time.Duration
	last        time.Time
	maxBatch    int

	now func() time.Time
}

// NewFixedStep targets gps generations per second and never reports more
// than maxBatch generations from a single Due call.
func NewFixedStep(gps, maxBatch int) *FixedStep {
	if maxBatch <= 0 {
		maxBatch = 1
	}
	fs := &FixedStep{maxBatch: maxBatch, now: time.Now}
	fs.SetRate(gps)
	return fs
}

// SetRate changes the generation rate. It is safe to call from the main loop.
func (f *FixedStep) SetRate(gps int) {
	if gps <= 0 {
		gps = 60
	}
	f.step = time.Second / time.Duration(gps)
}

// Due returns the number of generations to run now. Time that would exceed
// maxBatch is dropped so a stalled frame does not cause a burst later.
func (f *FixedStep) Due() int {
	now := f.now()
	if f.last.IsZero() {
		f.last = now
		return 1
	}
	f.accumulator += now.Sub(f.last)
	f.last = now
	n := int(f.accumulator / f.step)
	if n > f.maxBatch {
		n = f.maxBatch
		f.accumulator = 0
		return n
	}
	f.accumulator -= time.Duration(n) * f.step
	return n
}

// Reset forgets accumulated time, e.g. after unpausing.
func (f *FixedStep) Reset() {
	f.accumulator = 0
	f.last = time.Time{}
}
