package app

import (
	"errors"
	"flag"
	"fmt"
	"strconv"

	"bitlife/internal/core"
	"bitlife/internal/life"
	rng "bitlife/pkg/core"
)

// Config represents the command-line parameters shared by the viewer and the
// headless tools.
type Config struct {
	Width    int
	Height   int
	Mode     string
	Boundary string

	Threads        int
	BytesPerThread int
	BigChunks      bool
	UseLookupTable bool

	Source string
	Seed   int64

	Scale       int
	TPS         int
	GensPerTick int

	// MemoryLimit caps device memory in bytes; zero means unlimited.
	MemoryLimit int
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Width:          512,
		Height:         512,
		Mode:           core.ModeBits.String(),
		Boundary:       core.Cyclic.String(),
		Threads:        256,
		BytesPerThread: 8,
		UseLookupTable: true,
		Source:         "pcg",
		Seed:           42,
		Scale:          2,
		TPS:            60,
		GensPerTick:    1,
	}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.Width, "w", c.Width, "world width in cells (multiple of 8 for bits mode)")
	fs.IntVar(&c.Height, "h", c.Height, "world height in cells")
	fs.StringVar(&c.Mode, "mode", c.Mode, "cell storage: bytes or bits")
	fs.StringVar(&c.Boundary, "boundary", c.Boundary, "edge policy: cyclic or bounded")
	fs.IntVar(&c.Threads, "threads", c.Threads, "threads per block")
	fs.IntVar(&c.BytesPerThread, "bpt", c.BytesPerThread, "packed bytes per thread in bits mode")
	fs.BoolVar(&c.BigChunks, "big-chunks", c.BigChunks, "process multi-row chunks per thread in bits mode")
	fs.BoolVar(&c.UseLookupTable, "lookup", c.UseLookupTable, "use the 6x3 lookup table in bits mode")
	fs.StringVar(&c.Source, "rand", c.Source, "random source: pcg or legacy")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for world initialization")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "generations per second")
	fs.IntVar(&c.GensPerTick, "gens", c.GensPerTick, "maximum generations per frame")
	fs.IntVar(&c.MemoryLimit, "mem", c.MemoryLimit, "device memory limit in bytes (0 = unlimited)")
}

// FromMap populates a Config from flag-style key/value pairs, keeping
// defaults for missing or malformed entries.
func FromMap(cfg map[string]string) *Config {
	c := NewConfig()
	if cfg == nil {
		return c
	}
	ints := map[string]*int{
		"w":       &c.Width,
		"h":       &c.Height,
		"threads": &c.Threads,
		"bpt":     &c.BytesPerThread,
		"scale":   &c.Scale,
		"tps":     &c.TPS,
		"gens":    &c.GensPerTick,
		"mem":     &c.MemoryLimit,
	}
	for key, dst := range ints {
		if v, ok := cfg[key]; ok {
			if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
				*dst = parsed
			}
		}
	}
	bools := map[string]*bool{
		"big-chunks": &c.BigChunks,
		"lookup":     &c.UseLookupTable,
	}
	for key, dst := range bools {
		if v, ok := cfg[key]; ok {
			if parsed, err := strconv.ParseBool(v); err == nil {
				*dst = parsed
			}
		}
	}
	if v, ok := cfg["mode"]; ok {
		c.Mode = v
	}
	if v, ok := cfg["boundary"]; ok {
		c.Boundary = v
	}
	if v, ok := cfg["rand"]; ok {
		c.Source = v
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	return c
}

// Validate reports every problem with the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("world size %dx%d must be positive", c.Width, c.Height))
	}
	mode, err := core.ParseMode(c.Mode)
	if err != nil {
		errs = append(errs, err)
	} else if mode == core.ModeBits && c.Width%8 != 0 {
		errs = append(errs, fmt.Errorf("bits mode needs a width divisible by 8, got %d", c.Width))
	}
	if _, err := core.ParseBoundary(c.Boundary); err != nil {
		errs = append(errs, err)
	}
	if _, ok := rng.Sources()[c.Source]; !ok {
		errs = append(errs, fmt.Errorf("unknown random source %q (have %v)", c.Source, rng.SourceNames()))
	}
	if c.BytesPerThread < 1 {
		errs = append(errs, fmt.Errorf("bytes per thread must be at least 1, got %d", c.BytesPerThread))
	}
	return errors.Join(errs...)
}

// ModeValue returns the parsed storage mode, defaulting to bits.
func (c *Config) ModeValue() core.Mode {
	m, err := core.ParseMode(c.Mode)
	if err != nil {
		return core.ModeBits
	}
	return m
}

// BoundaryValue returns the parsed edge policy, defaulting to cyclic.
func (c *Config) BoundaryValue() core.Boundary {
	b, err := core.ParseBoundary(c.Boundary)
	if err != nil {
		return core.Cyclic
	}
	return b
}

// IterateOptions returns the launch parameters.
func (c *Config) IterateOptions() life.IterateOptions {
	return life.IterateOptions{
		Threads:        c.Threads,
		UseLookupTable: c.UseLookupTable,
		BytesPerThread: c.BytesPerThread,
		BigChunks:      c.BigChunks,
	}
}

// NewSource builds the configured random source.
func (c *Config) NewSource(seed int64) (rng.BitSource, error) {
	return rng.NewSource(c.Source, seed)
}
