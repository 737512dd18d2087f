package core

import (
	"fmt"
	"math/rand"
	randv2 "math/rand/v2"
	"sort"
)

// BitSource produces uniformly distributed bits.
type BitSource interface {
	Uint32() uint32
}

// PCG is the higher-quality seeded source backed by math/rand/v2.
type PCG struct {
	r *randv2.Rand
}

// NewPCG creates a deterministic PCG source using the provided seed.
func NewPCG(seed int64) *PCG {
	return &PCG{r: randv2.New(randv2.NewPCG(uint64(seed), 0))}
}

// Uint32 returns 32 uniformly distributed bits.
func (p *PCG) Uint32() uint32 { return p.r.Uint32() }

// Legacy is the older, lower-quality generator from math/rand. Its Int31
// output never sets the top bit, which is harmless for the masks used here.
type Legacy struct {
	r *rand.Rand
}

// NewLegacy creates a deterministic legacy source.
func NewLegacy(seed int64) *Legacy {
	return &Legacy{r: rand.New(rand.NewSource(seed))}
}

// Uint32 returns 31 random bits.
func (l *Legacy) Uint32() uint32 { return uint32(l.r.Int31()) }

// Fill writes len(buf) bytes, each drawn from src and masked with mask.
func Fill(buf []uint8, mask uint8, src BitSource) {
	for i := range buf {
		buf[i] = uint8(src.Uint32()) & mask
	}
}

// SourceFactory builds a seeded BitSource.
type SourceFactory func(seed int64) BitSource

var sources = map[string]SourceFactory{}

// RegisterSource adds a source factory under the provided name.
func RegisterSource(name string, f SourceFactory) {
	if name == "" || f == nil {
		return
	}
	sources[name] = f
}

// Sources exposes the registry of available bit sources.
func Sources() map[string]SourceFactory {
	return sources
}

// SourceNames lists the registered sources in sorted order.
func SourceNames() []string {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewSource looks up a registered source by name.
func NewSource(name string, seed int64) (BitSource, error) {
	f, ok := sources[name]
	if !ok {
		return nil, fmt.Errorf("unknown random source %q", name)
	}
	return f(seed), nil
}

func init() {
	RegisterSource("pcg", func(seed int64) BitSource { return NewPCG(seed) })
	RegisterSource("legacy", func(seed int64) BitSource { return NewLegacy(seed) })
}
