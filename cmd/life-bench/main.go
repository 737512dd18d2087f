// Command life-bench runs one world through every engine configuration,
// reports timings and checks that all configurations agree.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sugawarayuuta/sonnet"

	"bitlife/internal/app"
	"bitlife/internal/core"
	"bitlife/internal/device"
	"bitlife/internal/life"
	"bitlife/internal/render"
	"bitlife/internal/snapshot"
	rng "bitlife/pkg/core"
	reference "bitlife/pkg/sims/life"
)

type variant struct {
	Mode           string `json:"mode"`
	BytesPerThread int    `json:"bytes_per_thread,omitempty"`
	BigChunks      bool   `json:"big_chunks,omitempty"`
	Lookup         bool   `json:"lookup,omitempty"`
}

func (v variant) String() string {
	if v.Mode == core.ModeBytes.String() {
		return "bytes"
	}
	return fmt.Sprintf("bits bpt=%d big=%t lookup=%t", v.BytesPerThread, v.BigChunks, v.Lookup)
}

type scenarioResult struct {
	Variant     variant `json:"variant"`
	Generations int     `json:"generations"`
	Millis      float64 `json:"ms"`
	CellsPerSec float64 `json:"cells_per_sec"`
	Fingerprint string  `json:"fingerprint"`
	Error       string  `json:"error,omitempty"`
}

type report struct {
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	Boundary    string           `json:"boundary"`
	Generations int              `json:"generations"`
	Initial     string           `json:"initial"`
	Reference   string           `json:"reference,omitempty"`
	Agree       bool             `json:"agree"`
	Results     []scenarioResult `json:"results"`
	Device      device.Stats     `json:"device"`
}

func variants(bits bool) []variant {
	out := []variant{{Mode: core.ModeBytes.String()}}
	if !bits {
		return out
	}
	for _, bpt := range []int{1, 2, 4, 8, 16} {
		for _, big := range []bool{false, true} {
			for _, lookup := range []bool{false, true} {
				out = append(out, variant{Mode: core.ModeBits.String(), BytesPerThread: bpt, BigChunks: big, Lookup: lookup})
			}
		}
	}
	return out
}

// world is a starting state held on the host one byte per cell.
type world struct {
	geom       core.Geometry
	cells      []byte
	generation int64
}

// fingerprint hashes cells in the packed layout when the width allows it.
func fingerprint(g core.Geometry, cells []byte) string {
	if g.W%8 == 0 {
		return snapshot.Fingerprint(life.Encode(cells, g.W, g.H))
	}
	return snapshot.Fingerprint(cells)
}

func runScenario(dev *device.Device, cfg *app.Config, start world, v variant, gens int) scenarioResult {
	res := scenarioResult{Variant: v, Generations: gens}
	geom := start.geom
	mode, _ := core.ParseMode(v.Mode)
	eng := life.NewEngine(dev, life.WithSize(geom.W, geom.H), life.WithBoundary(geom.Boundary))
	defer eng.Close()
	if _, err := eng.SwitchMode(mode); err != nil {
		res.Error = err.Error()
		return res
	}
	ok, err := eng.LoadCells(start.cells, 0)
	if err != nil || !ok {
		res.Error = fmt.Sprintf("load world: ok=%t err=%v", ok, err)
		return res
	}
	opts := life.IterateOptions{
		Threads:        cfg.Threads,
		UseLookupTable: v.Lookup,
		BytesPerThread: v.BytesPerThread,
		BigChunks:      v.BigChunks,
	}
	t0 := time.Now()
	ok, err = eng.Iterate(gens, opts)
	elapsed := time.Since(t0)
	if err != nil || !ok {
		res.Error = fmt.Sprintf("iterate: ok=%t err=%v", ok, err)
		return res
	}
	res.Millis = float64(elapsed.Microseconds()) / 1000
	if elapsed > 0 {
		res.CellsPerSec = float64(geom.Cells()) * float64(gens) / elapsed.Seconds()
	}

	cells := make([]byte, geom.Cells())
	if err := eng.ReadCells(cells); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Fingerprint = fingerprint(geom, cells)
	return res
}

func sweep(dev *device.Device, cfg *app.Config, start world, sets []variant, gens, workers int) []scenarioResult {
	jobs := make(chan variant)
	results := make(chan scenarioResult)
	var wg sync.WaitGroup

	for i := 0; i < max(workers, 1); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range jobs {
				results <- runScenario(dev, cfg, start, v, gens)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		for _, v := range sets {
			jobs <- v
		}
		close(jobs)
	}()

	var all []scenarioResult
	for res := range results {
		all = append(all, res)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Variant.String() < all[j].Variant.String() })
	return all
}

func agree(results []scenarioResult, want string) bool {
	for _, r := range results {
		if r.Error != "" || (want != "" && r.Fingerprint != want) {
			return false
		}
		if want == "" {
			want = r.Fingerprint
		}
	}
	return true
}

func initialWorld(cfg *app.Config, loadPath string) (world, error) {
	if loadPath != "" {
		f, err := os.Open(loadPath)
		if err != nil {
			return world{}, err
		}
		defer f.Close()
		snap, err := snapshot.Load(f)
		if err != nil {
			return world{}, err
		}
		g := snap.Geometry
		return world{geom: g, cells: life.Decode(snap.Packed, g.W, g.H), generation: snap.Generation}, nil
	}
	geom := core.Geometry{W: cfg.Width, H: cfg.Height, Boundary: cfg.BoundaryValue()}
	src, err := cfg.NewSource(cfg.Seed)
	if err != nil {
		return world{}, err
	}
	cells := make([]byte, geom.Cells())
	rng.Fill(cells, 0x01, src)
	return world{geom: geom, cells: cells}, nil
}

func referenceFingerprint(start world, gens int) string {
	g := start.geom
	sim := reference.FromCells(start.cells, g.W, g.H, g.Boundary)
	sim.StepN(gens)
	return fingerprint(g, sim.Cells())
}

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	gens := flag.Int("n", 100, "generations per configuration")
	workers := flag.Int("workers", runtime.NumCPU(), "configurations run concurrently")
	verify := flag.Bool("verify", false, "check results against the reference stepper")
	loadPath := flag.String("load", "", "start from this snapshot instead of a random world")
	savePath := flag.String("save", "", "write the final world to this snapshot")
	pngPath := flag.String("png", "", "write the final world to this PNG image")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("life-bench: %v", err)
	}
	if *savePath != "" && cfg.Width%8 != 0 {
		log.Fatalf("life-bench: snapshots need a width divisible by 8, got %d", cfg.Width)
	}
	start, err := initialWorld(cfg, *loadPath)
	if err != nil {
		log.Fatalf("life-bench: initial world: %v", err)
	}
	dev := device.New(device.WithCapacity(cfg.MemoryLimit))
	defer life.ReleaseSharedTable()

	g := start.geom
	sets := variants(g.W%8 == 0)
	log.Printf("sweeping %d configurations on a %dx%d %s world (%d workers, %d generations)",
		len(sets), g.W, g.H, g.Boundary, *workers, *gens)

	t0 := time.Now()
	results := sweep(dev, cfg, start, sets, *gens, *workers)
	rep := report{
		Width:       g.W,
		Height:      g.H,
		Boundary:    g.Boundary.String(),
		Generations: *gens,
		Initial:     fingerprint(g, start.cells),
		Results:     results,
		Device:      dev.Stats(),
	}
	if *verify {
		rep.Reference = referenceFingerprint(start, *gens)
	}
	rep.Agree = agree(results, rep.Reference)
	log.Printf("sweep finished in %s", time.Since(t0).Round(time.Millisecond))

	out, err := sonnet.Marshal(rep)
	if err != nil {
		log.Fatalf("life-bench: encode report: %v", err)
	}
	fmt.Println(string(out))

	if *savePath != "" || *pngPath != "" {
		final, err := advance(start, *gens)
		if err != nil {
			log.Fatalf("life-bench: final world: %v", err)
		}
		if *savePath != "" {
			if err := saveSnapshot(*savePath, final); err != nil {
				log.Fatalf("life-bench: save: %v", err)
			}
		}
		if *pngPath != "" {
			if err := savePNG(*pngPath, final); err != nil {
				log.Fatalf("life-bench: png: %v", err)
			}
		}
	}
	if !rep.Agree {
		log.Print("configurations disagree")
		os.Exit(1)
	}
}

// advance runs start forward on a fresh device with the default options.
func advance(start world, gens int) (world, error) {
	g := start.geom
	mode := core.ModeBytes
	if g.W%8 == 0 {
		mode = core.ModeBits
	}
	eng := life.NewEngine(device.New(), life.WithSize(g.W, g.H), life.WithBoundary(g.Boundary))
	defer eng.Close()
	if _, err := eng.SwitchMode(mode); err != nil {
		return world{}, err
	}
	if ok, err := eng.LoadCells(start.cells, start.generation); err != nil || !ok {
		return world{}, fmt.Errorf("load world: ok=%t err=%v", ok, err)
	}
	if ok, err := eng.Iterate(gens, life.DefaultIterateOptions()); err != nil || !ok {
		return world{}, fmt.Errorf("iterate: ok=%t err=%v", ok, err)
	}
	cells := make([]byte, g.Cells())
	if err := eng.ReadCells(cells); err != nil {
		return world{}, err
	}
	return world{geom: g, cells: cells, generation: eng.Generation()}, nil
}

func saveSnapshot(path string, w world) error {
	g := w.geom
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	snap := snapshot.Snapshot{Geometry: g, Generation: w.generation, Packed: life.Encode(w.cells, g.W, g.H)}
	if err := snapshot.Save(f, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func savePNG(path string, w world) error {
	img := &image.RGBA{
		Pix:    render.CellsToRGBA(w.cells, render.DefaultPalette()),
		Stride: 4 * w.geom.W,
		Rect:   image.Rect(0, 0, w.geom.W, w.geom.H),
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
