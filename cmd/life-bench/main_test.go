package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"bitlife/internal/app"
	"bitlife/internal/device"
	"bitlife/internal/life"
)

func TestSweepConfigurationsAgree(t *testing.T) {
	cfg := app.NewConfig()
	cfg.Width, cfg.Height, cfg.Seed = 96, 40, 3
	start, err := initialWorld(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	defer life.ReleaseSharedTable()

	const gens = 12
	results := sweep(device.New(), cfg, start, variants(true), gens, 4)
	if len(results) != 21 {
		t.Fatalf("got %d results, want 21", len(results))
	}
	for _, r := range results {
		if r.Error != "" {
			t.Fatalf("%s: %s", r.Variant, r.Error)
		}
	}
	want := referenceFingerprint(start, gens)
	if !agree(results, want) {
		t.Fatalf("configurations disagree with the reference %s", want)
	}
}

func TestOddWidthRunsBytesOnly(t *testing.T) {
	cfg := app.NewConfig()
	cfg.Width, cfg.Height, cfg.Mode = 30, 17, "bytes"
	start, err := initialWorld(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	results := sweep(device.New(), cfg, start, variants(start.geom.W%8 == 0), 5, 2)
	if len(results) != 1 || results[0].Variant.String() != "bytes" {
		t.Fatalf("unexpected results %+v", results)
	}
	if !agree(results, referenceFingerprint(start, 5)) {
		t.Fatal("byte engine disagrees with the reference")
	}
}

func TestSaveAndReloadContinues(t *testing.T) {
	cfg := app.NewConfig()
	cfg.Width, cfg.Height = 64, 24
	start, err := initialWorld(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	defer life.ReleaseSharedTable()

	final, err := advance(start, 7)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	path := filepath.Join(t.TempDir(), "w.blif")
	if err := saveSnapshot(path, final); err != nil {
		t.Fatalf("saveSnapshot: %v", err)
	}
	loaded, err := initialWorld(cfg, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.generation != 7 {
		t.Fatalf("generation = %d, want 7", loaded.generation)
	}
	if got, want := fingerprint(loaded.geom, loaded.cells), referenceFingerprint(start, 7); got != want {
		t.Fatalf("saved world %s, want %s", got, want)
	}

	img := filepath.Join(t.TempDir(), "w.png")
	if err := savePNG(img, final); err != nil {
		t.Fatalf("savePNG: %v", err)
	}
	f, err := os.Open(img)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfgPNG, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfgPNG.Width != 64 || cfgPNG.Height != 24 {
		t.Fatalf("image is %dx%d", cfgPNG.Width, cfgPNG.Height)
	}
}

func TestAgreeReportsErrors(t *testing.T) {
	ok := []scenarioResult{{Fingerprint: "a"}, {Fingerprint: "a"}}
	if !agree(ok, "") || agree(ok, "b") {
		t.Fatal("agree misjudged matching fingerprints")
	}
	if agree([]scenarioResult{{Fingerprint: "a"}, {Error: "boom"}}, "") {
		t.Fatal("errors must count as disagreement")
	}
}
