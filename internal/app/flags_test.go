package app

import (
	"flag"
	"testing"

	"bitlife/internal/core"
)

func TestBindParsesFlags(t *testing.T) {
	cfg := NewConfig()
	fs := flag.NewFlagSet("life", flag.ContinueOnError)
	cfg.Bind(fs)
	err := fs.Parse([]string{"-w", "128", "-mode", "bytes", "-boundary", "bounded", "-big-chunks", "-rand", "legacy"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 128 || cfg.ModeValue() != core.ModeBytes || cfg.BoundaryValue() != core.Bounded {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.BigChunks || cfg.Source != "legacy" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestFromMap(t *testing.T) {
	cfg := FromMap(map[string]string{"w": "64", "h": "bogus", "lookup": "false", "seed": "-3", "mode": "bytes"})
	if cfg.Width != 64 || cfg.Height != NewConfig().Height {
		t.Fatalf("size = %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.UseLookupTable || cfg.Seed != -3 || cfg.ModeValue() != core.ModeBytes {
		t.Fatalf("unexpected config %+v", cfg)
	}
	opts := cfg.IterateOptions()
	if opts.UseLookupTable || opts.BytesPerThread != 8 {
		t.Fatalf("IterateOptions = %+v", opts)
	}
}

func TestValidateRejectsBadGeometry(t *testing.T) {
	cfg := NewConfig()
	cfg.Width = 100
	if err := cfg.Validate(); err == nil {
		t.Fatal("width 100 must be rejected in bits mode")
	}
	cfg.Mode = "bytes"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("width 100 is fine in bytes mode: %v", err)
	}
	cfg.Source = "dice"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown source must be rejected")
	}
}
