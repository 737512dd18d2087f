//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log"

	"bitlife/internal/app"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()

	session, err := app.NewSession(cfg)
	if err != nil {
		log.Fatalf("life: %v", err)
	}
	defer session.Close()

	game := app.New(session, cfg)
	w, h := game.ScreenSize()

	ebiten.SetWindowTitle("bitlife")
	ebiten.SetTPS(max(cfg.TPS, 60))
	ebiten.SetWindowSize(w, h)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
