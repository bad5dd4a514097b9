package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rewired-gh/elasticity/internal/catalog"
	"github.com/rewired-gh/elasticity/internal/config"
	"github.com/rewired-gh/elasticity/internal/simulator"
)

func TestRunGame(t *testing.T) {
	cfg := config.Default()
	cfg.Game.Seed = 1
	cat := catalog.Default()
	sim, err := simulator.New(cat, cfg.Domain())
	if err != nil {
		t.Fatalf("simulator.New failed: %v", err)
	}

	in := strings.NewReader("/hint\n/hint\n999\n/quit\n/guess 1500\n")
	var out bytes.Buffer
	if err := runGame(cfg, cat, sim, in, &out); err != nil {
		t.Fatalf("runGame failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"New round:", "somewhere around", "already used your hint", "Invalid guess"} {
		if !strings.Contains(got, want) {
			t.Errorf("output does not contain %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Guess 1/") {
		t.Error("input after /quit was processed")
	}
}

func TestRunGame_EndOfInput(t *testing.T) {
	cfg := config.Default()
	cat := catalog.Default()
	sim, _ := simulator.New(cat, cfg.Domain())

	var out bytes.Buffer
	if err := runGame(cfg, cat, sim, strings.NewReader(""), &out); err != nil {
		t.Fatalf("runGame failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "New round:") {
		t.Errorf("Unexpected output: %q", out.String())
	}
}
