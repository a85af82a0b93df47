package main

import (
	"flag"
	"path/filepath"
	"testing"

	"github.com/camoforge/camoforge"
	"github.com/camoforge/camoforge/project"
)

func TestSettingsFlagsKeepProjectValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camo.yaml")
	s := camoforge.DefaultSettings()
	s.Mode = camoforge.ModeSolid
	s.DenoiseStrength = 9
	s.Epsilon = 2.5
	s.PlateWidthMM = 150
	if err := project.New("forest.png", nil, s).Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fs := flag.NewFlagSet("svg", flag.ContinueOnError)
	build := settingsFlags(fs)
	if err := fs.Parse([]string{"-project", path, "-epsilon", "4"}); err != nil {
		t.Fatal(err)
	}
	got, _, err := build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// The one flag passed on the command line wins.
	if got.Epsilon != 4 {
		t.Fatalf("epsilon = %v, want 4", got.Epsilon)
	}
	// Everything else stays as the project file says.
	if got.Mode != camoforge.ModeSolid {
		t.Fatalf("mode = %v, want solid", got.Mode)
	}
	if got.DenoiseStrength != 9 {
		t.Fatalf("denoise = %d, want 9", got.DenoiseStrength)
	}
	if got.PlateWidthMM != 150 {
		t.Fatalf("plate width = %v, want 150", got.PlateWidthMM)
	}
}

func TestSettingsFlagsDefaultsWithoutProject(t *testing.T) {
	fs := flag.NewFlagSet("svg", flag.ContinueOnError)
	build := settingsFlags(fs)
	if err := fs.Parse([]string{"-mode", "solid"}); err != nil {
		t.Fatal(err)
	}
	got, pal, err := build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if pal != nil {
		t.Fatal("no project given, palette should be nil")
	}
	def := camoforge.DefaultSettings()
	if got.Mode != camoforge.ModeSolid {
		t.Fatalf("mode = %v, want solid", got.Mode)
	}
	if got.Epsilon != def.Epsilon || got.MaxColors != def.MaxColors {
		t.Fatalf("unset flags drifted from defaults: %+v", got)
	}
}
