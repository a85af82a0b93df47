package camoforge

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/camoforge/camoforge/palette"
)

var (
	olive = palette.Color{R: 0x55, G: 0x61, B: 0x2e}
	sand  = palette.Color{R: 0xc8, G: 0xb8, B: 0x8a}
)

// twoTone paints the left half olive and the right half sand.
func twoTone(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := olive
			if x >= w/2 {
				c = sand
			}
			img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return img
}

func twoTonePalette(t *testing.T) *palette.Palette {
	t.Helper()
	pal := palette.New()
	if err := pal.Add(olive); err != nil {
		t.Fatal(err)
	}
	if err := pal.Add(sand); err != nil {
		t.Fatal(err)
	}
	return pal
}

func testSettings() Settings {
	s := DefaultSettings()
	s.MaxWidth = 0
	s.DenoiseStrength = 1
	s.MinBlobSize = 0
	s.Epsilon = 0.8
	return s
}

func TestPipelineRunTwoLayers(t *testing.T) {
	p := &Pipeline{Settings: testSettings()}
	res, err := p.Run(context.Background(), twoTone(60, 40), twoTonePalette(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Layers) != 2 {
		t.Fatalf("layers = %d, want 2", len(res.Layers))
	}
	if res.Failed() != 0 {
		t.Fatalf("%d layers failed", res.Failed())
	}
	total := 0
	for i := range res.Layers {
		lr := &res.Layers[i]
		if len(lr.Regions) == 0 {
			t.Fatalf("layer %d has no regions", lr.Layer.ID)
		}
		total += lr.Layer.Mask.Count()
	}
	// Every pixel belongs to exactly one layer.
	if total != 60*40 {
		t.Fatalf("claimed pixels = %d, want %d", total, 60*40)
	}
}

func TestPipelineAutoPalette(t *testing.T) {
	p := &Pipeline{Settings: testSettings()}
	res, err := p.Run(context.Background(), twoTone(60, 40), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Palette.Len() < 2 {
		t.Fatalf("palette len = %d, want >= 2", res.Palette.Len())
	}
}

func TestPipelineCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &Pipeline{Settings: testSettings()}
	if _, err := p.Run(ctx, twoTone(60, 40), twoTonePalette(t)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestPipelineRejectsBadSettings(t *testing.T) {
	s := testSettings()
	s.Epsilon = 0
	p := &Pipeline{Settings: s}
	_, err := p.Run(context.Background(), twoTone(10, 10), twoTonePalette(t))
	var ce *Error
	if !errors.As(err, &ce) || ce.Kind != KindInput {
		t.Fatalf("err = %v, want KindInput Error", err)
	}
}

func TestBuildMeshStencil(t *testing.T) {
	p := &Pipeline{Settings: testSettings()}
	res, err := p.Run(context.Background(), twoTone(60, 40), twoTonePalette(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	m, err := p.BuildMesh(&res.Layers[0], res.Width, res.Height)
	if err != nil {
		t.Fatalf("BuildMesh: %v", err)
	}
	if v := m.Volume(); v <= 0 {
		t.Fatalf("volume = %g, want > 0", v)
	}
}

func TestBuildMeshSolidWithBorder(t *testing.T) {
	s := testSettings()
	s.Mode = ModeSolid
	s.BorderMM = 3
	p := &Pipeline{Settings: s}
	res, err := p.Run(context.Background(), twoTone(60, 40), twoTonePalette(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	plain, err := (&Pipeline{Settings: func() Settings {
		s2 := testSettings()
		s2.Mode = ModeSolid
		return s2
	}()}).BuildMesh(&res.Layers[0], res.Width, res.Height)
	if err != nil {
		t.Fatalf("BuildMesh plain: %v", err)
	}
	bordered, err := p.BuildMesh(&res.Layers[0], res.Width, res.Height)
	if err != nil {
		t.Fatalf("BuildMesh bordered: %v", err)
	}
	if bordered.Volume() <= plain.Volume() {
		t.Fatalf("border did not grow the piece: %g <= %g", bordered.Volume(), plain.Volume())
	}
}
