package mask

import (
	"image"
	"image/color"
	"testing"

	"github.com/camoforge/camoforge/palette"
)

var (
	dark  = palette.Color{R: 20, G: 40, B: 20}
	light = palette.Color{R: 220, G: 210, B: 180}
)

func twoTone(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := dark
			if x >= w/2 {
				c = light
			}
			img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return img
}

func twoTonePalette(t *testing.T) *palette.Palette {
	t.Helper()
	pal := palette.New()
	if err := pal.Add(dark); err != nil {
		t.Fatal(err)
	}
	if err := pal.Add(light); err != nil {
		t.Fatal(err)
	}
	return pal
}

func TestBuildPartitionsImage(t *testing.T) {
	const w, h = 40, 30
	layers, err := Build(twoTone(w, h), twoTonePalette(t), Options{DenoiseStrength: 1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(layers) != 2 {
		t.Fatalf("layers = %d, want 2", len(layers))
	}
	total := 0
	for _, l := range layers {
		total += l.Mask.Count()
	}
	if total != w*h {
		t.Fatalf("claimed pixels = %d, want %d", total, w*h)
	}
	// No pixel appears in two masks.
	for i := 0; i < w*h; i++ {
		n := 0
		for _, l := range layers {
			n += int(l.Mask.Pix[i])
		}
		if n != 1 {
			t.Fatalf("pixel %d claimed by %d layers", i, n)
		}
	}
}

func TestBuildMinBlobSizeDropsSpeck(t *testing.T) {
	const w, h = 40, 30
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: dark.R, G: dark.G, B: dark.B, A: 255})
		}
	}
	// A 3x3 speck of the light color.
	for y := 10; y < 13; y++ {
		for x := 10; x < 13; x++ {
			img.SetRGBA(x, y, color.RGBA{R: light.R, G: light.G, B: light.B, A: 255})
		}
	}

	layers, err := Build(img, twoTonePalette(t), Options{
		DenoiseStrength: 1,
		MinBlobSize:     50,
		Orphan:          true,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var lightCount, orphanCount int
	for _, l := range layers {
		switch {
		case l.Orphan:
			orphanCount = l.Mask.Count()
		case l.Color == light:
			lightCount = l.Mask.Count()
		}
	}
	if lightCount != 0 {
		t.Fatalf("light layer kept %d pixels, want 0", lightCount)
	}
	if orphanCount == 0 {
		t.Fatal("released speck pixels missing from the orphan layer")
	}
	// With the orphan layer the masks still partition the raster.
	total := 0
	for _, l := range layers {
		total += l.Mask.Count()
	}
	if total != w*h {
		t.Fatalf("claimed pixels = %d, want %d", total, w*h)
	}
}

func TestBuildOrphanColorDeterministic(t *testing.T) {
	img := twoTone(20, 20)
	pal := twoTonePalette(t)
	opt := Options{DenoiseStrength: 1, MinBlobSize: 500, Orphan: true, Seed: 7}

	a, err := Build(img, pal, opt)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(img, pal, opt)
	if err != nil {
		t.Fatal(err)
	}
	var ca, cb palette.Color
	for _, l := range a {
		if l.Orphan {
			ca = l.Color
		}
	}
	for _, l := range b {
		if l.Orphan {
			cb = l.Color
		}
	}
	if ca != cb {
		t.Fatalf("orphan color changed between runs: %s vs %s", ca.Hex(), cb.Hex())
	}
	for _, c := range pal.Colors() {
		if ca == c {
			t.Fatal("orphan color collides with a palette entry")
		}
	}
}

func TestBuildGroupedLayersMerge(t *testing.T) {
	pal := twoTonePalette(t)
	// Both colors on one layer: a single full mask comes back.
	if err := pal.Group([]int{0, 1}, 1); err != nil {
		t.Fatal(err)
	}
	layers, err := Build(twoTone(24, 24), pal, Options{DenoiseStrength: 1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(layers) != 1 {
		t.Fatalf("layers = %d, want 1", len(layers))
	}
	if layers[0].Mask.Count() != 24*24 {
		t.Fatalf("merged mask count = %d, want %d", layers[0].Mask.Count(), 24*24)
	}
}

func TestBuildRejectsEmptyPalette(t *testing.T) {
	if _, err := Build(twoTone(4, 4), palette.New(), Options{}); err != ErrNoPalette {
		t.Fatalf("err = %v, want ErrNoPalette", err)
	}
}
