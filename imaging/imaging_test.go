package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/camoforge/camoforge/mask"
	"github.com/camoforge/camoforge/palette"
)

func TestDownscaleCapsWidth(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))
	out := Downscale(src, 100)
	if b := out.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("bounds = %v, want 100x50", b)
	}
}

func TestDownscalePassThrough(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 50, 50))
	if out := Downscale(src, 100); out != image.Image(src) {
		t.Fatal("small image should pass through unchanged")
	}
	if out := Downscale(src, 0); out != image.Image(src) {
		t.Fatal("zero cap should disable downscaling")
	}
}

func TestAdjustIdentityAndClamp(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 2))
	src.SetRGBA(0, 0, color.RGBA{R: 100, G: 150, B: 200, A: 255})
	src.SetRGBA(0, 1, color.RGBA{R: 250, G: 5, B: 128, A: 255})

	id := Adjust(src, 0, 1)
	if got := id.RGBAAt(0, 0); got != (color.RGBA{R: 100, G: 150, B: 200, A: 255}) {
		t.Fatalf("identity changed pixel: %v", got)
	}

	hot := Adjust(src, 100, 2)
	if got := hot.RGBAAt(0, 1); got.R != 255 {
		t.Fatalf("R = %d, want clamped 255", got.R)
	}
	if got := hot.RGBAAt(0, 1); got.G != 110 {
		t.Fatalf("G = %d, want 110", got.G)
	}
}

func TestRenderLayers(t *testing.T) {
	m := mask.New(4, 4)
	m.Set(1, 1, true)
	layers := []mask.Layer{{Color: palette.Color{R: 10, G: 20, B: 30}, Mask: m}}
	img := RenderLayers(layers, 4, 4)
	if got := img.RGBAAt(1, 1); got != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Fatalf("layer pixel = %v", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Fatalf("background pixel = %v", got)
	}
}

func TestSwatch(t *testing.T) {
	pal := palette.New()
	if err := pal.Add(palette.Color{R: 1}); err != nil {
		t.Fatal(err)
	}
	if err := pal.Add(palette.Color{G: 2}); err != nil {
		t.Fatal(err)
	}
	img := Swatch(pal, 8)
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Fatalf("bounds = %v, want 16x8", b)
	}
	if got := img.RGBAAt(12, 4); got.G != 2 {
		t.Fatalf("second tile = %v", got)
	}
}
