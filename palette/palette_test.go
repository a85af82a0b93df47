package palette

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestAddRejectsExactDuplicate(t *testing.T) {
	p := New()
	c := Color{R: 10, G: 20, B: 30}
	if err := p.Add(c); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if err := p.Add(c); !errors.Is(err, ErrDuplicateColor) {
		t.Fatalf("second Add err = %v, want ErrDuplicateColor", err)
	}
	// One channel off is a distinct color.
	if err := p.Add(Color{R: 10, G: 20, B: 31}); err != nil {
		t.Fatalf("near-duplicate Add: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("len = %d, want 2", p.Len())
	}
}

func mustAdd(t *testing.T, p *Palette, cs ...Color) {
	t.Helper()
	for _, c := range cs {
		if err := p.Add(c); err != nil {
			t.Fatal(err)
		}
	}
}

func TestGroupAndRenumber(t *testing.T) {
	p := New()
	mustAdd(t, p,
		Color{R: 1}, Color{R: 2}, Color{R: 3}, Color{R: 4})
	if err := p.Group([]int{1, 3}, 9); err != nil {
		t.Fatalf("Group: %v", err)
	}
	got := p.Entries()
	// First appearance order: layer of entry 0 first, then the merged
	// layer, then entry 2's.
	want := []int{1, 2, 3, 2}
	for i, e := range got {
		if e.Layer != want[i] {
			t.Fatalf("layers = %v, want %v", layersOf(got), want)
		}
	}
	if p.LayerCount() != 3 {
		t.Fatalf("LayerCount = %d, want 3", p.LayerCount())
	}
}

func layersOf(es []Entry) []int {
	out := make([]int, len(es))
	for i, e := range es {
		out[i] = e.Layer
	}
	return out
}

func TestAssignLayersKeepsDistinctLayers(t *testing.T) {
	p := New()
	mustAdd(t, p, Color{R: 1}, Color{R: 2})
	// Ids arrive out of first-appearance order. A per-entry SetLayer
	// sequence would renumber 2 down to 1 before the second entry is
	// assigned and merge both onto one layer.
	if err := p.AssignLayers([]int{2, 1}); err != nil {
		t.Fatalf("AssignLayers: %v", err)
	}
	got := layersOf(p.Entries())
	want := []int{1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("layers = %v, want %v", got, want)
		}
	}
	if p.LayerCount() != 2 {
		t.Fatalf("LayerCount = %d, want 2", p.LayerCount())
	}
}

func TestAssignLayersRejectsBadInput(t *testing.T) {
	p := New()
	mustAdd(t, p, Color{R: 1}, Color{R: 2})
	if err := p.AssignLayers([]int{1}); err == nil {
		t.Fatal("expected error for length mismatch")
	}
	if err := p.AssignLayers([]int{1, 0}); err == nil {
		t.Fatal("expected error for layer id below 1")
	}
}

func TestRenumberIdempotent(t *testing.T) {
	p := New()
	mustAdd(t, p, Color{R: 1}, Color{R: 2}, Color{R: 3})
	if err := p.SetLayer(0, 7); err != nil {
		t.Fatal(err)
	}
	once := layersOf(p.Entries())
	p.Renumber()
	twice := layersOf(p.Entries())
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("renumber not idempotent: %v then %v", once, twice)
		}
	}
}

func TestRemoveKeepsIDsDense(t *testing.T) {
	p := New()
	mustAdd(t, p, Color{R: 1}, Color{R: 2}, Color{R: 3})
	if err := p.Remove(1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got := layersOf(p.Entries())
	if got[0] != 1 || got[1] != 2 {
		t.Fatalf("layers = %v, want [1 2]", got)
	}
}

func TestNearest(t *testing.T) {
	p := New()
	mustAdd(t, p, Color{R: 0, G: 0, B: 0}, Color{R: 255, G: 255, B: 255})
	if i := p.Nearest(Color{R: 10, G: 10, B: 10}, MetricRGB); i != 0 {
		t.Fatalf("Nearest dark = %d, want 0", i)
	}
	if i := p.Nearest(Color{R: 200, G: 200, B: 200}, MetricLab); i != 1 {
		t.Fatalf("Nearest light = %d, want 1", i)
	}
	if i := New().Nearest(Color{}, MetricRGB); i != -1 {
		t.Fatalf("Nearest on empty = %d, want -1", i)
	}
}

func TestSortPerceptualChain(t *testing.T) {
	p := New()
	// Inserted out of gradient order.
	mid := Color{R: 128, G: 128, B: 128}
	dark := Color{R: 10, G: 10, B: 10}
	light := Color{R: 240, G: 240, B: 240}
	mustAdd(t, p, mid, dark, light)
	p.SortPerceptual(MetricRGB)
	got := p.Colors()
	if got[0] != light || got[1] != mid || got[2] != dark {
		t.Fatalf("chain order = %v", got)
	}
}

func TestReduceToTarget(t *testing.T) {
	p := New()
	mustAdd(t, p,
		Color{R: 10, G: 10, B: 10},
		Color{R: 240, G: 240, B: 240},
		Color{R: 20, G: 20, B: 20},
		Color{R: 230, G: 230, B: 230})
	p.ReduceToTarget(2, MetricRGB)
	got := layersOf(p.Entries())
	if got[0] != got[2] || got[1] != got[3] || got[0] == got[1] {
		t.Fatalf("layers = %v, want dark and light pairs", got)
	}
	if p.LayerCount() != 2 {
		t.Fatalf("LayerCount = %d, want 2", p.LayerCount())
	}
	// Already at or under the target: untouched.
	before := layersOf(p.Entries())
	p.ReduceToTarget(3, MetricRGB)
	after := layersOf(p.Entries())
	for i := range before {
		if before[i] != after[i] {
			t.Fatal("reduce below target changed assignment")
		}
	}
}

func TestExtractFindsDistinctColors(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			c := color.RGBA{R: 30, G: 60, B: 30, A: 255}
			if x >= 20 {
				c = color.RGBA{R: 220, G: 200, B: 160, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	pal, err := Extract(img, 2, MethodKMeans, MetricRGB)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if pal.Len() < 1 || pal.Len() > 2 {
		t.Fatalf("palette len = %d, want 1..2", pal.Len())
	}
	// Every extracted color should sit near one of the two inputs.
	for _, c := range pal.Colors() {
		dGreen := MetricRGB.Distance(c, Color{R: 30, G: 60, B: 30})
		dTan := MetricRGB.Distance(c, Color{R: 220, G: 200, B: 160})
		if dGreen > 60 && dTan > 60 {
			t.Fatalf("extracted color %s far from both inputs", c.Hex())
		}
	}
}

func TestExtractRejectsEmpty(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if _, err := Extract(img, 4, MethodKMeans, MetricRGB); err == nil {
		t.Fatal("want error for empty image")
	}
}
