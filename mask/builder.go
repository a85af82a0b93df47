package mask

import (
	"errors"
	"image"
	"math/rand"

	"github.com/camoforge/camoforge/palette"
)

// OrphanLayerID marks the synthetic layer that collects pixels left
// unassigned after all palette layers are finalized.
const OrphanLayerID = -1

// ErrNoPalette is returned when the builder is given an empty palette.
var ErrNoPalette = errors.New("mask: empty palette")

// Options controls denoising, blob filtering and orphan handling.
type Options struct {
	// Metric is the distance used for nearest-color assignment. Must
	// match the metric used during palette extraction.
	Metric palette.Metric
	// DenoiseStrength scales the smoothing pass, valid range 1-20.
	DenoiseStrength int
	// MinBlobSize drops connected components below this pixel area.
	MinBlobSize int
	// Orphan collects unassigned pixels into a synthetic extra layer.
	Orphan bool
	// Seed drives the orphan layer's display color so runs reproduce.
	Seed int64
}

// Layer is one finished binary mask with its display color.
type Layer struct {
	ID     int
	Color  palette.Color
	Mask   *Mask
	Orphan bool
}

// Build assigns every pixel to its nearest palette color's layer,
// smooths each raw mask, removes small blobs and optionally emits an
// orphan layer. With orphan handling on, the returned masks partition
// the raster exactly.
func Build(img image.Image, pal *palette.Palette, opt Options) ([]Layer, error) {
	if pal == nil || pal.Len() == 0 {
		return nil, ErrNoPalette
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, errors.New("mask: empty image")
	}

	entries := pal.Entries()
	layerIDs := make([]int, 0, pal.LayerCount())
	seen := make(map[int]bool)
	for _, e := range entries {
		if !seen[e.Layer] {
			seen[e.Layer] = true
			layerIDs = append(layerIDs, e.Layer)
		}
	}

	// Raw assignment: nearest palette color decides the layer.
	raw := make(map[int]*Mask, len(layerIDs))
	for _, id := range layerIDs {
		raw[id] = New(w, h)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r16, g16, b16, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			c := palette.Color{R: uint8(r16 >> 8), G: uint8(g16 >> 8), B: uint8(b16 >> 8)}
			idx := pal.Nearest(c, opt.Metric)
			raw[entries[idx].Layer].Set(x, y, true)
		}
	}

	strength := opt.DenoiseStrength
	if strength < 1 {
		strength = 1
	}
	if strength > 20 {
		strength = 20
	}
	blurRadius := (strength + 3) / 4
	morphIters := (strength + 9) / 10

	for _, id := range layerIDs {
		smooth(raw[id], blurRadius, morphIters)
	}

	// Smoothing can make masks overlap near boundaries. Restore the
	// partition: the first layer in id order keeps contested pixels.
	claimed := make([]uint8, w*h)
	for _, id := range layerIDs {
		m := raw[id]
		for i, v := range m.Pix {
			if v == 0 {
				continue
			}
			if claimed[i] != 0 {
				m.Pix[i] = 0
			} else {
				claimed[i] = 1
			}
		}
	}

	// Blob filtering: components below the area threshold are released.
	for _, id := range layerIDs {
		m := raw[id]
		for _, comp := range Components(m, true) {
			if comp.Area() >= opt.MinBlobSize {
				continue
			}
			for _, off := range comp.Pixels {
				m.Pix[off] = 0
				claimed[off] = 0
			}
		}
	}

	layers := make([]Layer, 0, len(layerIDs)+1)
	for _, id := range layerIDs {
		col, _ := pal.LayerColor(id)
		layers = append(layers, Layer{ID: id, Color: col, Mask: raw[id]})
	}

	if opt.Orphan {
		orphan := New(w, h)
		any := false
		for i, v := range claimed {
			if v == 0 {
				orphan.Pix[i] = 1
				any = true
			}
		}
		if any {
			layers = append(layers, Layer{
				ID:     OrphanLayerID,
				Color:  orphanColor(pal, opt.Seed),
				Mask:   orphan,
				Orphan: true,
			})
		}
	}
	return layers, nil
}

// smooth runs a box blur followed by a morphological open and close,
// removing single-pixel jaggedness before thresholding back to binary.
func smooth(m *Mask, blurRadius, morphIters int) {
	boxBlurThreshold(m, blurRadius)
	m.Erode(morphIters)
	m.Dilate(morphIters)
	m.Dilate(morphIters)
	m.Erode(morphIters)
}

// boxBlurThreshold blurs the binary raster with a separable box kernel
// and thresholds at half intensity.
func boxBlurThreshold(m *Mask, radius int) {
	if radius < 1 {
		return
	}
	w, h := m.W, m.H
	tmp := make([]int, w*h)
	out := make([]int, w*h)

	// Horizontal pass with clamped edges.
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			sum := 0
			for d := -radius; d <= radius; d++ {
				xx := min(max(x+d, 0), w-1)
				sum += int(m.Pix[row+xx])
			}
			tmp[row+x] = sum
		}
	}
	// Vertical pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0
			for d := -radius; d <= radius; d++ {
				yy := min(max(y+d, 0), h-1)
				sum += tmp[yy*w+x]
			}
			out[y*w+x] = sum
		}
	}
	k := 2*radius + 1
	half := k * k / 2
	for i, v := range out {
		if v > half {
			m.Pix[i] = 1
		} else {
			m.Pix[i] = 0
		}
	}
}

// orphanColor picks a reproducible display color for the orphan layer
// that does not collide with any palette entry.
func orphanColor(pal *palette.Palette, seed int64) palette.Color {
	rng := rand.New(rand.NewSource(seed))
	existing := make(map[palette.Color]bool)
	for _, c := range pal.Colors() {
		existing[c] = true
	}
	for {
		c := palette.Color{
			R: uint8(rng.Intn(256)),
			G: uint8(rng.Intn(256)),
			B: uint8(rng.Intn(256)),
		}
		if !existing[c] {
			return c
		}
	}
}
