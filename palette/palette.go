// Package palette derives representative colors from an image and maps
// them onto print layers.
package palette

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrDuplicateColor is returned when a manually picked color already
// exists in the palette with identical channel values.
var ErrDuplicateColor = errors.New("palette: duplicate color")

// Color is an exact 8-bit RGB value. Equality is channel-for-channel.
type Color struct {
	R, G, B uint8
}

// Hex renders the color as a lowercase #rrggbb string.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Colorful converts to a go-colorful color for perceptual math.
func (c Color) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// RGBA implements image/color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}.RGBA()
}

// Luminance returns the linear-light luminance used as the chain sort
// anchor (same weighting as the brightness sort in the layer tooling).
func (c Color) Luminance() float64 {
	r, g, b := c.Colorful().LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// Metric selects the color distance used for clustering and
// nearest-color assignment.
type Metric int

const (
	// MetricRGB is plain Euclidean distance in 8-bit RGB space.
	MetricRGB Metric = iota
	// MetricLab is perceptual distance in CIE Lab.
	MetricLab
)

func (m Metric) String() string {
	if m == MetricLab {
		return "lab"
	}
	return "rgb"
}

// Distance returns the distance between two colors under the metric.
func (m Metric) Distance(a, b Color) float64 {
	if m == MetricLab {
		return a.Colorful().DistanceLab(b.Colorful())
	}
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Entry is a palette color with its assigned layer id and insertion
// order key.
type Entry struct {
	Color Color
	// Layer is the target layer id, 1-based after renumbering.
	Layer int
	// order is the insertion sequence, used to break sort ties.
	order int
}

// Palette is an ordered list of entries with duplicate prevention.
type Palette struct {
	entries []Entry
	nextOrd int
}

// New returns an empty palette.
func New() *Palette {
	return &Palette{}
}

// Entries returns a copy of the palette entries in list order.
func (p *Palette) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Len returns the number of entries.
func (p *Palette) Len() int {
	return len(p.entries)
}

// Colors returns the entry colors in list order.
func (p *Palette) Colors() []Color {
	out := make([]Color, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.Color
	}
	return out
}

// Add appends a color with the default layer id (next free layer).
// Exact duplicates are rejected with ErrDuplicateColor.
func (p *Palette) Add(c Color) error {
	for _, e := range p.entries {
		if e.Color == c {
			return fmt.Errorf("%w: %s", ErrDuplicateColor, c.Hex())
		}
	}
	p.entries = append(p.entries, Entry{
		// LayerCount keeps ids dense even after grouping.
		Layer: p.LayerCount() + 1,
		Color: c,
		order: p.nextOrd,
	})
	p.nextOrd++
	return nil
}

// Clear removes all entries.
func (p *Palette) Clear() {
	p.entries = nil
	p.nextOrd = 0
}

// SetLayer assigns the entry at index to the given layer id and
// renumbers so ids stay dense.
func (p *Palette) SetLayer(index, layer int) error {
	if index < 0 || index >= len(p.entries) {
		return fmt.Errorf("palette: index %d out of range", index)
	}
	if layer < 1 {
		return fmt.Errorf("palette: layer id %d must be >= 1", layer)
	}
	p.entries[index].Layer = layer
	p.Renumber()
	return nil
}

// AssignLayers replaces every entry's layer id in one step and
// renumbers once at the end. Unlike repeated SetLayer calls, no
// intermediate renumbering happens, so an assignment like [2 1] lands
// as [1 2] with both layers kept distinct.
func (p *Palette) AssignLayers(layers []int) error {
	if len(layers) != len(p.entries) {
		return fmt.Errorf("palette: %d layer ids for %d entries", len(layers), len(p.entries))
	}
	for _, l := range layers {
		if l < 1 {
			return fmt.Errorf("palette: layer id %d must be >= 1", l)
		}
	}
	for i, l := range layers {
		p.entries[i].Layer = l
	}
	p.Renumber()
	return nil
}

// Group assigns every entry at the given indices to one target layer id
// and renumbers.
func (p *Palette) Group(indices []int, layer int) error {
	if layer < 1 {
		return fmt.Errorf("palette: layer id %d must be >= 1", layer)
	}
	for _, i := range indices {
		if i < 0 || i >= len(p.entries) {
			return fmt.Errorf("palette: index %d out of range", i)
		}
	}
	for _, i := range indices {
		p.entries[i].Layer = layer
	}
	p.Renumber()
	return nil
}

// Remove deletes the entry at index and renumbers the remaining layer
// ids.
func (p *Palette) Remove(index int) error {
	if index < 0 || index >= len(p.entries) {
		return fmt.Errorf("palette: index %d out of range", index)
	}
	p.entries = slices.Delete(p.entries, index, index+1)
	p.Renumber()
	return nil
}

// Renumber recomputes a dense gap-free layer id mapping, preserving the
// relative order of first appearance in the entry list. Applying it
// twice yields the same assignment as applying it once.
func (p *Palette) Renumber() {
	remap := make(map[int]int)
	next := 1
	for i := range p.entries {
		old := p.entries[i].Layer
		if _, ok := remap[old]; !ok {
			remap[old] = next
			next++
		}
	}
	for i := range p.entries {
		p.entries[i].Layer = remap[p.entries[i].Layer]
	}
}

// LayerCount returns the number of distinct live layer ids.
func (p *Palette) LayerCount() int {
	seen := make(map[int]struct{})
	for _, e := range p.entries {
		seen[e.Layer] = struct{}{}
	}
	return len(seen)
}

// LayerColor returns a representative color per layer id: the first
// entry (in list order) assigned to that layer.
func (p *Palette) LayerColor(layer int) (Color, bool) {
	for _, e := range p.entries {
		if e.Layer == layer {
			return e.Color, true
		}
	}
	return Color{}, false
}

// Nearest returns the index of the entry closest to c under the metric.
// Returns -1 for an empty palette.
func (p *Palette) Nearest(c Color, m Metric) int {
	best := -1
	bestD := math.Inf(1)
	for i, e := range p.entries {
		d := m.Distance(c, e.Color)
		if d < bestD {
			bestD = d
			best = i
		}
	}
	return best
}

// SortPerceptual reorders entries so consecutive colors form a smooth
// gradient: the lightest color anchors the chain, then the nearest
// unused color is appended repeatedly. Distance ties fall back to
// insertion order.
func (p *Palette) SortPerceptual(m Metric) {
	n := len(p.entries)
	if n < 2 {
		return
	}
	anchor := 0
	bestLum := p.entries[0].Color.Luminance()
	for i := 1; i < n; i++ {
		lum := p.entries[i].Color.Luminance()
		if lum > bestLum || (lum == bestLum && p.entries[i].order < p.entries[anchor].order) {
			bestLum = lum
			anchor = i
		}
	}

	used := make([]bool, n)
	chain := make([]Entry, 0, n)
	chain = append(chain, p.entries[anchor])
	used[anchor] = true
	cur := anchor
	for len(chain) < n {
		next := -1
		bestD := math.Inf(1)
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			d := m.Distance(p.entries[cur].Color, p.entries[i].Color)
			if d < bestD || (d == bestD && next >= 0 && p.entries[i].order < p.entries[next].order) {
				bestD = d
				next = i
			}
		}
		chain = append(chain, p.entries[next])
		used[next] = true
		cur = next
	}
	p.entries = chain
}

// ReduceToTarget groups entries onto at most target layers. The first
// target entries in list order become layer seeds; every remaining
// entry is merged onto the layer of its nearest seed, then ids are
// renumbered. No color is left unassigned.
func (p *Palette) ReduceToTarget(target int, m Metric) {
	if target < 1 || p.LayerCount() <= target {
		return
	}
	// Keep the first `target` entries as layer seeds.
	for i := range p.entries {
		if i < target {
			p.entries[i].Layer = i + 1
			continue
		}
		best := 0
		bestD := math.Inf(1)
		for j := 0; j < target; j++ {
			d := m.Distance(p.entries[i].Color, p.entries[j].Color)
			if d < bestD {
				bestD = d
				best = j
			}
		}
		p.entries[i].Layer = best + 1
	}
	p.Renumber()
}
