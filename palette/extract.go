package palette

import (
	"errors"
	"image"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// ErrEmptyImage is returned when extraction finds no usable pixels.
var ErrEmptyImage = errors.New("palette: no usable pixels in image")

// Method selects the automatic extraction algorithm.
type Method int

const (
	MethodKMeans Method = iota
	MethodDominant
)

func (m Method) String() string {
	switch m {
	case MethodDominant:
		return "dominantcolor"
	default:
		return "kmeans"
	}
}

type weightedColor struct {
	col    colorful.Color
	weight float64
}

// Extract clusters the image colors into at most maxColors centroids
// and returns them as a new palette, chain-sorted and numbered one
// layer per entry. Degenerate images report ErrEmptyImage.
func Extract(img image.Image, maxColors int, method Method, metric Metric) (*Palette, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}
	b := img.Bounds()
	if maxColors < 1 || b.Dx() == 0 || b.Dy() == 0 {
		return nil, ErrEmptyImage
	}

	var weighted []weightedColor
	var err error
	switch method {
	case MethodDominant:
		weighted, err = dominantCandidates(img, maxColors)
	default:
		weighted, err = kmeansCandidates(img, maxColors)
	}
	if err != nil {
		return nil, err
	}

	cols := selectDiverse(weighted, maxColors)
	if len(cols) == 0 {
		return nil, ErrEmptyImage
	}

	p := New()
	for _, c := range cols {
		cc := c.Clamped()
		col := Color{
			R: uint8(math.Round(cc.R * 255)),
			G: uint8(math.Round(cc.G * 255)),
			B: uint8(math.Round(cc.B * 255)),
		}
		// Centroids can collapse onto the same 8-bit value; keep one.
		_ = p.Add(col)
	}
	p.SortPerceptual(metric)
	for i := range p.entries {
		p.entries[i].Layer = i + 1
	}
	return p, nil
}

// kmeansCandidates clusters a subsample of the pixels. A working k a
// few times larger than requested gives the diversity pass something to
// choose from.
func kmeansCandidates(img image.Image, k int) ([]weightedColor, error) {
	b := img.Bounds()
	const maxSamples = 12000
	step := 1
	if b.Dx()*b.Dy() > maxSamples {
		step = int(math.Sqrt(float64(b.Dx()*b.Dy())/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(b.Dx()*b.Dy(), maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16 == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r16) / 65535.0,
				float64(g16) / 65535.0,
				float64(b16) / 65535.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil, ErrEmptyImage
	}

	workK := min(max(k*4, k+2), len(dataset))
	km := kmeans.New()
	cc, err := km.Partition(dataset, workK)
	if err != nil || len(cc) == 0 {
		// Tiny or single-color inputs can defeat the partitioner; fall
		// back to the dominant-color path.
		return dominantCandidates(img, k)
	}

	slices.SortFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})

	weighted := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		w := float64(len(c.Observations))
		if w <= 0 {
			w = 1e-6
		}
		weighted = append(weighted, weightedColor{col: col, weight: w})
	}
	return weighted, nil
}

func dominantCandidates(img image.Image, k int) ([]weightedColor, error) {
	nCandidates := max(24, k*8)
	candidates := dominantcolor.FindWeight(img, nCandidates)
	if len(candidates) == 0 {
		return nil, ErrEmptyImage
	}
	weighted := make([]weightedColor, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		w := c.Weight
		if w <= 0 {
			w = 1e-6
		}
		weighted = append(weighted, weightedColor{col: col.Clamped(), weight: w})
	}
	return weighted, nil
}

// selectDiverse picks k colors from the candidates, trading coverage
// weight against Lab-space spread so near-duplicates do not crowd the
// palette.
func selectDiverse(cands []weightedColor, k int) []colorful.Color {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	type item struct {
		col colorful.Color
		lab [3]float64
		w   float64
	}
	items := make([]item, 0, len(cands))
	maxW := 0.0
	for _, c := range cands {
		l, a, b := c.col.Lab()
		if c.weight > maxW {
			maxW = c.weight
		}
		items = append(items, item{col: c.col, lab: [3]float64{l, a, b}, w: c.weight})
	}
	if k > len(items) {
		k = len(items)
	}
	if maxW <= 0 {
		maxW = 1.0
	}

	selectedIdx := make([]int, 0, k)
	selected := make([]bool, len(items))

	// Seed with the strongest candidate to stay close to dominant tones.
	bestSeed := 0
	for i := 1; i < len(items); i++ {
		if items[i].w > items[bestSeed].w {
			bestSeed = i
		}
	}
	selectedIdx = append(selectedIdx, bestSeed)
	selected[bestSeed] = true

	for len(selectedIdx) < k {
		bestIdx := -1
		bestScore := -1.0
		for i := range items {
			if selected[i] {
				continue
			}
			minD2 := math.MaxFloat64
			for _, s := range selectedIdx {
				d0 := items[i].lab[0] - items[s].lab[0]
				d1 := items[i].lab[1] - items[s].lab[1]
				d2 := items[i].lab[2] - items[s].lab[2]
				d2v := d0*d0 + d1*d1 + d2*d2
				if d2v < minD2 {
					minD2 = d2v
				}
			}
			normW := items[i].w / maxW
			score := math.Sqrt(minD2) * (0.55 + 0.45*math.Sqrt(normW))
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		selected[bestIdx] = true
		selectedIdx = append(selectedIdx, bestIdx)
	}

	out := make([]colorful.Color, 0, len(selectedIdx))
	for _, idx := range selectedIdx {
		out = append(out, items[idx].col)
	}
	return out
}
