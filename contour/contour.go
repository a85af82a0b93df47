// Package contour traces binary mask boundaries into nested polygon
// hierarchies and simplifies them within a tolerance.
//
// Rings run along pixel edges, so a filled w x h mask vectorizes to the
// exact w x h rectangle. Outer rings carry positive signed area and
// hole rings negative, matching the geom orientation convention.
package contour

import (
	"errors"

	"github.com/camoforge/camoforge/geom"
	"github.com/camoforge/camoforge/mask"
)

// ErrBadEpsilon is returned for a non-positive smoothing epsilon.
var ErrBadEpsilon = errors.New("contour: epsilon must be > 0")

// Vectorize traces the mask into Regions (outer ring plus directly
// nested holes) in raster scan discovery order and simplifies every
// ring with the given perpendicular-distance epsilon. Degenerate rings
// are dropped.
func Vectorize(m *mask.Mask, epsilon float64) ([]geom.Region, error) {
	if epsilon <= 0 {
		return nil, ErrBadEpsilon
	}
	regions := Trace(m)
	out := make([]geom.Region, 0, len(regions))
	for _, rg := range regions {
		outer := SimplifyRing(rg.Outer, epsilon)
		if len(outer) < 3 || outer.Area() == 0 {
			continue
		}
		keep := geom.Region{Outer: outer}
		for _, h := range rg.Holes {
			sh := SimplifyRing(h, epsilon)
			if len(sh) < 3 || sh.Area() == 0 {
				continue
			}
			keep.Holes = append(keep.Holes, sh)
		}
		out = append(out, keep)
	}
	return out, nil
}

// Trace extracts the full-resolution Region hierarchy without
// simplification. Solid components use 8-connectivity, holes
// 4-connectivity, the usual dual pairing.
func Trace(m *mask.Mask) []geom.Region {
	comps := mask.Components(m, true)
	if len(comps) == 0 {
		return nil
	}

	compID := make([]int, m.W*m.H)
	for i := range compID {
		compID[i] = -1
	}
	for ci, c := range comps {
		for _, off := range c.Pixels {
			compID[off] = ci
		}
	}

	regions := make([]geom.Region, len(comps))
	for ci, c := range comps {
		start := c.Pixels[0]
		regions[ci].Outer = traceRing(m, start%m.W, start/m.W, dirRight)
	}

	// Interior background components are holes; the pixel directly
	// above a hole's first pixel belongs to the enclosing solid.
	for _, hc := range mask.Components(m.Invert(), false) {
		if hc.TouchesBorder {
			continue
		}
		first := hc.Pixels[0]
		hx, hy := first%m.W, first/m.W
		owner := compID[(hy-1)*m.W+hx]
		ring := traceHole(m, hx, hy)
		regions[owner].Holes = append(regions[owner].Holes, ring)
	}
	return regions
}

type dir int

const (
	dirRight dir = iota
	dirDown
	dirLeft
	dirUp
)

var dirStep = [4]geom.Point{
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: -1, Y: 0},
	{X: 0, Y: -1},
}

// valid reports whether walking direction d from corner (cx, cy) keeps
// solid on the right and empty on the left of the traversed edge.
func valid(m *mask.Mask, cx, cy int, d dir) bool {
	switch d {
	case dirRight:
		return m.Get(cx, cy) && !m.Get(cx, cy-1)
	case dirDown:
		return m.Get(cx-1, cy) && !m.Get(cx, cy)
	case dirLeft:
		return m.Get(cx-1, cy-1) && !m.Get(cx-1, cy)
	default: // dirUp
		return m.Get(cx, cy-1) && !m.Get(cx-1, cy-1)
	}
}

// traceRing follows the boundary starting at the given corner and
// direction until the walk closes. Left turns are preferred at
// checkerboard corners so diagonally touching solids stay one ring.
func traceRing(m *mask.Mask, cx, cy int, d0 dir) geom.Ring {
	startX, startY, d := cx, cy, d0
	var ring geom.Ring
	first := true
	for {
		// try left, straight, right relative to the current heading
		next := d
		for _, turn := range [3]int{3, 0, 1} {
			cand := dir((int(d) + turn) % 4)
			if valid(m, cx, cy, cand) {
				next = cand
				break
			}
		}
		// The directed start edge is traversed exactly once, so this
		// closes correctly even when the walk pinches through the
		// start corner mid-way.
		if !first && cx == startX && cy == startY && next == d0 {
			return ring
		}
		if first || next != d {
			ring = append(ring, geom.Point{X: float64(cx), Y: float64(cy)})
		}
		d = next
		cx += int(dirStep[d].X)
		cy += int(dirStep[d].Y)
		first = false
	}
}

// traceHole walks the enclosing solid's inner boundary around the hole
// whose topmost-leftmost empty pixel is (hx, hy).
func traceHole(m *mask.Mask, hx, hy int) geom.Ring {
	return traceRing(m, hx+1, hy, dirLeft)
}

// SimplifyRing applies Ramer-Douglas-Peucker to a closed ring: a point
// survives only if its perpendicular distance from the chord joining
// its surviving neighbors exceeds epsilon. The two chain anchors are
// the first point and the point farthest from it, which keeps the ring
// closed and stable.
func SimplifyRing(r geom.Ring, epsilon float64) geom.Ring {
	if len(r) < 3 {
		return r
	}
	far := 0
	farD := -1.0
	for i := 1; i < len(r); i++ {
		d := r[0].Dist(r[i])
		if d > farD {
			farD = d
			far = i
		}
	}
	if far == 0 {
		return nil
	}
	keep := make([]bool, len(r))
	keep[0] = true
	keep[far] = true
	rdp(r, 0, far, epsilon, keep)
	// Second half wraps around to index 0, addressed as len(r).
	rdp(r, far, len(r), epsilon, keep)

	out := make(geom.Ring, 0, len(r))
	for i, k := range keep {
		if k {
			out = append(out, r[i])
		}
	}
	return out
}

// rdp marks survivors between first and last (exclusive).
func rdp(r geom.Ring, first, last int, epsilon float64, keep []bool) {
	if last-first < 2 {
		return
	}
	idx := -1
	maxD := epsilon
	for i := first + 1; i < last; i++ {
		d, _ := geom.SegmentDist(r[i], r[first], r[last%len(r)])
		if d > maxD {
			maxD = d
			idx = i
		}
	}
	if idx < 0 {
		return
	}
	keep[idx] = true
	rdp(r, first, idx, epsilon, keep)
	rdp(r, idx, last, epsilon, keep)
}

// MaxDeviation returns the largest perpendicular distance from any
// point of orig to the simplified ring's edges. Used by tests to check
// the simplification bound.
func MaxDeviation(orig, simplified geom.Ring) float64 {
	if len(simplified) < 2 {
		return 0
	}
	worst := 0.0
	for _, p := range orig {
		best := -1.0
		for i := range simplified {
			d, _ := geom.SegmentDist(p, simplified[i], simplified[(i+1)%len(simplified)])
			if best < 0 || d < best {
				best = d
			}
		}
		if best > worst {
			worst = best
		}
	}
	return worst
}
