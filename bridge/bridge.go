// Package bridge detects floating islands in stencil-mode layer
// geometry and synthesizes connecting bridge material so every piece of
// the plate stays attached to the outer frame.
//
// Island detection runs on a ring-adjacency graph: material regions
// (the outer background and every interior hole pocket) are nodes, and
// a pocket is adjacent to the material surrounding its cut only when
// the pocket carries no nested pattern. Pockets unreachable from the
// frame are islands. Each bridge carves a channel of the configured
// width through the enclosing cut, uniting the island with its target
// region; the solver iterates because one bridge can make deeper
// pockets reachable.
package bridge

import (
	"errors"
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/camoforge/camoforge/contour"
	"github.com/camoforge/camoforge/geom"
	"github.com/camoforge/camoforge/mask"
)

// ErrIterationLimit is returned when bridging does not converge within
// the configured bound, which indicates degenerate topology.
var ErrIterationLimit = errors.New("bridge: iteration limit exceeded")

// Options controls bridge synthesis.
type Options struct {
	// Width is the bridge width in pixels, > 0.
	Width float64
	// MaxIterations bounds the bridge/re-scan loop. Zero means 64.
	MaxIterations int
	// Epsilon is the smoothing tolerance for re-vectorizing the
	// bridged mask.
	Epsilon float64
	// Logger receives width-clipping warnings. Nil disables logging.
	Logger *zap.Logger
}

// Bridge is one synthesized connector. From lies on the island's
// boundary, To on the boundary of the region it was joined to.
type Bridge struct {
	From, To geom.Point
	Width    float64
	// Clipped reports that the full width did not fit and the bridge
	// was narrowed to the enclosing cut.
	Clipped bool
}

// Result carries the bridged geometry.
type Result struct {
	// Regions is the re-vectorized region hierarchy after carving.
	Regions []geom.Region
	// Bridges lists the connectors in insertion order.
	Bridges []Bridge
	// Mask is the carved layer mask the regions were traced from.
	Mask *mask.Mask
}

// frameNode is the graph id of the outer frame material.
const frameNode int64 = 0

// Solve bridges every floating island in the layer mask and returns the
// re-vectorized regions. The input mask is the layer's pattern (the
// material removed from the plate in stencil mode); it is not modified.
func Solve(m *mask.Mask, opt Options) (*Result, error) {
	if opt.Width <= 0 {
		return nil, errors.New("bridge: width must be > 0")
	}
	maxIter := opt.MaxIterations
	if maxIter == 0 {
		maxIter = 64
	}
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}

	work := m.Clone()
	var bridges []Bridge
	for iter := 0; ; iter++ {
		floating := analyze(work)
		if len(floating) == 0 {
			break
		}
		if iter >= maxIter {
			return nil, ErrIterationLimit
		}
		// Carving invalidates component ids, so insert one bridge per
		// pass and re-scan. Deeper islands become reachable once their
		// target region has been bridged.
		progress := false
		for _, isl := range floating {
			if !isl.targetReachable {
				continue
			}
			b, ok := carve(work, isl, opt.Width, log)
			if !ok {
				continue
			}
			bridges = append(bridges, b)
			progress = true
			break
		}
		if !progress {
			return nil, ErrIterationLimit
		}
	}

	regions, err := contour.Vectorize(work, opt.Epsilon)
	if err != nil {
		return nil, err
	}
	return &Result{Regions: regions, Bridges: bridges, Mask: work}, nil
}

// island is a floating material pocket with the component it must be
// carved through and the region it should join.
type island struct {
	// pocket pixels (flat offsets) of the floating material region.
	pocket []int
	// through is the id of the solid component the bridge crosses.
	through int
	// target pixels of the material region to join; empty means the
	// raster border itself.
	target []int
	// targetReachable reports whether the target region is already
	// connected to the frame.
	targetReachable bool
}

// analyze builds the ring-adjacency graph for the current mask and
// returns the floating pockets in raster discovery order.
func analyze(m *mask.Mask) []island {
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

	invComps := mask.Components(m.Invert(), false)
	invID := make([]int, m.W*m.H)
	for i := range invID {
		invID[i] = -1
	}
	var frontPixels []int // frame material pixels
	holes := make([]mask.Component, 0, len(invComps))
	holeIdx := make([]int, len(invComps)) // invComp -> hole slice index or -1
	for i, ic := range invComps {
		if ic.TouchesBorder {
			holeIdx[i] = -1
			frontPixels = append(frontPixels, ic.Pixels...)
		} else {
			holeIdx[i] = len(holes)
			holes = append(holes, ic)
		}
		for _, off := range ic.Pixels {
			invID[off] = i
		}
	}
	if len(holes) == 0 {
		return nil
	}

	// materialNode maps a pixel's material region to its graph id:
	// frame material and the raster outside share frameNode, interior
	// pockets get 1+holeIdx.
	materialNode := func(x, y int) int64 {
		if x < 0 || x >= m.W || y < 0 || y >= m.H {
			return frameNode
		}
		ic := invID[y*m.W+x]
		if ic < 0 || holeIdx[ic] < 0 {
			return frameNode
		}
		return int64(1 + holeIdx[ic])
	}

	// owner(h): the solid component whose hole this pocket is. The
	// pixel above a pocket's first pixel always belongs to it.
	holeOwner := make([]int, len(holes))
	for hi, h := range holes {
		first := h.Pixels[0]
		holeOwner[hi] = compID[first-m.W]
	}

	// surround(comp): the material region just outside the component's
	// outer ring, found left of its topmost-leftmost pixel.
	surround := make([]int64, len(comps))
	nested := make(map[int64]bool) // material nodes carrying nested pattern
	for ci, c := range comps {
		first := c.Pixels[0]
		surround[ci] = materialNode(first%m.W-1, first/m.W)
		if surround[ci] != frameNode {
			nested[surround[ci]] = true
		}
	}

	g := simple.NewUndirectedGraph()
	g.AddNode(simple.Node(frameNode))
	for hi := range holes {
		g.AddNode(simple.Node(int64(1 + hi)))
	}
	for hi := range holes {
		node := int64(1 + hi)
		if nested[node] {
			// A pocket with nested pattern is a genuine island.
			continue
		}
		g.SetEdge(simple.Edge{
			F: simple.Node(surround[holeOwner[hi]]),
			T: simple.Node(node),
		})
	}

	bfs := traverse.BreadthFirst{}
	bfs.Walk(g, g.Node(frameNode), nil)
	reached := func(id int64) bool {
		if id == frameNode {
			return true
		}
		return bfs.Visited(simple.Node(id))
	}

	var out []island
	for hi, h := range holes {
		if reached(int64(1 + hi)) {
			continue
		}
		owner := holeOwner[hi]
		target := surround[owner]
		isl := island{
			pocket:          h.Pixels,
			through:         owner,
			targetReachable: reached(target),
		}
		if target != frameNode {
			isl.target = holes[target-1].Pixels
		} else {
			isl.target = frontPixels
		}
		out = append(out, isl)
	}
	return out
}

// carve clears a channel of the configured width between the island and
// its target region, restricted to the enclosing component so unrelated
// holes are never crossed.
func carve(m *mask.Mask, isl island, width float64, log *zap.Logger) (Bridge, bool) {
	compPix := componentPixels(m, isl.through)
	a, b, ok := centerline(m, isl, compPix)
	if !ok {
		return Bridge{}, false
	}

	half := width / 2
	lo := geom.Point{X: math.Min(a.X, b.X) - half - 1, Y: math.Min(a.Y, b.Y) - half - 1}
	hi := geom.Point{X: math.Max(a.X, b.X) + half + 1, Y: math.Max(a.Y, b.Y) + half + 1}
	clipped := false
	for y := int(lo.Y); y <= int(hi.Y); y++ {
		for x := int(lo.X); x <= int(hi.X); x++ {
			if x < 0 || x >= m.W || y < 0 || y >= m.H {
				continue
			}
			center := geom.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			d, _ := geom.SegmentDist(center, a, b)
			if d > half {
				continue
			}
			off := y*m.W + x
			if m.Pix[off] == 0 {
				continue
			}
			if compPix[off] {
				m.Pix[off] = 0
			} else {
				clipped = true
			}
		}
	}
	// Guarantee a 4-connected channel even for sub-pixel widths.
	for _, off := range supercover(m, a, b) {
		if compPix[off] {
			m.Pix[off] = 0
		}
	}

	if clipped {
		log.Warn("bridge width clipped to enclosing cut",
			zap.Float64("width", width),
			zap.Float64("from_x", a.X), zap.Float64("from_y", a.Y),
			zap.Float64("to_x", b.X), zap.Float64("to_y", b.Y))
	}
	return Bridge{From: a, To: b, Width: width, Clipped: clipped}, true
}

func componentPixels(m *mask.Mask, id int) map[int]bool {
	comps := mask.Components(m, true)
	set := make(map[int]bool, len(comps[id].Pixels))
	for _, off := range comps[id].Pixels {
		set[off] = true
	}
	return set
}

// centerline picks the shortest valid segment from the island boundary
// to the target boundary. Candidate pairs are tried in increasing
// length; a pair is valid when the segment crosses only the enclosing
// component, the island or the target.
func centerline(m *mask.Mask, isl island, compPix map[int]bool) (geom.Point, geom.Point, bool) {
	src := boundaryPixels(m, isl.pocket, false)
	var dst []int
	if len(isl.target) > 0 {
		dst = boundaryPixels(m, isl.target, false)
	} else {
		dst = borderPixels(m)
	}
	if len(src) == 0 || len(dst) == 0 {
		return geom.Point{}, geom.Point{}, false
	}

	pocketSet := make(map[int]bool, len(isl.pocket))
	for _, off := range isl.pocket {
		pocketSet[off] = true
	}
	targetSet := make(map[int]bool, len(isl.target))
	for _, off := range isl.target {
		targetSet[off] = true
	}

	type pair struct {
		a, b int
		d    float64
	}
	pairs := make([]pair, 0, 64)
	for _, sa := range src {
		ax, ay := sa%m.W, sa/m.W
		best := pair{d: math.Inf(1)}
		for _, sb := range dst {
			bx, by := sb%m.W, sb/m.W
			dx := float64(ax - bx)
			dy := float64(ay - by)
			d := dx*dx + dy*dy
			if d < best.d {
				best = pair{a: sa, b: sb, d: d}
			}
		}
		pairs = append(pairs, best)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].d < pairs[j].d })

	center := func(off int) geom.Point {
		return geom.Point{X: float64(off%m.W) + 0.5, Y: float64(off/m.W) + 0.5}
	}
	for _, pr := range pairs {
		a, b := center(pr.a), center(pr.b)
		ok := true
		for _, off := range supercover(m, a, b) {
			if m.Pix[off] != 0 && !compPix[off] {
				ok = false
				break
			}
			if m.Pix[off] == 0 && !pocketSet[off] && !targetSet[off] {
				// crosses an unrelated hole
				ok = false
				break
			}
		}
		if ok {
			return a, b, true
		}
	}
	// Degenerate clutter: fall back to the shortest pair and let the
	// carve step clip to the enclosing component.
	a, b := center(pairs[0].a), center(pairs[0].b)
	return a, b, true
}

// boundaryPixels filters the pixel set down to members with at least
// one 4-neighbor outside the set's fill state.
func boundaryPixels(m *mask.Mask, pixels []int, solid bool) []int {
	var out []int
	for _, off := range pixels {
		x, y := off%m.W, off/m.W
		for _, nb := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
			if m.Get(nb[0], nb[1]) != solid {
				out = append(out, off)
				break
			}
		}
	}
	return out
}

func borderPixels(m *mask.Mask) []int {
	var out []int
	for x := 0; x < m.W; x++ {
		out = append(out, x, (m.H-1)*m.W+x)
	}
	for y := 1; y < m.H-1; y++ {
		out = append(out, y*m.W, y*m.W+m.W-1)
	}
	return out
}

// supercover returns the flat offsets of a 4-connected walk from a to
// b, clipped to the raster.
func supercover(m *mask.Mask, a, b geom.Point) []int {
	x0, y0 := int(a.X), int(a.Y)
	x1, y1 := int(b.X), int(b.Y)
	dx, dy := abs(x1-x0), abs(y1-y0)
	sx, sy := 1, 1
	if x1 < x0 {
		sx = -1
	}
	if y1 < y0 {
		sy = -1
	}
	x, y := x0, y0
	err := dx - dy
	var out []int
	push := func(px, py int) {
		if px >= 0 && px < m.W && py >= 0 && py < m.H {
			out = append(out, py*m.W+px)
		}
	}
	push(x, y)
	for x != x1 || y != y1 {
		e2 := 2 * err
		if e2 > -dy && x != x1 {
			err -= dy
			x += sx
		} else if y != y1 {
			err += dx
			y += sy
		} else {
			err -= dy
			x += sx
		}
		push(x, y)
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
