// Package mesh extrudes layer geometry into watertight triangle meshes
// for 3D printing. Region rings are triangulated with an even-odd
// winding rule, so hole rings and nested rings need no special casing,
// and side walls are synthesized from the triangulation's boundary
// edges.
//
// Meshes live in model space: X right, Y up, Z out of the plate, all
// in millimeters. Callers map pixel-space rings into model space
// before building.
package mesh

import (
	"errors"
	"math"

	"github.com/hajimehoshi/go-libtess2"

	"github.com/camoforge/camoforge/geom"
)

// PLADensity is the density of PLA filament in g/cm3.
const PLADensity = 1.24

// ErrNoGeometry is returned when the input rings triangulate to
// nothing.
var ErrNoGeometry = errors.New("mesh: no geometry to extrude")

// Vec3 is a point in model space.
type Vec3 struct {
	X, Y, Z float64
}

// Mesh is an indexed triangle mesh. Triangles wind counterclockwise
// seen from outside.
type Mesh struct {
	Vertices  []Vec3
	Triangles [][3]int
}

// Volume returns the enclosed volume in mm3 using the signed tetra
// sum. A watertight mesh with outward windings yields a positive
// value.
func (m *Mesh) Volume() float64 {
	var v float64
	for _, t := range m.Triangles {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		v += a.X*(b.Y*c.Z-b.Z*c.Y) +
			a.Y*(b.Z*c.X-b.X*c.Z) +
			a.Z*(b.X*c.Y-b.Y*c.X)
	}
	return v / 6
}

// WeightGrams estimates print weight for a material of the given
// density in g/cm3.
func (m *Mesh) WeightGrams(density float64) float64 {
	return m.Volume() / 1000 * density
}

// BuildStencil extrudes one stencil plate: a w by h rectangle with the
// pattern rings punched out even-odd, so islands nested in holes come
// back as material.
func BuildStencil(rings []geom.Ring, w, h, thickness float64) (*Mesh, error) {
	plate := geom.Ring{
		{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h},
	}
	all := make([]geom.Ring, 0, len(rings)+1)
	all = append(all, plate)
	all = append(all, rings...)
	return Extrude(all, thickness)
}

// BuildSolid extrudes the pattern rings themselves into free-standing
// pieces.
func BuildSolid(rings []geom.Ring, thickness float64) (*Mesh, error) {
	return Extrude(rings, thickness)
}

// Extrude triangulates the rings even-odd and lifts the result into a
// closed prism of the given thickness. The bottom face sits at z = 0.
func Extrude(rings []geom.Ring, thickness float64) (*Mesh, error) {
	if thickness <= 0 {
		return nil, errors.New("mesh: thickness must be > 0")
	}
	contours := make([]libtess2.Contour, 0, len(rings))
	for _, r := range rings {
		if len(r) < 3 {
			continue
		}
		c := make(libtess2.Contour, len(r))
		for i, p := range r {
			c[i] = libtess2.Vertex{X: float32(p.X), Y: float32(p.Y)}
		}
		contours = append(contours, c)
	}
	if len(contours) == 0 {
		return nil, ErrNoGeometry
	}

	elems, verts, err := libtess2.Tesselate(contours, libtess2.WindingRuleOdd)
	if err != nil {
		return nil, err
	}
	if len(elems) < 3 {
		return nil, ErrNoGeometry
	}

	n := len(verts)
	m := &Mesh{Vertices: make([]Vec3, 2*n)}
	for i, v := range verts {
		m.Vertices[i] = Vec3{X: float64(v.X), Y: float64(v.Y)}
		m.Vertices[n+i] = Vec3{X: float64(v.X), Y: float64(v.Y), Z: thickness}
	}

	// Directed boundary edges of the counterclockwise top faces. An
	// interior edge appears once per direction, a boundary edge only
	// forward.
	edges := make(map[[2]int]bool)
	var order [][2]int
	addEdge := func(u, v int) {
		edges[[2]int{u, v}] = true
		order = append(order, [2]int{u, v})
	}
	for i := 0; i+3 <= len(elems); i += 3 {
		a, b, c := elems[i], elems[i+1], elems[i+2]
		if a < 0 || b < 0 || c < 0 {
			continue
		}
		s := area2(m.Vertices[a], m.Vertices[b], m.Vertices[c])
		if s == 0 {
			continue
		}
		if s < 0 {
			b, c = c, b
		}
		// Top face, normal +Z.
		m.Triangles = append(m.Triangles, [3]int{n + a, n + b, n + c})
		// Bottom face, normal -Z.
		m.Triangles = append(m.Triangles, [3]int{a, c, b})
		addEdge(a, b)
		addEdge(b, c)
		addEdge(c, a)
	}
	if len(m.Triangles) == 0 {
		return nil, ErrNoGeometry
	}

	for _, e := range order {
		if edges[[2]int{e[1], e[0]}] {
			continue
		}
		u, v := e[0], e[1]
		// Interior lies left of u->v, so this winding faces outward.
		m.Triangles = append(m.Triangles,
			[3]int{u, v, n + v},
			[3]int{u, n + v, n + u})
	}
	return m, nil
}

// PixelRings flattens region hierarchies into model-space rings. Pixel
// coordinates scale by mm per pixel and Y flips so the image's top row
// ends up at the top of the print bed.
func PixelRings(regions []geom.Region, scale, heightPx float64) []geom.Ring {
	var out []geom.Ring
	flip := func(r geom.Ring) geom.Ring {
		m := make(geom.Ring, len(r))
		for i, p := range r {
			m[i] = geom.Point{X: p.X * scale, Y: (heightPx - p.Y) * scale}
		}
		return m
	}
	for _, reg := range regions {
		out = append(out, flip(reg.Outer))
		for _, h := range reg.Holes {
			out = append(out, flip(h))
		}
	}
	return out
}

// area2 is twice the signed area of the triangle projected to XY.
func area2(a, b, c Vec3) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
}

// BoundsZ reports the vertical extent, useful for sanity checks.
func (m *Mesh) BoundsZ() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range m.Vertices {
		lo = math.Min(lo, v.Z)
		hi = math.Max(hi, v.Z)
	}
	return lo, hi
}
