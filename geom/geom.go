// Package geom holds the 2D primitives shared by the contour, bridge,
// mesh and export stages.
package geom

import "math"

// Point is a 2D point in image pixel coordinates.
type Point struct {
	X, Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Ring is a closed polygon. The last point implicitly connects back to
// the first; the closing point is not repeated.
type Ring []Point

// SignedArea returns the shoelace area of the ring. With image
// coordinates (y grows downward) a clockwise-on-screen ring has
// positive area.
func (r Ring) SignedArea() float64 {
	if len(r) < 3 {
		return 0
	}
	area := 0.0
	for i := range r {
		j := (i + 1) % len(r)
		area += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return area / 2
}

// Area returns the absolute enclosed area.
func (r Ring) Area() float64 {
	return math.Abs(r.SignedArea())
}

// Perimeter returns the closed length of the ring.
func (r Ring) Perimeter() float64 {
	if len(r) < 2 {
		return 0
	}
	sum := 0.0
	for i := range r {
		sum += r[i].Dist(r[(i+1)%len(r)])
	}
	return sum
}

// Reverse flips the ring orientation in place.
func (r Ring) Reverse() {
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
}

// Contains reports whether p lies strictly inside the ring, using the
// even-odd crossing rule.
func (r Ring) Contains(p Point) bool {
	inside := false
	n := len(r)
	for i := range r {
		a := r[i]
		b := r[(i+1)%n]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// BBox returns the axis-aligned bounds of the ring as min and max points.
func (r Ring) BBox() (Point, Point) {
	if len(r) == 0 {
		return Point{}, Point{}
	}
	lo := r[0]
	hi := r[0]
	for _, p := range r[1:] {
		lo.X = math.Min(lo.X, p.X)
		lo.Y = math.Min(lo.Y, p.Y)
		hi.X = math.Max(hi.X, p.X)
		hi.Y = math.Max(hi.Y, p.Y)
	}
	return lo, hi
}

// Region is one outer ring plus the hole rings nested directly inside
// it. The outer ring is stored clockwise on screen (positive signed
// area), holes counter-clockwise, so area sign distinguishes solid from
// void.
type Region struct {
	Outer Ring
	Holes []Ring
}

// Normalize enforces the orientation convention on the region's rings.
func (rg *Region) Normalize() {
	if rg.Outer.SignedArea() < 0 {
		rg.Outer.Reverse()
	}
	for _, h := range rg.Holes {
		if h.SignedArea() > 0 {
			h.Reverse()
		}
	}
}

// Area returns the material area of the region (outer minus holes).
func (rg *Region) Area() float64 {
	a := rg.Outer.Area()
	for _, h := range rg.Holes {
		a -= h.Area()
	}
	return a
}

// SegmentDist returns the distance from p to the segment ab and the
// closest point on the segment.
func SegmentDist(p, a, b Point) (float64, Point) {
	ab := b.Sub(a)
	len2 := ab.X*ab.X + ab.Y*ab.Y
	if len2 == 0 {
		return p.Dist(a), a
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / len2
	t = math.Max(0, math.Min(1, t))
	q := a.Add(ab.Scale(t))
	return p.Dist(q), q
}

// RingDist returns the minimum distance between two rings together with
// the closest point pair (first on a, second on b). Vertices of one ring
// are tested against the edges of the other, which is exact enough for
// bridge placement on traced pixel boundaries.
func RingDist(a, b Ring) (float64, Point, Point) {
	best := math.Inf(1)
	var pa, pb Point
	for _, p := range a {
		for i := range b {
			d, q := SegmentDist(p, b[i], b[(i+1)%len(b)])
			if d < best {
				best = d
				pa = p
				pb = q
			}
		}
	}
	for _, p := range b {
		for i := range a {
			d, q := SegmentDist(p, a[i], a[(i+1)%len(a)])
			if d < best {
				best = d
				pa = q
				pb = p
			}
		}
	}
	return best, pa, pb
}
