// Package mask builds per-layer binary rasters from an image and a
// palette-to-layer mapping.
package mask

// Mask is a 2D binary raster. Pix holds one byte per pixel, 0 or 1.
type Mask struct {
	W, H int
	Pix  []uint8
}

// New returns an all-zero mask of the given size.
func New(w, h int) *Mask {
	return &Mask{W: w, H: h, Pix: make([]uint8, w*h)}
}

// Get reports whether the pixel at (x, y) is set. Out-of-range
// coordinates read as zero.
func (m *Mask) Get(x, y int) bool {
	if x < 0 || x >= m.W || y < 0 || y >= m.H {
		return false
	}
	return m.Pix[y*m.W+x] != 0
}

// Set writes the pixel at (x, y). Out-of-range coordinates are ignored.
func (m *Mask) Set(x, y int, on bool) {
	if x < 0 || x >= m.W || y < 0 || y >= m.H {
		return
	}
	if on {
		m.Pix[y*m.W+x] = 1
	} else {
		m.Pix[y*m.W+x] = 0
	}
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	c := New(m.W, m.H)
	copy(c.Pix, m.Pix)
	return c
}

// Dilate grows the set area by radius pixels using a square kernel.
func (m *Mask) Dilate(radius int) {
	for _i := 0; _i < radius; _i++ {
		m.morphStep(true)
	}
}

// Erode shrinks the set area by radius pixels using a square kernel.
func (m *Mask) Erode(radius int) {
	for _i := 0; _i < radius; _i++ {
		m.morphStep(false)
	}
}

func (m *Mask) morphStep(dilate bool) {
	src := make([]uint8, len(m.Pix))
	copy(src, m.Pix)
	at := func(x, y int) uint8 {
		if x < 0 || x >= m.W || y < 0 || y >= m.H {
			if dilate {
				return 0
			}
			// Treat outside as set so erosion does not eat the border.
			return 1
		}
		return src[y*m.W+x]
	}
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			hit := !dilate
			for dy := -1; dy <= 1 && hit != dilate; dy++ {
				for dx := -1; dx <= 1; dx++ {
					v := at(x+dx, y+dy) != 0
					if dilate && v {
						hit = true
						break
					}
					if !dilate && !v {
						hit = false
						break
					}
				}
			}
			if hit {
				m.Pix[y*m.W+x] = 1
			} else {
				m.Pix[y*m.W+x] = 0
			}
		}
	}
}

// Component is a connected blob of set pixels.
type Component struct {
	// Pixels are flat y*W+x offsets in raster scan discovery order.
	Pixels []int
	// MinX, MinY, MaxX, MaxY bound the component.
	MinX, MinY, MaxX, MaxY int
	// TouchesBorder reports whether any pixel lies on the raster edge.
	TouchesBorder bool
}

// Area returns the pixel count of the component.
func (c *Component) Area() int {
	return len(c.Pixels)
}

var (
	dx4 = []int{-1, 0, 1, 0}
	dy4 = []int{0, -1, 0, 1}
	dx8 = []int{-1, 0, 1, -1, 1, -1, 0, 1}
	dy8 = []int{-1, -1, -1, 0, 0, 1, 1, 1}
)

// Components labels the connected blobs of set pixels with flood fill,
// in raster scan discovery order. eightConn selects 8-connectivity;
// otherwise 4-connectivity is used.
func Components(m *Mask, eightConn bool) []Component {
	dxs, dys := dx4, dy4
	if eightConn {
		dxs, dys = dx8, dy8
	}
	visited := make([]bool, len(m.Pix))
	var out []Component
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			start := y*m.W + x
			if visited[start] || m.Pix[start] == 0 {
				continue
			}
			comp := Component{MinX: x, MinY: y, MaxX: x, MaxY: y}
			queue := []int{start}
			visited[start] = true
			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				cx, cy := cur%m.W, cur/m.W
				comp.Pixels = append(comp.Pixels, cur)
				comp.MinX = min(comp.MinX, cx)
				comp.MinY = min(comp.MinY, cy)
				comp.MaxX = max(comp.MaxX, cx)
				comp.MaxY = max(comp.MaxY, cy)
				if cx == 0 || cy == 0 || cx == m.W-1 || cy == m.H-1 {
					comp.TouchesBorder = true
				}
				for k := range dxs {
					nx, ny := cx+dxs[k], cy+dys[k]
					if nx < 0 || nx >= m.W || ny < 0 || ny >= m.H {
						continue
					}
					nIdx := ny*m.W + nx
					if !visited[nIdx] && m.Pix[nIdx] != 0 {
						visited[nIdx] = true
						queue = append(queue, nIdx)
					}
				}
			}
			out = append(out, comp)
		}
	}
	return out
}

// Invert returns the complement mask.
func (m *Mask) Invert() *Mask {
	inv := New(m.W, m.H)
	for i, v := range m.Pix {
		if v == 0 {
			inv.Pix[i] = 1
		}
	}
	return inv
}
