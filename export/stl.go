package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/camoforge/camoforge/mesh"
)

// stlTriangle matches the 50 byte facet record of the binary STL
// format.
type stlTriangle struct {
	Normal  [3]float32
	A, B, C [3]float32
	Attr    uint16
}

// WriteSTLBinary writes the mesh as little-endian binary STL. The name
// is stored in the 80 byte header, truncated if needed.
func WriteSTLBinary(w io.Writer, m *mesh.Mesh, name string) error {
	var header [80]byte
	copy(header[:], name)
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.Triangles))); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for _, t := range m.Triangles {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		rec := stlTriangle{
			Normal: normal(a, b, c),
			A:      vec32(a),
			B:      vec32(b),
			C:      vec32(c),
		}
		if err := binary.Write(bw, binary.LittleEndian, rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteSTLASCII writes the mesh in the textual STL dialect, mostly
// useful for eyeballing output in tests and editors.
func WriteSTLASCII(w io.Writer, m *mesh.Mesh, name string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", name)
	for _, t := range m.Triangles {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		n := normal(a, b, c)
		fmt.Fprintf(bw, "  facet normal %g %g %g\n", n[0], n[1], n[2])
		fmt.Fprintf(bw, "    outer loop\n")
		for _, v := range [3]mesh.Vec3{a, b, c} {
			fmt.Fprintf(bw, "      vertex %g %g %g\n", v.X, v.Y, v.Z)
		}
		fmt.Fprintf(bw, "    endloop\n")
		fmt.Fprintf(bw, "  endfacet\n")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)
	return bw.Flush()
}

func vec32(v mesh.Vec3) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func normal(a, b, c mesh.Vec3) [3]float32 {
	ux, uy, uz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	vx, vy, vz := c.X-a.X, c.Y-a.Y, c.Z-a.Z
	nx := uy*vz - uz*vy
	ny := uz*vx - ux*vz
	nz := ux*vy - uy*vx
	l := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if l == 0 {
		return [3]float32{}
	}
	return [3]float32{float32(nx / l), float32(ny / l), float32(nz / l)}
}
