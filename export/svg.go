// Package export writes finished layer geometry to interchange
// formats: layered SVG for cutting workflows and binary or ASCII STL
// for printing.
package export

import (
	"fmt"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/camoforge/camoforge/geom"
	"github.com/camoforge/camoforge/palette"
)

// VectorLayer pairs one palette color with its region hierarchy in
// pixel coordinates.
type VectorLayer struct {
	Color   palette.Color
	Regions []geom.Region
}

// WriteLayerSVG renders a single layer's regions as even-odd filled
// paths on a w by h pixel canvas, one path element per region.
func WriteLayerSVG(w io.Writer, wpx, hpx int, l VectorLayer) {
	canvas := svg.New(w)
	canvas.Start(wpx, hpx, fmt.Sprintf(`viewBox="0 0 %d %d"`, wpx, hpx))
	for _, r := range l.Regions {
		canvas.Path(pathData(r),
			fmt.Sprintf("fill:%s;fill-rule:evenodd", l.Color.Hex()))
	}
	canvas.End()
}

// WriteSVG renders the layers bottom to top as even-odd filled paths
// on a w by h pixel canvas, stacking them into the flat composite.
func WriteSVG(w io.Writer, wpx, hpx int, layers []VectorLayer) {
	canvas := svg.New(w)
	canvas.Start(wpx, hpx, fmt.Sprintf(`viewBox="0 0 %d %d"`, wpx, hpx))
	for i, l := range layers {
		canvas.Gid(fmt.Sprintf("layer-%d", i))
		for _, r := range l.Regions {
			canvas.Path(pathData(r),
				fmt.Sprintf("fill:%s;fill-rule:evenodd", l.Color.Hex()))
		}
		canvas.Gend()
	}
	canvas.End()
}

// pathData encodes a region and its holes as a single subpathed d
// attribute, which lets the even-odd rule cut the holes out.
func pathData(r geom.Region) string {
	var b strings.Builder
	writeRing(&b, r.Outer)
	for _, h := range r.Holes {
		b.WriteByte(' ')
		writeRing(&b, h)
	}
	return b.String()
}

func writeRing(b *strings.Builder, ring geom.Ring) {
	for i, p := range ring {
		if i == 0 {
			fmt.Fprintf(b, "M%.2f %.2f", p.X, p.Y)
		} else {
			fmt.Fprintf(b, " L%.2f %.2f", p.X, p.Y)
		}
	}
	b.WriteString(" Z")
}
