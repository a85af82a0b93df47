// Package imaging covers raster input and preview output: decoding,
// capped downscaling, tone adjustment and flat previews of assigned
// layers.
package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"

	"github.com/camoforge/camoforge/mask"
	"github.com/camoforge/camoforge/palette"
)

// Read decodes an image file. PNG, JPEG and GIF are registered.
func Read(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("imaging: decode %s: %w", path, err)
	}
	return img, nil
}

// Save writes img as PNG.
func Save(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// Downscale caps the image width, preserving aspect ratio with
// Catmull-Rom resampling. Images at or under maxWidth pass through
// untouched.
func Downscale(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// Adjust applies linear tone mapping: each channel becomes
// clamp(contrast*v + brightness). Contrast 1 and brightness 0 leave
// the image unchanged.
func Adjust(img image.Image, brightness, contrast float64) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bb, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			dst.SetRGBA(x, y, color.RGBA{
				R: tone(r, brightness, contrast),
				G: tone(g, brightness, contrast),
				B: tone(bb, brightness, contrast),
				A: uint8(a >> 8),
			})
		}
	}
	return dst
}

func tone(v uint32, brightness, contrast float64) uint8 {
	f := contrast*float64(v>>8) + brightness
	return uint8(max(0, min(255, f)))
}

// RenderLayers paints each layer's mask in its palette color over a
// white canvas, giving the flat preview of the assignment.
func RenderLayers(layers []mask.Layer, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(img, img.Bounds(), image.White, image.Point{}, xdraw.Src)
	for _, l := range layers {
		c := color.RGBA{R: l.Color.R, G: l.Color.G, B: l.Color.B, A: 255}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if l.Mask.Get(x, y) {
					img.SetRGBA(x, y, c)
				}
			}
		}
	}
	return img
}

// Swatch renders the palette as a strip of tiles, one per entry.
func Swatch(pal *palette.Palette, tileSize int) *image.RGBA {
	if tileSize <= 0 {
		tileSize = 64
	}
	entries := pal.Entries()
	w := max(tileSize*len(entries), 1)
	img := image.NewRGBA(image.Rect(0, 0, w, tileSize))
	for i, e := range entries {
		c := color.RGBA{R: e.Color.R, G: e.Color.G, B: e.Color.B, A: 255}
		for y := 0; y < tileSize; y++ {
			for x := i * tileSize; x < (i+1)*tileSize; x++ {
				img.SetRGBA(x, y, c)
			}
		}
	}
	return img
}
