package camoforge

import (
	"context"
	"image"
	"sync"

	"go.uber.org/zap"

	"github.com/camoforge/camoforge/bridge"
	"github.com/camoforge/camoforge/contour"
	"github.com/camoforge/camoforge/geom"
	"github.com/camoforge/camoforge/imaging"
	"github.com/camoforge/camoforge/mask"
	"github.com/camoforge/camoforge/mesh"
	"github.com/camoforge/camoforge/palette"
)

// LayerResult is one layer's geometry, or the error that stopped it.
// The other layers are unaffected when one fails.
type LayerResult struct {
	Layer   mask.Layer
	Regions []geom.Region
	Bridges []bridge.Bridge
	// Carved is the layer mask after bridge channels were cut. It
	// equals the assignment mask when no bridging ran.
	Carved *mask.Mask
	Err    error
}

// Result is a full pipeline run.
type Result struct {
	Palette       *palette.Palette
	Layers        []LayerResult
	Width, Height int
}

// Failed counts layers that did not produce geometry.
func (r *Result) Failed() int {
	n := 0
	for i := range r.Layers {
		if r.Layers[i].Err != nil {
			n++
		}
	}
	return n
}

// Pipeline runs the image to geometry stages. The zero value works
// with DefaultSettings applied by the caller.
type Pipeline struct {
	Settings Settings
	Log      *zap.Logger
}

func (p *Pipeline) log() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

// Run processes the image. When pal is nil or empty the palette is
// extracted automatically; layer stages wait on it either way, then
// fan out one goroutine per layer. A layer failure lands in its
// LayerResult, global failures return an error.
func (p *Pipeline) Run(ctx context.Context, img image.Image, pal *palette.Palette) (*Result, error) {
	if err := p.Settings.Validate(); err != nil {
		return nil, err
	}
	log := p.log()

	if p.Settings.Brightness != 0 || p.Settings.Contrast != 1 {
		img = imaging.Adjust(img, p.Settings.Brightness, p.Settings.Contrast)
	}
	img = imaging.Downscale(img, p.Settings.MaxWidth)
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if pal == nil || pal.Len() == 0 {
		var err error
		pal, err = palette.Extract(img, p.Settings.MaxColors, p.Settings.Method, p.Settings.Metric)
		if err != nil {
			return nil, &Error{Kind: KindInput, Op: "extract palette", Err: err}
		}
		log.Info("palette extracted",
			zap.Int("colors", pal.Len()),
			zap.String("method", p.Settings.Method.String()))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	layers, err := mask.Build(img, pal, mask.Options{
		Metric:          p.Settings.Metric,
		DenoiseStrength: p.Settings.DenoiseStrength,
		MinBlobSize:     p.Settings.MinBlobSize,
		Orphan:          p.Settings.KeepOrphans,
		Seed:            p.Settings.Seed,
	})
	if err != nil {
		return nil, &Error{Kind: KindInput, Op: "build masks", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Palette: pal, Width: w, Height: h}
	res.Layers = make([]LayerResult, len(layers))

	var wg sync.WaitGroup
	for i, l := range layers {
		wg.Add(1)
		go func(i int, l mask.Layer) {
			defer wg.Done()
			res.Layers[i] = p.solveLayer(ctx, l, log)
		}(i, l)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) solveLayer(ctx context.Context, l mask.Layer, log *zap.Logger) LayerResult {
	lr := LayerResult{Layer: l, Carved: l.Mask}
	if err := ctx.Err(); err != nil {
		lr.Err = err
		return lr
	}

	if p.Settings.Mode == ModeStencil {
		scale := p.Settings.PlateWidthMM / float64(l.Mask.W)
		sol, err := bridge.Solve(l.Mask, bridge.Options{
			Width:   p.Settings.BridgeWidthMM / scale,
			Epsilon: p.Settings.Epsilon,
			Logger:  log,
		})
		if err != nil {
			lr.Err = &Error{Kind: KindGeometry, Op: "bridge layer", Err: err}
			return lr
		}
		lr.Regions = sol.Regions
		lr.Bridges = sol.Bridges
		lr.Carved = sol.Mask
		if len(sol.Bridges) > 0 {
			log.Info("islands bridged",
				zap.Int("layer", l.ID),
				zap.Int("bridges", len(sol.Bridges)))
		}
		return lr
	}

	regions, err := contour.Vectorize(l.Mask, p.Settings.Epsilon)
	if err != nil {
		lr.Err = &Error{Kind: KindGeometry, Op: "vectorize layer", Err: err}
		return lr
	}
	lr.Regions = regions
	return lr
}

// BuildMesh extrudes one layer's geometry per the fabrication
// settings. Width and height are the processed raster size from the
// Result.
func (p *Pipeline) BuildMesh(lr *LayerResult, w, h int) (*mesh.Mesh, error) {
	if lr.Err != nil {
		return nil, lr.Err
	}
	scale := p.Settings.PlateWidthMM / float64(w)
	plateH := float64(h) * scale

	src := lr.Carved
	if p.Settings.Invert {
		src = src.Invert()
	}

	if p.Settings.Mode == ModeStencil {
		regions := lr.Regions
		if p.Settings.Invert {
			var err error
			regions, err = contour.Vectorize(src, p.Settings.Epsilon)
			if err != nil {
				return nil, &Error{Kind: KindGeometry, Op: "vectorize inverted", Err: err}
			}
		}
		rings := mesh.PixelRings(regions, scale, float64(h))
		m, err := mesh.BuildStencil(rings, p.Settings.PlateWidthMM, plateH, p.Settings.ThicknessMM)
		if err != nil {
			return nil, &Error{Kind: KindGeometry, Op: "build stencil", Err: err}
		}
		return m, nil
	}

	if p.Settings.BorderMM > 0 {
		src = src.Clone()
		src.Dilate(int(p.Settings.BorderMM/scale + 0.5))
	}
	regions, err := contour.Vectorize(src, p.Settings.Epsilon)
	if err != nil {
		return nil, &Error{Kind: KindGeometry, Op: "vectorize solid", Err: err}
	}
	rings := mesh.PixelRings(regions, scale, float64(h))
	m, err := mesh.BuildSolid(rings, p.Settings.ThicknessMM)
	if err != nil {
		return nil, &Error{Kind: KindGeometry, Op: "build solid", Err: err}
	}
	return m, nil
}
