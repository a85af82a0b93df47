// camoforge turns an image into fabrication-ready camouflage layers:
// reduced palettes, vector outlines and printable stencil or solid
// plates.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/camoforge/camoforge"
	"github.com/camoforge/camoforge/export"
	"github.com/camoforge/camoforge/imaging"
	"github.com/camoforge/camoforge/logger"
	"github.com/camoforge/camoforge/mask"
	"github.com/camoforge/camoforge/mesh"
	"github.com/camoforge/camoforge/palette"
	"github.com/camoforge/camoforge/project"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "palette":
		cmdPalette(args)
	case "svg":
		cmdSVG(args)
	case "stl":
		cmdSTL(args)
	case "save":
		cmdSave(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`camoforge - image to fabrication geometry

Usage:
  camoforge <command> [options] <image>

Commands:
  palette <image>   Extract and print the color palette
  svg <image>       Export layered vector outlines as SVG
  stl <image>       Export printable plates as STL, one per layer
  save <image>      Write a project file for later editing

Examples:
  camoforge palette -colors 5 forest.jpg
  camoforge svg -out ./layers forest.jpg
  camoforge stl -mode solid -border 2 -out ./plates forest.jpg
  camoforge save -project forest.yaml forest.jpg`)
}

// settingsFlags registers the shared pipeline flags on fs and returns
// a builder that folds them over the defaults, or over a loaded
// project when -project is given.
func settingsFlags(fs *flag.FlagSet) func() (camoforge.Settings, *palette.Palette, error) {
	def := camoforge.DefaultSettings()

	projectPath := fs.String("project", "", "load palette and settings from a project file")
	colors := fs.Int("colors", def.MaxColors, "maximum palette size")
	method := fs.String("method", "kmeans", "palette method: kmeans or dominant")
	metric := fs.String("metric", "rgb", "color metric: rgb or lab")
	maxWidth := fs.Int("maxwidth", def.MaxWidth, "downscale images wider than this, 0 disables")
	brightness := fs.Float64("brightness", 0, "brightness offset, -255..255")
	contrast := fs.Float64("contrast", 1, "contrast factor")
	denoise := fs.Int("denoise", def.DenoiseStrength, "denoise strength, 1..20")
	minBlob := fs.Int("minblob", def.MinBlobSize, "drop blobs smaller than this many pixels")
	orphans := fs.Bool("orphans", false, "collect dropped pixels into an extra layer")
	seed := fs.Int64("seed", 0, "seed for the orphan layer color")
	epsilon := fs.Float64("epsilon", def.Epsilon, "contour smoothing tolerance in pixels")
	mode := fs.String("mode", "stencil", "fabrication mode: stencil or solid")
	plate := fs.Float64("plate", def.PlateWidthMM, "plate width in mm")
	thickness := fs.Float64("thickness", def.ThicknessMM, "plate thickness in mm")
	border := fs.Float64("border", 0, "solid mode border in mm")
	bridgeW := fs.Float64("bridge", def.BridgeWidthMM, "bridge width in mm")
	invert := fs.Bool("invert", false, "cut the complement of the pattern")
	template := fs.String("template", def.Template, "layer filename template")

	return func() (camoforge.Settings, *palette.Palette, error) {
		s := def
		var pal *palette.Palette
		if *projectPath != "" {
			doc, err := project.Load(*projectPath)
			if err != nil {
				return s, nil, err
			}
			if s, err = doc.ToSettings(); err != nil {
				return s, nil, err
			}
			if pal, err = doc.Palette(); err != nil {
				return s, nil, err
			}
		}
		// Flags override the loaded project only when they were
		// passed explicitly.
		set := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if set["colors"] {
			s.MaxColors = *colors
		}
		if set["maxwidth"] {
			s.MaxWidth = *maxWidth
		}
		if set["brightness"] {
			s.Brightness = *brightness
		}
		if set["contrast"] {
			s.Contrast = *contrast
		}
		if set["denoise"] {
			s.DenoiseStrength = *denoise
		}
		if set["minblob"] {
			s.MinBlobSize = *minBlob
		}
		if set["orphans"] {
			s.KeepOrphans = *orphans
		}
		if set["seed"] {
			s.Seed = *seed
		}
		if set["epsilon"] {
			s.Epsilon = *epsilon
		}
		if set["plate"] {
			s.PlateWidthMM = *plate
		}
		if set["thickness"] {
			s.ThicknessMM = *thickness
		}
		if set["border"] {
			s.BorderMM = *border
		}
		if set["bridge"] {
			s.BridgeWidthMM = *bridgeW
		}
		if set["invert"] {
			s.Invert = *invert
		}
		if set["template"] {
			s.Template = *template
		}
		if set["method"] {
			switch *method {
			case "kmeans":
				s.Method = palette.MethodKMeans
			case "dominant":
				s.Method = palette.MethodDominant
			default:
				return s, nil, fmt.Errorf("unknown method %q", *method)
			}
		}
		if set["metric"] {
			switch *metric {
			case "rgb":
				s.Metric = palette.MetricRGB
			case "lab":
				s.Metric = palette.MetricLab
			default:
				return s, nil, fmt.Errorf("unknown metric %q", *metric)
			}
		}
		if set["mode"] {
			switch *mode {
			case "stencil":
				s.Mode = camoforge.ModeStencil
			case "solid":
				s.Mode = camoforge.ModeSolid
			default:
				return s, nil, fmt.Errorf("unknown mode %q", *mode)
			}
		}
		return s, pal, nil
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runPipeline(fs *flag.FlagSet, args []string, verbose *bool) (*camoforge.Pipeline, *camoforge.Result, string) {
	build := settingsFlags(fs)
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: camoforge %s [options] <image>\n", fs.Name())
		os.Exit(1)
	}
	input := fs.Arg(0)

	settings, pal, err := build()
	if err != nil {
		fatal(err)
	}
	level := "info"
	if verbose != nil && *verbose {
		level = "debug"
	}
	log := logger.New(logger.Options{Level: level})
	defer log.Sync()

	img, err := imaging.Read(input)
	if err != nil {
		fatal(&camoforge.Error{Kind: camoforge.KindResource, Op: "read image", Err: err})
	}

	p := &camoforge.Pipeline{Settings: settings, Log: log}
	res, err := p.Run(context.Background(), img, pal)
	if err != nil {
		fatal(err)
	}
	for i := range res.Layers {
		if lerr := res.Layers[i].Err; lerr != nil {
			log.Error("layer failed", zap.Int("layer", res.Layers[i].Layer.ID), zap.Error(lerr))
		}
	}
	return p, res, input
}

func cmdPalette(args []string) {
	fs := flag.NewFlagSet("palette", flag.ExitOnError)
	build := settingsFlags(fs)
	swatch := fs.String("swatch", "", "write palette swatch PNG to this path")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: camoforge palette [options] <image>")
		os.Exit(1)
	}

	settings, pal, err := build()
	if err != nil {
		fatal(err)
	}
	img, err := imaging.Read(fs.Arg(0))
	if err != nil {
		fatal(err)
	}
	if pal == nil || pal.Len() == 0 {
		img = imaging.Downscale(img, settings.MaxWidth)
		pal, err = palette.Extract(img, settings.MaxColors, settings.Method, settings.Metric)
		if err != nil {
			fatal(err)
		}
	}

	for i, e := range pal.Entries() {
		fmt.Printf("%2d  %s  layer %d\n", i, e.Color.Hex(), e.Layer)
	}
	if *swatch != "" {
		if err := imaging.Save(imaging.Swatch(pal, 64), *swatch); err != nil {
			fatal(err)
		}
	}
}

func cmdSVG(args []string) {
	fs := flag.NewFlagSet("svg", flag.ExitOnError)
	outDir := fs.String("out", ".", "output directory")
	combined := fs.String("combined", "", "also write all layers stacked into this file")
	preview := fs.String("preview", "", "write flat preview PNG to this path")
	verbose := fs.Bool("v", false, "debug logging")

	p, res, input := runPipeline(fs, args, verbose)

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fatal(err)
	}
	var layers []export.VectorLayer
	written := 0
	for i := range res.Layers {
		lr := &res.Layers[i]
		if lr.Err != nil {
			continue
		}
		vl := export.VectorLayer{Color: lr.Layer.Color, Regions: lr.Regions}
		layers = append(layers, vl)

		name := export.FileName(p.Settings.Template, input, lr.Layer.ID, lr.Layer.Color)
		path := filepath.Join(*outDir, name+".svg")
		f, err := os.Create(path)
		if err != nil {
			fatal(err)
		}
		export.WriteLayerSVG(f, res.Width, res.Height, vl)
		if err := f.Close(); err != nil {
			fatal(err)
		}
		written++
	}
	fmt.Printf("Wrote %d layer files to %s\n", written, *outDir)

	if *combined != "" {
		f, err := os.Create(*combined)
		if err != nil {
			fatal(err)
		}
		export.WriteSVG(f, res.Width, res.Height, layers)
		if err := f.Close(); err != nil {
			fatal(err)
		}
	}

	if *preview != "" {
		ml := make([]mask.Layer, 0, len(res.Layers))
		for i := range res.Layers {
			if res.Layers[i].Err == nil {
				ml = append(ml, res.Layers[i].Layer)
			}
		}
		img := imaging.RenderLayers(ml, res.Width, res.Height)
		if err := imaging.Save(img, *preview); err != nil {
			fatal(err)
		}
	}
}

func cmdSTL(args []string) {
	fs := flag.NewFlagSet("stl", flag.ExitOnError)
	outDir := fs.String("out", ".", "output directory")
	ascii := fs.Bool("ascii", false, "write ASCII STL instead of binary")
	verbose := fs.Bool("v", false, "debug logging")

	p, res, input := runPipeline(fs, args, verbose)

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fatal(err)
	}
	var totalGrams float64
	written := 0
	for i := range res.Layers {
		lr := &res.Layers[i]
		if lr.Err != nil {
			continue
		}
		m, err := p.BuildMesh(lr, res.Width, res.Height)
		if err != nil {
			fmt.Fprintf(os.Stderr, "layer %d: %v\n", lr.Layer.ID, err)
			continue
		}
		name := export.FileName(p.Settings.Template, input, lr.Layer.ID, lr.Layer.Color)
		path := filepath.Join(*outDir, name+".stl")
		f, err := os.Create(path)
		if err != nil {
			fatal(err)
		}
		if *ascii {
			err = export.WriteSTLASCII(f, m, name)
		} else {
			err = export.WriteSTLBinary(f, m, name)
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			fatal(err)
		}
		grams := m.WeightGrams(mesh.PLADensity)
		totalGrams += grams
		written++
		fmt.Printf("%s  %.1fg PLA, %d bridges\n", path, grams, len(lr.Bridges))
	}
	fmt.Printf("Wrote %d plates, %.1fg PLA total\n", written, totalGrams)
}

func cmdSave(args []string) {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	build := settingsFlags(fs)
	out := fs.String("o", "project.yaml", "project file path")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: camoforge save [options] <image>")
		os.Exit(1)
	}
	input := fs.Arg(0)

	settings, pal, err := build()
	if err != nil {
		fatal(err)
	}
	if pal == nil || pal.Len() == 0 {
		img, err := imaging.Read(input)
		if err != nil {
			fatal(err)
		}
		img = imaging.Downscale(img, settings.MaxWidth)
		pal, err = palette.Extract(img, settings.MaxColors, settings.Method, settings.Metric)
		if err != nil {
			fatal(err)
		}
	}
	doc := project.New(input, pal, settings)
	if err := doc.Save(*out); err != nil {
		fatal(err)
	}
	fmt.Printf("Wrote %s\n", *out)
}
