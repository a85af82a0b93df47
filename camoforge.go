// Package camoforge turns a source image into fabrication-ready layer
// geometry: a reduced palette, one mask per layer, vector contours and
// optionally bridged, printable meshes.
package camoforge

import (
	"fmt"

	"github.com/camoforge/camoforge/palette"
)

// Kind classifies pipeline failures.
type Kind int

const (
	// KindInput marks invalid images, palettes or settings.
	KindInput Kind = iota + 1
	// KindGeometry marks failures deriving printable geometry, such
	// as bridging that does not converge.
	KindGeometry
	// KindResource marks I/O failures around files and encoders.
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindGeometry:
		return "geometry"
	case KindResource:
		return "resource"
	}
	return "unknown"
}

// Error wraps a failure with its classification and the operation that
// raised it. It supports errors.Is/As chains via Unwrap.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Mode selects the fabrication style for 3D output.
type Mode int

const (
	// ModeStencil cuts the pattern out of a plate and bridges
	// floating islands.
	ModeStencil Mode = iota
	// ModeSolid prints each layer's pattern as free-standing pieces.
	ModeSolid
)

func (m Mode) String() string {
	if m == ModeSolid {
		return "solid"
	}
	return "stencil"
}

// Settings carries every tunable of the pipeline.
type Settings struct {
	// Palette extraction.
	MaxColors int
	Method    palette.Method
	Metric    palette.Metric

	// Raster preprocessing.
	MaxWidth   int
	Brightness float64
	Contrast   float64

	// Layer assignment.
	DenoiseStrength int
	MinBlobSize     int
	KeepOrphans     bool
	Seed            int64

	// Vectorization.
	Epsilon float64

	// Fabrication.
	Mode          Mode
	PlateWidthMM  float64
	ThicknessMM   float64
	BorderMM      float64
	BridgeWidthMM float64
	Invert        bool

	// Output naming.
	Template string
}

// DefaultSettings mirrors the values a fresh project starts with.
func DefaultSettings() Settings {
	return Settings{
		MaxColors:       6,
		Method:          palette.MethodKMeans,
		Metric:          palette.MetricRGB,
		MaxWidth:        800,
		Contrast:        1,
		DenoiseStrength: 5,
		MinBlobSize:     64,
		Epsilon:         1.2,
		Mode:            ModeStencil,
		PlateWidthMM:    180,
		ThicknessMM:     2,
		BridgeWidthMM:   2,
		Template:        "%INPUTFILENAME%_layer_%INDEX%_%COLOR%",
	}
}

// Validate rejects out-of-range settings with a KindInput error.
func (s *Settings) Validate() error {
	fail := func(format string, args ...any) error {
		return &Error{Kind: KindInput, Op: "settings", Err: fmt.Errorf(format, args...)}
	}
	if s.MaxColors < 2 {
		return fail("max colors %d, need at least 2", s.MaxColors)
	}
	if s.DenoiseStrength < 1 || s.DenoiseStrength > 20 {
		return fail("denoise strength %d outside 1..20", s.DenoiseStrength)
	}
	if s.MinBlobSize < 0 {
		return fail("min blob size %d is negative", s.MinBlobSize)
	}
	if s.Epsilon <= 0 {
		return fail("epsilon %g must be > 0", s.Epsilon)
	}
	if s.Contrast <= 0 {
		return fail("contrast %g must be > 0", s.Contrast)
	}
	if s.PlateWidthMM <= 0 {
		return fail("plate width %gmm must be > 0", s.PlateWidthMM)
	}
	if s.ThicknessMM <= 0 {
		return fail("thickness %gmm must be > 0", s.ThicknessMM)
	}
	if s.BorderMM < 0 {
		return fail("border %gmm is negative", s.BorderMM)
	}
	if s.BridgeWidthMM <= 0 {
		return fail("bridge width %gmm must be > 0", s.BridgeWidthMM)
	}
	return nil
}
