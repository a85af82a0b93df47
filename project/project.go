// Package project persists a work session as a YAML document: the
// source image reference, the palette with its layer grouping and
// every pipeline setting.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/camoforge/camoforge"
	"github.com/camoforge/camoforge/palette"
)

// EntryDoc is one palette entry in the document.
type EntryDoc struct {
	Color string `yaml:"color"`
	Layer int    `yaml:"layer"`
}

// SettingsDoc mirrors camoforge.Settings with stable YAML keys.
type SettingsDoc struct {
	MaxColors       int     `yaml:"max_colors"`
	Method          string  `yaml:"method"`
	Metric          string  `yaml:"metric"`
	MaxWidth        int     `yaml:"max_width"`
	Brightness      float64 `yaml:"brightness"`
	Contrast        float64 `yaml:"contrast"`
	DenoiseStrength int     `yaml:"denoise_strength"`
	MinBlobSize     int     `yaml:"min_blob_size"`
	KeepOrphans     bool    `yaml:"keep_orphans"`
	Seed            int64   `yaml:"seed"`
	Epsilon         float64 `yaml:"epsilon"`
	Mode            string  `yaml:"mode"`
	PlateWidthMM    float64 `yaml:"plate_width_mm"`
	ThicknessMM     float64 `yaml:"thickness_mm"`
	BorderMM        float64 `yaml:"border_mm"`
	BridgeWidthMM   float64 `yaml:"bridge_width_mm"`
	Invert          bool    `yaml:"invert"`
	Template        string  `yaml:"template"`
}

// Document is the serialized project.
type Document struct {
	Image    string      `yaml:"image"`
	Entries  []EntryDoc  `yaml:"palette"`
	Settings SettingsDoc `yaml:"settings"`
}

// New captures the current state into a document.
func New(image string, pal *palette.Palette, s camoforge.Settings) *Document {
	doc := &Document{Image: image, Settings: fromSettings(s)}
	if pal != nil {
		for _, e := range pal.Entries() {
			doc.Entries = append(doc.Entries, EntryDoc{Color: e.Color.Hex(), Layer: e.Layer})
		}
	}
	return doc
}

// Save writes the document, creating parent directories as needed.
func (d *Document) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a document and validates its settings.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("project: parse %s: %w", path, err)
	}
	s, err := doc.ToSettings()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("project: %s: %w", path, err)
	}
	return &doc, nil
}

// Palette rebuilds the palette with its layer grouping. Entry order in
// the document is authoritative.
func (d *Document) Palette() (*palette.Palette, error) {
	pal := palette.New()
	layers := make([]int, len(d.Entries))
	for i, e := range d.Entries {
		c, err := parseHex(e.Color)
		if err != nil {
			return nil, fmt.Errorf("project: entry %d: %w", i, err)
		}
		if err := pal.Add(c); err != nil {
			return nil, fmt.Errorf("project: entry %d: %w", i, err)
		}
		layers[i] = e.Layer
	}
	// Assign in one pass; per-entry SetLayer would renumber between
	// entries and merge document layers that arrive out of order.
	if err := pal.AssignLayers(layers); err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	return pal, nil
}

// ToSettings converts the document settings back to pipeline settings.
func (d *Document) ToSettings() (camoforge.Settings, error) {
	s := camoforge.Settings{
		MaxColors:       d.Settings.MaxColors,
		MaxWidth:        d.Settings.MaxWidth,
		Brightness:      d.Settings.Brightness,
		Contrast:        d.Settings.Contrast,
		DenoiseStrength: d.Settings.DenoiseStrength,
		MinBlobSize:     d.Settings.MinBlobSize,
		KeepOrphans:     d.Settings.KeepOrphans,
		Seed:            d.Settings.Seed,
		Epsilon:         d.Settings.Epsilon,
		PlateWidthMM:    d.Settings.PlateWidthMM,
		ThicknessMM:     d.Settings.ThicknessMM,
		BorderMM:        d.Settings.BorderMM,
		BridgeWidthMM:   d.Settings.BridgeWidthMM,
		Invert:          d.Settings.Invert,
		Template:        d.Settings.Template,
	}
	switch d.Settings.Method {
	case "", "kmeans":
		s.Method = palette.MethodKMeans
	case "dominant", "dominantcolor":
		s.Method = palette.MethodDominant
	default:
		return s, fmt.Errorf("project: unknown method %q", d.Settings.Method)
	}
	switch d.Settings.Metric {
	case "", "rgb":
		s.Metric = palette.MetricRGB
	case "lab":
		s.Metric = palette.MetricLab
	default:
		return s, fmt.Errorf("project: unknown metric %q", d.Settings.Metric)
	}
	switch d.Settings.Mode {
	case "", "stencil":
		s.Mode = camoforge.ModeStencil
	case "solid":
		s.Mode = camoforge.ModeSolid
	default:
		return s, fmt.Errorf("project: unknown mode %q", d.Settings.Mode)
	}
	return s, nil
}

func fromSettings(s camoforge.Settings) SettingsDoc {
	return SettingsDoc{
		MaxColors:       s.MaxColors,
		Method:          s.Method.String(),
		Metric:          s.Metric.String(),
		MaxWidth:        s.MaxWidth,
		Brightness:      s.Brightness,
		Contrast:        s.Contrast,
		DenoiseStrength: s.DenoiseStrength,
		MinBlobSize:     s.MinBlobSize,
		KeepOrphans:     s.KeepOrphans,
		Seed:            s.Seed,
		Epsilon:         s.Epsilon,
		Mode:            s.Mode.String(),
		PlateWidthMM:    s.PlateWidthMM,
		ThicknessMM:     s.ThicknessMM,
		BorderMM:        s.BorderMM,
		BridgeWidthMM:   s.BridgeWidthMM,
		Invert:          s.Invert,
		Template:        s.Template,
	}
}

func parseHex(s string) (palette.Color, error) {
	if len(s) == 7 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return palette.Color{}, fmt.Errorf("bad color %q", s)
	}
	var c palette.Color
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return palette.Color{}, fmt.Errorf("bad color %q", s)
	}
	return c, nil
}
