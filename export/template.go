package export

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/camoforge/camoforge/palette"
)

// DefaultTemplate is the layer filename pattern used when a project
// does not override it.
const DefaultTemplate = "%INPUTFILENAME%_layer_%INDEX%_%COLOR%"

// FileName expands a layer filename template. Tokens:
//
//	%INPUTFILENAME%  input file base name without extension
//	%INDEX%          layer index, or "orphan" for ids below 1
//	%COLOR%          layer color as rrggbb hex
//
// The result carries no extension; callers append one per format.
func FileName(tmpl, input string, index int, c palette.Color) string {
	base := filepath.Base(input)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	idx := strconv.Itoa(index)
	if index < 1 {
		idx = "orphan"
	}
	r := strings.NewReplacer(
		"%INPUTFILENAME%", base,
		"%INDEX%", idx,
		"%COLOR%", strings.TrimPrefix(c.Hex(), "#"),
	)
	return r.Replace(tmpl)
}
