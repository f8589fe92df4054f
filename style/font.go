package style

import "math"

// Font is a resolved label font: the requested faces after substitution,
// most-preferred first, and the pixel size.
type Font struct {
	Faces []string
	Size  int
}

const defaultFontSize = 16

// defaultFontSubstitutions maps common style-sheet face names onto
// generic families a renderer without those exact fonts can satisfy.
var defaultFontSubstitutions = map[string]string{
	"Open Sans Regular":            "sans-serif",
	"Open Sans Semibold":           "sans-serif",
	"Open Sans Bold":               "sans-serif",
	"Open Sans Italic":             "sans-serif",
	"Arial Unicode MS Regular":     "sans-serif",
	"Arial Unicode MS Bold":        "sans-serif",
	"Noto Sans Regular":            "sans-serif",
	"Noto Sans Bold":               "sans-serif",
	"Roboto Regular":               "sans-serif",
	"Roboto Medium":                "sans-serif",
	"Roboto Bold":                  "sans-serif",
	"Roboto Condensed Italic":      "sans-serif",
	"Times New Roman Regular":      "serif",
	"Georgia Regular":              "serif",
	"Courier New Regular":          "monospace",
	"DIN Offc Pro Regular":         "sans-serif",
	"DIN Offc Pro Medium":          "sans-serif",
	"DIN Offc Pro Bold":            "sans-serif",
	"DIN Offc Pro Italic":          "sans-serif",
	"PT Sans Narrow Bold":          "sans-serif",
	"Metropolis Regular":           "sans-serif",
	"Metropolis Semi Bold":         "sans-serif",
	"Klokantech Noto Sans Bold":    "sans-serif",
	"Klokantech Noto Sans Regular": "sans-serif",
}

// resolveFaces maps the declared font stack through the substitution
// table. Faces with no substitution are dropped; an empty result falls
// back to sans-serif so a label never loses its font entirely.
func resolveFaces(declared []string, subs map[string]string) []string {
	if subs == nil {
		subs = defaultFontSubstitutions
	}
	var faces []string
	for _, name := range declared {
		if face, ok := subs[name]; ok {
			faces = append(faces, face)
		}
	}
	if len(faces) == 0 {
		faces = []string{"sans-serif"}
	}
	return faces
}

// resolveFont builds a Font from a symbol layer's layout properties.
// Text size is resolved at the layer's minimum zoom and rounded to whole
// pixels, matching how renderers rasterize glyph atlases.
func resolveFont(layout map[string]interface{}, minZoom float64, subs map[string]string) (Font, error) {
	var declared []string
	if raw, ok := layout["text-font"].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				declared = append(declared, s)
			}
		}
	}

	sizeFn, err := numberThunk(layout["text-size"], defaultFontSize)
	if err != nil {
		return Font{}, err
	}

	return Font{
		Faces: resolveFaces(declared, subs),
		Size:  int(math.Round(sizeFn(minZoom, nil))),
	}, nil
}
