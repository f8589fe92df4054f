package style

import (
	"net/http"

	"github.com/atlasdatatech/arctile/feature"
	"github.com/atlasdatatech/arctile/internal/log"
	"github.com/atlasdatatech/arctile/tile"
)

// Rule is one compiled paint or label rule. The renderer walks each
// feature through the rules in order and applies the first matching
// symbolizer per category.
type Rule struct {
	ID        string
	DataLayer string
	MinZoom   float64
	MaxZoom   float64

	Filter     Filter
	Symbolizer Symbolizer
}

// Matches reports whether the rule applies to the feature at the zoom.
func (r *Rule) Matches(zoom float64, f *feature.Feature) bool {
	if zoom < r.MinZoom || zoom > r.MaxZoom {
		return false
	}
	if r.Filter == nil {
		return true
	}
	return r.Filter(zoom, f)
}

// Compiled is the output of compiling one style document: paint rules in
// declaration order, label rules in reverse declaration order, an optional
// background rule, and the sprite-sheet loads the caller should await
// before first paint.
type Compiled struct {
	PaintRules []*Rule
	LabelRules []*Rule
	Background *Rule
	Tasks      []*SheetTask
}

// Options configures a compile. Sprites should be shared by reference
// across compiles so sheet fetches are deduplicated; a nil cache gets a
// private one. Sheets are never evicted, they live as long as the cache.
type Options struct {
	FontSubstitutions map[string]string
	Sprites           *SpriteCache
	HTTPClient        *http.Client
}

// Compile turns a style document into renderable rules. Any error in any
// layer fails the whole document; an unrecognized layer type is logged
// and skipped.
func Compile(doc *Document, opts Options) (*Compiled, error) {
	sheets, err := doc.SpriteSheets()
	if err != nil {
		return nil, err
	}
	cache := opts.Sprites
	if cache == nil {
		cache = NewSpriteCache()
	}
	var tasks []*SheetTask
	for _, sheet := range sheets {
		tasks = append(tasks, cache.Task(sheet, opts.HTTPClient))
	}

	// Pass one: index layers by ID so refs resolve against the full
	// document and forward references can be rejected outright.
	index := make(map[string]int, len(doc.Layers))
	for i, l := range doc.Layers {
		index[l.ID] = i
	}

	out := &Compiled{Tasks: tasks}
	for i, l := range doc.Layers {
		resolved, err := resolveRef(l, i, index, doc.Layers)
		if err != nil {
			return nil, err
		}

		rule, err := compileLayer(resolved, tasks, opts.FontSubstitutions)
		if err != nil {
			return nil, ErrLayer{LayerID: l.ID, Err: err}
		}
		if rule == nil {
			continue
		}

		switch rule.Symbolizer.Category() {
		case CategoryBackground:
			out.Background = rule
		case CategoryText, CategoryIcon, CategoryGroup:
			out.LabelRules = append(out.LabelRules, rule)
		default:
			out.PaintRules = append(out.PaintRules, rule)
		}
	}

	// Label z-ordering puts the last declared symbol layer on top, which
	// means it is evaluated first.
	for i, j := 0, len(out.LabelRules)-1; i < j; i, j = i+1, j-1 {
		out.LabelRules[i], out.LabelRules[j] = out.LabelRules[j], out.LabelRules[i]
	}

	return out, nil
}

// resolveRef applies ref inheritance: type, filter, source and
// source-layer come from the referenced layer. Refs only point backward.
func resolveRef(l *Layer, pos int, index map[string]int, layers []*Layer) (*Layer, error) {
	if l.Ref == "" {
		return l, nil
	}
	refPos, ok := index[l.Ref]
	if !ok {
		return nil, ErrUnknownRef{LayerID: l.ID, Ref: l.Ref}
	}
	if refPos >= pos {
		return nil, ErrForwardRef{LayerID: l.ID, Ref: l.Ref}
	}
	parent := layers[refPos]

	merged := *l
	merged.Type = parent.Type
	merged.Filter = parent.Filter
	merged.Source = parent.Source
	merged.SourceLayer = parent.SourceLayer
	return &merged, nil
}

func compileLayer(l *Layer, tasks []*SheetTask, fontSubs map[string]string) (*Rule, error) {
	minZoom := 0.0
	if l.MinZoom != nil {
		minZoom = *l.MinZoom
	}
	maxZoom := float64(tile.MaxZoom)
	if l.MaxZoom != nil {
		maxZoom = *l.MaxZoom
	}

	filter, err := filterThunk(l.Filter)
	if err != nil {
		return nil, err
	}

	var sym Symbolizer
	switch l.Type {
	case "fill":
		sym, err = compileFill(l.Paint, "fill")
	case "fill-extrusion":
		sym, err = compileFill(l.Paint, "fill-extrusion")
	case "line":
		sym, err = compileLine(l.Paint)
	case "circle":
		sym, err = compileCircle(l.Paint)
	case "symbol":
		sym, err = compileSymbol(l, minZoom, tasks, fontSubs)
	case "background":
		sym, err = compileBackground(l.Paint)
	default:
		log.Warnf("skipping style layer %v with unsupported type %q", l.ID, l.Type)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sym == nil {
		return nil, nil
	}

	return &Rule{
		ID:         l.ID,
		DataLayer:  l.SourceLayer,
		MinZoom:    minZoom,
		MaxZoom:    maxZoom,
		Filter:     filter,
		Symbolizer: sym,
	}, nil
}

const (
	defaultColor        = "rgba(0,0,0,1)"
	defaultLineWidth    = 1
	defaultCircleRadius = 5
)

func compileFill(paint map[string]interface{}, prefix string) (Symbolizer, error) {
	fill, err := colorThunk(paint[prefix+"-color"], defaultColor)
	if err != nil {
		return nil, err
	}
	outline, err := colorThunk(paint[prefix+"-outline-color"], "")
	if err != nil {
		return nil, err
	}
	opacity, err := numberThunk(paint[prefix+"-opacity"], 1)
	if err != nil {
		return nil, err
	}
	return &PolygonSymbolizer{Fill: fill, Outline: outline, Opacity: opacity}, nil
}

func compileLine(paint map[string]interface{}) (Symbolizer, error) {
	color, err := colorThunk(paint["line-color"], defaultColor)
	if err != nil {
		return nil, err
	}
	width, err := numberThunk(paint["line-width"], defaultLineWidth)
	if err != nil {
		return nil, err
	}
	gap, err := numberThunk(paint["line-gap-width"], 0)
	if err != nil {
		return nil, err
	}
	opacity, err := numberThunk(paint["line-opacity"], 1)
	if err != nil {
		return nil, err
	}
	dash, err := dashThunk(paint["line-dasharray"])
	if err != nil {
		return nil, err
	}
	return &LineSymbolizer{
		Color:   color,
		Width:   CombineNumbers(sum, width, gap),
		Opacity: opacity,
		Dash:    dash,
	}, nil
}

func compileCircle(paint map[string]interface{}) (Symbolizer, error) {
	fill, err := colorThunk(paint["circle-color"], defaultColor)
	if err != nil {
		return nil, err
	}
	radius, err := numberThunk(paint["circle-radius"], defaultCircleRadius)
	if err != nil {
		return nil, err
	}
	stroke, err := colorThunk(paint["circle-stroke-color"], defaultColor)
	if err != nil {
		return nil, err
	}
	strokeWidth, err := numberThunk(paint["circle-stroke-width"], 0)
	if err != nil {
		return nil, err
	}
	opacity, err := numberThunk(paint["circle-opacity"], 1)
	if err != nil {
		return nil, err
	}
	return &CircleSymbolizer{
		Fill:        fill,
		Radius:      radius,
		Stroke:      stroke,
		StrokeWidth: strokeWidth,
		Opacity:     opacity,
	}, nil
}

func compileSymbol(l *Layer, minZoom float64, tasks []*SheetTask, fontSubs map[string]string) (Symbolizer, error) {
	var syms []Symbolizer

	if field, ok := l.Layout["text-field"]; ok {
		label, err := labelThunk(field)
		if err != nil {
			return nil, err
		}
		font, err := resolveFont(l.Layout, minZoom, fontSubs)
		if err != nil {
			return nil, err
		}
		fill, err := colorThunk(l.Paint["text-color"], defaultColor)
		if err != nil {
			return nil, err
		}
		syms = append(syms, &TextSymbolizer{Label: label, Font: font, Fill: fill})
	}

	if icon, ok := l.Layout["icon-image"]; ok {
		name, err := stringThunk(icon, "")
		if err != nil {
			return nil, err
		}
		syms = append(syms, &IconSymbolizer{Name: name, Sheets: tasks})
	}

	switch len(syms) {
	case 0:
		return nil, nil
	case 1:
		return syms[0], nil
	}
	return &GroupSymbolizer{List: syms}, nil
}

func compileBackground(paint map[string]interface{}) (Symbolizer, error) {
	fill, err := colorThunk(paint["background-color"], defaultColor)
	if err != nil {
		return nil, err
	}
	opacity, err := numberThunk(paint["background-opacity"], 1)
	if err != nil {
		return nil, err
	}
	return &BackgroundSymbolizer{Fill: fill, Opacity: opacity}, nil
}
