package style

// Category is the feature category a symbolizer paints.
type Category uint8

const (
	CategoryPolygon Category = iota
	CategoryLine
	CategoryCircle
	CategoryText
	CategoryIcon
	CategoryBackground
	CategoryGroup
)

func (c Category) String() string {
	switch c {
	case CategoryPolygon:
		return "polygon"
	case CategoryLine:
		return "line"
	case CategoryCircle:
		return "circle"
	case CategoryText:
		return "text"
	case CategoryIcon:
		return "icon"
	case CategoryBackground:
		return "background"
	case CategoryGroup:
		return "group"
	}
	return "unknown"
}

// Symbolizer is a capability object the renderer drives to paint one
// category of feature. The compiler only assembles symbolizers and their
// attribute thunks; drawing belongs to the renderer.
type Symbolizer interface {
	Category() Category
}

// PolygonSymbolizer fills polygon interiors.
type PolygonSymbolizer struct {
	Fill    ColorFunc
	Outline ColorFunc
	Opacity NumberFunc
}

func (*PolygonSymbolizer) Category() Category { return CategoryPolygon }

// LineSymbolizer strokes line features. Width already includes any gap
// width the style declared.
type LineSymbolizer struct {
	Color   ColorFunc
	Width   NumberFunc
	Opacity NumberFunc
	Dash    DashFunc
}

func (*LineSymbolizer) Category() Category { return CategoryLine }

// CircleSymbolizer draws point features as circles.
type CircleSymbolizer struct {
	Fill        ColorFunc
	Radius      NumberFunc
	Stroke      ColorFunc
	StrokeWidth NumberFunc
	Opacity     NumberFunc
}

func (*CircleSymbolizer) Category() Category { return CategoryCircle }

// TextSymbolizer places labels.
type TextSymbolizer struct {
	Label StringFunc
	Font  Font
	Fill  ColorFunc
}

func (*TextSymbolizer) Category() Category { return CategoryText }

// IconSymbolizer places sprite icons. Sheets resolve icon names once
// their load tasks complete.
type IconSymbolizer struct {
	Name   StringFunc
	Sheets []*SheetTask
}

func (*IconSymbolizer) Category() Category { return CategoryIcon }

// BackgroundSymbolizer paints the tile background before any feature.
type BackgroundSymbolizer struct {
	Fill    ColorFunc
	Opacity NumberFunc
}

func (*BackgroundSymbolizer) Category() Category { return CategoryBackground }

// GroupSymbolizer runs several symbolizers for one rule in order.
type GroupSymbolizer struct {
	List []Symbolizer
}

func (*GroupSymbolizer) Category() Category { return CategoryGroup }
