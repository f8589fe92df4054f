package style

import (
	"github.com/atlasdatatech/arctile/feature"
	"github.com/atlasdatatech/arctile/tile"
)

// noRow is the row id used when a feature carries no usable row-id
// property. Style lookups treat it as "no matching row", not an error.
const noRow int64 = -1

// pointHeightScale converts a row's height attribute to a circle radius.
const pointHeightScale = 3.0 / 8.0

// RowColorFunc maps a table row id to a color.
type RowColorFunc func(rowID int64) string

// RowNumberFunc maps a table row id to a numeric style value.
type RowNumberFunc func(rowID int64) float64

// TableOutline styles the stroke of table-driven features.
type TableOutline struct {
	Color RowColorFunc
	Width RowNumberFunc
	Dash  func(rowID int64) []float64
}

// TablePoint styles table-driven point features. Height is the row's
// height attribute; the rendered circle radius is height scaled by 3/8.
type TablePoint struct {
	Height RowNumberFunc
}

// TableStyle compiles tabular styling parameters into paint rules. Each
// feature's row is identified by the numeric property named by
// RowIDProperty. ValidRows, when set, is consulted per evaluation and
// restricts rendering to the rows valid at the current time instant.
type TableStyle struct {
	RowIDProperty string

	Color   RowColorFunc
	Outline TableOutline
	Point   *TablePoint

	ValidRows func() map[int64]struct{}
}

// Compile produces the table style's paint rules: a polygon rule, a line
// rule, and, when point styling is configured, a circle rule. All rules
// bind to the fixed tile layer name and filter by geometry type first,
// then by the valid-row predicate.
func (ts *TableStyle) Compile() []*Rule {
	rowOf := ts.rowFunc()

	fill := ts.Color
	if fill == nil {
		fill = func(int64) string { return defaultColor }
	}
	stroke := ts.Outline.Color
	if stroke == nil {
		stroke = func(int64) string { return defaultColor }
	}
	width := ts.Outline.Width
	if width == nil {
		width = func(int64) float64 { return defaultLineWidth }
	}

	rules := []*Rule{
		{
			ID:        "table-polygon",
			DataLayer: feature.LayerName,
			MaxZoom:   float64(tile.MaxZoom),
			Filter:    ts.rowFilter(feature.Polygon, rowOf),
			Symbolizer: &PolygonSymbolizer{
				Fill:    func(_ float64, f *feature.Feature) string { return fill(rowOf(f)) },
				Outline: func(_ float64, f *feature.Feature) string { return stroke(rowOf(f)) },
				Opacity: func(float64, *feature.Feature) float64 { return 1 },
			},
		},
		{
			ID:        "table-line",
			DataLayer: feature.LayerName,
			MaxZoom:   float64(tile.MaxZoom),
			Filter:    ts.rowFilter(feature.Line, rowOf),
			Symbolizer: &LineSymbolizer{
				Color:   func(_ float64, f *feature.Feature) string { return stroke(rowOf(f)) },
				Width:   func(_ float64, f *feature.Feature) float64 { return width(rowOf(f)) },
				Opacity: func(float64, *feature.Feature) float64 { return 1 },
				Dash:    ts.dashFunc(rowOf),
			},
		},
	}

	if ts.Point != nil {
		height := ts.Point.Height
		if height == nil {
			height = func(int64) float64 { return 0 }
		}
		rules = append(rules, &Rule{
			ID:        "table-circle",
			DataLayer: feature.LayerName,
			MaxZoom:   float64(tile.MaxZoom),
			Filter:    ts.rowFilter(feature.Point, rowOf),
			Symbolizer: &CircleSymbolizer{
				Fill:        func(_ float64, f *feature.Feature) string { return fill(rowOf(f)) },
				Radius:      func(_ float64, f *feature.Feature) float64 { return height(rowOf(f)) * pointHeightScale },
				Stroke:      func(_ float64, f *feature.Feature) string { return stroke(rowOf(f)) },
				StrokeWidth: func(_ float64, f *feature.Feature) float64 { return width(rowOf(f)) },
				Opacity:     func(float64, *feature.Feature) float64 { return 1 },
			},
		})
	}

	return rules
}

func (ts *TableStyle) rowFunc() func(f *feature.Feature) int64 {
	key := ts.RowIDProperty
	return func(f *feature.Feature) int64 {
		if f == nil || key == "" {
			return noRow
		}
		if n, ok := toFloat(f.Props[key]); ok {
			return int64(n)
		}
		return noRow
	}
}

// rowFilter gates a rule on geometry type, then on row validity when time
// filtering is active.
func (ts *TableStyle) rowFilter(gt feature.GeomType, rowOf func(*feature.Feature) int64) Filter {
	return func(_ float64, f *feature.Feature) bool {
		if f == nil || f.Type != gt {
			return false
		}
		if ts.ValidRows == nil {
			return true
		}
		valid := ts.ValidRows()
		if valid == nil {
			return true
		}
		_, ok := valid[rowOf(f)]
		return ok
	}
}

func (ts *TableStyle) dashFunc(rowOf func(*feature.Feature) int64) DashFunc {
	if ts.Outline.Dash == nil {
		return nil
	}
	dash := ts.Outline.Dash
	return func(_ float64, f *feature.Feature) []float64 { return dash(rowOf(f)) }
}
