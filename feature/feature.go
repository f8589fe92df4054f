// Package feature holds the pixel-space feature model handed to the tile
// renderer, plus the normalization and coordinate transform steps that
// produce it from decoded server features.
package feature

import (
	"math"

	"github.com/go-spatial/geom"
)

// LayerName is the data layer every tile feature set is published under.
// Styles built for a single remote layer reference this name.
const LayerName = "features"

// GeomType is the renderer-facing geometry category. Multi* and collection
// geometries never survive normalization; they are expanded into multiple
// features of these three types.
type GeomType uint8

const (
	Point GeomType = iota
	Line
	Polygon
)

func (g GeomType) String() string {
	switch g {
	case Point:
		return "Point"
	case Line:
		return "Line"
	case Polygon:
		return "Polygon"
	}
	return "Unknown"
}

// Pt is a tile pixel-space coordinate.
type Pt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BBox is an axis-aligned bound in tile pixel space.
type BBox struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// NewBBox returns the empty bound; any Extend tightens it.
func NewBBox() BBox {
	return BBox{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
}

// Extend widens the bound to include the point.
func (b *BBox) Extend(x, y float64) {
	if x < b.MinX {
		b.MinX = x
	}
	if y < b.MinY {
		b.MinY = y
	}
	if x > b.MaxX {
		b.MaxX = x
	}
	if y > b.MaxY {
		b.MaxY = y
	}
}

// Feature is one renderable feature in tile pixel space. Geom holds one or
// more rings of points: a single one-point ring for Point features, one or
// more paths for Line features and exterior-plus-hole rings for Polygon
// features. Features are immutable once built.
type Feature struct {
	Props       map[string]interface{} `json:"props"`
	BBox        BBox                   `json:"bbox"`
	Type        GeomType               `json:"geomType"`
	Geom        [][]Pt                 `json:"geom"`
	NumVertices int                    `json:"numVertices"`
}

// Raw is a decoded server feature before normalization.
type Raw struct {
	Geometry   geom.Geometry
	Properties map[string]interface{}
}
