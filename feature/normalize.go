package feature

import (
	"fmt"

	"github.com/go-spatial/geom"

	"github.com/atlasdatatech/arctile/internal/log"
)

// GeometryPolicy controls what happens when normalization meets a geometry
// the renderer has no native concept for (MultiPolygon, MultiPoint,
// collections).
type GeometryPolicy uint8

const (
	// PolicyExpand splits the geometry into one feature per constituent
	// part, each sharing the parent's properties. This is the canonical
	// behavior.
	PolicyExpand GeometryPolicy = iota
	// PolicyDrop silently discards such geometries.
	PolicyDrop
	// PolicyError fails the whole normalization. Matches the strict
	// behavior of older feature sources.
	PolicyError
)

func (p GeometryPolicy) String() string {
	switch p {
	case PolicyExpand:
		return "expand"
	case PolicyDrop:
		return "drop"
	case PolicyError:
		return "error"
	}
	return "unknown"
}

// ParseGeometryPolicy maps a config string to a policy.
func ParseGeometryPolicy(s string) (GeometryPolicy, error) {
	switch s {
	case "", "expand":
		return PolicyExpand, nil
	case "drop":
		return PolicyDrop, nil
	case "error":
		return PolicyError, nil
	}
	return PolicyExpand, fmt.Errorf("unknown geometry policy %q", s)
}

// ErrUnsupportedGeometry is returned under PolicyError for geometries that
// would otherwise be expanded or dropped.
type ErrUnsupportedGeometry struct {
	Geometry geom.Geometry
}

func (e ErrUnsupportedGeometry) Error() string {
	return fmt.Sprintf("unsupported geometry type %T", e.Geometry)
}

// Normalize converts one decoded feature into zero or more pixel-space
// features. Point, LineString, MultiLineString and Polygon map to exactly
// one feature; MultiPoint, MultiPolygon and Collection are handled per the
// policy. The bbox of each produced feature is the tight bound of its
// transformed points.
func Normalize(raw Raw, tr Transform, policy GeometryPolicy) ([]*Feature, error) {
	switch g := raw.Geometry.(type) {
	case geom.Point:
		return []*Feature{build(raw.Properties, Point, [][][2]float64{{g}}, tr)}, nil

	case geom.LineString:
		return []*Feature{build(raw.Properties, Line, [][][2]float64{g}, tr)}, nil

	case geom.MultiLineString:
		// all paths stay in one feature; the renderer draws a Line
		// feature's rings as disjoint paths
		return []*Feature{build(raw.Properties, Line, g, tr)}, nil

	case geom.Polygon:
		return []*Feature{build(raw.Properties, Polygon, g, tr)}, nil

	case geom.MultiPoint:
		return expand(raw, tr, policy, func() []geom.Geometry {
			parts := make([]geom.Geometry, len(g))
			for i, p := range g.Points() {
				parts[i] = geom.Point(p)
			}
			return parts
		})

	case geom.MultiPolygon:
		// one feature per constituent polygon; the renderer has no
		// MultiPolygon concept
		return expand(raw, tr, policy, func() []geom.Geometry {
			parts := make([]geom.Geometry, len(g))
			for i, p := range g.Polygons() {
				parts[i] = geom.Polygon(p)
			}
			return parts
		})

	case geom.Collection:
		return expand(raw, tr, policy, func() []geom.Geometry {
			return g.Geometries()
		})

	default:
		if policy == PolicyError {
			return nil, ErrUnsupportedGeometry{Geometry: raw.Geometry}
		}
		log.Debugf("dropping feature with unrecognized geometry %T", raw.Geometry)
		return nil, nil
	}
}

// expand re-invokes Normalize once per constituent geometry, each synthetic
// feature inheriting the parent's properties.
func expand(raw Raw, tr Transform, policy GeometryPolicy, parts func() []geom.Geometry) ([]*Feature, error) {
	switch policy {
	case PolicyDrop:
		return nil, nil
	case PolicyError:
		return nil, ErrUnsupportedGeometry{Geometry: raw.Geometry}
	}

	var out []*Feature
	for _, part := range parts() {
		fs, err := Normalize(Raw{Geometry: part, Properties: raw.Properties}, tr, policy)
		if err != nil {
			return nil, err
		}
		out = append(out, fs...)
	}
	return out, nil
}

func build(props map[string]interface{}, gt GeomType, rings [][][2]float64, tr Transform) *Feature {
	f := &Feature{
		Props: props,
		BBox:  NewBBox(),
		Type:  gt,
		Geom:  make([][]Pt, 0, len(rings)),
	}

	for _, ring := range rings {
		pts := make([]Pt, 0, len(ring))
		for _, p := range ring {
			x, y := tr(p[0], p[1])
			f.BBox.Extend(x, y)
			pts = append(pts, Pt{X: x, Y: y})
			f.NumVertices++
		}
		f.Geom = append(f.Geom, pts)
	}
	return f
}
