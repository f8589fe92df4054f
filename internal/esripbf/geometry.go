package esripbf

import (
	"github.com/go-spatial/geom"
)

// signedArea returns the shoelace area of a ring. Esri rings are wound
// clockwise for exteriors, which in a y-down quantized frame comes out
// positive.
func signedArea(ring [][2]float64) float64 {
	var sum float64
	n := len(ring)
	if n < 3 {
		return 0
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
	}
	return sum / 2
}

// assemblePolygons groups an ordered ring list into Polygon or MultiPolygon
// geometry. A ring wound like the first ring starts a new polygon; opposite
// winding attaches the ring as a hole of the polygon most recently started.
func assemblePolygons(rings [][][2]float64) geom.Geometry {
	if len(rings) == 0 {
		return nil
	}

	outerSign := signedArea(rings[0]) >= 0

	var polys [][][][2]float64
	for _, ring := range rings {
		if len(polys) == 0 || (signedArea(ring) >= 0) == outerSign {
			polys = append(polys, [][][2]float64{ring})
			continue
		}
		polys[len(polys)-1] = append(polys[len(polys)-1], ring)
	}

	if len(polys) == 1 {
		return geom.Polygon(polys[0])
	}
	out := make(geom.MultiPolygon, len(polys))
	for i := range polys {
		out[i] = polys[i]
	}
	return out
}
