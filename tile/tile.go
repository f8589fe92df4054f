// Package tile models z/x/y addressed web-mercator map tiles and the
// extents derived from them.
package tile

import (
	"math"

	"github.com/go-spatial/geom"
)

const (
	// WebMercatorMax is the size of the web-mercator plane from the origin
	// to an edge, in meters.
	WebMercatorMax = 20037508.342789244

	// MaxZoom is the deepest zoom level tiles are addressed at.
	MaxZoom = 22

	// DefaultTileSize is the pixel size of a rendered tile.
	DefaultTileSize = 256

	// DefaultBuffer is the pixel buffer fetched around a tile so symbols
	// that straddle tile edges have their geometry available.
	DefaultBuffer = 64
)

// WebMercatorSRID is the spatial reference tiles are addressed in.
const WebMercatorSRID = 3857

// Tile addresses a single tile in the standard power-of-two pyramid.
type Tile struct {
	Z uint
	X uint
	Y uint
}

// New returns the tile at the given pyramid address.
func New(z, x, y uint) *Tile {
	return &Tile{Z: z, X: x, Y: y}
}

// ZXY returns the tile's pyramid address.
func (t *Tile) ZXY() (uint, uint, uint) { return t.Z, t.X, t.Y }

// SpanNative returns the side length of the tile in web-mercator meters.
func (t *Tile) SpanNative() float64 {
	return (2 * WebMercatorMax) / float64(uint64(1)<<t.Z)
}

// Extent3857 returns the tile's bounding box in web-mercator meters. Tile
// row 0 is at the top of the plane, so Y grows southward.
func (t *Tile) Extent3857() *geom.Extent {
	span := t.SpanNative()
	xmin := -WebMercatorMax + float64(t.X)*span
	ymax := WebMercatorMax - float64(t.Y)*span
	return geom.NewExtent(
		[2]float64{xmin, ymax - span},
		[2]float64{xmin + span, ymax},
	)
}

// PixelSize returns the native size of one tile pixel.
func (t *Tile) PixelSize(tileSize uint) float64 {
	return t.SpanNative() / float64(tileSize)
}

// BufferedExtent3857 returns the tile extent expanded on every side by
// buffer pixels, in native units.
func (t *Tile) BufferedExtent3857(buffer, tileSize uint) *geom.Extent {
	ext := t.Extent3857()
	pad := float64(buffer) * t.PixelSize(tileSize)
	return geom.NewExtent(
		[2]float64{ext.MinX() - pad, ext.MinY() - pad},
		[2]float64{ext.MaxX() + pad, ext.MaxY() + pad},
	)
}

// MetersPerPixel returns the equatorial ground resolution of one pixel at
// the given zoom level, for 256px tiles.
func MetersPerPixel(zoom uint) float64 {
	return 156543.03392804097 / float64(uint64(1)<<zoom)
}

// FromLonLat returns the tile containing the given geographic coordinate.
// Latitude is clamped to the web-mercator limits.
func FromLonLat(zoom uint, lon, lat float64) *Tile {
	const maxLat = 85.0511287798066

	if lat > maxLat {
		lat = maxLat
	}
	if lat < -maxLat {
		lat = -maxLat
	}
	n := float64(uint64(1) << zoom)
	x := n * ((lon + 180.0) / 360.0)
	latRad := lat * math.Pi / 180
	y := n * (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0

	tx := uint(math.Min(math.Max(x, 0), n-1))
	ty := uint(math.Min(math.Max(y, 0), n-1))
	return New(zoom, tx, ty)
}

// LonLatToMercator projects a geographic coordinate onto the web-mercator
// plane.
func LonLatToMercator(lon, lat float64) (x, y float64) {
	const radius = 6378137.0
	x = lon * math.Pi / 180 * radius
	y = math.Log(math.Tan(math.Pi/4+lat*math.Pi/360)) * radius
	return x, y
}
