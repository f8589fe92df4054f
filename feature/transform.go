package feature

import (
	"github.com/go-spatial/geom"
)

// Transform maps a native (web-mercator) coordinate into tile pixel space.
type Transform func(x, y float64) (px, py float64)

// NewTransform builds the transform for a tile whose native bounding box is
// ext. The pixel span covers tileSize plus the buffer on both sides, and the
// buffer offset shifts coordinates so the unbuffered tile spans
// [0, tileSize]. The extent width is the divisor for both axes; tiles are
// square so the height never enters into it. Y is flipped because pixel
// space has its origin at the top left while native space grows northward.
func NewTransform(ext *geom.Extent, tileSize, buffer uint) Transform {
	span := ext.XSpan()
	pixels := float64(tileSize) + 2*float64(buffer)
	off := float64(buffer)

	return func(x, y float64) (float64, float64) {
		px := (x-ext.MinX())/span*pixels - off
		py := (1-(y-ext.MinY())/span)*pixels - off
		return px, py
	}
}
