package feature_test

import (
	"math"
	"testing"

	"github.com/go-spatial/geom"

	"github.com/atlasdatatech/arctile/feature"
)

func TestNewTransform(t *testing.T) {
	ext := geom.NewExtent(
		[2]float64{0, 0},
		[2]float64{1024, 1024},
	)

	testcases := []struct {
		name     string
		tileSize uint
		buffer   uint
		x, y     float64
		px, py   float64
	}{
		{
			name:     "no buffer bottom left",
			tileSize: 256,
			x:        0, y: 0,
			px: 0, py: 256,
		},
		{
			name:     "no buffer top right",
			tileSize: 256,
			x:        1024, y: 1024,
			px: 256, py: 0,
		},
		{
			name:     "no buffer center",
			tileSize: 256,
			x:        512, y: 512,
			px: 128, py: 128,
		},
		{
			name:     "buffered extent corner lands at negative buffer",
			tileSize: 256,
			buffer:   64,
			x:        0, y: 1024,
			px: -64, py: -64,
		},
		{
			name:     "buffered extent far corner",
			tileSize: 256,
			buffer:   64,
			x:        1024, y: 0,
			px: 320, py: 320,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			tr := feature.NewTransform(ext, tc.tileSize, tc.buffer)

			px, py := tr(tc.x, tc.y)
			if math.Abs(px-tc.px) > 1e-9 || math.Abs(py-tc.py) > 1e-9 {
				t.Errorf("(%v, %v): got (%v, %v) want (%v, %v)", tc.x, tc.y, px, py, tc.px, tc.py)
			}
		})
	}
}
