// The debug provider returns features that are helpful for debugging a tile
// including a box for the tile edges and a point in the middle of the tile
// with z,x,y values encoded
package debug

import (
	"context"
	"fmt"

	"github.com/go-spatial/geom"

	"github.com/atlasdatatech/arctile/dict"
	"github.com/atlasdatatech/arctile/feature"
	"github.com/atlasdatatech/arctile/provider"
	"github.com/atlasdatatech/arctile/tile"
)

const Name = "debug"

const (
	LayerDebugTileOutline = "debug-tile-outline"
	LayerDebugTileCenter  = "debug-tile-center"
)

func init() {
	provider.Register(Name, NewTileProvider, nil)
}

// NewTileProvider sets up a debug provider. there are not currently any
// config params supported
func NewTileProvider(config dict.Dicter) (provider.Tiler, error) {
	return &Provider{}, nil
}

// Provider provides the debug provider
type Provider struct{}

// TileFeatures emits the tile outline and center directly in pixel space.
func (p *Provider) TileFeatures(ctx context.Context, t *tile.Tile) (map[string][]*feature.Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := t.Extent3857()
	tr := feature.NewTransform(ext, tile.DefaultTileSize, 0)

	outline, err := feature.Normalize(feature.Raw{
		Geometry: geom.LineString{
			{ext.MinX(), ext.MinY()},
			{ext.MaxX(), ext.MinY()},
			{ext.MaxX(), ext.MaxY()},
			{ext.MinX(), ext.MaxY()},
			{ext.MinX(), ext.MinY()},
		},
		Properties: map[string]interface{}{
			"type": "debug_buffer_outline",
		},
	}, tr, feature.PolicyExpand)
	if err != nil {
		return nil, err
	}

	center, err := feature.Normalize(feature.Raw{
		Geometry: geom.Point{
			ext.MinX() + ext.XSpan()/2,
			ext.MinY() + ext.YSpan()/2,
		},
		Properties: map[string]interface{}{
			"type": "debug_text",
			"zxy":  fmt.Sprintf("Z:%v, X:%v, Y:%v", t.Z, t.X, t.Y),
		},
	}, tr, feature.PolicyExpand)
	if err != nil {
		return nil, err
	}

	return map[string][]*feature.Feature{
		LayerDebugTileOutline: outline,
		LayerDebugTileCenter:  center,
	}, nil
}

// Layers returns information about the various layers the provider supports
func (p *Provider) Layers() ([]provider.LayerInfo, error) {
	layers := []Layer{
		{
			id:       LayerDebugTileOutline,
			name:     LayerDebugTileOutline,
			geomType: geom.LineString{},
			srid:     tile.WebMercatorSRID,
		},
		{
			id:       LayerDebugTileCenter,
			name:     LayerDebugTileCenter,
			geomType: geom.Point{},
			srid:     tile.WebMercatorSRID,
		},
	}

	var ls []provider.LayerInfo
	for i := range layers {
		ls = append(ls, layers[i])
	}
	return ls, nil
}
