package register

import (
	"html"

	"github.com/go-spatial/geom"

	"github.com/atlasdatatech/arctile/atlas"
	"github.com/atlasdatatech/arctile/config"
	"github.com/atlasdatatech/arctile/provider"
)

func webMercatorMapFromConfigMap(cfg config.Map) (newMap atlas.Map) {
	newMap = atlas.NewWebMercatorMap(cfg.Name)
	newMap.Attribution = html.EscapeString(cfg.Attribution)
	newMap.Center = cfg.Center

	if len(cfg.Bounds) == 4 {
		newMap.Bounds = geom.NewExtent(
			[2]float64{cfg.Bounds[0], cfg.Bounds[1]},
			[2]float64{cfg.Bounds[2], cfg.Bounds[3]},
		)
	}

	if cfg.TileBuffer != nil {
		newMap.TileBuffer = *cfg.TileBuffer
	}
	return newMap
}

func layerInfosFindByID(infos []provider.LayerInfo, lyrID string) provider.LayerInfo {
	for i := range infos {
		if infos[i].ID() == lyrID {
			return infos[i]
		}
	}
	return nil
}

func atlasLayerFromConfigLayer(cfg *config.MapLayer, mapName string, prv provider.Tiler) (layer atlas.Layer, err error) {
	providerID, plyrID, err := cfg.ProviderLayerID()
	if err != nil {
		return layer, err
	}

	layerInfos, err := prv.Layers()
	if err != nil {
		return layer, ErrFetchingLayerInfo{
			Provider: providerID,
			Err:      err,
		}
	}
	layerInfo := layerInfosFindByID(layerInfos, plyrID)
	if layerInfo == nil {
		return layer, ErrProviderLayerNotRegistered{
			MapName:       mapName,
			ProviderLayer: cfg.ProviderLayer,
			Provider:      providerID,
		}
	}

	layer.Provider = prv
	layer.GeomType = layerInfo.GeomType()
	layer.ID = cfg.ID
	layer.Name = cfg.GetName()
	layer.ProviderLayerID = plyrID
	layer.DefaultTags = cfg.DefaultTags

	if cfg.MinZoom != nil {
		layer.MinZoom = *cfg.MinZoom
	}
	if cfg.MaxZoom != nil {
		layer.MaxZoom = *cfg.MaxZoom
	}
	return layer, nil
}

// Maps registers the configured maps with the atlas.
func Maps(a *atlas.Atlas, maps []config.Map, providers map[string]provider.Tiler) error {
	for _, m := range maps {
		newMap := webMercatorMapFromConfigMap(m)

		for _, l := range m.Layers {
			prdID, _, err := l.ProviderLayerID()
			if err != nil {
				return err
			}

			prv, ok := providers[prdID]
			if !ok {
				return ErrProviderNotFound{Provider: prdID}
			}

			layer, err := atlasLayerFromConfigLayer(&l, m.Name, prv)
			if err != nil {
				return err
			}
			newMap.Layers = append(newMap.Layers, layer)
		}
		a.AddMap(newMap)
	}
	return nil
}
