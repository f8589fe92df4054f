// Package atlas holds the registry of configured maps and resolves a
// tile request against the providers backing each map layer.
package atlas

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-spatial/geom"

	"github.com/atlasdatatech/arctile/feature"
	"github.com/atlasdatatech/arctile/provider"
	"github.com/atlasdatatech/arctile/tile"
)

// ErrMapNotFound is returned when a map name is not registered.
type ErrMapNotFound struct {
	Name string
}

func (e ErrMapNotFound) Error() string {
	return fmt.Sprintf("atlas: map %q not found", e.Name)
}

// Layer binds one provider layer into a map with its serving zoom range.
type Layer struct {
	// ID is unique per map. Defaults to the provider layer's name.
	ID string
	// Name is the layer name presented to clients. Layers sharing a Name
	// act as one logical layer served at different zoom ranges.
	Name string

	ProviderLayerID string
	MinZoom         uint
	MaxZoom         uint

	Provider provider.Tiler
	GeomType geom.Geometry

	// DefaultTags are merged into each feature's properties without
	// overwriting values the provider supplied.
	DefaultTags map[string]interface{}
}

// RenderName is the name the layer is keyed by in tile output.
func (l Layer) RenderName() string {
	if l.Name != "" {
		return l.Name
	}
	return l.ID
}

// Map is a named collection of layers served over web mercator.
type Map struct {
	Name        string
	Attribution string
	// Center is lon, lat, zoom.
	Center     [3]float64
	Bounds     *geom.Extent
	TileBuffer uint

	Layers []Layer
}

// NewWebMercatorMap returns a map with world bounds and the default tile
// buffer.
func NewWebMercatorMap(name string) Map {
	return Map{
		Name: name,
		Bounds: geom.NewExtent(
			[2]float64{-180, -85.0511},
			[2]float64{180, 85.0511},
		),
		TileBuffer: tile.DefaultBuffer,
	}
}

// FilterLayersByZoom returns a copy of the map with only the layers that
// serve the given zoom.
func (m Map) FilterLayersByZoom(zoom uint) Map {
	var layers []Layer
	for _, l := range m.Layers {
		if (l.MinZoom <= zoom || l.MinZoom == 0) && (l.MaxZoom >= zoom || l.MaxZoom == 0) {
			layers = append(layers, l)
		}
	}
	m.Layers = layers
	return m
}

// TileFeatures fetches the map's features for one tile. Each backing
// provider is queried once; its layers are re-keyed by the map layer's
// render name and default tags are merged in.
func (m Map) TileFeatures(ctx context.Context, t *tile.Tile) (map[string][]*feature.Feature, error) {
	active := m.FilterLayersByZoom(t.Z)

	out := map[string][]*feature.Feature{}
	fetched := map[provider.Tiler]map[string][]*feature.Feature{}

	for _, l := range active.Layers {
		if l.Provider == nil {
			continue
		}
		byLayer, ok := fetched[l.Provider]
		if !ok {
			var err error
			byLayer, err = l.Provider.TileFeatures(ctx, t)
			if err != nil {
				return nil, err
			}
			fetched[l.Provider] = byLayer
		}

		feats := byLayer[l.ProviderLayerID]
		if len(l.DefaultTags) > 0 {
			for _, f := range feats {
				for k, v := range l.DefaultTags {
					if _, ok := f.Props[k]; !ok {
						f.Props[k] = v
					}
				}
			}
		}
		out[l.RenderName()] = append(out[l.RenderName()], feats...)
	}
	return out, nil
}

// Atlas is a registry of maps. The zero value is usable.
type Atlas struct {
	mu   sync.RWMutex
	maps map[string]Map
}

// AddMap registers the map, replacing any map with the same name.
func (a *Atlas) AddMap(m Map) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.maps == nil {
		a.maps = map[string]Map{}
	}
	a.maps[m.Name] = m
}

// Map looks up a registered map by name.
func (a *Atlas) Map(name string) (Map, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.maps[name]
	if !ok {
		return Map{}, ErrMapNotFound{Name: name}
	}
	return m, nil
}

// AllMaps returns the registered maps.
func (a *Atlas) AllMaps() []Map {
	a.mu.RLock()
	defer a.mu.RUnlock()
	maps := make([]Map, 0, len(a.maps))
	for _, m := range a.maps {
		maps = append(maps, m)
	}
	return maps
}

// defaultAtlas backs the package-level convenience functions.
var defaultAtlas = &Atlas{}

func AddMap(m Map) { defaultAtlas.AddMap(m) }

func GetMap(name string) (Map, error) { return defaultAtlas.Map(name) }

func AllMaps() []Map { return defaultAtlas.AllMaps() }
