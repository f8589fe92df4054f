// Package provider defines the interfaces tile sources implement and the
// registry configured providers are created through.
package provider

import (
	"context"

	"github.com/go-spatial/geom"

	"github.com/atlasdatatech/arctile/dict"
	"github.com/atlasdatatech/arctile/feature"
	"github.com/atlasdatatech/arctile/internal/log"
	"github.com/atlasdatatech/arctile/tile"
)

// Tiler is a provider that can produce the features for one tile. The
// returned map is keyed by data layer name; order within a layer follows
// the provider's fetch order.
type Tiler interface {
	// Layers returns information about the layers the provider serves.
	Layers() ([]LayerInfo, error)

	// TileFeatures returns the pixel-space features for the tile. A tile
	// must always resolve to some feature set: transport problems produce
	// a partial or empty result, not an error. Errors are reserved for
	// cancellation and misconfiguration.
	TileFeatures(ctx context.Context, t *tile.Tile) (map[string][]*feature.Feature, error)
}

// Picker is implemented by providers that support click-based feature info
// lookup.
type Picker interface {
	// PickFeatures queries the features within a few screen pixels of the
	// geographic coordinate at the given zoom level. Returns an empty
	// slice immediately when picking is disabled for the source.
	PickFeatures(ctx context.Context, lon, lat float64, level uint) ([]FeatureInfo, error)
}

// FeatureInfo is one picked feature's attributes with presentation strings
// derived from them.
type FeatureInfo struct {
	Name        string
	Description string
	Properties  map[string]interface{}
}

// LayerInfo is the important information about a layer.
type LayerInfo interface {
	// ID is the id of the layer
	ID() string
	// Name is the name of the layer
	Name() string
	// GeomType is the geometry type of the layer
	GeomType() geom.Geometry
	// SRID is the srid of all the points in the layer
	SRID() uint64
}

// InitFunc initializes a provider given its config block. InitFuncs are
// expected to validate the config and return an error on failure.
type InitFunc func(config dict.Dicter) (Tiler, error)

// CleanupFunc is called on shutdown for providers holding resources.
type CleanupFunc func()

type driver struct {
	init    InitFunc
	cleanup CleanupFunc
}

// registry of provider drivers by type name
var drivers map[string]driver

// Register is called by provider implementations from init().
func Register(name string, init InitFunc, cleanup CleanupFunc) error {
	if drivers == nil {
		drivers = map[string]driver{}
	}
	if _, ok := drivers[name]; ok {
		return ErrProviderAlreadyExists{Name: name}
	}
	drivers[name] = driver{init: init, cleanup: cleanup}
	return nil
}

// Drivers returns the registered driver names.
func Drivers() []string {
	var names []string
	for name := range drivers {
		names = append(names, name)
	}
	return names
}

// For returns a new provider of the given type configured with config.
func For(name string, config dict.Dicter) (Tiler, error) {
	d, ok := drivers[name]
	if !ok {
		return nil, ErrUnknownProvider{Name: name, Known: Drivers()}
	}
	return d.init(config)
}

// Cleanup runs all registered cleanup functions.
func Cleanup() {
	log.Info("cleaning up providers")
	for _, d := range drivers {
		if d.cleanup != nil {
			d.cleanup()
		}
	}
}
