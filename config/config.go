// Package config parses the TOML configuration file that declares
// providers and maps.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/atlasdatatech/arctile/dict"
)

// Config is the whole configuration file.
type Config struct {
	// LocationName is the file the config was read from, when known.
	LocationName string `toml:"-"`

	LogLevel  string    `toml:"log_level"`
	Webserver Webserver `toml:"webserver"`
	Cache     Cache     `toml:"cache"`

	// Providers are free-form blocks; each provider type validates its
	// own keys. "name" and "type" are required in every block.
	Providers []dict.Dict `toml:"providers"`
	Maps      []Map       `toml:"maps"`
}

// Webserver configures the HTTP server.
type Webserver struct {
	HostName string `toml:"hostname"`
	Port     string `toml:"port"`
}

// Cache configures the optional tile cache. Path is a directory; each
// map caches into its own mbtiles file under it. An empty path disables
// caching.
type Cache struct {
	Path string `toml:"path"`
}

// Map declares one servable map.
type Map struct {
	Name        string     `toml:"name"`
	Attribution string     `toml:"attribution"`
	Center      [3]float64 `toml:"center"`
	Bounds      []float64  `toml:"bounds"`
	TileBuffer  *uint      `toml:"tile_buffer"`
	Layers      []MapLayer `toml:"layers"`
}

// MapLayer binds a provider layer into a map. ProviderLayer uses
// "provider.layer" addressing.
type MapLayer struct {
	ID            string                 `toml:"id"`
	Name          string                 `toml:"name"`
	ProviderLayer string                 `toml:"provider_layer"`
	MinZoom       *uint                  `toml:"min_zoom"`
	MaxZoom       *uint                  `toml:"max_zoom"`
	DefaultTags   map[string]interface{} `toml:"default_tags"`
}

// ProviderLayerID splits the "provider.layer" address.
func (ml MapLayer) ProviderLayerID() (prv, layer string, err error) {
	parts := strings.SplitN(ml.ProviderLayer, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrInvalidProviderLayer{ProviderLayer: ml.ProviderLayer}
	}
	return parts[0], parts[1], nil
}

// GetName returns the layer's client-facing name, defaulting to the
// provider layer name.
func (ml MapLayer) GetName() string {
	if ml.Name != "" {
		return ml.Name
	}
	_, layer, err := ml.ProviderLayerID()
	if err != nil {
		return ml.ProviderLayer
	}
	return layer
}

// Parse reads a config from r. location is recorded for error messages.
func Parse(r io.Reader, location string) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config %v: %v", location, err)
	}
	cfg.LocationName = location

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config %v: %v", path, err)
	}
	cfg.LocationName = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the parts of the config that must hold regardless of
// provider type.
func (cfg *Config) Validate() error {
	seen := map[string]bool{}
	for i, p := range cfg.Providers {
		name, _ := p.String("name", nil)
		if name == "" {
			return ErrProviderNameRequired{Pos: i}
		}
		if typ, _ := p.String("type", nil); typ == "" {
			return ErrProviderTypeRequired{Name: name}
		}
		if seen[name] {
			return ErrProviderNameDuplicate{Name: name}
		}
		seen[name] = true
	}

	mapNames := map[string]bool{}
	for _, m := range cfg.Maps {
		if m.Name == "" {
			return ErrMapNameRequired{}
		}
		if mapNames[m.Name] {
			return ErrMapNameDuplicate{Name: m.Name}
		}
		mapNames[m.Name] = true

		for _, l := range m.Layers {
			prv, _, err := l.ProviderLayerID()
			if err != nil {
				return err
			}
			if !seen[prv] {
				return ErrMapLayerProviderUnknown{Map: m.Name, Provider: prv}
			}
		}
	}
	return nil
}
