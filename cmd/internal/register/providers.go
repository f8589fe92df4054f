// Package register wires parsed configuration into the provider registry
// and the atlas.
package register

import (
	"github.com/atlasdatatech/arctile/dict"
	"github.com/atlasdatatech/arctile/provider"
)

// Providers instantiates each configured provider block through the
// registry, keyed by the block's name.
func Providers(blocks []dict.Dict) (map[string]provider.Tiler, error) {
	providers := map[string]provider.Tiler{}

	for _, block := range blocks {
		name, err := block.String("name", nil)
		if err != nil {
			return nil, err
		}
		typ, err := block.String("type", nil)
		if err != nil {
			return nil, err
		}

		prv, err := provider.For(typ, block)
		if err != nil {
			return nil, err
		}
		providers[name] = prv
	}
	return providers, nil
}
