package main

import (
	"github.com/spf13/cobra"

	"github.com/atlasdatatech/arctile/atlas"
	"github.com/atlasdatatech/arctile/cmd/internal/register"
	"github.com/atlasdatatech/arctile/internal/log"
	"github.com/atlasdatatech/arctile/internal/mbtiles"
	"github.com/atlasdatatech/arctile/provider"
	"github.com/atlasdatatech/arctile/server"
)

const defaultPort = ":8080"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configured maps over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}

		providers, err := register.Providers(conf.Providers)
		if err != nil {
			return err
		}
		defer provider.Cleanup()

		var a atlas.Atlas
		if err := register.Maps(&a, conf.Maps, providers); err != nil {
			return err
		}

		var cache *mbtiles.Store
		if conf.Cache.Path != "" {
			cache, err = mbtiles.OpenStore(conf.Cache.Path)
			if err != nil {
				return err
			}
			defer cache.Close()
			log.Infof("caching tiles under %v", conf.Cache.Path)
		}

		port := conf.Webserver.Port
		if port == "" {
			port = defaultPort
		}
		server.Version = Version
		server.HostName = conf.Webserver.HostName

		return server.Start(&a, cache, port)
	},
}
