// Package server exposes the atlas over HTTP: tile feature layers as
// JSON, click-based feature picking, and a capabilities listing.
package server

import (
	"net/http"

	"github.com/dimfeld/httptreemux"

	"github.com/atlasdatatech/arctile/atlas"
	"github.com/atlasdatatech/arctile/internal/log"
	"github.com/atlasdatatech/arctile/internal/mbtiles"
)

// Version is set at build time.
var Version = "dev"

// HostName, when set, overrides the host reported in capabilities URLs.
var HostName string

// NewRouter builds the server's routes. cache may be nil to disable tile
// caching.
func NewRouter(a *atlas.Atlas, cache *mbtiles.Store) *httptreemux.TreeMux {
	r := httptreemux.New()

	r.GET("/capabilities", HandleCapabilities{Atlas: a}.Handle)
	r.GET("/maps/:map_name/:z/:x/:y", HandleMapZXY{Atlas: a, Cache: cache}.Handle)
	r.GET("/maps/:map_name/pick", HandleMapPick{Atlas: a}.Handle)

	return r
}

// Start runs the server on port (":8080" style). Blocks until the server
// exits.
func Start(a *atlas.Atlas, cache *mbtiles.Store, port string) error {
	log.Infof("starting server on %v", port)

	srv := &http.Server{
		Addr:    port,
		Handler: NewRouter(a, cache),
	}
	return srv.ListenAndServe()
}
