package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/atlasdatatech/arctile/atlas"
	"github.com/atlasdatatech/arctile/internal/log"
	"github.com/atlasdatatech/arctile/internal/mbtiles"
	"github.com/atlasdatatech/arctile/tile"
)

// HandleMapZXY serves one tile's feature layers as JSON.
type HandleMapZXY struct {
	Atlas *atlas.Atlas
	Cache *mbtiles.Store
}

// tileResponse is the wire shape of a tile: data layers keyed by name,
// geometry already in tile-pixel space.
type tileResponse struct {
	Layers interface{} `json:"layers"`
}

func parseTileParams(params map[string]string) (*tile.Tile, error) {
	z, err := strconv.ParseUint(params["z"], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid z value %q", params["z"])
	}
	if z > tile.MaxZoom {
		return nil, fmt.Errorf("z value %v exceeds max zoom %v", z, tile.MaxZoom)
	}
	x, err := strconv.ParseUint(params["x"], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid x value %q", params["x"])
	}

	yParam := strings.TrimSuffix(params["y"], ".json")
	y, err := strconv.ParseUint(yParam, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid y value %q", params["y"])
	}

	max := uint64(1) << z
	if x >= max || y >= max {
		return nil, fmt.Errorf("tile %v/%v/%v is outside the zoom %v pyramid", z, x, y, z)
	}
	return tile.New(uint(z), uint(x), uint(y)), nil
}

func (h HandleMapZXY) Handle(w http.ResponseWriter, r *http.Request, params map[string]string) {
	m, err := h.Atlas.Map(params["map_name"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	t, err := parseTileParams(params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if h.Cache != nil {
		cached, err := h.Cache.ReadTile(m.Name, t.Z, t.X, t.Y)
		if err != nil {
			log.Warnf("cache read for map %v tile %v: %v", m.Name, t, err)
		}
		if cached != nil {
			w.Write(cached)
			return
		}
	}

	byLayer, err := m.TileFeatures(r.Context(), t)
	if err != nil {
		log.Errorf("fetching tile %v for map %v: %v", t, m.Name, err)
		http.Error(w, "error fetching tile", http.StatusInternalServerError)
		return
	}

	body, err := json.Marshal(tileResponse{Layers: byLayer})
	if err != nil {
		http.Error(w, "error encoding tile", http.StatusInternalServerError)
		return
	}

	// cache is best effort, a failed write never fails the request
	if h.Cache != nil {
		if err := h.Cache.WriteTile(m.Name, t.Z, t.X, t.Y, body); err != nil {
			log.Warnf("cache write for map %v tile %v: %v", m.Name, t, err)
		}
	}

	w.Write(body)
}
