package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/atlasdatatech/arctile/atlas"
	"github.com/atlasdatatech/arctile/internal/log"
	"github.com/atlasdatatech/arctile/provider"
)

// HandleMapPick answers click-based feature info queries:
// GET /maps/:map_name/pick?lon=<lon>&lat=<lat>&level=<zoom>.
type HandleMapPick struct {
	Atlas *atlas.Atlas
}

func queryFloat(r *http.Request, key string) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, fmt.Errorf("missing query parameter %q", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %v value %q", key, v)
	}
	return f, nil
}

func (h HandleMapPick) Handle(w http.ResponseWriter, r *http.Request, params map[string]string) {
	m, err := h.Atlas.Map(params["map_name"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	lon, err := queryFloat(r, "lon")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	lat, err := queryFloat(r, "lat")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	level, err := strconv.ParseUint(r.URL.Query().Get("level"), 10, 32)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid level value %q", r.URL.Query().Get("level")), http.StatusBadRequest)
		return
	}

	// query every distinct provider in the map that supports picking
	var infos []provider.FeatureInfo
	seen := map[provider.Picker]bool{}
	for _, l := range m.Layers {
		p, ok := l.Provider.(provider.Picker)
		if !ok || seen[p] {
			continue
		}
		seen[p] = true

		picked, err := p.PickFeatures(r.Context(), lon, lat, uint(level))
		if err != nil {
			log.Errorf("picking features on map %v layer %v: %v", m.Name, l.Name, err)
			http.Error(w, "error picking features", http.StatusInternalServerError)
			return
		}
		infos = append(infos, picked...)
	}
	if infos == nil {
		infos = []provider.FeatureInfo{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(infos); err != nil {
		log.Errorf("encoding pick response: %v", err)
	}
}
