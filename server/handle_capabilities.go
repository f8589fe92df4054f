package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/atlasdatatech/arctile/atlas"
	"github.com/atlasdatatech/arctile/internal/log"
)

// HandleCapabilities lists the served maps and their layers.
type HandleCapabilities struct {
	Atlas *atlas.Atlas
}

type capabilities struct {
	Version string            `json:"version"`
	Maps    []capabilitiesMap `json:"maps"`
}

type capabilitiesMap struct {
	Name        string              `json:"name"`
	Attribution string              `json:"attribution,omitempty"`
	Center      [3]float64          `json:"center"`
	Tiles       string              `json:"tiles"`
	Layers      []capabilitiesLayer `json:"layers"`
}

type capabilitiesLayer struct {
	Name    string `json:"name"`
	MinZoom uint   `json:"minzoom"`
	MaxZoom uint   `json:"maxzoom"`
}

func (h HandleCapabilities) Handle(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	host := HostName
	if host == "" {
		host = r.Host
	}

	caps := capabilities{Version: Version}
	for _, m := range h.Atlas.AllMaps() {
		cm := capabilitiesMap{
			Name:        m.Name,
			Attribution: m.Attribution,
			Center:      m.Center,
			Tiles:       fmt.Sprintf("http://%v/maps/%v/{z}/{x}/{y}.json", host, m.Name),
		}
		for _, l := range m.Layers {
			cm.Layers = append(cm.Layers, capabilitiesLayer{
				Name:    l.RenderName(),
				MinZoom: l.MinZoom,
				MaxZoom: l.MaxZoom,
			})
		}
		caps.Maps = append(caps.Maps, cm)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(caps); err != nil {
		log.Errorf("encoding capabilities response: %v", err)
	}
}
