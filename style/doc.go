// Package style compiles declarative map style documents into the paint
// and label rules the tile renderer evaluates per feature. Two inputs are
// supported: a constrained subset of the Mapbox style JSON schema, and
// tabular styling parameters keyed by row id.
package style

import (
	"encoding/json"
	"fmt"
)

// Document is a parsed style document.
type Document struct {
	Version int             `json:"version"`
	Name    string          `json:"name,omitempty"`
	Sprite  json.RawMessage `json:"sprite,omitempty"`
	Glyphs  string          `json:"glyphs,omitempty"`
	Layers  []*Layer        `json:"layers"`
}

// Layer is one style layer declaration.
type Layer struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type,omitempty"`
	Ref         string                 `json:"ref,omitempty"`
	Source      string                 `json:"source,omitempty"`
	SourceLayer string                 `json:"source-layer,omitempty"`
	MinZoom     *float64               `json:"minzoom,omitempty"`
	MaxZoom     *float64               `json:"maxzoom,omitempty"`
	Filter      interface{}            `json:"filter,omitempty"`
	Paint       map[string]interface{} `json:"paint,omitempty"`
	Layout      map[string]interface{} `json:"layout,omitempty"`
}

// ParseDocument decodes a style document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("style: parsing document: %v", err)
	}
	return &doc, nil
}

// SpriteSheets returns the document's sprite sheets. The sprite field is
// either a single URL string (one unnamed sheet) or an array of {id,url}
// objects.
func (d *Document) SpriteSheets() ([]SpriteSheet, error) {
	if len(d.Sprite) == 0 {
		return nil, nil
	}

	var single string
	if err := json.Unmarshal(d.Sprite, &single); err == nil {
		return []SpriteSheet{{ID: "default", URL: single}}, nil
	}

	var many []SpriteSheet
	if err := json.Unmarshal(d.Sprite, &many); err == nil {
		return many, nil
	}
	return nil, fmt.Errorf("style: sprite must be a url string or an array of {id,url}")
}
