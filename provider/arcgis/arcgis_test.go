package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/atlasdatatech/arctile/dict"
	"github.com/atlasdatatech/arctile/tile"
)

// pbfPointPage builds a minimal query response carrying n point features,
// assembled straight from the wire format.
func pbfPointPage(n int) []byte {
	appendBytesField := func(b []byte, num protowire.Number, payload []byte) []byte {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		return protowire.AppendBytes(b, payload)
	}

	// featureResult: objectIdFieldName(1), geometryType(7) point, fields(13),
	// then one features(15) entry per point
	var fr []byte
	fr = appendBytesField(fr, 1, []byte("OBJECTID"))
	fr = protowire.AppendTag(fr, 7, protowire.VarintType)
	fr = protowire.AppendVarint(fr, 0)
	fr = appendBytesField(fr, 13, appendBytesField(nil, 1, []byte("OBJECTID")))

	for i := 0; i < n; i++ {
		var attr []byte
		attr = protowire.AppendTag(attr, 4, protowire.VarintType) // sint value
		attr = protowire.AppendVarint(attr, protowire.EncodeZigZag(int64(i)))

		var coords []byte
		coords = protowire.AppendVarint(coords, protowire.EncodeZigZag(int64(i)))
		coords = protowire.AppendVarint(coords, protowire.EncodeZigZag(int64(i)))

		var feat []byte
		feat = appendBytesField(feat, 1, attr)                            // attributes
		feat = appendBytesField(feat, 2, appendBytesField(nil, 3, coords)) // geometry coords

		fr = appendBytesField(fr, 15, feat)
	}

	return appendBytesField(nil, 2, appendBytesField(nil, 1, fr))
}

type pageRequest struct {
	offset string
	query  map[string]string
}

// newTestServer serves layer metadata and pbf pages. pages maps a
// resultOffset value to the number of features to return; offsets not in
// the map return an empty page.
func newTestServer(t *testing.T, metadata map[string]interface{}, pages map[string]int, requests *[]pageRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("f") == "json" {
			json.NewEncoder(w).Encode(metadata)
			return
		}

		offset := r.URL.Query().Get("resultOffset")
		if requests != nil {
			q := map[string]string{}
			for k := range r.URL.Query() {
				q[k] = r.URL.Query().Get(k)
			}
			*requests = append(*requests, pageRequest{offset: offset, query: q})
		}

		w.Write(pbfPointPage(pages[offset]))
	}))
}

func defaultMetadata() map[string]interface{} {
	return map[string]interface{}{
		"name":                            "parcels",
		"geometryType":                    "esriGeometryPoint",
		"objectIdField":                   "OBJECTID",
		"displayField":                    "name",
		"supportedQueryFormats":           "JSON, geoJSON, PBF",
		"maxRecordCount":                  1000,
		"supportsCoordinatesQuantization": true,
	}
}

func TestTileFeaturesSinglePage(t *testing.T) {
	var requests []pageRequest
	srv := newTestServer(t, defaultMetadata(), map[string]int{"0": 50}, &requests)
	defer srv.Close()

	p, err := NewTileProvider(dict.Dict{
		"url":       srv.URL,
		"page_size": 100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byLayer, err := p.TileFeatures(context.Background(), tile.New(5, 10, 12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 50 features against a page size of 100 is a short page, so exactly
	// one request is issued
	if len(requests) != 1 {
		t.Fatalf("expected 1 page request, got %v", len(requests))
	}
	if requests[0].offset != "0" {
		t.Errorf("expected resultOffset=0, got %v", requests[0].offset)
	}
	if got := len(byLayer["features"]); got != 50 {
		t.Errorf("expected 50 features, got %v", got)
	}
}

func TestTileFeaturesQueryParams(t *testing.T) {
	var requests []pageRequest
	srv := newTestServer(t, defaultMetadata(), map[string]int{"0": 1}, &requests)
	defer srv.Close()

	p, err := NewTileProvider(dict.Dict{"url": srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.TileFeatures(context.Background(), tile.New(5, 10, 12)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := requests[0].query
	expected := map[string]string{
		"f":            "pbf",
		"resultType":   "tile",
		"geometryType": "esriGeometryEnvelope",
		"where":        "1=1",
		"spatialRel":   "esriSpatialRelIntersects",
		"inSR":         "102100",
		"outSR":        "102100",
		"precision":    "8",
	}
	for k, want := range expected {
		if q[k] != want {
			t.Errorf("query param %v: got %q want %q", k, q[k], want)
		}
	}
	if q["quantizationParameters"] == "" {
		t.Error("expected quantizationParameters for a quantization-capable layer")
	}
}

func TestTileFeaturesPagination(t *testing.T) {
	var requests []pageRequest
	srv := newTestServer(t, defaultMetadata(), map[string]int{
		"0": 2,
		"2": 2,
		"4": 1, // short page ends the loop
	}, &requests)
	defer srv.Close()

	p, err := NewTileProvider(dict.Dict{
		"url":       srv.URL,
		"page_size": 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byLayer, err := p.TileFeatures(context.Background(), tile.New(5, 10, 12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(requests) != 3 {
		t.Fatalf("expected 3 page requests, got %v", len(requests))
	}
	for i, want := range []string{"0", "2", "4"} {
		if requests[i].offset != want {
			t.Errorf("request %v: expected resultOffset=%v, got %v", i, want, requests[i].offset)
		}
	}
	if got := len(byLayer["features"]); got != 5 {
		t.Errorf("expected 5 features, got %v", got)
	}
}

func TestTileFeaturesCeiling(t *testing.T) {
	// every page is full, so only the feature ceiling stops the loop
	var requests []pageRequest
	srv := newTestServer(t, defaultMetadata(), map[string]int{
		"0": 2, "2": 2, "4": 2, "6": 2, "8": 2,
	}, &requests)
	defer srv.Close()

	p, err := NewTileProvider(dict.Dict{
		"url":                srv.URL,
		"page_size":          2,
		"max_tiled_features": 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byLayer, err := p.TileFeatures(context.Background(), tile.New(5, 10, 12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(requests) != 2 {
		t.Errorf("expected 2 page requests before hitting the ceiling, got %v", len(requests))
	}
	if got := len(byLayer["features"]); got != 4 {
		t.Errorf("expected 4 accumulated features, got %v", got)
	}
}

func TestTileFeaturesFailSoft(t *testing.T) {
	// first page succeeds, second fails: the tile resolves with the
	// features already accumulated
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("f") == "json" {
			json.NewEncoder(w).Encode(defaultMetadata())
			return
		}
		calls++
		if calls > 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write(pbfPointPage(2))
	}))
	defer srv.Close()

	p, err := NewTileProvider(dict.Dict{
		"url":       srv.URL,
		"page_size": 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byLayer, err := p.TileFeatures(context.Background(), tile.New(5, 10, 12))
	if err != nil {
		t.Fatalf("expected a partial tile, got error: %v", err)
	}
	if got := len(byLayer["features"]); got != 2 {
		t.Errorf("expected 2 features from the successful page, got %v", got)
	}
}

func TestTileFeaturesCancellation(t *testing.T) {
	srv := newTestServer(t, defaultMetadata(), map[string]int{"0": 1}, nil)
	defer srv.Close()

	p, err := NewTileProvider(dict.Dict{"url": srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.TileFeatures(ctx, tile.New(5, 10, 12)); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewTileProviderValidation(t *testing.T) {
	if _, err := NewTileProvider(dict.Dict{}); err == nil {
		t.Error("expected an error for a missing url")
	}
	if _, err := NewTileProvider(dict.Dict{"url": "http://example.com", "page_size": 0}); err == nil {
		t.Error("expected an error for a zero page size")
	}
}

func TestPageSizeCappedToMaxRecordCount(t *testing.T) {
	md := defaultMetadata()
	md["maxRecordCount"] = 100
	srv := newTestServer(t, md, nil, nil)
	defer srv.Close()

	prv, err := NewTileProvider(dict.Dict{
		"url":       srv.URL,
		"page_size": 5000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p := prv.(*Provider); p.pageSize != 100 {
		t.Errorf("expected page size capped to 100, got %v", p.pageSize)
	}
}

func TestMetadataProbeFailureDowngrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	prv, err := NewTileProvider(dict.Dict{"url": srv.URL})
	if err != nil {
		t.Fatalf("a failed probe should not fail construction: %v", err)
	}
	p := prv.(*Provider)
	if p.supportsQuantization {
		t.Error("quantization should be off without metadata")
	}
	if p.objectIDField != DefaultObjectIDField {
		t.Errorf("expected default object id field, got %q", p.objectIDField)
	}
}

func TestPickFeaturesDisabled(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("f") == "json" {
			json.NewEncoder(w).Encode(defaultMetadata())
			return
		}
		calls++
	}))
	defer srv.Close()

	p, err := NewTileProvider(dict.Dict{
		"url":         srv.URL,
		"enable_pick": false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	infos, err := p.(*Provider).PickFeatures(context.Background(), 1, 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if infos != nil || calls != 0 {
		t.Errorf("disabled pick must not query: infos=%v calls=%v", infos, calls)
	}
}

func TestPickFeatures(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("f") == "json" {
			json.NewEncoder(w).Encode(defaultMetadata())
			return
		}
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		fmt.Fprint(w, `{"type":"FeatureCollection","features":[
			{"properties":{"OBJECTID":7,"name":"city hall"}},
			{"properties":{"OBJECTID":8}}
		]}`)
	}))
	defer srv.Close()

	p, err := NewTileProvider(dict.Dict{"url": srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	infos, err := p.(*Provider).PickFeatures(context.Background(), -122.4, 37.8, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if query["f"] != "geojson" || query["returnGeometry"] != "false" || query["units"] != "esriSRUnit_Meter" {
		t.Errorf("unexpected pick query params: %v", query)
	}
	wantRadius := strconv.FormatFloat(4*tile.MetersPerPixel(10), 'f', -1, 64)
	if query["distance"] != wantRadius {
		t.Errorf("distance: got %v want %v", query["distance"], wantRadius)
	}

	if len(infos) != 2 {
		t.Fatalf("expected 2 features, got %v", len(infos))
	}
	// display field wins for the first feature; the second falls back to
	// the object id
	if infos[0].Name != "city hall" {
		t.Errorf("name: got %q", infos[0].Name)
	}
	if infos[1].Name != "parcels 8" {
		t.Errorf("fallback name: got %q", infos[1].Name)
	}
	if infos[0].Description == "" {
		t.Error("expected a description")
	}
}
