package style

import (
	"testing"

	"github.com/atlasdatatech/arctile/feature"
)

func tableFeature(gt feature.GeomType, rowID interface{}) *feature.Feature {
	props := map[string]interface{}{}
	if rowID != nil {
		props["_id_"] = rowID
	}
	return &feature.Feature{Props: props, Type: gt}
}

func TestTableStyleRules(t *testing.T) {
	ts := &TableStyle{
		RowIDProperty: "_id_",
		Color: func(rowID int64) string {
			if rowID == 1 {
				return "rgba(255,0,0,1)"
			}
			return "rgba(128,128,128,1)"
		},
		Point: &TablePoint{
			Height: func(int64) float64 { return 16 },
		},
	}

	rules := ts.Compile()
	if len(rules) != 3 {
		t.Fatalf("expected polygon, line and circle rules, got %v", len(rules))
	}
	for _, r := range rules {
		if r.DataLayer != feature.LayerName {
			t.Errorf("rule %v bound to layer %q, want %q", r.ID, r.DataLayer, feature.LayerName)
		}
	}

	poly := rules[0]
	if !poly.Filter(0, tableFeature(feature.Polygon, float64(1))) {
		t.Error("polygon rule should match polygon features")
	}
	if poly.Filter(0, tableFeature(feature.Line, float64(1))) {
		t.Error("polygon rule must not match line features")
	}

	fill := poly.Symbolizer.(*PolygonSymbolizer).Fill
	if got := fill(0, tableFeature(feature.Polygon, float64(1))); got != "rgba(255,0,0,1)" {
		t.Errorf("row 1 fill: got %q", got)
	}
	// a feature without a usable row id resolves to the sentinel row
	if got := fill(0, tableFeature(feature.Polygon, nil)); got != "rgba(128,128,128,1)" {
		t.Errorf("sentinel fill: got %q", got)
	}
	if got := fill(0, tableFeature(feature.Polygon, "not-a-number")); got != "rgba(128,128,128,1)" {
		t.Errorf("non-numeric row id fill: got %q", got)
	}
}

func TestTableStyleCircleRadius(t *testing.T) {
	ts := &TableStyle{
		RowIDProperty: "_id_",
		Point: &TablePoint{
			Height: func(int64) float64 { return 16 },
		},
	}

	rules := ts.Compile()
	circle := rules[2].Symbolizer.(*CircleSymbolizer)

	// radius scales from the height attribute by 3/8
	if got := circle.Radius(0, tableFeature(feature.Point, float64(1))); got != 6 {
		t.Errorf("radius: got %v want 6", got)
	}
}

func TestTableStyleWithoutPoint(t *testing.T) {
	ts := &TableStyle{RowIDProperty: "_id_"}
	rules := ts.Compile()
	if len(rules) != 2 {
		t.Fatalf("expected polygon and line rules only, got %v", len(rules))
	}
}

func TestTableStyleTimeFilter(t *testing.T) {
	valid := map[int64]struct{}{2: {}}
	ts := &TableStyle{
		RowIDProperty: "_id_",
		ValidRows:     func() map[int64]struct{} { return valid },
	}

	line := ts.Compile()[1]

	if line.Filter(0, tableFeature(feature.Line, float64(1))) {
		t.Error("row 1 is not in the valid set")
	}
	if !line.Filter(0, tableFeature(feature.Line, float64(2))) {
		t.Error("row 2 is in the valid set")
	}
	// the sentinel row is never in the valid set
	if line.Filter(0, tableFeature(feature.Line, nil)) {
		t.Error("a feature without a row id is filtered out under time filtering")
	}

	// a nil set means no time filtering at all
	valid = nil
	if !line.Filter(0, tableFeature(feature.Line, float64(1))) {
		t.Error("nil valid set disables time filtering")
	}
}
