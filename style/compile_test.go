package style

import (
	"testing"

	"github.com/atlasdatatech/arctile/feature"
)

func compileDoc(t *testing.T, src string) (*Compiled, error) {
	t.Helper()
	doc, err := ParseDocument([]byte(src))
	if err != nil {
		t.Fatalf("parsing document: %v", err)
	}
	return Compile(doc, Options{})
}

func TestCompileBackgroundOnly(t *testing.T) {
	compiled, err := compileDoc(t, `{
		"version": 8,
		"layers": [
			{"id": "bg", "type": "background", "paint": {"background-color": "#fff"}}
		]
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(compiled.PaintRules) != 0 {
		t.Errorf("expected no paint rules, got %v", len(compiled.PaintRules))
	}
	if len(compiled.LabelRules) != 0 {
		t.Errorf("expected no label rules, got %v", len(compiled.LabelRules))
	}
	if compiled.Background == nil {
		t.Fatal("expected a background rule")
	}

	bg, ok := compiled.Background.Symbolizer.(*BackgroundSymbolizer)
	if !ok {
		t.Fatalf("background symbolizer is %T", compiled.Background.Symbolizer)
	}
	if got := bg.Fill(0, nil); got != "rgba(255,255,255,1)" {
		t.Errorf("background fill: got %q", got)
	}
}

func TestCompileLabelRulesReversed(t *testing.T) {
	compiled, err := compileDoc(t, `{
		"version": 8,
		"layers": [
			{"id": "A", "type": "symbol", "layout": {"text-field": "{name}"}},
			{"id": "B", "type": "symbol", "layout": {"text-field": "{name}"}},
			{"id": "C", "type": "symbol", "layout": {"text-field": "{name}"}}
		]
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for _, r := range compiled.LabelRules {
		ids = append(ids, r.ID)
	}
	want := []string{"C", "B", "A"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("label rule order: got %v want %v", ids, want)
		}
	}
}

func TestCompileRefInheritance(t *testing.T) {
	compiled, err := compileDoc(t, `{
		"version": 8,
		"layers": [
			{
				"id": "roads",
				"type": "line",
				"source-layer": "transport",
				"filter": ["==", "class", "road"],
				"paint": {"line-color": "#ff0000"}
			},
			{
				"id": "roads-casing",
				"ref": "roads",
				"paint": {"line-color": "#0000ff", "line-width": 4}
			}
		]
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(compiled.PaintRules) != 2 {
		t.Fatalf("expected 2 paint rules, got %v", len(compiled.PaintRules))
	}

	casing := compiled.PaintRules[1]
	if casing.DataLayer != "transport" {
		t.Errorf("ref should inherit source-layer, got %q", casing.DataLayer)
	}
	if casing.Filter == nil {
		t.Fatal("ref should inherit the filter")
	}

	road := &feature.Feature{Props: map[string]interface{}{"class": "road"}, Type: feature.Line}
	park := &feature.Feature{Props: map[string]interface{}{"class": "park"}, Type: feature.Polygon}
	if !casing.Filter(0, road) || casing.Filter(0, park) {
		t.Error("inherited filter does not behave like the parent's")
	}

	// paint stays the layer's own
	line := casing.Symbolizer.(*LineSymbolizer)
	if got := line.Color(0, road); got != "rgba(0,0,255,1)" {
		t.Errorf("casing color: got %q", got)
	}
}

func TestCompileForwardRefFails(t *testing.T) {
	_, err := compileDoc(t, `{
		"version": 8,
		"layers": [
			{"id": "early", "ref": "late"},
			{"id": "late", "type": "line"}
		]
	}`)
	if _, ok := err.(ErrForwardRef); !ok {
		t.Errorf("expected ErrForwardRef, got %v", err)
	}
}

func TestCompileUnknownRefFails(t *testing.T) {
	_, err := compileDoc(t, `{
		"version": 8,
		"layers": [{"id": "a", "ref": "ghost"}]
	}`)
	if _, ok := err.(ErrUnknownRef); !ok {
		t.Errorf("expected ErrUnknownRef, got %v", err)
	}
}

func TestCompileFailsWholeDocument(t *testing.T) {
	// one bad layer returns an error and no partial rule set
	compiled, err := compileDoc(t, `{
		"version": 8,
		"layers": [
			{"id": "good", "type": "line", "paint": {"line-color": "#00ff00"}},
			{"id": "bad", "type": "line", "paint": {"line-color": "not-a-color"}}
		]
	}`)
	if err == nil {
		t.Fatal("expected an error")
	}
	if compiled != nil {
		t.Error("a failed compile must not return partial rules")
	}
	if _, ok := err.(ErrLayer); !ok {
		t.Errorf("expected ErrLayer, got %T", err)
	}
}

func TestCompileUnknownTypeSkipped(t *testing.T) {
	compiled, err := compileDoc(t, `{
		"version": 8,
		"layers": [
			{"id": "weird", "type": "hologram"},
			{"id": "water", "type": "fill", "paint": {"fill-color": "#0000ff"}}
		]
	}`)
	if err != nil {
		t.Fatalf("unknown types must not fail the compile: %v", err)
	}
	if len(compiled.PaintRules) != 1 || compiled.PaintRules[0].ID != "water" {
		t.Errorf("expected only the fill rule, got %v rules", len(compiled.PaintRules))
	}
}

func TestCompileLineWidthIncludesGap(t *testing.T) {
	compiled, err := compileDoc(t, `{
		"version": 8,
		"layers": [
			{"id": "road", "type": "line", "paint": {"line-width": 3, "line-gap-width": 2}}
		]
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	line := compiled.PaintRules[0].Symbolizer.(*LineSymbolizer)
	if got := line.Width(10, nil); got != 5 {
		t.Errorf("width should be line-width + gap width, got %v", got)
	}
}

func TestCompileZoomBounds(t *testing.T) {
	compiled, err := compileDoc(t, `{
		"version": 8,
		"layers": [
			{"id": "detail", "type": "fill", "minzoom": 10, "maxzoom": 14}
		]
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := compiled.PaintRules[0]
	f := &feature.Feature{Type: feature.Polygon}
	if r.Matches(9, f) {
		t.Error("rule should not match below minzoom")
	}
	if !r.Matches(12, f) {
		t.Error("rule should match inside its zoom range")
	}
	if r.Matches(15, f) {
		t.Error("rule should not match above maxzoom")
	}
}

func TestCompileSpriteSheets(t *testing.T) {
	compiled, err := compileDoc(t, `{
		"version": 8,
		"sprite": "https://example.com/sprites/basic",
		"layers": []
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(compiled.Tasks) != 1 {
		t.Fatalf("expected 1 sheet task, got %v", len(compiled.Tasks))
	}
	if compiled.Tasks[0].Sheet.URL != "https://example.com/sprites/basic" {
		t.Errorf("sheet url: got %q", compiled.Tasks[0].Sheet.URL)
	}

	// the array form names each sheet
	doc, err := ParseDocument([]byte(`{
		"version": 8,
		"sprite": [{"id": "a", "url": "https://example.com/a"}, {"id": "b", "url": "https://example.com/b"}],
		"layers": []
	}`))
	if err != nil {
		t.Fatalf("parsing document: %v", err)
	}
	sheets, err := doc.SpriteSheets()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sheets) != 2 || sheets[1].ID != "b" {
		t.Errorf("sheets: got %+v", sheets)
	}
}

func TestResolveFaces(t *testing.T) {
	subs := map[string]string{
		"Open Sans Regular": "sans-serif",
		"Georgia Regular":   "serif",
	}

	testcases := []struct {
		name     string
		declared []string
		expected []string
	}{
		{
			name:     "matched faces survive in order",
			declared: []string{"Georgia Regular", "Open Sans Regular"},
			expected: []string{"serif", "sans-serif"},
		},
		{
			name:     "unmatched faces are dropped",
			declared: []string{"Comic Sans MS", "Open Sans Regular"},
			expected: []string{"sans-serif"},
		},
		{
			name:     "no matches falls back",
			declared: []string{"Comic Sans MS"},
			expected: []string{"sans-serif"},
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			got := resolveFaces(tc.declared, subs)
			if len(got) != len(tc.expected) {
				t.Fatalf("got %v want %v", got, tc.expected)
			}
			for i := range got {
				if got[i] != tc.expected[i] {
					t.Fatalf("got %v want %v", got, tc.expected)
				}
			}
		})
	}
}

func TestLabelThunkFieldTokens(t *testing.T) {
	label, err := labelThunk("{name} ({ref})")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := &feature.Feature{Props: map[string]interface{}{"name": "I-5", "ref": "5"}}
	if got := label(0, f); got != "I-5 (5)" {
		t.Errorf("got %q", got)
	}

	// missing fields substitute empty
	empty := &feature.Feature{Props: map[string]interface{}{}}
	if got := label(0, empty); got != " ()" {
		t.Errorf("got %q", got)
	}
}
