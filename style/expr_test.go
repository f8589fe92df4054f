package style

import (
	"encoding/json"
	"testing"

	"github.com/atlasdatatech/arctile/feature"
)

func parseJSON(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad test expression %v: %v", s, err)
	}
	return v
}

func evalExpr(t *testing.T, src string, zoom float64, f *feature.Feature) interface{} {
	t.Helper()
	expr, err := ParseExpression(parseJSON(t, src))
	if err != nil {
		t.Fatalf("parsing %v: %v", src, err)
	}
	return expr.Eval(zoom, f)
}

func TestExpressions(t *testing.T) {
	f := &feature.Feature{
		Props: map[string]interface{}{
			"name":   "broadway",
			"lanes":  float64(4),
			"oneway": true,
		},
		Type: feature.Line,
	}

	testcases := []struct {
		expr     string
		zoom     float64
		expected interface{}
	}{
		{expr: `42`, expected: float64(42)},
		{expr: `"red"`, expected: "red"},
		{expr: `["get", "name"]`, expected: "broadway"},
		{expr: `["get", "missing"]`, expected: nil},
		{expr: `["has", "lanes"]`, expected: true},
		{expr: `["has", "nope"]`, expected: false},
		{expr: `["geometry-type"]`, expected: "LineString"},
		{expr: `["zoom"]`, zoom: 12, expected: float64(12)},
		{expr: `["!", ["has", "lanes"]]`, expected: false},
		{expr: `["==", ["get", "lanes"], 4]`, expected: true},
		{expr: `["!=", ["get", "name"], "main"]`, expected: true},
		{expr: `[">", ["get", "lanes"], 2]`, expected: true},
		{expr: `["<=", ["get", "lanes"], 3]`, expected: false},
		{expr: `["all", ["has", "lanes"], ["get", "oneway"]]`, expected: true},
		{expr: `["any", ["has", "nope"], ["get", "oneway"]]`, expected: true},
		{expr: `["in", ["get", "name"], ["literal", ["main", "broadway"]]]`, expected: true},
		{expr: `["case", ["get", "oneway"], "arrow", "plain"]`, expected: "arrow"},
		{expr: `["match", ["get", "name"], "broadway", 1, ["main", "market"], 2, 0]`, expected: float64(1)},
		{expr: `["match", ["get", "name"], ["main", "market"], 2, 0]`, expected: float64(0)},
		{expr: `["coalesce", ["get", "missing"], ["get", "name"]]`, expected: "broadway"},
		{expr: `["concat", ["get", "name"], " st"]`, expected: "broadway st"},
		{expr: `["step", ["zoom"], 1, 10, 2, 14, 3]`, zoom: 12, expected: float64(2)},
		{expr: `["step", ["zoom"], 1, 10, 2, 14, 3]`, zoom: 9, expected: float64(1)},
	}

	for _, tc := range testcases {
		t.Run(tc.expr, func(t *testing.T) {
			got := evalExpr(t, tc.expr, tc.zoom, f)
			if got != tc.expected {
				t.Errorf("got %v (%T) want %v (%T)", got, got, tc.expected, tc.expected)
			}
		})
	}
}

func TestInterpolate(t *testing.T) {
	testcases := []struct {
		name     string
		expr     string
		zoom     float64
		expected float64
	}{
		{
			name:     "linear midpoint",
			expr:     `["interpolate", ["linear"], ["zoom"], 10, 2, 14, 10]`,
			zoom:     12,
			expected: 6,
		},
		{
			name:     "below first stop clamps",
			expr:     `["interpolate", ["linear"], ["zoom"], 10, 2, 14, 10]`,
			zoom:     5,
			expected: 2,
		},
		{
			name:     "beyond last stop clamps",
			expr:     `["interpolate", ["linear"], ["zoom"], 10, 2, 14, 10]`,
			zoom:     20,
			expected: 10,
		},
		{
			name:     "exponential base 2",
			expr:     `["interpolate", ["exponential", 2], ["zoom"], 10, 0, 12, 12]`,
			zoom:     11,
			expected: 4, // (2^1-1)/(2^2-1) of the way
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			got := evalExpr(t, tc.expr, tc.zoom, nil)
			n, ok := got.(float64)
			if !ok {
				t.Fatalf("got %T, want float64", got)
			}
			if diff := n - tc.expected; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("got %v want %v", n, tc.expected)
			}
		})
	}
}

func TestLegacyStopsFunction(t *testing.T) {
	// {"base": 1, "stops": [[in, out], ...]} interpolates over zoom
	got := evalExpr(t, `{"base": 1, "stops": [[0, 0], [10, 100]]}`, 5, nil)
	if got != float64(50) {
		t.Errorf("got %v want 50", got)
	}

	// with a property the input comes from the feature
	f := &feature.Feature{Props: map[string]interface{}{"pop": float64(500)}}
	got = evalExpr(t, `{"property": "pop", "stops": [[0, 0], [1000, 10]]}`, 0, f)
	if got != float64(5) {
		t.Errorf("got %v want 5", got)
	}
}

func TestLegacyFilters(t *testing.T) {
	road := &feature.Feature{
		Props: map[string]interface{}{"class": "road", "lanes": float64(2)},
		Type:  feature.Line,
	}
	park := &feature.Feature{
		Props: map[string]interface{}{"class": "park"},
		Type:  feature.Polygon,
	}

	testcases := []struct {
		filter   string
		f        *feature.Feature
		expected bool
	}{
		{filter: `["==", "class", "road"]`, f: road, expected: true},
		{filter: `["==", "class", "road"]`, f: park, expected: false},
		{filter: `["==", "$type", "Polygon"]`, f: park, expected: true},
		{filter: `["!=", "$type", "Polygon"]`, f: road, expected: true},
		{filter: `["in", "class", "road", "rail"]`, f: road, expected: true},
		{filter: `["!in", "class", "road", "rail"]`, f: park, expected: true},
		{filter: `["has", "lanes"]`, f: road, expected: true},
		{filter: `["!has", "lanes"]`, f: park, expected: true},
		{filter: `[">=", "lanes", 2]`, f: road, expected: true},
		{filter: `["all", ["==", "class", "road"], [">", "lanes", 1]]`, f: road, expected: true},
		{filter: `["any", ["==", "class", "rail"], ["==", "class", "park"]]`, f: park, expected: true},
		{filter: `["none", ["==", "class", "road"]]`, f: park, expected: true},
		{filter: `["none", ["==", "class", "road"]]`, f: road, expected: false},
	}

	for _, tc := range testcases {
		t.Run(tc.filter, func(t *testing.T) {
			expr, err := ParseFilter(parseJSON(t, tc.filter))
			if err != nil {
				t.Fatalf("parsing %v: %v", tc.filter, err)
			}
			if got := truthy(expr.Eval(0, tc.f)); got != tc.expected {
				t.Errorf("got %v want %v", got, tc.expected)
			}
		})
	}
}

func TestLooseEqual(t *testing.T) {
	// decoded attributes arrive as int64, literals as float64
	if !looseEqual(int64(4), float64(4)) {
		t.Error("int64 and float64 of the same value should be equal")
	}
	if looseEqual("4", float64(4)) {
		t.Error("strings never coerce to numbers")
	}
}
