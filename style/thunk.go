package style

import (
	"fmt"
	"regexp"

	colors "gopkg.in/go-playground/colors.v1"

	"github.com/atlasdatatech/arctile/feature"
)

// Thunks are the values the renderer evaluates per feature per zoom. They
// are closed over their compiled expression and must stay pure: the
// renderer batches and memoizes their results per frame, and evaluates
// them from concurrent tile workers.
type (
	NumberFunc func(zoom float64, f *feature.Feature) float64
	StringFunc func(zoom float64, f *feature.Feature) string
	ColorFunc  func(zoom float64, f *feature.Feature) string
	DashFunc   func(zoom float64, f *feature.Feature) []float64

	// Filter gates a rule per feature.
	Filter func(zoom float64, f *feature.Feature) bool
)

// CombineNumbers evaluates every thunk and applies reduce to the resolved
// values. Used to derive one attribute from several, e.g. summing line
// width and gap width.
func CombineNumbers(reduce func(vals []float64) float64, fns ...NumberFunc) NumberFunc {
	return func(zoom float64, f *feature.Feature) float64 {
		vals := make([]float64, len(fns))
		for i, fn := range fns {
			vals[i] = fn(zoom, f)
		}
		return reduce(vals)
	}
}

func sum(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

// numberThunk compiles a raw style value into a NumberFunc. Values that
// don't resolve to a number evaluate to def.
func numberThunk(v interface{}, def float64) (NumberFunc, error) {
	if v == nil {
		return func(float64, *feature.Feature) float64 { return def }, nil
	}
	expr, err := ParseExpression(v)
	if err != nil {
		return nil, err
	}
	if c, ok := expr.(constant); ok {
		n, ok := toFloat(c.v)
		if !ok {
			return nil, fmt.Errorf("expected a numeric value, got %v", c.v)
		}
		return func(float64, *feature.Feature) float64 { return n }, nil
	}
	return func(zoom float64, f *feature.Feature) float64 {
		if n, ok := toFloat(expr.Eval(zoom, f)); ok {
			return n
		}
		return def
	}, nil
}

// colorThunk compiles a raw style value into a ColorFunc producing
// normalized rgba() strings. A malformed constant color is a compile
// error; a data-driven value that resolves to garbage at evaluation time
// falls back to def.
func colorThunk(v interface{}, def string) (ColorFunc, error) {
	if v == nil {
		return func(float64, *feature.Feature) string { return def }, nil
	}
	expr, err := ParseExpression(v)
	if err != nil {
		return nil, err
	}
	if c, ok := expr.(constant); ok {
		s, ok := c.v.(string)
		if !ok {
			return nil, fmt.Errorf("expected a color string, got %v", c.v)
		}
		normalized, err := normalizeColor(s)
		if err != nil {
			return nil, err
		}
		return func(float64, *feature.Feature) string { return normalized }, nil
	}
	return func(zoom float64, f *feature.Feature) string {
		s, ok := expr.Eval(zoom, f).(string)
		if !ok {
			return def
		}
		normalized, err := normalizeColor(s)
		if err != nil {
			return def
		}
		return normalized
	}, nil
}

func normalizeColor(s string) (string, error) {
	c, err := colors.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid color %q: %v", s, err)
	}
	return c.ToRGBA().String(), nil
}

// stringThunk compiles a raw style value into a StringFunc.
func stringThunk(v interface{}, def string) (StringFunc, error) {
	if v == nil {
		return func(float64, *feature.Feature) string { return def }, nil
	}
	expr, err := ParseExpression(v)
	if err != nil {
		return nil, err
	}
	return func(zoom float64, f *feature.Feature) string {
		out := expr.Eval(zoom, f)
		if out == nil {
			return def
		}
		if s, ok := out.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", out)
	}, nil
}

var fieldToken = regexp.MustCompile(`{([^}]+)}`)

// labelThunk compiles a text-field value. Constant strings may embed
// {field} tokens that are substituted from the feature's properties.
func labelThunk(v interface{}) (StringFunc, error) {
	if s, ok := v.(string); ok && fieldToken.MatchString(s) {
		return func(_ float64, f *feature.Feature) string {
			return fieldToken.ReplaceAllStringFunc(s, func(tok string) string {
				if f == nil {
					return ""
				}
				if val, ok := f.Props[tok[1:len(tok)-1]]; ok && val != nil {
					return fmt.Sprintf("%v", val)
				}
				return ""
			})
		}, nil
	}
	return stringThunk(v, "")
}

// dashThunk compiles a line-dasharray value. Only constant arrays are
// supported; nil means solid.
func dashThunk(v interface{}) (DashFunc, error) {
	if v == nil {
		return nil, nil
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("dasharray must be an array, got %v", v)
	}
	dashes := make([]float64, 0, len(arr))
	for _, e := range arr {
		n, ok := toFloat(e)
		if !ok {
			return nil, fmt.Errorf("non-numeric dasharray entry %v", e)
		}
		dashes = append(dashes, n)
	}
	return func(float64, *feature.Feature) []float64 { return dashes }, nil
}

// filterThunk compiles a layer filter into a Filter. A nil filter matches
// everything and compiles to nil.
func filterThunk(v interface{}) (Filter, error) {
	if v == nil {
		return nil, nil
	}
	expr, err := ParseFilter(v)
	if err != nil {
		return nil, err
	}
	return func(zoom float64, f *feature.Feature) bool {
		return truthy(expr.Eval(zoom, f))
	}, nil
}
